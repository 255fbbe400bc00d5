package logger

import (
	"io"
	"log"
	"strings"
)

const (
	DebugLevel = iota
	InfoLevel
	WarningLevel
	ErrorLevel
	logLevelsCount // not a real log level, but simplifies some code
)

type Logger struct {
	loggers [logLevelsCount]*log.Logger
}

func logLevelString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	default:
		return "?????"
	}
}

func logLevelPrefix(level int) string {
	switch level {
	case DebugLevel:
		return "[DBG] "
	case InfoLevel:
		return "[INF] "
	case WarningLevel:
		return "[WRN] "
	case ErrorLevel:
		return "[ERR] "
	default:
		return "[???] "
	}
}

// ParseLevel converts a level name to its numeric value.
// Unknown names fall back to InfoLevel.
func ParseLevel(name string) int {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG", "DBG":
		return DebugLevel
	case "INFO", "INF":
		return InfoLevel
	case "WARNING", "WARN", "WRN":
		return WarningLevel
	case "ERROR", "ERR":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

func New(level int, writers ...io.Writer) *Logger {
	var controllerWriter *controllerLogger
	w := []io.Writer{}
	for _, onewriter := range writers {
		// Controller logger must know the level of every line it forwards,
		// so it is split out of the generic writers and wrapped per level below.
		switch typewr := onewriter.(type) {
		case *controllerLogger:
			controllerWriter = typewr
		case nil:
			continue
		default:
			w = append(w, typewr)
		}
	}

	nullWriter := &nullWriter{}
	lgr := Logger{}

	makeWriters := func(wrs ...io.Writer) io.Writer {
		switch len(wrs) {
		case 0:
			return nullWriter
		case 1:
			return wrs[0]
		default:
			return io.MultiWriter(wrs...)
		}
	}

	for i := 0; i < logLevelsCount; i++ {
		if i < level {
			lgr.loggers[i] = log.New(nullWriter, "", log.Ldate|log.Ltime)
			continue
		}

		if controllerWriter != nil {
			lgr.loggers[i] = log.New(makeWriters(append(w, controllerWriter.withLevel(i))...),
				logLevelPrefix(i), log.Ldate|log.Ltime)
		} else {
			lgr.loggers[i] = log.New(makeWriters(w...), logLevelPrefix(i), log.Ldate|log.Ltime)
		}
	}
	return &lgr
}

func (lgr *Logger) Debug() *log.Logger {
	return lgr.loggers[DebugLevel]
}

func (lgr *Logger) Info() *log.Logger {
	return lgr.loggers[InfoLevel]
}

func (lgr *Logger) Warning() *log.Logger {
	return lgr.loggers[WarningLevel]
}

func (lgr *Logger) Error() *log.Logger {
	return lgr.loggers[ErrorLevel]
}
