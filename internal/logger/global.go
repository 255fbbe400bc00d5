package logger

import (
	"io"
	"log"
	"os"
)

var global *Logger

func init() {
	// Start with warning level to stderr until config is loaded
	SetupGlobalLogger(WarningLevel, os.Stderr)
}

func SetupGlobalLogger(level int, writers ...io.Writer) {
	global = New(level, writers...)
}

func Debug() *log.Logger {
	return global.loggers[DebugLevel]
}

func Info() *log.Logger {
	return global.loggers[InfoLevel]
}

func Warning() *log.Logger {
	return global.loggers[WarningLevel]
}

func Error() *log.Logger {
	return global.loggers[ErrorLevel]
}
