package logger

import (
	"encoding/json"
	"io"

	"github.com/SyntropyNet/syntropy-l3router/internal/env"
	"github.com/SyntropyNet/syntropy-l3router/pkg/common"
)

const cmd = "LOGGER"

type loggerMessage struct {
	common.MessageHeader
	Data struct {
		Level   string `json:"severity"`
		Module  string `json:"module"`
		Message string `json:"message"`
	} `json:"data"`
}

// controllerLogger forwards log lines to the controller feed as LOGGER messages.
type controllerLogger struct {
	wr    io.Writer
	level string
}

// NewControllerWriter wraps w so that New recognises it as the controller sink.
// Every log line is then sent to w as a separate JSON message.
func NewControllerWriter(w io.Writer) io.Writer {
	return &controllerLogger{wr: w}
}

func (l *controllerLogger) withLevel(level int) *controllerLogger {
	return &controllerLogger{
		wr:    l.wr,
		level: logLevelString(level),
	}
}

func (l *controllerLogger) Write(b []byte) (n int, err error) {
	msg := loggerMessage{
		MessageHeader: common.NewHeader(cmd),
	}

	msg.Data.Message = string(b)
	msg.Data.Level = l.level
	msg.Data.Module = env.ModuleName
	raw, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	_, err = l.wr.Write(raw)
	if err != nil {
		return 0, err
	}
	// log.Logger expects the length of its own buffer
	return len(b), nil
}
