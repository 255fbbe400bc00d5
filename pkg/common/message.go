// common package holds types shared by the router and its controller feed
package common

import (
	"time"

	"github.com/SyntropyNet/syntropy-l3router/internal/env"
)

// MessageHeader is the common part of every controller feed message
type MessageHeader struct {
	ID        string `json:"id"`
	MsgType   string `json:"type"`
	Timestamp string `json:"executed_at,omitempty"`
}

func NewHeader(msgType string) MessageHeader {
	mh := MessageHeader{
		ID:      env.MessageDefaultID,
		MsgType: msgType,
	}
	mh.Now()
	return mh
}

func (mh *MessageHeader) Now() {
	mh.Timestamp = time.Now().Format(env.TimeFormat)
}

// ErrorResponse reports a message the router could not process
type ErrorResponse struct {
	MessageHeader
	Data struct {
		Type    string `json:"type"`
		Message string `json:"error"`
	} `json:"data"`
}

func NewErrorResponse(id, msgType string, err error) ErrorResponse {
	resp := ErrorResponse{
		MessageHeader: NewHeader("ERROR"),
	}
	if id != "" {
		resp.ID = id
	}
	resp.Data.Type = msgType
	resp.Data.Message = err.Error()
	return resp
}
