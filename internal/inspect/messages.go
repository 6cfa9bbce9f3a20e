package inspect

import (
	"encoding/json"

	"github.com/vango-dev/skellyview/pkg/store"
)

// MessageType identifies a websocket message.
type MessageType string

const (
	// MessageHello is the first message on every connection.
	MessageHello MessageType = "hello"

	// MessageChange carries one store change.
	MessageChange MessageType = "change"

	// MessageError reports a command the server could not apply.
	MessageError MessageType = "error"
)

// Message is sent from the server to websocket clients.
type Message struct {
	Type     MessageType     `json:"type"`
	ClientID string          `json:"clientId,omitempty"`
	Snapshot *store.Snapshot `json:"snapshot,omitempty"`
	Change   *store.Change   `json:"change,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// CommandType identifies a command sent by a websocket client.
type CommandType string

const (
	CommandTrigger CommandType = "trigger"
	CommandReset   CommandType = "reset"
	CommandFrame   CommandType = "frame"
	CommandPlay    CommandType = "play"
	CommandPause   CommandType = "pause"
)

// Command is sent from websocket clients to the server.
type Command struct {
	Type    CommandType `json:"type"`
	Tracker string      `json:"tracker,omitempty"`
	Frame   *int        `json:"frame,omitempty"`
}

// fetchRequest is the body of POST /api/fetch.
type fetchRequest struct {
	Tracker string `json:"tracker"`
}

// animationRequest is the body of POST /api/animation. Absent fields are
// left alone; a null frame clears the current frame.
type animationRequest struct {
	Frame     json.RawMessage `json:"frame"`
	NumFrames *int            `json:"numFrames"`
	Playing   *bool           `json:"playing"`
	FPS       *float64        `json:"fps"`
}

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}
