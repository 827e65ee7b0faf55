package server

import (
	"encoding/json"
	"time"
)

// Message is the envelope for every WebSocket frame in either direction.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message stamped with now
func NewMessage(messageType MessageType, data any, now time.Time) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: now,
	}, nil
}

// Client → Server Messages

// AuthData binds a connection to a sender identity. Secret is the operator
// secret when one is configured.
type AuthData struct {
	Sender string `json:"sender"`
	Secret string `json:"secret,omitempty"`
}

// Execute and query frames carry protocol.ExecuteMsg and protocol.QueryMsg
// as their data verbatim.

// Server → Client Messages

type AuthResponseData struct {
	Success bool   `json:"success"`
	Sender  string `json:"sender,omitempty"`
	Error   string `json:"error,omitempty"`
}
