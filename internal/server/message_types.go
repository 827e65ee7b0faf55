package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants
const (
	// Client to server messages
	MessageTypeAuth    MessageType = "auth"
	MessageTypeExecute MessageType = "execute"
	MessageTypeQuery   MessageType = "query"

	// Server to client messages
	MessageTypeAuthResponse MessageType = "auth_response"
	MessageTypeResult       MessageType = "result"
	MessageTypeError        MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}
