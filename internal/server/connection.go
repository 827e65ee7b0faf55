package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/pokerdealer/internal/protocol"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn      *websocket.Conn
	server    *Server
	send      chan *Message
	sender    string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	sendMu    sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewConnection wraps conn. The connection is cancelled with parent.
func NewConnection(parent context.Context, conn *websocket.Conn, server *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(parent)

	return &Connection{
		conn:   conn,
		server: server,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client
func (c *Connection) SendMessage(msg *Message) error {
	c.sendMu.Lock()
	if c.closed {
		c.sendMu.Unlock()
		return ErrConnectionClosed
	}
	select {
	case c.send <- msg:
		c.sendMu.Unlock()
		return nil
	default:
		c.sendMu.Unlock()
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// SetSender binds the connection to an authenticated identity
func (c *Connection) SetSender(sender string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sender = sender
}

// Sender returns the authenticated identity, or "" before auth
func (c *Connection) Sender() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sender
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 64 * 1024
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes incoming messages from the client. Requests on one
// connection are answered in order.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "sender", c.Sender(), "request", msg.RequestID)

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil || data.Sender == "" {
			c.sendError(msg.RequestID, errInvalidMessage)
			return
		}
		if !c.server.checkOperator(data.Secret) {
			c.reply(msg.RequestID, MessageTypeAuthResponse, AuthResponseData{Success: false, Error: "invalid secret"})
			return
		}
		c.SetSender(data.Sender)
		c.reply(msg.RequestID, MessageTypeAuthResponse, AuthResponseData{Success: true, Sender: data.Sender})

	case MessageTypeExecute:
		sender := c.Sender()
		if sender == "" {
			c.sendError(msg.RequestID, errNotAuthenticated)
			return
		}
		resp, err := c.server.execute(c.ctx, sender, msg.Data)
		if err != nil {
			c.sendError(msg.RequestID, err)
			return
		}
		c.reply(msg.RequestID, MessageTypeResult, resp)

	case MessageTypeQuery:
		result, err := c.server.query(c.ctx, msg.Data)
		if err != nil {
			c.sendError(msg.RequestID, err)
			return
		}
		c.reply(msg.RequestID, MessageTypeResult, json.RawMessage(result))

	default:
		c.sendError(msg.RequestID, errInvalidMessage)
	}
}

func (c *Connection) reply(requestID string, msgType MessageType, data any) {
	msg, err := NewMessage(msgType, data, c.server.clock.Now())
	if err != nil {
		c.logger.Error("Failed to encode message", "type", msgType, "error", err)
		return
	}
	msg.RequestID = requestID
	if err := c.SendMessage(msg); err != nil {
		c.logger.Debug("Dropped message for closed connection", "type", msgType)
	}
}

func (c *Connection) sendError(requestID string, err error) {
	_, payload := classifyError(err)
	payload.Type = protocol.TypeError
	c.reply(requestID, MessageTypeError, payload)
}
