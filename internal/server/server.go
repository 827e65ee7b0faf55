package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/lox/pokerdealer/internal/auth"
	"github.com/lox/pokerdealer/internal/dealer"
	"github.com/lox/pokerdealer/internal/protocol"
)

const (
	// HeaderSender names the identity making an execute call.
	HeaderSender = "X-Sender"
	// HeaderOperatorSecret carries the operator secret when one is configured.
	HeaderOperatorSecret = "X-Operator-Secret"

	maxRequestSize = 1 << 20
)

// Server exposes the dealer engine over HTTP and WebSocket
type Server struct {
	addr           string
	engine         *dealer.Engine
	viewer         auth.Validator
	operatorSecret string
	clock          quartz.Clock
	upgrader       websocket.Upgrader
	connections    map[*Connection]bool
	logger         *log.Logger
	mu             sync.RWMutex
	httpServer     *http.Server
	ctx            context.Context
	cancel         context.CancelFunc
}

// Option configures a Server
type Option func(*Server)

// WithViewer sets the validator used for permit queries.
func WithViewer(v auth.Validator) Option {
	return func(s *Server) { s.viewer = v }
}

// WithOperatorSecret requires secret on every execute call.
func WithOperatorSecret(secret string) Option {
	return func(s *Server) { s.operatorSecret = secret }
}

// WithClock sets the clock used to stamp WebSocket messages.
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// NewServer creates a new server for engine
func NewServer(addr string, engine *dealer.Engine, logger *log.Logger, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr:   addr,
		engine: engine,
		viewer: auth.NewNoopValidator(),
		clock:  quartz.NewReal(),
		upgrader: websocket.Upgrader{
			// clients are operator tooling, not browsers
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP routes served by s
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/execute", s.handleExecute)
	mux.HandleFunc("/query", s.handleQuery)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Starting dealer server", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and closes every WebSocket connection
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	srv := s.httpServer
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close() // Ignore close errors during shutdown
	}
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	if _, ok := s.connections[conn]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.connections, conn)
	total := len(s.connections)
	s.mu.Unlock()

	_ = conn.Close() // Ignore close errors during unregistration
	s.logger.Info("Client disconnected", "sender", conn.Sender(), "total", total)
}

// checkOperator verifies the operator secret when one is configured.
func (s *Server) checkOperator(secret string) bool {
	if s.operatorSecret == "" {
		return true
	}
	return auth.SecretsEqual(s.operatorSecret, secret)
}

func (s *Server) execute(ctx context.Context, sender string, data []byte) (*protocol.Response, error) {
	var msg protocol.ExecuteMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidMessage, err)
	}
	return s.engine.Execute(ctx, sender, msg)
}

func (s *Server) query(ctx context.Context, data []byte) ([]byte, error) {
	var msg protocol.QueryMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidMessage, err)
	}
	return s.engine.Query(ctx, msg, s.viewer)
}

// handleExecute runs an execute message posted by the operator
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, errMethodNotAllowed)
		return
	}
	if !s.checkOperator(r.Header.Get(HeaderOperatorSecret)) {
		s.writeError(w, &dealer.Error{Kind: dealer.KindUnauthorized})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errInvalidMessage, err))
		return
	}

	resp, err := s.execute(r.Context(), r.Header.Get(HeaderSender), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleQuery answers a read-only query message
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, errMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestSize))
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errInvalidMessage, err))
		return
	}

	result, err := s.query(r.Context(), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(s.ctx, conn, s, s.logger)
	s.register(client)
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister(client)
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.engine.Instantiated(r.Context()); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK") // Ignore write errors for health check
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, payload := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "code", payload.Code, "error", err)
	} else {
		s.logger.Debug("Request rejected", "code", payload.Code, "error", err)
	}

	data, mErr := protocol.Marshal(payload)
	if mErr != nil {
		http.Error(w, payload.Message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
