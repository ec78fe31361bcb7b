package ws

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gaiasync/gaiasync/internal/core/observability/log"
	"github.com/gaiasync/gaiasync/internal/core/transport"
)

// Config holds the WebSocket endpoint settings.
type Config struct {
	Addr string `yaml:"addr"`

	// ReadTimeout is the silent period after which a liveness ping is
	// sent. HandshakeTimeout bounds the opening HTTP exchange.
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	MaxPayload       int64         `yaml:"max_payload"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Addr:             ":8765",
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		MaxPayload:       DefaultMaxPayload,
	}
}

// Server accepts WebSocket connections and feeds their traffic to a
// transport.Handler, one read goroutine per connection.
type Server struct {
	config  Config
	handler transport.Handler
	logger  log.Log

	listener net.Listener
	conns    sync.Map
	running  int32
	wg       sync.WaitGroup
}

var _ transport.Listener = (*Server)(nil)

// NewServer builds a server; Start binds it.
func NewServer(config Config, handler transport.Handler, logger log.Log) *Server {
	return &Server{
		config:  config,
		handler: handler,
		logger:  logger.With(log.String("transport", "websocket")),
	}
}

// Name implements transport.Listener.
func (s *Server) Name() string {
	return "websocket"
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the TCP listener and begins accepting connections.
func (s *Server) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	s.listener = listener

	s.logger.Info("WebSocket server listening", log.String("addr", listener.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Stop closes the listener and every live connection, then waits for the
// per-connection goroutines to drain.
func (s *Server) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	err := s.listener.Close()
	s.conns.Range(func(_, value any) bool {
		_ = value.(*Conn).Close()
		return true
	})
	s.wg.Wait()

	s.logger.Info("WebSocket server stopped")
	return err
}

// ConnCount returns the number of live connections.
func (s *Server) ConnCount() int {
	n := 0
	s.conns.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		raw, err := s.listener.Accept()
		if err != nil {
			if atomic.LoadInt32(&s.running) == 0 {
				return
			}
			s.logger.Warn("Accept failed", log.Error(err))
			continue
		}
		s.wg.Add(1)
		go s.handleConn(raw)
	}
}

func (s *Server) handleConn(raw net.Conn) {
	defer s.wg.Done()

	br := bufio.NewReader(raw)
	if err := upgrade(raw, br, s.config.HandshakeTimeout); err != nil {
		s.logger.Debug("Handshake rejected",
			log.String("remote", raw.RemoteAddr().String()),
			log.Error(err))
		_ = raw.Close()
		return
	}

	conn := newConn(raw, br, s.config)
	s.conns.Store(conn.id, conn)
	s.logger.Debug("Connection established",
		log.String("conn_id", conn.id),
		log.String("remote", conn.RemoteAddr().String()))

	s.handler.OnConnect(conn)
	err := conn.readLoop(func(payload []byte) {
		s.handler.OnMessage(conn, payload)
	})

	s.conns.Delete(conn.id)
	_ = conn.Close()
	s.handler.OnDisconnect(conn, err)

	if err != nil {
		s.logger.Debug("Connection ended", log.String("conn_id", conn.id), log.Error(err))
	} else {
		s.logger.Debug("Connection closed cleanly", log.String("conn_id", conn.id))
	}
}
