package quic

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quic-go/quic-go"

	"github.com/gaiasync/gaiasync/internal/core/observability/log"
	"github.com/gaiasync/gaiasync/internal/core/transport"
)

// Transport errors
var (
	ErrConnClosed           = errors.New("quic: connection closed")
	ErrServerAlreadyRunning = errors.New("quic: server already running")
	ErrServerNotRunning     = errors.New("quic: server not running")
)

// DefaultMaxLineBytes bounds one newline-delimited envelope.
const DefaultMaxLineBytes = 1 << 20

// Config holds the QUIC endpoint settings. An empty certificate pair
// selects a generated self-signed certificate for development.
type Config struct {
	Addr         string        `yaml:"addr"`
	CertFile     string        `yaml:"cert_file"`
	KeyFile      string        `yaml:"key_file"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxLineBytes int           `yaml:"max_line_bytes"`
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8766",
		WriteTimeout: 10 * time.Second,
		MaxLineBytes: DefaultMaxLineBytes,
	}
}

// Server accepts QUIC sessions and feeds their traffic to a
// transport.Handler, one read goroutine per session.
type Server struct {
	config  Config
	handler transport.Handler
	logger  log.Log

	listener *quic.Listener
	cancel   context.CancelFunc
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
		logger:  logger.With(log.String("transport", "quic")),
	}
}

// Name implements transport.Listener.
func (s *Server) Name() string {
	return "quic"
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the UDP listener and begins accepting sessions.
func (s *Server) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrServerAlreadyRunning
	}

	tlsConf, err := loadTLSConfig(s.config.CertFile, s.config.KeyFile)
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}

	listener, err := quic.ListenAddr(s.config.Addr, tlsConf, &quic.Config{})
	if err != nil {
		atomic.StoreInt32(&s.running, 0)
		return err
	}
	s.listener = listener

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.logger.Info("QUIC server listening", log.String("addr", listener.Addr().String()))

	s.wg.Add(1)
	go s.acceptLoop(ctx)
	return nil
}

// Stop closes the listener and every live session, then waits for the
// per-session goroutines to drain.
func (s *Server) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrServerNotRunning
	}

	s.cancel()
	err := s.listener.Close()
	s.conns.Range(func(_, value any) bool {
		_ = value.(*Conn).Close()
		return true
	})
	s.wg.Wait()

	s.logger.Info("QUIC server stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		session, err := s.listener.Accept(ctx)
		if err != nil {
			if atomic.LoadInt32(&s.running) == 0 || ctx.Err() != nil {
				return
			}
			s.logger.Warn("Accept failed", log.Error(err))
			continue
		}
		s.wg.Add(1)
		go s.handleSession(ctx, session)
	}
}

func (s *Server) handleSession(ctx context.Context, session quic.Connection) {
	defer s.wg.Done()

	stream, err := session.AcceptStream(ctx)
	if err != nil {
		_ = session.CloseWithError(0, "no stream")
		return
	}

	conn := newConn(session, stream, s.config)
	s.conns.Store(conn.id, conn)
	s.logger.Debug("Session established",
		log.String("conn_id", conn.id),
		log.String("remote", conn.RemoteAddr().String()))

	s.handler.OnConnect(conn)
	readErr := conn.readLoop(func(payload []byte) {
		s.handler.OnMessage(conn, payload)
	})

	s.conns.Delete(conn.id)
	_ = conn.Close()
	s.handler.OnDisconnect(conn, readErr)
}

// Dial opens a client session and its message stream. Certificate
// verification is skipped, matching the generated server certificate;
// it exists for native tooling and tests.
func Dial(ctx context.Context, addr string) (*Conn, error) {
	tlsConf := &tls.Config{
		InsecureSkipVerify: true,
		NextProtos:         []string{alpnProtocol},
	}
	session, err := quic.DialAddr(ctx, addr, tlsConf, &quic.Config{})
	if err != nil {
		return nil, err
	}
	stream, err := session.OpenStreamSync(ctx)
	if err != nil {
		_ = session.CloseWithError(0, "no stream")
		return nil, err
	}
	return newConn(session, stream, DefaultConfig()), nil
}
