package ws

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/gaiasync/gaiasync/internal/core/transport"
)

// livenessPayload is the ping body sent when a connection has been
// silent past the read timeout.
var livenessPayload = []byte("ping")

// Conn is an accepted WebSocket connection. Reads happen on the server's
// per-connection goroutine; Send may be called from any goroutine.
type Conn struct {
	id  string
	raw net.Conn
	br  *bufio.Reader

	readTimeout  time.Duration
	writeTimeout time.Duration
	maxPayload   int64

	writeMu      sync.Mutex
	closed       int32
	lastActivity int64
}

var _ transport.Conn = (*Conn)(nil)

func newConn(raw net.Conn, br *bufio.Reader, cfg Config) *Conn {
	return &Conn{
		id:           uuid.NewString(),
		raw:          raw,
		br:           br,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		maxPayload:   cfg.MaxPayload,
		lastActivity: time.Now().UnixNano(),
	}
}

// ID returns the identifier assigned at accept time.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// Send writes one text frame. Concurrent sends are serialized; a write
// past the deadline fails and the caller is expected to drop the
// connection, not retry.
func (c *Conn) Send(data []byte) error {
	return c.writeFrame(OpText, data)
}

// IsClosed reports whether the connection has been torn down.
func (c *Conn) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// LastActivity returns the time of the most recent inbound bytes.
func (c *Conn) LastActivity() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.lastActivity))
}

// Close sends a close frame best-effort and drops the TCP connection.
// It is idempotent.
func (c *Conn) Close() error {
	return c.closeWithFrame(nil)
}

func (c *Conn) closeWithFrame(payload []byte) error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	c.writeMu.Lock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, _ = c.raw.Write(EncodeFrame(OpClose, payload))
	c.writeMu.Unlock()
	return c.raw.Close()
}

func (c *Conn) writeFrame(op Opcode, payload []byte) error {
	if c.IsClosed() {
		return ErrConnClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(EncodeFrame(op, payload))
	return err
}

func (c *Conn) touch() {
	atomic.StoreInt64(&c.lastActivity, time.Now().UnixNano())
}

// readLoop pumps frames until the connection ends. It returns nil after
// a clean close exchange and the causing error otherwise. Data frames go
// to onMessage; pings are answered in place; a silent period longer than
// the read timeout triggers a liveness ping and the loop keeps waiting.
func (c *Conn) readLoop(onMessage func(payload []byte)) error {
	var buf []byte
	chunk := make([]byte, 4096)

	for {
		if c.readTimeout > 0 {
			_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		n, err := c.br.Read(chunk)
		if err != nil {
			if c.IsClosed() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				if pingErr := c.writeFrame(OpPing, livenessPayload); pingErr != nil {
					return pingErr
				}
				continue
			}
			return err
		}
		c.touch()
		buf = append(buf, chunk[:n]...)

		for {
			frame, consumed, err := ParseFrame(buf, c.maxPayload)
			if errors.Is(err, ErrShortFrame) {
				break
			}
			if err != nil {
				return err
			}
			buf = buf[consumed:]

			switch frame.Opcode {
			case OpText, OpBinary:
				onMessage(frame.Payload)
			case OpPing:
				if err := c.writeFrame(OpPong, frame.Payload); err != nil {
					return err
				}
			case OpPong:
				// Liveness already updated by touch.
			case OpClose:
				_ = c.closeWithFrame(frame.Payload)
				return nil
			}
		}
	}
}
