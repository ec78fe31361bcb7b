// Package quic provides the optional QUIC transport for native clients.
// Each session uses one bidirectional stream carrying newline-delimited
// JSON envelopes; the framing relies on encoding/json never emitting a
// raw newline inside a document.
package quic

import (
	"bufio"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/quic-go/quic-go"

	"github.com/gaiasync/gaiasync/internal/core/transport"
)

// Conn is one QUIC session with its message stream.
type Conn struct {
	id      string
	session quic.Connection
	stream  quic.Stream
	br      *bufio.Reader

	writeTimeout time.Duration
	maxLineBytes int

	writeMu      sync.Mutex
	closed       int32
	lastActivity int64
}

var _ transport.Conn = (*Conn)(nil)

func newConn(session quic.Connection, stream quic.Stream, cfg Config) *Conn {
	return &Conn{
		id:           uuid.NewString(),
		session:      session,
		stream:       stream,
		br:           bufio.NewReader(stream),
		writeTimeout: cfg.WriteTimeout,
		maxLineBytes: cfg.MaxLineBytes,
		lastActivity: time.Now().UnixNano(),
	}
}

// ID returns the identifier assigned at accept time.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.session.RemoteAddr()
}

// Send writes one payload as a single line. The payload must not contain
// a raw newline.
func (c *Conn) Send(data []byte) error {
	if c.IsClosed() {
		return ErrConnClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.stream.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.stream.Write(data); err != nil {
		return err
	}
	_, err := c.stream.Write([]byte{'\n'})
	return err
}

// IsClosed reports whether the connection has been torn down.
func (c *Conn) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// LastActivity returns the time of the most recent inbound line.
func (c *Conn) LastActivity() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.lastActivity))
}

// Close ends the session with a normal status. It is idempotent.
func (c *Conn) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	return c.session.CloseWithError(0, "connection closed")
}

func (c *Conn) touch() {
	atomic.StoreInt64(&c.lastActivity, time.Now().UnixNano())
}

// readLoop delivers one payload per line until the stream ends. A close
// initiated by us yields nil; a peer reset or transport failure yields
// the error.
func (c *Conn) readLoop(onMessage func(payload []byte)) error {
	scanner := bufio.NewScanner(c.br)
	max := c.maxLineBytes
	if max <= 0 {
		max = DefaultMaxLineBytes
	}
	scanner.Buffer(make([]byte, 0, 64*1024), max)

	for scanner.Scan() {
		c.touch()
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		payload := make([]byte, len(line))
		copy(payload, line)
		onMessage(payload)
	}
	if c.IsClosed() {
		return nil
	}
	return scanner.Err()
}

// Receive reads the next payload line from a dialed connection, the
// client-side counterpart of Send.
func (c *Conn) Receive() ([]byte, error) {
	line, err := c.br.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	c.touch()
	return line[:len(line)-1], nil
}
