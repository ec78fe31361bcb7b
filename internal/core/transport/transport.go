// Package transport defines the contract between the network edge and
// the session layer. Implementations (WebSocket, QUIC) accept client
// connections, deliver inbound payloads to a Handler, and expose a
// uniform Conn for outbound sends.
package transport

import (
	"net"
	"time"
)

// Conn is one client connection, independent of the wire protocol
// carrying it.
type Conn interface {
	// ID is a process-unique identifier assigned at accept time.
	ID() string
	RemoteAddr() net.Addr

	// Send writes one complete message payload. Implementations
	// serialize concurrent sends; a failed send affects only this
	// connection.
	Send(data []byte) error

	// Close tears the connection down. It is idempotent and performs
	// whatever clean-shutdown exchange the wire protocol defines.
	Close() error
	IsClosed() bool

	// LastActivity is the time of the most recent inbound traffic.
	LastActivity() time.Time
}

// Handler receives connection events. Callbacks for one connection are
// delivered sequentially on that connection's read goroutine; callbacks
// for different connections run concurrently.
type Handler interface {
	OnConnect(c Conn)
	OnMessage(c Conn, payload []byte)
	OnDisconnect(c Conn, err error)
}

// Listener is a transport endpoint accepting client connections and
// feeding them to a Handler.
type Listener interface {
	// Name identifies the transport ("websocket", "quic") in logs and
	// stats.
	Name() string

	// Addr returns the bound address once started.
	Addr() net.Addr

	// Start binds the endpoint and begins accepting.
	Start() error

	// Stop closes the endpoint and every live connection.
	Stop() error
}
