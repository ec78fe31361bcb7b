package ws

import "errors"

// Framing errors
var (
	// ErrShortFrame means the buffer does not yet hold a complete frame.
	// The caller keeps the bytes and retries after the next read.
	ErrShortFrame = errors.New("ws: incomplete frame")

	ErrConnClosed = errors.New("ws: connection closed")
)

// Server errors
var (
	ErrServerAlreadyRunning = errors.New("ws: server already running")
	ErrServerNotRunning     = errors.New("ws: server not running")
)

// ProtocolError reports a violation of the wire protocol: a malformed
// frame or a broken handshake. The connection carrying it cannot be
// recovered and is closed.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "ws: protocol error: " + e.Reason
}
