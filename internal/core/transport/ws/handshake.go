package ws

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"time"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey derives the Sec-WebSocket-Accept value for a client key.
func AcceptKey(key string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, key+acceptGUID)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// upgrade performs the opening handshake on a raw TCP connection. The
// HTTP request is read from br so any bytes the client pipelined after
// the handshake stay buffered for the frame loop. A request without a
// Sec-WebSocket-Key gets a 400 and an error; the caller closes.
func upgrade(raw net.Conn, br *bufio.Reader, timeout time.Duration) error {
	if timeout > 0 {
		_ = raw.SetReadDeadline(time.Now().Add(timeout))
	}
	req, err := http.ReadRequest(br)
	if err != nil {
		_, _ = raw.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
		return &ProtocolError{Reason: "unreadable handshake request"}
	}

	key := req.Header.Get("Sec-WebSocket-Key")
	if key == "" {
		_, _ = raw.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
		return &ProtocolError{Reason: "missing Sec-WebSocket-Key"}
	}

	resp := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + AcceptKey(key) + "\r\n\r\n"
	if _, err := raw.Write([]byte(resp)); err != nil {
		return err
	}
	_ = raw.SetReadDeadline(time.Time{})
	return nil
}
