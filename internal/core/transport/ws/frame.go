// Package ws implements the server side of the WebSocket protocol
// (RFC 6455) directly on top of TCP: handshake, frame codec, and a
// per-connection read loop with liveness pings. The server path has no
// third-party protocol dependency; clients in tests and the SDK dial in
// with an independent implementation.
package ws

import (
	"crypto/rand"
	"encoding/binary"
	"math"
)

// Opcode is the frame type from the low nibble of the first header byte.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xA
)

const (
	finBit  = 0x80
	maskBit = 0x80
	rsvMask = 0x70
)

// DefaultMaxPayload bounds a single frame's payload when the caller does
// not supply a limit.
const DefaultMaxPayload = 1 << 20

// Frame is one parsed WebSocket frame with its payload unmasked.
type Frame struct {
	FIN     bool
	Opcode  Opcode
	Masked  bool
	Payload []byte
}

func validOpcode(op Opcode) bool {
	switch op {
	case OpContinuation, OpText, OpBinary, OpClose, OpPing, OpPong:
		return true
	}
	return false
}

// ParseFrame decodes the first frame in data and returns it with the
// number of bytes consumed. When data holds only part of a frame the
// error is ErrShortFrame and the caller retries with more bytes; any
// other error is a protocol violation and the connection is dead.
// maxPayload bounds the declared payload length, with DefaultMaxPayload
// used when it is not positive.
func ParseFrame(data []byte, maxPayload int64) (Frame, int, error) {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	if len(data) < 2 {
		return Frame{}, 0, ErrShortFrame
	}

	b0, b1 := data[0], data[1]
	if b0&rsvMask != 0 {
		return Frame{}, 0, &ProtocolError{Reason: "nonzero RSV bits"}
	}
	op := Opcode(b0 & 0x0F)
	if !validOpcode(op) {
		return Frame{}, 0, &ProtocolError{Reason: "reserved opcode"}
	}

	masked := b1&maskBit != 0
	length := int64(b1 & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(data) < offset+2 {
			return Frame{}, 0, ErrShortFrame
		}
		length = int64(binary.BigEndian.Uint16(data[offset:]))
		offset += 2
	case 127:
		if len(data) < offset+8 {
			return Frame{}, 0, ErrShortFrame
		}
		v := binary.BigEndian.Uint64(data[offset:])
		if v > math.MaxInt64 {
			return Frame{}, 0, &ProtocolError{Reason: "payload length overflow"}
		}
		length = int64(v)
		offset += 8
	}
	if length > maxPayload {
		return Frame{}, 0, &ProtocolError{Reason: "payload exceeds limit"}
	}

	var key [4]byte
	if masked {
		if len(data) < offset+4 {
			return Frame{}, 0, ErrShortFrame
		}
		copy(key[:], data[offset:])
		offset += 4
	}

	if int64(len(data)-offset) < length {
		return Frame{}, 0, ErrShortFrame
	}
	payload := make([]byte, length)
	copy(payload, data[offset:offset+int(length)])
	if masked {
		for i := range payload {
			payload[i] ^= key[i%4]
		}
	}

	return Frame{
		FIN:     b0&finBit != 0,
		Opcode:  op,
		Masked:  masked,
		Payload: payload,
	}, offset + int(length), nil
}

func appendHeader(dst []byte, op Opcode, masked bool, n int) []byte {
	dst = append(dst, finBit|byte(op))
	var mask byte
	if masked {
		mask = maskBit
	}
	switch {
	case n < 126:
		dst = append(dst, mask|byte(n))
	case n < 1<<16:
		dst = append(dst, mask|126)
		dst = binary.BigEndian.AppendUint16(dst, uint16(n))
	default:
		dst = append(dst, mask|127)
		dst = binary.BigEndian.AppendUint64(dst, uint64(n))
	}
	return dst
}

// EncodeFrame builds an unmasked single-frame message, the form every
// server-to-client frame takes.
func EncodeFrame(op Opcode, payload []byte) []byte {
	out := appendHeader(make([]byte, 0, 10+len(payload)), op, false, len(payload))
	return append(out, payload...)
}

// EncodeMaskedFrame builds a masked single-frame message with a random
// key, the form every client-to-server frame takes.
func EncodeMaskedFrame(op Opcode, payload []byte) []byte {
	out := appendHeader(make([]byte, 0, 14+len(payload)), op, true, len(payload))
	var key [4]byte
	_, _ = rand.Read(key[:])
	out = append(out, key[:]...)
	start := len(out)
	out = append(out, payload...)
	for i := range payload {
		out[start+i] ^= key[i%4]
	}
	return out
}
