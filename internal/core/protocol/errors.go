package protocol

import (
	"errors"
	"fmt"
)

// Envelope errors
var (
	ErrMissingType = errors.New("protocol: message has no type")
)

// DecodeError reports an inbound payload that could not be turned into a
// message. The connection survives it; the sender gets an error reply.
type DecodeError struct {
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("protocol: decode failed: %s: %v", e.Reason, e.Cause)
	}
	return "protocol: decode failed: " + e.Reason
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
