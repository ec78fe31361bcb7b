package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/gaiasync/gaiasync/pkg/generic"
)

// maxPooledBuffer keeps oversized encode buffers out of the pool.
const maxPooledBuffer = 64 * 1024

// warmMessages is the number of envelopes pre-built per pool, sized for
// a connect burst.
const warmMessages = 64

// Pool recycles message envelopes and encode buffers to keep the per-
// message hot path off the allocator.
type Pool struct {
	messages *generic.Pool[*Message]
	buffers  *generic.Pool[*bytes.Buffer]
}

// NewPool returns a pool with a warm set of envelopes.
func NewPool() *Pool {
	return &Pool{
		messages: generic.NewHotPool(func() *Message {
			return &Message{}
		}, warmMessages),
		buffers: generic.NewPool(func() *bytes.Buffer {
			return bytes.NewBuffer(make([]byte, 0, 1024))
		}),
	}
}

// GetMessage returns a cleared envelope from the pool.
func (p *Pool) GetMessage() *Message {
	m := p.messages.Get()
	m.reset()
	return m
}

// PutMessage returns an envelope to the pool. The caller must not touch
// it afterwards.
func (p *Pool) PutMessage(m *Message) {
	if m != nil {
		p.messages.Put(m)
	}
}

// Decode parses a payload into a pooled envelope. Return it with
// PutMessage once handled.
func (p *Pool) Decode(payload []byte) (*Message, error) {
	m := p.GetMessage()
	if err := json.Unmarshal(payload, m); err != nil {
		p.PutMessage(m)
		return nil, &DecodeError{Reason: "invalid json", Cause: err}
	}
	if m.Type == "" {
		p.PutMessage(m)
		return nil, &DecodeError{Reason: "missing type", Cause: ErrMissingType}
	}
	if m.Data == nil {
		m.Data = map[string]any{}
	}
	return m, nil
}

// GetBuffer returns an empty encode buffer from the pool.
func (p *Pool) GetBuffer() *bytes.Buffer {
	buf := p.buffers.Get()
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool, dropping ones that grew past
// the retention cap.
func (p *Pool) PutBuffer(buf *bytes.Buffer) {
	if buf != nil && buf.Cap() <= maxPooledBuffer {
		p.buffers.Put(buf)
	}
}
