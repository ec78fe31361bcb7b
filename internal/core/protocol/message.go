package protocol

import "encoding/json"

// Message is the wire envelope. One message travels per WebSocket text
// frame, or per line on the QUIC transport.
type Message struct {
	Type string         `json:"type"`
	ID   int64          `json:"id"`
	TS   float64        `json:"ts"`
	Data map[string]any `json:"data"`
}

// Marshal encodes the envelope as a single JSON document.
func (m *Message) Marshal() ([]byte, error) {
	if m.Data == nil {
		m.Data = map[string]any{}
	}
	return json.Marshal(m)
}

// Decode parses an inbound payload. Failures come back as *DecodeError;
// the caller answers with an error reply instead of dropping the
// connection.
func Decode(payload []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, &DecodeError{Reason: "invalid json", Cause: err}
	}
	if m.Type == "" {
		return nil, &DecodeError{Reason: "missing type", Cause: ErrMissingType}
	}
	if m.Data == nil {
		m.Data = map[string]any{}
	}
	return &m, nil
}

func (m *Message) reset() {
	m.Type = ""
	m.ID = 0
	m.TS = 0
	m.Data = nil
}

// String returns a string field from data, or "" when absent or not a
// string.
func (m *Message) String(key string) string {
	v, _ := m.Data[key].(string)
	return v
}

// Float64 returns a numeric field from data, or 0 when absent or not a
// number.
func (m *Message) Float64(key string) float64 {
	v, _ := m.Data[key].(float64)
	return v
}

// Int64 returns a numeric field truncated to an integer, or 0 when
// absent or not a number.
func (m *Message) Int64(key string) int64 {
	return int64(m.Float64(key))
}

// Uint64 returns a numeric field as an unsigned integer, or 0 when
// absent, not a number, or negative.
func (m *Message) Uint64(key string) uint64 {
	v := m.Float64(key)
	if v < 0 {
		return 0
	}
	return uint64(v)
}

// Has reports whether data carries the key at all.
func (m *Message) Has(key string) bool {
	_, ok := m.Data[key]
	return ok
}
