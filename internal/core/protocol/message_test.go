package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessage_WireShape(t *testing.T) {
	m := &Message{
		Type: TypePlayerMove,
		ID:   7,
		TS:   1724300000.25,
		Data: map[string]any{"dx": 1.0, "dy": 0.0, "dz": 0.0},
	}
	payload, err := m.Marshal()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	require.Len(t, raw, 4)
	require.Equal(t, "player_move", raw["type"])
	require.Equal(t, 7.0, raw["id"])
	require.Equal(t, 1724300000.25, raw["ts"])
	require.Equal(t, 1.0, raw["data"].(map[string]any)["dx"])
}

func TestMessage_MarshalNilData(t *testing.T) {
	payload, err := (&Message{Type: TypePing, ID: 1}).Marshal()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	require.NotNil(t, raw["data"])
	require.Empty(t, raw["data"])
}

func TestDecode(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		m, err := Decode([]byte(`{"type":"chat_send","id":3,"ts":12.5,"data":{"message":"hi"}}`))
		require.NoError(t, err)
		require.Equal(t, TypeChatSend, m.Type)
		require.Equal(t, int64(3), m.ID)
		require.Equal(t, 12.5, m.TS)
		require.Equal(t, "hi", m.String("message"))
	})

	t.Run("Data Defaults To Empty", func(t *testing.T) {
		m, err := Decode([]byte(`{"type":"ping","id":1,"ts":0}`))
		require.NoError(t, err)
		require.NotNil(t, m.Data)
		require.Empty(t, m.Data)
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		_, err := Decode([]byte(`{"type":`))
		var derr *DecodeError
		require.ErrorAs(t, err, &derr)
	})

	t.Run("Missing Type", func(t *testing.T) {
		_, err := Decode([]byte(`{"id":1,"ts":0,"data":{}}`))
		var derr *DecodeError
		require.ErrorAs(t, err, &derr)
		require.ErrorIs(t, err, ErrMissingType)
	})
}

func TestMessage_DataAccessors(t *testing.T) {
	m, err := Decode([]byte(`{"type":"player_attack","id":1,"ts":0,"data":{"target_id":42,"name":"rat","speed":2.5,"negative":-3}}`))
	require.NoError(t, err)

	require.Equal(t, uint64(42), m.Uint64("target_id"))
	require.Equal(t, int64(42), m.Int64("target_id"))
	require.Equal(t, "rat", m.String("name"))
	require.Equal(t, 2.5, m.Float64("speed"))
	require.Equal(t, uint64(0), m.Uint64("negative"))
	require.True(t, m.Has("name"))
	require.False(t, m.Has("missing"))

	// Wrong-type and absent lookups fall back to zero values.
	require.Equal(t, "", m.String("target_id"))
	require.Equal(t, 0.0, m.Float64("name"))
	require.Equal(t, "", m.String("missing"))
}

func TestKnownClientType(t *testing.T) {
	for _, typ := range []string{
		TypeAuthLogin, TypeAuthRegister, TypeAuthLogout, TypePlayerMove,
		TypePlayerAttack, TypePlayerInteract, TypeInventoryPickup,
		TypeChatSend, TypePing, TypeRequestState,
	} {
		require.True(t, KnownClientType(typ), typ)
	}
	require.False(t, KnownClientType(TypeGameState))
	require.False(t, KnownClientType("teleport"))
	require.False(t, KnownClientType(""))
}

func TestPool(t *testing.T) {
	t.Run("Decode And Recycle", func(t *testing.T) {
		p := NewPool()
		m, err := p.Decode([]byte(`{"type":"ping","id":9,"ts":1.25,"data":{"ts":1.25}}`))
		require.NoError(t, err)
		require.Equal(t, TypePing, m.Type)
		p.PutMessage(m)

		reused := p.GetMessage()
		require.Equal(t, "", reused.Type)
		require.Equal(t, int64(0), reused.ID)
		require.Nil(t, reused.Data)
	})

	t.Run("Decode Failure Recycles", func(t *testing.T) {
		p := NewPool()
		_, err := p.Decode([]byte(`garbage`))
		var derr *DecodeError
		require.ErrorAs(t, err, &derr)
	})

	t.Run("Buffers", func(t *testing.T) {
		p := NewPool()
		buf := p.GetBuffer()
		buf.WriteString("payload")
		p.PutBuffer(buf)

		again := p.GetBuffer()
		require.Zero(t, again.Len())
	})
}
