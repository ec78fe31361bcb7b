package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(sec int64) func() time.Time {
	return func() time.Time { return time.Unix(sec, 500_000_000) }
}

func TestBuilder_MonotonicIDs(t *testing.T) {
	b := NewBuilder()
	first := b.Error(CodeServerError, "x")
	second := b.Pong(0)
	third := b.AuthFailure("nope")

	require.Equal(t, int64(1), first.ID)
	require.Equal(t, int64(2), second.ID)
	require.Equal(t, int64(3), third.ID)

	// Counters are per builder, not shared process state.
	other := NewBuilder()
	require.Equal(t, int64(1), other.Error(CodeServerError, "y").ID)
}

func TestBuilder_Timestamps(t *testing.T) {
	b := NewBuilderWithClock(fixedClock(1_000))
	m := b.SystemMessage("hello", "info")
	require.Equal(t, 1000.5, m.TS)
}

func TestBuilder_AuthMessages(t *testing.T) {
	b := NewBuilderWithClock(fixedClock(1))

	t.Run("AuthSuccess", func(t *testing.T) {
		m := b.AuthSuccess(17, "conan", 8, 8, 0)
		require.Equal(t, TypeAuthSuccess, m.Type)
		require.Equal(t, map[string]any{
			"player_id":      uint64(17),
			"character_name": "conan",
			"spawn_x":        8.0,
			"spawn_y":        8.0,
			"spawn_z":        0.0,
		}, m.Data)
	})

	t.Run("AuthFailure", func(t *testing.T) {
		m := b.AuthFailure("Invalid credentials")
		require.Equal(t, TypeAuthFailure, m.Type)
		require.Equal(t, "Invalid credentials", m.Data["reason"])
	})
}

func TestBuilder_StateMessages(t *testing.T) {
	b := NewBuilderWithClock(fixedClock(1))

	t.Run("GameState Keys", func(t *testing.T) {
		player := map[string]any{"entity_id": uint64(1)}
		m := b.GameState(42, player, nil, nil, nil)

		require.Equal(t, TypeGameState, m.Type)
		require.Equal(t, uint64(42), m.Data["tick"])
		require.Equal(t, player, m.Data["player"])
		require.Equal(t, []map[string]any{}, m.Data["entities"])
		require.Equal(t, map[string]TileData{}, m.Data["world_tiles"])
		require.Equal(t, []any{}, m.Data["messages"])
	})

	t.Run("GameStateDelta Keys", func(t *testing.T) {
		changed := []map[string]any{{"entity_id": uint64(2)}}
		m := b.GameStateDelta(43, changed, []uint64{5}, nil, nil)

		require.Equal(t, TypeGameStateDelta, m.Type)
		require.Equal(t, uint64(43), m.Data["tick"])
		require.Equal(t, changed, m.Data["changed_entities"])
		require.Equal(t, []uint64{5}, m.Data["removed_entities"])
		require.Equal(t, map[string]TileData{}, m.Data["changed_tiles"])
		require.Equal(t, []map[string]any{}, m.Data["events"])
	})

	t.Run("Tiles Marshal Flat", func(t *testing.T) {
		tiles := map[string]TileData{
			"8,9,0": {Char: "#", Color: "#888888", Walkable: false, Solid: true},
		}
		m := b.GameState(1, map[string]any{}, nil, tiles, nil)
		payload, err := m.Marshal()
		require.NoError(t, err)

		var raw struct {
			Data struct {
				WorldTiles map[string]map[string]any `json:"world_tiles"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &raw))
		tile := raw.Data.WorldTiles["8,9,0"]
		require.Equal(t, "#", tile["char"])
		require.Equal(t, "#888888", tile["color"])
		require.Equal(t, false, tile["walkable"])
		require.Equal(t, true, tile["solid"])
	})
}

func TestBuilder_EntityMessages(t *testing.T) {
	b := NewBuilderWithClock(fixedClock(1))

	t.Run("EntitySpawn Data Is The Payload", func(t *testing.T) {
		entity := map[string]any{"entity_id": uint64(9), "entity_type": "monster", "name": "rat"}
		m := b.EntitySpawn(entity)
		require.Equal(t, TypeEntitySpawn, m.Type)
		require.Equal(t, entity, m.Data)
	})

	t.Run("EntityDespawn", func(t *testing.T) {
		m := b.EntityDespawn(9)
		require.Equal(t, map[string]any{"entity_id": uint64(9)}, m.Data)
	})
}

func TestBuilder_EventMessages(t *testing.T) {
	b := NewBuilderWithClock(fixedClock(1))

	t.Run("DamageEvent", func(t *testing.T) {
		m := b.DamageEvent(4, 2, 23, "physical", 117, 140)
		require.Equal(t, TypeDamageEvent, m.Type)
		require.Equal(t, map[string]any{
			"target_id":   uint64(4),
			"source_id":   uint64(2),
			"amount":      23.0,
			"damage_type": "physical",
			"current_hp":  117.0,
			"max_hp":      140.0,
		}, m.Data)
	})

	t.Run("DeathEvent", func(t *testing.T) {
		m := b.DeathEvent(4, 2, "rat", "conan")
		require.Equal(t, map[string]any{
			"entity_id":   uint64(4),
			"killer_id":   uint64(2),
			"entity_name": "rat",
			"killer_name": "conan",
		}, m.Data)
	})

	t.Run("LevelUpEvent", func(t *testing.T) {
		m := b.LevelUpEvent(2, 3, map[string]int{"strength": 2, "constitution": 2, "dexterity": 1})
		require.Equal(t, TypeLevelUpEvent, m.Type)
		require.Equal(t, uint64(2), m.Data["entity_id"])
		require.Equal(t, 3, m.Data["new_level"])
		require.Equal(t, map[string]int{"strength": 2, "constitution": 2, "dexterity": 1}, m.Data["stat_gains"])
	})

	t.Run("ChatReceive", func(t *testing.T) {
		m := b.ChatReceive(2, "conan", "hello there", "local", 999.5)
		require.Equal(t, map[string]any{
			"sender_id":   uint64(2),
			"sender_name": "conan",
			"message":     "hello there",
			"channel":     "local",
			"timestamp":   999.5,
		}, m.Data)
	})

	t.Run("SystemMessage", func(t *testing.T) {
		m := b.SystemMessage("Account created! You can now login as conan.", "info")
		require.Equal(t, map[string]any{
			"message": "Account created! You can now login as conan.",
			"level":   "info",
		}, m.Data)
	})
}

func TestBuilder_PongEchoesClientTime(t *testing.T) {
	b := NewBuilderWithClock(fixedClock(2_000))
	m := b.Pong(1234.75)
	require.Equal(t, TypePong, m.Type)
	require.Equal(t, 1234.75, m.Data["client_ts"])
	require.Equal(t, 2000.5, m.Data["server_ts"])
}

func TestBuilder_Error(t *testing.T) {
	b := NewBuilderWithClock(fixedClock(1))
	m := b.Error(CodeRateLimited, "Too many messages")
	require.Equal(t, TypeError, m.Type)
	require.Equal(t, map[string]any{
		"code":    "RATE_LIMITED",
		"message": "Too many messages",
	}, m.Data)
}
