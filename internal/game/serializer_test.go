package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

func TestEntityPayload(t *testing.T) {
	t.Run("Player Carries Combat Fields But No Faction", func(t *testing.T) {
		f := newFixture(t)
		player := f.spawnPlayer(t, "hero", 8, 8, 0)

		payload, ok := EntityPayload(f.w, f.c, player)
		require.True(t, ok)

		require.Equal(t, uint64(player), payload["entity_id"])
		require.Equal(t, "player", payload["entity_type"])
		require.Equal(t, "hero", payload["name"])
		require.Equal(t, 8.0, payload["x"])
		require.Equal(t, 8.0, payload["y"])
		require.Equal(t, 0.0, payload["z"])
		require.Equal(t, "@", payload["char"])
		require.Equal(t, "#ffff00", payload["color"])
		require.Equal(t, 140, payload["hp"])
		require.Equal(t, 140, payload["max_hp"])
		require.Equal(t, 1, payload["level"])
		require.NotContains(t, payload, "faction")
	})

	t.Run("Npc Carries Its Faction", func(t *testing.T) {
		f := newFixture(t)
		goblin := f.spawnEnemy(t, "goblin", 20, 20, 0)

		payload, ok := EntityPayload(f.w, f.c, goblin)
		require.True(t, ok)

		require.Equal(t, "npc", payload["entity_type"])
		require.Equal(t, "Goblin", payload["name"])
		require.Equal(t, "g", payload["char"])
		require.Equal(t, 30, payload["hp"])
		require.Equal(t, 30, payload["max_hp"])
		require.Equal(t, "hostile", payload["faction"])
	})

	t.Run("Ground Item Omits Combat Fields", func(t *testing.T) {
		f := newFixture(t)
		ground, err := SpawnGroundItem(f.w, f.c, f.grid, mustItem(t, "health_potion", 1), 3, 4, 0)
		require.NoError(t, err)

		payload, ok := EntityPayload(f.w, f.c, ground)
		require.True(t, ok)

		require.Equal(t, "item", payload["entity_type"])
		require.Equal(t, "Health Potion", payload["name"])
		require.Equal(t, "!", payload["char"])
		require.Equal(t, "#ff0000", payload["color"])
		require.NotContains(t, payload, "hp")
		require.NotContains(t, payload, "level")
		require.NotContains(t, payload, "faction")
	})

	t.Run("Fractional Vitals Round On The Wire", func(t *testing.T) {
		f := newFixture(t)
		goblin := f.spawnEnemy(t, "goblin", 0, 0, 0)
		state, _ := ecs.Get[*CombatState](f.w, goblin, f.c.CombatState)
		state.HP = 12.6

		payload, ok := EntityPayload(f.w, f.c, goblin)
		require.True(t, ok)
		require.Equal(t, 13, payload["hp"])
	})

	t.Run("Incomplete Entities Are Invisible", func(t *testing.T) {
		f := newFixture(t)
		bare := f.w.CreateEntity()
		require.NoError(t, f.w.AddComponent(bare, f.c.Position, &Position{X: 1}))

		_, ok := EntityPayload(f.w, f.c, bare)
		require.False(t, ok)
	})
}
