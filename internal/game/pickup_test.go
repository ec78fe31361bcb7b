package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

func TestPickupNearbyItem(t *testing.T) {
	t.Run("Picks The Closest Item In Reach", func(t *testing.T) {
		f := newFixture(t)
		player := f.spawnPlayer(t, "hero", 10, 10, 0)
		far, err := SpawnGroundItem(f.w, f.c, f.grid, mustItem(t, "rusty_sword", 1), 11.2, 10, 0)
		require.NoError(t, err)
		near, err := SpawnGroundItem(f.w, f.c, f.grid, mustItem(t, "health_potion", 1), 10.5, 10, 0)
		require.NoError(t, err)

		item, ok := PickupNearbyItem(f.w, f.c, f.grid, f.sink, player)
		require.True(t, ok)
		require.Equal(t, "health_potion", item.TemplateID)

		require.False(t, f.w.IsAlive(near))
		require.True(t, f.w.IsAlive(far))

		inv, _ := ecs.Get[*Inventory](f.w, player, f.c.Inventory)
		require.Len(t, inv.Items, 1)

		events := f.sink.Drain()
		require.Len(t, events, 1)
		require.Equal(t, DespawnEvent{Entity: near}, events[0])
	})

	t.Run("Ignores Items Out Of Reach", func(t *testing.T) {
		f := newFixture(t)
		player := f.spawnPlayer(t, "hero", 10, 10, 0)
		_, err := SpawnGroundItem(f.w, f.c, f.grid, mustItem(t, "bone", 1), 14, 10, 0)
		require.NoError(t, err)

		_, ok := PickupNearbyItem(f.w, f.c, f.grid, f.sink, player)
		require.False(t, ok)
	})

	t.Run("Partial Stack Leaves The Rest On The Ground", func(t *testing.T) {
		f := newFixture(t)
		player := f.spawnPlayer(t, "hero", 10, 10, 0)
		inv, _ := ecs.Get[*Inventory](f.w, player, f.c.Inventory)
		inv.MaxItems = 2
		_, absorbed := AddToInventory(inv, mustItem(t, "rusty_sword", 1))
		require.True(t, absorbed)
		_, absorbed = AddToInventory(inv, mustItem(t, "bone", 19))
		require.True(t, absorbed)

		ground, err := SpawnGroundItem(f.w, f.c, f.grid, mustItem(t, "bone", 5), 10.5, 10, 0)
		require.NoError(t, err)

		item, ok := PickupNearbyItem(f.w, f.c, f.grid, f.sink, player)
		require.True(t, ok)
		require.Equal(t, 1, item.StackCount)

		// The ground stack shrank but the entity remains.
		require.True(t, f.w.IsAlive(ground))
		g, _ := ecs.Get[*GroundItem](f.w, ground, f.c.GroundItem)
		require.Equal(t, 4, g.Item.StackCount)
		require.Empty(t, f.sink.Drain())
	})

	t.Run("Full Inventory Picks Nothing", func(t *testing.T) {
		f := newFixture(t)
		player := f.spawnPlayer(t, "hero", 10, 10, 0)
		inv, _ := ecs.Get[*Inventory](f.w, player, f.c.Inventory)
		inv.MaxWeight = 2.0

		ground, err := SpawnGroundItem(f.w, f.c, f.grid, mustItem(t, "rusty_sword", 1), 10.5, 10, 0)
		require.NoError(t, err)

		_, ok := PickupNearbyItem(f.w, f.c, f.grid, f.sink, player)
		require.False(t, ok)
		require.True(t, f.w.IsAlive(ground))
		require.Empty(t, inv.Items)
	})
}
