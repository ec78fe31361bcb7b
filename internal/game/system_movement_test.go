package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

func TestMovementSystem(t *testing.T) {
	t.Run("Integrates Velocity Over Time", func(t *testing.T) {
		f := newFixture(t)
		movement := NewMovementSystem(f.c, f.grid, flatTerrain{})
		e := f.spawnPlayer(t, "hero", 10, 10, 0)
		vel, _ := ecs.Get[*Velocity](f.w, e, f.c.Velocity)
		vel.DX, vel.DY = 4, -2

		movement.Update(0.5, f.w)

		pos, _ := ecs.Get[*Position](f.w, e, f.c.Position)
		require.Equal(t, 12.0, pos.X)
		require.Equal(t, 9.0, pos.Y)

		// The grid tracked the move.
		found := f.grid.QueryRadius(12, 9, 0, 1)
		require.Contains(t, found, e)
	})

	t.Run("Stationary Entities Are Skipped", func(t *testing.T) {
		f := newFixture(t)
		movement := NewMovementSystem(f.c, f.grid, flatTerrain{})
		e := f.spawnPlayer(t, "hero", 10, 10, 0)

		movement.Update(1.0, f.w)

		pos, _ := ecs.Get[*Position](f.w, e, f.c.Position)
		require.Equal(t, 10.0, pos.X)
	})

	t.Run("Clamps To World Bounds", func(t *testing.T) {
		f := newFixture(t)
		movement := NewMovementSystem(f.c, f.grid, nil)
		e := f.spawnPlayer(t, "hero", 999, 0, 0)
		vel, _ := ecs.Get[*Velocity](f.w, e, f.c.Velocity)
		vel.DX = 100

		movement.Update(1.0, f.w)

		pos, _ := ecs.Get[*Position](f.w, e, f.c.Position)
		require.Equal(t, WorldMaxCoord, pos.X)
	})

	t.Run("Blocked Step Stops The Mover", func(t *testing.T) {
		f := newFixture(t)
		movement := NewMovementSystem(f.c, f.grid, wallTerrain{wallX: 11, wallY: 10})
		e := f.spawnPlayer(t, "hero", 10.5, 10.5, 0)
		vel, _ := ecs.Get[*Velocity](f.w, e, f.c.Velocity)
		vel.DX = 2

		movement.Update(0.5, f.w)

		pos, _ := ecs.Get[*Position](f.w, e, f.c.Position)
		require.Equal(t, 10.5, pos.X)
		require.Zero(t, vel.DX)
	})

	t.Run("CanMoveTo Combines Bounds And Terrain", func(t *testing.T) {
		f := newFixture(t)
		movement := NewMovementSystem(f.c, f.grid, wallTerrain{wallX: 5, wallY: 5})

		require.True(t, movement.CanMoveTo(4, 5, 0))
		require.False(t, movement.CanMoveTo(5, 5, 0))
		require.False(t, movement.CanMoveTo(2000, 5, 0))
		require.False(t, movement.CanMoveTo(5, 4, -1))
	})

	t.Run("Teleport Validates Destination", func(t *testing.T) {
		f := newFixture(t)
		movement := NewMovementSystem(f.c, f.grid, wallTerrain{wallX: 5, wallY: 5})
		e := f.spawnPlayer(t, "hero", 10, 10, 0)

		require.False(t, movement.Teleport(f.w, e, 5.2, 5.2, 0))
		require.True(t, movement.Teleport(f.w, e, 20, 20, 0))

		pos, _ := ecs.Get[*Position](f.w, e, f.c.Position)
		require.Equal(t, 20.0, pos.X)
		require.Contains(t, f.grid.QueryRadius(20, 20, 0, 1), e)
	})
}
