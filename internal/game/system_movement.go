package game

import (
	"math"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
)

// TerrainOracle answers walkability queries for the movement veto.
type TerrainOracle interface {
	IsWalkable(x, y, z int) bool
}

// World bounds shared by movement integration and discrete move
// validation.
const (
	WorldMinCoord = -1000.0
	WorldMaxCoord = 1000.0
	WorldMinZ     = 0.0
	WorldMaxZ     = 100.0
)

// MovementSystem integrates velocity into position, clamps to world
// bounds, vetoes steps into non-walkable terrain, and keeps the spatial
// grid in sync.
type MovementSystem struct {
	c       *Components
	grid    *spatial.Grid
	terrain TerrainOracle
}

// NewMovementSystem returns the movement system. terrain may be nil, in
// which case only bounds are enforced.
func NewMovementSystem(c *Components, grid *spatial.Grid, terrain TerrainOracle) *MovementSystem {
	return &MovementSystem{c: c, grid: grid, terrain: terrain}
}

// Update applies velocity·dt to every moving entity.
func (s *MovementSystem) Update(dt float64, w *ecs.World) {
	for _, res := range w.Query(s.c.Position, s.c.Velocity) {
		pos := res.Values[0].(*Position)
		vel := res.Values[1].(*Velocity)
		if vel.DX == 0 && vel.DY == 0 && vel.DZ == 0 {
			continue
		}

		nx := clamp(pos.X+vel.DX*dt, WorldMinCoord, WorldMaxCoord)
		ny := clamp(pos.Y+vel.DY*dt, WorldMinCoord, WorldMaxCoord)
		nz := clamp(pos.Z+vel.DZ*dt, WorldMinZ, WorldMaxZ)

		if !s.walkable(nx, ny, nz) {
			// Blocked: hold position and stop so the AI picks a new
			// direction instead of grinding into the wall.
			vel.DX, vel.DY, vel.DZ = 0, 0, 0
			continue
		}

		pos.X, pos.Y, pos.Z = nx, ny, nz
		s.grid.Update(res.Entity, nx, ny, nz)
	}
}

// CanMoveTo reports whether a position is inside the world and
// walkable. Used for discrete step validation as well.
func (s *MovementSystem) CanMoveTo(x, y, z float64) bool {
	if x < WorldMinCoord || x > WorldMaxCoord ||
		y < WorldMinCoord || y > WorldMaxCoord ||
		z < WorldMinZ || z > WorldMaxZ {
		return false
	}
	return s.walkable(x, y, z)
}

// Teleport moves an entity instantly, keeping the grid in sync. Returns
// false when the destination is invalid or the entity has no position.
func (s *MovementSystem) Teleport(w *ecs.World, e ecs.Entity, x, y, z float64) bool {
	if !s.CanMoveTo(x, y, z) {
		return false
	}
	pos, ok := ecs.Get[*Position](w, e, s.c.Position)
	if !ok {
		return false
	}
	pos.X, pos.Y, pos.Z = x, y, z
	s.grid.Update(e, x, y, z)
	return true
}

func (s *MovementSystem) walkable(x, y, z float64) bool {
	if s.terrain == nil {
		return true
	}
	return s.terrain.IsWalkable(int(math.Floor(x)), int(math.Floor(y)), int(math.Floor(z)))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
