package game

import (
	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
)

// LifetimeSystem destroys entities whose lifetime has elapsed: corpses,
// expired ground effects, and anything else spawned with a deadline.
// A despawn event is emitted for each so clients drop them too.
type LifetimeSystem struct {
	c     *Components
	clock *Clock
	grid  *spatial.Grid
	sink  *Sink
}

// NewLifetimeSystem returns the lifetime system.
func NewLifetimeSystem(c *Components, clock *Clock, grid *spatial.Grid, sink *Sink) *LifetimeSystem {
	return &LifetimeSystem{c: c, clock: clock, grid: grid, sink: sink}
}

// Update removes expired entities from the grid and the world.
func (s *LifetimeSystem) Update(dt float64, w *ecs.World) {
	now := s.clock.Now()
	var expired []ecs.Entity
	for _, res := range w.Query(s.c.Lifetime) {
		if res.Values[0].(*Lifetime).Expired(now) {
			expired = append(expired, res.Entity)
		}
	}
	for _, e := range expired {
		s.sink.Emit(DespawnEvent{Entity: e})
		s.grid.Remove(e)
		w.DestroyEntity(e)
	}
}
