package game

import (
	"math"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

// VisionOracle answers whether a tile blocks line of sight.
type VisionOracle interface {
	BlocksVision(x, y, z int) bool
}

// VisibilitySystem computes field of view for sighted entities by
// casting rays outward from the entity and stopping at the first
// opaque tile. Results are cached per entity until the next update;
// every tile ever seen is accumulated into the entity's explored set.
type VisibilitySystem struct {
	c       *Components
	oracle  VisionOracle
	visible map[ecs.Entity]map[[3]int]struct{}
}

// NewVisibilitySystem returns the visibility system. A nil oracle
// means nothing blocks sight.
func NewVisibilitySystem(c *Components, oracle VisionOracle) *VisibilitySystem {
	return &VisibilitySystem{
		c:       c,
		oracle:  oracle,
		visible: make(map[ecs.Entity]map[[3]int]struct{}),
	}
}

// Update recomputes the visible set for every sighted player. The
// cache is rebuilt from scratch so despawned entities fall out of it.
func (s *VisibilitySystem) Update(dt float64, w *ecs.World) {
	next := make(map[ecs.Entity]map[[3]int]struct{}, len(s.visible))
	for _, res := range w.Query(s.c.Vision, s.c.Position, s.c.Player) {
		vision := res.Values[0].(*Vision)
		pos := res.Values[1].(*Position)
		next[res.Entity] = s.computeVisible(vision, pos)
	}
	s.visible = next
}

// VisibleTiles reports the entity's current visible set. The returned
// map must not be mutated.
func (s *VisibilitySystem) VisibleTiles(e ecs.Entity) (map[[3]int]struct{}, bool) {
	tiles, ok := s.visible[e]
	return tiles, ok
}

// IsVisible reports whether the entity can currently see the tile.
func (s *VisibilitySystem) IsVisible(e ecs.Entity, x, y, z int) bool {
	tiles, ok := s.visible[e]
	if !ok {
		return false
	}
	_, seen := tiles[[3]int{x, y, z}]
	return seen
}

func (s *VisibilitySystem) computeVisible(vision *Vision, pos *Position) map[[3]int]struct{} {
	visible := make(map[[3]int]struct{})

	ox := int(math.Round(pos.X))
	oy := int(math.Round(pos.Y))
	oz := int(pos.Z)
	radius := int(vision.Radius)

	mark := func(tile [3]int) {
		visible[tile] = struct{}{}
		if vision.Explored == nil {
			vision.Explored = make(map[[3]int]struct{})
		}
		vision.Explored[tile] = struct{}{}
	}

	// The tile under the viewer is always visible.
	mark([3]int{ox, oy, oz})
	if radius <= 0 {
		return visible
	}

	numRays := radius * 4
	if numRays < 32 {
		numRays = 32
	}
	radiusSq := radius * radius

	for i := 0; i < numRays; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numRays)
		dx := math.Cos(angle)
		dy := math.Sin(angle)

		x := float64(ox)
		y := float64(oy)
		for step := 0; step < radius; step++ {
			x += dx
			y += dy
			tx := int(math.Round(x))
			ty := int(math.Round(y))
			if (tx-ox)*(tx-ox)+(ty-oy)*(ty-oy) > radiusSq {
				break
			}
			mark([3]int{tx, ty, oz})
			if s.oracle != nil && s.oracle.BlocksVision(tx, ty, oz) {
				// Opaque tiles are themselves visible but end the ray.
				break
			}
		}
	}
	return visible
}
