// Package spatial provides the hash grid the simulation uses for
// proximity queries. Entities live in cube cells keyed by floored
// integer coordinates; radius queries collect the cube superset of
// cells touched by the radius, with an exact distance filter available
// on top.
package spatial

import (
	"math"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

// cell is a grid cell coordinate, one unit per cellSize along each axis.
type cell struct {
	x, y, z int
}

// PositionFunc resolves an entity's current position for exact-distance
// filtering. ok is false when the entity has no known position.
type PositionFunc func(e ecs.Entity) (x, y, z float64, ok bool)

// Grid is a spatial hash over three dimensions. It is not goroutine safe;
// the simulation mutates it from the tick goroutine only.
type Grid struct {
	cellSize    float64
	cells       map[cell]map[ecs.Entity]struct{}
	entityCells map[ecs.Entity]cell
}

// NewGrid returns an empty grid. cellSize is the edge length of a cell in
// world units and must be positive.
func NewGrid(cellSize float64) *Grid {
	return &Grid{
		cellSize:    cellSize,
		cells:       make(map[cell]map[ecs.Entity]struct{}),
		entityCells: make(map[ecs.Entity]cell),
	}
}

func (g *Grid) cellOf(x, y, z float64) cell {
	return cell{
		x: int(math.Floor(x / g.cellSize)),
		y: int(math.Floor(y / g.cellSize)),
		z: int(math.Floor(z / g.cellSize)),
	}
}

// Insert places an entity at a position. Inserting an entity that is
// already tracked moves it instead.
func (g *Grid) Insert(e ecs.Entity, x, y, z float64) {
	if _, ok := g.entityCells[e]; ok {
		g.Update(e, x, y, z)
		return
	}
	c := g.cellOf(x, y, z)
	g.addToCell(e, c)
	g.entityCells[e] = c
}

// Remove drops an entity from the grid and reports whether it was
// tracked. Cells left empty are pruned so the map only holds occupied
// space.
func (g *Grid) Remove(e ecs.Entity) bool {
	c, ok := g.entityCells[e]
	if !ok {
		return false
	}
	delete(g.entityCells, e)
	g.removeFromCell(e, c)
	return true
}

// Update moves a tracked entity to a new position. Movement within the
// same cell is a no-op; an untracked entity is inserted.
func (g *Grid) Update(e ecs.Entity, x, y, z float64) {
	old, ok := g.entityCells[e]
	if !ok {
		g.Insert(e, x, y, z)
		return
	}
	c := g.cellOf(x, y, z)
	if c == old {
		return
	}
	g.removeFromCell(e, old)
	g.addToCell(e, c)
	g.entityCells[e] = c
}

// Contains reports whether the entity is tracked by the grid.
func (g *Grid) Contains(e ecs.Entity) bool {
	_, ok := g.entityCells[e]
	return ok
}

// Len returns the number of tracked entities.
func (g *Grid) Len() int {
	return len(g.entityCells)
}

// QueryPoint returns the entities in the cell containing the point.
func (g *Grid) QueryPoint(x, y, z float64) []ecs.Entity {
	members, ok := g.cells[g.cellOf(x, y, z)]
	if !ok {
		return nil
	}
	out := make([]ecs.Entity, 0, len(members))
	for e := range members {
		out = append(out, e)
	}
	return out
}

// QueryRadius returns every entity in the cube of cells that covers the
// sphere around (x, y, z). The result is a superset of the true sphere;
// use QueryRadiusExact when corner hits matter.
func (g *Grid) QueryRadius(x, y, z, radius float64) []ecs.Entity {
	return g.collect(g.cellOf(x-radius, y-radius, z-radius), g.cellOf(x+radius, y+radius, z+radius))
}

// QueryRadiusExact narrows QueryRadius to entities whose looked-up
// position is within the radius. Entities the lookup cannot resolve are
// dropped.
func (g *Grid) QueryRadiusExact(x, y, z, radius float64, lookup PositionFunc) []ecs.Entity {
	candidates := g.QueryRadius(x, y, z, radius)
	rsq := radius * radius
	out := candidates[:0]
	for _, e := range candidates {
		ex, ey, ez, ok := lookup(e)
		if !ok {
			continue
		}
		dx, dy, dz := ex-x, ey-y, ez-z
		if dx*dx+dy*dy+dz*dz <= rsq {
			out = append(out, e)
		}
	}
	return out
}

// QueryAABB returns every entity in the cells overlapping the axis-aligned
// box between the two corners.
func (g *Grid) QueryAABB(minX, minY, minZ, maxX, maxY, maxZ float64) []ecs.Entity {
	return g.collect(g.cellOf(minX, minY, minZ), g.cellOf(maxX, maxY, maxZ))
}

func (g *Grid) collect(lo, hi cell) []ecs.Entity {
	var out []ecs.Entity
	for cx := lo.x; cx <= hi.x; cx++ {
		for cy := lo.y; cy <= hi.y; cy++ {
			for cz := lo.z; cz <= hi.z; cz++ {
				for e := range g.cells[cell{cx, cy, cz}] {
					out = append(out, e)
				}
			}
		}
	}
	return out
}

func (g *Grid) addToCell(e ecs.Entity, c cell) {
	members, ok := g.cells[c]
	if !ok {
		members = make(map[ecs.Entity]struct{})
		g.cells[c] = members
	}
	members[e] = struct{}{}
}

func (g *Grid) removeFromCell(e ecs.Entity, c cell) {
	members, ok := g.cells[c]
	if !ok {
		return
	}
	delete(members, e)
	if len(members) == 0 {
		delete(g.cells, c)
	}
}

// Stats is a point-in-time summary of grid occupancy.
type Stats struct {
	CellSize      float64
	Entities      int
	OccupiedCells int
	AvgPerCell    float64
	MaxPerCell    int
}

// Stats reports cell occupancy for monitoring.
func (g *Grid) Stats() Stats {
	st := Stats{
		CellSize:      g.cellSize,
		Entities:      len(g.entityCells),
		OccupiedCells: len(g.cells),
	}
	for _, members := range g.cells {
		if len(members) > st.MaxPerCell {
			st.MaxPerCell = len(members)
		}
	}
	if st.OccupiedCells > 0 {
		st.AvgPerCell = float64(st.Entities) / float64(st.OccupiedCells)
	}
	return st
}
