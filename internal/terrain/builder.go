package terrain

// Builder composes a world from explicit placements. There is no
// procedural generation here; callers decide every tile.
type Builder struct {
	world *World
}

// NewBuilder starts from empty space.
func NewBuilder() *Builder {
	return &Builder{world: NewWorld()}
}

// Fill sets every tile in the inclusive rectangle on one z-level.
func (b *Builder) Fill(minX, minY, maxX, maxY, z int, t TileType) *Builder {
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			b.world.SetTile(x, y, z, Tile{Type: t})
		}
	}
	return b
}

// Border sets the perimeter of the inclusive rectangle on one z-level.
func (b *Builder) Border(minX, minY, maxX, maxY, z int, t TileType) *Builder {
	for x := minX; x <= maxX; x++ {
		b.world.SetTile(x, minY, z, Tile{Type: t})
		b.world.SetTile(x, maxY, z, Tile{Type: t})
	}
	for y := minY; y <= maxY; y++ {
		b.world.SetTile(minX, y, z, Tile{Type: t})
		b.world.SetTile(maxX, y, z, Tile{Type: t})
	}
	return b
}

// Place sets one tile.
func (b *Builder) Place(x, y, z int, t TileType) *Builder {
	b.world.SetTile(x, y, z, Tile{Type: t})
	return b
}

// PlaceTile sets one tile with explicit presentation.
func (b *Builder) PlaceTile(x, y, z int, t Tile) *Builder {
	b.world.SetTile(x, y, z, t)
	return b
}

// Build returns the composed world.
func (b *Builder) Build() *World {
	return b.world
}

// StarterField is the default playable area: a walled floor field with a
// pond, a tree line, scattered rocks and a marked chest room. The player
// spawn at (8, 8, 0) sits on open floor.
func StarterField() *World {
	b := NewBuilder().
		Fill(0, 0, 63, 63, 0, Floor).
		Fill(20, 30, 35, 45, 0, Grass).
		Fill(48, 8, 55, 14, 0, Water).
		Fill(44, 6, 47, 16, 0, Sand).
		Border(0, 0, 63, 63, 0, Wall)

	for x := 12; x <= 24; x += 2 {
		b.Place(x, 20, 0, Tree)
	}
	b.Place(30, 12, 0, Rock).
		Place(33, 15, 0, Rock).
		Place(29, 17, 0, Rock)

	// Chest room in the corner with a door in its wall, and a small
	// loft one level up.
	b.Border(54, 54, 62, 62, 0, Wall).
		Place(58, 54, 0, Door).
		Place(58, 58, 0, Chest).
		Fill(36, 36, 44, 44, 1, Floor).
		Border(36, 36, 44, 44, 1, Wall).
		Place(40, 40, 0, StairsUp).
		Place(40, 40, 1, StairsDown)

	return b.Build()
}
