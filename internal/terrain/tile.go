// Package terrain holds the tile world the simulation runs on: typed
// tiles in 16³ chunks with walkability and vision predicates. It ships
// no generation algorithms; worlds are composed explicitly through the
// Builder.
package terrain

// TileType enumerates every tile the world can contain.
type TileType uint8

const (
	Empty TileType = iota
	Floor
	Grass
	Water
	Sand
	Wall
	Tree
	Mountain
	Rock
	Door
	StairsUp
	StairsDown
	Chest
)

var glyphs = map[TileType]string{
	Empty:      " ",
	Floor:      ".",
	Grass:      ",",
	Water:      "~",
	Sand:       "∙",
	Wall:       "#",
	Tree:       "t",
	Mountain:   "^",
	Rock:       "o",
	Door:       "+",
	StairsUp:   "<",
	StairsDown: ">",
	Chest:      "C",
}

var defaultColors = map[TileType]string{
	Empty:      "#000000",
	Floor:      "#555555",
	Grass:      "#44aa44",
	Water:      "#4444ff",
	Sand:       "#ddcc88",
	Wall:       "#888888",
	Tree:       "#228822",
	Mountain:   "#aaaaaa",
	Rock:       "#777777",
	Door:       "#aa6633",
	StairsUp:   "#cccccc",
	StairsDown: "#cccccc",
	Chest:      "#ffcc44",
}

// Glyph returns the single-character representation clients render.
func (t TileType) Glyph() string {
	if g, ok := glyphs[t]; ok {
		return g
	}
	return "?"
}

// Solid reports whether the tile blocks movement outright.
func (t TileType) Solid() bool {
	switch t {
	case Wall, Tree, Mountain, Rock, Door:
		return true
	}
	return false
}

// Walkable reports whether an entity can stand on the tile. Empty space
// is not walkable; everything non-solid with substance is.
func (t TileType) Walkable() bool {
	return !t.Solid() && t != Empty
}

// BlocksVision reports whether the tile stops line of sight.
func (t TileType) BlocksVision() bool {
	switch t {
	case Wall, Mountain, Door:
		return true
	}
	return false
}

// Tile is one world cell. A zero Tile is empty space. Color and BG
// override the type's default presentation when set.
type Tile struct {
	Type  TileType
	Color string
	BG    string
}

// EffectiveColor returns the explicit color, falling back to the type
// default.
func (t Tile) EffectiveColor() string {
	if t.Color != "" {
		return t.Color
	}
	return defaultColors[t.Type]
}
