package terrain

import (
	"fmt"
	"sync"
)

// ChunkSize is the edge length of a cubic chunk in tiles.
const ChunkSize = 16

type chunkCoord struct {
	x, y, z int
}

// chunk stores its tiles sparsely; absent entries are empty space.
type chunk struct {
	tiles map[int]Tile
}

func localIndex(lx, ly, lz int) int {
	return (lz*ChunkSize+ly)*ChunkSize + lx
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func split(x, y, z int) (chunkCoord, int) {
	cx, cy, cz := floorDiv(x, ChunkSize), floorDiv(y, ChunkSize), floorDiv(z, ChunkSize)
	lx := x - cx*ChunkSize
	ly := y - cy*ChunkSize
	lz := z - cz*ChunkSize
	return chunkCoord{cx, cy, cz}, localIndex(lx, ly, lz)
}

// World is the tile store. Reads dominate: the simulation checks
// walkability every move and snapshots read tile windows, while writes
// happen only through explicit edits.
type World struct {
	mu     sync.RWMutex
	chunks map[chunkCoord]*chunk
}

// NewWorld returns a world of pure empty space.
func NewWorld() *World {
	return &World{chunks: make(map[chunkCoord]*chunk)}
}

// GetTile returns the tile at a position; unset positions are empty.
func (w *World) GetTile(x, y, z int) Tile {
	cc, idx := split(x, y, z)

	w.mu.RLock()
	defer w.mu.RUnlock()
	c, ok := w.chunks[cc]
	if !ok {
		return Tile{}
	}
	return c.tiles[idx]
}

// SetTile writes a tile. Setting empty space removes the entry, and a
// chunk emptied of tiles is dropped so the store only holds substance.
func (w *World) SetTile(x, y, z int, t Tile) {
	cc, idx := split(x, y, z)

	w.mu.Lock()
	defer w.mu.Unlock()

	c, ok := w.chunks[cc]
	if t.Type == Empty && t.Color == "" && t.BG == "" {
		if !ok {
			return
		}
		delete(c.tiles, idx)
		if len(c.tiles) == 0 {
			delete(w.chunks, cc)
		}
		return
	}
	if !ok {
		c = &chunk{tiles: make(map[int]Tile)}
		w.chunks[cc] = c
	}
	c.tiles[idx] = t
}

// IsWalkable reports whether an entity can stand at the position.
func (w *World) IsWalkable(x, y, z int) bool {
	return w.GetTile(x, y, z).Type.Walkable()
}

// BlocksVision reports whether the position stops line of sight.
func (w *World) BlocksVision(x, y, z int) bool {
	return w.GetTile(x, y, z).Type.BlocksVision()
}

// TileKey formats a position the way tile maps are keyed on the wire.
func TileKey(x, y, z int) string {
	return fmt.Sprintf("%d,%d,%d", x, y, z)
}

// VisibleTiles collects the non-empty tiles in a square window of the
// given radius around the center, on the center's z-level only.
func (w *World) VisibleTiles(cx, cy, cz, radius int) map[string]Tile {
	out := make(map[string]Tile)

	w.mu.RLock()
	defer w.mu.RUnlock()
	for x := cx - radius; x <= cx+radius; x++ {
		for y := cy - radius; y <= cy+radius; y++ {
			cc, idx := split(x, y, cz)
			c, ok := w.chunks[cc]
			if !ok {
				continue
			}
			t, ok := c.tiles[idx]
			if !ok || t.Type == Empty {
				continue
			}
			out[TileKey(x, y, cz)] = t
		}
	}
	return out
}

// ChunkCount returns the number of chunks holding at least one tile.
func (w *World) ChunkCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}
