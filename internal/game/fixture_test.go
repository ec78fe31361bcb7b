package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
)

// fixture bundles the pieces every system test needs.
type fixture struct {
	w     *ecs.World
	c     *Components
	grid  *spatial.Grid
	clock *Clock
	sink  *Sink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	w := ecs.NewWorld()
	return &fixture{
		w:     w,
		c:     RegisterComponents(w),
		grid:  spatial.NewGrid(16.0),
		clock: NewClock(),
		sink:  NewSink(),
	}
}

func (f *fixture) spawnPlayer(t *testing.T, name string, x, y, z float64) ecs.Entity {
	t.Helper()
	e, err := SpawnPlayer(f.w, f.c, f.grid, 1, name, x, y, z)
	require.NoError(t, err)
	return e
}

func (f *fixture) spawnEnemy(t *testing.T, id string, x, y, z float64) ecs.Entity {
	t.Helper()
	tpl, ok := EnemyTemplate(id)
	require.True(t, ok, "unknown enemy template %q", id)
	e, err := SpawnNPC(f.w, f.c, f.grid, tpl, x, y, z)
	require.NoError(t, err)
	return e
}

// seededRNG makes randomized behavior repeatable in tests.
func seededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func mustItem(t *testing.T, templateID string, count int) Item {
	t.Helper()
	item, ok := NewItem(templateID, count)
	require.True(t, ok, "unknown item template %q", templateID)
	return item
}

// flatTerrain is a terrain oracle with no obstacles.
type flatTerrain struct{}

func (flatTerrain) IsWalkable(x, y, z int) bool { return true }

// wallTerrain blocks a single column.
type wallTerrain struct {
	wallX, wallY int
}

func (o wallTerrain) IsWalkable(x, y, z int) bool {
	return !(x == o.wallX && y == o.wallY)
}

func (o wallTerrain) BlocksVision(x, y, z int) bool {
	return x == o.wallX && y == o.wallY
}
