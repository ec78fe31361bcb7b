package game

import (
	"math"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
)

// pickupRange is how far away a ground item can be grabbed from.
const pickupRange = 1.5

// PickupNearbyItem moves the closest ground item within reach into the
// entity's inventory. When the inventory can only fit part of a stack,
// the remainder stays on the ground. The picked-up portion is
// returned; ok is false when there was nothing in reach or nothing
// fit.
func PickupNearbyItem(w *ecs.World, c *Components, grid *spatial.Grid, sink *Sink, e ecs.Entity) (Item, bool) {
	pos, ok := ecs.Get[*Position](w, e, c.Position)
	if !ok {
		return Item{}, false
	}
	inv, ok := ecs.Get[*Inventory](w, e, c.Inventory)
	if !ok {
		return Item{}, false
	}

	groundEntity := ecs.Nil
	var ground *GroundItem
	bestDist := math.MaxFloat64
	for _, candidate := range grid.QueryRadiusExact(pos.X, pos.Y, pos.Z, pickupRange, PositionLookup(w, c)) {
		g, ok := ecs.Get[*GroundItem](w, candidate, c.GroundItem)
		if !ok {
			continue
		}
		candidatePos, ok := ecs.Get[*Position](w, candidate, c.Position)
		if !ok {
			continue
		}
		if d := distance(pos, candidatePos); d < bestDist {
			groundEntity = candidate
			ground = g
			bestDist = d
		}
	}
	if groundEntity == ecs.Nil {
		return Item{}, false
	}

	item := ground.Item
	wanted := item.StackCount
	leftover, absorbed := AddToInventory(inv, item)
	if absorbed {
		sink.Emit(DespawnEvent{Entity: groundEntity})
		grid.Remove(groundEntity)
		w.DestroyEntity(groundEntity)
		return item, true
	}
	if leftover.StackCount == wanted {
		// Nothing fit.
		return Item{}, false
	}

	picked := item
	picked.StackCount = wanted - leftover.StackCount
	ground.Item = leftover
	return picked, true
}
