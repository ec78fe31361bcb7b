package server

import (
	"fmt"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/game"
	"github.com/gaiasync/gaiasync/internal/terrain"
)

// applyAction resolves one queued command against the world. Runs on
// the loop goroutine at tick end.
func (s *Server) applyAction(a playerAction) {
	if !s.world.IsAlive(a.entity) {
		return
	}
	switch a.verb {
	case actionMove:
		s.applyMove(a)
	case actionAttack:
		s.applyAttack(a)
	case actionInteract:
		s.applyInteract(a)
	case actionPickup:
		s.applyPickup(a)
	}
}

// applyMove steps the entity one queued increment, holding position
// when the destination tile is not walkable. Vertical movement goes
// through stairs, not move commands.
func (s *Server) applyMove(a playerAction) {
	pos, ok := ecs.Get[*game.Position](s.world, a.entity, s.comps.Position)
	if !ok {
		return
	}
	dx, _ := a.data["dx"].(float64)
	dy, _ := a.data["dy"].(float64)

	newX, newY := pos.X+dx, pos.Y+dy
	if !s.tiles.IsWalkable(int(newX), int(newY), int(pos.Z)) {
		return
	}
	pos.X, pos.Y = newX, newY
	s.grid.Update(a.entity, pos.X, pos.Y, pos.Z)
}

// applyAttack locks the combat target; the combat system resolves the
// swings on later ticks.
func (s *Server) applyAttack(a playerAction) {
	raw, _ := a.data["target_id"].(uint64)
	target := ecs.Entity(raw)
	if target == ecs.Nil || !s.world.IsAlive(target) {
		return
	}
	combat, ok := ecs.Get[*game.CombatState](s.world, a.entity, s.comps.CombatState)
	if !ok {
		return
	}
	combat.Target = target
}

// applyInteract resolves against a named target entity when one is
// given, and against the tile underfoot otherwise.
func (s *Server) applyInteract(a playerAction) {
	if raw, ok := a.data["target_id"]; ok {
		s.interactEntity(a.entity, entityFromAny(raw))
		return
	}
	s.interactTile(a.entity)
}

func (s *Server) interactEntity(actor, target ecs.Entity) {
	if target == ecs.Nil || !s.world.IsAlive(target) {
		return
	}
	ident, ok := ecs.Get[*game.Identity](s.world, target, s.comps.Identity)
	if !ok || ident.Description == "" {
		return
	}
	if sess := s.sessionForEntity(actor); sess != nil {
		s.send(sess, s.builder.SystemMessage(ident.Description, "info"))
	}
}

func (s *Server) interactTile(e ecs.Entity) {
	pos, ok := ecs.Get[*game.Position](s.world, e, s.comps.Position)
	if !ok {
		return
	}
	switch s.tiles.GetTile(int(pos.X), int(pos.Y), int(pos.Z)).Type {
	case terrain.StairsUp:
		s.changeFloor(e, pos, 1)
	case terrain.StairsDown:
		s.changeFloor(e, pos, -1)
	}
}

func (s *Server) changeFloor(e ecs.Entity, pos *game.Position, dz int) {
	newZ := pos.Z + float64(dz)
	if !s.tiles.IsWalkable(int(pos.X), int(pos.Y), int(newZ)) {
		return
	}
	pos.Z = newZ
	s.grid.Update(e, pos.X, pos.Y, pos.Z)
}

func (s *Server) applyPickup(a playerAction) {
	item, ok := game.PickupNearbyItem(s.world, s.comps, s.grid, s.sink, a.entity)
	if !ok {
		return
	}
	sess := s.sessionForEntity(a.entity)
	if sess == nil {
		return
	}
	text := fmt.Sprintf("You picked up %s.", item.Name)
	if item.StackCount > 1 {
		text = fmt.Sprintf("You picked up %s x%d.", item.Name, item.StackCount)
	}
	s.send(sess, s.builder.SystemMessage(text, "info"))
}

// entityFromAny converts a JSON-decoded id into an entity. Decoded maps
// carry numbers as float64.
func entityFromAny(v any) ecs.Entity {
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return ecs.Entity(uint64(n))
		}
	case uint64:
		return ecs.Entity(n)
	case int64:
		if n > 0 {
			return ecs.Entity(uint64(n))
		}
	}
	return ecs.Nil
}
