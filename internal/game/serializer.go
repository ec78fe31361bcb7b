package game

import (
	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

// EntityPayload flattens an entity into its wire representation.
// Position, Identity, and Sprite are required; combat fields ride
// along when present. Entities missing the required components are
// not visible on the wire at all.
func EntityPayload(w *ecs.World, c *Components, e ecs.Entity) (map[string]any, bool) {
	pos, ok := ecs.Get[*Position](w, e, c.Position)
	if !ok {
		return nil, false
	}
	identity, ok := ecs.Get[*Identity](w, e, c.Identity)
	if !ok {
		return nil, false
	}
	sprite, ok := ecs.Get[*Sprite](w, e, c.Sprite)
	if !ok {
		return nil, false
	}

	payload := map[string]any{
		"entity_id":   uint64(e),
		"entity_type": string(identity.Kind),
		"name":        identity.Name,
		"x":           pos.X,
		"y":           pos.Y,
		"z":           pos.Z,
		"char":        sprite.Char,
		"color":       sprite.Color,
	}

	if combat, ok := ecs.Get[*CombatState](w, e, c.CombatState); ok {
		payload["hp"] = roundVital(combat.HP)
	}
	if stats, ok := ecs.Get[*Stats](w, e, c.Stats); ok {
		payload["max_hp"] = stats.MaxHP
		payload["level"] = stats.Level
	}
	if ai, ok := ecs.Get[*AI](w, e, c.AI); ok {
		payload["faction"] = string(ai.Faction)
	}
	return payload, true
}
