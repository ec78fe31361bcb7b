package game

import "github.com/gaiasync/gaiasync/internal/core/ecs"

// System priorities, highest runs first.
const (
	PriorityCooldown    = 100
	PriorityMovement    = 90
	PriorityStatus      = 85
	PriorityCombat      = 80
	PriorityAI          = 70
	PriorityVisibility  = 50
	PriorityLifetime    = 10
	PriorityPersistence = 5
)

// defaultGCD is the global cooldown applied whenever any action
// cooldown triggers.
const defaultGCD = 0.5

// CooldownSystem advances the game clock and expires cooldown timers.
// It runs first so every other system sees the tick's final time.
type CooldownSystem struct {
	c     *Components
	clock *Clock
}

// NewCooldownSystem returns the cooldown system. It owns advancing
// clock.
func NewCooldownSystem(c *Components, clock *Clock) *CooldownSystem {
	return &CooldownSystem{c: c, clock: clock}
}

// Update advances the clock and drops timers that have expired.
func (s *CooldownSystem) Update(dt float64, w *ecs.World) {
	s.clock.Advance(dt)
	now := s.clock.Now()

	for _, res := range w.Query(s.c.Cooldowns) {
		cd := res.Values[0].(*Cooldowns)
		if cd.GCDExpiresAt > 0 && cd.GCDExpiresAt <= now {
			cd.GCDExpiresAt = 0
		}
		for action, timer := range cd.Active {
			if timer.ExpiresAt <= now {
				delete(cd.Active, action)
			}
		}
	}
}

// CanAct reports whether the entity is off both the global cooldown and
// the named action's cooldown. Entities without a Cooldowns component
// can always act.
func (s *CooldownSystem) CanAct(w *ecs.World, e ecs.Entity, action string) bool {
	cd, ok := ecs.Get[*Cooldowns](w, e, s.c.Cooldowns)
	if !ok {
		return true
	}
	now := s.clock.Now()
	if cd.GCDExpiresAt > now {
		return false
	}
	if timer, active := cd.Active[action]; active && timer.ExpiresAt > now {
		return false
	}
	return true
}

// Trigger starts the named action's cooldown and the global cooldown.
func (s *CooldownSystem) Trigger(w *ecs.World, e ecs.Entity, action string, duration float64) {
	cd, ok := ecs.Get[*Cooldowns](w, e, s.c.Cooldowns)
	if !ok {
		return
	}
	now := s.clock.Now()
	if cd.Active == nil {
		cd.Active = make(map[string]Cooldown)
	}
	cd.Active[action] = Cooldown{
		Action:    action,
		ExpiresAt: now + duration,
		Duration:  duration,
	}
	cd.GCDExpiresAt = now + defaultGCD
}
