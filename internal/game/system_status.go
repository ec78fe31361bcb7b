package game

import "github.com/gaiasync/gaiasync/internal/core/ecs"

// StatusSystem ticks down status-effect durations and applies hp/mp
// regeneration from stat rates.
type StatusSystem struct {
	c *Components
}

// NewStatusSystem returns the status system.
func NewStatusSystem(c *Components) *StatusSystem {
	return &StatusSystem{c: c}
}

// Update expires effects and regenerates vitals. Dead entities do not
// regenerate.
func (s *StatusSystem) Update(dt float64, w *ecs.World) {
	for _, res := range w.Query(s.c.StatusEffects) {
		effects := res.Values[0].(*StatusEffects)
		kept := effects.Active[:0]
		for _, effect := range effects.Active {
			effect.Duration -= dt
			if effect.Duration > 0 {
				kept = append(kept, effect)
			}
		}
		effects.Active = kept
	}

	for _, res := range w.Query(s.c.CombatState, s.c.Stats) {
		if w.HasComponent(res.Entity, s.c.Dead) {
			continue
		}
		combat := res.Values[0].(*CombatState)
		stats := res.Values[1].(*Stats)

		if stats.HPRegenPerSec > 0 && combat.HP < float64(stats.MaxHP) {
			combat.HP += stats.HPRegenPerSec * dt
			if combat.HP > float64(stats.MaxHP) {
				combat.HP = float64(stats.MaxHP)
			}
		}
		if stats.MPRegenPerSec > 0 && combat.MP < float64(stats.MaxMP) {
			combat.MP += stats.MPRegenPerSec * dt
			if combat.MP > float64(stats.MaxMP) {
				combat.MP = float64(stats.MaxMP)
			}
		}
	}
}
