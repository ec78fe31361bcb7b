package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
)

const (
	// meleeRange is the auto-attack reach in world units.
	meleeRange = 1.5
	// corpseLifetime is how long a dead NPC lingers before cleanup.
	corpseLifetime = 30.0
)

// CombatSystem resolves auto-attacks, applies damage, and handles
// death, experience, and level-ups. All outcomes are emitted into the
// event sink.
type CombatSystem struct {
	c         *Components
	clock     *Clock
	cooldowns *CooldownSystem
	sink      *Sink
	grid      *spatial.Grid
	rng       *rand.Rand
}

// NewCombatSystem returns the combat system. The grid is used to place
// loot drops.
func NewCombatSystem(c *Components, clock *Clock, cooldowns *CooldownSystem, sink *Sink, grid *spatial.Grid) *CombatSystem {
	return &CombatSystem{
		c:         c,
		clock:     clock,
		cooldowns: cooldowns,
		sink:      sink,
		grid:      grid,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Update runs one round of auto-attack resolution.
func (s *CombatSystem) Update(dt float64, w *ecs.World) {
	for _, res := range w.Query(s.c.CombatState, s.c.Stats) {
		attacker := res.Entity
		combat := res.Values[0].(*CombatState)
		stats := res.Values[1].(*Stats)

		if combat.Target == ecs.Nil {
			continue
		}
		if w.HasComponent(attacker, s.c.Dead) {
			combat.Target = ecs.Nil
			continue
		}
		if !w.IsAlive(combat.Target) || w.HasComponent(combat.Target, s.c.Dead) {
			combat.Target = ecs.Nil
			continue
		}
		if !s.cooldowns.CanAct(w, attacker, "attack") {
			continue
		}

		pos, ok := ecs.Get[*Position](w, attacker, s.c.Position)
		if !ok {
			continue
		}
		targetPos, ok := ecs.Get[*Position](w, combat.Target, s.c.Position)
		if !ok {
			continue
		}
		if distance(pos, targetPos) > meleeRange {
			continue
		}

		s.ApplyDamage(w, combat.Target, attacker, stats.AttackPower, DamagePhysical)

		cooldown := 1.0
		if stats.AttackSpeed > 0 {
			cooldown = 1.0 / stats.AttackSpeed
		}
		s.cooldowns.Trigger(w, attacker, "attack", cooldown)

		combat.InCombat = true
		combat.LastCombatTime = s.clock.Now()
	}
}

// ApplyDamage lands amount damage on target, reduced by armor to a
// minimum of 1. Already-dead targets are ignored.
func (s *CombatSystem) ApplyDamage(w *ecs.World, target, source ecs.Entity, amount int, kind DamageKind) {
	combat, ok := ecs.Get[*CombatState](w, target, s.c.CombatState)
	if !ok {
		return
	}
	stats, ok := ecs.Get[*Stats](w, target, s.c.Stats)
	if !ok {
		return
	}
	if w.HasComponent(target, s.c.Dead) {
		return
	}

	actual := amount - stats.Armor
	if actual < 1 {
		actual = 1
	}
	combat.HP -= float64(actual)
	if combat.HP < 0 {
		combat.HP = 0
	}

	if source != ecs.Nil && source != target {
		combat.AddThreat(source, float64(actual))
	}

	s.sink.Emit(DamageEvent{
		Target:     target,
		Source:     source,
		Amount:     actual,
		DamageKind: kind,
		CurrentHP:  roundVital(combat.HP),
		MaxHP:      stats.MaxHP,
	})

	if combat.HP == 0 {
		s.handleDeath(w, target, source)
	}
}

func (s *CombatSystem) handleDeath(w *ecs.World, victim, killer ecs.Entity) {
	now := s.clock.Now()
	if err := w.AddComponent(victim, s.c.Dead, &Dead{TimeOfDeath: now, Killer: killer}); err != nil {
		return
	}

	s.sink.Emit(DeathEvent{
		Entity:     victim,
		Killer:     killer,
		EntityName: s.entityName(w, victim),
		KillerName: s.entityName(w, killer),
	})

	if killer != ecs.Nil && killer != victim {
		s.awardExperience(w, killer, victim)
	}

	if !w.HasComponent(victim, s.c.Player) {
		// NPC corpse: drop loot and schedule cleanup.
		s.dropLoot(w, victim)
		_ = w.AddComponent(victim, s.c.Lifetime, &Lifetime{CreatedAt: now, Duration: corpseLifetime})
	}
	// TODO: respawn timer for players; dead characters currently stay
	// down until they reconnect.
}

func (s *CombatSystem) awardExperience(w *ecs.World, recipient, victim ecs.Entity) {
	recipientStats, ok := ecs.Get[*Stats](w, recipient, s.c.Stats)
	if !ok {
		return
	}
	victimStats, ok := ecs.Get[*Stats](w, victim, s.c.Stats)
	if !ok {
		return
	}

	recipientStats.Experience += KillExperience(victimStats)

	for recipientStats.Experience >= recipientStats.ExperienceToNext {
		recipientStats.Experience -= recipientStats.ExperienceToNext
		recipientStats.Level++
		recipientStats.ExperienceToNext = int(float64(recipientStats.ExperienceToNext) * xpThresholdGrowth)
		s.levelUp(w, recipient, recipientStats)
	}
}

func (s *CombatSystem) levelUp(w *ecs.World, e ecs.Entity, stats *Stats) {
	stats.Strength += levelUpStrength
	stats.Constitution += levelUpConstitution
	stats.Dexterity += levelUpDexterity
	stats.RecalculateDerived()

	if combat, ok := ecs.Get[*CombatState](w, e, s.c.CombatState); ok {
		combat.HP = float64(stats.MaxHP)
		combat.MP = float64(stats.MaxMP)
	}

	s.sink.Emit(LevelUpEvent{
		Entity:   e,
		NewLevel: stats.Level,
		StatGains: map[string]int{
			"strength":     levelUpStrength,
			"constitution": levelUpConstitution,
			"dexterity":    levelUpDexterity,
		},
	})
}

func (s *CombatSystem) dropLoot(w *ecs.World, victim ecs.Entity) {
	loot, ok := ecs.Get[*Loot](w, victim, s.c.Loot)
	if !ok {
		return
	}
	pos, ok := ecs.Get[*Position](w, victim, s.c.Position)
	if !ok {
		return
	}

	for _, templateID := range loot.Guaranteed {
		if item, ok := NewItem(templateID, 1); ok {
			SpawnGroundItem(w, s.c, s.grid, item, pos.X, pos.Y, pos.Z)
		}
	}
	for templateID, chance := range loot.Possible {
		if s.rng.Float64() >= chance {
			continue
		}
		if item, ok := NewItem(templateID, 1); ok {
			SpawnGroundItem(w, s.c, s.grid, item, pos.X, pos.Y, pos.Z)
		}
	}
}

func (s *CombatSystem) entityName(w *ecs.World, e ecs.Entity) string {
	if e == ecs.Nil {
		return ""
	}
	if identity, ok := ecs.Get[*Identity](w, e, s.c.Identity); ok {
		return identity.Name
	}
	return ""
}

func distance(a, b *Position) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// roundVital converts a fractional vital to its wire integer.
func roundVital(v float64) int {
	return int(math.Round(v))
}
