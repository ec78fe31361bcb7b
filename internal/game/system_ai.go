package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
)

const (
	// returnArrivalRange is how close to spawn counts as home.
	returnArrivalRange = 2.0
	// wanderSpeedFactor slows NPCs while wandering.
	wanderSpeedFactor = 0.5
	// returnSpeedFactor slows NPCs while walking home.
	returnSpeedFactor = 0.7
)

// AISystem drives NPC behavior as a per-entity state machine. Each NPC
// re-evaluates its state at its own decision interval; between
// decisions it keeps its current velocity so movement stays smooth.
type AISystem struct {
	c     *Components
	clock *Clock
	grid  *spatial.Grid
	rng   *rand.Rand
}

// NewAISystem returns the AI system.
func NewAISystem(c *Components, clock *Clock, grid *spatial.Grid) *AISystem {
	return &AISystem{
		c:     c,
		clock: clock,
		grid:  grid,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Update advances every NPC's state machine.
func (s *AISystem) Update(dt float64, w *ecs.World) {
	now := s.clock.Now()
	for _, res := range w.Query(s.c.AI, s.c.Position, s.c.Velocity, s.c.Stats) {
		e := res.Entity
		if w.HasComponent(e, s.c.Dead) {
			continue
		}
		ai := res.Values[0].(*AI)
		pos := res.Values[1].(*Position)
		vel := res.Values[2].(*Velocity)
		stats := res.Values[3].(*Stats)

		ai.StateTime += dt
		if now-ai.LastDecisionTime < ai.DecisionInterval {
			continue
		}
		ai.LastDecisionTime = now

		switch ai.State {
		case StateIdle:
			s.updateIdle(w, e, ai)
		case StateWandering:
			s.updateWandering(w, e, ai, pos, vel, stats)
		case StateChasing:
			s.updateChasing(w, e, ai, pos, vel, stats)
		case StateAttacking:
			s.updateAttacking(w, e, ai, pos)
		case StateFleeing:
			s.updateFleeing(w, ai, pos, vel, stats)
		case StateReturning:
			s.updateReturning(ai, pos, vel, stats)
		}
	}
}

func (s *AISystem) updateIdle(w *ecs.World, e ecs.Entity, ai *AI) {
	if target := s.findTarget(w, e, ai); target != ecs.Nil {
		ai.Target = target
		s.changeState(ai, StateChasing)
		return
	}
	if ai.StateTime > 3.0 && s.rng.Float64() < 0.3 {
		s.changeState(ai, StateWandering)
	}
}

func (s *AISystem) updateWandering(w *ecs.World, e ecs.Entity, ai *AI, pos *Position, vel *Velocity, stats *Stats) {
	if target := s.findTarget(w, e, ai); target != ecs.Nil {
		ai.Target = target
		s.changeState(ai, StateChasing)
		return
	}
	if distanceToSpawn(ai, pos) > ai.ChaseRadius {
		s.changeState(ai, StateReturning)
		return
	}
	if ai.StateTime > 2.0 || (vel.DX == 0 && vel.DY == 0) {
		angle := s.rng.Float64() * 2 * math.Pi
		speed := stats.MoveSpeed * wanderSpeedFactor
		vel.DX = math.Cos(angle) * speed
		vel.DY = math.Sin(angle) * speed
		ai.StateTime = 0
	}
	if ai.StateTime > 5.0 && s.rng.Float64() < 0.2 {
		stop(vel)
		s.changeState(ai, StateIdle)
	}
}

func (s *AISystem) updateChasing(w *ecs.World, e ecs.Entity, ai *AI, pos *Position, vel *Velocity, stats *Stats) {
	targetPos, ok := s.targetPosition(w, ai.Target)
	if !ok {
		ai.Target = ecs.Nil
		stop(vel)
		s.changeState(ai, StateReturning)
		return
	}
	ai.LastSeenX, ai.LastSeenY, ai.LastSeenZ = targetPos.X, targetPos.Y, targetPos.Z

	if distance(pos, targetPos) <= ai.AttackRange {
		stop(vel)
		s.changeState(ai, StateAttacking)
		if combat, ok := ecs.Get[*CombatState](w, e, s.c.CombatState); ok {
			combat.Target = ai.Target
		}
		return
	}
	if distanceToSpawn(ai, pos) > ai.ChaseRadius {
		ai.Target = ecs.Nil
		stop(vel)
		s.changeState(ai, StateReturning)
		return
	}
	moveToward(vel, pos, targetPos.X, targetPos.Y, stats.MoveSpeed)
}

func (s *AISystem) updateAttacking(w *ecs.World, e ecs.Entity, ai *AI, pos *Position) {
	targetPos, ok := s.targetPosition(w, ai.Target)
	if !ok {
		ai.Target = ecs.Nil
		if combat, ok := ecs.Get[*CombatState](w, e, s.c.CombatState); ok {
			combat.Target = ecs.Nil
		}
		s.changeState(ai, StateIdle)
		return
	}
	if distance(pos, targetPos) > ai.AttackRange {
		s.changeState(ai, StateChasing)
		return
	}
	if combat, ok := ecs.Get[*CombatState](w, e, s.c.CombatState); ok {
		combat.Target = ai.Target
		combat.InCombat = true
	}
}

func (s *AISystem) updateFleeing(w *ecs.World, ai *AI, pos *Position, vel *Velocity, stats *Stats) {
	targetPos, ok := s.targetPosition(w, ai.Target)
	if !ok {
		ai.Target = ecs.Nil
		stop(vel)
		s.changeState(ai, StateReturning)
		return
	}
	if distance(pos, targetPos) > ai.ChaseRadius {
		ai.Target = ecs.Nil
		stop(vel)
		s.changeState(ai, StateReturning)
		return
	}
	// Run directly away on the horizontal plane.
	moveToward(vel, pos, pos.X-(targetPos.X-pos.X), pos.Y-(targetPos.Y-pos.Y), stats.MoveSpeed)
}

func (s *AISystem) updateReturning(ai *AI, pos *Position, vel *Velocity, stats *Stats) {
	if distanceToSpawn(ai, pos) <= returnArrivalRange {
		stop(vel)
		s.changeState(ai, StateIdle)
		return
	}
	moveToward(vel, pos, ai.SpawnX, ai.SpawnY, stats.MoveSpeed*returnSpeedFactor)
}

// findTarget picks the nearest valid target inside the aggro radius.
// Hostile NPCs hunt players; neutral NPCs only retaliate against
// entities already on their threat table. Other factions never start
// fights.
func (s *AISystem) findTarget(w *ecs.World, self ecs.Entity, ai *AI) ecs.Entity {
	if ai.AggroRadius <= 0 {
		return ecs.Nil
	}
	pos, ok := ecs.Get[*Position](w, self, s.c.Position)
	if !ok {
		return ecs.Nil
	}

	switch ai.Faction {
	case FactionHostile:
		return s.nearestPlayer(w, self, pos, ai.AggroRadius)
	case FactionNeutral:
		return s.nearestThreat(w, self, pos, ai.AggroRadius)
	default:
		return ecs.Nil
	}
}

func (s *AISystem) nearestPlayer(w *ecs.World, self ecs.Entity, pos *Position, radius float64) ecs.Entity {
	best := ecs.Nil
	bestDist := math.MaxFloat64
	for _, candidate := range s.grid.QueryRadiusExact(pos.X, pos.Y, pos.Z, radius, PositionLookup(w, s.c)) {
		if candidate == self {
			continue
		}
		if !w.HasComponent(candidate, s.c.Player) || w.HasComponent(candidate, s.c.Dead) {
			continue
		}
		candidatePos, ok := ecs.Get[*Position](w, candidate, s.c.Position)
		if !ok {
			continue
		}
		if d := distance(pos, candidatePos); d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

func (s *AISystem) nearestThreat(w *ecs.World, self ecs.Entity, pos *Position, radius float64) ecs.Entity {
	combat, ok := ecs.Get[*CombatState](w, self, s.c.CombatState)
	if !ok || len(combat.ThreatTable) == 0 {
		return ecs.Nil
	}
	best := ecs.Nil
	bestDist := math.MaxFloat64
	for candidate := range combat.ThreatTable {
		if candidate == self || !w.IsAlive(candidate) || w.HasComponent(candidate, s.c.Dead) {
			continue
		}
		candidatePos, ok := ecs.Get[*Position](w, candidate, s.c.Position)
		if !ok {
			continue
		}
		if d := distance(pos, candidatePos); d <= radius && d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

// targetPosition reports the target's position if the target is still
// a valid thing to fight.
func (s *AISystem) targetPosition(w *ecs.World, target ecs.Entity) (*Position, bool) {
	if target == ecs.Nil || !w.IsAlive(target) || w.HasComponent(target, s.c.Dead) {
		return nil, false
	}
	return ecs.Get[*Position](w, target, s.c.Position)
}

// changeState switches states, resetting the state timer only on an
// actual transition.
func (s *AISystem) changeState(ai *AI, next AIState) {
	if ai.State == next {
		return
	}
	ai.State = next
	ai.StateTime = 0
}

func distanceToSpawn(ai *AI, pos *Position) float64 {
	dx := pos.X - ai.SpawnX
	dy := pos.Y - ai.SpawnY
	dz := pos.Z - ai.SpawnZ
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func moveToward(vel *Velocity, pos *Position, x, y, speed float64) {
	dx := x - pos.X
	dy := y - pos.Y
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		stop(vel)
		return
	}
	vel.DX = dx / length * speed
	vel.DY = dy / length * speed
}

func stop(vel *Velocity) {
	vel.DX = 0
	vel.DY = 0
	vel.DZ = 0
}
