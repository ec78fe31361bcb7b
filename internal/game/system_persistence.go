package game

import (
	"time"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/persistence"
)

// CharacterQueue accepts character snapshots for asynchronous writes.
// *persistence.Saver satisfies it.
type CharacterQueue interface {
	Enqueue(persistence.Character) bool
}

// PersistenceSystem periodically snapshots each player's character and
// hands it to the save queue. Snapshots happen on the tick; the actual
// disk write happens elsewhere.
type PersistenceSystem struct {
	c     *Components
	clock *Clock
	queue CharacterQueue
}

// NewPersistenceSystem returns the persistence system.
func NewPersistenceSystem(c *Components, clock *Clock, queue CharacterQueue) *PersistenceSystem {
	return &PersistenceSystem{c: c, clock: clock, queue: queue}
}

// Update enqueues a snapshot for every player whose save interval has
// elapsed.
func (s *PersistenceSystem) Update(dt float64, w *ecs.World) {
	now := s.clock.Now()
	for _, res := range w.Query(s.c.Player, s.c.Position, s.c.Stats, s.c.CombatState) {
		player := res.Values[0].(*Player)
		if now-player.LastSaveTime < player.SaveInterval {
			continue
		}
		player.LastSaveTime = now
		if ch, ok := SnapshotCharacter(w, s.c, res.Entity); ok {
			s.queue.Enqueue(ch)
		}
	}
}

// SnapshotCharacter captures the entity's persistent character state.
// It reports false when the entity is missing any of the player
// components.
func SnapshotCharacter(w *ecs.World, c *Components, e ecs.Entity) (persistence.Character, bool) {
	player, ok := ecs.Get[*Player](w, e, c.Player)
	if !ok {
		return persistence.Character{}, false
	}
	pos, ok := ecs.Get[*Position](w, e, c.Position)
	if !ok {
		return persistence.Character{}, false
	}
	stats, ok := ecs.Get[*Stats](w, e, c.Stats)
	if !ok {
		return persistence.Character{}, false
	}
	combat, ok := ecs.Get[*CombatState](w, e, c.CombatState)
	if !ok {
		return persistence.Character{}, false
	}

	return persistence.Character{
		AccountID:        player.AccountID,
		Name:             player.CharacterName,
		X:                pos.X,
		Y:                pos.Y,
		Z:                pos.Z,
		Level:            stats.Level,
		Experience:       stats.Experience,
		ExperienceToNext: stats.ExperienceToNext,
		Strength:         stats.Strength,
		Dexterity:        stats.Dexterity,
		Constitution:     stats.Constitution,
		Intelligence:     stats.Intelligence,
		Wisdom:           stats.Wisdom,
		Charisma:         stats.Charisma,
		MaxHP:            stats.MaxHP,
		MaxMP:            stats.MaxMP,
		AttackPower:      stats.AttackPower,
		Armor:            stats.Armor,
		HP:               roundVital(combat.HP),
		MP:               roundVital(combat.MP),
		SavedAt:          time.Now().UTC(),
	}, true
}
