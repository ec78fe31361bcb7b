package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

func TestCombatSystem_Attacks(t *testing.T) {
	setup := func(t *testing.T) (*fixture, *CombatSystem, ecs.Entity, ecs.Entity) {
		f := newFixture(t)
		cooldowns := NewCooldownSystem(f.c, f.clock)
		combat := NewCombatSystem(f.c, f.clock, cooldowns, f.sink, f.grid)
		player := f.spawnPlayer(t, "hero", 10, 10, 0)
		goblin := f.spawnEnemy(t, "goblin", 10.5, 10, 0)
		return f, combat, player, goblin
	}

	t.Run("Hits Target In Range", func(t *testing.T) {
		f, combat, player, goblin := setup(t)
		state, _ := ecs.Get[*CombatState](f.w, player, f.c.CombatState)
		state.Target = goblin

		combat.Update(0.05, f.w)

		// Player attack power 10 against an unarmored goblin.
		goblinState, _ := ecs.Get[*CombatState](f.w, goblin, f.c.CombatState)
		require.Equal(t, 20.0, goblinState.HP)
		require.True(t, state.InCombat)

		events := f.sink.Drain()
		require.Len(t, events, 1)
		dmg, ok := events[0].(DamageEvent)
		require.True(t, ok)
		require.Equal(t, goblin, dmg.Target)
		require.Equal(t, player, dmg.Source)
		require.Equal(t, 10, dmg.Amount)
		require.Equal(t, 20, dmg.CurrentHP)
		require.Equal(t, 30, dmg.MaxHP)
	})

	t.Run("Cooldown Gates Repeat Swings", func(t *testing.T) {
		f, combat, player, goblin := setup(t)
		state, _ := ecs.Get[*CombatState](f.w, player, f.c.CombatState)
		state.Target = goblin

		combat.Update(0.05, f.w)
		combat.Update(0.05, f.w)
		require.Len(t, f.sink.Drain(), 1)

		// Attack speed 1.0 means one swing per second.
		f.clock.Advance(1.0)
		combat.Update(0.05, f.w)
		require.Len(t, f.sink.Drain(), 1)
	})

	t.Run("Out Of Range Does Nothing", func(t *testing.T) {
		f, combat, player, _ := setup(t)
		far := f.spawnEnemy(t, "wolf", 20, 20, 0)
		state, _ := ecs.Get[*CombatState](f.w, player, f.c.CombatState)
		state.Target = far

		combat.Update(0.05, f.w)
		require.Empty(t, f.sink.Drain())
	})

	t.Run("Dead Target Is Dropped", func(t *testing.T) {
		f, combat, player, goblin := setup(t)
		require.NoError(t, f.w.AddComponent(goblin, f.c.Dead, &Dead{}))
		state, _ := ecs.Get[*CombatState](f.w, player, f.c.CombatState)
		state.Target = goblin

		combat.Update(0.05, f.w)
		require.Equal(t, ecs.Nil, state.Target)
		require.Empty(t, f.sink.Drain())
	})

	t.Run("Destroyed Target Is Dropped", func(t *testing.T) {
		f, combat, player, goblin := setup(t)
		state, _ := ecs.Get[*CombatState](f.w, player, f.c.CombatState)
		state.Target = goblin
		f.grid.Remove(goblin)
		f.w.DestroyEntity(goblin)

		combat.Update(0.05, f.w)
		require.Equal(t, ecs.Nil, state.Target)
		require.Empty(t, f.sink.Drain())
	})
}

func TestCombatSystem_Damage(t *testing.T) {
	t.Run("Armor Reduces To Minimum One", func(t *testing.T) {
		f := newFixture(t)
		cooldowns := NewCooldownSystem(f.c, f.clock)
		combat := NewCombatSystem(f.c, f.clock, cooldowns, f.sink, f.grid)
		goblin := f.spawnEnemy(t, "goblin", 0, 0, 0)
		stats, _ := ecs.Get[*Stats](f.w, goblin, f.c.Stats)
		stats.Armor = 50

		combat.ApplyDamage(f.w, goblin, ecs.Nil, 3, DamagePhysical)

		state, _ := ecs.Get[*CombatState](f.w, goblin, f.c.CombatState)
		require.Equal(t, 29.0, state.HP)
	})

	t.Run("Accumulates Threat Toward Source", func(t *testing.T) {
		f := newFixture(t)
		cooldowns := NewCooldownSystem(f.c, f.clock)
		combat := NewCombatSystem(f.c, f.clock, cooldowns, f.sink, f.grid)
		player := f.spawnPlayer(t, "hero", 0, 0, 0)
		goblin := f.spawnEnemy(t, "goblin", 1, 0, 0)

		combat.ApplyDamage(f.w, goblin, player, 12, DamagePhysical)
		combat.ApplyDamage(f.w, goblin, player, 12, DamagePhysical)

		state, _ := ecs.Get[*CombatState](f.w, goblin, f.c.CombatState)
		require.Equal(t, 24.0, state.ThreatTable[player])
	})

	t.Run("Already Dead Takes No More Damage", func(t *testing.T) {
		f := newFixture(t)
		cooldowns := NewCooldownSystem(f.c, f.clock)
		combat := NewCombatSystem(f.c, f.clock, cooldowns, f.sink, f.grid)
		player := f.spawnPlayer(t, "hero", 0, 0, 0)
		goblin := f.spawnEnemy(t, "goblin", 1, 0, 0)

		combat.ApplyDamage(f.w, goblin, player, 1000, DamagePhysical)
		require.True(t, f.w.HasComponent(goblin, f.c.Dead))
		before := len(f.sink.Drain())
		require.Equal(t, 2, before) // damage + death

		combat.ApplyDamage(f.w, goblin, player, 1000, DamagePhysical)
		require.Empty(t, f.sink.Drain())
	})
}

func TestCombatSystem_Death(t *testing.T) {
	setup := func(t *testing.T) (*fixture, *CombatSystem, ecs.Entity) {
		f := newFixture(t)
		cooldowns := NewCooldownSystem(f.c, f.clock)
		combat := NewCombatSystem(f.c, f.clock, cooldowns, f.sink, f.grid)
		player := f.spawnPlayer(t, "hero", 0, 0, 0)
		return f, combat, player
	}

	t.Run("Marks Victim And Emits Events", func(t *testing.T) {
		f, combat, player := setup(t)
		goblin := f.spawnEnemy(t, "goblin", 1, 0, 0)
		f.clock.Advance(42)

		combat.ApplyDamage(f.w, goblin, player, 1000, DamagePhysical)

		dead, ok := ecs.Get[*Dead](f.w, goblin, f.c.Dead)
		require.True(t, ok)
		require.Equal(t, player, dead.Killer)
		require.Equal(t, 42.0, dead.TimeOfDeath)

		events := f.sink.Drain()
		require.GreaterOrEqual(t, len(events), 2)
		death, ok := events[1].(DeathEvent)
		require.True(t, ok)
		require.Equal(t, goblin, death.Entity)
		require.Equal(t, "Goblin", death.EntityName)
		require.Equal(t, "hero", death.KillerName)
	})

	t.Run("Killer Gains Level Scaled Experience", func(t *testing.T) {
		f, combat, player := setup(t)
		orc := f.spawnEnemy(t, "orc", 1, 0, 0)

		combat.ApplyDamage(f.w, orc, player, 1000, DamagePhysical)

		stats, _ := ecs.Get[*Stats](f.w, player, f.c.Stats)
		require.Equal(t, 30, stats.Experience)
		require.Equal(t, 1, stats.Level)
	})

	t.Run("Level Up Applies Gains And Heals", func(t *testing.T) {
		f, combat, player := setup(t)
		orc := f.spawnEnemy(t, "orc", 1, 0, 0)
		victimStats, _ := ecs.Get[*Stats](f.w, orc, f.c.Stats)
		victimStats.Level = 10

		state, _ := ecs.Get[*CombatState](f.w, player, f.c.CombatState)
		state.HP = 40

		combat.ApplyDamage(f.w, orc, player, 1000, DamagePhysical)

		stats, _ := ecs.Get[*Stats](f.w, player, f.c.Stats)
		require.Equal(t, 2, stats.Level)
		require.Equal(t, 0, stats.Experience)
		require.Equal(t, 150, stats.ExperienceToNext)
		require.Equal(t, 17, stats.Strength)
		require.Equal(t, 16, stats.Constitution)
		require.Equal(t, 13, stats.Dexterity)
		require.Equal(t, 270, stats.MaxHP)
		require.Equal(t, 106, stats.MaxMP)
		require.Equal(t, 44, stats.AttackPower)
		require.Equal(t, 8, stats.Armor)
		require.Equal(t, 270.0, state.HP)

		var leveled bool
		for _, ev := range f.sink.Drain() {
			if up, ok := ev.(LevelUpEvent); ok {
				leveled = true
				require.Equal(t, player, up.Entity)
				require.Equal(t, 2, up.NewLevel)
				require.Equal(t, map[string]int{"strength": 2, "constitution": 2, "dexterity": 1}, up.StatGains)
			}
		}
		require.True(t, leveled)
	})

	t.Run("Large Kill Chains Multiple Levels", func(t *testing.T) {
		f, combat, player := setup(t)
		orc := f.spawnEnemy(t, "orc", 1, 0, 0)
		victimStats, _ := ecs.Get[*Stats](f.w, orc, f.c.Stats)
		victimStats.Level = 30

		combat.ApplyDamage(f.w, orc, player, 1000, DamagePhysical)

		stats, _ := ecs.Get[*Stats](f.w, player, f.c.Stats)
		require.Equal(t, 3, stats.Level)
		require.Equal(t, 50, stats.Experience)
		require.Equal(t, 225, stats.ExperienceToNext)
	})

	t.Run("Npc Corpse Gets A Lifetime", func(t *testing.T) {
		f, combat, player := setup(t)
		goblin := f.spawnEnemy(t, "goblin", 1, 0, 0)

		combat.ApplyDamage(f.w, goblin, player, 1000, DamagePhysical)

		life, ok := ecs.Get[*Lifetime](f.w, goblin, f.c.Lifetime)
		require.True(t, ok)
		require.Equal(t, corpseLifetime, life.Duration)
		require.False(t, f.w.HasComponent(player, f.c.Lifetime))
	})

	t.Run("Guaranteed Loot Drops On The Ground", func(t *testing.T) {
		f, combat, player := setup(t)
		skeleton := f.spawnEnemy(t, "skeleton", 1, 0, 0)
		combat.rng = seededRNG(1)

		combat.ApplyDamage(f.w, skeleton, player, 1000, DamagePhysical)

		var drops []Item
		for _, res := range f.w.Query(f.c.GroundItem) {
			drops = append(drops, res.Values[0].(*GroundItem).Item)
		}
		var foundBone bool
		for _, item := range drops {
			if item.TemplateID == "bone" {
				foundBone = true
			}
		}
		require.True(t, foundBone)
	})
}
