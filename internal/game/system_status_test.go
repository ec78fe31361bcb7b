package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

func TestStatusSystem(t *testing.T) {
	t.Run("Effects Tick Down And Expire", func(t *testing.T) {
		f := newFixture(t)
		status := NewStatusSystem(f.c)
		e := f.spawnPlayer(t, "hero", 0, 0, 0)

		effects, _ := ecs.Get[*StatusEffects](f.w, e, f.c.StatusEffects)
		effects.Active = []StatusEffect{
			{Kind: StatusPoisoned, Duration: 1.0},
			{Kind: StatusBlessed, Duration: 5.0},
		}

		status.Update(2.0, f.w)

		require.Len(t, effects.Active, 1)
		require.Equal(t, StatusBlessed, effects.Active[0].Kind)
		require.InDelta(t, 3.0, effects.Active[0].Duration, 1e-9)
	})

	t.Run("Vitals Regenerate From Stat Rates", func(t *testing.T) {
		f := newFixture(t)
		status := NewStatusSystem(f.c)
		e := f.spawnPlayer(t, "hero", 0, 0, 0)

		combat, _ := ecs.Get[*CombatState](f.w, e, f.c.CombatState)
		combat.HP = 100
		combat.MP = 10

		status.Update(10.0, f.w)

		require.InDelta(t, 101.0, combat.HP, 1e-9)
		require.InDelta(t, 12.0, combat.MP, 1e-9)
	})

	t.Run("Regeneration Caps At Maximum", func(t *testing.T) {
		f := newFixture(t)
		status := NewStatusSystem(f.c)
		e := f.spawnPlayer(t, "hero", 0, 0, 0)

		combat, _ := ecs.Get[*CombatState](f.w, e, f.c.CombatState)
		combat.HP = 139.95

		status.Update(1.0, f.w)

		require.Equal(t, 140.0, combat.HP)
	})

	t.Run("Dead Entities Do Not Regenerate", func(t *testing.T) {
		f := newFixture(t)
		status := NewStatusSystem(f.c)
		e := f.spawnPlayer(t, "hero", 0, 0, 0)
		require.NoError(t, f.w.AddComponent(e, f.c.Dead, &Dead{}))

		combat, _ := ecs.Get[*CombatState](f.w, e, f.c.CombatState)
		combat.HP = 0

		status.Update(10.0, f.w)

		require.Zero(t, combat.HP)
	})
}
