package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	t.Run("Fresh Player Sheet", func(t *testing.T) {
		s := NewPlayerStats()

		require.Equal(t, 15, s.Strength)
		require.Equal(t, 12, s.Dexterity)
		require.Equal(t, 14, s.Constitution)
		require.Equal(t, 10, s.Intelligence)
		require.Equal(t, 140, s.MaxHP)
		require.Equal(t, 50, s.MaxMP)
		require.Equal(t, 10, s.AttackPower)
		require.Equal(t, 5.0, s.MoveSpeed)
		require.Equal(t, 1.0, s.AttackSpeed)
		require.Equal(t, 1, s.Level)
		require.Equal(t, 100, s.ExperienceToNext)
	})

	t.Run("Derived Stats Follow Attributes", func(t *testing.T) {
		s := Stats{Strength: 20, Constitution: 16, Intelligence: 12, Level: 3}
		s.RecalculateDerived()

		require.Equal(t, 100+160+15, s.MaxHP)
		require.Equal(t, 50+60+9, s.MaxMP)
		require.Equal(t, 10+40, s.AttackPower)
		require.Equal(t, 8, s.Armor)
	})

	t.Run("Kill Experience Scales With Victim Level", func(t *testing.T) {
		require.Equal(t, 10, KillExperience(&Stats{Level: 1}))
		require.Equal(t, 70, KillExperience(&Stats{Level: 7}))
	})
}

func TestInventory(t *testing.T) {
	t.Run("Stackables Merge Up To The Cap", func(t *testing.T) {
		inv := NewInventory()

		_, absorbed := AddToInventory(inv, mustItem(t, "health_potion", 4))
		require.True(t, absorbed)
		_, absorbed = AddToInventory(inv, mustItem(t, "health_potion", 4))
		require.True(t, absorbed)

		require.Len(t, inv.Items, 1)
		require.Equal(t, 8, inv.Items[0].StackCount)
		require.InDelta(t, 4.0, inv.TotalWeight, 1e-9)
	})

	t.Run("Overflow Spills Into A New Slot", func(t *testing.T) {
		inv := NewInventory()

		_, absorbed := AddToInventory(inv, mustItem(t, "health_potion", 9))
		require.True(t, absorbed)
		_, absorbed = AddToInventory(inv, mustItem(t, "health_potion", 4))
		require.True(t, absorbed)

		require.Len(t, inv.Items, 2)
		require.Equal(t, 10, inv.Items[0].StackCount)
		require.Equal(t, 3, inv.Items[1].StackCount)
	})

	t.Run("Weight Limit Rejects The Whole Stack", func(t *testing.T) {
		inv := NewInventory()
		inv.MaxWeight = 1.0

		leftover, absorbed := AddToInventory(inv, mustItem(t, "rusty_sword", 1))
		require.False(t, absorbed)
		require.Equal(t, 1, leftover.StackCount)
		require.Empty(t, inv.Items)
	})

	t.Run("Slot Limit Reports The Leftover", func(t *testing.T) {
		inv := NewInventory()
		inv.MaxItems = 1
		_, absorbed := AddToInventory(inv, mustItem(t, "bone", 18))
		require.True(t, absorbed)

		leftover, absorbed := AddToInventory(inv, mustItem(t, "bone", 6))
		require.False(t, absorbed)
		require.Equal(t, 4, leftover.StackCount)
		require.Equal(t, 20, inv.Items[0].StackCount)
	})

	t.Run("Removal Splits Stacks", func(t *testing.T) {
		inv := NewInventory()
		_, absorbed := AddToInventory(inv, mustItem(t, "bone", 10))
		require.True(t, absorbed)
		id := inv.Items[0].ID

		removed, ok := RemoveFromInventory(inv, id, 3)
		require.True(t, ok)
		require.Equal(t, 3, removed.StackCount)
		require.Equal(t, 7, inv.Items[0].StackCount)
		require.InDelta(t, 1.4, inv.TotalWeight, 1e-9)
	})

	t.Run("Removing The Rest Clears The Slot", func(t *testing.T) {
		inv := NewInventory()
		_, absorbed := AddToInventory(inv, mustItem(t, "bone", 3))
		require.True(t, absorbed)
		id := inv.Items[0].ID

		removed, ok := RemoveFromInventory(inv, id, 3)
		require.True(t, ok)
		require.Equal(t, 3, removed.StackCount)
		require.Empty(t, inv.Items)
		require.InDelta(t, 0.0, inv.TotalWeight, 1e-9)
	})

	t.Run("Unknown Instance Id Fails", func(t *testing.T) {
		inv := NewInventory()
		_, ok := RemoveFromInventory(inv, 999999, 1)
		require.False(t, ok)
	})
}
