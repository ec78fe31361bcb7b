package game

// Experience awarded for a kill is the victim's level times this.
const xpPerVictimLevel = 10

// Level-up growth: threshold multiplier and attribute gains.
const (
	xpThresholdGrowth = 1.5

	levelUpStrength     = 2
	levelUpConstitution = 2
	levelUpDexterity    = 1
)

// RecalculateDerived recomputes the derived combat stats from the base
// attributes. Called on level-up; spawn templates set their own
// starting values.
func (s *Stats) RecalculateDerived() {
	s.MaxHP = 100 + s.Constitution*10 + s.Level*5
	s.MaxMP = 50 + s.Intelligence*5 + s.Level*3
	s.AttackPower = 10 + s.Strength*2
	s.Armor = s.Constitution / 2
}

// KillExperience is the XP a kill of victim is worth.
func KillExperience(victim *Stats) int {
	return victim.Level * xpPerVictimLevel
}

// NewPlayerStats is the starting stat block for a fresh character.
func NewPlayerStats() Stats {
	return Stats{
		Strength:     15,
		Dexterity:    12,
		Constitution: 14,
		Intelligence: 10,
		Wisdom:       10,
		Charisma:     10,

		MaxHP:       140,
		MaxMP:       50,
		AttackPower: 10,

		HPRegenPerSec: 0.1,
		MPRegenPerSec: 0.2,
		MoveSpeed:     5.0,
		AttackSpeed:   1.0,

		Level:            1,
		ExperienceToNext: 100,
	}
}

// newNPCStats builds a stat block for an NPC from its template values.
func newNPCStats(level, hp, attackPower int, moveSpeed float64) Stats {
	return Stats{
		Strength:     10,
		Dexterity:    10,
		Constitution: 10,
		Intelligence: 10,
		Wisdom:       10,
		Charisma:     10,

		MaxHP:       hp,
		MaxMP:       50,
		AttackPower: attackPower,

		HPRegenPerSec: 0.1,
		MPRegenPerSec: 0.2,
		MoveSpeed:     moveSpeed,
		AttackSpeed:   1.0,

		Level:            level,
		ExperienceToNext: 100,
	}
}
