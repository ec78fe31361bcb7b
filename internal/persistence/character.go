// Package persistence is the embedded character store. Records are JSON
// values sealed with an xxhash64 checksum, keyed by character name in a
// Badger database. Writes from the tick path go through Saver so the
// simulation never blocks on disk.
package persistence

import "time"

// Character is the durable snapshot of a player entity: position,
// attributes, progression, and current vitals. It is rebuilt into
// components on login.
type Character struct {
	AccountID uint64 `json:"account_id"`
	Name      string `json:"name"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	Level            int `json:"level"`
	Experience       int `json:"experience"`
	ExperienceToNext int `json:"experience_to_next"`

	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`

	MaxHP       int `json:"max_hp"`
	MaxMP       int `json:"max_mp"`
	AttackPower int `json:"attack_power"`
	Armor       int `json:"armor"`

	HP int `json:"hp"`
	MP int `json:"mp"`

	SavedAt time.Time `json:"saved_at"`
}
