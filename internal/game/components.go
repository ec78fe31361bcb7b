// Package game holds the simulation: component types, the fixed-step
// systems that run them, entity factories, and the wire serializer.
// Component values are stored as pointers so systems mutate in place.
package game

import (
	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

// EntityKind categorizes entities on the wire and in queries.
type EntityKind string

const (
	KindPlayer     EntityKind = "player"
	KindNPC        EntityKind = "npc"
	KindItem       EntityKind = "item"
	KindProjectile EntityKind = "projectile"
	KindEffect     EntityKind = "effect"
	KindStructure  EntityKind = "structure"
)

// Faction determines hostility between entities.
type Faction string

const (
	FactionPlayer   Faction = "player"
	FactionFriendly Faction = "friendly"
	FactionNeutral  Faction = "neutral"
	FactionHostile  Faction = "hostile"
	FactionWildlife Faction = "wildlife"
)

// AIState is one state of the NPC behavior machine.
type AIState string

const (
	StateIdle      AIState = "idle"
	StateWandering AIState = "wandering"
	StateChasing   AIState = "chasing"
	StateAttacking AIState = "attacking"
	StateFleeing   AIState = "fleeing"
	StateReturning AIState = "returning"
)

// DamageKind tags damage events on the wire.
type DamageKind string

const (
	DamagePhysical  DamageKind = "physical"
	DamageFire      DamageKind = "fire"
	DamageCold      DamageKind = "cold"
	DamageLightning DamageKind = "lightning"
	DamagePoison    DamageKind = "poison"
	DamageHoly      DamageKind = "holy"
	DamageDark      DamageKind = "dark"
)

// StatusKind names a status effect.
type StatusKind string

const (
	StatusStunned  StatusKind = "stunned"
	StatusSlowed   StatusKind = "slowed"
	StatusHasted   StatusKind = "hasted"
	StatusPoisoned StatusKind = "poisoned"
	StatusBurning  StatusKind = "burning"
	StatusFrozen   StatusKind = "frozen"
	StatusBlessed  StatusKind = "blessed"
	StatusCursed   StatusKind = "cursed"
)

// Position is a location in world space.
type Position struct {
	X, Y, Z float64
}

// Velocity is movement in units per second, integrated by the movement
// system.
type Velocity struct {
	DX, DY, DZ float64
}

// Stats holds base attributes, derived combat stats, rates, and
// progression. Derived values are recomputed on level-up, not per tick.
type Stats struct {
	Strength     int
	Dexterity    int
	Constitution int
	Intelligence int
	Wisdom       int
	Charisma     int

	MaxHP       int
	MaxMP       int
	Armor       int
	AttackPower int

	HPRegenPerSec float64
	MPRegenPerSec float64
	MoveSpeed     float64
	AttackSpeed   float64

	Level            int
	Experience       int
	ExperienceToNext int
}

// CombatState is current vitals and targeting. Vitals are float64 so
// regen can accumulate fractions; the wire rounds them.
type CombatState struct {
	HP float64
	MP float64

	InCombat       bool
	LastCombatTime float64

	Target      ecs.Entity
	ThreatTable map[ecs.Entity]float64
}

// AddThreat accumulates threat from an attacker.
func (c *CombatState) AddThreat(source ecs.Entity, amount float64) {
	if c.ThreatTable == nil {
		c.ThreatTable = make(map[ecs.Entity]float64)
	}
	c.ThreatTable[source] += amount
}

// Cooldown is a single named timer against game time.
type Cooldown struct {
	Action    string
	ExpiresAt float64
	Duration  float64
}

// Cooldowns tracks per-action timers plus the global cooldown.
type Cooldowns struct {
	Active       map[string]Cooldown
	GCDExpiresAt float64
}

// StatusEffect is one active buff or debuff.
type StatusEffect struct {
	Kind     StatusKind
	Duration float64
	Stacks   int
	Source   ecs.Entity
}

// StatusEffects holds all effects on an entity.
type StatusEffects struct {
	Active []StatusEffect
}

// Identity is basic identification shared by every visible entity.
type Identity struct {
	Kind        EntityKind
	Name        string
	Description string
}

// Sprite is the entity's glyph on clients.
type Sprite struct {
	Char  string
	Color string
}

// Player marks a player-controlled entity and carries its session
// bookkeeping.
type Player struct {
	AccountID     uint64
	CharacterName string
	ConnectionID  string
	LastSaveTime  float64
	SaveInterval  float64
}

// Item is an item instance held in an inventory or lying on the ground.
type Item struct {
	ID         uint64
	TemplateID string
	Name       string
	Char       string
	Color      string
	Weight     float64
	Stackable  bool
	StackCount int
	MaxStack   int
}

// Inventory holds carried items, gated by slot count and weight.
type Inventory struct {
	Items       []Item
	MaxItems    int
	MaxWeight   float64
	TotalWeight float64
}

// GroundItem marks an entity as a pickup carrying one item.
type GroundItem struct {
	Item Item
}

// Loot is the drop table rolled when the entity dies.
type Loot struct {
	Guaranteed []string
	Possible   map[string]float64
}

// AI drives NPC behavior through a per-entity state machine.
type AI struct {
	State   AIState
	Faction Faction

	AggroRadius float64
	ChaseRadius float64
	AttackRange float64

	SpawnX, SpawnY, SpawnZ float64

	StateTime        float64
	LastDecisionTime float64
	DecisionInterval float64

	Target                          ecs.Entity
	LastSeenX, LastSeenY, LastSeenZ float64
}

// Vision gives an entity sight: a radius for the FOV pass and the
// accumulated explored set.
type Vision struct {
	Radius   float64
	Explored map[[3]int]struct{}
}

// Lifetime destroys the entity after a duration of game time. Used for
// corpses and ground effects.
type Lifetime struct {
	CreatedAt float64
	Duration  float64
}

// Expired reports whether the lifetime has run out at now.
func (l Lifetime) Expired(now float64) bool {
	return now >= l.CreatedAt+l.Duration
}

// Dead marks an entity as dead but not yet cleaned up.
type Dead struct {
	TimeOfDeath float64
	Killer      ecs.Entity
}

// Respawn remembers where and how fast a player comes back.
type Respawn struct {
	X, Y, Z float64
	Delay   float64
}

// Components maps every component type to its registered id. One
// instance is shared by all systems and the session coordinator.
type Components struct {
	Position      ecs.ComponentID
	Velocity      ecs.ComponentID
	Stats         ecs.ComponentID
	CombatState   ecs.ComponentID
	Cooldowns     ecs.ComponentID
	StatusEffects ecs.ComponentID
	Identity      ecs.ComponentID
	Sprite        ecs.ComponentID
	Player        ecs.ComponentID
	Inventory     ecs.ComponentID
	GroundItem    ecs.ComponentID
	Loot          ecs.ComponentID
	AI            ecs.ComponentID
	Vision        ecs.ComponentID
	Lifetime      ecs.ComponentID
	Dead          ecs.ComponentID
	Respawn       ecs.ComponentID
}

// RegisterComponents registers every component type on the store and
// returns the id map. Dependency edges are declared here: combat state,
// inventory, and AI cannot exist without the components they read.
func RegisterComponents(w *ecs.World) *Components {
	c := &Components{}
	c.Position = w.RegisterComponent("position")
	c.Velocity = w.RegisterComponent("velocity")
	c.Stats = w.RegisterComponent("stats")
	c.CombatState = w.RegisterComponent("combat_state", c.Stats)
	c.Cooldowns = w.RegisterComponent("cooldowns")
	c.StatusEffects = w.RegisterComponent("status_effects")
	c.Identity = w.RegisterComponent("identity")
	c.Sprite = w.RegisterComponent("sprite")
	c.Player = w.RegisterComponent("player")
	c.Inventory = w.RegisterComponent("inventory", c.Stats)
	c.GroundItem = w.RegisterComponent("ground_item")
	c.Loot = w.RegisterComponent("loot")
	c.AI = w.RegisterComponent("ai", c.Position, c.Stats, c.CombatState)
	c.Vision = w.RegisterComponent("vision")
	c.Lifetime = w.RegisterComponent("lifetime")
	c.Dead = w.RegisterComponent("dead")
	c.Respawn = w.RegisterComponent("respawn")
	return c
}

// PositionLookup adapts the store into the spatial grid's exact-query
// callback.
func PositionLookup(w *ecs.World, c *Components) func(e ecs.Entity) (x, y, z float64, ok bool) {
	return func(e ecs.Entity) (float64, float64, float64, bool) {
		pos, ok := ecs.Get[*Position](w, e, c.Position)
		if !ok {
			return 0, 0, 0, false
		}
		return pos.X, pos.Y, pos.Z, true
	}
}
