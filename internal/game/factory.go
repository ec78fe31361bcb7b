package game

import (
	"math"
	"math/rand"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
	"github.com/gaiasync/gaiasync/internal/persistence"
)

const (
	playerSaveInterval = 60.0
	playerRespawnDelay = 5.0
	playerVisionRadius = 20

	npcDecisionInterval = 0.5
)

// NPCTemplate describes one spawnable NPC kind.
type NPCTemplate struct {
	Name        string
	Char        string
	Color       string
	Description string

	Level       int
	HP          int
	AttackPower int
	MoveSpeed   float64

	Faction     Faction
	State       AIState
	AggroRadius float64
	ChaseRadius float64
	AttackRange float64

	Loot *Loot
}

var enemyTemplates = map[string]NPCTemplate{
	"goblin": {
		Name: "Goblin", Char: "g", Color: "#228b22",
		Description: "A hostile goblin.",
		Level:       1, HP: 30, AttackPower: 5, MoveSpeed: 3.5,
		Faction: FactionHostile, State: StateWandering,
		AggroRadius: 10.0, ChaseRadius: 20.0, AttackRange: 1.5,
		Loot: &Loot{Possible: map[string]float64{"goblin_ear": 0.5, "health_potion": 0.1}},
	},
	"wolf": {
		Name: "Wolf", Char: "w", Color: "#808080",
		Description: "A hostile wolf.",
		Level:       1, HP: 25, AttackPower: 7, MoveSpeed: 3.5,
		Faction: FactionHostile, State: StateWandering,
		AggroRadius: 10.0, ChaseRadius: 20.0, AttackRange: 1.5,
		Loot: &Loot{Possible: map[string]float64{"bone": 0.7}},
	},
	"orc": {
		Name: "Orc", Char: "O", Color: "#556b2f",
		Description: "A hostile orc.",
		Level:       3, HP: 60, AttackPower: 12, MoveSpeed: 3.5,
		Faction: FactionHostile, State: StateWandering,
		AggroRadius: 10.0, ChaseRadius: 20.0, AttackRange: 1.5,
		Loot: &Loot{Possible: map[string]float64{"rusty_sword": 0.2, "health_potion": 0.3}},
	},
	"skeleton": {
		Name: "Skeleton", Char: "s", Color: "#f5f5dc",
		Description: "A hostile skeleton.",
		Level:       2, HP: 35, AttackPower: 8, MoveSpeed: 3.5,
		Faction: FactionHostile, State: StateWandering,
		AggroRadius: 10.0, ChaseRadius: 20.0, AttackRange: 1.5,
		Loot: &Loot{Guaranteed: []string{"bone"}, Possible: map[string]float64{"iron_helm": 0.1}},
	},
}

// EnemyTemplate looks up a spawnable enemy kind by id.
func EnemyTemplate(id string) (NPCTemplate, bool) {
	tpl, ok := enemyTemplates[id]
	return tpl, ok
}

// SpawnPlayer creates a fresh level-1 player entity at the given
// position and indexes it in the grid.
func SpawnPlayer(w *ecs.World, c *Components, grid *spatial.Grid, accountID uint64, name string, x, y, z float64) (ecs.Entity, error) {
	e := w.CreateEntity()
	stats := NewPlayerStats()

	err := addAll(w, e, []componentValue{
		{c.Position, &Position{X: x, Y: y, Z: z}},
		{c.Velocity, &Velocity{}},
		{c.Stats, &stats},
		{c.CombatState, &CombatState{HP: float64(stats.MaxHP), MP: float64(stats.MaxMP)}},
		{c.Cooldowns, &Cooldowns{}},
		{c.StatusEffects, &StatusEffects{}},
		{c.Player, &Player{AccountID: accountID, CharacterName: name, SaveInterval: playerSaveInterval}},
		{c.Sprite, &Sprite{Char: "@", Color: "#ffff00"}},
		{c.Identity, &Identity{Kind: KindPlayer, Name: name, Description: "A brave adventurer"}},
		{c.Vision, &Vision{Radius: playerVisionRadius}},
		{c.Inventory, NewInventory()},
		{c.Respawn, &Respawn{X: x, Y: y, Z: z, Delay: playerRespawnDelay}},
	})
	if err != nil {
		w.DestroyEntity(e)
		return ecs.Nil, err
	}

	grid.Insert(e, x, y, z)
	return e, nil
}

// SpawnPlayerFromCharacter recreates a player entity from a saved
// character. A character that was saved dead comes back at the default
// spawn point with full vitals; everything else resumes where it left
// off.
func SpawnPlayerFromCharacter(w *ecs.World, c *Components, grid *spatial.Grid, ch persistence.Character, spawnX, spawnY, spawnZ float64) (ecs.Entity, error) {
	x, y, z := ch.X, ch.Y, ch.Z
	hp, mp := float64(ch.HP), float64(ch.MP)
	if ch.HP <= 0 {
		x, y, z = spawnX, spawnY, spawnZ
		hp, mp = float64(ch.MaxHP), float64(ch.MaxMP)
	}

	e := w.CreateEntity()
	stats := Stats{
		Strength:     ch.Strength,
		Dexterity:    ch.Dexterity,
		Constitution: ch.Constitution,
		Intelligence: ch.Intelligence,
		Wisdom:       ch.Wisdom,
		Charisma:     ch.Charisma,

		MaxHP:       ch.MaxHP,
		MaxMP:       ch.MaxMP,
		Armor:       ch.Armor,
		AttackPower: ch.AttackPower,

		HPRegenPerSec: 0.1,
		MPRegenPerSec: 0.2,
		MoveSpeed:     5.0,
		AttackSpeed:   1.0,

		Level:            ch.Level,
		Experience:       ch.Experience,
		ExperienceToNext: ch.ExperienceToNext,
	}

	err := addAll(w, e, []componentValue{
		{c.Position, &Position{X: x, Y: y, Z: z}},
		{c.Velocity, &Velocity{}},
		{c.Stats, &stats},
		{c.CombatState, &CombatState{HP: hp, MP: mp}},
		{c.Cooldowns, &Cooldowns{}},
		{c.StatusEffects, &StatusEffects{}},
		{c.Player, &Player{AccountID: ch.AccountID, CharacterName: ch.Name, SaveInterval: playerSaveInterval}},
		{c.Sprite, &Sprite{Char: "@", Color: "#ffff00"}},
		{c.Identity, &Identity{Kind: KindPlayer, Name: ch.Name, Description: "A brave adventurer"}},
		{c.Vision, &Vision{Radius: playerVisionRadius}},
		{c.Inventory, NewInventory()},
		{c.Respawn, &Respawn{X: spawnX, Y: spawnY, Z: spawnZ, Delay: playerRespawnDelay}},
	})
	if err != nil {
		w.DestroyEntity(e)
		return ecs.Nil, err
	}

	grid.Insert(e, x, y, z)
	return e, nil
}

// SpawnNPC creates an NPC entity from a template at the given position.
func SpawnNPC(w *ecs.World, c *Components, grid *spatial.Grid, tpl NPCTemplate, x, y, z float64) (ecs.Entity, error) {
	e := w.CreateEntity()
	stats := newNPCStats(tpl.Level, tpl.HP, tpl.AttackPower, tpl.MoveSpeed)

	values := []componentValue{
		{c.Position, &Position{X: x, Y: y, Z: z}},
		{c.Velocity, &Velocity{}},
		{c.Stats, &stats},
		{c.CombatState, &CombatState{HP: float64(tpl.HP)}},
		{c.Cooldowns, &Cooldowns{}},
		{c.Sprite, &Sprite{Char: tpl.Char, Color: tpl.Color}},
		{c.Identity, &Identity{Kind: KindNPC, Name: tpl.Name, Description: tpl.Description}},
		{c.AI, &AI{
			State:            tpl.State,
			Faction:          tpl.Faction,
			AggroRadius:      tpl.AggroRadius,
			ChaseRadius:      tpl.ChaseRadius,
			AttackRange:      tpl.AttackRange,
			SpawnX:           x,
			SpawnY:           y,
			SpawnZ:           z,
			DecisionInterval: npcDecisionInterval,
		}},
	}
	if tpl.Loot != nil {
		loot := &Loot{Guaranteed: append([]string(nil), tpl.Loot.Guaranteed...)}
		if len(tpl.Loot.Possible) > 0 {
			loot.Possible = make(map[string]float64, len(tpl.Loot.Possible))
			for id, chance := range tpl.Loot.Possible {
				loot.Possible[id] = chance
			}
		}
		values = append(values, componentValue{c.Loot, loot})
	}

	if err := addAll(w, e, values); err != nil {
		w.DestroyEntity(e)
		return ecs.Nil, err
	}

	grid.Insert(e, x, y, z)
	return e, nil
}

// SpawnFriendlyNPC creates a non-aggressive town NPC.
func SpawnFriendlyNPC(w *ecs.World, c *Components, grid *spatial.Grid, name, char, color, description string, x, y, z float64) (ecs.Entity, error) {
	return SpawnNPC(w, c, grid, NPCTemplate{
		Name: name, Char: char, Color: color, Description: description,
		Level: 1, HP: 100, AttackPower: 5, MoveSpeed: 3.0,
		Faction: FactionFriendly, State: StateIdle,
		AggroRadius: 0, ChaseRadius: 0, AttackRange: 1.5,
	}, x, y, z)
}

// SpawnGroundItem places an item on the ground as its own entity.
func SpawnGroundItem(w *ecs.World, c *Components, grid *spatial.Grid, item Item, x, y, z float64) (ecs.Entity, error) {
	e := w.CreateEntity()
	err := addAll(w, e, []componentValue{
		{c.Position, &Position{X: x, Y: y, Z: z}},
		{c.Sprite, &Sprite{Char: item.Char, Color: item.Color}},
		{c.Identity, &Identity{Kind: KindItem, Name: item.Name}},
		{c.GroundItem, &GroundItem{Item: item}},
	})
	if err != nil {
		w.DestroyEntity(e)
		return ecs.Nil, err
	}

	grid.Insert(e, x, y, z)
	return e, nil
}

// SeedStarterField populates the starter area: four townsfolk, enemy
// packs in the wilderness, and a couple of pickups near town. Enemy
// positions are rolled from rng, skipping unwalkable tiles.
func SeedStarterField(w *ecs.World, c *Components, grid *spatial.Grid, oracle TerrainOracle, rng *rand.Rand) ([]ecs.Entity, error) {
	var spawned []ecs.Entity

	townsfolk := []struct {
		x, y                    float64
		name, char, color, desc string
	}{
		{5, 5, "Merchant", "M", "#00ff00", "A traveling merchant."},
		{12, 5, "Innkeeper", "I", "#00ff00", "The friendly innkeeper."},
		{5, 13, "Blacksmith", "B", "#00ff00", "A skilled blacksmith."},
		{8, 10, "Elder", "E", "#00ffff", "The village elder."},
	}
	for _, npc := range townsfolk {
		e, err := SpawnFriendlyNPC(w, c, grid, npc.name, npc.char, npc.color, npc.desc, npc.x, npc.y, 0)
		if err != nil {
			return spawned, err
		}
		spawned = append(spawned, e)
	}

	zones := []struct {
		x, y, radius float64
		enemy        string
	}{
		{18, 18, 10, "goblin"},
		{48, 16, 8, "wolf"},
		{32, 32, 8, "orc"},
		{32, 50, 6, "skeleton"},
		{50, 50, 8, "goblin"},
	}
	for _, zone := range zones {
		tpl := enemyTemplates[zone.enemy]
		count := 3 + rng.Intn(4)
		for i := 0; i < count; i++ {
			x, y := rollZonePosition(rng, zone.x, zone.y, zone.radius)
			if oracle != nil && !oracle.IsWalkable(int(x), int(y), 0) {
				continue
			}
			e, err := SpawnNPC(w, c, grid, tpl, x, y, 0)
			if err != nil {
				return spawned, err
			}
			spawned = append(spawned, e)
		}
	}

	pickups := []struct {
		x, y     float64
		template string
	}{
		{10, 12, "health_potion"},
		{6, 10, "rusty_sword"},
	}
	for _, p := range pickups {
		item, ok := NewItem(p.template, 1)
		if !ok {
			continue
		}
		e, err := SpawnGroundItem(w, c, grid, item, p.x, p.y, 0)
		if err != nil {
			return spawned, err
		}
		spawned = append(spawned, e)
	}

	return spawned, nil
}

func rollZonePosition(rng *rand.Rand, cx, cy, radius float64) (float64, float64) {
	angle := rng.Float64() * 2 * math.Pi
	dist := rng.Float64() * radius
	x := clamp(math.Floor(cx+dist*math.Cos(angle)), 2, 61)
	y := clamp(math.Floor(cy+dist*math.Sin(angle)), 2, 61)
	return x, y
}

type componentValue struct {
	id    ecs.ComponentID
	value any
}

func addAll(w *ecs.World, e ecs.Entity, values []componentValue) error {
	for _, cv := range values {
		if err := w.AddComponent(e, cv.id, cv.value); err != nil {
			return err
		}
	}
	return nil
}
