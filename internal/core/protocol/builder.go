package protocol

import (
	"sync/atomic"
	"time"
)

// TileData is the wire form of one terrain tile, keyed by "x,y,z" in the
// world_tiles and changed_tiles maps.
type TileData struct {
	Char     string `json:"char"`
	Color    string `json:"color"`
	Walkable bool   `json:"walkable"`
	Solid    bool   `json:"solid"`
}

// Builder constructs server-to-client messages. Each builder owns its
// message-id counter; ids are monotonic per builder, not per process.
type Builder struct {
	seq int64
	now func() time.Time
}

// NewBuilder returns a builder stamping real time.
func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderWithClock returns a builder with an injected clock.
func NewBuilderWithClock(now func() time.Time) *Builder {
	return &Builder{now: now}
}

func (b *Builder) message(msgType string, data map[string]any) *Message {
	return &Message{
		Type: msgType,
		ID:   atomic.AddInt64(&b.seq, 1),
		TS:   float64(b.now().UnixNano()) / 1e9,
		Data: data,
	}
}

// AuthSuccess announces a completed login with the player's entity id
// and spawn position.
func (b *Builder) AuthSuccess(playerID uint64, characterName string, x, y, z float64) *Message {
	return b.message(TypeAuthSuccess, map[string]any{
		"player_id":      playerID,
		"character_name": characterName,
		"spawn_x":        x,
		"spawn_y":        y,
		"spawn_z":        z,
	})
}

// AuthFailure rejects a login or register attempt.
func (b *Builder) AuthFailure(reason string) *Message {
	return b.message(TypeAuthFailure, map[string]any{
		"reason": reason,
	})
}

// GameState is the full snapshot sent on login and on request_state.
func (b *Builder) GameState(tick uint64, player map[string]any, entities []map[string]any, tiles map[string]TileData, messages []any) *Message {
	if entities == nil {
		entities = []map[string]any{}
	}
	if tiles == nil {
		tiles = map[string]TileData{}
	}
	if messages == nil {
		messages = []any{}
	}
	return b.message(TypeGameState, map[string]any{
		"tick":        tick,
		"player":      player,
		"entities":    entities,
		"world_tiles": tiles,
		"messages":    messages,
	})
}

// GameStateDelta is the per-tick update: every entity currently in the
// receiver's area of interest plus the tick's events.
func (b *Builder) GameStateDelta(tick uint64, changed []map[string]any, removed []uint64, changedTiles map[string]TileData, events []map[string]any) *Message {
	if changed == nil {
		changed = []map[string]any{}
	}
	if removed == nil {
		removed = []uint64{}
	}
	if changedTiles == nil {
		changedTiles = map[string]TileData{}
	}
	if events == nil {
		events = []map[string]any{}
	}
	return b.message(TypeGameStateDelta, map[string]any{
		"tick":             tick,
		"changed_entities": changed,
		"removed_entities": removed,
		"changed_tiles":    changedTiles,
		"events":           events,
	})
}

// EntitySpawn announces a new entity; data is the entity payload itself.
func (b *Builder) EntitySpawn(entity map[string]any) *Message {
	return b.message(TypeEntitySpawn, entity)
}

// EntityDespawn announces a removed entity.
func (b *Builder) EntityDespawn(entityID uint64) *Message {
	return b.message(TypeEntityDespawn, map[string]any{
		"entity_id": entityID,
	})
}

// DamageEvent reports damage applied to a target.
func (b *Builder) DamageEvent(targetID, sourceID uint64, amount float64, damageType string, currentHP, maxHP float64) *Message {
	return b.message(TypeDamageEvent, map[string]any{
		"target_id":   targetID,
		"source_id":   sourceID,
		"amount":      amount,
		"damage_type": damageType,
		"current_hp":  currentHP,
		"max_hp":      maxHP,
	})
}

// DeathEvent reports an entity killed by another.
func (b *Builder) DeathEvent(entityID, killerID uint64, entityName, killerName string) *Message {
	return b.message(TypeDeathEvent, map[string]any{
		"entity_id":   entityID,
		"killer_id":   killerID,
		"entity_name": entityName,
		"killer_name": killerName,
	})
}

// LevelUpEvent reports a level gained and the stat increases that came
// with it.
func (b *Builder) LevelUpEvent(entityID uint64, newLevel int, statGains map[string]int) *Message {
	if statGains == nil {
		statGains = map[string]int{}
	}
	return b.message(TypeLevelUpEvent, map[string]any{
		"entity_id":  entityID,
		"new_level":  newLevel,
		"stat_gains": statGains,
	})
}

// ChatReceive delivers a chat line to one recipient.
func (b *Builder) ChatReceive(senderID uint64, senderName, text, channel string, timestamp float64) *Message {
	return b.message(TypeChatReceive, map[string]any{
		"sender_id":   senderID,
		"sender_name": senderName,
		"message":     text,
		"channel":     channel,
		"timestamp":   timestamp,
	})
}

// SystemMessage delivers a server notice; level is info, warning or
// error.
func (b *Builder) SystemMessage(text, level string) *Message {
	return b.message(TypeSystemMessage, map[string]any{
		"message": text,
		"level":   level,
	})
}

// Pong answers a ping, echoing the client's timestamp next to ours.
func (b *Builder) Pong(clientTS float64) *Message {
	return b.message(TypePong, map[string]any{
		"client_ts": clientTS,
		"server_ts": float64(b.now().UnixNano()) / 1e9,
	})
}

// Error is the structured failure reply; the connection stays open.
func (b *Builder) Error(code, text string) *Message {
	return b.message(TypeError, map[string]any{
		"code":    code,
		"message": text,
	})
}
