package game

import "github.com/gaiasync/gaiasync/internal/core/ecs"

// Event is one tick-scoped gameplay event. Kind matches the wire type
// naming; Payload is the event's wire data.
type Event interface {
	Kind() string
	Payload() map[string]any
}

// DamageEvent records damage landing on an entity.
type DamageEvent struct {
	Target     ecs.Entity
	Source     ecs.Entity
	Amount     int
	DamageKind DamageKind
	CurrentHP  int
	MaxHP      int
}

func (e DamageEvent) Kind() string { return "damage_event" }

func (e DamageEvent) Payload() map[string]any {
	return map[string]any{
		"target_id":   uint64(e.Target),
		"source_id":   uint64(e.Source),
		"amount":      e.Amount,
		"damage_type": string(e.DamageKind),
		"current_hp":  e.CurrentHP,
		"max_hp":      e.MaxHP,
	}
}

// DeathEvent records an entity dying.
type DeathEvent struct {
	Entity     ecs.Entity
	Killer     ecs.Entity
	EntityName string
	KillerName string
}

func (e DeathEvent) Kind() string { return "death_event" }

func (e DeathEvent) Payload() map[string]any {
	return map[string]any{
		"entity_id":   uint64(e.Entity),
		"killer_id":   uint64(e.Killer),
		"entity_name": e.EntityName,
		"killer_name": e.KillerName,
	}
}

// LevelUpEvent records a level gained.
type LevelUpEvent struct {
	Entity    ecs.Entity
	NewLevel  int
	StatGains map[string]int
}

func (e LevelUpEvent) Kind() string { return "level_up_event" }

func (e LevelUpEvent) Payload() map[string]any {
	return map[string]any{
		"entity_id":  uint64(e.Entity),
		"new_level":  e.NewLevel,
		"stat_gains": e.StatGains,
	}
}

// DespawnEvent records an entity leaving the world mid-tick, so the
// coordinator can tell clients.
type DespawnEvent struct {
	Entity ecs.Entity
}

func (e DespawnEvent) Kind() string { return "entity_despawn" }

func (e DespawnEvent) Payload() map[string]any {
	return map[string]any{
		"entity_id": uint64(e.Entity),
	}
}

// WirePayload flattens an event into the map embedded in delta
// broadcasts: the event payload plus its type tag.
func WirePayload(e Event) map[string]any {
	m := e.Payload()
	m["type"] = e.Kind()
	return m
}

// Sink collects events emitted by systems during one tick. It is owned
// by the tick goroutine: systems emit while running, the coordinator
// drains at tick end. No locking.
type Sink struct {
	events []Event
}

// NewSink returns an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Emit appends an event.
func (s *Sink) Emit(e Event) {
	s.events = append(s.events, e)
}

// Drain returns all collected events and resets the sink.
func (s *Sink) Drain() []Event {
	out := s.events
	s.events = nil
	return out
}

// Len reports how many events are pending.
func (s *Sink) Len() int {
	return len(s.events)
}
