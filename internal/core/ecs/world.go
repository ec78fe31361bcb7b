// Package ecs implements the entity-component store at the heart of the
// simulation. Entities are bare ids, components are plain values held in
// dense per-type storages, and all behavior lives in systems that query
// the store each tick.
//
// The store is not goroutine safe. The simulation owns it and touches it
// from the tick goroutine only; everything else goes through the action
// queue.
package ecs

// ComponentID identifies a registered component type. IDs are dense and
// assigned in registration order.
type ComponentID uint32

// QueryResult is one entity matched by a Query, with component values in
// the same order as the requested ids.
type QueryResult struct {
	Entity Entity
	Values []any
}

// World owns entities, component storages, and the dependency rules
// between component types.
type World struct {
	pool     entityPool
	storages []*storage
	deps     [][]ComponentID
	byName   map[string]ComponentID
	names    []string
}

// NewWorld returns an empty store with no registered component types.
func NewWorld() *World {
	return &World{
		pool:   newEntityPool(),
		byName: make(map[string]ComponentID),
	}
}

// RegisterComponent adds a component type under a unique name, optionally
// declaring types that must already be present on an entity before this
// one can be attached. Registering the same name twice returns the
// existing id and leaves its dependencies untouched.
func (w *World) RegisterComponent(name string, deps ...ComponentID) ComponentID {
	if id, ok := w.byName[name]; ok {
		return id
	}
	id := ComponentID(len(w.storages))
	w.storages = append(w.storages, newStorage())
	w.deps = append(w.deps, deps)
	w.byName[name] = id
	w.names = append(w.names, name)
	return id
}

// ComponentName returns the name a component type was registered under.
func (w *World) ComponentName(id ComponentID) string {
	if int(id) >= len(w.names) {
		return ""
	}
	return w.names[id]
}

// CreateEntity allocates a live entity id. Ids released by DestroyEntity
// are recycled before new ones are minted.
func (w *World) CreateEntity() Entity {
	return w.pool.acquire()
}

// DestroyEntity removes every component attached to the entity and
// releases its id for reuse. Destroying a dead entity is a no-op.
func (w *World) DestroyEntity(e Entity) {
	if !w.pool.isActive(e) {
		return
	}
	for _, s := range w.storages {
		s.remove(e)
	}
	w.pool.release(e)
}

// IsAlive reports whether the entity id is currently allocated.
func (w *World) IsAlive(e Entity) bool {
	return w.pool.isActive(e)
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return w.pool.count()
}

// AddComponent attaches a component value to an entity, replacing any
// previous value of the same type. It fails if the entity is dead or if
// a declared dependency of the type is not present on the entity.
func (w *World) AddComponent(e Entity, id ComponentID, value any) error {
	if !w.pool.isActive(e) {
		return ErrUnknownEntity
	}
	if int(id) >= len(w.storages) {
		return ErrUnknownComponent
	}
	for _, dep := range w.deps[id] {
		if !w.storages[dep].has(e) {
			return &DependencyError{Component: w.names[id], Dependency: w.names[dep]}
		}
	}
	w.storages[id].add(e, value)
	return nil
}

// RemoveComponent detaches a component from an entity. It fails if another
// component on the entity declares this type as a dependency; the check
// runs whether or not the component is actually present. The bool reports
// whether a value was removed.
func (w *World) RemoveComponent(e Entity, id ComponentID) (bool, error) {
	if int(id) >= len(w.storages) {
		return false, ErrUnknownComponent
	}
	for other, deps := range w.deps {
		for _, dep := range deps {
			if dep == id && w.storages[other].has(e) {
				return false, &DependencyError{
					Component:  w.names[other],
					Dependency: w.names[id],
					Removal:    true,
				}
			}
		}
	}
	return w.storages[id].remove(e), nil
}

// Component returns the value of a component on an entity.
func (w *World) Component(e Entity, id ComponentID) (any, bool) {
	if int(id) >= len(w.storages) {
		return nil, false
	}
	return w.storages[id].get(e)
}

// HasComponent reports whether the entity carries the component type.
func (w *World) HasComponent(e Entity, id ComponentID) bool {
	if int(id) >= len(w.storages) {
		return false
	}
	return w.storages[id].has(e)
}

// Query returns every live entity that carries all of the given component
// types. It scans the first type's storage in insertion order, so callers
// should put the rarest type first. The order is not stable across
// removals. A query with no ids returns nil.
func (w *World) Query(ids ...ComponentID) []QueryResult {
	if len(ids) == 0 {
		return nil
	}
	for _, id := range ids {
		if int(id) >= len(w.storages) {
			return nil
		}
	}
	first := w.storages[ids[0]]
	var out []QueryResult
outer:
	for i, e := range first.entities {
		values := make([]any, len(ids))
		values[0] = first.values[i]
		for j, id := range ids[1:] {
			v, ok := w.storages[id].get(e)
			if !ok {
				continue outer
			}
			values[j+1] = v
		}
		out = append(out, QueryResult{Entity: e, Values: values})
	}
	return out
}

// Clear destroys every entity and empties all storages. Registered
// component types and their dependencies survive.
func (w *World) Clear() {
	for _, s := range w.storages {
		s.entities = s.entities[:0]
		s.values = s.values[:0]
		s.index = make(map[Entity]int)
	}
	w.pool = newEntityPool()
}

// Stats is a point-in-time summary of store occupancy.
type Stats struct {
	Entities       int
	RecycledIDs    int
	ComponentTypes int
	Components     map[string]int
}

// Stats reports entity and per-type component counts.
func (w *World) Stats() Stats {
	st := Stats{
		Entities:       w.pool.count(),
		RecycledIDs:    len(w.pool.available),
		ComponentTypes: len(w.storages),
		Components:     make(map[string]int, len(w.storages)),
	}
	for id, s := range w.storages {
		st.Components[w.names[id]] = s.len()
	}
	return st
}

// Get fetches a typed component value from the store. The second return
// is false when the entity lacks the component or the stored value has a
// different type.
func Get[T any](w *World, e Entity, id ComponentID) (T, bool) {
	v, ok := w.Component(e, id)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
