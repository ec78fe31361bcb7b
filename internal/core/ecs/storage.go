package ecs

// storage holds every instance of a single component type in dense slices.
// Iteration order is insertion order until a remove, which swaps the last
// element into the vacated slot.
type storage struct {
	entities []Entity
	values   []any
	index    map[Entity]int
}

func newStorage() *storage {
	return &storage{index: make(map[Entity]int)}
}

func (s *storage) add(e Entity, value any) {
	if i, ok := s.index[e]; ok {
		s.values[i] = value
		return
	}
	s.index[e] = len(s.entities)
	s.entities = append(s.entities, e)
	s.values = append(s.values, value)
}

func (s *storage) remove(e Entity) bool {
	i, ok := s.index[e]
	if !ok {
		return false
	}
	last := len(s.entities) - 1
	if i != last {
		s.entities[i] = s.entities[last]
		s.values[i] = s.values[last]
		s.index[s.entities[i]] = i
	}
	s.entities = s.entities[:last]
	s.values = s.values[:last]
	delete(s.index, e)
	return true
}

func (s *storage) get(e Entity) (any, bool) {
	i, ok := s.index[e]
	if !ok {
		return nil, false
	}
	return s.values[i], true
}

func (s *storage) has(e Entity) bool {
	_, ok := s.index[e]
	return ok
}

func (s *storage) len() int {
	return len(s.entities)
}
