package ecs

// Entity is an opaque identifier for a simulation object. It carries no
// data of its own; components attached through a World do.
type Entity uint64

// Nil is the reserved null entity. No live entity ever has this id.
const Nil Entity = 0

// entityPool hands out entity ids starting at 1 and recycles released ids
// before minting new ones.
type entityPool struct {
	next      Entity
	available []Entity
	active    map[Entity]struct{}
}

func newEntityPool() entityPool {
	return entityPool{
		next:   1,
		active: make(map[Entity]struct{}),
	}
}

func (p *entityPool) acquire() Entity {
	var e Entity
	if n := len(p.available); n > 0 {
		e = p.available[n-1]
		p.available = p.available[:n-1]
	} else {
		e = p.next
		p.next++
	}
	p.active[e] = struct{}{}
	return e
}

func (p *entityPool) release(e Entity) {
	if _, ok := p.active[e]; !ok {
		return
	}
	delete(p.active, e)
	p.available = append(p.available, e)
}

func (p *entityPool) isActive(e Entity) bool {
	_, ok := p.active[e]
	return ok
}

func (p *entityPool) count() int {
	return len(p.active)
}
