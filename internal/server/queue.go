package server

import (
	"sync"
	"time"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

// Action verbs accepted from clients.
const (
	actionMove     = "move"
	actionAttack   = "attack"
	actionInteract = "interact"
	actionPickup   = "pickup"
)

// playerAction is one queued gameplay command.
type playerAction struct {
	entity ecs.Entity
	verb   string
	data   map[string]any
	queued time.Time
}

// actionQueue collects gameplay commands from network goroutines. The
// simulation drains it exactly once per tick with a swap, so appends
// during a drain land in the next tick.
type actionQueue struct {
	mu      sync.Mutex
	pending []playerAction
}

func (q *actionQueue) Push(a playerAction) {
	q.mu.Lock()
	q.pending = append(q.pending, a)
	q.mu.Unlock()
}

func (q *actionQueue) Drain() []playerAction {
	q.mu.Lock()
	actions := q.pending
	q.pending = nil
	q.mu.Unlock()
	return actions
}

func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// taskQueue carries lifecycle work that must run on the simulation
// goroutine: login spawns, teardowns, snapshot requests. Same drain
// discipline as the action queue.
type taskQueue struct {
	mu      sync.Mutex
	pending []func()
}

func (q *taskQueue) Push(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

func (q *taskQueue) Drain() []func() {
	q.mu.Lock()
	tasks := q.pending
	q.pending = nil
	q.mu.Unlock()
	return tasks
}
