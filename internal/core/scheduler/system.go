// Package scheduler runs the simulation: an ordered set of systems
// stepped at a fixed timestep by a single loop goroutine, with per-tick
// timing collected for monitoring.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

// System is one unit of per-tick simulation work. Update receives the
// fixed timestep in seconds and the store it operates on.
type System interface {
	Update(dt float64, w *ecs.World)
}

// SystemFunc adapts a plain function to the System interface.
type SystemFunc func(dt float64, w *ecs.World)

// Update implements System.
func (f SystemFunc) Update(dt float64, w *ecs.World) {
	f(dt, w)
}

type systemEntry struct {
	name     string
	priority int
	system   System
	enabled  bool

	lastDuration  time.Duration
	totalDuration time.Duration
	runs          uint64
}

// Scheduler holds registered systems sorted by descending priority, with
// registration order breaking ties. Systems run strictly sequentially
// within a tick.
type Scheduler struct {
	mu      sync.Mutex
	entries []*systemEntry
	byName  map[string]*systemEntry
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{byName: make(map[string]*systemEntry)}
}

// Add registers a system under a unique name. Higher priority runs
// earlier; equal priorities keep registration order.
func (s *Scheduler) Add(name string, priority int, system System) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; ok {
		return ErrSystemExists
	}
	entry := &systemEntry{
		name:     name,
		priority: priority,
		system:   system,
		enabled:  true,
	}
	s.entries = append(s.entries, entry)
	s.byName[name] = entry
	sort.SliceStable(s.entries, func(i, j int) bool {
		return s.entries[i].priority > s.entries[j].priority
	})
	return nil
}

// Remove unregisters a system by name.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; !ok {
		return ErrSystemNotFound
	}
	delete(s.byName, name)
	for i, entry := range s.entries {
		if entry.name == name {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return nil
}

// SetEnabled toggles a system without unregistering it. A disabled system
// keeps its slot in the run order.
func (s *Scheduler) SetEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.byName[name]
	if !ok {
		return ErrSystemNotFound
	}
	entry.enabled = enabled
	return nil
}

// Order returns the system names in run order, including disabled ones.
func (s *Scheduler) Order() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.entries))
	for i, entry := range s.entries {
		out[i] = entry.name
	}
	return out
}

// RunTick updates every enabled system in priority order and returns the
// wall time each one took.
func (s *Scheduler) RunTick(dt float64, w *ecs.World) map[string]time.Duration {
	s.mu.Lock()
	snapshot := make([]*systemEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.enabled {
			snapshot = append(snapshot, entry)
		}
	}
	s.mu.Unlock()

	times := make(map[string]time.Duration, len(snapshot))
	for _, entry := range snapshot {
		start := time.Now()
		entry.system.Update(dt, w)
		elapsed := time.Since(start)
		times[entry.name] = elapsed

		s.mu.Lock()
		entry.lastDuration = elapsed
		entry.totalDuration += elapsed
		entry.runs++
		s.mu.Unlock()
	}
	return times
}
