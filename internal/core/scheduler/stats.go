package scheduler

import (
	"sync"
	"time"
)

// TickStats records one completed tick.
type TickStats struct {
	Number      uint64
	Start       time.Time
	Duration    time.Duration
	Target      time.Duration
	SystemTimes map[string]time.Duration
	Entities    int
}

// Overran reports whether the tick took longer than its budget.
func (ts TickStats) Overran() bool {
	return ts.Target > 0 && ts.Duration > ts.Target
}

// Efficiency is the fraction of the tick budget consumed; values above
// 1.0 mean the tick overran.
func (ts TickStats) Efficiency() float64 {
	if ts.Target <= 0 {
		return 0
	}
	return float64(ts.Duration) / float64(ts.Target)
}

// Monitor keeps a bounded ring of recent tick stats plus lifetime
// counters. It is observational only; the loop never consults it.
type Monitor struct {
	mu       sync.Mutex
	history  []TickStats
	next     int
	count    int
	ticks    uint64
	overruns uint64
}

const defaultMonitorCapacity = 100

// NewMonitor returns a monitor keeping the last capacity ticks, or the
// default of 100 when capacity is not positive.
func NewMonitor(capacity int) *Monitor {
	if capacity <= 0 {
		capacity = defaultMonitorCapacity
	}
	return &Monitor{history: make([]TickStats, capacity)}
}

// Record adds one tick to the ring, evicting the oldest entry when full.
func (m *Monitor) Record(ts TickStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history[m.next] = ts
	m.next = (m.next + 1) % len(m.history)
	if m.count < len(m.history) {
		m.count++
	}
	m.ticks++
	if ts.Overran() {
		m.overruns++
	}
}

// recent returns the retained ticks oldest first. Caller holds mu.
func (m *Monitor) recent() []TickStats {
	out := make([]TickStats, 0, m.count)
	start := m.next - m.count
	if start < 0 {
		start += len(m.history)
	}
	for i := 0; i < m.count; i++ {
		out = append(out, m.history[(start+i)%len(m.history)])
	}
	return out
}

// Report is a rolled-up view of recent loop health.
type Report struct {
	Ticks           uint64
	Overruns        uint64
	OverrunRate     float64
	AvgTickDuration time.Duration
	TicksPerSecond  float64
	SystemAverages  map[string]time.Duration
}

// Report summarizes the retained window and lifetime counters.
func (m *Monitor) Report() Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := Report{
		Ticks:          m.ticks,
		Overruns:       m.overruns,
		SystemAverages: make(map[string]time.Duration),
	}
	if m.ticks > 0 {
		r.OverrunRate = float64(m.overruns) / float64(m.ticks)
	}

	window := m.recent()
	if len(window) == 0 {
		return r
	}

	var total time.Duration
	sums := make(map[string]time.Duration)
	counts := make(map[string]int)
	for _, ts := range window {
		total += ts.Duration
		for name, d := range ts.SystemTimes {
			sums[name] += d
			counts[name]++
		}
	}
	r.AvgTickDuration = total / time.Duration(len(window))
	for name, sum := range sums {
		r.SystemAverages[name] = sum / time.Duration(counts[name])
	}

	// Effective rate over the window, sleep included.
	if len(window) >= 2 {
		span := window[len(window)-1].Start.Sub(window[0].Start)
		if span > 0 {
			r.TicksPerSecond = float64(len(window)-1) / span.Seconds()
		}
	}
	return r
}

// Len returns the number of retained ticks.
func (m *Monitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
