package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/observability/log"
)

// State is the loop lifecycle state.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Hook runs at a fixed point of every tick. A panicking hook is recovered
// and logged; it never aborts the tick.
type Hook func(tick uint64)

// DefaultTickRate is the simulation rate when none is configured.
const DefaultTickRate = 20

// overrunFactor is the multiple of the tick budget past which the loop
// logs a breakdown of where the time went.
const overrunFactor = 1.5

// Loop steps the scheduler at a fixed timestep on one dedicated
// goroutine. Ticks are never skipped: after an overrun the loop free-runs
// until it catches up.
type Loop struct {
	world     *ecs.World
	scheduler *Scheduler
	target    time.Duration
	logger    log.Log
	monitor   *Monitor

	state    int32
	tick     uint64
	stopChan chan struct{}
	doneChan chan struct{}

	hookMu     sync.Mutex
	startHooks []Hook
	endHooks   []Hook
}

// NewLoop builds a loop over the given store and scheduler. target is the
// tick budget; non-positive values fall back to DefaultTickRate.
func NewLoop(world *ecs.World, sched *Scheduler, target time.Duration, logger log.Log) *Loop {
	if target <= 0 {
		target = time.Second / DefaultTickRate
	}
	return &Loop{
		world:     world,
		scheduler: sched,
		target:    target,
		logger:    logger.With(log.String("component", "loop")),
		monitor:   NewMonitor(defaultMonitorCapacity),
	}
}

// Monitor exposes the loop's tick history.
func (l *Loop) Monitor() *Monitor {
	return l.monitor
}

// SetMonitorCapacity replaces the monitor with one retaining n ticks.
// Call before Start; the running loop records into the monitor without
// locking.
func (l *Loop) SetMonitorCapacity(n int) {
	l.monitor = NewMonitor(n)
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	return State(atomic.LoadInt32(&l.state))
}

// CurrentTick returns the number of the most recently started tick.
func (l *Loop) CurrentTick() uint64 {
	return atomic.LoadUint64(&l.tick)
}

// Target returns the configured tick budget.
func (l *Loop) Target() time.Duration {
	return l.target
}

// OnTickStart registers a hook that runs before the systems each tick.
func (l *Loop) OnTickStart(h Hook) {
	l.hookMu.Lock()
	defer l.hookMu.Unlock()
	l.startHooks = append(l.startHooks, h)
}

// OnTickEnd registers a hook that runs after the systems each tick.
func (l *Loop) OnTickEnd(h Hook) {
	l.hookMu.Lock()
	defer l.hookMu.Unlock()
	l.endHooks = append(l.endHooks, h)
}

// Start launches the loop goroutine. Only a stopped loop can start.
func (l *Loop) Start() error {
	if !atomic.CompareAndSwapInt32(&l.state, int32(StateStopped), int32(StateStarting)) {
		return ErrLoopAlreadyRunning
	}

	l.stopChan = make(chan struct{})
	l.doneChan = make(chan struct{})

	l.logger.Info("Loop starting",
		log.Duration("target", l.target),
		log.Int("systems", len(l.scheduler.Order())))

	go l.run()
	atomic.StoreInt32(&l.state, int32(StateRunning))
	return nil
}

// Stop signals the loop and waits for the in-flight tick to finish. Only
// a running loop can stop.
func (l *Loop) Stop() error {
	if !atomic.CompareAndSwapInt32(&l.state, int32(StateRunning), int32(StateStopping)) {
		return ErrLoopNotRunning
	}

	close(l.stopChan)
	<-l.doneChan
	atomic.StoreInt32(&l.state, int32(StateStopped))

	l.logger.Info("Loop stopped", log.Uint64("ticks", atomic.LoadUint64(&l.tick)))
	return nil
}

func (l *Loop) run() {
	defer close(l.doneChan)

	dt := l.target.Seconds()
	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		start := time.Now()
		tick := atomic.AddUint64(&l.tick, 1)

		stats := l.runTick(tick, start, dt)
		l.monitor.Record(stats)

		if stats.Duration > time.Duration(float64(l.target)*overrunFactor) {
			l.logger.Error("Tick overran budget",
				log.Uint64("tick", tick),
				log.Duration("duration", stats.Duration),
				log.Duration("target", l.target),
				log.Any("system_times", stats.SystemTimes))
		}

		sleep := l.target - time.Since(start)
		if sleep <= 0 {
			continue
		}
		select {
		case <-l.stopChan:
			return
		case <-time.After(sleep):
		}
	}
}

func (l *Loop) runTick(tick uint64, start time.Time, dt float64) (stats TickStats) {
	stats = TickStats{Number: tick, Start: start, Target: l.target}
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Tick panicked",
				log.Uint64("tick", tick),
				log.Any("panic", r))
		}
		stats.Duration = time.Since(start)
		stats.Entities = l.world.EntityCount()
	}()

	l.hookMu.Lock()
	startHooks := append([]Hook(nil), l.startHooks...)
	endHooks := append([]Hook(nil), l.endHooks...)
	l.hookMu.Unlock()

	for _, h := range startHooks {
		l.runHook(h, tick, "tick_start")
	}
	stats.SystemTimes = l.scheduler.RunTick(dt, l.world)
	for _, h := range endHooks {
		l.runHook(h, tick, "tick_end")
	}
	return stats
}

func (l *Loop) runHook(h Hook, tick uint64, phase string) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Tick hook panicked",
				log.String("phase", phase),
				log.Uint64("tick", tick),
				log.Any("panic", r))
		}
	}()
	h(tick)
}
