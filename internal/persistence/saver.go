package persistence

import (
	"sync/atomic"

	"github.com/gaiasync/gaiasync/internal/core/observability/log"
)

const defaultSaverQueue = 256

// Saver owns the background write path. Snapshots enqueued from the
// tick goroutine are collected into batches and flushed to the store
// off-thread, so a slow disk never stretches a tick.
type Saver struct {
	store   *Store
	logger  log.Log
	queue   chan Character
	running int32

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewSaver creates a saver writing to store. Call Start before
// enqueueing.
func NewSaver(store *Store, logger log.Log) *Saver {
	return &Saver{
		store:    store,
		logger:   logger.With(log.String("component", "saver")),
		queue:    make(chan Character, defaultSaverQueue),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start launches the background flush goroutine. Subsequent calls are
// no-ops.
func (s *Saver) Start() {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return
	}
	go s.run()
}

// Stop flushes everything still queued and waits for the goroutine to
// exit. Subsequent calls are no-ops.
func (s *Saver) Stop() {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return
	}
	close(s.stopChan)
	<-s.doneChan
}

// Enqueue hands a snapshot to the background writer. Returns false when
// the queue is full; the caller's next save interval will retry.
func (s *Saver) Enqueue(c Character) bool {
	select {
	case s.queue <- c:
		return true
	default:
		s.logger.Warn("Save queue full, snapshot dropped", log.String("character", c.Name))
		return false
	}
}

func (s *Saver) run() {
	defer close(s.doneChan)
	for {
		select {
		case c := <-s.queue:
			s.flush(s.drain([]Character{c}))
		case <-s.stopChan:
			s.flush(s.drain(nil))
			return
		}
	}
}

// drain empties the queue without blocking, appending onto batch.
func (s *Saver) drain(batch []Character) []Character {
	for {
		select {
		case c := <-s.queue:
			batch = append(batch, c)
		default:
			return batch
		}
	}
}

func (s *Saver) flush(batch []Character) {
	if len(batch) == 0 {
		return
	}
	if err := s.store.SaveAll(batch); err != nil {
		s.logger.Error("Character batch save failed",
			log.Error(err),
			log.Int("batch_size", len(batch)))
		return
	}
	s.logger.Debug("Character batch saved", log.Int("batch_size", len(batch)))
}
