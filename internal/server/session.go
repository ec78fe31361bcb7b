package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/transport"
)

// SessionState tracks where a connection is in its lifecycle.
type SessionState int32

const (
	StateConnected SessionState = iota
	StateAuthenticating
	StateAuthenticated
	StateInGame
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateInGame:
		return "in_game"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// outboxDepth bounds queued outbound messages per session. Deltas resend
// the full area of interest every tick, so dropping under pressure is
// recoverable.
const outboxDepth = 256

// session binds one transport connection to the account and entity it
// authenticated as. Inbound handling is sequential per connection;
// identity fields are written on the simulation goroutine during login
// and read from network goroutines through the mutex.
type session struct {
	conn transport.Conn

	state int32 // SessionState, atomic

	mu        sync.Mutex
	accountID uint64
	username  string
	entity    ecs.Entity

	outbox chan []byte
	done   chan struct{}

	connectedAt   time.Time
	lastMessageAt int64 // unix nanos, atomic
	received      int64 // atomic
	sent          int64 // atomic
	dropped       int64 // atomic
}

func newSession(conn transport.Conn) *session {
	return &session{
		conn:        conn,
		outbox:      make(chan []byte, outboxDepth),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
	}
}

func (s *session) State() SessionState {
	return SessionState(atomic.LoadInt32(&s.state))
}

func (s *session) setState(st SessionState) {
	atomic.StoreInt32(&s.state, int32(st))
}

// bindAccount records the authenticated account. Called under the
// server's auth mutex so duplicate-login checks see it immediately.
func (s *session) bindAccount(accountID uint64, username string) {
	s.mu.Lock()
	s.accountID = accountID
	s.username = username
	s.mu.Unlock()
}

func (s *session) clearAccount() {
	s.mu.Lock()
	s.accountID = 0
	s.username = ""
	s.mu.Unlock()
}

func (s *session) bindEntity(e ecs.Entity) {
	s.mu.Lock()
	s.entity = e
	s.mu.Unlock()
}

func (s *session) Account() (uint64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountID, s.username
}

func (s *session) Entity() ecs.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entity
}

func (s *session) touch() {
	atomic.StoreInt64(&s.lastMessageAt, time.Now().UnixNano())
	atomic.AddInt64(&s.received, 1)
}

// enqueue hands a payload to the session's writer without blocking.
// A full outbox drops the payload; the next delta repairs the view.
func (s *session) enqueue(payload []byte) {
	select {
	case s.outbox <- payload:
	default:
		atomic.AddInt64(&s.dropped, 1)
	}
}

// writeLoop is the session's single writer. It exits when the session
// is closed or the connection rejects a write.
func (s *session) writeLoop() {
	for {
		select {
		case payload := <-s.outbox:
			if err := s.conn.Send(payload); err != nil {
				return
			}
			atomic.AddInt64(&s.sent, 1)
		case <-s.done:
			return
		}
	}
}

// close releases the writer. Idempotence comes from the index: only the
// goroutine that removed the session from it calls close.
func (s *session) close() {
	close(s.done)
}

// sessionShards is kept a power of two so the hash folds evenly.
const sessionShards = 16

type sessionShard struct {
	mu sync.RWMutex
	m  map[string]*session
}

// sessionIndex is the connection-id lookup, sharded to keep the
// per-message hot path from serializing on one lock.
type sessionIndex struct {
	shards [sessionShards]sessionShard
}

func newSessionIndex() *sessionIndex {
	idx := &sessionIndex{}
	for i := range idx.shards {
		idx.shards[i].m = make(map[string]*session)
	}
	return idx
}

func (i *sessionIndex) shard(connID string) *sessionShard {
	return &i.shards[xxhash.Sum64String(connID)%sessionShards]
}

func (i *sessionIndex) Put(s *session) {
	sh := i.shard(s.conn.ID())
	sh.mu.Lock()
	sh.m[s.conn.ID()] = s
	sh.mu.Unlock()
}

func (i *sessionIndex) Get(connID string) (*session, bool) {
	sh := i.shard(connID)
	sh.mu.RLock()
	s, ok := sh.m[connID]
	sh.mu.RUnlock()
	return s, ok
}

// Remove takes the session out of the index, reporting whether this
// call was the one that removed it.
func (i *sessionIndex) Remove(connID string) (*session, bool) {
	sh := i.shard(connID)
	sh.mu.Lock()
	s, ok := sh.m[connID]
	if ok {
		delete(sh.m, connID)
	}
	sh.mu.Unlock()
	return s, ok
}

// Range visits every session until fn returns false.
func (i *sessionIndex) Range(fn func(*session) bool) {
	for idx := range i.shards {
		sh := &i.shards[idx]
		sh.mu.RLock()
		for _, s := range sh.m {
			if !fn(s) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

func (i *sessionIndex) Len() int {
	n := 0
	for idx := range i.shards {
		sh := &i.shards[idx]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}
