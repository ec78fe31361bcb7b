package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gaiasync/gaiasync/internal/core/ecs"
)

// stubConn satisfies transport.Conn for session tests without a socket.
type stubConn struct {
	id      string
	sendErr error

	mu     sync.Mutex
	sent   [][]byte
	closed bool

	notify chan []byte
}

func newStubConn(id string) *stubConn {
	return &stubConn{id: id, notify: make(chan []byte, 16)}
}

func (c *stubConn) ID() string           { return c.id }
func (c *stubConn) RemoteAddr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }

func (c *stubConn) Send(data []byte) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.mu.Lock()
	c.sent = append(c.sent, data)
	c.mu.Unlock()
	c.notify <- data
	return nil
}

func (c *stubConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *stubConn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *stubConn) LastActivity() time.Time { return time.Time{} }

func TestSession_Identity(t *testing.T) {
	t.Run("New sessions start connected and unbound", func(t *testing.T) {
		sess := newSession(newStubConn("c1"))

		require.Equal(t, StateConnected, sess.State())
		accountID, username := sess.Account()
		require.Zero(t, accountID)
		require.Empty(t, username)
		require.Equal(t, ecs.Nil, sess.Entity())
	})

	t.Run("Bind and clear account", func(t *testing.T) {
		sess := newSession(newStubConn("c1"))

		sess.bindAccount(42, "ranger")
		accountID, username := sess.Account()
		require.Equal(t, uint64(42), accountID)
		require.Equal(t, "ranger", username)

		sess.clearAccount()
		accountID, username = sess.Account()
		require.Zero(t, accountID)
		require.Empty(t, username)
	})

	t.Run("State transitions are visible", func(t *testing.T) {
		sess := newSession(newStubConn("c1"))

		sess.setState(StateAuthenticated)
		require.Equal(t, StateAuthenticated, sess.State())
		sess.setState(StateInGame)
		require.Equal(t, StateInGame, sess.State())
	})

	t.Run("State names", func(t *testing.T) {
		require.Equal(t, "connected", StateConnected.String())
		require.Equal(t, "in_game", StateInGame.String())
		require.Equal(t, "unknown", SessionState(99).String())
	})
}

func TestSession_Outbox(t *testing.T) {
	t.Run("Write loop drains enqueued payloads", func(t *testing.T) {
		conn := newStubConn("c1")
		sess := newSession(conn)
		go sess.writeLoop()
		defer sess.close()

		sess.enqueue([]byte("one"))
		sess.enqueue([]byte("two"))

		require.Equal(t, "one", string(<-conn.notify))
		require.Equal(t, "two", string(<-conn.notify))
		require.Eventually(t, func() bool {
			return atomic.LoadInt64(&sess.sent) == 2
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("Full outbox drops instead of blocking", func(t *testing.T) {
		sess := newSession(newStubConn("c1"))

		for i := 0; i < outboxDepth; i++ {
			sess.enqueue([]byte("fill"))
		}
		require.Zero(t, atomic.LoadInt64(&sess.dropped))

		sess.enqueue([]byte("overflow"))
		require.Equal(t, int64(1), atomic.LoadInt64(&sess.dropped))
	})

	t.Run("Close stops the write loop", func(t *testing.T) {
		sess := newSession(newStubConn("c1"))
		exited := make(chan struct{})
		go func() {
			sess.writeLoop()
			close(exited)
		}()

		sess.close()
		select {
		case <-exited:
		case <-time.After(time.Second):
			t.Fatal("Write loop did not exit after close")
		}
	})

	t.Run("Send failure stops the write loop", func(t *testing.T) {
		conn := newStubConn("c1")
		conn.sendErr = errors.New("wire broke")
		sess := newSession(conn)

		exited := make(chan struct{})
		go func() {
			sess.writeLoop()
			close(exited)
		}()

		sess.enqueue([]byte("doomed"))
		select {
		case <-exited:
		case <-time.After(time.Second):
			t.Fatal("Write loop did not exit after send failure")
		}
	})
}

func TestSessionIndex(t *testing.T) {
	t.Run("Put Get Len round trip", func(t *testing.T) {
		idx := newSessionIndex()
		a := newSession(newStubConn("a"))
		b := newSession(newStubConn("b"))
		idx.Put(a)
		idx.Put(b)

		got, ok := idx.Get("a")
		require.True(t, ok)
		require.Same(t, a, got)
		require.Equal(t, 2, idx.Len())

		_, ok = idx.Get("missing")
		require.False(t, ok)
	})

	t.Run("Remove reports a single winner", func(t *testing.T) {
		idx := newSessionIndex()
		a := newSession(newStubConn("a"))
		idx.Put(a)

		got, ok := idx.Remove("a")
		require.True(t, ok)
		require.Same(t, a, got)

		_, ok = idx.Remove("a")
		require.False(t, ok)
		require.Zero(t, idx.Len())
	})

	t.Run("Range visits every session", func(t *testing.T) {
		idx := newSessionIndex()
		const count = 50
		for i := 0; i < count; i++ {
			idx.Put(newSession(newStubConn(fmt.Sprintf("conn-%d", i))))
		}

		seen := map[string]bool{}
		idx.Range(func(s *session) bool {
			seen[s.conn.ID()] = true
			return true
		})
		require.Len(t, seen, count)
	})

	t.Run("Range stops early when told", func(t *testing.T) {
		idx := newSessionIndex()
		for i := 0; i < 10; i++ {
			idx.Put(newSession(newStubConn(fmt.Sprintf("conn-%d", i))))
		}

		visited := 0
		idx.Range(func(*session) bool {
			visited++
			return false
		})
		require.Equal(t, 1, visited)
	})

	t.Run("Concurrent puts and removes stay consistent", func(t *testing.T) {
		idx := newSessionIndex()
		const workers = 32
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("conn-%d", i)
				idx.Put(newSession(newStubConn(id)))
				if i%2 == 0 {
					idx.Remove(id)
				}
			}(i)
		}
		wg.Wait()
		require.Equal(t, workers/2, idx.Len())
	})
}
