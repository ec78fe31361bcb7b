// Package client is the Go SDK for GaiaSync world servers. It speaks
// the JSON envelope over WebSocket, tracks the authenticated character,
// and dispatches server pushes to registered handlers.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gaiasync/gaiasync/internal/core/observability/log"
	"github.com/gaiasync/gaiasync/internal/core/protocol"
)

// Config holds client settings. Start from DefaultConfig.
type Config struct {
	// ServerAddr is the host:port of the server's WebSocket endpoint.
	ServerAddr string

	ConnectTimeout time.Duration

	// PingInterval is how often the background ping runs. Zero disables
	// it.
	PingInterval time.Duration

	LogLevel log.Level
}

// DefaultConfig returns settings that work against a local server.
func DefaultConfig() Config {
	return Config{
		ServerAddr:     "localhost:8765",
		ConnectTimeout: 10 * time.Second,
		PingInterval:   30 * time.Second,
		LogLevel:       log.LevelInfo,
	}
}

// Handler receives one server message. Handlers run sequentially on the
// client's read goroutine; the message is only valid for the duration
// of the call.
type Handler func(msg *protocol.Message)

// Character is the identity the server granted at login.
type Character struct {
	PlayerID uint64
	Name     string
	X, Y, Z  float64
}

// waiter is a one-shot interceptor for request/reply exchanges.
type waiter struct {
	match func(msg *protocol.Message) bool
	ch    chan *protocol.Message
}

// typeIs matches any of the given message types.
func typeIs(types ...string) func(*protocol.Message) bool {
	return func(msg *protocol.Message) bool {
		for _, t := range types {
			if msg.Type == t {
				return true
			}
		}
		return false
	}
}

// Client is one connection to a world server.
type Client struct {
	config Config
	logger log.Log
	pool   *protocol.Pool

	writeMu sync.Mutex
	conn    *websocket.Conn
	seq     int64

	handlerMu sync.RWMutex
	handlers  map[string][]Handler
	onDropped func(err error)
	waiters   []*waiter

	charMu    sync.Mutex
	character Character

	connected int32
	closed    int32
	done      chan struct{}
	workers   sync.WaitGroup
}

// New builds a client. Connect establishes the session.
func New(config Config) *Client {
	logger := log.New(config.LogLevel)
	return &Client{
		config:   config,
		logger:   logger.With(log.String("component", "client")),
		pool:     protocol.NewPool(),
		handlers: make(map[string][]Handler),
		done:     make(chan struct{}),
	}
}

// On registers a handler for a server message type. Register before
// Connect; handlers added later apply from the next message.
func (c *Client) On(msgType string, h Handler) {
	c.handlerMu.Lock()
	c.handlers[msgType] = append(c.handlers[msgType], h)
	c.handlerMu.Unlock()
}

// OnDisconnect registers a callback for when the connection drops for
// any reason other than Close.
func (c *Client) OnDisconnect(fn func(err error)) {
	c.handlerMu.Lock()
	c.onDropped = fn
	c.handlerMu.Unlock()
}

// Connect dials the server and starts the read and ping workers.
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if !atomic.CompareAndSwapInt32(&c.connected, 0, 1) {
		return ErrAlreadyConnected
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.config.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, "ws://"+c.config.ServerAddr, nil)
	if err != nil {
		atomic.StoreInt32(&c.connected, 0)
		return fmt.Errorf("dial %s: %w", c.config.ServerAddr, err)
	}
	c.conn = conn

	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		c.readLoop()
	}()

	if c.config.PingInterval > 0 {
		c.workers.Add(1)
		go func() {
			defer c.workers.Done()
			c.pingLoop()
		}()
	}

	c.logger.Info("Connected", log.String("addr", c.config.ServerAddr))
	return nil
}

// Close tears the connection down and waits for the workers.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	close(c.done)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.workers.Wait()
	atomic.StoreInt32(&c.connected, 0)
	c.logger.Info("Client closed")
	return nil
}

// IsConnected reports whether the connection is live.
func (c *Client) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1
}

// Character returns the identity from the last successful login.
func (c *Client) Character() Character {
	c.charMu.Lock()
	defer c.charMu.Unlock()
	return c.character
}

// Login authenticates and blocks until the server grants or refuses
// entry. On success the client's Character is populated.
func (c *Client) Login(ctx context.Context, username, password string) (Character, error) {
	w := c.addWaiter(typeIs(protocol.TypeAuthSuccess, protocol.TypeAuthFailure, protocol.TypeError))
	defer c.removeWaiter(w)

	if err := c.send(protocol.TypeAuthLogin, map[string]any{
		"username": username,
		"password": password,
	}); err != nil {
		return Character{}, err
	}

	msg, err := c.await(ctx, w)
	if err != nil {
		return Character{}, err
	}
	defer c.pool.PutMessage(msg)

	switch msg.Type {
	case protocol.TypeAuthSuccess:
		ch := Character{
			PlayerID: msg.Uint64("player_id"),
			Name:     msg.String("character_name"),
			X:        msg.Float64("spawn_x"),
			Y:        msg.Float64("spawn_y"),
			Z:        msg.Float64("spawn_z"),
		}
		c.charMu.Lock()
		c.character = ch
		c.charMu.Unlock()
		return ch, nil
	case protocol.TypeAuthFailure:
		return Character{}, fmt.Errorf("%w: %s", ErrAuthFailed, msg.String("reason"))
	default:
		return Character{}, fmt.Errorf("%w: %s", ErrAuthFailed, msg.String("message"))
	}
}

// Register creates an account and blocks for the server's verdict. The
// protocol has no dedicated register reply; success arrives as the
// "Account created" system message, so the waiter matches on its text
// to avoid swallowing unrelated announcements.
func (c *Client) Register(ctx context.Context, username, password string) error {
	w := c.addWaiter(func(msg *protocol.Message) bool {
		switch msg.Type {
		case protocol.TypeAuthFailure, protocol.TypeError:
			return true
		case protocol.TypeSystemMessage:
			return strings.HasPrefix(msg.String("message"), "Account created!")
		}
		return false
	})
	defer c.removeWaiter(w)

	if err := c.send(protocol.TypeAuthRegister, map[string]any{
		"username": username,
		"password": password,
	}); err != nil {
		return err
	}

	msg, err := c.await(ctx, w)
	if err != nil {
		return err
	}
	defer c.pool.PutMessage(msg)

	switch msg.Type {
	case protocol.TypeSystemMessage:
		return nil
	case protocol.TypeAuthFailure:
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg.String("reason"))
	default:
		return fmt.Errorf("%w: %s", ErrAuthFailed, msg.String("message"))
	}
}

// Logout asks the server to end the session; the server closes the
// connection in response.
func (c *Client) Logout() error {
	return c.send(protocol.TypeAuthLogout, nil)
}

// Move requests a step. The server clamps each axis to one tile.
func (c *Client) Move(dx, dy float64) error {
	return c.send(protocol.TypePlayerMove, map[string]any{"dx": dx, "dy": dy})
}

// Attack targets an entity for combat.
func (c *Client) Attack(targetID uint64) error {
	return c.send(protocol.TypePlayerAttack, map[string]any{"target_id": targetID})
}

// Interact acts on whatever the character is standing on, stairs
// included.
func (c *Client) Interact() error {
	return c.send(protocol.TypePlayerInteract, nil)
}

// InteractWith acts on a specific entity.
func (c *Client) InteractWith(targetID uint64) error {
	return c.send(protocol.TypePlayerInteract, map[string]any{"target_id": targetID})
}

// Pickup grabs the nearest ground item.
func (c *Client) Pickup() error {
	return c.send(protocol.TypeInventoryPickup, nil)
}

// Chat sends a message on a channel ("local" or "global").
func (c *Client) Chat(text, channel string) error {
	return c.send(protocol.TypeChatSend, map[string]any{
		"message": text,
		"channel": channel,
	})
}

// RequestState asks for a fresh full snapshot.
func (c *Client) RequestState() error {
	return c.send(protocol.TypeRequestState, nil)
}

// Ping measures round-trip time to the server.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	w := c.addWaiter(typeIs(protocol.TypePong))
	defer c.removeWaiter(w)

	start := time.Now()
	if err := c.send(protocol.TypePing, map[string]any{
		"ts": float64(start.UnixNano()) / 1e9,
	}); err != nil {
		return 0, err
	}

	msg, err := c.await(ctx, w)
	if err != nil {
		return 0, err
	}
	c.pool.PutMessage(msg)
	return time.Since(start), nil
}

// send writes one envelope. The mutex keeps concurrent callers off the
// single websocket writer.
func (c *Client) send(msgType string, data map[string]any) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if atomic.LoadInt32(&c.connected) == 0 {
		return ErrNotConnected
	}
	if data == nil {
		data = map[string]any{}
	}

	raw, err := json.Marshal(protocol.Message{
		Type: msgType,
		ID:   atomic.AddInt64(&c.seq, 1),
		TS:   float64(time.Now().UnixNano()) / 1e9,
		Data: data,
	})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, raw)
}

// readLoop is the single reader: it decodes every inbound message and
// routes it to a waiter or the registered handlers.
func (c *Client) readLoop() {
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			atomic.StoreInt32(&c.connected, 0)
			if atomic.LoadInt32(&c.closed) == 0 {
				c.logger.Warn("Connection lost", log.Error(err))
				c.handlerMu.RLock()
				dropped := c.onDropped
				c.handlerMu.RUnlock()
				if dropped != nil {
					dropped(err)
				}
			}
			return
		}

		msg, err := c.pool.Decode(payload)
		if err != nil {
			c.logger.Warn("Undecodable server message", log.Error(err))
			continue
		}

		if c.deliverToWaiter(msg) {
			continue
		}
		c.dispatch(msg)
	}
}

// dispatch runs the handlers for the message type, then recycles the
// message.
func (c *Client) dispatch(msg *protocol.Message) {
	c.handlerMu.RLock()
	handlers := c.handlers[msg.Type]
	c.handlerMu.RUnlock()

	for _, h := range handlers {
		h(msg)
	}
	c.pool.PutMessage(msg)
}

func (c *Client) addWaiter(match func(*protocol.Message) bool) *waiter {
	w := &waiter{match: match, ch: make(chan *protocol.Message, 1)}
	c.handlerMu.Lock()
	c.waiters = append(c.waiters, w)
	c.handlerMu.Unlock()
	return w
}

func (c *Client) removeWaiter(w *waiter) {
	c.handlerMu.Lock()
	for i, other := range c.waiters {
		if other == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			break
		}
	}
	c.handlerMu.Unlock()
}

// deliverToWaiter hands the message to the first waiter that matches
// it. Ownership moves to the waiter.
func (c *Client) deliverToWaiter(msg *protocol.Message) bool {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	for i, w := range c.waiters {
		if w.match(msg) {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			w.ch <- msg
			return true
		}
	}
	return false
}

// await blocks for the waiter's reply, the context, or client close.
func (c *Client) await(ctx context.Context, w *waiter) (*protocol.Message, error) {
	select {
	case msg := <-w.ch:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClientClosed
	}
}

// pingLoop keeps the connection measured and warm.
func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if atomic.LoadInt32(&c.connected) == 0 {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), c.config.ConnectTimeout)
			rtt, err := c.Ping(ctx)
			cancel()
			if err != nil {
				c.logger.Warn("Ping failed", log.Error(err))
				continue
			}
			c.logger.Debug("Ping", log.Duration("rtt", rtt))
		case <-c.done:
			return
		}
	}
}
