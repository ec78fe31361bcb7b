// Package server is the coordinator between the network edge and the
// simulation: it owns the session registry, authenticates connections,
// queues gameplay commands for the tick, and broadcasts world state
// back out. All world access happens on the loop goroutine; network
// goroutines reach the simulation only through the queues.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gaiasync/gaiasync/internal/auth"
	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/observability/log"
	"github.com/gaiasync/gaiasync/internal/core/protocol"
	"github.com/gaiasync/gaiasync/internal/core/scheduler"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
	"github.com/gaiasync/gaiasync/internal/core/transport"
	"github.com/gaiasync/gaiasync/internal/core/transport/quic"
	"github.com/gaiasync/gaiasync/internal/core/transport/ws"
	"github.com/gaiasync/gaiasync/internal/game"
	"github.com/gaiasync/gaiasync/internal/persistence"
	"github.com/gaiasync/gaiasync/internal/terrain"
	"github.com/gaiasync/gaiasync/pkg/concurrent"
)

// Fresh characters enter the world at the village spawn point.
const (
	spawnX = 8.0
	spawnY = 8.0
	spawnZ = 0.0
)

// saveFanOut bounds parallel character writes during shutdown.
const saveFanOut = 8

// Deps are the collaborators the coordinator is wired with. Terrain and
// Registry are required; Store and Saver may be nil to run without
// persistence.
type Deps struct {
	Terrain  *terrain.World
	Registry *auth.Registry
	Store    *persistence.Store
	Saver    *persistence.Saver
}

// Server runs the world: one simulation loop, any number of transport
// listeners feeding it.
type Server struct {
	config Config
	logger log.Log

	world *ecs.World
	comps *game.Components
	grid  *spatial.Grid
	tiles *terrain.World
	clock *game.Clock
	sink  *game.Sink

	sched *scheduler.Scheduler
	loop  *scheduler.Loop

	registry *auth.Registry
	store    *persistence.Store
	saver    *persistence.Saver

	builder *protocol.Builder
	pool    *protocol.Pool
	limiter *protocol.RateLimiter

	sessions *sessionIndex
	entMu    sync.RWMutex
	entities map[ecs.Entity]*session

	actions actionQueue
	tasks   taskQueue

	// authMu serializes login admission so concurrent logins for one
	// account produce exactly one winner.
	authMu sync.Mutex

	listeners []transport.Listener

	running  int32
	stopping chan struct{}
}

var _ transport.Handler = (*Server)(nil)

// New wires the simulation, systems, and transport listeners. Start
// brings them up.
func New(config Config, deps Deps, logger log.Log) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if deps.Terrain == nil {
		return nil, errors.New("server: terrain world is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("server: account registry is required")
	}

	world := ecs.NewWorld()
	comps := game.RegisterComponents(world)

	s := &Server{
		config:   config,
		logger:   logger.With(log.String("component", "server")),
		world:    world,
		comps:    comps,
		grid:     spatial.NewGrid(config.CellSize),
		tiles:    deps.Terrain,
		clock:    game.NewClock(),
		sink:     game.NewSink(),
		registry: deps.Registry,
		store:    deps.Store,
		saver:    deps.Saver,
		builder:  protocol.NewBuilder(),
		pool:     protocol.NewPool(),
		limiter:  protocol.NewRateLimiter(config.RateLimit, time.Second),
		sessions: newSessionIndex(),
		entities: make(map[ecs.Entity]*session),
		stopping: make(chan struct{}),
	}

	cooldowns := game.NewCooldownSystem(comps, s.clock)
	systems := []struct {
		name     string
		priority int
		system   scheduler.System
	}{
		{"cooldown", game.PriorityCooldown, cooldowns},
		{"movement", game.PriorityMovement, game.NewMovementSystem(comps, s.grid, deps.Terrain)},
		{"status", game.PriorityStatus, game.NewStatusSystem(comps)},
		{"combat", game.PriorityCombat, game.NewCombatSystem(comps, s.clock, cooldowns, s.sink, s.grid)},
		{"ai", game.PriorityAI, game.NewAISystem(comps, s.clock, s.grid)},
		{"visibility", game.PriorityVisibility, game.NewVisibilitySystem(comps, deps.Terrain)},
		{"lifetime", game.PriorityLifetime, game.NewLifetimeSystem(comps, s.clock, s.grid, s.sink)},
	}
	if deps.Saver != nil {
		systems = append(systems, struct {
			name     string
			priority int
			system   scheduler.System
		}{"persistence", game.PriorityPersistence, game.NewPersistenceSystem(comps, s.clock, deps.Saver)})
	}

	sched := scheduler.NewScheduler()
	for _, entry := range systems {
		if err := sched.Add(entry.name, entry.priority, entry.system); err != nil {
			return nil, fmt.Errorf("register system %s: %w", entry.name, err)
		}
	}

	loop := scheduler.NewLoop(world, sched, config.TickTarget(), logger)
	if config.TickHistory > 0 {
		loop.SetMonitorCapacity(config.TickHistory)
	}
	loop.OnTickEnd(s.onTickEnd)
	s.sched = sched
	s.loop = loop

	s.listeners = append(s.listeners, ws.NewServer(config.WebSocket, s, logger))
	if config.QUIC.Enabled {
		s.listeners = append(s.listeners, quic.NewServer(config.QUIC.Config, s, logger))
	}
	return s, nil
}

// Populate runs a world-building function against the simulation state.
// Only valid before Start; the loop owns the world afterwards.
func (s *Server) Populate(fn func(*ecs.World, *game.Components, *spatial.Grid) error) error {
	if atomic.LoadInt32(&s.running) == 1 {
		return ErrAlreadyRunning
	}
	return fn(s.world, s.comps, s.grid)
}

// Addr returns the first listener's bound address, or nil before Start.
func (s *Server) Addr() string {
	for _, l := range s.listeners {
		if addr := l.Addr(); addr != nil {
			return addr.String()
		}
	}
	return ""
}

// Start brings up the saver, the loop, and every listener.
func (s *Server) Start() error {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return ErrAlreadyRunning
	}
	s.stopping = make(chan struct{})

	if s.saver != nil {
		s.saver.Start()
	}
	if err := s.loop.Start(); err != nil {
		if s.saver != nil {
			s.saver.Stop()
		}
		atomic.StoreInt32(&s.running, 0)
		return err
	}

	for i, l := range s.listeners {
		if err := l.Start(); err != nil {
			for _, started := range s.listeners[:i] {
				_ = started.Stop()
			}
			_ = s.loop.Stop()
			if s.saver != nil {
				s.saver.Stop()
			}
			atomic.StoreInt32(&s.running, 0)
			return fmt.Errorf("start %s listener: %w", l.Name(), err)
		}
	}

	s.logger.Info("Server started",
		log.Int("tick_rate", s.config.TickRate),
		log.Int("listeners", len(s.listeners)))
	return nil
}

// Stop winds down in dependency order: the loop stops first, characters
// are saved while this goroutine owns the world, then the listeners
// close and late teardowns drain.
func (s *Server) Stop() error {
	if !atomic.CompareAndSwapInt32(&s.running, 1, 0) {
		return ErrNotRunning
	}
	close(s.stopping)

	if err := s.loop.Stop(); err != nil {
		s.logger.Warn("Loop stop failed", log.Error(err))
	}

	s.saveAllCharacters()

	for _, l := range s.listeners {
		if err := l.Stop(); err != nil {
			s.logger.Warn("Listener stop failed",
				log.String("listener", l.Name()), log.Error(err))
		}
	}

	// Connections closing above posted their teardowns after the loop
	// died; run them here where this goroutine owns the world.
	for _, fn := range s.tasks.Drain() {
		fn()
	}

	if s.saver != nil {
		s.saver.Stop()
	}

	s.logger.Info("Server stopped")
	return nil
}

// saveAllCharacters snapshots every in-game character and writes them
// with bounded parallelism. Runs only while the loop is stopped.
func (s *Server) saveAllCharacters() {
	if s.store == nil {
		return
	}

	s.entMu.RLock()
	entities := make([]ecs.Entity, 0, len(s.entities))
	for e := range s.entities {
		entities = append(entities, e)
	}
	s.entMu.RUnlock()

	chars := make([]persistence.Character, 0, len(entities))
	for _, e := range entities {
		if ch, ok := game.SnapshotCharacter(s.world, s.comps, e); ok {
			chars = append(chars, ch)
		}
	}
	if len(chars) == 0 {
		return
	}

	err := concurrent.ForEach(context.Background(), chars, saveFanOut,
		func(_ context.Context, ch persistence.Character) error {
			return s.store.SaveCharacter(ch)
		})
	if err != nil {
		s.logger.Error("Character save failed during shutdown", log.Error(err))
	}
	s.logger.Info("Characters saved", log.Int("count", len(chars)))
}

// onTickEnd is the simulation half of the coordinator. It runs on the
// loop goroutine after the systems: lifecycle tasks first, then the
// queued gameplay commands, then the state broadcast.
func (s *Server) onTickEnd(tick uint64) {
	for _, fn := range s.tasks.Drain() {
		fn()
	}
	for _, a := range s.actions.Drain() {
		s.applyAction(a)
	}
	s.broadcastTick(tick)
}

// OnConnect implements transport.Handler.
func (s *Server) OnConnect(c transport.Conn) {
	sess := newSession(c)
	s.sessions.Put(sess)
	go sess.writeLoop()

	s.send(sess, s.builder.SystemMessage("Welcome to GaiaSync! Please login or register.", "info"))
	s.logger.Info("Client connected",
		log.String("conn_id", c.ID()),
		log.String("remote", c.RemoteAddr().String()))
}

// OnDisconnect implements transport.Handler. The index removal makes
// teardown exactly-once regardless of how the connection ended.
func (s *Server) OnDisconnect(c transport.Conn, err error) {
	s.limiter.Forget(c.ID())

	sess, ok := s.sessions.Remove(c.ID())
	if !ok {
		return
	}
	sess.setState(StateDisconnecting)
	sess.close()

	if sess.Entity() != ecs.Nil {
		s.tasks.Push(func() { s.despawnSession(sess) })
	}

	reason := "connection closed"
	if err != nil {
		reason = err.Error()
	}
	s.logger.Info("Client disconnected",
		log.String("conn_id", c.ID()),
		log.String("reason", reason))
}

// spawnSession puts an authenticated session into the world. Runs on
// the loop goroutine so the auth reply, the full snapshot, and the
// spawn broadcast all precede any later delta.
func (s *Server) spawnSession(sess *session, account auth.Account) error {
	entity, err := s.spawnCharacter(account)
	if err != nil {
		return err
	}

	if player, ok := ecs.Get[*game.Player](s.world, entity, s.comps.Player); ok {
		player.ConnectionID = sess.conn.ID()
	}

	s.entMu.Lock()
	s.entities[entity] = sess
	s.entMu.Unlock()
	sess.bindEntity(entity)
	sess.setState(StateInGame)

	x, y, z := spawnX, spawnY, spawnZ
	if pos, ok := ecs.Get[*game.Position](s.world, entity, s.comps.Position); ok {
		x, y, z = pos.X, pos.Y, pos.Z
	}

	s.send(sess, s.builder.AuthSuccess(uint64(entity), account.Username, x, y, z))
	s.sendFullState(sess)

	if payload, ok := game.EntityPayload(s.world, s.comps, entity); ok {
		s.broadcastExcept(sess, s.builder.EntitySpawn(payload))
	}

	s.logger.Info("Player entered the world",
		log.String("username", account.Username),
		log.Uint64("entity", uint64(entity)))
	return nil
}

// spawnCharacter restores the saved character when the store has one
// and spawns fresh otherwise.
func (s *Server) spawnCharacter(account auth.Account) (ecs.Entity, error) {
	if s.store != nil {
		ch, err := s.store.LoadCharacter(account.Username)
		switch {
		case err == nil:
			return game.SpawnPlayerFromCharacter(s.world, s.comps, s.grid, ch, spawnX, spawnY, spawnZ)
		case errors.Is(err, persistence.ErrNotFound):
		default:
			s.logger.Warn("Character load failed, spawning fresh",
				log.String("username", account.Username), log.Error(err))
		}
	}
	return game.SpawnPlayer(s.world, s.comps, s.grid, account.ID, account.Username, spawnX, spawnY, spawnZ)
}

// despawnSession removes a departed session's entity. Runs on the loop
// goroutine.
func (s *Server) despawnSession(sess *session) {
	entity := sess.Entity()
	if entity == ecs.Nil {
		return
	}

	s.entMu.Lock()
	delete(s.entities, entity)
	s.entMu.Unlock()

	if !s.world.IsAlive(entity) {
		return
	}

	if s.saver != nil {
		if ch, ok := game.SnapshotCharacter(s.world, s.comps, entity); ok {
			s.saver.Enqueue(ch)
		}
	}

	s.broadcastExcept(sess, s.builder.EntityDespawn(uint64(entity)))
	s.grid.Remove(entity)
	s.world.DestroyEntity(entity)
}

func (s *Server) sessionForEntity(e ecs.Entity) *session {
	s.entMu.RLock()
	defer s.entMu.RUnlock()
	return s.entities[e]
}

// Stats is the operational snapshot surfaced by cmd and tests.
type Stats struct {
	Connections     int
	PlayersInGame   int
	RegisteredUsers int
	QueuedActions   int
	Tick            uint64
	Loop            scheduler.Report
}

// Stats reports the server's current load.
func (s *Server) Stats() Stats {
	inGame := 0
	s.sessions.Range(func(sess *session) bool {
		if sess.State() == StateInGame {
			inGame++
		}
		return true
	})
	return Stats{
		Connections:     s.sessions.Len(),
		PlayersInGame:   inGame,
		RegisteredUsers: s.registry.Count(),
		QueuedActions:   s.actions.Len(),
		Tick:            s.loop.CurrentTick(),
		Loop:            s.loop.Monitor().Report(),
	}
}
