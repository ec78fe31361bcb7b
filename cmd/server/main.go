package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gaiasync/gaiasync/internal/auth"
	"github.com/gaiasync/gaiasync/internal/core/ecs"
	"github.com/gaiasync/gaiasync/internal/core/observability/log"
	"github.com/gaiasync/gaiasync/internal/core/spatial"
	"github.com/gaiasync/gaiasync/internal/game"
	"github.com/gaiasync/gaiasync/internal/persistence"
	"github.com/gaiasync/gaiasync/internal/server"
	"github.com/gaiasync/gaiasync/internal/terrain"
)

const statsInterval = 30 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		addr       = flag.String("addr", "", "websocket listen address (overrides config)")
		dataDir    = flag.String("data", "", "character store directory (overrides config)")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "world population seed")
	)
	flag.Parse()

	cfg := server.DefaultConfig()
	if *configPath != "" {
		loaded, err := server.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.WebSocket.Addr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))

	store, err := persistence.Open(cfg.DataDir, logger)
	if err != nil {
		logger.Fatal("Could not open character store", log.Error(err))
	}
	defer func() { _ = store.Close() }()

	registry := auth.NewRegistry()
	seedDevAccounts(registry, logger)

	world := terrain.StarterField()
	srv, err := server.New(cfg, server.Deps{
		Terrain:  world,
		Registry: registry,
		Store:    store,
		Saver:    persistence.NewSaver(store, logger),
	}, logger)
	if err != nil {
		logger.Fatal("Could not build server", log.Error(err))
	}

	rng := rand.New(rand.NewSource(*seed))
	err = srv.Populate(func(w *ecs.World, c *game.Components, grid *spatial.Grid) error {
		spawned, err := game.SeedStarterField(w, c, grid, world, rng)
		if err != nil {
			return err
		}
		logger.Info("World populated", log.Int("entities", len(spawned)))
		return nil
	})
	if err != nil {
		logger.Fatal("Could not populate world", log.Error(err))
	}

	if err := srv.Start(); err != nil {
		logger.Fatal("Could not start server", log.Error(err))
	}
	logger.Info("Listening", log.String("addr", srv.Addr()))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case sig := <-stop:
			logger.Info("Shutting down", log.String("signal", sig.String()))
			if err := srv.Stop(); err != nil {
				logger.Error("Shutdown failed", log.Error(err))
			}
			return
		case <-ticker.C:
			st := srv.Stats()
			logger.Info("Server stats",
				log.Int("connections", st.Connections),
				log.Int("players", st.PlayersInGame),
				log.Int("accounts", st.RegisteredUsers),
				log.Uint64("tick", st.Tick),
				log.Duration("avg_tick", st.Loop.AvgTickDuration))
		}
	}
}

// seedDevAccounts registers the throwaway accounts local clients expect.
// Registration failures mean the account already exists; that is fine
// on restart.
func seedDevAccounts(registry *auth.Registry, logger log.Log) {
	for _, acc := range []struct{ username, password string }{
		{"test", "test"},
		{"player1", "password1"},
		{"player2", "password2"},
	} {
		if _, err := registry.Register(acc.username, acc.password); err == nil {
			logger.Debug("Dev account seeded", log.String("username", acc.username))
		}
	}
}
