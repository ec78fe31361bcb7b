//go:build wireinject
// +build wireinject

// The build tag makes sure the stubs are not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/gaiasync/gaiasync/internal/auth"
	"github.com/gaiasync/gaiasync/internal/core/observability/log"
	"github.com/gaiasync/gaiasync/internal/persistence"
	"github.com/gaiasync/gaiasync/internal/server"
	"github.com/gaiasync/gaiasync/internal/terrain"
)

func ProvideLogger() *log.Logger {
	wire.Build(log.Provide)
	return log.New(log.LevelInfo)
}

func provideStore(cfg server.Config, logger log.Log) (*persistence.Store, error) {
	return persistence.Open(cfg.DataDir, logger)
}

// ProvideServer assembles a production server: starter-field terrain,
// a fresh account registry, and a Badger-backed character store under
// the configured data directory.
func ProvideServer(cfg server.Config, logger log.Log) (*server.Server, error) {
	wire.Build(
		terrain.StarterField,
		auth.NewRegistry,
		provideStore,
		persistence.NewSaver,
		wire.Struct(new(server.Deps), "*"),
		server.New,
	)
	return nil, nil
}
