package main

import (
	"github.com/wfunc/dungeonserver/config"
	"github.com/wfunc/dungeonserver/logger"
	"github.com/wfunc/dungeonserver/monitor"
	"github.com/wfunc/dungeonserver/persistence"
	"github.com/wfunc/dungeonserver/server"
	"github.com/wfunc/dungeonserver/services"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize storage backend
	store, err := newStore(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()
	logger.Log.Infof("Storage backend: %s", cfg.Storage.Backend)

	// Services
	userService, err := services.NewUserService(store, cfg.Auth.HashSalt, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Log.Fatalf("Failed to initialize user service: %v", err)
	}
	mapService := services.NewMapService(store)

	// Metrics
	var mon *monitor.Monitor
	if cfg.Server.MetricsAddress != "" {
		mon = monitor.NewMonitor("dungeonserver")
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	// Start Game Server
	gameServer := server.NewGameServer(cfg, store, userService, mapService, mon)
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}

func newStore(cfg *config.Config) (persistence.Store, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		return persistence.NewPostgreSQL(
			cfg.Storage.Postgres.Host,
			cfg.Storage.Postgres.Port,
			cfg.Storage.Postgres.User,
			cfg.Storage.Postgres.Password,
			cfg.Storage.Postgres.DBName,
		)
	case "gorm":
		return persistence.NewGormPostgreSQL(
			cfg.Storage.Postgres.Host,
			cfg.Storage.Postgres.Port,
			cfg.Storage.Postgres.User,
			cfg.Storage.Postgres.Password,
			cfg.Storage.Postgres.DBName,
		)
	default:
		return persistence.NewFileStore(cfg.Storage.DataDir)
	}
}
