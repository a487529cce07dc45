package main

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/moyoez/codedrop/api"
	"github.com/moyoez/codedrop/api/eventhub"
	"github.com/moyoez/codedrop/session"
	"github.com/moyoez/codedrop/storage"
	"github.com/moyoez/codedrop/store"
	"github.com/moyoez/codedrop/tool"
)

// sweepInterval is how often the registry looks for past-due sessions.
// Cooperative checks on access use the same cutoff, so the cadence only
// bounds how long a dead session lingers in memory.
const sweepInterval = 30 * time.Second

func main() {
	cfg := tool.SetFlags()
	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	if cfg.UsePort > 0 {
		appCfg.Port = cfg.UsePort
	}
	if cfg.UseChunkDir != "" {
		appCfg.ChunkDir = cfg.UseChunkDir
	}
	if cfg.UseHistoryDB != "" {
		appCfg.HistoryDBPath = cfg.UseHistoryDB
	}
	if cfg.UseNickname != "" {
		appCfg.Nickname = cfg.UseNickname
	}

	// initialize logger
	tool.InitLogger()
	if cfg.Log == "" {
		tool.DefaultLogger.SetLevel(log.DebugLevel)
	} else {
		switch strings.ToLower(cfg.Log) {
		case "dev":
			tool.DefaultLogger.SetLevel(log.DebugLevel)
		case "prod":
			tool.DefaultLogger.SetLevel(log.InfoLevel)
		case "none":
			tool.DefaultLogger.SetLevel(log.FatalLevel)
		default:
			tool.DefaultLogger.Warnf("Unknown log mode %q, using debug level", cfg.Log)
			tool.DefaultLogger.SetLevel(log.DebugLevel)
		}
	}

	history, err := storage.Open(appCfg.HistoryDBPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("Failed to open history store: %v", err)
	}
	defer func() {
		if err := history.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close history store: %v", err)
		}
	}()

	chunks, err := store.NewDiskStore(appCfg.ChunkDir)
	if err != nil {
		tool.DefaultLogger.Fatalf("Failed to prepare chunk spool: %v", err)
	}

	hub := eventhub.New()
	registry := session.NewRegistry(session.Policy{
		MaxFileSize: appCfg.MaxFileSize,
		ChunkSize:   appCfg.ChunkSize,
		ExpireAfter: time.Duration(appCfg.SessionExpireMinutes) * time.Minute,
	}, hub, history, chunks)

	stopSweep := make(chan struct{})
	defer close(stopSweep)
	go registry.RunSweeper(sweepInterval, stopSweep)

	apiServer := api.NewServer(appCfg.Port, registry, hub, chunks, history)
	if err := apiServer.Start(); err != nil {
		tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
	}
}
