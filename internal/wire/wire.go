// Package wire provides dependency injection for the flowtrack application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/example/flowtrack/internal/adapters/console"
	"github.com/example/flowtrack/internal/adapters/remote"
	"github.com/example/flowtrack/internal/adapters/sqlite"
	"github.com/example/flowtrack/internal/app"
	"github.com/example/flowtrack/internal/config"
	"github.com/example/flowtrack/internal/db"
	"github.com/example/flowtrack/internal/ports/primary"
	"github.com/example/flowtrack/internal/ports/secondary"
)

var (
	flowService     primary.FlowService
	entryService    primary.EntryService
	syncService     primary.SyncService
	scheduleService primary.ScheduleService
	activityLog     secondary.ActivityLog
	cfg             *config.Config
	once            sync.Once
)

// FlowService returns the singleton FlowService instance.
func FlowService() primary.FlowService {
	once.Do(initServices)
	return flowService
}

// EntryService returns the singleton EntryService instance.
func EntryService() primary.EntryService {
	once.Do(initServices)
	return entryService
}

// SyncService returns the singleton SyncService instance.
func SyncService() primary.SyncService {
	once.Do(initServices)
	return syncService
}

// ScheduleService returns the singleton ScheduleService instance.
func ScheduleService() primary.ScheduleService {
	once.Do(initServices)
	return scheduleService
}

// ActivityLog returns the singleton activity log.
func ActivityLog() secondary.ActivityLog {
	once.Do(initServices)
	return activityLog
}

// Config returns the loaded configuration.
func Config() *config.Config {
	once.Do(initServices)
	return cfg
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Repository adapters (secondary ports) with injected DB
	flowRepo := sqlite.NewFlowRepository(database)
	entryRepo := sqlite.NewEntryRepository(database)
	queueStore := sqlite.NewQueueStore(database)
	scheduleRepo := sqlite.NewScheduleRepository(database)
	activityLog = sqlite.NewActivityLogAdapter(database)

	// No remote configured means the queue accumulates locally until one is.
	var transport secondary.Transport = remote.NewOfflineTransport()
	if cfg.RemoteURL != "" {
		transport = remote.NewHTTPTransport(cfg.RemoteURL, 0)
	}

	engine := app.NewSyncEngine(queueStore, transport, activityLog, syncOptions(cfg))
	if err := engine.Load(context.Background()); err != nil {
		log.Fatalf("failed to recover sync queue: %v", err)
	}
	syncService = engine

	flowService = app.NewFlowService(flowRepo, syncService, activityLog)
	entryService = app.NewEntryService(entryRepo, flowRepo, syncService, activityLog)
	scheduleService = app.NewScheduleService(scheduleRepo, flowRepo, console.NewNotifier(os.Stdout), cfg.LookaheadDays)
}

// syncOptions maps config overrides onto the engine defaults.
func syncOptions(cfg *config.Config) app.SyncOptions {
	opts := app.DefaultSyncOptions()
	if cfg.SyncMaxAttempts > 0 {
		opts.MaxAttempts = cfg.SyncMaxAttempts
	}
	if cfg.SyncBaseBackoffMS > 0 {
		opts.BaseBackoff = time.Duration(cfg.SyncBaseBackoffMS) * time.Millisecond
	}
	if cfg.SyncMaxBackoffMS > 0 {
		opts.MaxBackoff = time.Duration(cfg.SyncMaxBackoffMS) * time.Millisecond
	}
	if cfg.SyncWorkers > 0 {
		opts.Workers = cfg.SyncWorkers
	}
	if cfg.SyncIntervalSec > 0 {
		opts.TickInterval = time.Duration(cfg.SyncIntervalSec) * time.Second
	}
	return opts
}
