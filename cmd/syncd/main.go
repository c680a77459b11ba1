// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/ManuGH/syncd/internal/alarm"
	"github.com/ManuGH/syncd/internal/backup"
	"github.com/ManuGH/syncd/internal/booker"
	"github.com/ManuGH/syncd/internal/bus"
	"github.com/ManuGH/syncd/internal/config"
	"github.com/ManuGH/syncd/internal/connectivity"
	"github.com/ManuGH/syncd/internal/deleteditems"
	"github.com/ManuGH/syncd/internal/extsync"
	"github.com/ManuGH/syncd/internal/guard"
	"github.com/ManuGH/syncd/internal/ipc"
	syncdlog "github.com/ManuGH/syncd/internal/log"
	"github.com/ManuGH/syncd/internal/orchestrator"
	"github.com/ManuGH/syncd/internal/persistence/sqlite"
	"github.com/ManuGH/syncd/internal/pluginrunner/fake"
	"github.com/ManuGH/syncd/internal/profilestore"
	"github.com/ManuGH/syncd/internal/queue"
	"github.com/ManuGH/syncd/internal/retry"
	"github.com/ManuGH/syncd/internal/scheduler"
	"github.com/ManuGH/syncd/internal/soc"
	"github.com/ManuGH/syncd/internal/telemetry"
)

var (
	version = "v0.1.0"
	commit  = "none"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("syncd %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	syncdlog.Configure(syncdlog.Config{Level: "info", Service: "syncd", Version: version})
	logger := syncdlog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().Err(err).Str("event", "config.load_failed").Msg("failed to load configuration")
		os.Exit(-1)
	}

	syncdlog.Configure(syncdlog.Config{Level: cfg.LogLevel, Service: "syncd", Version: version})
	logger = syncdlog.WithComponent("main")
	logger.Info().Str("event", "startup").Str("version", version).Str("data_dir", cfg.DataDir).Msg("starting syncd")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logger.Error().Err(err).Str("event", "datadir.create_failed").Msg("cannot create data directory")
		os.Exit(-1)
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Error().Err(err).Str("event", "telemetry.init_failed").Msg("failed to initialize telemetry")
		os.Exit(-1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	// Guard: only one daemon instance may hold the lease for this data dir
	// (spec.md §6: "only one connection at a time per daemon instance").
	lock, err := newGuardLock(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str("event", "guard.backend_init_failed").Msg("failed to initialize guard backend")
		os.Exit(-1)
	}
	guardKey := cfg.Guard.RedisKey
	if guardKey == "" {
		guardKey = "syncd:" + cfg.DataDir
	}
	g := guard.New(lock, guardKey, cfg.Guard.Owner, cfg.Guard.TTL)
	if err := g.Acquire(ctx); err != nil {
		logger.Error().Err(err).Str("event", "guard.acquire_failed").Msg("another syncd instance holds the guard lease")
		os.Exit(-1)
	}
	go g.Maintain(ctx)
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = g.Release(releaseCtx)
	}()

	// Alarm inventory: the sqlite-mirrored min-heap backing the scheduler's
	// wake backend; alarm.Open empties the table, and the scheduler re-arms
	// alarms from profile state.
	alarmDB, err := sqlite.Open(filepath.Join(cfg.DataDir, "alarms.sqlite"), sqlite.DefaultConfig())
	if err != nil {
		logger.Error().Err(err).Str("event", "alarmdb.open_failed").Msg("cannot open alarm database")
		os.Exit(-1)
	}
	defer alarmDB.Close()
	alarmInv, err := alarm.Open(ctx, alarmDB)
	if err != nil {
		logger.Error().Err(err).Str("event", "alarminventory.open_failed").Msg("cannot open alarm inventory")
		os.Exit(-1)
	}
	defer alarmInv.Close()

	deletedItemsMgr := deleteditems.OpenManager(filepath.Join(cfg.DataDir, "deleteditems"))
	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "deleteditems"), 0o755); err != nil {
		logger.Error().Err(err).Str("event", "deleteditemsdir.create_failed").Msg("cannot create deleted-items directory")
		os.Exit(-1)
	}
	defer func() { _ = deletedItemsMgr.Close() }()

	extsyncReg, err := extsync.Open(filepath.Join(cfg.DataDir, "extsync.badger"))
	if err != nil {
		logger.Error().Err(err).Str("event", "extsync.open_failed").Msg("cannot open external-sync registry")
		os.Exit(-1)
	}
	defer extsyncReg.Close()

	profiles, err := profilestore.Open(filepath.Join(cfg.DataDir, "profiles"))
	if err != nil {
		logger.Error().Err(err).Str("event", "profilestore.open_failed").Msg("cannot open profile store")
		os.Exit(-1)
	}

	storeWatcher, err := connectivity.NewStoreWatcher(nil)
	if err != nil {
		logger.Error().Err(err).Str("event", "storewatcher.open_failed").Msg("cannot open storage watcher")
		os.Exit(-1)
	}
	for _, p := range profiles.All() {
		for _, storageName := range p.StorageNames {
			dir := filepath.Join(cfg.DataDir, "storage", storageName)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				continue
			}
			if err := storeWatcher.Watch(storageName, dir); err != nil {
				logger.Warn().Err(err).Str("storage", storageName).Msg("failed to watch storage directory")
			}
		}
	}

	eventBus := bus.NewMemoryBus()

	book := booker.New()
	sessionQueue := queue.New()
	retryPolicy := retry.NewPolicy(cfg.RetryMaxTries)

	wakeBackend := scheduler.NewAlarmBackend(ctx, alarmInv)
	sched := scheduler.New(wakeBackend, cfg.AllowScheduledSyncOverCellular)

	backupCoord := backup.New()
	// No transport probes are wired yet (spec.md places USB/Bluetooth/
	// Internet probing itself out of scope); the tracker starts offline
	// until a probe set is supplied, per its documented zero-probe default.
	tracker := connectivity.New(nil, nil)

	// soc.Coordinator's onFire must route into the same single-threaded
	// event loop that mutates session state (spec.md §4.5), so syncer is
	// forward-declared and the closure captures the pointer rather than a
	// value — it is only invoked after syncer is assigned below.
	var syncer *orchestrator.Synchronizer
	socCoord := soc.New(func(profileName string) {
		if syncer != nil {
			syncer.SOCTrigger(profileName)
		}
	})
	storeWatcher.OnChange(func(storageName string) {
		for _, p := range profiles.All() {
			for _, sn := range p.StorageNames {
				if sn == storageName {
					socCoord.AddProfile(p.Name, cfg.ProfileChangeCoalesce)
				}
			}
		}
	})
	go storeWatcher.Run(ctx)

	runner := fake.New()

	syncer = orchestrator.New(orchestrator.Config{
		Profiles:                       profiles,
		Bus:                            eventBus,
		Booker:                         book,
		Queue:                          sessionQueue,
		Scheduler:                      sched,
		Alarms:                         alarmInv,
		Backup:                         backupCoord,
		ExternalSync:                   extsyncReg,
		Connectivity:                   tracker,
		Runners:                        runner,
		Retry:                          retryPolicy,
		SOCCancel:                      socCoord.RemoveProfile,
		AllowScheduledSyncOverCellular: cfg.AllowScheduledSyncOverCellular,
		ProfileChangeCoalesce:          cfg.ProfileChangeCoalesce,
	})

	runCtx, cancelRun := context.WithCancel(ctx)
	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- syncer.Run(runCtx)
	}()

	ipcServer := ipc.New(ipc.Config{Sync: syncer, Bus: eventBus, DeletedItems: deletedItemsMgr})
	httpSrv := &http.Server{Addr: cfg.ListenAddr, Handler: ipcServer, ReadHeaderTimeout: 5 * time.Second}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}

	serveErrCh := make(chan error, 2)
	go func() {
		logger.Info().Str("event", "ipc.listen").Str("addr", cfg.ListenAddr).Msg("IPC surface listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- fmt.Errorf("ipc server: %w", err)
		}
	}()
	go func() {
		logger.Info().Str("event", "metrics.listen").Str("addr", cfg.MetricsAddr).Msg("metrics endpoint listening")
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErrCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	runStopped := false
	select {
	case <-ctx.Done():
		logger.Info().Str("event", "shutdown.signal").Msg("shutdown signal received")
	case err := <-g.Lost():
		logger.Error().Err(err).Str("event", "guard.lease_lost").Msg("guard lease lost, shutting down")
	case err := <-serveErrCh:
		logger.Error().Err(err).Str("event", "server.failed").Msg("a listener failed")
	case err := <-runErrCh:
		runStopped = true
		if err != nil {
			logger.Error().Err(err).Str("event", "orchestrator.failed").Msg("orchestrator event loop exited")
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = httpSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	cancelRun()
	if !runStopped {
		<-runErrCh
	}

	logger.Info().Str("event", "shutdown.complete").Msg("syncd exiting")
}

// newGuardLock builds the configured guard.Lock backend.
func newGuardLock(ctx context.Context, cfg config.Config) (guard.Lock, error) {
	switch cfg.Guard.Backend {
	case config.GuardRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Guard.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("guard: connect to redis: %w", err)
		}
		return guard.NewRedisLock(client), nil
	default:
		db, err := sqlite.Open(filepath.Join(cfg.DataDir, "guard.sqlite"), sqlite.DefaultConfig())
		if err != nil {
			return nil, err
		}
		return guard.OpenSqliteLock(ctx, db)
	}
}
