// Package app wires the alarm engine together and runs it.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Raimguhinov/alarm-go/internal/audio"
	"github.com/Raimguhinov/alarm-go/internal/civil"
	"github.com/Raimguhinov/alarm-go/internal/config"
	"github.com/Raimguhinov/alarm-go/internal/notify"
	"github.com/Raimguhinov/alarm-go/internal/scheduler"
	storagememory "github.com/Raimguhinov/alarm-go/internal/storage/memory"
	storagepg "github.com/Raimguhinov/alarm-go/internal/storage/postgres"
	"github.com/Raimguhinov/alarm-go/internal/usecase"
	"github.com/Raimguhinov/alarm-go/pkg/httpserver"
	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/Raimguhinov/alarm-go/pkg/postgres"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) {
	l := logger.New(cfg.Log.Level, cfg.App.Env)

	deviceLoc := time.Local
	if cfg.Scheduler.DeviceTimezone != "" {
		loc, err := civil.LoadZone(cfg.Scheduler.DeviceTimezone)
		if err != nil {
			l.Error("app - Run: bad device timezone, using system zone", logger.Err(err))
		} else {
			deviceLoc = loc
		}
	}

	// Repository
	var repo usecase.AlarmRepository
	switch cfg.Storage.Mode {
	case "postgres":
		pg, err := postgres.New(context.TODO(), l, cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
		if err != nil {
			l.Error(fmt.Sprintf("app - Run - postgres.New: %v", err))
			return
		}
		defer pg.Close()
		if err := storagepg.EnsureSchema(context.TODO(), pg); err != nil {
			l.Error(fmt.Sprintf("app - Run - EnsureSchema: %v", err))
			return
		}
		repo = storagepg.NewRepository(pg, l)
	default:
		repo = storagememory.NewRepository()
	}

	// Scheduling core
	center := notify.NewCenter(l, deviceLoc,
		notify.WithTick(cfg.Scheduler.Tick),
		notify.WithPermission(cfg.Scheduler.PermissionGranted),
	)
	session := scheduler.NewSession()
	planner := scheduler.NewPlanner(center, center.Location, l)

	var ringer audio.Ringer = audio.Noop{}
	if cfg.Audio.Sound != "" {
		player, err := audio.NewPlayer(l, cfg.Audio.Sound)
		if err != nil {
			l.Warn("app - Run: audio disabled", logger.Err(err))
		} else {
			ringer = player
		}
	}

	chain := scheduler.NewChain(center, session, ringer,
		cfg.Scheduler.ChainInterval, cfg.Scheduler.ChainSweepLimit, l)
	alarms := usecase.NewAlarms(repo, planner, chain, session, center,
		cfg.Scheduler.DefaultTimezone, l)

	// Dispatcher and delivery pump
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return center.Run(gctx) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case d := <-center.Events():
				alarms.Delivered(gctx, d)
			}
		}
	})

	if !center.RequestPermission(ctx) {
		l.Warn("app - Run: scheduling permission not granted, alarms will stay silent")
	}

	// Rebuild the schedule from persisted records and catch a delivery
	// missed just before startup.
	if err := alarms.ReplanAll(ctx); err != nil {
		l.Error("app - Run - alarms.ReplanAll", logger.Err(err))
	}
	alarms.CatchUp(ctx, cfg.Scheduler.CatchUpWindow)

	// HTTP Server
	router := SetupRouter(l, alarms, center, cfg)
	httpServer := httpserver.New(router, httpserver.Port(cfg.HTTP.Port))

	l.Info("app - Run: started",
		"version", cfg.App.Version, "port", cfg.HTTP.Port, "device_tz", deviceLoc.String())

	// Waiting signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: " + s.String())
	case err := <-httpServer.Notify():
		l.Error(fmt.Sprintf("app - Run - httpServer.Notify: %v", err))
	}

	// Shutdown
	cancel()
	if err := httpServer.Shutdown(); err != nil {
		l.Error(fmt.Sprintf("app - Run - httpServer.Shutdown: %v", err))
	}
	_ = g.Wait()
}
