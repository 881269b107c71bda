package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/maktabaapp/maktaba-sync/pkg/config"
	"github.com/maktabaapp/maktaba-sync/pkg/connectivity"
	"github.com/maktabaapp/maktaba-sync/pkg/database"
	"github.com/maktabaapp/maktaba-sync/pkg/library"
	"github.com/maktabaapp/maktaba-sync/pkg/migrations"
	"github.com/maktabaapp/maktaba-sync/pkg/notify"
	"github.com/maktabaapp/maktaba-sync/pkg/remote"
	"github.com/maktabaapp/maktaba-sync/pkg/server"
	"github.com/maktabaapp/maktaba-sync/pkg/syncqueue"
	"github.com/maktabaapp/maktaba-sync/pkg/version"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

// settleDelay is how long a reconnect drain waits after the backend becomes
// reachable again, so the first burst of requests doesn't race the network
// stack coming back up.
const settleDelay = 2 * time.Second

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting maktaba-sync", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	client := remote.NewHTTPClient(cfg)
	store := syncqueue.NewSlotStore(db)
	notifier := notify.NewLogNotifier()
	monitor := connectivity.New(client, cfg.ProbeInterval)
	lib := library.NewService(db, client, monitor)
	synchronizer := syncqueue.NewSynchronizer(client)
	drainer := syncqueue.NewDrainer(store, synchronizer, monitor, lib, notifier)

	// A reconnect triggers a drain after a short settle delay, but only when
	// there is something to flush.
	monitor.Subscribe(func(online bool) {
		if !online {
			return
		}
		items, err := store.Read(context.Background())
		if err != nil || len(items) == 0 {
			return
		}
		log.Info("backend reachable again; scheduling drain", logger.Data{"pending": len(items)})
		drainer.ScheduleDrain(settleDelay, true)
	})

	srv, err := server.New(cfg, server.Dependencies{
		DB:       db,
		Store:    store,
		Drainer:  drainer,
		Online:   monitor,
		Library:  lib,
		Client:   client,
		Notifier: notifier,
	})
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		actualPort := listener.Addr().(*net.TCPAddr).Port
		log.Info("server started", logger.Data{"port": actualPort})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	monitor.Start()
	log.Info("connectivity monitor started", logger.Data{"probe_interval": cfg.ProbeInterval.String()})

	// Periodic retry drain for items that failed during earlier passes. These
	// passes are silent; only reconnect and manual drains notify the user.
	retryTicker := time.NewTicker(cfg.SyncInterval)
	retryDone := make(chan struct{})
	go func() {
		for {
			select {
			case <-retryDone:
				return
			case <-retryTicker.C:
				drainer.DrainAll(context.Background(), false)
			}
		}
	}()

	<-graceful
	log.Info("starting graceful shutdown")

	retryTicker.Stop()
	close(retryDone)

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	monitor.Shutdown()
	log.Info("connectivity monitor shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
