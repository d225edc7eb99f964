package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/iamcalledrob/netutil"
	"github.com/iamcalledrob/netutil/internal/config"
	"github.com/iamcalledrob/netutil/internal/logger"
	"github.com/iamcalledrob/netutil/internal/reload"
	"github.com/iamcalledrob/netutil/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "netutil.yaml", "path to configuration file (YAML)")
		addr       = flag.String("addr", "", "address for the status server, overrides listen_addr")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.File); err != nil {
		logger.Fatalf("initialise logger: %v", err)
	}
	defer logger.Close()

	var published atomic.Pointer[server.Server]
	d := newDaemon(func(st netutil.Status) {
		if srv := published.Load(); srv != nil {
			srv.Publish(st)
		}
	})
	if err := d.apply(cfg); err != nil {
		logger.Fatalf("register network monitor: %v", err)
	}
	defer d.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ListenAddr != "" {
		srv, err := server.New(cfg.ListenAddr, d)
		if err != nil {
			logger.Fatalf("create server: %v", err)
		}
		published.Store(srv)
		go func() {
			logger.WithField("addr", cfg.ListenAddr).Info("status server listening")
			if err := srv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("status server failed")
				stop()
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("server shutdown")
			}
		}()
	}

	var changes <-chan struct{}
	if cfg.Reload {
		w, err := reload.NewConfigWatcher(*configPath, 0)
		if err != nil {
			logger.Fatalf("config watcher: %v", err)
		}
		changes, err = w.Start(ctx)
		if err != nil {
			logger.Fatalf("config watcher: %v", err)
		}
		defer w.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			reloadConfig(d, *configPath, *addr)
		}
	}
}

// reloadConfig re-reads the configuration and re-registers the monitor.
// The listen address cannot change without a restart.
func reloadConfig(d *daemon, path, addr string) {
	cfg, err := config.Load(path)
	if err != nil {
		logger.WithError(err).Error("reload config, keeping previous configuration")
		return
	}
	if addr != "" {
		cfg.ListenAddr = addr
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.File); err != nil {
		logger.WithError(err).Warn("reload logger settings")
	}
	if err := d.apply(cfg); err != nil {
		logger.WithError(err).Error("re-register network monitor")
		return
	}
	logger.Info("configuration reloaded")
}
