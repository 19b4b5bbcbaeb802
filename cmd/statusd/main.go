package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/leengari/statusd/internal/catalog"
	"github.com/leengari/statusd/internal/config"
	"github.com/leengari/statusd/internal/engine"
	"github.com/leengari/statusd/internal/logging"
	"github.com/leengari/statusd/internal/network"
	"github.com/leengari/statusd/internal/state"
)

func main() {
	configPath := flag.String("config", "/etc/statusd/statusd.yaml", "path to the configuration file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "statusd:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, closeFn, err := logging.SetupLogger(logging.Options{
		Level:  cfg.Log.Level,
		SeqURL: cfg.Log.SeqURL,
	})
	if err != nil {
		return err
	}
	defer closeFn()
	slog.SetDefault(logger)

	slog.Info("Starting statusd...", "config", configPath)

	cfgStore := config.NewStore(configPath, cfg)
	st := state.NewStore()
	if err := loadState(st, cfg.StateFile); err != nil {
		return err
	}

	db, err := catalog.New(st, cfgStore)
	if err != nil {
		return fmt.Errorf("failed to build tables: %w", err)
	}
	eng := engine.New(db)
	eng.AddObserver(engine.NewLoggingObserver())
	srv := network.NewServer(eng, st.User)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Listen)
	})
	g.Go(func() error {
		reloadOnHangup(ctx, cfgStore, st)
		return nil
	})

	err = g.Wait()
	slog.Info("Shutting down")
	return err
}

func loadState(st *state.Store, path string) error {
	if path == "" {
		slog.Warn("no state file configured, serving empty tables")
		return nil
	}
	snap, err := state.Load(path)
	if err != nil {
		return err
	}
	return st.Replace(snap)
}

// reloadOnHangup rereads configuration and state on SIGHUP. Failed reloads
// keep the previous values.
func reloadOnHangup(ctx context.Context, cfgStore *config.Store, st *state.Store) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := cfgStore.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			if err := loadState(st, cfgStore.Current().StateFile); err != nil {
				slog.Error("state reload failed", "error", err)
				continue
			}
			slog.Info("reloaded configuration and state")
		}
	}
}
