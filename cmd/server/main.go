package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"rollcall/internal/app"
	"rollcall/internal/config"
	"rollcall/internal/engine"
	"rollcall/internal/event"
	"rollcall/internal/eventbus"
	"rollcall/internal/field"
	"rollcall/internal/server"
	"rollcall/internal/session"
	"rollcall/internal/store"
	"rollcall/internal/store/hosted"
	"rollcall/internal/store/local"
	"rollcall/internal/store/memory"
	"rollcall/internal/worker"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config YAML")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := app.NewLogger(cfg.Log)

	registry := field.Default()

	st, cleanup, err := openStore(ctx, cfg.Store, registry)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	log.Info("record store ready", "backend", cfg.Store.Backend)

	audit := event.NewRecorder(256)
	bus := eventbus.New(256, log)
	bus.Subscribe("log", eventbus.NewLogConsumer(log))
	bus.Subscribe("audit", audit)
	bus.Start(ctx)
	defer bus.Wait()

	sessions := session.NewManager(cfg.Session.MaxAge, cfg.Session.IdleTimeout)
	go worker.NewJanitor(sessions, cfg.Session.CleanupInterval, log).Run(ctx)

	eng := engine.New(registry, sessions, st, bus, log)

	return server.Run(ctx, server.Deps{
		Config:   cfg.Server,
		Registry: registry,
		Engine:   eng,
		Store:    st,
		Audit:    audit,
		Log:      log,
	})
}

// openStore builds the configured record-store backend. The returned
// cleanup closes backend resources, and may be nil.
func openStore(ctx context.Context, cfg config.StoreConfig, registry *field.Registry) (store.Client, func(), error) {
	switch cfg.Backend {
	case "hosted":
		c := hosted.New(hosted.Config{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Timeout: cfg.Timeout,
		}, registry)
		return c, nil, nil
	case "local":
		s, err := local.Open(ctx, cfg.Path, registry)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "memory":
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
