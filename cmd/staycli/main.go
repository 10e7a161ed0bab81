package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"staybook/internal/staycli"
	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/docstore/backend"
	"staybook/pkg/events"
	"staybook/pkg/logger"
	"staybook/pkg/session"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const ServiceName = "staycli"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := staycli.NewApp(open, os.Stdout)
	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func open(c *cli.Context) (*staycli.Env, error) {
	sessions := session.NewFileStore(c.String(staycli.FlagSessionFile))

	if server := c.String(staycli.FlagServer); server != "" {
		return &staycli.Env{
			Backend:  &staycli.RemoteBackend{API: client.NewAPI(server), Sessions: sessions},
			Sessions: sessions,
		}, nil
	}

	cfg := config.FromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:   logger.WARN,
		Format:  logger.TEXT,
		Output:  os.Stderr,
		Service: ServiceName,
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := backend.Open(c.Context, cfg)
	if err != nil {
		return nil, err
	}
	publisher, err := events.New(cfg.EventsEnabled, ServiceName, cfg.Log)
	if err != nil {
		cfg.GracefulShutdown()
		return nil, err
	}

	return &staycli.Env{
		Backend:  staycli.NewLocalBackend(store, sessions, publisher, cfg),
		Sessions: sessions,
		Close: func() {
			_ = publisher.Close()
			cfg.GracefulShutdown()
		},
	}, nil
}
