// Package main is the memberctl command-line tool: local role and user
// administration against the provider database, and a client for the
// remote membership console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinyakov/memberctl/internal/app"
	"github.com/atinyakov/memberctl/internal/command"
	"github.com/atinyakov/memberctl/internal/config"
	"github.com/atinyakov/memberctl/internal/logger"
)

// defaultConfigPath is read when present; CONFIG overrides it.
const defaultConfigPath = "memberctl.json"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(localRegistry).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// localRegistry loads configuration and opens the provider database.
func localRegistry(ctx context.Context) (*command.Registry, func(), error) {
	opts, err := config.Load(ctx, defaultConfigPath)
	if err != nil {
		return nil, nil, err
	}

	log := logger.New()
	if err := log.Init(opts.LogLevel); err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	conn, err := app.OpenProvider(opts, log.Log)
	if err != nil {
		_ = log.Log.Sync()
		return nil, nil, err
	}

	cleanup := func() {
		_ = conn.Close()
		_ = log.Log.Sync()
	}
	return app.NewRegistry(conn, opts, log.Log), cleanup, nil
}
