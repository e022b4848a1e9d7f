// Package main starts the membership console HTTPS server: configuration,
// logging, the provider database, the command registry, the router and
// mutual TLS.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/atinyakov/memberctl/internal/app"
	"github.com/atinyakov/memberctl/internal/config"
	"github.com/atinyakov/memberctl/internal/db"
	"github.com/atinyakov/memberctl/internal/logger"
	"github.com/atinyakov/memberctl/internal/server/handler/http"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	configPath := pflag.StringP("config", "c", "memberctl.json", "path to the JSON config file")
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options, err := config.Load(ctx, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	dsn, err := options.DefaultDSN()
	if err != nil {
		zapLogger.Fatal("no provider database configured", zap.Error(err))
	}
	providerDB, err := db.Connect(ctx, dsn)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer providerDB.Close()

	policy := app.Policy(options.Membership)
	db.StartAttemptWindowReset(ctx, providerDB,
		cmp.Or(policy.PasswordAttemptWindow/2, time.Minute), // interval
		policy.PasswordAttemptWindow,
		zapLogger,
	)

	registry := app.NewRegistry(providerDB, options, zapLogger)
	consoleHandler := &http.ConsoleHandler{Runner: registry, Log: zapLogger.Named("console")}
	router := http.NewRouter(consoleHandler, zapLogger)

	tlsConfig, err := serverTLS(options.CertDir)
	if err != nil {
		zapLogger.Fatal("failed to configure TLS", zap.Error(err))
	}

	server := &nethttp.Server{
		Addr:              options.Addr,
		Handler:           router,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	zapLogger.Info("starting HTTPS server", zap.String("addr", options.Addr))
	if err := server.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("failed to start HTTPS server", zap.Error(err))
	}
}

// serverTLS loads server.crt, server.key and ca.crt from dir. Client
// certificates are verified against the CA when presented; /api enforces them.
func serverTLS(dir string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"))
	if err != nil {
		return nil, fmt.Errorf("load server cert/key: %w", err)
	}

	caCert, err := os.ReadFile(filepath.Join(dir, "ca.crt"))
	if err != nil {
		return nil, fmt.Errorf("read CA cert: %w", err)
	}
	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return nil, fmt.Errorf("failed to append CA cert to pool")
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientAuth:   tls.VerifyClientCertIfGiven,
		ClientCAs:    caCertPool,
		MinVersion:   tls.VersionTLS12,
	}, nil
}
