// Package main runs the DEX new-pair monitor: the refresh loop, its
// display surfaces and the HTTP control surface.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dex-pair-monitor/internal/blacklist"
	"dex-pair-monitor/internal/config"
	"dex-pair-monitor/internal/dashboard"
	"dex-pair-monitor/internal/dexscreener"
	"dex-pair-monitor/internal/monitor"
	"dex-pair-monitor/internal/publish"
	"dex-pair-monitor/internal/render"
	"dex-pair-monitor/internal/storage"
	"dex-pair-monitor/internal/storage/memory"
	"dex-pair-monitor/internal/storage/migrations"
	pgstore "dex-pair-monitor/internal/storage/postgres"
)

func newLogger(component string) *log.Logger {
	return log.New(os.Stdout, "["+component+"] ", log.LstdFlags|log.Lshortfile)
}

func main() {
	// Flags override values loaded from .env, environment and the config file.
	configPath := flag.String("config", "", "YAML config file")
	endpoint := flag.String("endpoint", "", "Upstream pair-list endpoint (DEX_ENDPOINT)")
	minLiquidity := flag.Float64("min-liquidity", 0, "Minimum liquidity in USD, exclusive (MIN_LIQUIDITY_USD)")
	maxAge := flag.Float64("max-age", 0, "Maximum pair age in minutes, inclusive (MAX_AGE_MINUTES)")
	refresh := flag.Int("refresh", 0, "Seconds between refresh cycles (REFRESH_SECONDS)")
	fetchTimeout := flag.Duration("fetch-timeout", 0, "Upstream request timeout (FETCH_TIMEOUT)")
	httpAddr := flag.String("http-addr", "", "HTTP control surface address (HTTP_ADDR)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (POSTGRES_DSN)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory blacklist storage even if a DSN is set")
	natsURL := flag.String("nats-url", "", "NATS server URL, empty disables publishing (NATS_URL)")
	natsSubject := flag.String("nats-subject", "", "NATS subject for render events (NATS_SUBJECT)")
	autostart := flag.Bool("autostart", false, "Start monitoring immediately (AUTOSTART)")
	terminal := flag.Bool("terminal", true, "Draw cycles on stdout (TERMINAL)")

	flag.Parse()

	logger := newLogger("main")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "endpoint":
			cfg.Endpoint = *endpoint
		case "min-liquidity":
			cfg.MinLiquidityUSD = *minLiquidity
		case "max-age":
			cfg.MaxAgeMinutes = *maxAge
		case "refresh":
			cfg.RefreshSeconds = *refresh
		case "fetch-timeout":
			cfg.FetchTimeout = *fetchTimeout
		case "http-addr":
			cfg.HTTPAddr = *httpAddr
		case "postgres-dsn":
			cfg.PostgresDSN = *postgresDSN
		case "nats-url":
			cfg.NATSURL = *natsURL
		case "nats-subject":
			cfg.NATSSubject = *natsSubject
		case "autostart":
			cfg.AutoStart = *autostart
		case "terminal":
			cfg.Terminal = *terminal
		}
	})
	if *useMemory {
		cfg.PostgresDSN = ""
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, cleanup, err := createStore(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		logger.Fatalf("Failed to create store: %v", err)
	}
	defer cleanup()

	guard := blacklist.NewGuard(store, newLogger("blacklist"))
	if err := guard.Sync(ctx); err != nil {
		logger.Fatalf("Failed to load blacklist: %v", err)
	}

	recorder := render.NewRecorder()
	hub := dashboard.NewHub(recorder.Frame, newLogger("dashboard"))
	surfaces := render.Fanout{recorder, hub}
	if cfg.Terminal {
		surfaces = append(surfaces, render.NewTerminal(os.Stdout))
	}
	if cfg.NATSURL != "" {
		nc, err := publish.Connect(cfg.NATSURL, publish.ConnectOptions{Logger: newLogger("nats")})
		if err != nil {
			logger.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer nc.Drain()
		surfaces = append(surfaces, publish.NewPublisher(nc, cfg.NATSSubject, newLogger("nats")))
		logger.Printf("Publishing render events to %s on %s", cfg.NATSSubject, cfg.NATSURL)
	}

	client := dexscreener.NewClient(
		dexscreener.WithTimeout(cfg.FetchTimeout),
		dexscreener.WithMaxRetries(cfg.FetchRetries),
	)

	mon := monitor.New(monitor.Options{
		Source:    client,
		Surface:   surfaces,
		Blacklist: guard,
		Alerts:    monitor.NewAlertLog(cfg.AlertCapacity),
		Config:    cfg.Monitor(),
		Logger:    newLogger("monitor"),
	})

	server := dashboard.NewServer(dashboard.Options{
		Controller: mon,
		Alerts:     mon.Alerts(),
		Blacklist:  guard,
		Frames:     recorder,
		Hub:        hub,
		Logger:     newLogger("dashboard"),
	})

	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- server.ListenAndServe(ctx, cfg.HTTPAddr)
	}()

	if cfg.AutoStart {
		if err := mon.Start(nil); err != nil {
			logger.Fatalf("Failed to start monitoring: %v", err)
		}
	} else {
		logger.Printf("Idle; POST %s/start to begin monitoring", cfg.HTTPAddr)
	}

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- mon.Run(ctx)
	}()

	err = awaitShutdown(cancel, loopErr, httpErr, logger)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Monitor error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// awaitShutdown waits for the first of the loop and the HTTP server to exit,
// cancels the other and waits for it too, so deferred store and NATS cleanup
// runs only after in-flight handlers have finished. The loop's error wins.
func awaitShutdown(cancel context.CancelFunc, loopErr, httpErr <-chan error, logger *log.Logger) error {
	select {
	case err := <-loopErr:
		cancel()
		if httpShutdownErr := <-httpErr; httpShutdownErr != nil {
			logger.Printf("HTTP server shutdown: %v", httpShutdownErr)
		}
		return err
	case err := <-httpErr:
		cancel()
		<-loopErr
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

// createStore creates the blacklist store: PostgreSQL when dsn is set, memory otherwise.
func createStore(ctx context.Context, dsn string, logger *log.Logger) (storage.BlacklistStore, func(), error) {
	if dsn == "" {
		logger.Println("Using in-memory blacklist storage")
		return memory.NewBlacklistStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	logger.Println("Using PostgreSQL blacklist storage")
	return pgstore.NewBlacklistStore(pool), pool.Close, nil
}
