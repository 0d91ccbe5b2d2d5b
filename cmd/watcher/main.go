package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solana-mint-watch/internal/bootstrap"
	"solana-mint-watch/internal/metadata"
	"solana-mint-watch/internal/notify"
	"solana-mint-watch/internal/observability"
	"solana-mint-watch/internal/registry"
	"solana-mint-watch/internal/scanner"
	"solana-mint-watch/internal/solana"
	"solana-mint-watch/internal/storage"
	chstore "solana-mint-watch/internal/storage/clickhouse"
	"solana-mint-watch/internal/storage/memory"
	pgstore "solana-mint-watch/internal/storage/postgres"
	"solana-mint-watch/internal/watcher"
)

func main() {
	// Load .env file if present
	loadEnvFile()

	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional, tip observation only)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional, detection archive)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	checkInterval := flag.Duration("check-interval", 5*time.Minute, "Interval between scan cycles")
	lookback := flag.Int64("lookback", 100, "Number of trailing slots to scan each cycle")
	fetchWorkers := flag.Int("fetch-workers", 8, "Concurrent block fetches per cycle")
	telegramToken := flag.String("telegram-token", os.Getenv("BOT_TOKEN"), "Telegram bot token (optional)")
	telegramChatID := flag.String("telegram-chat-id", os.Getenv("CHAT_ID"), "Telegram chat ID (optional)")
	jupiterURL := flag.String("jupiter-url", bootstrap.DefaultJupiterURL, "Jupiter token list URL for bootstrap (empty to disable)")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")

	flag.Parse()

	logger := log.New(os.Stdout, "[watcher] ", log.LstdFlags|log.Lshortfile)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err := run(ctx, logger, runConfig{
		rpcEndpoint:    *rpcEndpoint,
		wsEndpoint:     *wsEndpoint,
		postgresDSN:    *postgresDSN,
		clickhouseDSN:  *clickhouseDSN,
		useMemory:      *useMemory,
		checkInterval:  *checkInterval,
		lookback:       *lookback,
		fetchWorkers:   *fetchWorkers,
		telegramToken:  *telegramToken,
		telegramChatID: *telegramChatID,
		jupiterURL:     *jupiterURL,
	})

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// runConfig carries the resolved flag values into run.
type runConfig struct {
	rpcEndpoint    string
	wsEndpoint     string
	postgresDSN    string
	clickhouseDSN  string
	useMemory      bool
	checkInterval  time.Duration
	lookback       int64
	fetchWorkers   int
	telegramToken  string
	telegramChatID string
	jupiterURL     string
}

// run wires the storage, bootstrap, scanner, and sinks, then blocks in
// the watch loop until the context is cancelled.
func run(ctx context.Context, logger *log.Logger, cfg runConfig) error {
	if cfg.rpcEndpoint == "" {
		return fmt.Errorf("--rpc-endpoint is required")
	}

	rpc := solana.NewHTTPClient(cfg.rpcEndpoint)

	// Require --postgres-dsn unless --use-memory is explicitly set
	if !cfg.useMemory && cfg.postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	var eventStore storage.MintEventStore = memory.NewMintEventStore()
	if !cfg.useMemory {
		pool, err := pgstore.NewPool(ctx, cfg.postgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		eventStore = pgstore.NewMintEventStore(pool)
	}

	// Bootstrap the known-mint registry. Any source failure is fatal:
	// scanning against a partial snapshot would re-announce old tokens.
	var sources []bootstrap.SnapshotSource
	if cfg.jupiterURL != "" {
		sources = append(sources, bootstrap.NewJupiterSource(cfg.jupiterURL))
	}
	sources = append(sources, bootstrap.NewStoreSource(eventStore))

	mints, err := bootstrap.Load(ctx, logger, sources...)
	if err != nil {
		return fmt.Errorf("bootstrap known mints: %w", err)
	}

	known := registry.New()
	known.AddAll(mints)
	observability.UpdateKnownMints(known.Len())
	logger.Printf("Bootstrap complete: %d known mints", known.Len())

	// Assemble sinks
	enricher := metadata.NewEnricher(rpc)

	sinks := []notify.Sink{
		notify.NewConsoleSink(logger),
		notify.NewStoreSink(eventStore),
	}

	if cfg.telegramToken != "" && cfg.telegramChatID != "" {
		sinks = append(sinks, notify.NewTelegramSink(cfg.telegramToken, cfg.telegramChatID,
			notify.WithMetadata(enricher),
			notify.WithTelegramLogger(logger),
		))
		logger.Println("Telegram notifications enabled")
	}

	if cfg.clickhouseDSN != "" {
		conn, err := chstore.NewConn(ctx, cfg.clickhouseDSN)
		if err != nil {
			return fmt.Errorf("connect to clickhouse: %w", err)
		}
		defer conn.Close()

		sinks = append(sinks, notify.NewArchiveSink(chstore.NewMintEventArchive(conn)))
		logger.Println("ClickHouse archive enabled")
	}

	// Optional websocket slot observer. Detection stays poll-driven; the
	// subscription only feeds the observed-tip gauge.
	if cfg.wsEndpoint != "" {
		sub, err := solana.NewSlotSubscriber(ctx, cfg.wsEndpoint, nil)
		if err != nil {
			return fmt.Errorf("subscribe to slot updates: %w", err)
		}
		defer sub.Close()

		go func() {
			for update := range sub.Updates() {
				observability.UpdateObservedSlot(update.Slot)
			}
		}()
		logger.Println("Slot subscription enabled")
	}

	scan := scanner.New(scanner.Options{
		RPC:          rpc,
		Registry:     known,
		Lookback:     cfg.lookback,
		FetchWorkers: cfg.fetchWorkers,
		Logger:       logger,
	})

	w := watcher.New(watcher.Options{
		Scanner:       scan,
		Sinks:         sinks,
		CheckInterval: cfg.checkInterval,
		Logger:        logger,
	})

	return w.Run(ctx)
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
