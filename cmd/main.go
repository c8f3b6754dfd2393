package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chat-live/contract"
	"chat-live/identity"
	"chat-live/internal"
	"chat-live/observability"
	"chat-live/repositories"
	"chat-live/runtime"
	"chat-live/runtime/workers"
	"chat-live/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before the process
// exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository failed: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()

	// 3. Identity resolution
	resolver, err := buildResolver(config, log)
	if err != nil {
		return err
	}

	// 4. Router & registries
	monitoring := observability.NewMonitoringManager()
	presence := runtime.NewPresenceRegistry()
	hub := runtime.NewHub(log, runtime.NewRegistry(), presence,
		runtime.NewActiveChannelRegistry(), messageRepository, monitoring,
		config.HistoryPageSize)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewPresenceSweeper(log, presence, config.SweepInterval, config.PresenceRetention),
		workers.NewTelemetryWorker(log, hub, config.TelemetryInterval),
	)
	go sup.Run(ctx)

	// 7. HTTP server hosting the WebSocket endpoint
	if config.DebugPort > 0 {
		internal.StartDebugServer(log, db, config.DebugPort, hub.Stats)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(log, hub, resolver, monitoring, config.ConnectionBufferSize))

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 9. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

func buildResolver(config Config, log *slog.Logger) (contract.IdentityResolver, error) {
	switch config.AuthMode {
	case "service":
		if config.AuthServiceURL == "" {
			return nil, fmt.Errorf("AUTH_SERVICE_URL is required in service auth mode")
		}
		log.Info("Using identity service", "url", config.AuthServiceURL)
		return identity.NewBridge(config.AuthServiceURL, config.AuthTimeout, log), nil
	case "local":
		log.Info("Using local token validation")
		return identity.NewLocalResolver(config.LocalAuthSecret)
	default:
		return nil, fmt.Errorf("unknown AUTH_MODE %q", config.AuthMode)
	}
}
