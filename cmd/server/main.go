package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-sync/auth"
	"chat-sync/infrastructure/rest"
	"chat-sync/internal"
	"chat-sync/moderation"
	"chat-sync/observability"
	"chat-sync/repositories"
	"chat-sync/runtime/workers"
	"chat-sync/services"
	"chat-sync/storage"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns their lifecycle, so that deferred
// cleanups execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.WARNING)
	if config.BadgerInMemory {
		options = badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.WARNING)
	}
	db, err := badger.Open(options)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	store := storage.NewStore(db, log, uint64(config.SequenceBandwidth))
	defer func() { _ = store.Close() }()

	// 3. Repositories & services
	userRepository := repositories.NewUserRepository(store, log)
	chatRepository := repositories.NewChatRepository(store, log)
	if err = userRepository.EnsureSeed(); err != nil {
		return fmt.Errorf("seeding users failed: %w", err)
	}
	if err = chatRepository.EnsureSeed(); err != nil {
		return fmt.Errorf("seeding chats failed: %w", err)
	}

	sessions := auth.NewSessions(auth.NewTokens(config.SessionSecret, config.SessionDuration), config.CurrentUserID)
	chatService := services.NewChatService(userRepository, chatRepository, log, config.MaxPageSize)
	if words := config.CensoredWordList(); len(words) > 0 {
		moderator, err := moderation.NewModerator(words, '*', log)
		if err != nil {
			return fmt.Errorf("moderator build failed: %w", err)
		}
		chatService.WithCensor(moderator)
		log.Info("Message moderation enabled", "words", len(words))
	}
	authService := services.NewAuthService(userRepository, sessions, log)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	monitor := observability.NewMonitor(log, config.MonitorInterval)
	supervisor := workers.NewSupervisor(log)
	supervisor.Start(ctx, monitor)
	defer func() {
		stop()
		supervisor.Wait()
	}()

	if config.DebugPort != nil {
		internal.StartDebugServer(ctx, db, monitor, *config.DebugPort, log)
	}

	// 6. HTTP server
	server := rest.NewServer(rest.Config{
		Prefix:          config.APIPrefix,
		SessionDuration: config.SessionDuration,
		Monitor:         monitor,
	}, chatService, authService, sessions, log)

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", config.Address(), "at", time.Now().UTC())
		if err := server.Listen(config.Address()); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	if err = server.Shutdown(); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	log.Info("Program stopped cleanly")
	return nil
}
