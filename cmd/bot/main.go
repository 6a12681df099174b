package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chimecord/chime/internal/config"
	"github.com/chimecord/chime/internal/datalayer"
	"github.com/chimecord/chime/internal/delivery"
	"github.com/chimecord/chime/internal/dispatch"
	"github.com/chimecord/chime/internal/generator"
	"github.com/chimecord/chime/internal/handler"
	"github.com/chimecord/chime/internal/manager"
	"github.com/chimecord/chime/internal/repository"
	"github.com/chimecord/chime/internal/throttle"
)

func runBotForever() error {
	if err := config.LoadEnv(); err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No .env file found, continuing without it")
		} else {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := datalayer.NewPostgresPoolFromEnv(ctx)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer pool.Close()

	if err := datalayer.MigratePostgres(pool); err != nil {
		return fmt.Errorf("failed to migrate postgres: %w", err)
	}

	discordConfig, err := config.NewDiscordConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load discord config: %w", err)
	}

	dispatchConfig, err := config.NewDispatchConfigFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load dispatch config: %w", err)
	}

	chimeRepository := repository.NewPostgresChimeRepository(pool)
	chimeManager := manager.New(chimeRepository, generator.UUIDV4Generator{})

	// Shared between the dispatcher (which consults it on failures) and the
	// alerts subcommands (which pause, resume, and inspect it).
	alerts := throttle.New(dispatchConfig.NotifyWindow, delivery.Kind)

	session, err := handler.NewSession(discordConfig.Token, handler.Handlers{
		Ready:             handler.ReadyLog,
		InteractionCreate: handler.MakeInteractionCreateHandler(chimeManager, alerts),
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			slog.Warn("failed to close session", "error", err)
		}
	}()

	if err := handler.EstablishCommands(session, ""); err != nil {
		return fmt.Errorf("failed to establish commands: %w", err)
	}

	var notifier dispatch.Notifier = dispatch.LogNotifier{}
	if discordConfig.OpsChannelID != "" {
		notifier = delivery.NewDiscordNotifier(session, discordConfig.OpsChannelID)
	}

	dispatcher := dispatch.New(
		chimeRepository,
		delivery.NewDiscordDeliverer(session),
		alerts,
		notifier,
		dispatch.Config{
			PollInterval:    dispatchConfig.PollInterval,
			MinSleep:        dispatchConfig.MinSleep,
			MaxSleep:        dispatchConfig.MaxSleep,
			DeliveryTimeout: dispatchConfig.DeliveryTimeout,
			FailureLimit:    dispatchConfig.FailureLimit,
		},
	)

	return dispatcher.Run(ctx)
}

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	if err := runBotForever(); err != nil {
		slog.Error("Bot encountered an error", slog.Any("error", err))
		os.Exit(1)
	}
}
