package cmd

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"creditbot/bot"
	"creditbot/config"
	"creditbot/database"
	"creditbot/events"
	"creditbot/infrastructure"
	"creditbot/lookup"
	"creditbot/repository"
	"creditbot/service"
	"creditbot/session"
)

// drainTimeout bounds how long in-flight updates may run after shutdown starts
const drainTimeout = 30 * time.Second

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	log.WithField("environment", cfg.Environment).Info("Starting credit bot...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("Closing database connection...")
		db.Close()
	}()
	log.Info("Database connection established successfully")

	if err := database.MigrateUp(cfg.GetDatabaseURL()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Initialize event bus
	eventBus := events.NewBus()

	// Optional NATS publishing of committed ledger events
	if cfg.NATSServers != "" {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Close()

		if err := natsClient.EnsureStream(infrastructure.LedgerStreamName, infrastructure.LedgerSubjects()); err != nil {
			return fmt.Errorf("failed to ensure NATS stream: %w", err)
		}
		infrastructure.NewNATSEventPublisher(natsClient).Attach(eventBus)
		log.Info("Ledger events are published to NATS")
	}

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Conversation sessions
	sessions, stopSessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer stopSessions()

	// Initialize services
	log.Info("Initializing services...")
	ledgerService := service.NewLedgerService(uowFactory, service.WithStoreTimeout(cfg.StoreTimeout))
	reportService := service.NewReportService(uowFactory, cfg.StoreTimeout)
	accessService := service.NewAccessService(uowFactory, cfg.OwnerID, cfg.AdminIDs, cfg.StoreTimeout)
	if err := accessService.SyncStaticAdmins(ctx); err != nil {
		log.WithError(err).Warn("Failed to sync configured admins")
	}

	lookupClient := lookup.NewClient(cfg.LookupAPIs, cfg.LookupTimeout)
	lookupService := lookup.NewService(ledgerService, accessService, lookupClient)
	log.WithField("categories", cfg.Categories()).Info("Services initialized successfully")

	// Initialize Telegram bot
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.WithField("username", api.Self.UserName).Info("Authorized on Telegram")

	botConfig := bot.Config{
		Username:            api.Self.UserName,
		Categories:          cfg.Categories(),
		LogChannels:         cfg.LogChannels,
		ForceJoinChannels:   cfg.ForceJoinChannels,
		ForceJoinLinks:      cfg.ForceJoinLinks,
		WebhookURL:          cfg.WebhookURL,
		WebhookPath:         cfg.WebhookPath,
		WebhookSecret:       cfg.WebhookSecret,
		ListenAddr:          cfg.ListenAddr,
		MaintenanceInterval: cfg.MaintenanceInterval,
	}
	telegramBot := bot.New(botConfig, api, ledgerService, reportService, accessService, lookupService, sessions, eventBus)

	// Start background workers
	stopSweeper := telegramBot.StartExpirySweeper(ctx, botConfig.MaintenanceInterval)
	defer stopSweeper()

	runErr := telegramBot.Run(ctx, api)

	// Cleanup resources
	log.Info("Shutting down bot...")
	if !telegramBot.Wait(drainTimeout) {
		log.Warn("Shutdown timeout exceeded with updates still in flight")
	} else {
		log.Info("Shutdown completed")
	}
	return runErr
}

// newSessionStore returns the Redis store when REDIS_URL is set and the in-memory
// store otherwise, with a function releasing its resources.
func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.RedisURL != "" {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("Using Redis session store")
		return infrastructure.NewRedisSessionStore(rdb, cfg.SessionTTL), func() { _ = rdb.Close() }, nil
	}

	store := session.NewMemoryStore(cfg.SessionTTL)
	stop := store.StartCleanupWorker(ctx, time.Minute)
	log.Info("Using in-memory session store")
	return store, stop, nil
}
