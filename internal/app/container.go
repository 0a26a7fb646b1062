// Package app wires configuration, infrastructure, and use-case handlers
// into a runnable service.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"github.com/frontdeskhq/frontdesk/internal/reception/application/commands"
	"github.com/frontdeskhq/frontdesk/internal/reception/application/queries"
	"github.com/frontdeskhq/frontdesk/internal/reception/application/services"
	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
	"github.com/frontdeskhq/frontdesk/internal/reception/infrastructure/persistence"
	"github.com/frontdeskhq/frontdesk/internal/reception/infrastructure/sweepcache"
	"github.com/frontdeskhq/frontdesk/internal/shared/infrastructure/eventbus"
	"github.com/frontdeskhq/frontdesk/internal/shared/infrastructure/migrations"
	"github.com/frontdeskhq/frontdesk/internal/shared/infrastructure/outbox"
	"github.com/frontdeskhq/frontdesk/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB          *pgxpool.Pool
	SQLiteDB    *sql.DB
	RedisClient *redis.Client

	// Repositories
	RequestRepo domain.RescheduleRequestRepository
	EventRepo   domain.AutomationEventRepository
	OutboxRepo  outbox.Repository

	// Publishers
	EventPublisher eventbus.Publisher

	// Services
	SweepExecutor   *services.SweepExecutor
	TenantDiscovery *services.TenantDiscovery
	SweepCache      *sweepcache.RedisCache

	// Handlers
	RunSweep    *commands.RunSweepHandler
	LatestSweep *queries.GetLatestSweepHandler
	ListOverdue *queries.ListOverdueRequestsHandler

	// Workers
	OutboxProcessor *outbox.Processor
}

// NewContainer creates a production container backed by PostgreSQL, with
// Redis and RabbitMQ degrading gracefully in development mode.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DB = pool
	logger.Info("connected to database")

	// Redis is optional: without it the latest-sweep cache is disabled.
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, sweep result cache disabled", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					pool.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, sweep result cache disabled", "error", err)
			} else {
				c.RedisClient = redisClient
				c.SweepCache = sweepcache.NewRedisCache(redisClient)
				logger.Info("connected to Redis")
			}
		}
	}

	c.RequestRepo = persistence.NewPostgresRescheduleRequestRepository(pool)
	c.EventRepo = persistence.NewPostgresAutomationEventRepository(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	c.wireHandlers()
	c.wireOutboxProcessor()

	return c, nil
}

// NewLocalContainer creates a container backed by a local SQLite database,
// for single-machine deployments and offline development. Events stay in
// the in-memory outbox; nothing is published externally.
func NewLocalContainer(ctx context.Context, dbPath string, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local database: %w", err)
	}
	if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	c := &Container{
		Config:         cfg,
		Logger:         logger,
		SQLiteDB:       db,
		RequestRepo:    persistence.NewSQLiteRescheduleRequestRepository(db),
		EventRepo:      persistence.NewSQLiteAutomationEventRepository(db),
		OutboxRepo:     outbox.NewInMemoryRepository(),
		EventPublisher: eventbus.NewNoopPublisher(logger),
	}

	c.wireHandlers()
	c.wireOutboxProcessor()

	logger.Info("local mode container ready", "db_path", dbPath)
	return c, nil
}

func (c *Container) wireHandlers() {
	c.SweepExecutor = services.NewSweepExecutor(c.RequestRepo, c.EventRepo, c.OutboxRepo, c.Logger)
	c.TenantDiscovery = services.NewTenantDiscovery(c.RequestRepo, c.Logger)

	var cache commands.SweepResultCache
	var reader queries.SweepResultReader
	if c.SweepCache != nil {
		cache = c.SweepCache
		reader = c.SweepCache
	}

	defaults := commands.SweepDefaults{
		MaxRows:     c.Config.SweepMaxRows,
		TenantLimit: c.Config.SweepTenantLimit,
		GraceWindow: c.Config.SweepGraceWindow,
	}

	c.RunSweep = commands.NewRunSweepHandler(c.SweepExecutor, c.TenantDiscovery, cache, defaults, c.Logger)
	c.LatestSweep = queries.NewGetLatestSweepHandler(reader)
	c.ListOverdue = queries.NewListOverdueRequestsHandler(c.RequestRepo)
}

func (c *Container) wireOutboxProcessor() {
	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = c.Config.OutboxPollInterval
	processorConfig.BatchSize = c.Config.OutboxBatchSize
	processorConfig.MaxRetries = c.Config.OutboxMaxRetries

	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, c.Logger)
}

// Close releases all container resources.
func (c *Container) Close() error {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("failed to close event publisher", "error", err)
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("failed to close Redis client", "error", err)
		}
	}
	if c.SQLiteDB != nil {
		if err := c.SQLiteDB.Close(); err != nil {
			c.Logger.Warn("failed to close local database", "error", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	return nil
}
