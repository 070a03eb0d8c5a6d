package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imamteguh/backend-fullstack-taskman/internal/abuse"
	"github.com/imamteguh/backend-fullstack-taskman/internal/auth"
	"github.com/imamteguh/backend-fullstack-taskman/internal/config"
	"github.com/imamteguh/backend-fullstack-taskman/internal/database"
	"github.com/imamteguh/backend-fullstack-taskman/internal/event"
	handler "github.com/imamteguh/backend-fullstack-taskman/internal/handler/http"
	"github.com/imamteguh/backend-fullstack-taskman/internal/health"
	"github.com/imamteguh/backend-fullstack-taskman/internal/httpclient"
	"github.com/imamteguh/backend-fullstack-taskman/internal/kafka"
	"github.com/imamteguh/backend-fullstack-taskman/internal/notify"
	"github.com/imamteguh/backend-fullstack-taskman/internal/repository/postgres"
	"github.com/imamteguh/backend-fullstack-taskman/internal/service"
	"github.com/imamteguh/backend-fullstack-taskman/migrations"
)

// App wires together all dependencies and runs the taskman backend.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	producer   *kafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// PostgreSQL connection pool with startup retry.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis backs the abuse shield. Registration still works without it,
	// just without rate limiting.
	var shield abuse.Shield = abuse.NoopShield{}
	redisCfg := database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}
	redisClient, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		logger.Warn("redis unavailable, abuse shield disabled",
			slog.String("error", err.Error()),
		)
	} else {
		shield = abuse.NewRedisShield(
			redisClient,
			cfg.ShieldMaxAttempts,
			time.Duration(cfg.ShieldWindowSecs)*time.Second,
			logger,
		)
	}

	// Kafka producer for domain events.
	producer := kafka.NewProducer(kafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Outbound email. Without a configured provider the links are logged,
	// which is how local development reads its verification tokens.
	var mailer notify.Mailer
	if cfg.MailAPIURL != "" {
		mailClient := httpclient.New(httpclient.DefaultConfig())
		cbClient := httpclient.NewCircuitBreakerClient(
			mailClient,
			httpclient.DefaultCircuitBreakerConfig("mail"),
			logger,
		)
		mailer = notify.NewAPIMailer(cbClient, cfg.MailAPIURL, cfg.MailAPIToken, cfg.MailFrom, logger)
	} else {
		logger.Warn("MAIL_API_URL not set, emails will be logged instead of sent")
		mailer = notify.NewLogMailer(logger)
	}

	// Build the dependency graph.
	codec := auth.NewTokenCodec(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(0)
	accountRepo := postgres.NewAccountRepository(pool)
	tokenRepo := postgres.NewTokenRepository(pool)
	inviteRepo := postgres.NewInviteRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	projectRepo := postgres.NewProjectRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	tokenService := service.NewTokenService(tokenRepo, codec, logger)
	identityService := service.NewIdentityService(
		accountRepo, tokenService, codec, hasher, shield, mailer, eventProducer, cfg.FrontendURL, logger,
	)
	workspaceService := service.NewWorkspaceService(
		workspaceRepo, projectRepo, taskRepo, inviteRepo, accountRepo,
		codec, mailer, eventProducer, cfg.FrontendURL, logger,
	)

	// Health checks. Kafka and redis are non-critical: the API serves
	// requests without them, in degraded mode.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	router := handler.NewRouter(identityService, workspaceService, healthHandler, logger, handler.CORSConfig{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Environment:    cfg.Environment,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: drain in-flight HTTP
// requests first, then close the Kafka producer and the database pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
