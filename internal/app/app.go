package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/HarryOhm33/We-Hack/internal/auth"
	"github.com/HarryOhm33/We-Hack/internal/config"
	"github.com/HarryOhm33/We-Hack/internal/event"
	handler "github.com/HarryOhm33/We-Hack/internal/handler/http"
	"github.com/HarryOhm33/We-Hack/internal/repository/postgres"
	"github.com/HarryOhm33/We-Hack/internal/repository/redisstore"
	"github.com/HarryOhm33/We-Hack/internal/scoring"
	"github.com/HarryOhm33/We-Hack/internal/service"
	"github.com/HarryOhm33/We-Hack/migrations"
	"github.com/HarryOhm33/We-Hack/pkg/database"
	"github.com/HarryOhm33/We-Hack/pkg/health"
	pkgkafka "github.com/HarryOhm33/We-Hack/pkg/kafka"
	"github.com/HarryOhm33/We-Hack/pkg/middleware"
	"github.com/HarryOhm33/We-Hack/pkg/tracing"
)

// sessionSweepInterval is how often expired session rows are purged.
const sessionSweepInterval = time.Hour

// App wires together all dependencies and runs the backend.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	otpProducer    *pkgkafka.Producer
	userProducer   *pkgkafka.Producer
	authService    *service.AuthService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "wehack-backend",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   "localhost:4318",
		SampleRate:     1.0,
		Enabled:        cfg.Environment != "development",
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPass,
		DBName:   cfg.PostgresDB,
		SSLMode:  cfg.PostgresSSL,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "backend")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis for staged signups.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr()))

	// Initialize Kafka producers, one per event stream.
	otpProducer := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaOTPTopic,
	}, logger)
	userProducer := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaUserTopic,
	}, logger)
	logger.Info("kafka producers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("otp_topic", cfg.KafkaOTPTopic),
		slog.String("user_topic", cfg.KafkaUserTopic),
	)

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.SessionExpiry)
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	appRepo := postgres.NewApplicationRepository(pool)
	pendingStore := redisstore.NewPendingSignupStore(redisClient, cfg.OTPExpiry)
	eventProducer := event.NewProducer(otpProducer, userProducer, logger)
	scoringClient := scoring.NewBreakerClient(cfg.ScoringBaseURL, logger)

	authService := service.NewAuthService(userRepo, sessionRepo, pendingStore, jwtManager, eventProducer, cfg.OTPExpiry, logger)
	jobService := service.NewJobService(jobRepo, appRepo, scoringClient, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.Register("redis", func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		AuthService:   authService,
		JobService:    jobService,
		HealthHandler: healthHandler,
		Logger:        logger,
		Cookies: handler.CookieConfig{
			Secure: cfg.CookieSecure,
			MaxAge: cfg.SessionExpiry,
		},
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: true,
			Environment:      cfg.Environment,
		},
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
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redisClient:    redisClient,
		otpProducer:    otpProducer,
		userProducer:   userProducer,
		authService:    authService,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
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

	go a.sweepSessions(ctx)

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// sweepSessions periodically removes expired session rows until the context
// is canceled.
func (a *App) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := a.authService.SweepExpiredSessions(sweepCtx); err != nil {
				a.logger.Error("session sweep failed", slog.String("error", err.Error()))
			}
			cancel()
		}
	}
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producers
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.otpProducer.Close(); err != nil {
		a.logger.Error("kafka otp producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.userProducer.Close(); err != nil {
		a.logger.Error("kafka user producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
