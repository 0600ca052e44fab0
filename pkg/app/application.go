package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/kzero-xyz/proofbridge/internal/channelhub"
	"github.com/kzero-xyz/proofbridge/internal/jwksfetch"
	"github.com/kzero-xyz/proofbridge/internal/metrics"
	"github.com/kzero-xyz/proofbridge/internal/middleware"
	"github.com/kzero-xyz/proofbridge/internal/providers"
	"github.com/kzero-xyz/proofbridge/internal/ratelimit"
	"github.com/kzero-xyz/proofbridge/internal/repository"
	"github.com/kzero-xyz/proofbridge/internal/services"
	"github.com/kzero-xyz/proofbridge/internal/tracing"
	"github.com/kzero-xyz/proofbridge/pkg/auth"
	"github.com/kzero-xyz/proofbridge/pkg/config"

	"github.com/gin-gonic/gin"
)

// Application is the wired-up proof bridge: the C4 scheduler, the C5 worker
// channel hub, the C3 submit path, and the HTTP surface in front of them.
type Application struct {
	Config    *config.Config
	Engine    *gin.Engine
	Scheduler services.SchedulerService
	Submit    services.SubmitService
	Hub       *channelhub.Hub
	Logger    *slog.Logger
	TZ        *time.Location

	ProducerValidator auth.Validator
	WorkerValidator   auth.Validator
	RateLimiter       ratelimit.Limiter

	TracingShutdown func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithProducerValidator sets a custom producer validator
func WithProducerValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.ProducerValidator = validator
		return nil
	}
}

// WithWorkerValidator sets a custom worker validator
func WithWorkerValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.WorkerValidator = validator
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
	limiter := ratelimit.NewTokenBucketLimiter(redisClient)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		loc = time.FixedZone("UTC", 0)
	}

	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "proofbridge", "env", cfg.Env)
	slog.SetDefault(logger)

	metrics.RegisterRedisCollector(redisClient, logger)

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  cfg.ServiceName,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
		SampleRatio:  cfg.TracingSampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}

	repo := repository.NewProofJobRepository(redisClient)

	connectionTimeout := time.Duration(cfg.ConnectionTimeoutMs) * time.Millisecond
	pongTimeout := time.Duration(cfg.PongTimeoutMs) * time.Millisecond
	hub := channelhub.NewHub(connectionTimeout, pongTimeout, logger)

	pollTick := time.Duration(cfg.PollIntervalMs) * time.Millisecond
	proofTimeout := time.Duration(cfg.ProofTimeoutMs) * time.Millisecond
	scheduler := services.NewSchedulerService(repo, hub, pollTick, proofTimeout, logger)
	hub.OnResult(func(proofID string, results channelhub.TaskResults) {
		scheduler.RecordResult(proofID, results.Proof, results.Public)
	})

	jwks := jwksfetch.New(10 * time.Second)
	submit := services.NewSubmitService(repo, jwks, logger)

	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.LoggerMiddleware(logger), middleware.TracingMiddleware(cfg.ServiceName))

	go scheduler.Start(context.Background())

	app := &Application{
		Config:          cfg,
		Engine:          engine,
		Scheduler:       scheduler,
		Submit:          submit,
		Hub:             hub,
		Logger:          logger,
		TZ:              loc,
		RateLimiter:     limiter,
		TracingShutdown: shutdown,
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	// Create default validators from config if not provided
	if app.ProducerValidator == nil && cfg.ProducerAuthProvider != "" {
		validator, err := auth.NewValidator(auth.ProviderConfig{
			Type:   cfg.ProducerAuthProvider,
			Config: cfg.ProducerAuthConfig,
		})
		if err != nil {
			return nil, err
		}
		app.ProducerValidator = validator
	}

	if app.WorkerValidator == nil && cfg.WorkerAuthProvider != "" {
		validator, err := auth.NewValidator(auth.ProviderConfig{
			Type:   cfg.WorkerAuthProvider,
			Config: cfg.WorkerAuthConfig,
		})
		if err != nil {
			return nil, err
		}
		app.WorkerValidator = validator
	}

	return app, nil
}
