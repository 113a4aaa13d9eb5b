package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/osvaldoandrade/imagegenie/internal/activity"
	"github.com/osvaldoandrade/imagegenie/internal/backend"
	"github.com/osvaldoandrade/imagegenie/internal/events"
	"github.com/osvaldoandrade/imagegenie/internal/metrics"
	"github.com/osvaldoandrade/imagegenie/internal/middleware"
	"github.com/osvaldoandrade/imagegenie/internal/providers"
	"github.com/osvaldoandrade/imagegenie/internal/ratelimit"
	"github.com/osvaldoandrade/imagegenie/internal/repository"
	"github.com/osvaldoandrade/imagegenie/internal/services"
	"github.com/osvaldoandrade/imagegenie/internal/sink"
	"github.com/osvaldoandrade/imagegenie/internal/tracing"
	"github.com/osvaldoandrade/imagegenie/pkg/config"
	"github.com/osvaldoandrade/imagegenie/pkg/domain"
	"github.com/osvaldoandrade/imagegenie/pkg/settings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

type Application struct {
	Config   *config.Config
	Engine   *gin.Engine
	Logger   *slog.Logger
	Activity *activity.Log
	Settings *settings.Store
	Models   []domain.Model

	Sink *sink.Sink
	Bus  *events.Bus

	Generation services.GenerationService
	Rankings   services.RankingService
	Users      services.UserService
	Gallery    services.GalleryService
	Enhancer   services.EnhanceService

	DB              *sqlx.DB
	Redis           *redis.Client
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error

	backend    backend.Client
	downloader providers.Downloader
	logWriter  io.Writer
	stop       context.CancelFunc
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithBackend replaces the hosted inference client.
func WithBackend(c backend.Client) ApplicationOption {
	return func(app *Application) error {
		app.backend = c
		return nil
	}
}

// WithDownloader replaces the image downloader.
func WithDownloader(d providers.Downloader) ApplicationOption {
	return func(app *Application) error {
		app.downloader = d
		return nil
	}
}

// WithLogWriter sends structured logs to w instead of stdout.
func WithLogWriter(w io.Writer) ApplicationOption {
	return func(app *Application) error {
		app.logWriter = w
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	app := &Application{Config: cfg, Models: cfg.Models, logWriter: os.Stdout}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
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
	var handler slog.Handler = slog.NewJSONHandler(app.logWriter, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(app.logWriter, &slog.HandlerOptions{Level: level})
	}
	app.Activity = activity.NewLog(0)
	logger := slog.New(activity.NewHandler(handler, app.Activity, slog.LevelInfo)).With("service", "imagegenie", "env", cfg.Env)
	slog.SetDefault(logger)
	app.Logger = logger

	ctx, stop := context.WithCancel(context.Background())
	app.stop = stop

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		stop()
		return nil, err
	}
	app.TracingShutdown = shutdown

	db, err := repository.Open(ctx, cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		stop()
		return nil, err
	}
	app.DB = db

	if strings.TrimSpace(cfg.RedisAddr) != "" {
		rdb := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
		if err := providers.PingRedis(ctx, rdb); err != nil {
			logger.Warn("redis unavailable, running without relay and shared rate limits", "addr", cfg.RedisAddr, "err", err)
			_ = rdb.Close()
		} else {
			app.Redis = rdb
			app.RateLimiter = ratelimit.NewTokenBucketLimiter(rdb)
		}
	}

	app.Settings = settings.NewStore(cfg.SettingsFile())
	token := func() string {
		if t := app.Settings.Token(); t != "" {
			return t
		}
		return cfg.APIToken
	}

	if app.backend == nil {
		app.backend = backend.NewReplicateClient(backend.Options{
			BaseURL:    cfg.BackendBaseURL,
			Token:      token,
			PollPolicy: cfg.BackendPollPolicy,
			PollBase:   time.Duration(cfg.BackendPollBaseMillis) * time.Millisecond,
			PollMax:    time.Duration(cfg.BackendPollMaxMillis) * time.Millisecond,
			Limiter:    app.RateLimiter,
			Bucket:     ratelimit.Bucket(cfg.BackendLimit),
			Logger:     logger,
		})
	}
	if app.downloader == nil {
		app.downloader = providers.NewHTTPDownloader(nil, cfg.DownloadTimeout())
	}

	app.Bus = events.NewBus(cfg.EventBufferSize)
	app.Sink = sink.New()
	app.Sink.Attach(events.NewSinkViewer(app.Bus))

	store := providers.NewLocalImageStore(cfg.OutputDir)
	images := repository.NewImageRepository(db)

	app.Generation = services.NewGenerationService(
		app.backend,
		app.downloader,
		store,
		images,
		app.Sink,
		app.Bus,
		token,
		logger,
		services.GenerationOptions{
			MaxConcurrency: cfg.MaxConcurrency,
			DefaultTimeout: cfg.TaskTimeout(),
			MinTimeout:     cfg.MinTaskTimeout(),
		},
	)
	app.Rankings = services.NewRankingService(repository.NewRankingRepository(db), logger, time.Now)
	app.Users = services.NewUserService(repository.NewUserRepository(db), logger, time.Now)
	app.Gallery = services.NewGalleryService(images, store, logger)
	app.Enhancer = services.NewEnhanceService(app.backend, cfg.EnhancerModel, logger)

	metrics.RegisterBatchCollector(app.Generation)

	if app.Redis != nil {
		relay := events.NewRelay(app.Redis, cfg.RelayChannel, logger)
		go relay.Forward(ctx, app.Bus)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(cfg.Tracing.ServiceName),
		middleware.LoggerMiddleware(logger),
	)
	app.Engine = engine

	return app, nil
}

// Close cancels in-flight work and releases the database, Redis and the trace exporter.
func (app *Application) Close(ctx context.Context) error {
	if id, ok := app.Generation.Latest(); ok {
		_ = app.Generation.CancelBatch(id)
	}
	app.stop()
	var errs []error
	if app.DB != nil {
		errs = append(errs, app.DB.Close())
	}
	if app.Redis != nil {
		errs = append(errs, app.Redis.Close())
	}
	if app.TracingShutdown != nil {
		errs = append(errs, app.TracingShutdown(ctx))
	}
	return errors.Join(errs...)
}

// Server wraps Engine for ListenAndServe on the configured address.
func (app *Application) Server() *http.Server {
	return &http.Server{
		Addr:              app.Config.ListenAddr,
		Handler:           app.Engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
