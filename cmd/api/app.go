package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"venuebook/internal/config"
	"venuebook/internal/database"
	"venuebook/internal/domain/booking"
	"venuebook/internal/domain/subscription"
	"venuebook/internal/domain/unavailability"
	"venuebook/internal/logger"
	"venuebook/internal/middleware"
	"venuebook/internal/modules/reconcile"
	"venuebook/internal/modules/syncgateway"
	"venuebook/internal/pkg/jwt"
	"venuebook/internal/pkg/response"
	"venuebook/internal/repository"
)

// app is the wired component graph shared by every command.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *gorm.DB
	store *repository.Store
	redis *redis.Client
	now   func() time.Time

	hub        *syncgateway.Hub
	reconciler *reconcile.Reconciler
	dispatcher *reconcile.Dispatcher
	sweeper    *reconcile.Sweeper
	consumer   *syncgateway.Consumer

	subscriptions  *subscription.Service
	bookings       *booking.Service
	unavailability *unavailability.Service
}

// loadConfig reads configuration and builds the logger every command uses.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// bootstrap connects to the database and, when sync is enabled, to Redis,
// then wires the components.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Sync.Enabled {
		if rdb, err = syncgateway.NewRedisClient(ctx, cfg.Redis, log); err != nil {
			return nil, err
		}
	}
	return newApp(cfg, log, db, rdb)
}

func newApp(cfg *config.Config, log *zap.Logger, db *gorm.DB, rdb *redis.Client) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:   cfg,
		log:   logger.OrNop(log),
		db:    db,
		store: repository.NewStore(db),
		redis: rdb,
		now:   func() time.Time { return time.Now().In(loc) },
	}

	a.hub = syncgateway.NewHub(a.log.Named("feed"))
	sinks := syncgateway.FanoutSink{a.hub}
	if rdb != nil {
		sinks = append(sinks, syncgateway.NewRedisStreamSink(rdb, cfg.Sync.OutboundStream, cfg.Sync.MaxLen))
	}
	publisher := syncgateway.NewPublisher(sinks, a.log.Named("publisher"))

	var remote reconcile.RemoteNotifier
	if cfg.Remote.BaseURL != "" {
		remote = syncgateway.NewHTTPNotifier(cfg.Remote)
	}

	a.reconciler = reconcile.New(a.store, publisher, remote, a.log.Named("reconcile"))
	a.dispatcher = reconcile.NewDispatcher(a.reconciler, cfg.Reconcile.Workers, cfg.Reconcile.QueueSize, a.log.Named("dispatcher"))
	a.sweeper = reconcile.NewSweeper(a.store.Venues, a.reconciler, cfg.Reconcile.SweepConcurrency, a.log.Named("sweep"))
	a.consumer = syncgateway.NewConsumer(a.store, a.log.Named("consumer"))

	a.subscriptions = subscription.NewService(a.store, a.dispatcher, a.now, a.log.Named("subscription"))
	a.bookings = booking.NewService(a.store, a.dispatcher, a.now, a.log.Named("booking"))
	a.unavailability = unavailability.NewService(a.store, a.now)
	return a, nil
}

func (a *app) router() *gin.Engine {
	gin.SetMode(a.cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.ErrorLogger(a.log.Named("http")))
	r.Use(middleware.CORS(a.cfg.Server.AllowedOrigins()))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := a.db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, http.StatusServiceUnavailable, "UNHEALTHY", "database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	if a.cfg.Server.ExposeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	tokens := jwt.New(a.cfg.Auth.JWTSecret, 24*time.Hour)
	feed := syncgateway.NewHandler(a.hub, a.store, a.log.Named("feed"))
	reconciles := reconcile.NewHandler(a.reconciler, a.sweeper)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(tokens), middleware.RequireRole(middleware.RoleOwner, middleware.RoleAdmin))
	{
		subscription.RegisterRoutes(v1, subscription.NewHandler(a.subscriptions))
		booking.NewHandler(a.bookings).RegisterRoutes(v1)
		unavailability.RegisterRoutes(v1, unavailability.NewHandler(a.unavailability))
		reconciles.RegisterRoutes(v1)
		feed.RegisterRoutes(v1)
	}

	internal := r.Group("/internal")
	internal.Use(middleware.InternalTokenAuth(a.cfg.Auth.InternalToken, a.log.Named("internal")))
	{
		reconciles.RegisterInternalRoutes(internal)
		feed.RegisterInternalRoutes(internal)
	}
	return r
}

func (a *app) streamOptions() syncgateway.StreamOptions {
	return syncgateway.StreamOptions{
		Stream:   a.cfg.Sync.InboundStream,
		Group:    a.cfg.Sync.Group,
		Consumer: a.cfg.Sync.Consumer,
		Block:    a.cfg.Sync.Block,
		Count:    a.cfg.Sync.BatchSize,
	}
}

func (a *app) close() {
	a.hub.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}
