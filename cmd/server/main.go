package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pathik-bd/pathik-api/internal/config"
	"github.com/pathik-bd/pathik-api/internal/database"
	"github.com/pathik-bd/pathik-api/internal/handler"
	"github.com/pathik-bd/pathik-api/internal/logger"
	"github.com/pathik-bd/pathik-api/internal/middleware"
	"github.com/pathik-bd/pathik-api/internal/observability"
	"github.com/pathik-bd/pathik-api/internal/queue"
	"github.com/pathik-bd/pathik-api/internal/repository"
	"github.com/pathik-bd/pathik-api/internal/router"
	"github.com/pathik-bd/pathik-api/internal/scheduler"
	"github.com/pathik-bd/pathik-api/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Warn("could not read .env")
	}

	logCfg := config.LoadLogConfig()
	logger.Init(logCfg.Level, logCfg.Format)

	cfg := config.Load()
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()
	schedCfg := config.LoadSchedulerConfig()
	points := config.LoadPointTable()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.WithError(err).Fatal("mysql connect failed")
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			logger.WithError(err).Fatal("migration failed")
		}
		logger.Info("schema migrated")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable; response cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	metrics := observability.NewMetrics()
	st := repository.NewStore(db)

	ledger := service.NewLedger(st, points)
	ledger.Events = queue.NewPublisher(cfg.RabbitURL)
	ledger.Cache = middleware.NewCacheInvalidator(cacheCfg, rdb)
	ledger.Metrics = metrics

	tours := service.NewTours(st, ledger)
	tours.Metrics = metrics
	guides := service.NewGuides(st, ledger)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(metrics.Middleware())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"request_id": v.RequestID,
			}).Info("request")
			return nil
		},
	}))

	router.Register(e, router.Deps{
		JWTSecret:     cfg.JWTSecret,
		DB:            db,
		Redis:         rdb,
		Cache:         cacheCfg,
		RateLimit:     rlCfg,
		Metrics:       metrics,
		Auth:          handler.NewAuthHandler(cfg, st.Users, repository.NewTokenRepo(db), ledger),
		Contributions: handler.NewContributionHandler(ledger),
		Tours:         handler.NewTourHandler(tours),
		Guides:        handler.NewGuideHandler(guides),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumer := queue.NewActivityConsumer(cfg.RabbitURL, os.Getenv("ACTIVITY_LOG_PATH"))
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).Error("activity consumer stopped")
		}
	}()

	var reconciler *scheduler.ReconcileScheduler
	if schedCfg.Enabled {
		reconciler = scheduler.NewReconcileScheduler(ledger, schedCfg.Cron)
		if err := reconciler.Start(); err != nil {
			logger.WithError(err).Fatal("invalid RECONCILE_CRON")
		}
	}

	addr := ":" + cfg.Port
	go func() {
		logger.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	if reconciler != nil {
		reconciler.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
}
