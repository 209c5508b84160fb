package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/band-manager/internal/config"
	"github.com/iliyamo/band-manager/internal/database"
	"github.com/iliyamo/band-manager/internal/handler"
	"github.com/iliyamo/band-manager/internal/logger"
	"github.com/iliyamo/band-manager/internal/middleware"
	"github.com/iliyamo/band-manager/internal/queue"
	"github.com/iliyamo/band-manager/internal/repository"
	"github.com/iliyamo/band-manager/internal/router"
	"github.com/iliyamo/band-manager/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.Migrate(db, log); err != nil {
			return err
		}
	}

	rdb := config.NewRedisClient(log)
	if rdb != nil {
		defer rdb.Close()
	}

	var posters handler.PosterStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3Store(ctx, cfg.Storage, storage.WithLogger(log))
		if err != nil {
			return err
		}
		posters = storage.NewPosterStore(s3, cfg.Storage)
	} else {
		log.Info("poster storage disabled")
	}

	events := queue.NewPublisher(cfg.RabbitURL, log)
	if cfg.RabbitURL != "" {
		consumer := &queue.Consumer{URL: cfg.RabbitURL, Path: cfg.ShowLogPath, Log: log}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("show event consumer stopped", zap.Error(err))
			}
		}()
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	bands := repository.NewBandRepo(db)
	members := repository.NewMemberRepo(db)
	shows := repository.NewShowRepo(db)
	payments := repository.NewPaymentRepo(db)

	cacheCfg := config.LoadCacheConfig()
	showH := handler.NewShowHandler(shows, bands, posters, events)
	showH.MaxPosterBytes = cfg.Storage.MaxUploadBytes
	showH.PurgeFund = func(ctx context.Context, bandID uint64) {
		if err := middleware.PurgeCache(ctx, rdb, cacheCfg, handler.FundPath(bandID)); err != nil {
			log.Warn("fund cache purge failed", zap.Uint64("band_id", bandID), zap.Error(err))
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.RequestID())
	e.Use(logger.Middleware(log))
	e.Use(echomw.Recover())

	router.RegisterRoutes(e, db)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	router.RegisterBands(e, handler.NewBandHandler(bands, users), handler.NewMemberHandler(members), showH,
		bands, cfg.JWTSecret, middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterShows(e, showH, handler.NewPaymentHandler(shows, payments, events), bands, cfg.JWTSecret)
	router.RegisterLibrary(e, handler.NewSongHandler(repository.NewSongRepo(db)),
		handler.NewSetlistHandler(repository.NewSetlistRepo(db)), bands, cfg.JWTSecret)

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
