package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cabin-booking/internal/booking"
	"github.com/iliyamo/cabin-booking/internal/config"
	"github.com/iliyamo/cabin-booking/internal/database"
	"github.com/iliyamo/cabin-booking/internal/handler"
	"github.com/iliyamo/cabin-booking/internal/ingest"
	"github.com/iliyamo/cabin-booking/internal/logger"
	"github.com/iliyamo/cabin-booking/internal/logger/sl"
	"github.com/iliyamo/cabin-booking/internal/metrics"
	"github.com/iliyamo/cabin-booking/internal/middleware"
	"github.com/iliyamo/cabin-booking/internal/publisher"
	"github.com/iliyamo/cabin-booking/internal/queue"
	"github.com/iliyamo/cabin-booking/internal/repository"
	"github.com/iliyamo/cabin-booking/internal/router"
)

func main() {
	// A missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(os.Stdout, logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Info("starting", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		log.Error("database unavailable", sl.Err(err))
		os.Exit(1)
	}
	defer db.Close()
	if cfg.DBMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Error("schema migration failed", sl.Err(err))
			os.Exit(1)
		}
	}

	cabins := repository.NewCabinRepo(db)
	customers := repository.NewCustomerRepo(db)
	reservations := repository.NewReservationRepo(db)
	audit := repository.NewAuditRepo(db)
	messages := repository.NewMessageRepo(db)
	listings := repository.NewListingRepo(db)

	units, err := loadUnits(ctx, listings, cabins)
	if err != nil {
		log.Error("invalid listing mappings", sl.Err(err))
		os.Exit(1)
	}
	log.Info("listing mappings loaded", slog.Int("count", units.Len()))

	m := metrics.New()
	pub := publisher.New(cfg.Events, log)
	defer pub.Close()

	svc := booking.NewService(repository.NewStore(db), log,
		booking.WithPublisher(pub),
		booking.WithMetrics(m),
		booking.WithUnits(units),
		booking.WithPlaceholderName(cfg.ExternalCustomerName),
	)
	syncer := ingest.NewSyncer(cabins, svc, ingest.NewFeedFetcher(cfg.CalendarFetchTimeout), log, m)

	if cfg.Events.Consumer && cfg.Events.Backend == config.BackendRabbitMQ {
		consumer := queue.NewConsumer(cfg.Events.AMQPURL, cfg.Events.Queue, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("event consumer stopped", sl.Err(err))
			}
		}()
	}
	go syncer.Run(ctx, cfg.CalendarSyncInterval)

	var cache, limit echo.MiddlewareFunc
	if rdb, err := config.NewRedisClient(ctx); err != nil {
		log.Warn("redis unavailable, running without cache and rate limiting", sl.Err(err))
	} else {
		defer rdb.Close()
		cache = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
		limit = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log, m)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.Metrics(m))

	calendar := handler.NewCalendarHandler(svc, syncer, cabins, reservations, log)
	router.RegisterRoutes(e, db, m)
	router.RegisterPublic(e, handler.NewPublicHandler(svc, cabins, log), calendar, cache, limit)
	router.RegisterStaff(e, router.Staff{
		Reservations: handler.NewReservationHandler(svc, reservations, audit, cfg.ExternalCustomerName, log),
		Customers:    handler.NewCustomerHandler(customers, log),
		Cabins:       handler.NewCabinHandler(cabins, log),
		Calendar:     calendar,
		Messages:     handler.NewMessageHandler(messages, log),
		Reports:      handler.NewReportHandler(reservations, log),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", sl.Err(err))
	}
	log.Info("stopped")
}

// loadUnits builds the listing map the reconciler resolves CSV unit
// references with.
func loadUnits(ctx context.Context, listings *repository.ListingRepo, cabins *repository.CabinRepo) (*booking.UnitMap, error) {
	mappings, err := listings.List(ctx)
	if err != nil {
		return nil, err
	}
	all, err := cabins.List(ctx)
	if err != nil {
		return nil, err
	}
	return booking.NewUnitMap(mappings, all)
}
