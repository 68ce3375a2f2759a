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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jongrhanrhao/reservation-backend/internal/config"
	"github.com/jongrhanrhao/reservation-backend/internal/database"
	"github.com/jongrhanrhao/reservation-backend/internal/handler"
	"github.com/jongrhanrhao/reservation-backend/internal/logger"
	"github.com/jongrhanrhao/reservation-backend/internal/metrics"
	"github.com/jongrhanrhao/reservation-backend/internal/oauth"
	"github.com/jongrhanrhao/reservation-backend/internal/repository"
	"github.com/jongrhanrhao/reservation-backend/internal/router"
	"github.com/jongrhanrhao/reservation-backend/internal/service"
	"github.com/jongrhanrhao/reservation-backend/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// a missing .env is fine; the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Env,
		ServiceName: cfg.App.ServiceName,
	}); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.GetLogger()
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer multierr.AppendInvoke(&err, multierr.Close(db))
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(ctx, db, cfg.DB.Driver); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	var sessions *session.Manager
	if rdb == nil {
		log.Warn("redis unavailable; sessions, rate limiting and caching disabled", zap.String("addr", cfg.Redis.Address()))
	} else {
		defer multierr.AppendInvoke(&err, multierr.Close(rdb))
		if sessions, err = session.NewManager(rdb, cfg.Auth.SessionTTL); err != nil {
			return err
		}
	}

	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		p, perr := service.NewAMQPPublisher(cfg.RabbitMQ.URL, log)
		if perr != nil {
			log.Warn("rabbitmq unavailable; events disabled", zap.Error(perr))
		} else {
			publisher = p
		}
	}
	defer multierr.AppendInvoke(&err, multierr.Close(publisher))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	users := repository.NewUserRepo(db)
	stores := repository.NewStoreRepo(db)
	tables := repository.NewTableRepo(db)
	avail := repository.NewAvailabilityRepo(db)
	staff := repository.NewStaffRepo(db)
	reservations := repository.NewReservationRepo(db)
	reviews := repository.NewReviewRepo(db)

	booking := service.NewBookingService(service.BookingDeps{
		DB:           db,
		Stores:       stores,
		Users:        users,
		Tables:       tables,
		Availability: avail,
		Reservations: reservations,
		Publisher:    publisher,
		Metrics:      metrics.NewBookingMetrics(reg),
	})
	auth := handler.NewAuthHandler(*cfg, users, repository.NewTokenRepo(db), sessions)
	providers := oauth.Providers(cfg.OAuth)
	for name := range providers {
		log.Info("oauth provider enabled", zap.String("provider", name))
	}

	e := router.New(router.Deps{
		Cfg:          *cfg,
		Redis:        rdb,
		Sessions:     sessions,
		Metrics:      metrics.NewHTTPMetrics(cfg.App.ServiceName, reg),
		Gatherer:     reg,
		Auth:         auth,
		OAuth:        handler.NewOAuthHandler(auth, providers),
		Users:        handler.NewUserHandler(users, cfg.Auth.BcryptCost),
		Stores:       handler.NewStoreHandler(stores, repository.NewImageRepo(db), staff, service.NewExporter(stores, reservations), publisher),
		Availability: handler.NewAvailabilityHandler(stores, staff, service.NewAvailabilityService(stores, avail)),
		Tables:       handler.NewTableHandler(stores, tables),
		Reservations: handler.NewReservationHandler(stores, staff, reservations, booking),
		Favorites:    handler.NewFavoriteHandler(repository.NewFavoriteRepo(db)),
		Reviews:      handler.NewReviewHandler(users, stores, reviews, service.NewReviewService(stores, reviews)),
	})

	addr := ":" + cfg.App.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.App.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
