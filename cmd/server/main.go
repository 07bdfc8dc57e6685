package main // Entry point package

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cafe-table-reservation/internal/availability"
	"github.com/iliyamo/cafe-table-reservation/internal/cart"
	"github.com/iliyamo/cafe-table-reservation/internal/checkout"
	"github.com/iliyamo/cafe-table-reservation/internal/config"
	"github.com/iliyamo/cafe-table-reservation/internal/database"
	"github.com/iliyamo/cafe-table-reservation/internal/docstore"
	"github.com/iliyamo/cafe-table-reservation/internal/handler"
	"github.com/iliyamo/cafe-table-reservation/internal/logging"
	"github.com/iliyamo/cafe-table-reservation/internal/middleware"
	"github.com/iliyamo/cafe-table-reservation/internal/pricing"
	"github.com/iliyamo/cafe-table-reservation/internal/queue"
	"github.com/iliyamo/cafe-table-reservation/internal/repository"
	"github.com/iliyamo/cafe-table-reservation/internal/reservation"
	"github.com/iliyamo/cafe-table-reservation/internal/router"
	"github.com/iliyamo/cafe-table-reservation/internal/seed"
	"github.com/iliyamo/cafe-table-reservation/internal/selection"
	"github.com/iliyamo/cafe-table-reservation/internal/session"
	"github.com/iliyamo/cafe-table-reservation/internal/store"
	"github.com/iliyamo/cafe-table-reservation/internal/store/memory"
)

func main() {
	_ = godotenv.Load() // .env is optional

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// newLogger writes to stdout and, when it can be opened, logs/app.log.
func newLogger(cfg config.Config) *slog.Logger {
	var w io.Writer = os.Stdout
	if err := os.MkdirAll("logs", 0o755); err == nil {
		if f, err := os.OpenFile(filepath.Join("logs", "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			w = io.MultiWriter(os.Stdout, f)
		}
	}
	return logging.New(w, logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, AddSource: cfg.Env == "dev"})
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	bus, err := queue.Open(queue.Settings{
		Driver:       cfg.EventsDriver,
		RabbitURL:    cfg.RabbitURL,
		NATSURL:      cfg.NATSURL,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaGroup:   cfg.KafkaGroup,
	}, logger.With("component", "queue"))
	if err != nil {
		return err
	}
	defer bus.Close()

	backend, watcher, err := openStore(ctx, cfg, bus, logger)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = backend.Close(cctx)
	}()

	rdb := config.NewRedisClient(ctx, logger)
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	if cfg.SeedOnStart {
		if err := seed.Apply(ctx, backend); err != nil {
			return err
		}
		if n, err := middleware.PurgeCache(ctx, rdb, cacheCfg.Prefix); err != nil {
			logger.Warn("purge response cache failed", "err", err)
		} else if n > 0 {
			logger.Info("response cache purged", "keys", n)
		}
	}

	bookingLog := queue.NewBookingLog(cfg.BookingLogPath, logger.With("component", "booking-log"))
	go func() {
		if err := bookingLog.Run(ctx, bus); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("booking log stopped", "err", err)
		}
	}()

	var carts cart.Store = cart.NewMemory()
	if cfg.CartDriver == config.CartRedis {
		if rdb != nil {
			carts = cart.NewRedis(rdb, cfg.CartPrefix, cfg.CartTTL)
		} else {
			logger.Warn("redis unavailable; carts kept in memory")
		}
	}

	policy, err := selection.ParseLimitPolicy(cfg.SelectionLimitPolicy)
	if err != nil {
		return err
	}
	feed := availability.NewFeed(watcher,
		availability.WithNonSeatIDs(cfg.NonSeatIDs),
		availability.WithLogger(logger.With("component", "feed")),
	)
	sessions := session.NewManager(feed, session.Options{
		Selection: selection.Options{MaxSelections: cfg.MaxSelections, Policy: policy},
		RetryMax:  cfg.FeedRetryMax,
	}, logger.With("component", "session"))
	defer sessions.Close()

	reservations := reservation.NewCoordinator(backend, logger.With("component", "reservation"))
	checkouts := checkout.NewCoordinator(checkout.Deps{
		Orders:    backend,
		Tables:    &availability.NotifyingTableStore{TableStore: backend, Pub: bus, Log: logger},
		Cart:      carts,
		Pricing:   pricing.Engine{AppFee: cfg.AppFee, DownPaymentRatio: cfg.DownPaymentRatio},
		Publisher: bus,
		Log:       logger.With("component", "checkout"),
	}, checkout.Options{StrictBooking: cfg.StrictBooking})

	e := echo.New()
	e.HideBanner = true
	if rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger))
	}

	checks := map[string]func(context.Context) error{
		"store": func(ctx context.Context) error { _, err := backend.ListCafes(ctx); return err },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	router.RegisterRoutes(e, checks)

	authH := handler.NewAuthHandler(handler.AuthSettings{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
		BcryptCost:     cfg.BcryptCost,
	}, backend, backend)
	router.RegisterAuth(e, authH, cfg.JWTSecret)

	publicH := handler.NewPublicHandler(backend, feed.Filter())
	feedH := handler.NewTableFeedHandler(feed, backend, logger.With("component", "ws"))
	router.RegisterPublic(e, publicH, feedH, cacheMiddleware(cacheCfg, rdb, logger)...)

	customerH := handler.NewCustomerHandler(backend, sessions, reservations, checkouts, carts, logger.With("component", "customer"))
	if cfg.StrictBooking {
		customerH.BookingRetries = 1
	}
	router.RegisterCustomer(e, customerH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver, "events", cfg.EventsDriver, "cart", cfg.CartDriver)

	errc := make(chan error, 1)
	go func() { errc <- e.Start(addr) }()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

func cacheMiddleware(cfg config.CacheConfig, rdb *redis.Client, logger *slog.Logger) []echo.MiddlewareFunc {
	if rdb == nil || !cfg.Enabled {
		return nil
	}
	return []echo.MiddlewareFunc{middleware.NewRedisCache(cfg, rdb, logger)}
}

// openStore returns the configured backend and the table watcher the
// availability feed reads from.  MySQL has no change feed, so its watcher
// re-lists tables whenever the bus announces a change.
func openStore(ctx context.Context, cfg config.Config, bus queue.Bus, logger *slog.Logger) (store.Backend, store.TableWatcher, error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		db, err := database.Open(ctx, database.Options{
			User:     cfg.DBUser,
			Password: cfg.DBPass,
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			Name:     cfg.DBName,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, db, logger.With("component", "migrate")); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		repo := repository.New(db)
		return repo, &availability.NotifiedWatcher{Tables: repo, Sub: bus}, nil
	case config.StoreMongo:
		ds, err := docstore.Open(ctx, docstore.Options{URL: cfg.MongoURL, Database: cfg.MongoDB}, logger.With("component", "mongo"))
		if err != nil {
			return nil, nil, err
		}
		return ds, ds, nil
	}
	mem := memory.New()
	return mem, mem, nil
}
