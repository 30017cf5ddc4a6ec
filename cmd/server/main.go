package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/agrisense/advisor/advisory"
	"github.com/agrisense/advisor/community"
	"github.com/agrisense/advisor/internal/config"
	"github.com/agrisense/advisor/internal/db"
	"github.com/agrisense/advisor/internal/events"
	"github.com/agrisense/advisor/internal/httpapi"
	"github.com/agrisense/advisor/internal/logger"
	"github.com/agrisense/advisor/market"
	"github.com/agrisense/advisor/rules"
	"github.com/agrisense/advisor/weather"
)

// app is the wired service graph behind the HTTP server
type app struct {
	handler http.Handler
	board   *market.Board
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	database, err := db.Open(cfg)
	if err != nil {
		return fail(fmt.Errorf("failed to open database: %w", err))
	}
	a.closers = append(a.closers, func() { db.Close(database) })

	if err := db.MigrateUp(cfg); err != nil {
		return fail(err)
	}

	ruleStore := rules.NewSQLRuleStore(database.DB)
	seeded, err := rules.SeedDefaults(ruleStore)
	if err != nil {
		return fail(fmt.Errorf("failed to seed default rules: %w", err))
	}
	if seeded > 0 {
		log.Info("seeded default rules", "count", seeded)
	}

	var engineOpts []rules.Option
	if cfg.RulesCacheTTL > 0 {
		engineOpts = append(engineOpts, rules.WithCache(rules.NewInMemoryRulesCache(rules.CacheConfig{TTL: cfg.RulesCacheTTL})))
	}
	engine, err := rules.NewEngine(ruleStore, engineOpts...)
	if err != nil {
		return fail(fmt.Errorf("failed to create rule engine: %w", err))
	}

	sqlStore := community.NewSQLStore(database)
	var (
		forecastCache weather.ForecastCache = weather.NewMemoryCache(cfg.ForecastTTL)
		analytics     community.Log         = sqlStore
	)
	if cfg.RedisAddr != "" {
		rdb, err := connectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, func() { rdb.Close() })
		forecastCache = weather.NewRedisCache(rdb, cfg.ForecastTTL)
		analytics = community.NewRedisLog(rdb, log)
		log.Info("redis enabled", "addr", cfg.RedisAddr)
	}

	client := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherTimeout,
		weather.WithLogger(log),
		weather.WithDegradedHook(logger.WarnDegradedFetch),
	)
	forecaster := weather.NewCachingForecaster(client, forecastCache, log)

	publisher := connectPublishers(ctx, cfg, log)
	a.closers = append(a.closers, publisher.Close)

	a.board = market.NewBoard()

	a.handler = httpapi.NewServer(httpapi.Deps{
		Engine:     engine,
		Forecaster: forecaster,
		Advisory: advisory.NewService(forecaster,
			advisory.WithPublisher(publisher),
			advisory.WithLogger(log),
			advisory.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		),
		Board:       a.board,
		Polls:       community.NewPolls(sqlStore),
		Credits:     sqlStore,
		Analytics:   analytics,
		DB:          database,
		AdminSecret: cfg.AdminJWTSecret,
		Logger:      log,
	})

	return a, nil
}

func connectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// connectPublishers fans alert events out to every configured broker. A broker
// that cannot be reached is skipped; alerts are advisory and must not block startup.
func connectPublishers(ctx context.Context, cfg config.Config, log *slog.Logger) events.Publisher {
	var pubs []events.Publisher

	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(events.DefaultNATSConfig(cfg.NATSURL), log)
		if err != nil {
			log.Warn("nats unavailable, alerts will not be published there", "error", err)
		} else {
			pubs = append(pubs, p)
		}
	}

	if cfg.MQTTURL != "" {
		p := events.NewMQTTPublisher(cfg.MQTTURL, "agrisense-"+uuid.NewString()[:8], log)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := p.Connect(connectCtx)
		cancel()
		if err != nil {
			log.Warn("mqtt unavailable, alerts will not be published there", "error", err)
			p.Close()
		} else {
			pubs = append(pubs, p)
		}
	}

	return events.Combine(pubs...)
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	go a.board.Run(ctx, cfg.MarketTick, rand.New(rand.NewSource(time.Now().UnixNano())))

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.HTTPAddr, "env", cfg.AppEnv, "db", cfg.DBDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Setup(logger.OptionsFromEnv(cfg.IsDev(), cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		logger.Fatal("server exited", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := logger.Shutdown(flushCtx); err != nil {
		fmt.Fprintf(os.Stderr, "logger shutdown: %v\n", err)
	}
}
