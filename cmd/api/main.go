package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/Thepalm86/tripweaver/internal/adapters/httpapi"
	memroutecache "github.com/Thepalm86/tripweaver/internal/adapters/memory/routecache"
	memtripgw "github.com/Thepalm86/tripweaver/internal/adapters/memory/tripgw"
	"github.com/Thepalm86/tripweaver/internal/adapters/nominatim"
	"github.com/Thepalm86/tripweaver/internal/adapters/osrm"
	postgres "github.com/Thepalm86/tripweaver/internal/adapters/postgres"
	"github.com/Thepalm86/tripweaver/internal/adapters/postgres/migrations"
	pgtripgw "github.com/Thepalm86/tripweaver/internal/adapters/postgres/tripgw"
	redisroutecache "github.com/Thepalm86/tripweaver/internal/adapters/redis/routecache"
	"github.com/Thepalm86/tripweaver/internal/app/itinerary"
	"github.com/Thepalm86/tripweaver/internal/app/routes"
	"github.com/Thepalm86/tripweaver/internal/app/search"
	"github.com/Thepalm86/tripweaver/internal/bus"
	platformclock "github.com/Thepalm86/tripweaver/internal/platform/clock"
	"github.com/Thepalm86/tripweaver/internal/platform/config"
	"github.com/Thepalm86/tripweaver/internal/platform/logging"
	routecacheport "github.com/Thepalm86/tripweaver/internal/ports/out/routecache"
	"github.com/Thepalm86/tripweaver/internal/ports/out/routing"
	tripgwport "github.com/Thepalm86/tripweaver/internal/ports/out/tripgw"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	var (
		gw      tripgwport.Gateway
		cleanup func()
	)
	switch cfg.StorageBackend {
	case "postgres":
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.WithError(err).Fatal("connect postgres")
		}
		cleanup = pool.Close
		if err := migrations.Apply(context.Background(), pool); err != nil {
			logger.WithError(err).Fatal("apply migrations")
		}
		gw = pgtripgw.NewGateway(pool)
	default:
		gw = memtripgw.NewGateway()
	}
	if cleanup != nil {
		defer cleanup()
	}

	var cache routecacheport.Cache
	switch cfg.CacheBackend {
	case "redis":
		opts, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("parse redis url")
		}
		rdb := goredis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		cache = redisroutecache.NewCache(rdb)
	default:
		cache = memroutecache.NewCache()
	}

	events := bus.New()
	planner := itinerary.NewService(gw, platformclock.NewSystemClock(), logger)

	engine := routes.NewEngine(planner, osrm.NewClient(cfg.OSRMBaseURL, nil), cache, events, logger)
	engine.SetProfile(routing.Profile(cfg.RouteProfile))
	engine.SetDebounce(cfg.RouteDebounce)
	planner.Subscribe(engine.Invalidate)

	searcher := search.NewService(nominatim.NewClient(cfg.NominatimBaseURL, nil), logger)
	searcher.SetDebounce(cfg.SearchDebounce)

	api := httpapi.NewServer(planner, engine, searcher, logger)
	handler := httpapi.NewRouter(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("port", cfg.Port).Info("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("listen")
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
