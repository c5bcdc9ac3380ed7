package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"shiptrack/internal/app"
	"shiptrack/internal/broadcast"
	"shiptrack/internal/config"
	"shiptrack/internal/handler"
	"shiptrack/internal/planner"
	internalRedis "shiptrack/internal/redis"
	"shiptrack/internal/repository/postgres"
	"shiptrack/internal/routing"
	"shiptrack/internal/service"
	"shiptrack/internal/sim"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Repositories.
	orderRepo := postgres.NewOrderRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	timelineRepo := postgres.NewTimelineRepository(db)

	// Route acquisition: serialized provider queue with fallback.
	provider := routing.NewHTTPProvider(cfg.Routing.APIURL, cfg.Routing.APIKey)
	routeQueue := routing.NewQueue(provider, cfg.Routing.Interval)
	routeQueue.Start()
	defer routeQueue.Stop()
	if cfg.Routing.APIURL == "" {
		log.Println("No routing provider configured, all routes use straight-line fallback")
	}

	routePlanner := planner.New(routeQueue)

	// Events and simulation.
	broadcaster := broadcast.NewRedisBroadcaster(redisClient)
	simulator := sim.New(
		orderRepo, routeRepo, timelineRepo, broadcaster,
		sim.WithSpeedFactor(cfg.Sim.SpeedFactor),
		sim.WithLocationStore(locationStore),
	)
	defer simulator.Shutdown()

	// Services.
	notificationService := service.NewNotificationService()
	orderService := service.NewOrderService(orderRepo, timelineRepo)
	reportService := service.NewReportService(orderRepo, routeRepo, timelineRepo, notificationService)
	shippingService := service.NewShippingService(
		db, orderRepo, routeRepo, timelineRepo,
		routeQueue, routePlanner, simulator, broadcaster,
		notificationService, lockStore, locationStore, cacheStore,
	)

	// Rebuild timers for orders that were in transit before the restart.
	if err := shippingService.RecoverAllInTransit(ctx); err != nil {
		log.Printf("failed to recover in-transit orders: %v", err)
	} else {
		log.Printf("Recovered %d in-transit orders", simulator.ActiveTimers())
	}

	// Handlers.
	orderHandler := handler.NewOrderHandler(orderService, shippingService)
	routeHandler := handler.NewRouteHandler(routeRepo)
	reportHandler := handler.NewReportHandler(reportService)
	eventsHandler := handler.NewEventsHandler(broadcaster)
	dispatchHandler := handler.NewDispatchHandler(locationStore)

	// Router and HTTP server.
	router := app.NewRouter(app.RouterDeps{
		OrderHandler:    orderHandler,
		RouteHandler:    routeHandler,
		ReportHandler:   reportHandler,
		EventsHandler:   eventsHandler,
		DispatchHandler: dispatchHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
