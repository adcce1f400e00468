package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"freight/internal/app"
	"freight/internal/config"
	"freight/internal/events"
	"freight/internal/geo"
	"freight/internal/handler"
	internalRedis "freight/internal/redis"
	"freight/internal/repository/postgres"
	"freight/internal/service"
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

	// Initialize the event sink.
	var amqpConn *amqp.Connection
	var amqpCh *amqp.Channel
	if cfg.AMQP.Enabled {
		amqpConn, amqpCh, err = events.Connect(cfg.AMQP.URL)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer amqpConn.Close()
		log.Println("Connected to RabbitMQ")
	}

	deps, server := wireServer(db, redisClient, amqpCh, nrApp, cfg)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Completion fan-out: aggregation and recommendation run as independent
	// at-least-once consumers.
	if amqpCh != nil {
		startConsumers(rootCtx, amqpCh, deps)
	}

	// Scheduled route utilization runs.
	go runAggregationLoop(rootCtx, deps.aggregator, cfg.Aggregation.Interval)

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
	rootCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// serviceDeps holds the wired services the background workers need.
type serviceDeps struct {
	aggregator     *service.AggregatorService
	recommendation *service.RecommendationService
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, amqpCh *amqp.Channel, nrApp *newrelic.Application, cfg *config.Config) (serviceDeps, *http.Server) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	marker := internalRedis.NewCompletionMarker(redisClient)

	// Initialize repositories.
	bookingRepo := postgres.NewBookingRepository(db)
	feeRepo := postgres.NewCancellationFeeRepository(db)
	backloadRepo := postgres.NewBackloadRepository(db)
	routeRepo := postgres.NewRouteUtilizationRepository(db)
	configRepo := postgres.NewConfigRepository(db)
	vehicleRepo := postgres.NewVehicleTypeRepository(db)

	// Initialize the event publisher.
	var publisher events.Publisher
	if amqpCh != nil {
		p, err := events.NewAMQPPublisher(amqpCh)
		if err != nil {
			log.Fatalf("failed to initialize publisher: %v", err)
		}
		publisher = p
	}

	// Initialize services.
	distances := geo.NewStaticDistanceSource()
	fareCalc := service.NewFareCalculator(distances)
	feeCalc := service.NewCancellationFeeCalculator()
	bookingService := service.NewBookingService(
		bookingRepo, feeRepo, backloadRepo, configRepo, vehicleRepo,
		fareCalc, feeCalc, publisher,
	)
	engine := service.NewRecommendationEngine(distances)
	recommendationService := service.NewRecommendationService(engine, backloadRepo, routeRepo)
	aggregator := service.NewAggregatorService(bookingRepo, routeRepo, lockStore, marker, distances)

	// Initialize handlers.
	bookingHandler := handler.NewBookingHandler(bookingService)
	fareHandler := handler.NewFareHandler(bookingService)
	recommendationHandler := handler.NewRecommendationHandler(recommendationService)
	routeHandler := handler.NewRouteHandler(routeRepo, aggregator)
	backloadHandler := handler.NewBackloadHandler(backloadRepo)
	adminHandler := handler.NewAdminHandler(configRepo)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		BookingHandler:        bookingHandler,
		FareHandler:           fareHandler,
		RecommendationHandler: recommendationHandler,
		RouteHandler:          routeHandler,
		BackloadHandler:       backloadHandler,
		AdminHandler:          adminHandler,
		RedisClient:           redisClient,
		NewRelicApp:           nrApp,
	})

	deps := serviceDeps{
		aggregator:     aggregator,
		recommendation: recommendationService,
	}

	// Create HTTP server.
	return deps, &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// startConsumers binds the booking-completed consumers.
func startConsumers(ctx context.Context, amqpCh *amqp.Channel, deps serviceDeps) {
	aggConsumer := events.NewCompletionConsumer(amqpCh, "route_aggregation",
		func(ctx context.Context, event events.BookingCompleted) error {
			return deps.aggregator.HandleCompletion(ctx, event.CompletedAt, time.Now())
		})
	if err := aggConsumer.Start(ctx); err != nil {
		log.Fatalf("failed to start aggregation consumer: %v", err)
	}

	recConsumer := events.NewCompletionConsumer(amqpCh, "load_recommendations",
		func(ctx context.Context, event events.BookingCompleted) error {
			loads, err := deps.recommendation.GenerateRecommendations(ctx, service.RecommendationInput{
				DriverID:        event.DriverID,
				CurrentCity:     event.DestCity,
				DestinationCity: event.DestCity,
				CompletionTime:  event.CompletedAt,
			})
			if err != nil {
				return err
			}
			if len(loads) > 0 {
				log.Printf("driver %s: top backload %s score %.2f (%s)",
					event.DriverID, loads[0].OpportunityID, loads[0].Score, loads[0].Reason)
			}
			return nil
		})
	if err := recConsumer.Start(ctx); err != nil {
		log.Fatalf("failed to start recommendation consumer: %v", err)
	}
}

// runAggregationLoop folds the previous closed window on every tick.
func runAggregationLoop(ctx context.Context, aggregator *service.AggregatorService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			start := now.UTC().Truncate(interval).Add(-interval)
			end := start.Add(interval)

			runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			err := aggregator.AggregateWindow(runCtx, start, end)
			cancel()

			if err != nil && err != service.ErrAggregationInProgress {
				log.Printf("aggregation window %s failed: %v", start.Format(time.RFC3339), err)
			}
		}
	}
}
