// Package app wires storage, transport and the feature packages into one runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"

	"github.com/gatherle/notification-service/docs"
	"github.com/gatherle/notification-service/internal/config"
	"github.com/gatherle/notification-service/internal/database"
	"github.com/gatherle/notification-service/internal/delivery"
	"github.com/gatherle/notification-service/internal/email"
	"github.com/gatherle/notification-service/internal/ingest"
	"github.com/gatherle/notification-service/internal/metrics"
	"github.com/gatherle/notification-service/internal/notification"
	"github.com/gatherle/notification-service/internal/queue"
	"github.com/gatherle/notification-service/pkg/response"
)

const shutdownTimeout = 10 * time.Second

// App holds the wired service components
type App struct {
	cfg    *config.Config
	db     *sqlx.DB
	broker queue.Broker

	Metrics       *metrics.Counters
	Notifications *notification.Service
	Deliveries    *delivery.Service
	Pipeline      *ingest.Pipeline

	consumer *ingest.Consumer
	worker   *delivery.Worker
	router   chi.Router
}

// Open connects to the configured database and transport, applies migrations and wires the service
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	broker, err := OpenBroker(ctx, cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	return New(cfg, db, broker), nil
}

// OpenBroker returns the transport selected by cfg.Transport
func OpenBroker(ctx context.Context, cfg *config.Config) (queue.Broker, error) {
	switch cfg.Transport {
	case config.TransportMemory:
		return queue.NewMemoryBroker(256), nil
	case config.TransportRedis:
		client, err := queue.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return queue.NewRedisBroker(client, queue.DefaultRedisOptions()), nil
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

// New wires the service on an open, migrated database and a broker. The app owns both afterwards.
func New(cfg *config.Config, db *sqlx.DB, broker queue.Broker) *App {
	counters := metrics.NewCounters()

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)

	// Delivery feature
	deliveryRepo := delivery.NewRepository(db)
	dispatcher := delivery.NewDispatcher(broker, counters)
	deliveryService := delivery.NewService(deliveryRepo, notificationRepo, dispatcher)

	provider := email.NewProvider(email.Config{
		From:            cfg.EmailFrom,
		RecipientDomain: cfg.EmailRecipientDomain,
		FailRate:        cfg.EmailFailRate,
		Output:          log.Writer(),
	})
	worker := delivery.NewWorker(notificationRepo, deliveryRepo, provider, broker, counters, delivery.RetryPolicy{
		MaxAttempts: cfg.DeliveryMaxAttempts,
		Backoff:     cfg.DeliveryBackoff,
		MaxBackoff:  cfg.DeliveryMaxBackoff,
	})

	// Ingestion
	pipeline := ingest.NewPipeline(notificationRepo, dispatcher, counters)
	consumer := ingest.NewConsumer(pipeline, broker, cfg.IngestConcurrency, counters)

	a := &App{
		cfg:           cfg,
		db:            db,
		broker:        broker,
		Metrics:       counters,
		Notifications: notificationService,
		Deliveries:    deliveryService,
		Pipeline:      pipeline,
		consumer:      consumer,
		worker:        worker,
	}
	a.router = a.routes(notification.NewHandler(notificationService, pipeline), delivery.NewHandler(deliveryService))
	return a
}

func (a *App) routes(notificationHandler *notification.Handler, deliveryHandler *delivery.Handler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.health)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, a.Metrics.Snapshot())
	})

	docs.SwaggerInfo.BasePath = "/api/v1"
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	notificationRoutes := notificationHandler.Routes()
	notificationRoutes.Get("/{id}/deliveries", deliveryHandler.ListByNotification)

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/notifications", notificationRoutes)
		r.Mount("/recipients/{recipientId}/notifications", notificationHandler.RecipientRoutes())
		r.Mount("/deliveries", deliveryHandler.Routes())
	})

	return r
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.PingContext(ctx); err != nil {
		response.Error(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Handler returns the HTTP API
func (a *App) Handler() http.Handler {
	return a.router
}

// Publisher returns the transport used for inbound events and delivery requests
func (a *App) Publisher() queue.Publisher {
	return a.broker
}

// Run serves HTTP and runs the ingestion consumers and delivery workers until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("Server starting on port %s", a.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.Println("Server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.RunWorkers(ctx)
	})

	return g.Wait()
}

// RunWorkers runs only the ingestion consumers and delivery workers until ctx is cancelled
func (a *App) RunWorkers(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.consumer.Run(ctx) })
	g.Go(func() error { return a.worker.Run(ctx, a.broker, a.cfg.DeliveryConcurrency) })
	if a.cfg.Transport == config.TransportMemory {
		g.Go(func() error { return delivery.DrainDeadLetters(ctx, a.broker) })
	}
	return g.Wait()
}

// Close releases the transport and the database
func (a *App) Close() error {
	return errors.Join(a.broker.Close(), a.db.Close())
}
