package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"cloud-restaurant/internal/adapter/logger"
	"cloud-restaurant/internal/adapter/memory"
	"cloud-restaurant/internal/adapter/payment"
	"cloud-restaurant/internal/adapter/postgres"
	"cloud-restaurant/internal/adapter/rabbitmq"
	"cloud-restaurant/internal/app/fulfillment"
	"cloud-restaurant/internal/app/intake"
	"cloud-restaurant/internal/app/preparation"
	"cloud-restaurant/internal/app/tracking"
	"cloud-restaurant/internal/config"
	"cloud-restaurant/internal/interfaces"

	amqpAdapter "cloud-restaurant/internal/adapter/amqp"
	httpAdapter "cloud-restaurant/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	mode := flag.String("mode", "", "Service mode: intake-worker, preparation-api, tracking-service, notification-subscriber")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	prefetch := flag.Int("prefetch", 1, "RabbitMQ prefetch count")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	if *mode == "" {
		log.Fatal("--mode flag is required")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port == 0 {
		*port = cfg.HTTP.Port
	}

	ctx := context.Background()

	// Initialize logger
	lgr := logger.New(*mode)

	// Build the store backend
	repos, closeStore, err := buildStore(ctx, cfg, lgr)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer closeStore()

	// Route to appropriate service
	switch *mode {
	case "intake-worker":
		runIntakeWorker(ctx, cfg, repos, lgr, *prefetch)

	case "preparation-api":
		runPreparationAPI(ctx, cfg, repos, lgr, *port)

	case "tracking-service":
		runTrackingService(ctx, repos, lgr, *port)

	case "notification-subscriber":
		runNotificationSubscriber(ctx, cfg, lgr)

	default:
		log.Fatalf("Invalid mode: %s", *mode)
	}
}

type repositories struct {
	executions interfaces.ExecutionRepository
	orders     interfaces.OrderRepository
	tasks      interfaces.TaskRepository
}

func buildStore(ctx context.Context, cfg *config.Config, lgr logger.Logger) (repositories, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		store := memory.NewStore()
		lgr.Info("store_ready", "Using in-memory store", "startup", nil)
		return repositories{
			executions: store,
			orders:     store,
			tasks:      store,
		}, func() {}, nil

	case "postgres":
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return repositories{}, nil, fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return repositories{}, nil, fmt.Errorf("ensure schema: %w", err)
		}
		lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
			"host": cfg.Database.Host,
			"db":   cfg.Database.Database,
		})
		return repositories{
			executions: postgres.NewExecutionRepository(db),
			orders:     postgres.NewOrderRepository(db),
			tasks:      postgres.NewTaskRepository(db),
		}, db.Close, nil

	default:
		return repositories{}, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func connectRabbitMQ(cfg *config.Config, lgr logger.Logger) rabbitmq.Connection {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})
	return mqConn
}

func retryPolicy(cfg config.PaymentConfig) fulfillment.RetryPolicy {
	policy := fulfillment.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialIntervalMS > 0 {
		policy.InitialInterval = time.Duration(cfg.InitialIntervalMS) * time.Millisecond
	}
	if cfg.MaxIntervalMS > 0 {
		policy.MaxInterval = time.Duration(cfg.MaxIntervalMS) * time.Millisecond
	}
	return policy
}

func runIntakeWorker(ctx context.Context, cfg *config.Config, repos repositories, lgr logger.Logger, prefetch int) {
	mqConn := connectRabbitMQ(cfg, lgr)
	defer mqConn.Close()

	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, prefetch)
	processor := payment.NewHTTPProcessor(cfg.Payment)

	interpreter := fulfillment.NewInterpreter(repos.executions, repos.orders, processor, publisher, lgr, retryPolicy(cfg.Payment))
	intakeService := intake.NewService(repos.executions, interpreter, lgr, cfg.Deadline())

	orderHandler := amqpAdapter.NewOrderHandler(intakeService, lgr)

	lgr.Info("service_started", "Intake Worker started", "startup", map[string]interface{}{
		"prefetch": prefetch,
	})

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := consumer.ConsumeOrders(consumerCtx, orderHandler.HandleOrder); err != nil && consumerCtx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming orders", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("graceful_shutdown", "Shutting down Intake Worker", "shutdown", nil)
	cancel()
}

func runPreparationAPI(ctx context.Context, cfg *config.Config, repos repositories, lgr logger.Logger, port int) {
	mqConn := connectRabbitMQ(cfg, lgr)
	defer mqConn.Close()

	publisher := rabbitmq.NewPublisher(mqConn)
	processor := payment.NewHTTPProcessor(cfg.Payment)

	interpreter := fulfillment.NewInterpreter(repos.executions, repos.orders, processor, publisher, lgr, retryPolicy(cfg.Payment))
	prepService := preparation.NewService(repos.executions, repos.tasks, interpreter, lgr)

	prepHandler := httpAdapter.NewPreparationHandler(prepService, lgr)

	r := chi.NewRouter()
	prepHandler.RegisterRoutes(r)

	serveHTTP(r, lgr, port, "Preparation API")
}

func runTrackingService(ctx context.Context, repos repositories, lgr logger.Logger, port int) {
	trackingService := tracking.NewService(repos.orders, repos.executions, lgr)
	trackingHandler := httpAdapter.NewTrackingHandler(trackingService, lgr)

	r := chi.NewRouter()
	trackingHandler.RegisterRoutes(r)

	serveHTTP(r, lgr, port, "Tracking Service")
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, lgr logger.Logger) {
	mqConn := connectRabbitMQ(cfg, lgr)
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, 1)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", "startup", nil)

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		if err := consumer.ConsumeNotifications(consumerCtx, notificationHandler.HandleNotification); err != nil && consumerCtx.Err() == nil {
			lgr.Error("consumer_error", "Error consuming notifications", "runtime", nil, err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
	cancel()
}

func serveHTTP(r chi.Router, lgr logger.Logger, port int, name string) {
	handler := httpAdapter.LoggingMiddleware(lgr)(r)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("%s started on port %d", name, port), "startup", map[string]interface{}{
		"port": port,
	})

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lgr.Info("shutdown_initiated", fmt.Sprintf("Shutting down %s", name), "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
	}
}
