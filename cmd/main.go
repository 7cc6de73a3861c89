package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-engine/internal/api"
	"credit-engine/internal/app"
	"credit-engine/internal/batch"
	"credit-engine/internal/config"
	"credit-engine/internal/event"
	"credit-engine/internal/infrastructure/database/postgres"
	"credit-engine/internal/infrastructure/logging"
	"credit-engine/internal/ingestion"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// @title Credit Engine API
// @version 1.0
// @description Loan origination and credit decision service.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, logger := initializeApp()

	runMigrations(cfg, logger)
	dbPool := initializeDatabase(cfg, logger)
	defer closeDatabase(dbPool, logger)

	rabbitMQConn, publisher := setupRabbitMQ(cfg, logger)
	redisClient := initializeRedisClient(cfg, logger)

	components := app.NewComponents(dbPool, publisher, app.NewClock(cfg.Credit, logger), logger)
	dispatcher, consumer := setupIngestion(cfg, rabbitMQConn, publisher, redisClient, components.Pipeline, logger)

	cronScheduler := startBatchJobs(cfg, logger, batch.NewDebtRecalculationJob(components.Recalculator, logger))

	services := api.Services{
		Customers:  components.Customers,
		Loans:      components.Loans,
		Scorer:     components.Scorer,
		Evaluator:  components.Engine,
		Issuer:     components.Issuer,
		RedisCache: redisClient,
	}
	if dispatcher != nil {
		services.Ingestion = dispatcher
	}
	router := api.SetupRouter(services, cfg, logger)

	srv, serverErrors, shutdownChan := startServer(cfg, router, logger)
	handleShutdown(runtimeResources{
		server:       srv,
		serverErrors: serverErrors,
		scheduler:    cronScheduler,
		consumer:     consumer,
		rabbitConn:   rabbitMQConn,
		redisClient:  redisClient,
	}, shutdownChan, logger)
}

func initializeApp() (*config.Config, *slog.Logger) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logger)
	slog.SetDefault(logger)
	logger.Info("Application starting...", "config_source", viper.ConfigFileUsed())

	return cfg, logger
}

func runMigrations(cfg *config.Config, logger *slog.Logger) {
	if !cfg.Database.Migrate {
		logger.Info("Database migrations disabled via configuration.")
		return
	}
	logger.Info("Applying database migrations...")
	if err := postgres.RunMigrations(cfg.Database.URL); err != nil {
		logger.Error("Failed to apply database migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("Database migrations applied.")
}

func initializeDatabase(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	logger.Info("Initializing database connection pool...")
	dbPool, err := postgres.NewConnectionPool(context.Background(), cfg.Database, logger)
	if err != nil {
		logger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	return dbPool
}

func closeDatabase(dbPool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("Closing database connection pool...")
	dbPool.Close()
}

// setupRabbitMQ returns a nil publisher when the broker is unreachable; events and ingestion are then disabled.
func setupRabbitMQ(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, event.EventPublisher) {
	conn, err := app.ConnectRabbitMQ(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Error("RabbitMQ unavailable, continuing without events", slog.Any("error", err))
		return nil, nil
	}

	publisher, err := event.NewRabbitMQEventPublisher(conn, cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		logger.Error("Failed to create RabbitMQ event publisher", slog.Any("error", err))
		return conn, nil
	}
	return conn, publisher
}

func initializeRedisClient(cfg *config.Config, logger *slog.Logger) *redis.Client {
	logger.Info("Initializing central Redis client...")
	rdb, err := app.NewRedisClient(context.Background(), cfg.Redis, logger)
	if err != nil {
		logger.Error("Redis unavailable, falling back to in-process rate limiting", "error", err)
		return nil
	}
	return rdb
}

func setupIngestion(cfg *config.Config, conn *amqp.Connection, publisher event.EventPublisher, redisClient *redis.Client,
	pipeline *ingestion.Pipeline, logger *slog.Logger) (*ingestion.Dispatcher, *event.Consumer) {
	if conn == nil || publisher == nil || redisClient == nil {
		logger.Warn("Background ingestion requires RabbitMQ and Redis, /ingest is disabled")
		return nil, nil
	}

	store := ingestion.NewRedisTaskStore(redisClient, cfg.Ingestion.ResultTTL)
	taskHandler := ingestion.NewTaskHandler(pipeline, store, logger)

	consumer, err := event.NewConsumer(
		conn,
		cfg.RabbitMQ.ExchangeName,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.ConsumerTag,
		[]string{event.RoutingKeyIngestionRequested},
		taskHandler.HandleDelivery,
		logger,
	)
	if err != nil {
		logger.Error("Failed to create ingestion consumer", slog.Any("error", err))
		return nil, nil
	}
	if err := consumer.Start(context.Background()); err != nil {
		logger.Error("Failed to start ingestion consumer", slog.Any("error", err))
		return nil, nil
	}
	logger.Info("Ingestion consumer started.", "queue", cfg.RabbitMQ.QueueName)

	return ingestion.NewDispatcher(publisher, store, logger), consumer
}

func startServer(cfg *config.Config, router http.Handler, logger *slog.Logger) (*http.Server, <-chan error, <-chan os.Signal) {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	// nil on a clean close so shutdown can wait for the listener to exit.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Credit engine API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
			return
		}
		serverErrors <- nil
	}()
	return srv, serverErrors, shutdownChan
}

// runtimeResources are released in order on shutdown. Nil members are skipped.
type runtimeResources struct {
	server       *http.Server
	serverErrors <-chan error
	scheduler    *cron.Cron
	consumer     *event.Consumer
	rabbitConn   *amqp.Connection
	redisClient  *redis.Client
}

func handleShutdown(res runtimeResources, shutdownChan <-chan os.Signal, logger *slog.Logger) {
	reason, serverDone := waitForShutdownTrigger(shutdownChan, res.serverErrors, logger)
	logger.Info("Starting graceful shutdown...", "trigger", reason)

	stopCronScheduler(res.scheduler, logger)
	if res.consumer != nil {
		res.consumer.Stop()
	}
	app.CloseRabbitMQ(res.rabbitConn, logger)
	app.CloseRedis(res.redisClient, logger)
	if !serverDone {
		shutdownHTTPServer(res.server, res.serverErrors, logger)
	}

	logger.Info("Application shutdown process complete.")
}

// waitForShutdownTrigger blocks until a signal arrives or the server stops on its own.
func waitForShutdownTrigger(shutdownChan <-chan os.Signal, serverErrors <-chan error, logger *slog.Logger) (reason string, serverDone bool) {
	select {
	case sig := <-shutdownChan:
		logger.Info("Shutdown signal received.", "signal", sig.String())
		return "signal: " + sig.String(), false
	case err := <-serverErrors:
		if err != nil {
			logger.Error("Server exited unexpectedly before signal", "error", err)
			os.Exit(1)
		}
		return "server exited", true
	}
}

func stopCronScheduler(scheduler *cron.Cron, logger *slog.Logger) {
	if scheduler == nil {
		return
	}
	select {
	case <-scheduler.Stop().Done():
		logger.Info("Cron scheduler stopped; running debt recalculation finished.")
	case <-time.After(15 * time.Second):
		logger.Warn("Cron scheduler shutdown timed out with a recalculation still running.")
	}
}

func shutdownHTTPServer(srv *http.Server, serverErrors <-chan error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server did not drain in time, forcing close", "error", err)
		_ = srv.Close()
	}

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Warn("Server goroutine exited with error after shutdown", "error", err)
		}
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for server goroutine confirmation.")
	}
	logger.Info("HTTP server stopped.")
}

func startBatchJobs(cfg *config.Config, logger *slog.Logger, job *batch.DebtRecalculationJob) *cron.Cron {
	c, _, err := batch.NewScheduler(cfg.Batch, job, logger)
	if err != nil {
		logger.Error("Batch jobs disabled", slog.Any("error", err))
		return nil
	}
	c.Start()
	logger.Info("Cron scheduler started.")
	return c
}
