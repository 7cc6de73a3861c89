package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"credit-engine/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const rabbitMQConnectAttempts = 5

func ConnectRabbitMQ(cfg config.RabbitMQConfig, logger *slog.Logger) (*amqp.Connection, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("RabbitMQ host is not configured")
	}
	if (cfg.Username == "") != (cfg.Password == "") {
		return nil, fmt.Errorf("RabbitMQ username and password must be provided together")
	}

	var conn *amqp.Connection
	var err error
	for i := 1; i <= rabbitMQConnectAttempts; i++ {
		conn, err = amqp.Dial(cfg.URI())
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ", "host", cfg.Host)

			go func() {
				blockChan := conn.NotifyBlocked(make(chan amqp.Blocking))
				closeChan := conn.NotifyClose(make(chan *amqp.Error))

				select {
				case b := <-blockChan:
					logger.Warn("RabbitMQ Connection Blocked", "reason", b.Reason)
				case e := <-closeChan:
					logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", rabbitMQConnectAttempts),
			slog.Any("error", err),
		)
		if i < rabbitMQConnectAttempts {
			time.Sleep(time.Duration(i*2) * time.Second)
		}
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", rabbitMQConnectAttempts, err)
}

func CloseRabbitMQ(conn *amqp.Connection, logger *slog.Logger) {
	if conn == nil {
		logger.Info("RabbitMQ connection was not established, skipping close.")
		return
	}
	if conn.IsClosed() {
		logger.Info("RabbitMQ connection already closed, skipping close.")
		return
	}
	logger.Info("Closing RabbitMQ connection...")
	if err := conn.Close(); err != nil {
		logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
		return
	}
	logger.Info("RabbitMQ connection closed.")
}

// NewRedisClient connects and pings the configured Redis instance.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address (addr) is not configured")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	logger.Info("Redis client connected successfully.", "addr", cfg.Addr, "db", cfg.DB)
	return rdb, nil
}

func CloseRedis(client *redis.Client, logger *slog.Logger) {
	if client == nil {
		logger.Info("Redis client was not initialized, skipping close.")
		return
	}
	logger.Info("Closing Redis client connection...")
	if err := client.Close(); err != nil {
		logger.Error("Failed to close Redis client connection gracefully", "error", err)
		return
	}
	logger.Info("Redis client connection closed.")
}
