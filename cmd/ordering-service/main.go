package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"ordering/internal/config"
	"ordering/internal/delivery/events"
	httpapi "ordering/internal/delivery/http"
	"ordering/internal/messaging"
	kafkabus "ordering/internal/messaging/kafka"
	"ordering/internal/metrics"
	redisstore "ordering/internal/repository/redis"
	"ordering/internal/runtime"
	"ordering/internal/saga"
	pgscheduler "ordering/internal/scheduler/postgres"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.FromEnv()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Order state store (Redis) ---
	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to redis", "err", err)
		os.Exit(1)
	}
	store := redisstore.NewStore(redisClient)

	// --- Durable reminders (Postgres) ---
	db, err := pgscheduler.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to init database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	sched := pgscheduler.NewScheduler(db, cfg.PollInterval, logger)

	// --- Integration events (Kafka) ---
	bus, err := kafkabus.NewEventBus(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.Error("Failed to create event bus", "err", err)
		os.Exit(1)
	}
	defer bus.Close()

	sagaMetrics := metrics.NewSagaMetrics(prometheus.DefaultRegisterer)
	instrumentedBus := messaging.InstrumentedBus{
		Next: bus,
		Observe: func(eventType string) {
			sagaMetrics.EventsPublished.WithLabelValues(eventType).Inc()
		},
	}

	// --- Saga runtime ---
	router := runtime.NewRouter(runtime.Config{
		Store:     store,
		Scheduler: sched,
		Events:    instrumentedBus,
		Settings: saga.Settings{
			GracePeriod:       cfg.GracePeriod,
			SimulatedWorkTime: cfg.SimulatedWorkTime,
		},
		Metrics: sagaMetrics,
		Logger:  logger,
	})

	go sched.Run(ctx, router.HandleReminder)

	subscriber := kafkabus.NewSubscriber(cfg.KafkaBrokers, logger)
	events.NewHandlers(router, logger).Run(ctx, subscriber, cfg.ConsumerGroup)
	logger.Info("Notification consumers started", "group", cfg.ConsumerGroup)

	// --- HTTP API ---
	handler := httpapi.NewHandler(router, logger)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Engine(),
	}

	go func() {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")
	httpServer.Shutdown(context.Background())
}
