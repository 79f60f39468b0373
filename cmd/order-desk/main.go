package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/config"
	"github.com/vasiliy-maslov/order-desk/internal/customer"
	"github.com/vasiliy-maslov/order-desk/internal/dashboard"
	"github.com/vasiliy-maslov/order-desk/internal/db"
	"github.com/vasiliy-maslov/order-desk/internal/events"
	handler "github.com/vasiliy-maslov/order-desk/internal/handler/http"
	"github.com/vasiliy-maslov/order-desk/internal/order"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "order-desk").Logger()

	log.Info().Msg("Order desk starting...")

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)
	log.Debug().Str("backend", cfg.Storage.Backend).Str("env", cfg.App.Env).Msg("Configuration loaded")

	customerRepo, orderRepo, closeStorage := openStorage(cfg)
	defer closeStorage()

	publisher := openPublisher(cfg.AMQP)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close event publisher")
		}
	}()

	customerService := customer.NewService(customerRepo, publisher)
	orderService := order.NewService(orderRepo, customerService, publisher)
	dashboardService := dashboard.NewService(orderService, customerService, time.Now)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      handler.NewRouter(customerService, orderService, dashboardService),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
		return
	}
	log.Info().Msg("Server stopped")
}

// setupLogger keeps the console writer for development and switches to JSON lines elsewhere.
func setupLogger(app config.AppConfig) {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("log_level", app.LogLevel).Msg("Unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if app.Env != "development" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", app.Name).Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Str("service", app.Name).Logger()
}

func openStorage(cfg *config.Config) (customer.Repository, order.Repository, func()) {
	if cfg.Storage.Backend == config.BackendMemory {
		log.Warn().Msg("Using in-memory storage, data is lost on restart")
		return customer.NewMemoryRepository(), order.NewMemoryRepository(), func() {}
	}

	sqlDB, err := db.Connect(cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	if err := db.Migrate(sqlDB, cfg.Postgres); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pg, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create database pool")
	}

	closeAll := func() {
		pg.Close()
		if err := sqlDB.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close database handle")
		}
	}
	return customer.NewRepository(sqlDB), order.NewRepository(pg.Pool), closeAll
}

func openPublisher(cfg config.AMQPConfig) events.Publisher {
	if cfg.URL == "" {
		log.Info().Msg("AMQP_URL not set, change events are disabled")
		return events.NopPublisher{}
	}

	publisher, err := events.DialAMQP(cfg.URL, cfg.Exchange)
	if err != nil {
		log.Fatal().Err(err).Str("exchange", cfg.Exchange).Msg("Failed to connect to message broker")
	}
	log.Info().Str("exchange", cfg.Exchange).Msg("Publishing change events")
	return publisher
}
