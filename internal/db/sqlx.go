package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/order-desk/internal/config"
)

// Connect opens the database/sql handle used by the customer repository and migrations.
func Connect(cfg config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", ConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)

	log.Info().Str("driver", "postgres").Msg("Connected to PostgreSQL via sqlx")
	return db, nil
}
