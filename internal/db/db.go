package db

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Init connects to the goal database without touching the schema.
func Init(driver, connection string) (*sqlx.DB, error) {
	if driver == "sqlite" {
		if err := ensureSQLiteDir(connection); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	database, err := sqlx.ConnectContext(ctx, driver, connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite" {
		// One writer at a time; WAL lets readers proceed.
		database.SetMaxOpenConns(1)
	} else {
		database.SetMaxOpenConns(25)
		database.SetMaxIdleConns(5)
	}
	database.SetConnMaxLifetime(5 * time.Minute)

	slog.Debug("database connected", "driver", driver)
	return database, nil
}

// Open connects and applies pending migrations.
func Open(driver, connection string) (*sqlx.DB, error) {
	database, err := Init(driver, connection)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(context.Background(), database.DB, driver); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

func ensureSQLiteDir(connection string) error {
	if strings.HasPrefix(connection, ":memory:") || strings.Contains(connection, "mode=memory") {
		return nil
	}
	path, _, _ := strings.Cut(strings.TrimPrefix(connection, "file:"), "?")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
