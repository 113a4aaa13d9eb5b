package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/osvaldoandrade/imagegenie/pkg/domain"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to sqlite (modernc) or postgres (lib/pq) and bootstraps the schema.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	driver = strings.ToLower(strings.TrimSpace(driver))
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(dsn); dir != "" && dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	case "postgres":
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == "sqlite" {
		// one writer; concurrent task goroutines queue on the pool
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS voting_sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users (user_id),
		prompt TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS model_rankings (
		ranking_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES voting_sessions (session_id),
		model_name TEXT NOT NULL,
		model_id TEXT NOT NULL,
		rank_position INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS images (
		image_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users (user_id),
		filepath TEXT NOT NULL,
		prompt TEXT NOT NULL,
		model_name TEXT NOT NULL,
		model_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

// EnsureSchema creates the tables if missing and guarantees the anonymous user row.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, db.Rebind(`
		INSERT INTO users (user_id, username, created_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`),
		domain.AnonymousUserID, domain.AnonymousUsername, time.Now().UTC())
	return err
}
