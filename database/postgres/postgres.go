package postgres

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/net/context"
)

const schema = `
CREATE TABLE IF NOT EXISTS scan_audit_logs (
	id           TEXT PRIMARY KEY,
	zone_id      TEXT NOT NULL,
	scanned_at   TIMESTAMPTZ NOT NULL,
	violation    BOOLEAN NOT NULL,
	message      TEXT NOT NULL,
	person_count INTEGER NOT NULL DEFAULT 0,
	details      TEXT[] NOT NULL DEFAULT '{}',
	snapshot_url TEXT
);
CREATE INDEX IF NOT EXISTS idx_scan_audit_logs_scanned_at ON scan_audit_logs (scanned_at DESC);
CREATE INDEX IF NOT EXISTS idx_scan_audit_logs_zone ON scan_audit_logs (zone_id, scanned_at DESC);
`

// New opens the audit database. DATABASE_URL wins over the DB_* variables.
func New() (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", DSNFromEnv())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	maxOpen := 10
	if v, err := strconv.Atoi(os.Getenv("DB_MAX_OPEN_CONNS")); err == nil && v > 0 {
		maxOpen = v
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

func DSNFromEnv() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}

	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	sslMode := getenv("DB_SSLMODE", "disable")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD")),
		Host:     host + ":" + port,
		Path:     "/" + os.Getenv("DB_NAME"),
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// Migrate creates the audit table when it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate audit schema: %w", err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
