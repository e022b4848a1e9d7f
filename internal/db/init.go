// Package db opens Postgres connections for the membership store and carries
// the membership schema script.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/lib/pq"
)

// MembershipSchema is the DDL applied by `user --install`. Batches are
// separated by GO lines.
//
//go:embed schema/membership_schema.sql
var MembershipSchema string

// Open returns a Postgres handle without contacting the server.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// Connect opens a Postgres handle and verifies the server is reachable.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}
