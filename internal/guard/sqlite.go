// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package guard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS guard_leases (
	key            TEXT PRIMARY KEY,
	owner          TEXT NOT NULL,
	expires_at_ms  INTEGER NOT NULL
);
`

// SqliteLock is the local single-writer backend: one row per key in an
// embedded sqlite database, grounded on teacher's
// Store.TryAcquireLease/RenewLease/ReleaseLease (sqlite_store.go).
type SqliteLock struct {
	db *sql.DB
}

// OpenSqliteLock migrates the schema against db and returns a SqliteLock.
func OpenSqliteLock(ctx context.Context, db *sql.DB) (*SqliteLock, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("guard: migrate: %w", err)
	}
	return &SqliteLock{db: db}, nil
}

type sqliteLease struct {
	owner   string
	expires time.Time
}

func (l *sqliteLease) Owner() string         { return l.owner }
func (l *sqliteLease) ExpiresAt() time.Time { return l.expires }

func (s *SqliteLock) TryAcquire(ctx context.Context, key, owner string, ttl time.Duration) (Lease, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	now := time.Now()
	expiresAt := now.Add(ttl)

	var currentOwner string
	var currentExpiresMs int64
	err = tx.QueryRowContext(ctx, "SELECT owner, expires_at_ms FROM guard_leases WHERE key = ?", key).
		Scan(&currentOwner, &currentExpiresMs)
	if err == nil {
		if currentExpiresMs > now.UnixMilli() && currentOwner != owner {
			return &sqliteLease{owner: currentOwner, expires: time.UnixMilli(currentExpiresMs)}, false, nil
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO guard_leases (key, owner, expires_at_ms) VALUES (?, ?, ?)",
		key, owner, expiresAt.UnixMilli()); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &sqliteLease{owner: owner, expires: expiresAt}, true, nil
}

func (s *SqliteLock) Renew(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE guard_leases SET expires_at_ms = ? WHERE key = ? AND owner = ?",
		time.Now().Add(ttl).UnixMilli(), key, owner)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SqliteLock) Release(ctx context.Context, key, owner string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM guard_leases WHERE key = ? AND owner = ?", key, owner)
	return err
}

func (s *SqliteLock) Get(ctx context.Context, key string) (Lease, bool, error) {
	var owner string
	var expiresMs int64
	err := s.db.QueryRowContext(ctx, "SELECT owner, expires_at_ms FROM guard_leases WHERE key = ?", key).
		Scan(&owner, &expiresMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &sqliteLease{owner: owner, expires: time.UnixMilli(expiresMs)}, true, nil
}

var _ Lock = (*SqliteLock)(nil)
