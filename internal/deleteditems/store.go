// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package deleteditems persists the snapshot/deleted-items ledger plugins
// use to compute incremental deletes (spec.md §6). All timestamps are
// stored UTC and returned converted to local time.
package deleteditems

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot (
	itemid       VARCHAR(512) PRIMARY KEY,
	creationtime TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS deleteditems (
	itemid       VARCHAR(512) PRIMARY KEY,
	creationtime TIMESTAMP NOT NULL,
	deletetime   TIMESTAMP NOT NULL
);
`

// Item pairs an item id with its creation time.
type Item struct {
	ItemID       string
	CreationTime time.Time
}

// DeletedItem additionally carries the time the item was deleted.
type DeletedItem struct {
	ItemID       string
	CreationTime time.Time
	DeleteTime   time.Time
}

// Store is the deleted-items ledger for one profile's data source.
type Store struct {
	db *sql.DB
}

// Open migrates the schema (if absent) against db and returns a Store.
func Open(ctx context.Context, db *sql.DB) (*Store, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("deleteditems: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// SetSnapshot replaces the entire snapshot table with xs.
func (s *Store) SetSnapshot(ctx context.Context, xs []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleteditems: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM snapshot"); err != nil {
		return fmt.Errorf("deleteditems: clear snapshot: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO snapshot (itemid, creationtime) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("deleteditems: prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, x := range xs {
		if _, err := stmt.ExecContext(ctx, x.ItemID, x.CreationTime.UTC()); err != nil {
			return fmt.Errorf("deleteditems: insert snapshot row: %w", err)
		}
	}
	return tx.Commit()
}

// GetSnapshot returns the current snapshot, order irrelevant, with times
// converted back to local time.
func (s *Store) GetSnapshot(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT itemid, creationtime FROM snapshot")
	if err != nil {
		return nil, fmt.Errorf("deleteditems: query snapshot: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var ts time.Time
		if err := rows.Scan(&it.ItemID, &ts); err != nil {
			return nil, fmt.Errorf("deleteditems: scan snapshot row: %w", err)
		}
		it.CreationTime = ts.Local()
		out = append(out, it)
	}
	return out, rows.Err()
}

// AddDeletedItems batch-inserts xs into the deleted-items ledger.
func (s *Store) AddDeletedItems(ctx context.Context, xs []DeletedItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleteditems: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO deleteditems (itemid, creationtime, deletetime) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("deleteditems: prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, x := range xs {
		if _, err := stmt.ExecContext(ctx, x.ItemID, x.CreationTime.UTC(), x.DeleteTime.UTC()); err != nil {
			return fmt.Errorf("deleteditems: insert deleted row: %w", err)
		}
	}
	return tx.Commit()
}

// GetDeletedItems returns rows where creationtime < since < deletetime,
// i.e. items that existed before `since` and were deleted after it.
func (s *Store) GetDeletedItems(ctx context.Context, since time.Time) ([]DeletedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT itemid, creationtime, deletetime FROM deleteditems WHERE creationtime < ? AND deletetime > ?",
		since.UTC(), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("deleteditems: query deleted: %w", err)
	}
	defer rows.Close()

	var out []DeletedItem
	for rows.Next() {
		var d DeletedItem
		var created, deleted time.Time
		if err := rows.Scan(&d.ItemID, &created, &deleted); err != nil {
			return nil, fmt.Errorf("deleteditems: scan deleted row: %w", err)
		}
		d.CreationTime = created.Local()
		d.DeleteTime = deleted.Local()
		out = append(out, d)
	}
	return out, rows.Err()
}
