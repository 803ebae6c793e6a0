package repository

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Terms carry no foreign keys: deleting an attribute or a parent term leaves
// orphans behind, and readers tolerate them.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS attributes (
		id              TEXT PRIMARY KEY,
		name            TEXT NOT NULL,
		selection_type  TEXT NOT NULL DEFAULT 'select',
		is_hierarchical BOOLEAN NOT NULL DEFAULT FALSE,
		is_active       BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS terms (
		id           TEXT PRIMARY KEY,
		attribute_id TEXT NOT NULL,
		name         TEXT NOT NULL,
		parent_id    TEXT,
		path         TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS terms_attribute_id_idx ON terms (attribute_id)`,
	`CREATE TABLE IF NOT EXISTS products (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		price       NUMERIC(12, 2) NOT NULL DEFAULT 0,
		currency    TEXT NOT NULL DEFAULT 'TRY',
		stock       INTEGER NOT NULL DEFAULT 0,
		is_active   BOOLEAN,
		attributes  JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
}

// Migrate creates the tables if they do not exist yet.
func Migrate(ctx context.Context, db DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	log.Infof("✅ Schema ready (%d statements)", len(schema))
	return nil
}
