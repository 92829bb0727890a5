package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// CreateTables creates a table for each model unless it already exists
func CreateTables(ctx context.Context, db *bun.DB, models ...interface{}) error {
	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for model %T: %w", model, err)
		}
	}

	return nil
}

// CreateIndexes runs each CREATE INDEX statement in order
func CreateIndexes(ctx context.Context, db *bun.DB, indexes ...string) error {
	for _, indexSQL := range indexes {
		_, err := db.ExecContext(ctx, indexSQL)
		if err != nil {
			return fmt.Errorf("failed to create index with SQL %q: %w", indexSQL, err)
		}
	}

	return nil
}

// Migrate brings the schema up to date. Every step is idempotent.
func Migrate(ctx context.Context, db *bun.DB, models []interface{}, indexes []string) error {
	if err := CreateTables(ctx, db, models...); err != nil {
		return err
	}
	return CreateIndexes(ctx, db, indexes...)
}
