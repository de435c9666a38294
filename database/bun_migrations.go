package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// runMigrations runs all Bun migrations
func (b *BunDB) runMigrations(ctx context.Context) error {
	// Create a simple migrations tracking table.
	// AUTOINCREMENT is sqlite-only so postgres gets SERIAL.
	_, isPostgres := b.db.Dialect().(interface{ SupportsReturning() bool })
	migrationsTableSQL := `
		CREATE TABLE IF NOT EXISTS bun_schema_migrations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			version TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if isPostgres {
		migrationsTableSQL = `
		CREATE TABLE IF NOT EXISTS bun_schema_migrations (
			id SERIAL PRIMARY KEY,
			version TEXT NOT NULL UNIQUE,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	}
	_, err := b.db.ExecContext(ctx, migrationsTableSQL)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Check which migrations have been applied
	type AppliedMigration struct {
		bun.BaseModel `bun:"table:bun_schema_migrations"`
		Version       string `bun:"version"`
	}
	var applied []AppliedMigration
	err = b.db.NewSelect().
		Model(&applied).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to check applied migrations: %w", err)
	}

	appliedMap := make(map[string]bool)
	for _, m := range applied {
		appliedMap[m.Version] = true
	}

	// Run migrations in order
	migrations := []struct {
		version string
		name    string
		up      func(context.Context, *bun.DB) error
	}{
		{"001", "create_content_tables", init001CreateContentTables},
		{"002", "create_export_history", init002CreateExportHistory},
	}

	for _, m := range migrations {
		if appliedMap[m.version] {
			continue
		}

		Logger.Info("Running migration", "version", m.version, "name", m.name)
		if err := m.up(ctx, b.db); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.version, err)
		}

		// Mark as applied
		_, err = b.db.NewInsert().
			Model(&AppliedMigration{Version: m.version}).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark migration %s as applied: %w", m.version, err)
		}
	}

	Logger.Info("All migrations completed successfully")
	return nil
}

// Migration 001: Create content tables (catalogs, cards, themes, glossary)
func init001CreateContentTables(ctx context.Context, db *bun.DB) error {
	Logger.Info("Running migration 001: Create content tables")

	tables := []string{
		`CREATE TABLE IF NOT EXISTS catalogs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			product_name TEXT DEFAULT '',
			tags TEXT DEFAULT '[]',
			template_id TEXT DEFAULT '',
			theme_id TEXT DEFAULT '',
			pages TEXT DEFAULT '[]',
			version INTEGER DEFAULT 1,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			card_type TEXT DEFAULT 'greeting',
			content TEXT DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS themes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			primary_color TEXT DEFAULT '',
			secondary_color TEXT DEFAULT '',
			accent_color TEXT DEFAULT '',
			background_color TEXT DEFAULT '',
			text_color TEXT DEFAULT '',
			heading_font TEXT DEFAULT '',
			body_font TEXT DEFAULT '',
			accent_font TEXT DEFAULT '',
			is_preset BOOLEAN DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS glossary (
			id TEXT PRIMARY KEY,
			source_term TEXT NOT NULL,
			target_term TEXT NOT NULL,
			locked BOOLEAN DEFAULT true,
			case_sensitive BOOLEAN DEFAULT true
		)`,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_catalogs_updated_at ON catalogs(updated_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_cards_card_type ON cards(card_type)",
		"CREATE INDEX IF NOT EXISTS idx_cards_updated_at ON cards(updated_at DESC)",
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	Logger.Info("Migration 001 completed successfully")
	return nil
}

// Migration 002: Create export_history table
func init002CreateExportHistory(ctx context.Context, db *bun.DB) error {
	Logger.Info("Running migration 002: Create export history table")

	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS export_history (
			id TEXT PRIMARY KEY,
			catalog_id TEXT DEFAULT '',
			card_id TEXT DEFAULT '',
			format TEXT NOT NULL,
			size_preset TEXT NOT NULL,
			quality TEXT NOT NULL,
			file_name TEXT DEFAULT '',
			file_size BIGINT DEFAULT 0,
			page_count INTEGER DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create export_history table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_export_history_created_at ON export_history(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_export_history_format ON export_history(format)",
	}

	for _, idx := range indexes {
		if _, err := db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	Logger.Info("Migration 002 completed successfully")
	return nil
}
