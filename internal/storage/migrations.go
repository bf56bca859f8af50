package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 4

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					name TEXT NOT NULL,
					color TEXT NOT NULL DEFAULT '#6b7280',
					icon TEXT NOT NULL DEFAULT '📌',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE(owner_id, name)
				)`,
				`CREATE INDEX idx_categories_owner ON categories(owner_id)`,

				`CREATE TABLE IF NOT EXISTS expenses (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					category_id TEXT NOT NULL,
					amount TEXT NOT NULL,
					occurred_at DATETIME NOT NULL,
					description TEXT,
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,
				`CREATE INDEX idx_expenses_owner_date ON expenses(owner_id, occurred_at)`,
				`CREATE INDEX idx_expenses_category ON expenses(category_id)`,

				`CREATE TABLE IF NOT EXISTS budgets (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					name TEXT NOT NULL DEFAULT '',
					total_amount TEXT NOT NULL,
					start_date DATETIME NOT NULL,
					end_date DATETIME NOT NULL,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_budgets_owner ON budgets(owner_id)`,

				`CREATE TABLE IF NOT EXISTS budget_allocations (
					id TEXT PRIMARY KEY,
					budget_id TEXT NOT NULL,
					category_id TEXT NOT NULL,
					amount TEXT NOT NULL,
					UNIQUE(budget_id, category_id),
					FOREIGN KEY (budget_id) REFERENCES budgets(id) ON DELETE CASCADE,
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Inflation snapshots",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				// One snapshot per calendar day; rewriting a day replaces it.
				`CREATE TABLE IF NOT EXISTS inflation_rates (
					date TEXT PRIMARY KEY,
					overall_rate REAL NOT NULL,
					predicted_rate REAL,
					trend TEXT NOT NULL DEFAULT 'stable',
					source TEXT NOT NULL DEFAULT '',
					category_rates TEXT NOT NULL DEFAULT '{}'
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Deals and saved deals",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS deals (
					id TEXT PRIMARY KEY,
					product TEXT NOT NULL,
					store TEXT NOT NULL,
					old_price TEXT NOT NULL,
					new_price TEXT NOT NULL,
					location TEXT NOT NULL,
					valid_until DATETIME NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_deals_active_valid ON deals(is_active, valid_until)`,
				`CREATE INDEX idx_deals_category ON deals(category)`,

				`CREATE TABLE IF NOT EXISTS saved_deals (
					owner_id TEXT NOT NULL,
					deal_id TEXT NOT NULL,
					saved_at DATETIME NOT NULL,
					used INTEGER NOT NULL DEFAULT 0,
					PRIMARY KEY (owner_id, deal_id),
					FOREIGN KEY (deal_id) REFERENCES deals(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     4,
		Description: "Savings tips and per-user tip interactions",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS savings_tips (
					id TEXT PRIMARY KEY,
					title TEXT NOT NULL,
					description TEXT NOT NULL,
					icon TEXT NOT NULL DEFAULT '💡',
					priority TEXT NOT NULL DEFAULT 'medium',
					category TEXT NOT NULL DEFAULT 'GENERAL',
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_tips_active_category ON savings_tips(is_active, category)`,

				// One interaction row per (user, tip); marks are sticky upserts.
				`CREATE TABLE IF NOT EXISTS tip_interactions (
					owner_id TEXT NOT NULL,
					tip_id TEXT NOT NULL,
					viewed INTEGER NOT NULL DEFAULT 0,
					helpful INTEGER,
					dismissed INTEGER NOT NULL DEFAULT 0,
					viewed_at DATETIME,
					PRIMARY KEY (owner_id, tip_id),
					FOREIGN KEY (tip_id) REFERENCES savings_tips(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
