package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shadatr/costsense-backend/internal/model"
)

// GetCategories returns all categories for a user, ordered by name.
func (s *SQLiteStorage) GetCategories(ctx context.Context, ownerID string) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, name, color, icon, created_at
		FROM categories
		WHERE owner_id = ?
		ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var cat model.Category
		if err := rows.Scan(&cat.ID, &cat.OwnerID, &cat.Name, &cat.Color, &cat.Icon, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	slog.Debug("retrieved categories", "owner", ownerID, "count", len(categories))
	return categories, nil
}

// GetCategoryByName returns a user's category by name, or nil when absent.
func (s *SQLiteStorage) GetCategoryByName(ctx context.Context, ownerID, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, name, color, icon, created_at
		FROM categories
		WHERE owner_id = ? AND name = ?`

	var cat model.Category
	err := s.db.QueryRowContext(ctx, query, ownerID, name).Scan(
		&cat.ID, &cat.OwnerID, &cat.Name, &cat.Color, &cat.Icon, &cat.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Category not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query category: %w", err)
	}

	return &cat, nil
}

// CreateCategory creates a new category for a user.
func (s *SQLiteStorage) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if err := validateString(category.ID, "category.ID"); err != nil {
		return err
	}
	if err := validateString(category.OwnerID, "category.OwnerID"); err != nil {
		return err
	}
	if err := validateString(category.Name, "category.Name"); err != nil {
		return err
	}

	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO categories (id, owner_id, name, color, icon, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		category.ID, category.OwnerID, category.Name, category.Color, category.Icon, category.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	slog.Info("created category", "owner", category.OwnerID, "name", category.Name)
	return nil
}
