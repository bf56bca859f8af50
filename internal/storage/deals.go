package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shopspring/decimal"
)

// GetActiveDeals returns all deals that are active and not yet expired.
func (s *SQLiteStorage) GetActiveDeals(ctx context.Context, now time.Time) ([]model.Deal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, product, store, old_price, new_price, location, valid_until, category, is_active, created_at
		FROM deals
		WHERE is_active = 1 AND valid_until >= ?
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query active deals: %w", err)
	}
	defer rows.Close()

	return scanDeals(rows)
}

// GetDealByID returns a deal by id regardless of validity, or nil when absent.
func (s *SQLiteStorage) GetDealByID(ctx context.Context, id string) (*model.Deal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, product, store, old_price, new_price, location, valid_until, category, is_active, created_at
		FROM deals
		WHERE id = ?`

	deal, err := scanDeal(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Deal not found
	}
	if err != nil {
		return nil, err
	}
	return deal, nil
}

// GetDealsByCategory returns visible deals whose category contains the given
// string, case-insensitively, ordered by discount descending.
func (s *SQLiteStorage) GetDealsByCategory(ctx context.Context, category string, now time.Time) ([]model.Deal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(category, "category"); err != nil {
		return nil, err
	}

	// LIKE is case-insensitive for ASCII in SQLite; lower() covers the rest of
	// the stored side.
	query := `
		SELECT id, product, store, old_price, new_price, location, valid_until, category, is_active, created_at
		FROM deals
		WHERE is_active = 1 AND valid_until >= ? AND lower(category) LIKE '%' || lower(?) || '%'
		ORDER BY (1.0 - CAST(new_price AS REAL) / CAST(old_price AS REAL)) DESC, id`

	rows, err := s.db.QueryContext(ctx, query, now, category)
	if err != nil {
		return nil, fmt.Errorf("failed to query deals by category: %w", err)
	}
	defer rows.Close()

	return scanDeals(rows)
}

// CreateDeal persists a new deal.
func (s *SQLiteStorage) CreateDeal(ctx context.Context, deal *model.Deal) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateDeal(deal); err != nil {
		return err
	}

	if deal.CreatedAt.IsZero() {
		deal.CreatedAt = time.Now()
	}

	locJSON, err := json.Marshal(deal.Location)
	if err != nil {
		return fmt.Errorf("failed to encode deal location: %w", err)
	}

	query := `
		INSERT INTO deals (id, product, store, old_price, new_price, location, valid_until, category, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		deal.ID, deal.Product, deal.Store, deal.OldPrice.String(), deal.NewPrice.String(),
		string(locJSON), deal.ValidUntil, deal.Category, deal.IsActive, deal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

// DeactivateExpiredDeals flips is_active off for deals past their valid_until.
// Reads already treat expired deals as invisible; this is housekeeping only.
func (s *SQLiteStorage) DeactivateExpiredDeals(ctx context.Context, now time.Time) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE deals SET is_active = 0 WHERE is_active = 1 AND valid_until < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired deals: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deactivated deals: %w", err)
	}
	if count > 0 {
		slog.Info("deactivated expired deals", "count", count)
	}
	return count, nil
}

// UpsertSavedDeal records that a user saved a deal. At most one row per
// (owner, deal) pair exists; saving again refreshes saved_at and leaves the
// used flag alone.
func (s *SQLiteStorage) UpsertSavedDeal(ctx context.Context, ownerID, dealID string, savedAt time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	if err := validateString(dealID, "dealID"); err != nil {
		return err
	}

	query := `
		INSERT INTO saved_deals (owner_id, deal_id, saved_at, used)
		VALUES (?, ?, ?, 0)
		ON CONFLICT(owner_id, deal_id) DO UPDATE SET saved_at = excluded.saved_at`

	if _, err := s.db.ExecContext(ctx, query, ownerID, dealID, savedAt); err != nil {
		return fmt.Errorf("failed to save deal: %w", err)
	}
	return nil
}

// GetSavedDeals returns a user's saved deals joined with the deal rows,
// most recently saved first.
func (s *SQLiteStorage) GetSavedDeals(ctx context.Context, ownerID string) ([]service.SavedDealRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT sd.owner_id, sd.deal_id, sd.saved_at, sd.used,
			d.id, d.product, d.store, d.old_price, d.new_price, d.location, d.valid_until, d.category, d.is_active, d.created_at
		FROM saved_deals sd
		JOIN deals d ON d.id = sd.deal_id
		WHERE sd.owner_id = ?
		ORDER BY sd.saved_at DESC, sd.deal_id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved deals: %w", err)
	}
	defer rows.Close()

	var records []service.SavedDealRecord
	for rows.Next() {
		var rec service.SavedDealRecord
		var oldPrice, newPrice, locJSON string
		err := rows.Scan(&rec.Saved.OwnerID, &rec.Saved.DealID, &rec.Saved.SavedAt, &rec.Saved.Used,
			&rec.Deal.ID, &rec.Deal.Product, &rec.Deal.Store, &oldPrice, &newPrice, &locJSON,
			&rec.Deal.ValidUntil, &rec.Deal.Category, &rec.Deal.IsActive, &rec.Deal.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved deal: %w", err)
		}
		if err := fillDealValues(&rec.Deal, oldPrice, newPrice, locJSON); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating saved deals: %w", err)
	}
	return records, nil
}

// MarkSavedDealUsed flags a saved deal as redeemed.
func (s *SQLiteStorage) MarkSavedDealUsed(ctx context.Context, ownerID, dealID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	if err := validateString(dealID, "dealID"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE saved_deals SET used = 1 WHERE owner_id = ? AND deal_id = ?`, ownerID, dealID)
	if err != nil {
		return fmt.Errorf("failed to mark deal used: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check marked rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: saved deal %s for owner %s", common.ErrNotFound, dealID, ownerID)
	}
	return nil
}

func scanDeal(row rowScanner) (*model.Deal, error) {
	var deal model.Deal
	var oldPrice, newPrice, locJSON string
	err := row.Scan(&deal.ID, &deal.Product, &deal.Store, &oldPrice, &newPrice, &locJSON,
		&deal.ValidUntil, &deal.Category, &deal.IsActive, &deal.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan deal: %w", err)
	}
	if err := fillDealValues(&deal, oldPrice, newPrice, locJSON); err != nil {
		return nil, err
	}
	return &deal, nil
}

func scanDeals(rows *sql.Rows) ([]model.Deal, error) {
	var deals []model.Deal
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, *deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating deals: %w", err)
	}
	return deals, nil
}

func fillDealValues(deal *model.Deal, oldPrice, newPrice, locJSON string) error {
	var err error
	deal.OldPrice, err = decimal.NewFromString(oldPrice)
	if err != nil {
		return fmt.Errorf("failed to parse deal old price %q: %w", oldPrice, err)
	}
	deal.NewPrice, err = decimal.NewFromString(newPrice)
	if err != nil {
		return fmt.Errorf("failed to parse deal new price %q: %w", newPrice, err)
	}
	if err := json.Unmarshal([]byte(locJSON), &deal.Location); err != nil {
		return fmt.Errorf("failed to decode deal location: %w", err)
	}
	return nil
}
