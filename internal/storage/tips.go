package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shadatr/costsense-backend/internal/common"
	"github.com/shadatr/costsense-backend/internal/model"
)

// tipPriorityOrder sorts tips most urgent first; unknown priorities sink.
const tipPriorityOrder = `CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 WHEN 'low' THEN 2 ELSE 3 END`

// GetActiveTips returns all active savings tips, highest priority first and
// newest within a priority.
func (s *SQLiteStorage) GetActiveTips(ctx context.Context) ([]model.SavingsTip, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, title, description, icon, priority, category, is_active, created_at
		FROM savings_tips
		WHERE is_active = 1
		ORDER BY ` + tipPriorityOrder + `, created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active tips: %w", err)
	}
	defer rows.Close()

	return scanTips(rows)
}

// GetTipByID returns a tip by id regardless of active state, or nil when absent.
func (s *SQLiteStorage) GetTipByID(ctx context.Context, id string) (*model.SavingsTip, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, title, description, icon, priority, category, is_active, created_at
		FROM savings_tips
		WHERE id = ?`

	tip, err := scanTip(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Tip not found
	}
	if err != nil {
		return nil, err
	}
	return tip, nil
}

// GetTipsByTipCategories returns active tips whose category is one of the
// given tip categories, ordered like GetActiveTips.
func (s *SQLiteStorage) GetTipsByTipCategories(ctx context.Context, categories []string) ([]model.SavingsTip, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(categories)), ", ")
	query := `
		SELECT id, title, description, icon, priority, category, is_active, created_at
		FROM savings_tips
		WHERE is_active = 1 AND category IN (` + placeholders + `)
		ORDER BY ` + tipPriorityOrder + `, created_at DESC, id`

	args := make([]any, len(categories))
	for i, c := range categories {
		args[i] = c
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tips by category: %w", err)
	}
	defer rows.Close()

	return scanTips(rows)
}

// CreateTip persists a new savings tip.
func (s *SQLiteStorage) CreateTip(ctx context.Context, tip *model.SavingsTip) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTip(tip); err != nil {
		return err
	}

	if tip.CreatedAt.IsZero() {
		tip.CreatedAt = time.Now()
	}
	if tip.Priority == "" {
		tip.Priority = model.TipPriorityMedium
	}

	query := `
		INSERT INTO savings_tips (id, title, description, icon, priority, category, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		tip.ID, tip.Title, tip.Description, tip.Icon, string(tip.Priority),
		tip.Category, tip.IsActive, tip.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tip: %w", err)
	}
	return nil
}

// DeactivateTip retires a tip from all listings without deleting its
// interaction history.
func (s *SQLiteStorage) DeactivateTip(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE savings_tips SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate tip: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deactivated rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: tip %s", common.ErrNotFound, id)
	}
	return nil
}

// GetTipInteractions returns all of a user's tip interaction rows.
func (s *SQLiteStorage) GetTipInteractions(ctx context.Context, ownerID string) ([]model.TipInteraction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT owner_id, tip_id, viewed, helpful, dismissed, viewed_at
		FROM tip_interactions
		WHERE owner_id = ?
		ORDER BY tip_id`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tip interactions: %w", err)
	}
	defer rows.Close()

	var interactions []model.TipInteraction
	for rows.Next() {
		var it model.TipInteraction
		var helpful sql.NullBool
		var viewedAt sql.NullTime
		if err := rows.Scan(&it.OwnerID, &it.TipID, &it.Viewed, &helpful, &it.Dismissed, &viewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tip interaction: %w", err)
		}
		if helpful.Valid {
			it.Helpful = &helpful.Bool
		}
		if viewedAt.Valid {
			t := viewedAt.Time
			it.ViewedAt = &t
		}
		interactions = append(interactions, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tip interactions: %w", err)
	}
	return interactions, nil
}

// MarkTipViewed records that a user viewed a tip. Re-viewing refreshes the
// timestamp and leaves feedback and dismissal alone.
func (s *SQLiteStorage) MarkTipViewed(ctx context.Context, ownerID, tipID string, at time.Time) error {
	if err := validateTipPair(ctx, ownerID, tipID); err != nil {
		return err
	}

	query := `
		INSERT INTO tip_interactions (owner_id, tip_id, viewed, viewed_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(owner_id, tip_id) DO UPDATE SET viewed = 1, viewed_at = excluded.viewed_at`

	if _, err := s.db.ExecContext(ctx, query, ownerID, tipID, at); err != nil {
		return fmt.Errorf("failed to mark tip viewed: %w", err)
	}
	return nil
}

// SetTipFeedback records whether the user found a tip helpful. Feedback
// implies the tip was seen.
func (s *SQLiteStorage) SetTipFeedback(ctx context.Context, ownerID, tipID string, helpful bool, at time.Time) error {
	if err := validateTipPair(ctx, ownerID, tipID); err != nil {
		return err
	}

	query := `
		INSERT INTO tip_interactions (owner_id, tip_id, viewed, helpful, viewed_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(owner_id, tip_id) DO UPDATE SET viewed = 1, helpful = excluded.helpful`

	if _, err := s.db.ExecContext(ctx, query, ownerID, tipID, helpful, at); err != nil {
		return fmt.Errorf("failed to record tip feedback: %w", err)
	}
	return nil
}

// DismissTip hides a tip from the user's personalized listing permanently.
func (s *SQLiteStorage) DismissTip(ctx context.Context, ownerID, tipID string) error {
	if err := validateTipPair(ctx, ownerID, tipID); err != nil {
		return err
	}

	query := `
		INSERT INTO tip_interactions (owner_id, tip_id, viewed, dismissed)
		VALUES (?, ?, 1, 1)
		ON CONFLICT(owner_id, tip_id) DO UPDATE SET dismissed = 1`

	if _, err := s.db.ExecContext(ctx, query, ownerID, tipID); err != nil {
		return fmt.Errorf("failed to dismiss tip: %w", err)
	}
	return nil
}

// GetTipEffectiveness aggregates interaction counts across all users of a tip.
func (s *SQLiteStorage) GetTipEffectiveness(ctx context.Context, tipID string) (*model.TipEffectiveness, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(tipID, "tipID"); err != nil {
		return nil, err
	}

	query := `
		SELECT
			COUNT(CASE WHEN viewed = 1 THEN 1 END),
			COUNT(CASE WHEN helpful = 1 THEN 1 END),
			COUNT(CASE WHEN helpful = 0 THEN 1 END),
			COUNT(CASE WHEN dismissed = 1 THEN 1 END)
		FROM tip_interactions
		WHERE tip_id = ?`

	eff := model.TipEffectiveness{TipID: tipID}
	err := s.db.QueryRowContext(ctx, query, tipID).Scan(
		&eff.TotalViews, &eff.HelpfulVotes, &eff.NotHelpfulVotes, &eff.Dismissals)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tip effectiveness: %w", err)
	}

	if total := eff.HelpfulVotes + eff.NotHelpfulVotes; total > 0 {
		eff.HelpfulPercentage = int(float64(eff.HelpfulVotes)/float64(total)*100 + 0.5)
	}
	return &eff, nil
}

func validateTipPair(ctx context.Context, ownerID, tipID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	return validateString(tipID, "tipID")
}

func scanTip(row rowScanner) (*model.SavingsTip, error) {
	var tip model.SavingsTip
	var priority string
	err := row.Scan(&tip.ID, &tip.Title, &tip.Description, &tip.Icon,
		&priority, &tip.Category, &tip.IsActive, &tip.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tip: %w", err)
	}
	tip.Priority = model.TipPriority(priority)
	return &tip, nil
}

func scanTips(rows *sql.Rows) ([]model.SavingsTip, error) {
	var tips []model.SavingsTip
	for rows.Next() {
		tip, err := scanTip(rows)
		if err != nil {
			return nil, err
		}
		tips = append(tips, *tip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tips: %w", err)
	}
	return tips, nil
}
