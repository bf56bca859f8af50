package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shadatr/costsense-backend/internal/service"
	"github.com/shopspring/decimal"
)

// GetExpenses returns expenses matching the filter, ordered chronologically.
// Date bounds are inclusive on both sides.
func (s *SQLiteStorage) GetExpenses(ctx context.Context, filter service.ExpenseFilter) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(filter.OwnerID, "filter.OwnerID"); err != nil {
		return nil, err
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, fmt.Errorf("%w: %v to %v", ErrInvalidDateRange, filter.Start, filter.End)
	}

	query := `
		SELECT id, owner_id, category_id, amount, occurred_at, description
		FROM expenses
		WHERE owner_id = ?`
	args := []any{filter.OwnerID}

	if filter.Start != nil {
		query += ` AND occurred_at >= ?`
		args = append(args, *filter.Start)
	}
	if filter.End != nil {
		query += ` AND occurred_at <= ?`
		args = append(args, *filter.End)
	}
	query += ` ORDER BY occurred_at ASC, id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses, err := scanExpenses(rows)
	if err != nil {
		return nil, err
	}

	slog.Debug("retrieved expenses", "owner", filter.OwnerID, "count", len(expenses))
	return expenses, nil
}

// GetRecentExpenses returns the most recent expenses for a user, newest first.
func (s *SQLiteStorage) GetRecentExpenses(ctx context.Context, ownerID string, limit int) ([]model.Expense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, owner_id, category_id, amount, occurred_at, description
		FROM expenses
		WHERE owner_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent expenses: %w", err)
	}
	defer rows.Close()

	return scanExpenses(rows)
}

// CreateExpense persists a new expense record.
func (s *SQLiteStorage) CreateExpense(ctx context.Context, expense *model.Expense) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateExpense(expense); err != nil {
		return err
	}

	query := `
		INSERT INTO expenses (id, owner_id, category_id, amount, occurred_at, description)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		expense.ID, expense.OwnerID, expense.CategoryID,
		expense.Amount.String(), expense.OccurredAt, expense.Description)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

type expenseRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanExpenses(rows expenseRows) ([]model.Expense, error) {
	var expenses []model.Expense
	for rows.Next() {
		var exp model.Expense
		var amount string
		if err := rows.Scan(&exp.ID, &exp.OwnerID, &exp.CategoryID, &amount, &exp.OccurredAt, &exp.Description); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse expense amount %q: %w", amount, err)
		}
		exp.Amount = parsed
		expenses = append(expenses, exp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}
