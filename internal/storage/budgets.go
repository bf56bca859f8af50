package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shadatr/costsense-backend/internal/model"
	"github.com/shopspring/decimal"
)

// GetBudget returns a budget with its allocations, scoped to the owner.
// Returns nil when no such budget exists for that owner.
func (s *SQLiteStorage) GetBudget(ctx context.Context, id, ownerID string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, name, total_amount, start_date, end_date, is_active, created_at
		FROM budgets
		WHERE id = ? AND owner_id = ?`

	budget, err := s.scanBudget(s.db.QueryRowContext(ctx, query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, nil // Budget not found
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadAllocations(ctx, budget); err != nil {
		return nil, err
	}
	return budget, nil
}

// GetActiveBudgets returns the owner's active budgets whose window contains
// the given instant, with allocations attached.
func (s *SQLiteStorage) GetActiveBudgets(ctx context.Context, ownerID string, at time.Time) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	query := `
		SELECT id, owner_id, name, total_amount, start_date, end_date, is_active, created_at
		FROM budgets
		WHERE owner_id = ? AND is_active = 1 AND start_date <= ? AND end_date >= ?
		ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, ownerID, at, at)
	if err != nil {
		return nil, fmt.Errorf("failed to query active budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		budget, scanErr := s.scanBudget(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		budgets = append(budgets, *budget)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}

	for i := range budgets {
		if err := s.loadAllocations(ctx, &budgets[i]); err != nil {
			return nil, err
		}
	}
	return budgets, nil
}

// CreateBudget persists a budget and its allocations in one transaction.
func (s *SQLiteStorage) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateBudget(budget); err != nil {
		return err
	}

	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO budgets (id, owner_id, name, total_amount, start_date, end_date, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		budget.ID, budget.OwnerID, budget.Name, budget.TotalAmount.String(),
		budget.StartDate, budget.EndDate, budget.IsActive, budget.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create budget: %w", err)
	}

	for _, alloc := range budget.Allocations {
		// The category must exist AND belong to the budget's owner; the FK alone
		// would accept another user's category.
		result, execErr := tx.ExecContext(ctx, `
			INSERT INTO budget_allocations (id, budget_id, category_id, amount)
			SELECT ?, ?, c.id, ?
			FROM categories c
			WHERE c.id = ? AND c.owner_id = ?`,
			alloc.ID, budget.ID, alloc.Amount.String(), alloc.CategoryID, budget.OwnerID)
		if execErr != nil {
			return fmt.Errorf("failed to create budget allocation: %w", execErr)
		}
		inserted, affErr := result.RowsAffected()
		if affErr != nil {
			return fmt.Errorf("failed to check allocation insert: %w", affErr)
		}
		if inserted == 0 {
			return fmt.Errorf("%w: allocation category %s", ErrForeignCategory, alloc.CategoryID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit budget: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStorage) scanBudget(row rowScanner) (*model.Budget, error) {
	var budget model.Budget
	var total string
	err := row.Scan(&budget.ID, &budget.OwnerID, &budget.Name, &total,
		&budget.StartDate, &budget.EndDate, &budget.IsActive, &budget.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan budget: %w", err)
	}

	budget.TotalAmount, err = decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("failed to parse budget total %q: %w", total, err)
	}
	return &budget, nil
}

// loadAllocations attaches allocations to a budget, joining in each allocation's
// category name for downstream rate lookups.
func (s *SQLiteStorage) loadAllocations(ctx context.Context, budget *model.Budget) error {
	query := `
		SELECT a.id, a.budget_id, a.category_id, c.name, a.amount
		FROM budget_allocations a
		JOIN categories c ON c.id = a.category_id
		WHERE a.budget_id = ?
		ORDER BY c.name`

	rows, err := s.db.QueryContext(ctx, query, budget.ID)
	if err != nil {
		return fmt.Errorf("failed to query allocations: %w", err)
	}
	defer rows.Close()

	var allocations []model.CategoryAllocation
	for rows.Next() {
		var alloc model.CategoryAllocation
		var amount string
		if err := rows.Scan(&alloc.ID, &alloc.BudgetID, &alloc.CategoryID, &alloc.CategoryName, &amount); err != nil {
			return fmt.Errorf("failed to scan allocation: %w", err)
		}
		alloc.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("failed to parse allocation amount %q: %w", amount, err)
		}
		allocations = append(allocations, alloc)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating allocations: %w", err)
	}

	budget.Allocations = allocations
	return nil
}
