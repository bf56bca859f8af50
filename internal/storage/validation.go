// Package storage provides the data persistence layer for the costsense engine.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shadatr/costsense-backend/internal/model"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidDateRange = errors.New("start date must be before end date")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidLocation  = errors.New("location coordinates out of range")
	ErrForeignCategory  = errors.New("category belongs to a different owner")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateExpense validates a single expense before persisting it.
func validateExpense(expense *model.Expense) error {
	if expense == nil {
		return fmt.Errorf("%w: expense", ErrNilParameter)
	}
	if err := validateString(expense.ID, "expense.ID"); err != nil {
		return err
	}
	if err := validateString(expense.OwnerID, "expense.OwnerID"); err != nil {
		return err
	}
	if err := validateString(expense.CategoryID, "expense.CategoryID"); err != nil {
		return err
	}
	if !expense.Amount.IsPositive() {
		return fmt.Errorf("%w: expense amount %s", ErrInvalidAmount, expense.Amount)
	}
	if expense.OccurredAt.IsZero() {
		return fmt.Errorf("%w: expense.OccurredAt", ErrNilParameter)
	}
	return nil
}

// validateBudget validates a budget and its allocations before persisting.
func validateBudget(budget *model.Budget) error {
	if budget == nil {
		return fmt.Errorf("%w: budget", ErrNilParameter)
	}
	if err := validateString(budget.ID, "budget.ID"); err != nil {
		return err
	}
	if err := validateString(budget.OwnerID, "budget.OwnerID"); err != nil {
		return err
	}
	if !budget.TotalAmount.IsPositive() {
		return fmt.Errorf("%w: budget total %s", ErrInvalidAmount, budget.TotalAmount)
	}
	if budget.EndDate.Before(budget.StartDate) {
		return fmt.Errorf("%w: %v to %v", ErrInvalidDateRange, budget.StartDate, budget.EndDate)
	}
	for i, alloc := range budget.Allocations {
		if err := validateString(alloc.CategoryID, "allocation.CategoryID"); err != nil {
			return fmt.Errorf("allocation at index %d: %w", i, err)
		}
		if !alloc.Amount.IsPositive() {
			return fmt.Errorf("allocation at index %d: %w: %s", i, ErrInvalidAmount, alloc.Amount)
		}
	}
	return nil
}

// validateDeal validates a deal before persisting it.
func validateDeal(deal *model.Deal) error {
	if deal == nil {
		return fmt.Errorf("%w: deal", ErrNilParameter)
	}
	if err := validateString(deal.ID, "deal.ID"); err != nil {
		return err
	}
	if err := validateString(deal.Product, "deal.Product"); err != nil {
		return err
	}
	if err := validateString(deal.Store, "deal.Store"); err != nil {
		return err
	}
	if deal.ValidUntil.IsZero() {
		return fmt.Errorf("%w: deal.ValidUntil", ErrNilParameter)
	}
	// Discount ordering divides by old_price; a zero old price must never reach
	// the table.
	if !deal.OldPrice.IsPositive() {
		return fmt.Errorf("%w: deal old price %s", ErrInvalidAmount, deal.OldPrice)
	}
	if deal.NewPrice.IsNegative() {
		return fmt.Errorf("%w: deal new price %s", ErrInvalidAmount, deal.NewPrice)
	}
	if deal.Location.Lat < -90 || deal.Location.Lat > 90 {
		return fmt.Errorf("%w: lat %v", ErrInvalidLocation, deal.Location.Lat)
	}
	if deal.Location.Lng < -180 || deal.Location.Lng > 180 {
		return fmt.Errorf("%w: lng %v", ErrInvalidLocation, deal.Location.Lng)
	}
	return nil
}

// validateTip validates a savings tip before persisting it.
func validateTip(tip *model.SavingsTip) error {
	if tip == nil {
		return fmt.Errorf("%w: tip", ErrNilParameter)
	}
	if err := validateString(tip.ID, "tip.ID"); err != nil {
		return err
	}
	if err := validateString(tip.Title, "tip.Title"); err != nil {
		return err
	}
	if err := validateString(tip.Description, "tip.Description"); err != nil {
		return err
	}
	return nil
}
