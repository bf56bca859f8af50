// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Domain errors. Callers branch on these with errors.Is; messages wrapped around
// them carry the detail.
var (
	// ErrInvalidInput marks a caller mistake: malformed coordinates, an
	// out-of-range radius or month count, and similar.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means no such budget, deal, or category exists for the owner.
	ErrNotFound = errors.New("not found")

	// ErrInvalidBudget marks a budget with a zero or negative total amount.
	ErrInvalidBudget = errors.New("invalid budget")

	// ErrInsufficientData means a forecast was requested with fewer than two
	// historical points.
	ErrInsufficientData = errors.New("insufficient data for forecast")

	// ErrNoActiveBudget means no budget matched the impact lookup criteria.
	ErrNoActiveBudget = errors.New("no active budget")

	// ErrNoInflationData means no inflation snapshot has ever been stored.
	ErrNoInflationData = errors.New("no inflation data")

	// ErrUpstreamUnavailable means a best-effort external source failed and no
	// stored fallback existed.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Invalidf wraps ErrInvalidInput with a descriptive message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
