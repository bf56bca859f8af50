package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shadatr/costsense-backend/internal/model"
)

// inflationDateLayout keys snapshots by calendar day.
const inflationDateLayout = "2006-01-02"

// GetLatestInflationRecord returns the most recent snapshot by date, or nil
// when none has ever been stored.
func (s *SQLiteStorage) GetLatestInflationRecord(ctx context.Context) (*model.InflationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT date, overall_rate, predicted_rate, trend, source, category_rates
		FROM inflation_rates
		ORDER BY date DESC
		LIMIT 1`

	record, err := scanInflationRecord(s.db.QueryRowContext(ctx, query))
	if err == sql.ErrNoRows {
		return nil, nil // No snapshots stored yet
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetInflationHistory returns snapshots dated at or after since, newest first.
func (s *SQLiteStorage) GetInflationHistory(ctx context.Context, since time.Time) ([]model.InflationRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT date, overall_rate, predicted_rate, trend, source, category_rates
		FROM inflation_rates
		WHERE date >= ?
		ORDER BY date DESC`

	rows, err := s.db.QueryContext(ctx, query, since.Format(inflationDateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query inflation history: %w", err)
	}
	defer rows.Close()

	var records []model.InflationRecord
	for rows.Next() {
		record, scanErr := scanInflationRecord(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inflation history: %w", err)
	}

	slog.Debug("retrieved inflation history", "since", since.Format(inflationDateLayout), "count", len(records))
	return records, nil
}

// UpsertInflationRecord writes a snapshot keyed by its calendar day. Writing
// the same day twice replaces the earlier snapshot, so concurrent refresh runs
// collapse to one logical record.
func (s *SQLiteStorage) UpsertInflationRecord(ctx context.Context, record *model.InflationRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if record.Date.IsZero() {
		return fmt.Errorf("%w: record.Date", ErrNilParameter)
	}

	rates := record.CategoryRates
	if rates == nil {
		rates = map[string]float64{}
	}
	ratesJSON, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("failed to encode category rates: %w", err)
	}

	query := `
		INSERT INTO inflation_rates (date, overall_rate, predicted_rate, trend, source, category_rates)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			overall_rate = excluded.overall_rate,
			predicted_rate = excluded.predicted_rate,
			trend = excluded.trend,
			source = excluded.source,
			category_rates = excluded.category_rates`

	_, err = s.db.ExecContext(ctx, query,
		record.Date.Format(inflationDateLayout), record.OverallRate, record.PredictedRate,
		string(record.Trend), record.Source, string(ratesJSON))
	if err != nil {
		return fmt.Errorf("failed to upsert inflation record: %w", err)
	}

	slog.Debug("stored inflation snapshot",
		"date", record.Date.Format(inflationDateLayout),
		"rate", record.OverallRate,
		"trend", record.Trend)
	return nil
}

func scanInflationRecord(row rowScanner) (*model.InflationRecord, error) {
	var record model.InflationRecord
	var date, ratesJSON string
	var predicted sql.NullFloat64
	var trend string

	err := row.Scan(&date, &record.OverallRate, &predicted, &trend, &record.Source, &ratesJSON)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan inflation record: %w", err)
	}

	record.Date, err = time.Parse(inflationDateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inflation date %q: %w", date, err)
	}
	if predicted.Valid {
		record.PredictedRate = &predicted.Float64
	}
	record.Trend = model.InflationTrend(trend)

	if err := json.Unmarshal([]byte(ratesJSON), &record.CategoryRates); err != nil {
		return nil, fmt.Errorf("failed to decode category rates: %w", err)
	}
	return &record, nil
}
