// Package numerator provides sequential document numbering.
//
// Each document series has one counter row in doc_sequences. The
// counter is bumped with an upsert + RETURNING, so concurrent creators
// of the same series serialize on the row lock, and a number taken
// inside a rolled-back transaction is released with the rollback.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Well-known series. Delivery notes are not listed: their numbers are
// assigned by the remitente and arrive with the request.
const (
	SeriesAdjustment      = "adjustment"
	SeriesTransfer        = "transfer"
	SeriesProductionOrder = "production_order"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Source yields the querier for the current context. Wire it to the
// transaction manager so numbers are taken on the caller's transaction.
type Source func(ctx context.Context) Querier

// Service provides document numbering functionality.
type Service struct {
	source Source
}

// New creates a numerator bound to a static querier.
// Use for single-connection or testing scenarios.
func New(querier Querier) *Service {
	return &Service{source: func(context.Context) Querier { return querier }}
}

// NewWithSource creates a numerator that resolves its querier per call.
func NewWithSource(source Source) *Service {
	return &Service{source: source}
}

// Next returns the next number in the series.
func (s *Service) Next(ctx context.Context, series string) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}
	if series == "" {
		return 0, fmt.Errorf("series is required")
	}

	var num int64
	err := s.source(ctx).QueryRow(ctx, `
		INSERT INTO doc_sequences (series, current_val)
		VALUES ($1, 1)
		ON CONFLICT (series) DO UPDATE SET current_val = doc_sequences.current_val + 1
		RETURNING current_val
	`, series).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("next number for %s: %w", series, err)
	}

	return num, nil
}

// SetNext positions the series so the next call to Next returns
// value. Used when importing counters from a legacy system.
func (s *Service) SetNext(ctx context.Context, series string, value int64) error {
	if value < 1 {
		return fmt.Errorf("next value must be positive, got %d", value)
	}

	var result int64
	err := s.source(ctx).QueryRow(ctx, `
		INSERT INTO doc_sequences (series, current_val)
		VALUES ($1, $2)
		ON CONFLICT (series) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, series, value-1).Scan(&result)
	if err != nil {
		return fmt.Errorf("set next number for %s: %w", series, err)
	}

	return nil
}
