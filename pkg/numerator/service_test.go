package numerator

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the doc_sequences counter row per series.
type mockQuerier struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	series, _ := args[0].(string)

	// Two statements reach us: Next (single arg, +1 semantics) and
	// SetNext (two args, absolute value).
	if len(args) == 2 {
		if val, ok := args[1].(int64); ok {
			m.counters[series] = val
			return &mockRow{val: val}
		}
	}

	m.counters[series]++
	return &mockRow{val: m.counters[series]}
}

func TestNext_Sequential(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := svc.Next(ctx, SeriesAdjustment)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
}

func TestNext_SeriesAreIndependent(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	if _, err := svc.Next(ctx, SeriesAdjustment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Next(ctx, SeriesAdjustment); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Next(ctx, SeriesTransfer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected transfer series to start at 1, got %d", got)
	}
}

func TestNext_EmptySeries(t *testing.T) {
	svc := New(newMockQuerier())

	if _, err := svc.Next(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestSetNext(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()

	if err := svc.SetNext(ctx, SeriesProductionOrder, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Next(ctx, SeriesProductionOrder)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 100 {
		t.Errorf("expected 100 after SetNext(100), got %d", got)
	}

	if err := svc.SetNext(ctx, SeriesProductionOrder, 0); err == nil {
		t.Fatal("expected error for non-positive value")
	}
}
