package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/riskibarqy/football-sync/internal/usecase"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	retryable := []string{"40001", "40P01", "23505"}
	for _, code := range retryable {
		code := code
		t.Run("marks "+code, func(t *testing.T) {
			t.Parallel()
			err := fmt.Errorf("upsert match: %w", &pq.Error{Code: pq.ErrorCode(code), Message: "conflict"})
			got := classify(err)
			if !errors.Is(got, usecase.ErrTransactionFailure) {
				t.Fatalf("expected ErrTransactionFailure for %s, got %v", code, got)
			}
			var pqErr *pq.Error
			if !errors.As(got, &pqErr) {
				t.Fatalf("marked error must keep the driver error")
			}
		})
	}

	t.Run("passes other driver errors", func(t *testing.T) {
		t.Parallel()
		err := &pq.Error{Code: "42P01", Message: "relation does not exist"}
		if errors.Is(classify(err), usecase.ErrTransactionFailure) {
			t.Fatalf("undefined table must not be retryable")
		}
	})

	t.Run("passes plain errors", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		if got := classify(boom); got != boom {
			t.Fatalf("expected error unchanged, got %v", got)
		}
		if classify(nil) != nil {
			t.Fatalf("expected nil for nil")
		}
	})
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(fmt.Errorf("select team: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if isNotFound(errors.New("pq: relation teams does not exist")) {
		t.Fatalf("expected unrelated error to be found")
	}
}

func TestNullableString(t *testing.T) {
	t.Parallel()

	if nullableString("  ") != nil {
		t.Fatalf("expected blank string to be NULL")
	}
	got := nullableString(" p-1 ")
	if got == nil || *got != "p-1" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestDateColumns(t *testing.T) {
	t.Parallel()

	late := time.Date(2025, 8, 9, 23, 30, 0, 0, time.FixedZone("BST", 3600))
	if got := dateOnly(late); got != "2025-08-09" {
		t.Fatalf("expected UTC calendar day, got %s", got)
	}

	scanned := time.Date(2025, 8, 9, 0, 0, 0, 0, time.FixedZone("", 0))
	if got := dateFromColumn(scanned); got.Location() != time.UTC || got.Day() != 9 {
		t.Fatalf("unexpected date %v", got)
	}

	if nullDateToTimePtr(sql.NullTime{}) != nil {
		t.Fatalf("expected nil for NULL date")
	}
	if nullableDate(nil) != nil {
		t.Fatalf("expected nil for nil date")
	}
}

func TestNullInt64ToIntPtr(t *testing.T) {
	t.Run("returns value", func(t *testing.T) {
		got := nullInt64ToIntPtr(sql.NullInt64{Int64: 3, Valid: true})
		if got == nil || *got != 3 {
			t.Fatalf("expected 3, got %v", got)
		}
	})

	t.Run("returns nil for null", func(t *testing.T) {
		if got := nullInt64ToIntPtr(sql.NullInt64{}); got != nil {
			t.Fatalf("expected nil, got %v", *got)
		}
	})
}
