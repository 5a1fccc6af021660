package postgres

import (
	"database/sql"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/riskibarqy/football-sync/internal/usecase"
)

// Postgres error codes a retry of the whole unit of work can clear.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// classify marks conflicts that a retried transaction may resolve as
// usecase.ErrTransactionFailure. Other errors pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
		return errors.Mark(err, usecase.ErrTransactionFailure)
	default:
		return err
	}
}

func nullTimeToTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	out := value.Time.UTC()
	return &out
}

func nullInt64ToIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	out := int(value.Int64)
	return &out
}

func nullFloat64ToPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	out := value.Float64
	return &out
}

func nullableString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func nullableTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	out := value.UTC()
	return &out
}

// dateOnly renders a calendar day for DATE columns so the driver never
// shifts it through a session time zone.
func dateOnly(value time.Time) string {
	return value.UTC().Format(time.DateOnly)
}

func nullableDate(value *time.Time) *string {
	if value == nil {
		return nil
	}
	out := dateOnly(*value)
	return &out
}

// dateFromColumn reads a DATE column back as midnight UTC.
func dateFromColumn(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func nullDateToTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	out := dateFromColumn(value.Time)
	return &out
}
