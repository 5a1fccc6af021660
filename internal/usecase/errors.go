package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("resource not found")
	ErrRateLimited          = errors.New("rate limited")
	ErrSourceUnavailable    = errors.New("source unavailable")
	ErrAmbiguousIdentity    = errors.New("ambiguous identity")
	ErrStaleStatusDowngrade = errors.New("stale status downgrade")
	ErrTransactionFailure   = errors.New("transaction failure")
	ErrSyncInProgress       = errors.New("sync already in progress")
)

// RateLimitedError carries the provider's back-off hint. A zero RetryAfter
// means the provider gave none.
type RateLimitedError struct {
	Source     Source
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Source, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Source)
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// stepFatal reports errors that must abort the whole step.
func stepFatal(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

func runFatal(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func wrapInvalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}
