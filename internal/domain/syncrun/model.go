package syncrun

import (
	"context"
	"time"
)

// Run is the persisted history row of one sync execution.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time
	ScopeFrom   time.Time
	ScopeTo     time.Time
	EntityTypes []string
	FinalState  string
	FailedStep  string
	ExitCode    int
	Report      []byte
}

type Repository interface {
	Insert(ctx context.Context, item Run) error
	ListRecent(ctx context.Context, limit int) ([]Run, error)
}
