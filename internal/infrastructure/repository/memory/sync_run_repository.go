package memory

import (
	"context"
	"sort"

	"github.com/riskibarqy/football-sync/internal/domain/syncrun"
)

type SyncRunRepository struct {
	st *state
}

func (r *SyncRunRepository) Insert(_ context.Context, item syncrun.Run) error {
	r.st.runs = append(r.st.runs, item)
	return nil
}

func (r *SyncRunRepository) ListRecent(_ context.Context, limit int) ([]syncrun.Run, error) {
	out := append([]syncrun.Run(nil), r.st.runs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
