package usecase

import (
	"context"
	"time"
)

// SourceCheck is the outcome of one provider connectivity check.
type SourceCheck struct {
	Source   Source        `json:"source"`
	OK       bool          `json:"ok"`
	TeamName string        `json:"team_name,omitempty"`
	Latency  time.Duration `json:"latency"`
	Error    string        `json:"error,omitempty"`
}

// CheckSources looks up the tracked team at every provider that serves team
// info and reports whether each one answered. Nothing is written to the
// store. Providers without team info are skipped.
func (s *SyncService) CheckSources(ctx context.Context) ([]SourceCheck, error) {
	ctx, span := startSpan(ctx, "usecase.SyncService.CheckSources")

	fetchers := make([]SourceAdapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		if _, ok := a.(TeamInfoFetcher); ok {
			fetchers = append(fetchers, a)
		}
	}

	type timed struct {
		record  ProviderTeamRecord
		latency time.Duration
	}
	results := fetchFromSources(ctx, s, fetchers, func(ctx context.Context, a SourceAdapter) (timed, error) {
		started := s.now()
		rec, err := a.(TeamInfoFetcher).FetchTeam(ctx, s.cfg.Team)
		return timed{record: rec, latency: s.now().Sub(started)}, err
	})

	checks := make([]SourceCheck, 0, len(results))
	for _, r := range results {
		c := SourceCheck{Source: r.source, Latency: r.value.latency}
		if r.err != nil {
			c.Error = r.err.Error()
			s.logger.WarnContext(ctx, "source check failed", "source", string(r.source), "error", r.err)
		} else {
			c.OK = true
			c.TeamName = r.value.record.Name
			s.logger.InfoContext(ctx, "source check passed",
				"source", string(r.source),
				"team", c.TeamName,
				"latency", c.Latency,
			)
		}
		checks = append(checks, c)
	}
	err := ctx.Err()
	endSpan(span, err)
	return checks, err
}
