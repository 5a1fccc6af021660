package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/football-sync/internal/usecase"
)

const dateLayout = "2006-01-02"

// parseBound accepts a calendar date or an RFC 3339 timestamp. A bare date
// used as an upper bound covers the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", raw)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// buildScope fills the window from lookback and lookahead around now unless
// from or to override it.
func buildScope(now time.Time, lookback, lookahead time.Duration, from, to string, entities []string) (usecase.SyncScope, error) {
	now = now.UTC()
	scope := usecase.SyncScope{
		From: now.Add(-lookback),
		To:   now.Add(lookahead),
	}

	if strings.TrimSpace(from) != "" {
		t, err := parseBound(from, false)
		if err != nil {
			return usecase.SyncScope{}, fmt.Errorf("--from: %w", err)
		}
		scope.From = t
	}
	if strings.TrimSpace(to) != "" {
		t, err := parseBound(to, true)
		if err != nil {
			return usecase.SyncScope{}, fmt.Errorf("--to: %w", err)
		}
		scope.To = t
	}
	if !scope.To.After(scope.From) {
		return usecase.SyncScope{}, fmt.Errorf("--to must be after --from")
	}

	entityTypes, err := usecase.ParseEntityTypes(entities)
	if err != nil {
		return usecase.SyncScope{}, err
	}
	scope.EntityTypes = entityTypes
	return scope, nil
}
