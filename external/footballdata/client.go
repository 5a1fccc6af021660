// Package footballdata adapts the Football-Data.org v4 API to the sync source
// contract.
package footballdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

type Getter interface {
	GetJSON(ctx context.Context, path string, query url.Values, target any) error
}

type Config struct {
	// Competitions maps internal competition codes to Football-Data codes
	// (ELC, PL, ...).
	Competitions map[string]string
	Logger       *logging.Logger
}

type Adapter struct {
	client       Getter
	competitions map[string]string
	codes        map[string]string
	logger       *logging.Logger
}

var (
	_ usecase.SourceAdapter    = (*Adapter)(nil)
	_ usecase.TeamInfoFetcher  = (*Adapter)(nil)
	_ usecase.StandingsFetcher = (*Adapter)(nil)
)

func New(client Getter, cfg Config) *Adapter {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	competitions := make(map[string]string, len(cfg.Competitions))
	codes := make(map[string]string, len(cfg.Competitions))
	for code, fdCode := range cfg.Competitions {
		code, fdCode = strings.TrimSpace(code), strings.ToUpper(strings.TrimSpace(fdCode))
		if code == "" || fdCode == "" {
			continue
		}
		competitions[code] = fdCode
		codes[fdCode] = code
	}

	return &Adapter{
		client:       client,
		competitions: competitions,
		codes:        codes,
		logger:       logger,
	}
}

func (a *Adapter) Source() usecase.Source {
	return usecase.SourceFootballData
}

func (a *Adapter) teamID(team usecase.TeamRef) (string, error) {
	id := strings.TrimSpace(team.ProviderID(usecase.SourceFootballData))
	if id == "" {
		return "", fmt.Errorf("%w: no football-data id for team %q", usecase.ErrInvalidInput, team.Name)
	}
	return id, nil
}

func (a *Adapter) fetchTeam(ctx context.Context, team usecase.TeamRef) (teamPayload, error) {
	teamID, err := a.teamID(team)
	if err != nil {
		return teamPayload{}, err
	}
	var payload teamPayload
	if err := a.client.GetJSON(ctx, "/teams/"+url.PathEscape(teamID), nil, &payload); err != nil {
		return teamPayload{}, fmt.Errorf("get team %s: %w", teamID, err)
	}
	if payload.ID == 0 {
		payload.ID, _ = strconv.ParseInt(teamID, 10, 64)
	}
	return payload, nil
}

func (a *Adapter) FetchTeam(ctx context.Context, team usecase.TeamRef) (usecase.ProviderTeamRecord, error) {
	payload, err := a.fetchTeam(ctx, team)
	if err != nil {
		return usecase.ProviderTeamRecord{}, err
	}

	rec := usecase.ProviderTeamRecord{
		RecordMeta: usecase.RecordMeta{
			Source:     usecase.SourceFootballData,
			ProviderID: strconv.FormatInt(payload.ID, 10),
			UpdatedAt:  parseTimestamp(payload.LastUpdated),
		},
		Name:       strings.TrimSpace(payload.Name),
		ShortName:  strings.TrimSpace(payload.ShortName),
		Stadium:    strings.TrimSpace(payload.Venue),
		Country:    strings.TrimSpace(payload.Area.Name),
		Website:    strings.TrimSpace(payload.Website),
		ClubColors: strings.TrimSpace(payload.ClubColors),
	}
	if payload.Founded != nil && *payload.Founded > 0 {
		rec.FoundedYear = payload.Founded
	}
	return rec, nil
}

func (a *Adapter) FetchTeamSquad(ctx context.Context, team usecase.TeamRef) ([]usecase.ProviderPlayerRecord, error) {
	payload, err := a.fetchTeam(ctx, team)
	if err != nil {
		return nil, err
	}

	updatedAt := parseTimestamp(payload.LastUpdated)
	out := make([]usecase.ProviderPlayerRecord, 0, len(payload.Squad))
	for _, m := range payload.Squad {
		if m.ID == 0 || strings.TrimSpace(m.Name) == "" {
			a.logger.DebugContext(ctx, "skip squad entry without id or name", "player_id", m.ID)
			continue
		}
		rec := usecase.ProviderPlayerRecord{
			RecordMeta: usecase.RecordMeta{
				Source:     usecase.SourceFootballData,
				ProviderID: strconv.FormatInt(m.ID, 10),
				UpdatedAt:  cloneTime(updatedAt),
			},
			Name:        strings.TrimSpace(m.Name),
			DateOfBirth: parseDate(m.DateOfBirth),
			Nationality: strings.TrimSpace(m.Nationality),
			Position:    player.NormalizePosition(m.Position),
		}
		if m.ShirtNumber != nil && *m.ShirtNumber >= 0 && *m.ShirtNumber <= 99 {
			rec.SquadNumber = m.ShirtNumber
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *Adapter) FetchSeasonMatches(ctx context.Context, team usecase.TeamRef, seasonName string) ([]usecase.ProviderMatchRecord, error) {
	teamID, err := a.teamID(team)
	if err != nil {
		return nil, err
	}
	ss, err := season.FromName(seasonName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	var payload matchesPayload
	query := url.Values{"season": {strconv.Itoa(ss.FootballDataYear())}}
	if err := a.client.GetJSON(ctx, "/teams/"+url.PathEscape(teamID)+"/matches", query, &payload); err != nil {
		return nil, fmt.Errorf("list team %s matches: %w", teamID, err)
	}

	out := make([]usecase.ProviderMatchRecord, 0, len(payload.Matches))
	for _, m := range payload.Matches {
		out = append(out, a.toMatchRecord(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].KickoffAt.Equal(out[j].KickoffAt) {
			return out[i].KickoffAt.Before(out[j].KickoffAt)
		}
		return out[i].ProviderID < out[j].ProviderID
	})
	return out, nil
}

func (a *Adapter) FetchMatchDetail(ctx context.Context, providerMatchID string) (usecase.ProviderMatchDetail, error) {
	var payload matchPayload
	if err := a.client.GetJSON(ctx, "/matches/"+url.PathEscape(providerMatchID), nil, &payload); err != nil {
		return usecase.ProviderMatchDetail{}, fmt.Errorf("get match %s: %w", providerMatchID, err)
	}
	if payload.ID == 0 {
		return usecase.ProviderMatchDetail{}, fmt.Errorf("%w: football-data match %s", usecase.ErrNotFound, providerMatchID)
	}
	return a.toMatchDetail(payload, providerMatchID), nil
}

// FetchStandings reads the TOTAL table. Competitions with no Football-Data
// code or no published table yield no rows.
func (a *Adapter) FetchStandings(ctx context.Context, competitionCode, seasonName string) ([]usecase.ProviderStandingRecord, error) {
	fdCode := a.competitions[competitionCode]
	if fdCode == "" {
		return nil, nil
	}
	ss, err := season.FromName(seasonName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	var payload standingsPayload
	query := url.Values{"season": {strconv.Itoa(ss.FootballDataYear())}}
	if err := a.client.GetJSON(ctx, "/competitions/"+url.PathEscape(fdCode)+"/standings", query, &payload); err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s standings: %w", fdCode, err)
	}

	var out []usecase.ProviderStandingRecord
	for _, group := range payload.Standings {
		if !strings.EqualFold(group.Type, "TOTAL") {
			continue
		}
		for _, row := range group.Table {
			if row.Team.ID == 0 {
				continue
			}
			out = append(out, usecase.ProviderStandingRecord{
				RecordMeta: usecase.RecordMeta{
					Source:     usecase.SourceFootballData,
					ProviderID: strconv.FormatInt(row.Team.ID, 10),
				},
				CompetitionCode: competitionCode,
				SeasonName:      ss.Name,
				TeamName:        strings.TrimSpace(row.Team.Name),
				Position:        row.Position,
				Played:          row.PlayedGames,
				Won:             row.Won,
				Drawn:           row.Draw,
				Lost:            row.Lost,
				GoalsFor:        row.GoalsFor,
				GoalsAgainst:    row.GoalsAgainst,
				Points:          row.Points,
				Form:            strings.ReplaceAll(strings.TrimSpace(row.Form), ",", ""),
			})
		}
	}
	return out, nil
}

var statusMap = map[string]match.Status{
	"SCHEDULED": match.StatusScheduled,
	"TIMED":     match.StatusScheduled,
	"IN_PLAY":   match.StatusLive,
	"PAUSED":    match.StatusLive,
	"LIVE":      match.StatusLive,
	"FINISHED":  match.StatusFinished,
	"AWARDED":   match.StatusFinished,
	"POSTPONED": match.StatusPostponed,
	"SUSPENDED": match.StatusPostponed,
	"CANCELLED": match.StatusCancelled,
}

func mapStatus(raw string) match.Status {
	if status, ok := statusMap[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return status
	}
	return match.StatusScheduled
}

// seasonLabel prefers the payload's season dates, e.g. 2025-08-08..2026-05-02
// is "2025/26".
func seasonLabel(ref seasonRef, kickoffAt time.Time) string {
	if start := parseDate(ref.StartDate); start != nil {
		if name, err := season.NormalizeName(strconv.Itoa(start.Year())); err == nil {
			return name
		}
	}
	if kickoffAt.IsZero() {
		return ""
	}
	return season.ForDate(kickoffAt).Name
}

func parseDate(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil
	}
	v := parsed.UTC()
	return &v
}

func parseTimestamp(raw string) *time.Time {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	v := parsed.UTC()
	return &v
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
