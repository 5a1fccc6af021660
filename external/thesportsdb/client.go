// Package thesportsdb adapts TheSportsDB v1 JSON API to the sync source
// contract.
package thesportsdb

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/platform/logging"
	"github.com/riskibarqy/football-sync/internal/usecase"
)

// Getter is the transport the adapter needs; *providerhttp.Client satisfies
// it.
type Getter interface {
	GetJSON(ctx context.Context, path string, query url.Values, target any) error
}

type Config struct {
	// APIKey is a path segment on every request.
	APIKey string
	// Leagues maps internal competition codes to TheSportsDB league ids.
	Leagues map[string]string
	// Pacer gates every request after the first within one adapter call.
	// The orchestrator already acquired the first slot.
	Pacer  usecase.Limiter
	Logger *logging.Logger
	Now    func() time.Time
}

type Adapter struct {
	client  Getter
	apiKey  string
	leagues map[string]string
	codes   map[string]string
	pacer   usecase.Limiter
	logger  *logging.Logger
	now     func() time.Time
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
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	leagues := make(map[string]string, len(cfg.Leagues))
	codes := make(map[string]string, len(cfg.Leagues))
	for code, leagueID := range cfg.Leagues {
		code, leagueID = strings.TrimSpace(code), strings.TrimSpace(leagueID)
		if code == "" || leagueID == "" {
			continue
		}
		leagues[code] = leagueID
		codes[leagueID] = code
	}

	return &Adapter{
		client:  client,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		leagues: leagues,
		codes:   codes,
		pacer:   cfg.Pacer,
		logger:  logger,
		now:     now,
	}
}

func (a *Adapter) Source() usecase.Source {
	return usecase.SourceTheSportsDB
}

func (a *Adapter) get(ctx context.Context, endpoint string, query url.Values, target any) error {
	return a.client.GetJSON(ctx, "/"+a.apiKey+"/"+endpoint, query, target)
}

// getPaced is get for the second and later requests of one call.
func (a *Adapter) getPaced(ctx context.Context, endpoint string, query url.Values, target any) error {
	if a.pacer != nil {
		if err := a.pacer.Acquire(ctx, string(usecase.SourceTheSportsDB)); err != nil {
			return err
		}
	}
	return a.get(ctx, endpoint, query, target)
}

func (a *Adapter) teamID(team usecase.TeamRef) (string, error) {
	id := strings.TrimSpace(team.ProviderID(usecase.SourceTheSportsDB))
	if id == "" {
		return "", fmt.Errorf("%w: no thesportsdb id for team %q", usecase.ErrInvalidInput, team.Name)
	}
	return id, nil
}

func (a *Adapter) FetchTeam(ctx context.Context, team usecase.TeamRef) (usecase.ProviderTeamRecord, error) {
	teamID, err := a.teamID(team)
	if err != nil {
		return usecase.ProviderTeamRecord{}, err
	}

	var payload teamsEnvelope
	if err := a.get(ctx, "lookupteam.php", url.Values{"id": {teamID}}, &payload); err != nil {
		return usecase.ProviderTeamRecord{}, fmt.Errorf("lookup team %s: %w", teamID, err)
	}
	if len(payload.Teams) == 0 {
		return usecase.ProviderTeamRecord{}, fmt.Errorf("%w: thesportsdb team %s", usecase.ErrNotFound, teamID)
	}

	item := payload.Teams[0]
	rec := usecase.ProviderTeamRecord{
		RecordMeta: usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: firstNonEmpty(item.ID.String(), teamID)},
		Name:       item.Name.String(),
		ShortName:  item.ShortName.String(),
		City:       strings.TrimSpace(strings.Split(item.Location.String(), ",")[0]),
		Stadium:    item.Stadium.String(),
		Country:    item.Country.String(),
		Website:    item.Website.String(),
		ClubColors: joinNonEmpty(" / ", item.Colour1.String(), item.Colour2.String(), item.Colour3.String()),
	}
	if year := item.FormedYear.intPtr(); year != nil && *year > 0 {
		rec.FoundedYear = year
	}
	return rec, nil
}

func (a *Adapter) FetchTeamSquad(ctx context.Context, team usecase.TeamRef) ([]usecase.ProviderPlayerRecord, error) {
	teamID, err := a.teamID(team)
	if err != nil {
		return nil, err
	}

	var payload playersEnvelope
	if err := a.get(ctx, "lookup_all_players.php", url.Values{"id": {teamID}}, &payload); err != nil {
		return nil, fmt.Errorf("lookup squad %s: %w", teamID, err)
	}

	out := make([]usecase.ProviderPlayerRecord, 0, len(payload.Players))
	for _, item := range payload.Players {
		if item.ID == "" || item.Name == "" {
			a.logger.DebugContext(ctx, "skip squad entry without id or name", "player_id", item.ID.String())
			continue
		}
		rec := usecase.ProviderPlayerRecord{
			RecordMeta:  usecase.RecordMeta{Source: usecase.SourceTheSportsDB, ProviderID: item.ID.String()},
			Name:        item.Name.String(),
			DateOfBirth: parseDate(item.DateBorn.String()),
			Nationality: item.Nationality.String(),
			Position:    player.NormalizePosition(item.Position.String()),
		}
		if number := item.Number.intPtr(); number != nil && *number >= 0 && *number <= 99 {
			rec.SquadNumber = number
		}
		out = append(out, rec)
	}
	return out, nil
}

// FetchSeasonMatches reads every configured league's season and, for the
// current season, the team's last and next fixtures so cup ties outside the
// configured leagues are still seen.
func (a *Adapter) FetchSeasonMatches(ctx context.Context, team usecase.TeamRef, seasonName string) ([]usecase.ProviderMatchRecord, error) {
	teamID, err := a.teamID(team)
	if err != nil {
		return nil, err
	}
	ss, err := season.FromName(seasonName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	seen := make(map[string]eventItem)
	requests := 0
	fetch := func(endpoint string, query url.Values) error {
		var payload eventsEnvelope
		get := a.get
		if requests > 0 {
			get = a.getPaced
		}
		requests++
		if err := get(ctx, endpoint, query, &payload); err != nil {
			return fmt.Errorf("%s %s: %w", endpoint, query.Encode(), err)
		}
		for _, e := range payload.all() {
			if e.ID == "" || (e.HomeTeamID.String() != teamID && e.AwayTeamID.String() != teamID) {
				continue
			}
			if _, ok := seen[e.ID.String()]; !ok {
				seen[e.ID.String()] = e
			}
		}
		return nil
	}

	codes := make([]string, 0, len(a.leagues))
	for code := range a.leagues {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		query := url.Values{"id": {a.leagues[code]}, "s": {ss.TheSportsDBLabel()}}
		if err := fetch("eventsseason.php", query); err != nil {
			return nil, err
		}
	}
	if ss.Contains(a.now()) {
		for _, endpoint := range []string{"eventslast.php", "eventsnext.php"} {
			if err := fetch(endpoint, url.Values{"id": {teamID}}); err != nil {
				return nil, err
			}
		}
	}

	out := make([]usecase.ProviderMatchRecord, 0, len(seen))
	for _, e := range seen {
		rec := a.toMatchRecord(e)
		if !rec.KickoffAt.IsZero() && !ss.Contains(rec.KickoffAt) {
			continue
		}
		out = append(out, rec)
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
	var payload eventsEnvelope
	if err := a.get(ctx, "lookupevent.php", url.Values{"id": {providerMatchID}}, &payload); err != nil {
		return usecase.ProviderMatchDetail{}, fmt.Errorf("lookup event %s: %w", providerMatchID, err)
	}
	events := payload.all()
	if len(events) == 0 {
		return usecase.ProviderMatchDetail{}, fmt.Errorf("%w: thesportsdb event %s", usecase.ErrNotFound, providerMatchID)
	}
	return a.toMatchDetail(events[0], providerMatchID), nil
}

// FetchStandings returns no rows for competitions without a TheSportsDB
// league or without a table.
func (a *Adapter) FetchStandings(ctx context.Context, competitionCode, seasonName string) ([]usecase.ProviderStandingRecord, error) {
	leagueID := a.leagues[competitionCode]
	if leagueID == "" {
		return nil, nil
	}
	ss, err := season.FromName(seasonName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	var payload tableEnvelope
	query := url.Values{"l": {leagueID}, "s": {ss.TheSportsDBLabel()}}
	if err := a.get(ctx, "lookuptable.php", query, &payload); err != nil {
		return nil, fmt.Errorf("lookup table %s: %w", query.Encode(), err)
	}

	out := make([]usecase.ProviderStandingRecord, 0, len(payload.Table))
	for _, row := range payload.Table {
		if row.TeamID == "" {
			continue
		}
		out = append(out, usecase.ProviderStandingRecord{
			RecordMeta: usecase.RecordMeta{
				Source:     usecase.SourceTheSportsDB,
				ProviderID: row.TeamID.String(),
				UpdatedAt:  parseDateTime(row.Updated.String()),
			},
			CompetitionCode: competitionCode,
			SeasonName:      ss.Name,
			TeamName:        row.TeamName.String(),
			Position:        row.Rank.intValue(),
			Played:          row.Played.intValue(),
			Won:             row.Won.intValue(),
			Drawn:           row.Drawn.intValue(),
			Lost:            row.Lost.intValue(),
			GoalsFor:        row.GoalsFor.intValue(),
			GoalsAgainst:    row.GoalsAgainst.intValue(),
			Points:          row.Points.intValue(),
			Form:            row.Form.String(),
		})
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, item := range values {
		if strings.TrimSpace(item) != "" {
			return strings.TrimSpace(item)
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
