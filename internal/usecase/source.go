package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
)

type Source string

const (
	SourceTheSportsDB  Source = "thesportsdb"
	SourceFootballData Source = "football_data"
)

// priority orders sources on equal freshness. Lower wins.
func (s Source) priority() int {
	switch s {
	case SourceFootballData:
		return 0
	case SourceTheSportsDB:
		return 1
	default:
		return 2
	}
}

// TeamRef names the tracked team and its id at each provider.
type TeamRef struct {
	Name        string
	ProviderIDs map[Source]string
}

func (r TeamRef) ProviderID(source Source) string {
	if r.ProviderIDs == nil {
		return ""
	}
	return r.ProviderIDs[source]
}

// RecordMeta is carried by every provider record.
type RecordMeta struct {
	Source     Source `validate:"required"`
	ProviderID string `validate:"required"`
	// UpdatedAt is the provider's own modification time, when it has one.
	UpdatedAt *time.Time
	// FetchedAt is stamped by the orchestrator on receipt.
	FetchedAt time.Time
	// Correction allows identity fields and terminal results to be overwritten.
	Correction bool
}

func (m RecordMeta) freshness() time.Time {
	if m.UpdatedAt != nil && !m.UpdatedAt.IsZero() {
		return m.UpdatedAt.UTC()
	}
	return m.FetchedAt.UTC()
}

type ProviderTeamRecord struct {
	RecordMeta
	Name        string `validate:"required"`
	ShortName   string
	City        string
	Stadium     string
	Country     string
	FoundedYear *int `validate:"omitempty,gte=1800,lte=2100"`
	Website     string
	ClubColors  string
}

type ProviderPlayerRecord struct {
	RecordMeta
	Name        string `validate:"required"`
	DateOfBirth *time.Time
	Nationality string
	Position    player.Position `validate:"omitempty,oneof=GK DEF MID FWD"`
	SquadNumber *int            `validate:"omitempty,gte=0,lte=99"`
}

// ProviderTeamSide identifies one side of a fixture at the provider.
type ProviderTeamSide struct {
	ProviderID string `validate:"required"`
	Name       string `validate:"required"`
}

type ProviderMatchRecord struct {
	RecordMeta
	CompetitionCode   string
	SeasonName        string           `validate:"required"`
	KickoffAt         time.Time        `validate:"required"`
	Home              ProviderTeamSide `validate:"required"`
	Away              ProviderTeamSide `validate:"required"`
	HomeScore         *int             `validate:"omitempty,gte=0,lte=20"`
	AwayScore         *int             `validate:"omitempty,gte=0,lte=20"`
	HalfTimeHomeScore *int             `validate:"omitempty,gte=0,lte=20"`
	HalfTimeAwayScore *int             `validate:"omitempty,gte=0,lte=20"`
	Status            match.Status     `validate:"required,oneof=scheduled live finished postponed cancelled"`
	Round             string
	Venue             string
	Referee           string
	Attendance        *int `validate:"omitempty,gte=0"`
}

type ProviderTeamStats struct {
	Possession    *float64 `validate:"omitempty,gte=0,lte=100"`
	Shots         *int     `validate:"omitempty,gte=0"`
	ShotsOnTarget *int     `validate:"omitempty,gte=0"`
	Corners       *int     `validate:"omitempty,gte=0"`
	Fouls         *int     `validate:"omitempty,gte=0"`
	YellowCards   *int     `validate:"omitempty,gte=0,lte=10"`
	RedCards      *int     `validate:"omitempty,gte=0,lte=10"`
	Offsides      *int     `validate:"omitempty,gte=0"`
}

// ProviderPlayerRef points at a player by provider id, name or both.
type ProviderPlayerRef struct {
	ProviderID string
	Name       string
}

func (r ProviderPlayerRef) empty() bool {
	return r.ProviderID == "" && r.Name == ""
}

type ProviderGoal struct {
	Side    matchdetail.TeamSide `validate:"required,oneof=home away"`
	Scorer  ProviderPlayerRef
	Assist  ProviderPlayerRef
	Minute  int `validate:"gte=0,lte=130"`
	OwnGoal bool
	Penalty bool
}

type ProviderCard struct {
	Side   matchdetail.TeamSide `validate:"required,oneof=home away"`
	Player ProviderPlayerRef
	Minute int                  `validate:"gte=0,lte=130"`
	Type   matchdetail.CardType `validate:"required,oneof=yellow second_yellow red"`
}

type ProviderLineupEntry struct {
	Side        matchdetail.TeamSide `validate:"required,oneof=home away"`
	Player      ProviderPlayerRef
	Position    string
	ShirtNumber *int
	Starter     bool
	MinuteOn    *int
	MinuteOff   *int
}

// ProviderMatchDetail is the per-match detail payload. ProviderID is the
// provider's match id. Match carries refreshed fixture fields when the
// detail endpoint returns them.
type ProviderMatchDetail struct {
	RecordMeta
	Match  *ProviderMatchRecord
	Home   *ProviderTeamStats
	Away   *ProviderTeamStats
	Goals  []ProviderGoal        `validate:"dive"`
	Cards  []ProviderCard        `validate:"dive"`
	Lineup []ProviderLineupEntry `validate:"dive"`
}

// ProviderStandingRecord is one table row. ProviderID is the team's id.
type ProviderStandingRecord struct {
	RecordMeta
	CompetitionCode string `validate:"required"`
	SeasonName      string `validate:"required"`
	TeamName        string `validate:"required"`
	Position        int    `validate:"gte=1"`
	Played          int    `validate:"gte=0"`
	Won             int    `validate:"gte=0"`
	Drawn           int    `validate:"gte=0"`
	Lost            int    `validate:"gte=0"`
	GoalsFor        int    `validate:"gte=0"`
	GoalsAgainst    int    `validate:"gte=0"`
	Points          int
	Form            string
}

// SourceAdapter fetches one provider's data. Implementations surface
// ErrRateLimited (usually as *RateLimitedError) and ErrSourceUnavailable;
// everything else is an item-level failure.
type SourceAdapter interface {
	Source() Source
	FetchSeasonMatches(ctx context.Context, team TeamRef, season string) ([]ProviderMatchRecord, error)
	FetchTeamSquad(ctx context.Context, team TeamRef) ([]ProviderPlayerRecord, error)
	FetchMatchDetail(ctx context.Context, providerMatchID string) (ProviderMatchDetail, error)
}

type TeamInfoFetcher interface {
	FetchTeam(ctx context.Context, team TeamRef) (ProviderTeamRecord, error)
}

type StandingsFetcher interface {
	FetchStandings(ctx context.Context, competitionCode, season string) ([]ProviderStandingRecord, error)
}

var recordValidator = validator.New()

func validateRecord(v any) error {
	if err := recordValidator.Struct(v); err != nil {
		return wrapInvalid(err)
	}
	return nil
}

// rankByFreshness returns the indexes of metas best first, then by source
// priority. Provider timestamps decide only when every record carries one;
// a provider's own UpdatedAt is never weighed against another record's
// FetchedAt, since the former always lags a fetch made in the same step.
func rankByFreshness(metas []RecordMeta) []int {
	byProviderTime := len(metas) > 0
	for _, m := range metas {
		if m.UpdatedAt == nil || m.UpdatedAt.IsZero() {
			byProviderTime = false
			break
		}
	}
	key := func(m RecordMeta) time.Time {
		if byProviderTime {
			return m.UpdatedAt.UTC()
		}
		return m.FetchedAt.UTC()
	}

	order := make([]int, len(metas))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ma, mb := metas[order[a]], metas[order[b]]
		fa, fb := key(ma), key(mb)
		if !fa.Equal(fb) {
			return fa.After(fb)
		}
		return ma.Source.priority() < mb.Source.priority()
	})
	return order
}
