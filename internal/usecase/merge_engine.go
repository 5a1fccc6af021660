package usecase

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/standing"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/platform/namematch"
)

// MergeEngine folds provider records into stored rows. It is pure: callers
// pass the stored state and persist the result when changed is true.
//
// Identity fields fill forward and are only overwritten by corrections.
// Mutable fields take the first non-empty value in freshness order, Football-Data
// winning ties.
type MergeEngine struct{}

func NewMergeEngine() *MergeEngine {
	return &MergeEngine{}
}

// DetailCandidate is one source's match detail with child references already
// resolved to internal ids.
type DetailCandidate struct {
	Meta   RecordMeta
	Detail matchdetail.Detail
}

func (e *MergeEngine) ReconcileTeam(current team.Team, exists bool, records []ProviderTeamRecord) (team.Team, bool, error) {
	if len(records) == 0 {
		return current, false, nil
	}
	metas := make([]RecordMeta, len(records))
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return current, false, fmt.Errorf("team %s:%s: %w", r.Source, r.ProviderID, err)
		}
		metas[i] = r.RecordMeta
	}
	order := rankByFreshness(metas)
	next := current

	forEachCorrection(order, metas, func(i int) {
		r := records[i]
		overwriteString(&next.Name, r.Name)
		overwriteString(&next.Country, r.Country)
		if r.FoundedYear != nil {
			next.FoundedYear = cloneInt(r.FoundedYear)
		}
	})
	for _, i := range order {
		r := records[i]
		fillString(&next.Name, r.Name)
		fillString(&next.Country, r.Country)
		if next.FoundedYear == nil {
			next.FoundedYear = cloneInt(r.FoundedYear)
		}
	}

	if !keepsStored(current.SourceUpdatedAt, metas) {
		next.ShortName = pickString(order, next.ShortName, func(i int) string { return records[i].ShortName })
		next.City = pickString(order, next.City, func(i int) string { return records[i].City })
		next.Stadium = pickString(order, next.Stadium, func(i int) string { return records[i].Stadium })
		next.Website = pickString(order, next.Website, func(i int) string { return records[i].Website })
		next.ClubColors = pickString(order, next.ClubColors, func(i int) string { return records[i].ClubColors })
		next.SourceUpdatedAt = latestUpdate(current.SourceUpdatedAt, metas)
	}
	next.NormalizedName = namematch.NormalizeTeam(next.Name)

	if err := next.Validate(); err != nil {
		return current, false, wrapInvalid(err)
	}
	changed, err := rowChanged(exists, current, next)
	return next, changed, err
}

// SquadContext places a reconciled player in a squad as of SeenAt.
type SquadContext struct {
	TeamID string
	SeenAt time.Time
}

func (e *MergeEngine) ReconcilePlayer(
	current player.Player,
	exists bool,
	records []ProviderPlayerRecord,
	squad SquadContext,
) (player.Player, bool, error) {
	if len(records) == 0 {
		return current, false, nil
	}
	metas := make([]RecordMeta, len(records))
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return current, false, fmt.Errorf("player %s:%s: %w", r.Source, r.ProviderID, err)
		}
		metas[i] = r.RecordMeta
	}
	order := rankByFreshness(metas)
	next := current

	forEachCorrection(order, metas, func(i int) {
		r := records[i]
		overwriteString(&next.Name, r.Name)
		overwriteString(&next.Nationality, r.Nationality)
		if r.DateOfBirth != nil {
			next.DateOfBirth = dayPtr(*r.DateOfBirth)
		}
	})
	for _, i := range order {
		r := records[i]
		fillString(&next.Name, r.Name)
		fillString(&next.Nationality, r.Nationality)
		if next.DateOfBirth == nil && r.DateOfBirth != nil {
			next.DateOfBirth = dayPtr(*r.DateOfBirth)
		}
	}

	if !keepsStored(current.SourceUpdatedAt, metas) {
		for _, i := range order {
			if records[i].Position != player.PositionUnknown {
				next.Position = records[i].Position
				break
			}
		}
		for _, i := range order {
			if records[i].SquadNumber != nil {
				next.SquadNumber = cloneInt(records[i].SquadNumber)
				break
			}
		}
		next.SourceUpdatedAt = latestUpdate(current.SourceUpdatedAt, metas)
	}

	if squad.TeamID != "" {
		seen := dayPtr(squad.SeenAt)
		switch {
		case next.TeamID != squad.TeamID:
			next.TeamID = squad.TeamID
			next.JoinedAt = seen
			next.LeftAt = nil
		case next.LeftAt != nil:
			next.LeftAt = nil
		}
		if next.JoinedAt == nil {
			next.JoinedAt = seen
		}
	}
	next.NormalizedName = namematch.Normalize(next.Name)

	if err := next.Validate(); err != nil {
		return current, false, wrapInvalid(err)
	}
	changed, err := rowChanged(exists, current, next)
	return next, changed, err
}

// ReconcileMatch merges fixture records for one match. homeTeamID and
// awayTeamID are the resolved internal ids of the sides.
func (e *MergeEngine) ReconcileMatch(
	current match.Match,
	exists bool,
	records []ProviderMatchRecord,
	homeTeamID string,
	awayTeamID string,
) (match.Match, bool, error) {
	if len(records) == 0 {
		return current, false, nil
	}
	metas := make([]RecordMeta, len(records))
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return current, false, fmt.Errorf("match %s:%s: %w", r.Source, r.ProviderID, err)
		}
		if err := match.ValidateScorePair(r.HomeScore, r.AwayScore); err != nil {
			return current, false, fmt.Errorf("match %s:%s: %w", r.Source, r.ProviderID, wrapInvalid(err))
		}
		metas[i] = r.RecordMeta
	}
	order := rankByFreshness(metas)
	next := current

	forEachCorrection(order, metas, func(i int) {
		r := records[i]
		overwriteString(&next.SeasonName, r.SeasonName)
		overwriteString(&next.CompetitionCode, r.CompetitionCode)
		next.Date = match.DateOf(r.KickoffAt)
		overwriteString(&next.HomeTeamID, homeTeamID)
		overwriteString(&next.AwayTeamID, awayTeamID)
	})
	for _, i := range order {
		r := records[i]
		fillString(&next.SeasonName, r.SeasonName)
		fillString(&next.CompetitionCode, r.CompetitionCode)
		if next.Date.IsZero() {
			next.Date = match.DateOf(r.KickoffAt)
		}
	}
	fillString(&next.HomeTeamID, homeTeamID)
	fillString(&next.AwayTeamID, awayTeamID)

	if !keepsStored(current.SourceUpdatedAt, metas) {
		chosen, err := chooseResult(current, exists, records, order)
		if err != nil {
			return current, false, err
		}
		r := records[chosen]
		next.Status = r.Status
		if r.HomeScore == nil && current.HasScore() && r.Status == current.Status {
			next.HomeScore, next.AwayScore = cloneInt(current.HomeScore), cloneInt(current.AwayScore)
		} else {
			next.HomeScore, next.AwayScore = cloneInt(r.HomeScore), cloneInt(r.AwayScore)
		}
		next.StateSource = string(r.Source)

		for _, i := range order {
			if !records[i].KickoffAt.IsZero() {
				kickoff := records[i].KickoffAt.UTC()
				next.KickoffAt = &kickoff
				break
			}
		}
		for _, i := range order {
			if records[i].HalfTimeHomeScore != nil && records[i].HalfTimeAwayScore != nil {
				next.HalfTimeHomeScore = cloneInt(records[i].HalfTimeHomeScore)
				next.HalfTimeAwayScore = cloneInt(records[i].HalfTimeAwayScore)
				break
			}
		}
		for _, i := range order {
			if records[i].Attendance != nil {
				next.Attendance = cloneInt(records[i].Attendance)
				break
			}
		}
		next.Round = pickString(order, next.Round, func(i int) string { return records[i].Round })
		next.Venue = pickString(order, next.Venue, func(i int) string { return records[i].Venue })
		next.Referee = pickString(order, next.Referee, func(i int) string { return records[i].Referee })
		next.SourceUpdatedAt = latestUpdate(current.SourceUpdatedAt, metas)
	}

	if err := next.Validate(); err != nil {
		return current, false, wrapInvalid(err)
	}
	changed, err := rowChanged(exists, current, next)
	return next, changed, err
}

// chooseResult picks the record whose status and score pair become the
// match result. Records that would move a stored result backwards are
// skipped unless they are corrections that change the score.
func chooseResult(current match.Match, exists bool, records []ProviderMatchRecord, order []int) (int, error) {
	if !exists || current.Status == "" {
		return order[0], nil
	}
	var rejected ProviderMatchRecord
	for _, i := range order {
		r := records[i]
		if match.CanTransition(current.Status, r.Status) {
			return i, nil
		}
		if r.Correction && scoreDiffers(current, r) {
			return i, nil
		}
		if rejected.Source == "" {
			rejected = r
		}
	}
	return 0, errors.Wrapf(ErrStaleStatusDowngrade,
		"match %s: stored %s %s, %s reports %s",
		current.ID, current.Status, formatScore(current.HomeScore, current.AwayScore),
		rejected.Source, rejected.Status)
}

func scoreDiffers(current match.Match, r ProviderMatchRecord) bool {
	return !equalIntPtr(current.HomeScore, r.HomeScore) || !equalIntPtr(current.AwayScore, r.AwayScore)
}

func formatScore(home, away *int) string {
	if home == nil || away == nil {
		return "-"
	}
	return fmt.Sprintf("%d-%d", *home, *away)
}

// ReconcileMatchDetail merges child sets for m. Goals, cards and lineup are
// taken whole from the best candidate that has them; team statistics merge
// per attribute.
func (e *MergeEngine) ReconcileMatchDetail(
	m match.Match,
	current matchdetail.Detail,
	exists bool,
	candidates []DetailCandidate,
) (matchdetail.Detail, bool, error) {
	current = canonicalDetail(current)
	if !m.AcceptsDetail() {
		next := matchdetail.Detail{MatchID: m.ID}
		return next, exists && !current.Empty(), nil
	}
	if len(candidates) == 0 {
		return current, false, nil
	}

	metas := make([]RecordMeta, len(candidates))
	for i, c := range candidates {
		metas[i] = c.Meta
	}
	order := rankByFreshness(metas)

	next := matchdetail.Detail{
		MatchID: m.ID,
		Source:  current.Source,
		Home:    mergeTeamStats(current.Home, order, candidates, func(d matchdetail.Detail) *matchdetail.TeamStatistics { return d.Home }),
		Away:    mergeTeamStats(current.Away, order, candidates, func(d matchdetail.Detail) *matchdetail.TeamStatistics { return d.Away }),
		Goals:   current.Goals,
		Cards:   current.Cards,
		Lineup:  current.Lineup,
	}
	if next.Home != nil {
		next.Home.TeamID, next.Home.Side = m.HomeTeamID, matchdetail.SideHome
	}
	if next.Away != nil {
		next.Away.TeamID, next.Away.Side = m.AwayTeamID, matchdetail.SideAway
	}

	sourceSet := false
	setSource := func(s Source) {
		if !sourceSet {
			next.Source = string(s)
			sourceSet = true
		}
	}
	for _, i := range order {
		if len(candidates[i].Detail.Goals) > 0 {
			next.Goals = candidates[i].Detail.Goals
			setSource(candidates[i].Meta.Source)
			break
		}
	}
	for _, i := range order {
		if len(candidates[i].Detail.Cards) > 0 {
			next.Cards = candidates[i].Detail.Cards
			setSource(candidates[i].Meta.Source)
			break
		}
	}
	for _, i := range order {
		if len(candidates[i].Detail.Lineup) > 0 {
			next.Lineup = candidates[i].Detail.Lineup
			setSource(candidates[i].Meta.Source)
			break
		}
	}
	if !sourceSet && next.Source == "" {
		next.Source = string(candidates[order[0]].Meta.Source)
	}

	if err := validateCardTotals(next); err != nil {
		return current, false, wrapInvalid(err)
	}
	next.PlayerStats = matchdetail.DerivePlayerStats(next)
	next = canonicalDetail(next)
	if err := next.Validate(); err != nil {
		return current, false, wrapInvalid(err)
	}
	if !exists && next.Empty() {
		return next, false, nil
	}
	changed, err := rowChanged(exists, current, next)
	return next, changed, err
}

func mergeTeamStats(
	current *matchdetail.TeamStatistics,
	order []int,
	candidates []DetailCandidate,
	side func(matchdetail.Detail) *matchdetail.TeamStatistics,
) *matchdetail.TeamStatistics {
	var next matchdetail.TeamStatistics
	if current != nil {
		next = *current
	}
	found := current != nil

	pickInt := func(dst **int, get func(s *matchdetail.TeamStatistics) *int) {
		for _, i := range order {
			s := side(candidates[i].Detail)
			if s == nil {
				continue
			}
			if v := get(s); v != nil {
				*dst = cloneInt(v)
				found = true
				return
			}
		}
	}
	for _, i := range order {
		s := side(candidates[i].Detail)
		if s != nil && s.Possession != nil {
			v := *s.Possession
			next.Possession = &v
			found = true
			break
		}
	}
	pickInt(&next.Shots, func(s *matchdetail.TeamStatistics) *int { return s.Shots })
	pickInt(&next.ShotsOnTarget, func(s *matchdetail.TeamStatistics) *int { return s.ShotsOnTarget })
	pickInt(&next.Corners, func(s *matchdetail.TeamStatistics) *int { return s.Corners })
	pickInt(&next.Fouls, func(s *matchdetail.TeamStatistics) *int { return s.Fouls })
	pickInt(&next.YellowCards, func(s *matchdetail.TeamStatistics) *int { return s.YellowCards })
	pickInt(&next.RedCards, func(s *matchdetail.TeamStatistics) *int { return s.RedCards })
	pickInt(&next.Offsides, func(s *matchdetail.TeamStatistics) *int { return s.Offsides })

	if !found {
		return nil
	}
	return &next
}

func validateCardTotals(d matchdetail.Detail) error {
	yellow := map[string]int{}
	red := map[string]int{}
	for _, c := range d.Cards {
		switch c.Type {
		case matchdetail.CardYellow:
			yellow[c.TeamID]++
		case matchdetail.CardSecondYellow:
			yellow[c.TeamID]++
			red[c.TeamID]++
		case matchdetail.CardRed:
			red[c.TeamID]++
		}
	}
	for teamID, n := range yellow {
		if n > matchdetail.MaxCardsPerTeam {
			return fmt.Errorf("team %s has %d yellow cards", teamID, n)
		}
	}
	for teamID, n := range red {
		if n > matchdetail.MaxCardsPerTeam {
			return fmt.Errorf("team %s has %d red cards", teamID, n)
		}
	}
	return nil
}

// canonicalDetail makes empty child sets nil so stored and reconciled
// details encode the same way.
func canonicalDetail(d matchdetail.Detail) matchdetail.Detail {
	if len(d.Goals) == 0 {
		d.Goals = nil
	}
	if len(d.Cards) == 0 {
		d.Cards = nil
	}
	if len(d.Lineup) == 0 {
		d.Lineup = nil
	}
	if len(d.PlayerStats) == 0 {
		d.PlayerStats = nil
	}
	return d
}

// ReconcileStanding takes the table row whole from the best record.
func (e *MergeEngine) ReconcileStanding(
	current standing.Standing,
	exists bool,
	records []ProviderStandingRecord,
	teamID string,
) (standing.Standing, bool, error) {
	if len(records) == 0 {
		return current, false, nil
	}
	metas := make([]RecordMeta, len(records))
	for i, r := range records {
		if err := validateRecord(r); err != nil {
			return current, false, fmt.Errorf("standing %s:%s: %w", r.Source, r.ProviderID, err)
		}
		metas[i] = r.RecordMeta
	}
	if keepsStored(current.SourceUpdatedAt, metas) {
		return current, false, nil
	}
	best := records[rankByFreshness(metas)[0]]

	next := standing.Standing{
		CompetitionCode: best.CompetitionCode,
		SeasonName:      best.SeasonName,
		TeamID:          teamID,
		Position:        best.Position,
		Played:          best.Played,
		Won:             best.Won,
		Drawn:           best.Drawn,
		Lost:            best.Lost,
		GoalsFor:        best.GoalsFor,
		GoalsAgainst:    best.GoalsAgainst,
		Points:          best.Points,
		Form:            strings.TrimSpace(best.Form),
		StateSource:     string(best.Source),
		SourceUpdatedAt: latestUpdate(current.SourceUpdatedAt, metas),
	}
	if err := next.Validate(); err != nil {
		return current, false, wrapInvalid(err)
	}
	changed, err := rowChanged(exists, current, next)
	return next, changed, err
}

// ReconcileSeason fills in season bounds. Season rows are identity only.
func (e *MergeEngine) ReconcileSeason(current season.Season, exists bool, incoming season.Season) (season.Season, bool, error) {
	name, err := season.NormalizeName(incoming.Name)
	if err != nil {
		return current, false, wrapInvalid(err)
	}
	next := current
	fillString(&next.Name, name)
	if next.StartDate.IsZero() {
		next.StartDate = incoming.StartDate.UTC()
	}
	if next.EndDate.IsZero() {
		next.EndDate = incoming.EndDate.UTC()
	}
	if next.EndDate.Before(next.StartDate) {
		return current, false, fmt.Errorf("%w: season %s ends before it starts", ErrInvalidInput, next.Name)
	}
	changed, err := rowChanged(exists, current, next)
	return next, changed, err
}

func rowChanged(exists bool, current, next any) (bool, error) {
	if !exists {
		return true, nil
	}
	a, err := sonic.ConfigStd.Marshal(current)
	if err != nil {
		return false, fmt.Errorf("encode stored row: %w", err)
	}
	b, err := sonic.ConfigStd.Marshal(next)
	if err != nil {
		return false, fmt.Errorf("encode reconciled row: %w", err)
	}
	return !bytes.Equal(a, b), nil
}

// keepsStored reports a stored row newer than every incoming record.
func keepsStored(stored *time.Time, metas []RecordMeta) bool {
	if stored == nil {
		return false
	}
	for _, m := range metas {
		if !stored.After(m.freshness()) {
			return false
		}
	}
	return true
}

// latestUpdate advances the stored provider timestamp. FetchedAt never counts,
// so re-fetching unchanged data leaves the row identical.
func latestUpdate(stored *time.Time, metas []RecordMeta) *time.Time {
	var latest *time.Time
	if stored != nil {
		v := stored.UTC()
		latest = &v
	}
	for _, m := range metas {
		if m.UpdatedAt == nil || m.UpdatedAt.IsZero() {
			continue
		}
		v := m.UpdatedAt.UTC()
		if latest == nil || v.After(*latest) {
			latest = &v
		}
	}
	return latest
}

// forEachCorrection visits correction records least fresh first so the best
// one is applied last.
func forEachCorrection(order []int, metas []RecordMeta, fn func(i int)) {
	for k := len(order) - 1; k >= 0; k-- {
		if metas[order[k]].Correction {
			fn(order[k])
		}
	}
}

func pickString(order []int, fallback string, get func(i int) string) string {
	for _, i := range order {
		if v := strings.TrimSpace(get(i)); v != "" {
			return v
		}
	}
	return fallback
}

func fillString(dst *string, v string) {
	v = strings.TrimSpace(v)
	if *dst == "" && v != "" {
		*dst = v
	}
}

func overwriteString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dayPtr(t time.Time) *time.Time {
	d := match.DateOf(t)
	return &d
}
