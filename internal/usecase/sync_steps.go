package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/riskibarqy/football-sync/internal/domain/externalid"
	"github.com/riskibarqy/football-sync/internal/domain/match"
	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	"github.com/riskibarqy/football-sync/internal/domain/player"
	"github.com/riskibarqy/football-sync/internal/domain/season"
	"github.com/riskibarqy/football-sync/internal/domain/team"
	"github.com/riskibarqy/football-sync/internal/platform/namematch"
)

func encodeReport(report SyncReport) ([]byte, error) {
	out, err := sonic.ConfigStd.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode sync report: %w", err)
	}
	return out, nil
}

func (s *SyncService) syncSeasons(ctx context.Context, run *syncRun) error {
	scope := run.report.Scope
	items := make([]syncItem, 0, len(s.cfg.Competitions)+2)

	for _, item := range season.Range(scope.From, scope.To) {
		incoming := item
		items = append(items, syncItem{
			key: "season:" + incoming.Name,
			run: func(ctx context.Context) (bool, error) {
				var changed bool
				err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
					current, exists, err := tx.Seasons().GetSeason(ctx, incoming.Name)
					if err != nil {
						return fmt.Errorf("get season %s: %w", incoming.Name, err)
					}
					next, ch, err := s.merger.ReconcileSeason(current, exists, incoming)
					if err != nil {
						return err
					}
					changed = ch
					if !ch {
						return nil
					}
					return tx.Seasons().UpsertSeason(ctx, next)
				})
				return changed, err
			},
		})
	}

	for _, item := range s.cfg.Competitions {
		incoming := item
		items = append(items, syncItem{
			key: "competition:" + incoming.Code,
			run: func(ctx context.Context) (bool, error) {
				var changed bool
				err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
					current, exists, err := tx.Seasons().GetCompetition(ctx, incoming.Code)
					if err != nil {
						return fmt.Errorf("get competition %s: %w", incoming.Code, err)
					}
					changed = !exists || (incoming.Name != "" && current.Name != incoming.Name)
					if !changed {
						return nil
					}
					return tx.Seasons().UpsertCompetition(ctx, incoming)
				})
				return changed, err
			},
		})
	}

	return s.runItems(ctx, run, StateFetchingSeasons, items)
}

func (s *SyncService) syncTeams(ctx context.Context, run *syncRun) error {
	scope := run.report.Scope
	if scope.includes(EntityTeam) {
		item := syncItem{
			key: "team:" + s.cfg.Team.Name,
			run: func(ctx context.Context) (bool, error) {
				return s.syncTrackedTeam(ctx, run)
			},
		}
		if err := s.runItems(ctx, run, StateFetchingTeams, []syncItem{item}); err != nil {
			return err
		}
	}

	if run.trackedTeam() == "" {
		err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
			teamID, ok, err := s.resolver.Lookup(ctx, tx, IdentityQuery{
				EntityType: externalid.EntityTeam,
				Name:       s.cfg.Team.Name,
			})
			if err != nil || !ok {
				return err
			}
			run.setTrackedTeam(teamID)
			return nil
		})
		if err != nil {
			return fmt.Errorf("look up tracked team: %w", err)
		}
	}

	if !scope.includes(EntityPlayer) {
		return nil
	}
	return s.syncSquads(ctx, run)
}

func (s *SyncService) syncTrackedTeam(ctx context.Context, run *syncRun) (bool, error) {
	adapters := make([]SourceAdapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		if _, ok := a.(TeamInfoFetcher); ok && s.cfg.Team.ProviderID(a.Source()) != "" {
			adapters = append(adapters, a)
		}
	}
	if len(adapters) == 0 {
		return false, nil
	}

	results, err := collectResults(fetchFromSources(ctx, s, adapters,
		func(ctx context.Context, a SourceAdapter) (ProviderTeamRecord, error) {
			return a.(TeamInfoFetcher).FetchTeam(ctx, s.cfg.Team)
		}))
	if err != nil {
		return false, err
	}

	fetchedAt := run.stepFetchedAt()
	records := make([]ProviderTeamRecord, 0, len(results))
	for _, r := range results {
		rec := r.value
		rec.RecordMeta = stampMeta(rec.RecordMeta, r.source, fetchedAt)
		records = append(records, rec)
	}

	name := s.cfg.Team.Name
	if strings.TrimSpace(name) == "" {
		name = records[0].Name
	}

	var (
		teamID  string
		changed bool
	)
	err = s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		queries := make([]IdentityQuery, 0, len(records))
		for _, rec := range records {
			queries = append(queries, IdentityQuery{
				EntityType: externalid.EntityTeam,
				Source:     rec.Source,
				ProviderID: rec.ProviderID,
				Name:       rec.Name,
				City:       rec.City,
				Stadium:    rec.Stadium,
			})
		}
		res, err := s.resolver.ResolveAll(ctx, tx, queries, createTeam(name))
		if err != nil {
			return err
		}

		current, exists, err := tx.Teams().GetByID(ctx, res.InternalID)
		if err != nil {
			return fmt.Errorf("get team %s: %w", res.InternalID, err)
		}
		current.ID = res.InternalID
		next, ch, err := s.merger.ReconcileTeam(current, exists, records)
		if err != nil {
			return err
		}
		if ch {
			if err := tx.Teams().Upsert(ctx, next); err != nil {
				return fmt.Errorf("upsert team %s: %w", next.ID, err)
			}
		}
		teamID = res.InternalID
		changed = ch || res.Created()
		return nil
	})
	if err != nil {
		return false, err
	}
	run.setTrackedTeam(teamID)
	return changed, nil
}

type playerGroup struct {
	key     string
	records []ProviderPlayerRecord
}

func (s *SyncService) syncSquads(ctx context.Context, run *syncRun) error {
	adapters := make([]SourceAdapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		if s.cfg.Team.ProviderID(a.Source()) != "" {
			adapters = append(adapters, a)
		}
	}

	var (
		mu      sync.Mutex
		fetched []ProviderPlayerRecord
		sources int
	)
	fetchItems := make([]syncItem, 0, len(adapters))
	for _, a := range adapters {
		adapter := a
		fetchItems = append(fetchItems, syncItem{
			key: "squad:" + string(adapter.Source()),
			run: func(ctx context.Context) (bool, error) {
				records, err := callSource(ctx, s, adapter.Source(), func(ctx context.Context) ([]ProviderPlayerRecord, error) {
					return adapter.FetchTeamSquad(ctx, s.cfg.Team)
				})
				if err != nil {
					return false, err
				}
				fetchedAt := run.stepFetchedAt()
				mu.Lock()
				defer mu.Unlock()
				for _, rec := range records {
					rec.RecordMeta = stampMeta(rec.RecordMeta, adapter.Source(), fetchedAt)
					fetched = append(fetched, rec)
				}
				sources++
				return false, nil
			},
		})
	}
	if err := s.runItems(ctx, run, StateFetchingTeams, fetchItems); err != nil {
		return err
	}

	teamID := run.trackedTeam()
	seenAt := run.stepFetchedAt()
	seen := make(map[string]struct{}, len(fetched))
	var playerFailures int
	groups := groupPlayerRecords(fetched)
	items := make([]syncItem, 0, len(groups)+1)
	for _, g := range groups {
		group := g
		items = append(items, syncItem{
			key: "player:" + group.key,
			run: func(ctx context.Context) (bool, error) {
				playerID, changed, err := s.applyPlayerGroup(ctx, group.records, SquadContext{TeamID: teamID, SeenAt: seenAt})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					playerFailures++
					return false, err
				}
				seen[playerID] = struct{}{}
				return changed, nil
			},
		})
	}
	if err := s.runItems(ctx, run, StateFetchingTeams, items); err != nil {
		return err
	}

	switch {
	case teamID == "":
		s.logger.DebugContext(ctx, "skip squad departures: tracked team unknown")
		return nil
	case sources == 0 || sources != len(adapters):
		s.logger.WarnContext(ctx, "skip squad departures: not every squad was fetched",
			"fetched_sources", sources, "sources", len(adapters))
		return nil
	case playerFailures > 0:
		s.logger.WarnContext(ctx, "skip squad departures: some players failed to reconcile",
			"failed_players", playerFailures)
		return nil
	}

	departures := syncItem{
		key: "squad-departures:" + teamID,
		run: func(ctx context.Context) (bool, error) {
			return s.markDepartures(ctx, teamID, seen, seenAt)
		},
	}
	return s.runItems(ctx, run, StateFetchingTeams, []syncItem{departures})
}

func (s *SyncService) applyPlayerGroup(ctx context.Context, records []ProviderPlayerRecord, squad SquadContext) (string, bool, error) {
	var (
		playerID string
		changed  bool
	)
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		queries := make([]IdentityQuery, 0, len(records))
		for _, rec := range records {
			queries = append(queries, IdentityQuery{
				EntityType:  externalid.EntityPlayer,
				Source:      rec.Source,
				ProviderID:  rec.ProviderID,
				Name:        rec.Name,
				DateOfBirth: rec.DateOfBirth,
				TeamID:      squad.TeamID,
			})
		}
		res, err := s.resolver.ResolveAll(ctx, tx, queries, createPlayer(records[0].Name))
		if err != nil {
			return err
		}
		current, exists, err := tx.Players().GetByID(ctx, res.InternalID)
		if err != nil {
			return fmt.Errorf("get player %s: %w", res.InternalID, err)
		}
		current.ID = res.InternalID
		next, ch, err := s.merger.ReconcilePlayer(current, exists, records, squad)
		if err != nil {
			return err
		}
		if ch {
			if err := tx.Players().Upsert(ctx, next); err != nil {
				return fmt.Errorf("upsert player %s: %w", next.ID, err)
			}
		}
		playerID = res.InternalID
		changed = ch || res.Created()
		return nil
	})
	return playerID, changed, err
}

// markDepartures closes the squad spell of active players that no source
// listed any more.
func (s *SyncService) markDepartures(ctx context.Context, teamID string, seen map[string]struct{}, at time.Time) (bool, error) {
	var changed bool
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		changed = false
		active, err := tx.Players().ListActiveByTeam(ctx, teamID)
		if err != nil {
			return fmt.Errorf("list active players of %s: %w", teamID, err)
		}
		for _, p := range active {
			if _, ok := seen[p.ID]; ok {
				continue
			}
			p.LeftAt = dayPtr(at)
			if p.JoinedAt != nil && p.LeftAt.Before(*p.JoinedAt) {
				p.LeftAt = cloneTime(p.JoinedAt)
			}
			if err := tx.Players().Upsert(ctx, p); err != nil {
				return fmt.Errorf("mark player %s departed: %w", p.ID, err)
			}
			s.logger.InfoContext(ctx, "player left squad", "player_id", p.ID, "team_id", teamID)
			changed = true
		}
		return nil
	})
	return changed, err
}

// groupPlayerRecords groups squad records describing the same person across
// sources by normalized name. A name repeated within one source is split
// into one group per record.
func groupPlayerRecords(records []ProviderPlayerRecord) []playerGroup {
	byName := make(map[string][]ProviderPlayerRecord)
	for _, rec := range records {
		key := namematch.Normalize(rec.Name)
		if key == "" {
			key = string(rec.Source) + ":" + rec.ProviderID
		}
		byName[key] = append(byName[key], rec)
	}

	keys := make([]string, 0, len(byName))
	for key := range byName {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]playerGroup, 0, len(keys))
	for _, key := range keys {
		recs := byName[key]
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Source.priority() < recs[j].Source.priority()
		})
		if hasRepeatedSource(func(i int) Source { return recs[i].Source }, len(recs)) {
			for _, rec := range recs {
				out = append(out, playerGroup{
					key:     key + "#" + string(rec.Source) + ":" + rec.ProviderID,
					records: []ProviderPlayerRecord{rec},
				})
			}
			continue
		}
		out = append(out, playerGroup{key: key, records: recs})
	}
	return out
}

func hasRepeatedSource(source func(i int) Source, n int) bool {
	seen := make(map[Source]struct{}, n)
	for i := 0; i < n; i++ {
		if _, ok := seen[source(i)]; ok {
			return true
		}
		seen[source(i)] = struct{}{}
	}
	return false
}

type providerKey struct {
	source     Source
	providerID string
}

type teamGroup struct {
	key     string
	name    string
	members []providerKey
}

type matchGroup struct {
	key        string
	homeTeamID string
	awayTeamID string
	records    []ProviderMatchRecord
}

func (s *SyncService) syncMatches(ctx context.Context, run *syncRun) error {
	scope := run.report.Scope
	adapters := make([]SourceAdapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		if s.cfg.Team.ProviderID(a.Source()) != "" {
			adapters = append(adapters, a)
		}
	}

	var (
		mu      sync.Mutex
		fetched []ProviderMatchRecord
	)
	fetchItems := make([]syncItem, 0, len(adapters)*2)
	for _, ss := range season.Range(scope.From, scope.To) {
		seasonName := ss.Name
		for _, a := range adapters {
			adapter := a
			fetchItems = append(fetchItems, syncItem{
				key: "matches:" + seasonName + ":" + string(adapter.Source()),
				run: func(ctx context.Context) (bool, error) {
					records, err := callSource(ctx, s, adapter.Source(), func(ctx context.Context) ([]ProviderMatchRecord, error) {
						return adapter.FetchSeasonMatches(ctx, s.cfg.Team, seasonName)
					})
					if err != nil {
						return false, err
					}
					fetchedAt := run.stepFetchedAt()
					mu.Lock()
					defer mu.Unlock()
					for _, rec := range records {
						if !scope.contains(rec.KickoffAt) {
							continue
						}
						rec.RecordMeta = stampMeta(rec.RecordMeta, adapter.Source(), fetchedAt)
						fetched = append(fetched, rec)
					}
					return false, nil
				},
			})
		}
	}
	if err := s.runItems(ctx, run, StateFetchingMatches, fetchItems); err != nil {
		return err
	}

	teamIDs := make(map[providerKey]string)
	teamGroups := groupMatchTeams(fetched)
	teamItems := make([]syncItem, 0, len(teamGroups))
	for _, g := range teamGroups {
		group := g
		teamItems = append(teamItems, syncItem{
			key: "team:" + group.key,
			run: func(ctx context.Context) (bool, error) {
				var res Resolution
				err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
					queries := make([]IdentityQuery, 0, len(group.members))
					for _, m := range group.members {
						queries = append(queries, IdentityQuery{
							EntityType: externalid.EntityTeam,
							Source:     m.source,
							ProviderID: m.providerID,
							Name:       group.name,
						})
					}
					var err error
					res, err = s.resolver.ResolveAll(ctx, tx, queries, createTeam(group.name))
					return err
				})
				if err != nil {
					return false, err
				}
				mu.Lock()
				for _, m := range group.members {
					teamIDs[m] = res.InternalID
				}
				mu.Unlock()
				return res.Created(), nil
			},
		})
	}
	if err := s.runItems(ctx, run, StateFetchingMatches, teamItems); err != nil {
		return err
	}

	groups := groupMatchRecords(fetched, teamIDs, func(rec ProviderMatchRecord, reason string) {
		run.fail(StateFetchingMatches, "match:"+string(rec.Source)+":"+rec.ProviderID, reason)
	})
	items := make([]syncItem, 0, len(groups))
	for _, g := range groups {
		group := g
		items = append(items, syncItem{
			key: "match:" + group.key,
			run: func(ctx context.Context) (bool, error) {
				return s.applyMatchGroup(ctx, group)
			},
		})
	}
	return s.runItems(ctx, run, StateFetchingMatches, items)
}

func (s *SyncService) applyMatchGroup(ctx context.Context, group matchGroup) (bool, error) {
	var changed bool
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		queries := make([]IdentityQuery, 0, len(group.records))
		for _, rec := range group.records {
			queries = append(queries, IdentityQuery{
				EntityType: externalid.EntityMatch,
				Source:     rec.Source,
				ProviderID: rec.ProviderID,
				HomeTeamID: group.homeTeamID,
				AwayTeamID: group.awayTeamID,
				Date:       rec.KickoffAt,
			})
		}
		res, err := s.resolver.ResolveAll(ctx, tx, queries, createMatchDeferred)
		if err != nil {
			return err
		}
		current, exists, err := tx.Matches().GetByID(ctx, res.InternalID)
		if err != nil {
			return fmt.Errorf("get match %s: %w", res.InternalID, err)
		}
		current.ID = res.InternalID
		next, ch, err := s.merger.ReconcileMatch(current, exists, group.records, group.homeTeamID, group.awayTeamID)
		if err != nil {
			return err
		}
		changed = ch
		if !ch {
			return nil
		}
		if err := tx.Matches().Upsert(ctx, next); err != nil {
			return fmt.Errorf("upsert match %s: %w", next.ID, err)
		}
		return nil
	})
	return changed, err
}

// groupMatchTeams collects the distinct provider teams seen in fixtures,
// grouped by normalized name.
func groupMatchTeams(records []ProviderMatchRecord) []teamGroup {
	type entry struct {
		name    string
		members map[providerKey]struct{}
	}
	byName := make(map[string]*entry)
	add := func(source Source, side ProviderTeamSide) {
		key := namematch.NormalizeTeam(side.Name)
		e, ok := byName[key]
		if !ok {
			e = &entry{name: strings.TrimSpace(side.Name), members: make(map[providerKey]struct{})}
			byName[key] = e
		}
		e.members[providerKey{source: source, providerID: side.ProviderID}] = struct{}{}
	}
	for _, rec := range records {
		add(rec.Source, rec.Home)
		add(rec.Source, rec.Away)
	}

	keys := make([]string, 0, len(byName))
	for key := range byName {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]teamGroup, 0, len(keys))
	for _, key := range keys {
		e := byName[key]
		members := make([]providerKey, 0, len(e.members))
		for m := range e.members {
			members = append(members, m)
		}
		sort.Slice(members, func(i, j int) bool {
			if members[i].source != members[j].source {
				return members[i].source.priority() < members[j].source.priority()
			}
			return members[i].providerID < members[j].providerID
		})
		if hasRepeatedSource(func(i int) Source { return members[i].source }, len(members)) {
			for _, m := range members {
				out = append(out, teamGroup{
					key:     key + "#" + string(m.source) + ":" + m.providerID,
					name:    e.name,
					members: []providerKey{m},
				})
			}
			continue
		}
		out = append(out, teamGroup{key: key, name: e.name, members: members})
	}
	return out
}

// groupMatchRecords groups fixture records by resolved (home, away, date).
// Records whose sides did not resolve are reported through skip.
func groupMatchRecords(
	records []ProviderMatchRecord,
	teamIDs map[providerKey]string,
	skip func(rec ProviderMatchRecord, reason string),
) []matchGroup {
	byKey := make(map[string]*matchGroup)
	for _, rec := range records {
		home := teamIDs[providerKey{source: rec.Source, providerID: rec.Home.ProviderID}]
		away := teamIDs[providerKey{source: rec.Source, providerID: rec.Away.ProviderID}]
		if home == "" || away == "" {
			skip(rec, fmt.Sprintf("unresolved team in %s v %s", rec.Home.Name, rec.Away.Name))
			continue
		}
		key := match.DateOf(rec.KickoffAt).Format(time.DateOnly) + ":" + home + ":" + away
		g, ok := byKey[key]
		if !ok {
			g = &matchGroup{key: key, homeTeamID: home, awayTeamID: away}
			byKey[key] = g
		}
		g.records = append(g.records, rec)
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]matchGroup, 0, len(keys))
	for _, key := range keys {
		g := byKey[key]
		sort.SliceStable(g.records, func(i, j int) bool {
			return g.records[i].Source.priority() < g.records[j].Source.priority()
		})
		if hasRepeatedSource(func(i int) Source { return g.records[i].Source }, len(g.records)) {
			for _, rec := range g.records {
				out = append(out, matchGroup{
					key:        key + "#" + string(rec.Source) + ":" + rec.ProviderID,
					homeTeamID: g.homeTeamID,
					awayTeamID: g.awayTeamID,
					records:    []ProviderMatchRecord{rec},
				})
			}
			continue
		}
		out = append(out, *g)
	}
	return out
}

type detailTarget struct {
	match       match.Match
	providerIDs map[Source]string
}

func (s *SyncService) syncMatchDetails(ctx context.Context, run *syncRun) error {
	scope := run.report.Scope
	var targets []detailTarget
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		targets = targets[:0]
		matches, err := tx.Matches().ListByDateRange(ctx, scope.From, scope.To)
		if err != nil {
			return fmt.Errorf("list matches: %w", err)
		}
		for _, m := range matches {
			if m.Status != match.StatusLive && m.Status != match.StatusFinished && !m.HasScore() {
				continue
			}
			mappings, err := tx.ExternalIDs().ListByInternalID(ctx, externalid.EntityMatch, m.ID)
			if err != nil {
				return fmt.Errorf("list external ids of match %s: %w", m.ID, err)
			}
			ids := make(map[Source]string, len(mappings))
			for _, mp := range mappings {
				ids[Source(mp.Source)] = mp.ProviderID
			}
			targets = append(targets, detailTarget{match: m, providerIDs: ids})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load match detail targets: %w", err)
	}

	items := make([]syncItem, 0, len(targets))
	for _, t := range targets {
		target := t
		items = append(items, syncItem{
			key: "detail:" + target.match.ID,
			run: func(ctx context.Context) (bool, error) {
				return s.syncMatchDetail(ctx, run, target)
			},
		})
	}
	return s.runItems(ctx, run, StateFetchingMatchDetails, items)
}

func (s *SyncService) syncMatchDetail(ctx context.Context, run *syncRun, target detailTarget) (bool, error) {
	adapters := make([]SourceAdapter, 0, len(target.providerIDs))
	for _, a := range s.adapters {
		if target.providerIDs[a.Source()] != "" {
			adapters = append(adapters, a)
		}
	}
	if len(adapters) == 0 {
		return false, nil
	}

	results, err := collectResults(fetchFromSources(ctx, s, adapters,
		func(ctx context.Context, a SourceAdapter) (ProviderMatchDetail, error) {
			return a.FetchMatchDetail(ctx, target.providerIDs[a.Source()])
		}))
	if err != nil {
		return false, err
	}

	fetchedAt := run.stepFetchedAt()
	details := make([]ProviderMatchDetail, 0, len(results))
	var matchRecords []ProviderMatchRecord
	for _, r := range results {
		d := r.value
		d.RecordMeta = stampMeta(d.RecordMeta, r.source, fetchedAt)
		if d.ProviderID == "" {
			d.ProviderID = target.providerIDs[r.source]
		}
		if d.Match != nil {
			rec := *d.Match
			rec.RecordMeta = stampMeta(rec.RecordMeta, r.source, fetchedAt)
			if rec.ProviderID == "" {
				rec.ProviderID = d.ProviderID
			}
			d.Match = &rec
		}
		if err := validateRecord(d); err != nil {
			return false, fmt.Errorf("match detail %s:%s: %w", d.Source, d.ProviderID, err)
		}
		if d.Match != nil {
			matchRecords = append(matchRecords, *d.Match)
		}
		details = append(details, d)
	}

	var changed bool
	err = s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		changed = false
		m, exists, err := tx.Matches().GetByID(ctx, target.match.ID)
		if err != nil {
			return fmt.Errorf("get match %s: %w", target.match.ID, err)
		}
		if !exists {
			return fmt.Errorf("%w: match %s", ErrNotFound, target.match.ID)
		}

		if len(matchRecords) > 0 {
			next, ch, err := s.merger.ReconcileMatch(m, true, matchRecords, m.HomeTeamID, m.AwayTeamID)
			if err != nil {
				return err
			}
			if ch {
				if err := tx.Matches().Upsert(ctx, next); err != nil {
					return fmt.Errorf("upsert match %s: %w", next.ID, err)
				}
				changed = true
			}
			m = next
		}

		candidates := make([]DetailCandidate, 0, len(details))
		for _, d := range details {
			c, err := s.toDetailCandidate(ctx, tx, m, d)
			if err != nil {
				return err
			}
			candidates = append(candidates, c)
		}

		current, exists, err := tx.MatchDetails().Get(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("get match detail %s: %w", m.ID, err)
		}
		next, ch, err := s.merger.ReconcileMatchDetail(m, current, exists, candidates)
		if err != nil {
			return err
		}
		if ch {
			if err := tx.MatchDetails().Replace(ctx, next); err != nil {
				return fmt.Errorf("replace match detail %s: %w", m.ID, err)
			}
			changed = true
		}
		return nil
	})
	return changed, err
}

// toDetailCandidate resolves a provider detail's team sides and player
// references. Unknown players keep their name and an empty id.
func (s *SyncService) toDetailCandidate(ctx context.Context, tx Tx, m match.Match, d ProviderMatchDetail) (DetailCandidate, error) {
	teamFor := func(side matchdetail.TeamSide) string {
		if side == matchdetail.SideAway {
			return m.AwayTeamID
		}
		return m.HomeTeamID
	}
	lookup := func(ref ProviderPlayerRef, side matchdetail.TeamSide) (string, error) {
		if ref.empty() {
			return "", nil
		}
		playerID, ok, err := s.resolver.Lookup(ctx, tx, IdentityQuery{
			EntityType: externalid.EntityPlayer,
			Source:     d.Source,
			ProviderID: ref.ProviderID,
			Name:       ref.Name,
			TeamID:     teamFor(side),
		})
		if err != nil || !ok {
			return "", err
		}
		return playerID, nil
	}

	out := matchdetail.Detail{
		MatchID: m.ID,
		Source:  string(d.Source),
		Home:    toTeamStatistics(d.Home, m.HomeTeamID, matchdetail.SideHome),
		Away:    toTeamStatistics(d.Away, m.AwayTeamID, matchdetail.SideAway),
	}
	for _, g := range d.Goals {
		scorer, err := lookup(g.Scorer, g.Side)
		if err != nil {
			return DetailCandidate{}, err
		}
		assist, err := lookup(g.Assist, g.Side)
		if err != nil {
			return DetailCandidate{}, err
		}
		out.Goals = append(out.Goals, matchdetail.Goal{
			TeamID:   teamFor(g.Side),
			PlayerID: scorer,
			Scorer:   g.Scorer.Name,
			AssistID: assist,
			Minute:   g.Minute,
			OwnGoal:  g.OwnGoal,
			Penalty:  g.Penalty,
		})
	}
	for _, c := range d.Cards {
		playerID, err := lookup(c.Player, c.Side)
		if err != nil {
			return DetailCandidate{}, err
		}
		out.Cards = append(out.Cards, matchdetail.Card{
			TeamID:   teamFor(c.Side),
			PlayerID: playerID,
			Player:   c.Player.Name,
			Minute:   c.Minute,
			Type:     c.Type,
		})
	}
	for _, l := range d.Lineup {
		playerID, err := lookup(l.Player, l.Side)
		if err != nil {
			return DetailCandidate{}, err
		}
		out.Lineup = append(out.Lineup, matchdetail.LineupEntry{
			TeamID:      teamFor(l.Side),
			PlayerID:    playerID,
			Player:      l.Player.Name,
			Position:    l.Position,
			ShirtNumber: cloneInt(l.ShirtNumber),
			Starter:     l.Starter,
			MinuteOn:    cloneInt(l.MinuteOn),
			MinuteOff:   cloneInt(l.MinuteOff),
		})
	}
	return DetailCandidate{Meta: d.RecordMeta, Detail: out}, nil
}

func toTeamStatistics(in *ProviderTeamStats, teamID string, side matchdetail.TeamSide) *matchdetail.TeamStatistics {
	if in == nil {
		return nil
	}
	out := &matchdetail.TeamStatistics{
		TeamID:        teamID,
		Side:          side,
		Shots:         cloneInt(in.Shots),
		ShotsOnTarget: cloneInt(in.ShotsOnTarget),
		Corners:       cloneInt(in.Corners),
		Fouls:         cloneInt(in.Fouls),
		YellowCards:   cloneInt(in.YellowCards),
		RedCards:      cloneInt(in.RedCards),
		Offsides:      cloneInt(in.Offsides),
	}
	if in.Possession != nil {
		v := *in.Possession
		out.Possession = &v
	}
	return out
}

type standingsTable struct {
	competition string
	season      string
}

func (s *SyncService) syncStandings(ctx context.Context, run *syncRun) error {
	fetchers := make([]SourceAdapter, 0, len(s.adapters))
	for _, a := range s.adapters {
		if _, ok := a.(StandingsFetcher); ok {
			fetchers = append(fetchers, a)
		}
	}
	if len(fetchers) == 0 {
		return nil
	}

	scope := run.report.Scope
	var tables []standingsTable
	err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
		matches, err := tx.Matches().ListByDateRange(ctx, scope.From, scope.To)
		if err != nil {
			return fmt.Errorf("list matches: %w", err)
		}
		seen := make(map[standingsTable]struct{})
		tables = tables[:0]
		for _, m := range matches {
			t := standingsTable{competition: m.CompetitionCode, season: m.SeasonName}
			if t.competition == "" || t.season == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tables = append(tables, t)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("load standings tables: %w", err)
	}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].competition != tables[j].competition {
			return tables[i].competition < tables[j].competition
		}
		return tables[i].season < tables[j].season
	})

	items := make([]syncItem, 0, len(tables))
	for _, t := range tables {
		table := t
		items = append(items, syncItem{
			key: "standings:" + table.competition + ":" + table.season,
			run: func(ctx context.Context) (bool, error) {
				return s.syncStandingsTable(ctx, run, fetchers, table)
			},
		})
	}
	return s.runItems(ctx, run, StateFetchingStats, items)
}

func (s *SyncService) syncStandingsTable(ctx context.Context, run *syncRun, fetchers []SourceAdapter, table standingsTable) (bool, error) {
	results, err := collectResults(fetchFromSources(ctx, s, fetchers,
		func(ctx context.Context, a SourceAdapter) ([]ProviderStandingRecord, error) {
			return a.(StandingsFetcher).FetchStandings(ctx, table.competition, table.season)
		}))
	if err != nil {
		return false, err
	}

	fetchedAt := run.stepFetchedAt()
	var records []ProviderStandingRecord
	for _, r := range results {
		for _, rec := range r.value {
			rec.RecordMeta = stampMeta(rec.RecordMeta, r.source, fetchedAt)
			if rec.CompetitionCode == "" {
				rec.CompetitionCode = table.competition
			}
			if rec.SeasonName == "" {
				rec.SeasonName = table.season
			}
			records = append(records, rec)
		}
	}
	if len(records) == 0 {
		return false, nil
	}

	// One unit of work per row. A failed row is reported and skipped.
	var changed bool
	byTeam := make(map[string][]ProviderStandingRecord)
	for _, rec := range records {
		var res Resolution
		err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
			var err error
			res, err = s.resolver.Resolve(ctx, tx, IdentityQuery{
				EntityType: externalid.EntityTeam,
				Source:     rec.Source,
				ProviderID: rec.ProviderID,
				Name:       rec.TeamName,
			}, createTeam(rec.TeamName))
			return err
		})
		if err != nil {
			if runFatal(err) {
				return changed, err
			}
			s.failStandingRow(ctx, run, table, string(rec.Source)+":"+rec.ProviderID, err)
			continue
		}
		if res.Created() {
			changed = true
		}
		byTeam[res.InternalID] = append(byTeam[res.InternalID], rec)
	}

	teamIDs := make([]string, 0, len(byTeam))
	for teamID := range byTeam {
		teamIDs = append(teamIDs, teamID)
	}
	sort.Strings(teamIDs)
	for _, teamID := range teamIDs {
		var rowChanged bool
		err := s.withinTx(ctx, func(ctx context.Context, tx Tx) error {
			rowChanged = false
			current, exists, err := tx.Standings().Get(ctx, table.competition, table.season, teamID)
			if err != nil {
				return fmt.Errorf("get standing %s: %w", teamID, err)
			}
			next, ch, err := s.merger.ReconcileStanding(current, exists, byTeam[teamID], teamID)
			if err != nil || !ch {
				return err
			}
			if err := tx.Standings().Upsert(ctx, next); err != nil {
				return fmt.Errorf("upsert standing %s: %w", teamID, err)
			}
			rowChanged = true
			return nil
		})
		if err != nil {
			if runFatal(err) {
				return changed, err
			}
			s.failStandingRow(ctx, run, table, teamID, err)
			continue
		}
		changed = changed || rowChanged
	}
	return changed, nil
}

func (s *SyncService) failStandingRow(ctx context.Context, run *syncRun, table standingsTable, row string, err error) {
	item := "standing:" + table.competition + ":" + table.season + ":" + row
	run.fail(StateFetchingStats, item, err.Error())
	s.logger.WarnContext(ctx, "standing row skipped", "item", item, "reason", err.Error())
}

// stampMeta fills in the receipt metadata the orchestrator owns.
func stampMeta(meta RecordMeta, source Source, fetchedAt time.Time) RecordMeta {
	if meta.Source == "" {
		meta.Source = source
	}
	meta.FetchedAt = fetchedAt
	return meta
}

func createTeam(name string) CreateFunc {
	return func(ctx context.Context, tx Tx, internalID string) error {
		name := strings.TrimSpace(name)
		return tx.Teams().Upsert(ctx, team.Team{
			ID:             internalID,
			Name:           name,
			NormalizedName: namematch.NormalizeTeam(name),
		})
	}
}

func createPlayer(name string) CreateFunc {
	return func(ctx context.Context, tx Tx, internalID string) error {
		name := strings.TrimSpace(name)
		return tx.Players().Upsert(ctx, player.Player{
			ID:             internalID,
			Name:           name,
			NormalizedName: namematch.Normalize(name),
		})
	}
}

// createMatchDeferred leaves the row to the reconcile that follows in the
// same transaction.
func createMatchDeferred(context.Context, Tx, string) error {
	return nil
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
