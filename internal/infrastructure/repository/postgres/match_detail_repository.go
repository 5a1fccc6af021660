package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/football-sync/internal/domain/matchdetail"
	qb "github.com/riskibarqy/football-sync/internal/platform/querybuilder"
)

// childTables are cleared on every Replace, children first.
var childTables = []string{
	"player_match_stats",
	"lineups",
	"cards",
	"goals",
	"match_team_statistics",
	"match_details",
}

type MatchDetailRepository struct {
	q *sqlx.Tx
}

func (r *MatchDetailRepository) Get(ctx context.Context, matchID string) (matchdetail.Detail, bool, error) {
	query, args, err := qb.Select("*").From("match_details").
		Where(qb.Eq("match_id", matchID)).
		Limit(1).
		ToSQL()
	if err != nil {
		return matchdetail.Detail{}, false, fmt.Errorf("build select match detail query: %w", err)
	}
	var head matchDetailTableModel
	if err := r.q.GetContext(ctx, &head, query, args...); err != nil {
		if isNotFound(err) {
			return matchdetail.Detail{}, false, nil
		}
		return matchdetail.Detail{}, false, fmt.Errorf("select match detail: %w", classify(err))
	}

	detail := matchdetail.Detail{MatchID: head.MatchID, Source: head.Source}

	var stats []teamStatisticsTableModel
	if err := r.selectChildren(ctx, &stats, "match_team_statistics", matchID, "side"); err != nil {
		return matchdetail.Detail{}, false, err
	}
	for _, row := range stats {
		item := teamStatisticsFromRow(row)
		if item.Side == matchdetail.SideAway {
			detail.Away = &item
		} else {
			detail.Home = &item
		}
	}

	var goals []goalTableModel
	if err := r.selectChildren(ctx, &goals, "goals", matchID, "ordinal"); err != nil {
		return matchdetail.Detail{}, false, err
	}
	for _, row := range goals {
		detail.Goals = append(detail.Goals, matchdetail.Goal{
			TeamID:   row.TeamID,
			PlayerID: row.PlayerID.String,
			Scorer:   row.Scorer,
			AssistID: row.AssistID.String,
			Minute:   row.Minute,
			OwnGoal:  row.OwnGoal,
			Penalty:  row.Penalty,
		})
	}

	var cards []cardTableModel
	if err := r.selectChildren(ctx, &cards, "cards", matchID, "ordinal"); err != nil {
		return matchdetail.Detail{}, false, err
	}
	for _, row := range cards {
		detail.Cards = append(detail.Cards, matchdetail.Card{
			TeamID:   row.TeamID,
			PlayerID: row.PlayerID.String,
			Player:   row.Player,
			Minute:   row.Minute,
			Type:     matchdetail.CardType(row.CardType),
		})
	}

	var lineup []lineupTableModel
	if err := r.selectChildren(ctx, &lineup, "lineups", matchID, "ordinal"); err != nil {
		return matchdetail.Detail{}, false, err
	}
	for _, row := range lineup {
		detail.Lineup = append(detail.Lineup, matchdetail.LineupEntry{
			TeamID:      row.TeamID,
			PlayerID:    row.PlayerID.String,
			Player:      row.Player,
			Position:    row.Position,
			ShirtNumber: nullInt64ToIntPtr(row.ShirtNumber),
			Starter:     row.Starter,
			MinuteOn:    nullInt64ToIntPtr(row.MinuteOn),
			MinuteOff:   nullInt64ToIntPtr(row.MinuteOff),
		})
	}

	var playerStats []playerMatchStatTableModel
	if err := r.selectChildren(ctx, &playerStats, "player_match_stats", matchID, "player_id"); err != nil {
		return matchdetail.Detail{}, false, err
	}
	for _, row := range playerStats {
		detail.PlayerStats = append(detail.PlayerStats, matchdetail.PlayerMatchStat{
			PlayerID:      row.PlayerID,
			TeamID:        row.TeamID,
			Started:       row.Started,
			MinutesPlayed: row.MinutesPlayed,
			Goals:         row.Goals,
			Assists:       row.Assists,
			YellowCards:   row.YellowCards,
			RedCards:      row.RedCards,
		})
	}

	return detail, true, nil
}

func (r *MatchDetailRepository) selectChildren(ctx context.Context, dest any, table, matchID, orderBy string) error {
	query, args, err := qb.Select("*").From(table).
		Where(qb.Eq("match_id", matchID)).
		OrderBy(orderBy).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build select %s query: %w", table, err)
	}
	if err := r.q.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("select %s match=%s: %w", table, matchID, classify(err))
	}
	return nil
}

// Replace deletes every child row of the match and writes the given set.
// An empty detail leaves the match without children.
func (r *MatchDetailRepository) Replace(ctx context.Context, detail matchdetail.Detail) error {
	if err := detail.Validate(); err != nil {
		return err
	}
	for _, table := range childTables {
		query, args, err := qb.DeleteFrom(table).Where(qb.Eq("match_id", detail.MatchID)).ToSQL()
		if err != nil {
			return fmt.Errorf("build clear %s query: %w", table, err)
		}
		if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s match=%s: %w", table, detail.MatchID, classify(err))
		}
	}
	if detail.Empty() && len(detail.PlayerStats) == 0 {
		return nil
	}

	head := qb.InsertInto("match_details").
		Columns("match_id", "source").
		Values(detail.MatchID, detail.Source)
	if err := r.exec(ctx, "match_details", detail.MatchID, head); err != nil {
		return err
	}

	if detail.Home != nil || detail.Away != nil {
		stats := qb.InsertInto("match_team_statistics").Columns(
			"match_id", "side", "team_id", "possession", "shots", "shots_on_target",
			"corners", "fouls", "yellow_cards", "red_cards", "offsides",
		)
		for _, side := range []*matchdetail.TeamStatistics{detail.Home, detail.Away} {
			if side == nil {
				continue
			}
			stats.Values(
				detail.MatchID, string(side.Side), side.TeamID, side.Possession, side.Shots, side.ShotsOnTarget,
				side.Corners, side.Fouls, side.YellowCards, side.RedCards, side.Offsides,
			)
		}
		if err := r.exec(ctx, "match_team_statistics", detail.MatchID, stats); err != nil {
			return err
		}
	}

	if len(detail.Goals) > 0 {
		goals := qb.InsertInto("goals").Columns(
			"match_id", "ordinal", "team_id", "player_id", "scorer", "assist_id", "minute", "own_goal", "penalty",
		)
		for i, g := range detail.Goals {
			goals.Values(detail.MatchID, i, g.TeamID, nullableString(g.PlayerID), g.Scorer, nullableString(g.AssistID), g.Minute, g.OwnGoal, g.Penalty)
		}
		if err := r.exec(ctx, "goals", detail.MatchID, goals); err != nil {
			return err
		}
	}

	if len(detail.Cards) > 0 {
		cards := qb.InsertInto("cards").Columns(
			"match_id", "ordinal", "team_id", "player_id", "player", "minute", "card_type",
		)
		for i, c := range detail.Cards {
			cards.Values(detail.MatchID, i, c.TeamID, nullableString(c.PlayerID), c.Player, c.Minute, string(c.Type))
		}
		if err := r.exec(ctx, "cards", detail.MatchID, cards); err != nil {
			return err
		}
	}

	if len(detail.Lineup) > 0 {
		lineup := qb.InsertInto("lineups").Columns(
			"match_id", "ordinal", "team_id", "player_id", "player", "position",
			"shirt_number", "starter", "minute_on", "minute_off",
		)
		for i, l := range detail.Lineup {
			lineup.Values(
				detail.MatchID, i, l.TeamID, nullableString(l.PlayerID), l.Player, l.Position,
				l.ShirtNumber, l.Starter, l.MinuteOn, l.MinuteOff,
			)
		}
		if err := r.exec(ctx, "lineups", detail.MatchID, lineup); err != nil {
			return err
		}
	}

	if len(detail.PlayerStats) > 0 {
		playerStats := qb.InsertInto("player_match_stats").Columns(
			"match_id", "player_id", "team_id", "started", "minutes_played",
			"goals", "assists", "yellow_cards", "red_cards",
		)
		for _, s := range detail.PlayerStats {
			playerStats.Values(
				detail.MatchID, s.PlayerID, s.TeamID, s.Started, s.MinutesPlayed,
				s.Goals, s.Assists, s.YellowCards, s.RedCards,
			)
		}
		if err := r.exec(ctx, "player_match_stats", detail.MatchID, playerStats); err != nil {
			return err
		}
	}
	return nil
}

func (r *MatchDetailRepository) exec(ctx context.Context, table, matchID string, builder *qb.InsertBuilder) error {
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", table, err)
	}
	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s match=%s: %w", table, matchID, classify(err))
	}
	return nil
}

func teamStatisticsFromRow(row teamStatisticsTableModel) matchdetail.TeamStatistics {
	return matchdetail.TeamStatistics{
		TeamID:        row.TeamID,
		Side:          matchdetail.TeamSide(row.Side),
		Possession:    nullFloat64ToPtr(row.Possession),
		Shots:         nullInt64ToIntPtr(row.Shots),
		ShotsOnTarget: nullInt64ToIntPtr(row.ShotsOnTarget),
		Corners:       nullInt64ToIntPtr(row.Corners),
		Fouls:         nullInt64ToIntPtr(row.Fouls),
		YellowCards:   nullInt64ToIntPtr(row.YellowCards),
		RedCards:      nullInt64ToIntPtr(row.RedCards),
		Offsides:      nullInt64ToIntPtr(row.Offsides),
	}
}
