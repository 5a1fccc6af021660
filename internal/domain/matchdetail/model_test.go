package matchdetail

import "testing"

func intPtr(v int) *int { return &v }

func TestDerivePlayerStats(t *testing.T) {
	d := Detail{
		MatchID: "m1",
		Lineup: []LineupEntry{
			{TeamID: "t1", PlayerID: "p1", Starter: true, MinuteOff: intPtr(70)},
			{TeamID: "t1", PlayerID: "p2", Starter: false, MinuteOn: intPtr(70)},
			{TeamID: "t1", PlayerID: "p3", Starter: false},
			{TeamID: "t1", Player: "Unknown", Starter: true},
		},
		Goals: []Goal{
			{TeamID: "t1", PlayerID: "p1", AssistID: "p2", Minute: 12},
			{TeamID: "t1", PlayerID: "p2", Minute: 80},
			{TeamID: "t1", PlayerID: "p9", Minute: 85, OwnGoal: true},
		},
		Cards: []Card{
			{TeamID: "t1", PlayerID: "p1", Minute: 30, Type: CardYellow},
			{TeamID: "t1", PlayerID: "p2", Minute: 88, Type: CardSecondYellow},
		},
	}

	stats := DerivePlayerStats(d)
	byID := make(map[string]PlayerMatchStat, len(stats))
	for _, s := range stats {
		byID[s.PlayerID] = s
	}

	p1 := byID["p1"]
	if !p1.Started || p1.MinutesPlayed != 70 || p1.Goals != 1 || p1.YellowCards != 1 {
		t.Fatalf("unexpected p1 stats: %+v", p1)
	}
	p2 := byID["p2"]
	if p2.Started || p2.MinutesPlayed != 20 || p2.Goals != 1 || p2.Assists != 1 || p2.RedCards != 1 {
		t.Fatalf("unexpected p2 stats: %+v", p2)
	}
	if p3, ok := byID["p3"]; !ok || p3.MinutesPlayed != 0 {
		t.Fatalf("unused substitute should have a zero-minute row, got %+v ok=%t", p3, ok)
	}
	if p9 := byID["p9"]; p9.Goals != 0 {
		t.Fatalf("own goal must not be credited, got %+v", p9)
	}
}

func TestTeamStatistics_Validate(t *testing.T) {
	if err := (TeamStatistics{YellowCards: intPtr(11)}).Validate(); err == nil {
		t.Fatalf("expected error for yellow cards above bound")
	}
	if err := (TeamStatistics{RedCards: intPtr(10)}).Validate(); err != nil {
		t.Fatalf("ten red cards is within bound: %v", err)
	}
	possession := 101.0
	if err := (TeamStatistics{Possession: &possession}).Validate(); err == nil {
		t.Fatalf("expected error for possession above 100")
	}
}
