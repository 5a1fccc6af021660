package standing

import "testing"

func TestStanding_Validate(t *testing.T) {
	valid := Standing{
		CompetitionCode: "championship",
		SeasonName:      "2023/24",
		TeamID:          "team-1",
		Position:        2,
		Played:          46,
		Won:             28,
		Drawn:           12,
		Lost:            6,
		GoalsFor:        92,
		GoalsAgainst:    57,
		Points:          96,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if valid.GoalDifference() != 35 {
		t.Fatalf("unexpected goal difference %d", valid.GoalDifference())
	}

	broken := valid
	broken.Won = 40
	if err := broken.Validate(); err == nil {
		t.Fatalf("expected error when results exceed played")
	}

	broken = valid
	broken.Position = 0
	if err := broken.Validate(); err == nil {
		t.Fatalf("expected error for zero position")
	}
}
