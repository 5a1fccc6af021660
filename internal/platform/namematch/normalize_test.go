package namematch

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "Ipswich Town", want: "ipswich town"},
		{in: "  IPSWICH   town ", want: "ipswich town"},
		{in: "Kieffer Moore", want: "kieffer moore"},
		{in: "Sébastien Bassong", want: "sebastien bassong"},
		{in: "Björn Engels", want: "bjorn engels"},
		{in: "J. Smith", want: "j smith"},
		{in: "Wolverhampton Wanderers", want: "wolverhampton wanderers"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTeam_DropsClubAffixes(t *testing.T) {
	t.Parallel()

	if got := NormalizeTeam("Ipswich Town FC"); got != "ipswich town" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := NormalizeTeam("AFC Bournemouth"); got != "bournemouth" {
		t.Fatalf("unexpected key: %q", got)
	}
	if got := NormalizeTeam("FC"); got != "fc" {
		t.Fatalf("expected affix kept when it is the whole name, got %q", got)
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	if !Equal("Éderson", "ederson") {
		t.Fatalf("expected diacritic-insensitive match")
	}
	if Equal("Smith", "J. Smith") {
		t.Fatalf("substring must not match")
	}
	if Equal("", " ") {
		t.Fatalf("empty names must never match")
	}
}
