package externalid

import "testing"

func TestMapping_Validate(t *testing.T) {
	valid := Mapping{EntityType: EntityTeam, Source: "thesportsdb", ProviderID: "133617", InternalID: "ips01"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := valid
	bad.EntityType = "stadium"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown entity type")
	}

	bad = valid
	bad.ProviderID = ""
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for empty provider id")
	}
}
