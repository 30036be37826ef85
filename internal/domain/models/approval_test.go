package models

import "testing"

func TestBulkCriteriaMatches(t *testing.T) {
	sig := &Signal{
		Symbol:          "BTCUSDT",
		Direction:       DirectionLong,
		FinalConfidence: 75,
		RiskTier:        RiskMedium,
	}

	if !(BulkCriteria{}).Matches(sig) {
		t.Fatalf("zero criteria must match everything")
	}
	if !(BulkCriteria{MinConfidence: 70}).Matches(sig) {
		t.Fatalf("expected confidence 75 to clear floor 70")
	}
	if (BulkCriteria{MinConfidence: 80}).Matches(sig) {
		t.Fatalf("expected confidence 75 to miss floor 80")
	}
	if !(BulkCriteria{Directions: []Direction{DirectionLong, DirectionShort}}).Matches(sig) {
		t.Fatalf("expected direction filter to match")
	}
	if (BulkCriteria{Directions: []Direction{DirectionShort}}).Matches(sig) {
		t.Fatalf("expected direction filter to reject")
	}
	if (BulkCriteria{RiskTiers: []RiskTier{RiskLow}}).Matches(sig) {
		t.Fatalf("expected tier filter to reject")
	}
	if (BulkCriteria{MinConfidence: 70, Directions: []Direction{DirectionLong}, RiskTiers: []RiskTier{RiskMedium}}).Matches(sig) == false {
		t.Fatalf("expected combined criteria to match")
	}
	if (BulkCriteria{}).Matches(nil) {
		t.Fatalf("nil signal never matches")
	}
}
