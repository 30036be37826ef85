package usecase

import (
	"testing"
	"time"
)

func TestSettingsApplyUpdates(t *testing.T) {
	s := NewSettings(testConfig(nil))

	applied, err := s.Apply(map[string]any{
		KeyManualApproval:     false,
		KeyApprovalTimeoutMin: 5,
		KeyMinConfidence:      72.5,
		KeySignalGapMin:       10,
		KeyMaxPending:         3,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(applied) != 5 {
		t.Fatalf("expected 5 applied keys, got %d", len(applied))
	}

	if s.ManualApproval() {
		t.Fatalf("expected manual approval off")
	}
	if s.ApprovalTimeout() != 5*time.Minute {
		t.Fatalf("expected 5m timeout, got %s", s.ApprovalTimeout())
	}
	if s.MinConfidence() != 72.5 {
		t.Fatalf("expected min confidence 72.5, got %f", s.MinConfidence())
	}
	if s.SignalGap() != 10*time.Minute {
		t.Fatalf("expected 10m gap, got %s", s.SignalGap())
	}
	if s.MaxPending() != 3 {
		t.Fatalf("expected max pending 3, got %d", s.MaxPending())
	}
}

func TestSettingsApplyUnknownKeyRejectsAll(t *testing.T) {
	s := NewSettings(testConfig(nil))
	before := s.MinConfidence()

	_, err := s.Apply(map[string]any{
		KeyMinConfidence: 80.0,
		"total_capital":  50000,
	})
	if err == nil {
		t.Fatalf("expected error for non-updatable key")
	}
	if s.MinConfidence() != before {
		t.Fatalf("partial update leaked through")
	}
}

func TestSettingsApplyValidation(t *testing.T) {
	s := NewSettings(testConfig(nil))

	cases := []map[string]any{
		{},
		{KeyMinConfidence: 150.0},
		{KeyMinConfidence: -1.0},
		{KeyMinConfidence: "high"},
		{KeyApprovalTimeoutMin: 0},
		{KeyApprovalTimeoutMin: -5},
		{KeySignalGapMin: 0},
		{KeyManualApproval: "yes"},
		{KeyMaxPending: -1},
	}
	for i, partial := range cases {
		if _, err := s.Apply(partial); err == nil {
			t.Fatalf("case %d: expected error for %v", i, partial)
		}
	}
}

func TestSettingsApplyIntAndFloat(t *testing.T) {
	s := NewSettings(testConfig(nil))

	// JSON-decoded payloads arrive as float64; direct callers may pass int.
	if _, err := s.Apply(map[string]any{KeyMinConfidence: float64(65)}); err != nil {
		t.Fatalf("float64: %v", err)
	}
	if _, err := s.Apply(map[string]any{KeyMaxPending: int64(7)}); err != nil {
		t.Fatalf("int64: %v", err)
	}
	if s.MaxPending() != 7 {
		t.Fatalf("expected max pending 7, got %d", s.MaxPending())
	}
}
