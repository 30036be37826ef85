package ratelimit

import (
	"testing"
	"time"
)

func TestAllowFirstSignal(t *testing.T) {
	l := New()
	if !l.Allow("BTCUSDT", 30*time.Minute) {
		t.Fatalf("expected unseen symbol to be allowed")
	}
}

func TestGapEnforcedPerSymbol(t *testing.T) {
	l := New()
	base := time.Now()
	now := base
	l.SetClock(func() time.Time { return now })

	l.Mark("BTCUSDT")

	now = base.Add(10 * time.Minute)
	if l.Allow("BTCUSDT", 30*time.Minute) {
		t.Fatalf("expected rejection inside the gap")
	}
	if !l.Allow("ETHUSDT", 30*time.Minute) {
		t.Fatalf("other symbols must be unaffected")
	}

	now = base.Add(30 * time.Minute)
	if !l.Allow("BTCUSDT", 30*time.Minute) {
		t.Fatalf("expected allowance once the gap elapsed")
	}
}

func TestMarkResetsWindow(t *testing.T) {
	l := New()
	base := time.Now()
	now := base
	l.SetClock(func() time.Time { return now })

	l.Mark("BTCUSDT")
	now = base.Add(30 * time.Minute)
	l.Mark("BTCUSDT")

	now = base.Add(45 * time.Minute)
	if l.Allow("BTCUSDT", 30*time.Minute) {
		t.Fatalf("second mark must restart the window")
	}
}
