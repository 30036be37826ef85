package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/adityamasineedi/mcpcrypto-sub001/pkg/config"
)

// Settings holds the runtime-tunable subset of trading configuration.
// Updates are restricted to the allow-listed keys below; everything else
// stays fixed for the process lifetime.
type Settings struct {
	mu              sync.RWMutex
	manualApproval  bool
	approvalTimeout time.Duration
	minConfidence   float64
	signalGap       time.Duration
	maxPending      int
}

// Allow-listed settings keys accepted by Apply.
const (
	KeyManualApproval     = "manual_approval"
	KeyApprovalTimeoutMin = "approval_timeout_minutes"
	KeyMinConfidence      = "min_confidence"
	KeySignalGapMin       = "signal_gap_minutes"
	KeyMaxPending         = "max_pending"
)

func NewSettings(cfg *config.Config) *Settings {
	return &Settings{
		manualApproval:  cfg.Approval.ManualEnabled,
		approvalTimeout: cfg.Approval.Timeout,
		minConfidence:   cfg.Trading.MinConfidence,
		signalGap:       cfg.Trading.SignalGap,
		maxPending:      cfg.Approval.MaxPending,
	}
}

func (s *Settings) ManualApproval() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manualApproval
}

func (s *Settings) ApprovalTimeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.approvalTimeout
}

func (s *Settings) MinConfidence() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.minConfidence
}

func (s *Settings) SignalGap() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signalGap
}

func (s *Settings) MaxPending() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxPending
}

// Apply validates and applies a partial update. It returns the map of
// applied key/values. Any key outside the allow-list rejects the whole
// update; nothing is applied partially.
func (s *Settings) Apply(partial map[string]any) (map[string]any, error) {
	if len(partial) == 0 {
		return nil, fmt.Errorf("no settings provided")
	}

	type change func()
	changes := make([]change, 0, len(partial))
	applied := make(map[string]any, len(partial))

	for key, raw := range partial {
		switch key {
		case KeyManualApproval:
			v, ok := raw.(bool)
			if !ok {
				return nil, fmt.Errorf("%s: expected bool, got %T", key, raw)
			}
			changes = append(changes, func() { s.manualApproval = v })
			applied[key] = v
		case KeyApprovalTimeoutMin:
			mins, err := toMinutes(key, raw)
			if err != nil {
				return nil, err
			}
			d := time.Duration(mins * float64(time.Minute))
			changes = append(changes, func() { s.approvalTimeout = d })
			applied[key] = mins
		case KeyMinConfidence:
			v, err := toNumber(key, raw)
			if err != nil {
				return nil, err
			}
			if v < 0 || v > 100 {
				return nil, fmt.Errorf("%s: must be within 0-100", key)
			}
			changes = append(changes, func() { s.minConfidence = v })
			applied[key] = v
		case KeySignalGapMin:
			mins, err := toMinutes(key, raw)
			if err != nil {
				return nil, err
			}
			d := time.Duration(mins * float64(time.Minute))
			changes = append(changes, func() { s.signalGap = d })
			applied[key] = mins
		case KeyMaxPending:
			v, err := toNumber(key, raw)
			if err != nil {
				return nil, err
			}
			if v < 0 {
				return nil, fmt.Errorf("%s: must be non-negative", key)
			}
			n := int(v)
			changes = append(changes, func() { s.maxPending = n })
			applied[key] = n
		default:
			return nil, fmt.Errorf("setting %q is not updatable", key)
		}
	}

	s.mu.Lock()
	for _, apply := range changes {
		apply()
	}
	s.mu.Unlock()

	return applied, nil
}

func toNumber(key string, raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s: expected number, got %T", key, raw)
	}
}

func toMinutes(key string, raw any) (float64, error) {
	v, err := toNumber(key, raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return v, nil
}
