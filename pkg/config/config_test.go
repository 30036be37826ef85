package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
market:
  service_url: http://localhost:9100
  symbols: [BTCUSDT, ETHUSDT]
trading:
  total_capital: 10000
  min_trade_amount: 50
  max_trade_amount: 500
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Approval.Timeout != 15*time.Minute {
		t.Fatalf("expected default approval timeout 15m, got %s", cfg.Approval.Timeout)
	}
	if cfg.Trading.MinRiskReward != 1.5 {
		t.Fatalf("expected default min RR 1.5, got %f", cfg.Trading.MinRiskReward)
	}
	if cfg.Trading.CounterTrendMinConf != 75 {
		t.Fatalf("expected default counter-trend floor 75, got %f", cfg.Trading.CounterTrendMinConf)
	}
	if cfg.Trading.SignalGap != 30*time.Minute {
		t.Fatalf("expected default signal gap 30m, got %s", cfg.Trading.SignalGap)
	}
	if cfg.Trading.ScanInterval != 5*time.Minute {
		t.Fatalf("expected default scan interval 5m, got %s", cfg.Trading.ScanInterval)
	}
	if cfg.Market.Timeframe != "1h" {
		t.Fatalf("expected default timeframe 1h, got %s", cfg.Market.Timeframe)
	}
	if cfg.Telegram.APIURL != "https://api.telegram.org" {
		t.Fatalf("unexpected telegram api url %s", cfg.Telegram.APIURL)
	}
}

func TestLoadParsesValues(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
approval:
  manual_enabled: true
  timeout: 20m
  max_pending: 5
kafka:
  enabled: true
  brokers: [localhost:9092]
  events_topic: signal-events
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Approval.ManualEnabled || cfg.Approval.Timeout != 20*time.Minute || cfg.Approval.MaxPending != 5 {
		t.Fatalf("approval block not parsed: %+v", cfg.Approval)
	}
	if !cfg.Kafka.Enabled || cfg.Kafka.EventsTopic != "signal-events" {
		t.Fatalf("kafka block not parsed: %+v", cfg.Kafka)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing environment", `
market:
  service_url: http://localhost:9100
  symbols: [BTCUSDT]
trading:
  total_capital: 10000
`},
		{"no symbols", `
environment: test
market:
  service_url: http://localhost:9100
trading:
  total_capital: 10000
`},
		{"no service url", `
environment: test
market:
  symbols: [BTCUSDT]
trading:
  total_capital: 10000
`},
		{"zero capital", `
environment: test
market:
  service_url: http://localhost:9100
  symbols: [BTCUSDT]
`},
		{"max below min trade", `
environment: test
market:
  service_url: http://localhost:9100
  symbols: [BTCUSDT]
trading:
  total_capital: 10000
  min_trade_amount: 500
  max_trade_amount: 50
`},
		{"telegram without token", minimalYAML + `
telegram:
  enabled: true
`},
		{"kafka without brokers", minimalYAML + `
kafka:
  enabled: true
`},
	}

	for _, tc := range cases {
		if _, err := Load(writeConfig(t, tc.body)); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOLS", "SOLUSDT,ADAUSDT")
	t.Setenv("MARKET_SERVICE_URL", "http://market:9100")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Market.Symbols) != 2 || cfg.Market.Symbols[0] != "SOLUSDT" {
		t.Fatalf("env symbols not applied: %v", cfg.Market.Symbols)
	}
	if cfg.Market.ServiceURL != "http://market:9100" {
		t.Fatalf("env service url not applied: %s", cfg.Market.ServiceURL)
	}
}
