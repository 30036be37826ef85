package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		EventsTopic  string   `yaml:"events_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Telegram struct {
		Enabled      bool          `yaml:"enabled"`
		BotToken     string        `yaml:"bot_token"`
		ChatID       string        `yaml:"chat_id"`
		APIURL       string        `yaml:"api_url"`
		PollInterval time.Duration `yaml:"poll_interval"`
		PollTimeout  time.Duration `yaml:"poll_timeout"`
		QueueWorkers int           `yaml:"queue_workers"`
		RetryLimit   int           `yaml:"retry_limit"`
		RetryDelay   time.Duration `yaml:"retry_delay"`
	} `yaml:"telegram"`
	Market struct {
		ServiceURL         string        `yaml:"service_url"`
		Timeout            time.Duration `yaml:"timeout"`
		Symbols            []string      `yaml:"symbols"`
		Timeframe          string        `yaml:"timeframe"`
		AssessmentCacheTTL time.Duration `yaml:"assessment_cache_ttl"`
		Stream             struct {
			Enabled        bool          `yaml:"enabled"`
			WebSocketURL   string        `yaml:"websocket_url"`
			APIKey         string        `yaml:"api_key"`
			ReconnectDelay time.Duration `yaml:"reconnect_delay"`
			PingInterval   time.Duration `yaml:"ping_interval"`
		} `yaml:"stream"`
	} `yaml:"market"`
	Trading struct {
		TotalCapital        float64       `yaml:"total_capital"`
		RiskPerTradePct     float64       `yaml:"risk_per_trade_pct"`
		MinTradeAmount      float64       `yaml:"min_trade_amount"`
		MaxTradeAmount      float64       `yaml:"max_trade_amount"`
		StopLossPct         float64       `yaml:"stop_loss_pct"`
		TakeProfitPct       float64       `yaml:"take_profit_pct"`
		MinConfidence       float64       `yaml:"min_confidence"`
		MinRiskReward       float64       `yaml:"min_risk_reward"`
		CounterTrendMinConf float64       `yaml:"counter_trend_min_confidence"`
		SignalGap           time.Duration `yaml:"signal_gap"`
		ScanInterval        time.Duration `yaml:"scan_interval"`
	} `yaml:"trading"`
	Approval struct {
		ManualEnabled bool          `yaml:"manual_enabled"`
		Timeout       time.Duration `yaml:"timeout"`
		MaxPending    int           `yaml:"max_pending"`
	} `yaml:"approval"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Market.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("MARKET_SERVICE_URL"); v != "" {
		c.Market.ServiceURL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Approval.Timeout <= 0 {
		c.Approval.Timeout = 15 * time.Minute
	}
	if c.Trading.MinRiskReward <= 0 {
		c.Trading.MinRiskReward = 1.5
	}
	if c.Trading.CounterTrendMinConf <= 0 {
		c.Trading.CounterTrendMinConf = 75
	}
	if c.Trading.SignalGap <= 0 {
		c.Trading.SignalGap = 30 * time.Minute
	}
	if c.Trading.ScanInterval <= 0 {
		c.Trading.ScanInterval = 5 * time.Minute
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = 25 * time.Second
	}
	if c.Market.Timeframe == "" {
		c.Market.Timeframe = "1h"
	}
	if c.Market.AssessmentCacheTTL <= 0 {
		c.Market.AssessmentCacheTTL = 10 * time.Minute
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Market.Symbols) == 0 {
		return fmt.Errorf("market.symbols cannot be empty")
	}
	if c.Market.ServiceURL == "" {
		return fmt.Errorf("market.service_url is required")
	}
	if c.Trading.TotalCapital <= 0 {
		return fmt.Errorf("trading.total_capital must be positive")
	}
	if c.Trading.MaxTradeAmount < c.Trading.MinTradeAmount {
		return fmt.Errorf("trading.max_trade_amount must be >= min_trade_amount")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
