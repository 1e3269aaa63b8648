package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"MacroPulse/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		CORS            bool          `yaml:"cors"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Backend struct {
		Type         string        `yaml:"type"` // quote fan-out: "kafka" or "clickhouse"
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topics  struct {
			Observations string `yaml:"observations"`
			Quotes       string `yaml:"quotes"`
			Alerts       string `yaml:"alerts"`
			Logs         string `yaml:"logs"`
		} `yaml:"topics"`
		RequiredAcks int    `yaml:"required_acks"`
		Compression  string `yaml:"compression"`
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
			GroupID         string        `yaml:"group_id"`
			AutoOffsetReset string        `yaml:"auto_offset_reset"`
			Workers         int           `yaml:"workers"`
			BufferSize      int           `yaml:"buffer_size"`
			RetryMax        int           `yaml:"retry_max"`
			BackoffMin      time.Duration `yaml:"backoff_min"`
			BackoffMax      time.Duration `yaml:"backoff_max"`
			DLQTopic        string        `yaml:"dlq_topic"`
			MinBytes        int           `yaml:"min_bytes"`
			MaxBytes        int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		MaxOpenConns     int           `yaml:"max_open_conns"`
		MaxIdleConns     int           `yaml:"max_idle_conns"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	MarketFeed struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"market_feed"`
	Scoring struct {
		Composite struct {
			Weights       map[string]float64 `yaml:"weights"`
			BuyThreshold  float64            `yaml:"buy_threshold"`
			SellThreshold float64            `yaml:"sell_threshold"`
		} `yaml:"composite"`
		HistoryWindow        int `yaml:"history_window"` // default confidence/context window
		MarketBars           int `yaml:"market_bars"`    // default bar depth for the composite signal
		DashboardParallelism int `yaml:"dashboard_parallelism"`
		CacheTTL             struct {
			Scorecard time.Duration `yaml:"scorecard"`
			Dashboard time.Duration `yaml:"dashboard"`
			Market    time.Duration `yaml:"market"`
		} `yaml:"cache_ttl"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Refresh struct {
			Queue   string `yaml:"queue"`
			Workers int    `yaml:"workers"`
		} `yaml:"refresh"`
	} `yaml:"scoring"`
	Alerts struct {
		Enabled    bool   `yaml:"enabled"`
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"alerts"`
	Logging struct {
		Collector struct {
			Enabled        bool          `yaml:"enabled"`
			TimeInterval   time.Duration `yaml:"time_interval"`
			CountThreshold int           `yaml:"count_threshold"`
		} `yaml:"collector"`
	} `yaml:"logging"`
	Indicators []IndicatorConfig `yaml:"indicators"`
}

// IndicatorConfig overrides or extends one catalog entry.
type IndicatorConfig struct {
	SeriesID       string  `yaml:"series_id"`
	DisplayName    string  `yaml:"display_name"`
	Type           string  `yaml:"type"`
	Category       string  `yaml:"category"`
	Family         string  `yaml:"family"`
	Unit           string  `yaml:"unit"`
	Frequency      string  `yaml:"frequency"`
	Directionality string  `yaml:"directionality"`
	Forecast       float64 `yaml:"forecast"`
	HasForecast    bool    `yaml:"has_forecast"`
	PriorOffset    int     `yaml:"prior_offset"`
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

	// Validate required fields
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

	// Override with environment variables
	c.Server.Port = util.ParseIntDefault(os.Getenv("SERVER_PORT"), c.Server.Port)
	if v := os.Getenv("MARKET_FEED_API_KEY"); v != "" {
		c.MarketFeed.APIKey = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.MarketFeed.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_OBSERVATIONS_TOPIC"); v != "" {
		c.Kafka.Topics.Observations = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Scoring.Redis.Addr = v
	}
	c.Scoring.Refresh.Workers = util.ParseIntDefault(os.Getenv("REFRESH_WORKERS"), c.Scoring.Refresh.Workers)
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		c.Alerts.WebhookURL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	if c.MarketFeed.Enabled {
		if len(c.MarketFeed.Symbols) == 0 {
			return fmt.Errorf("market_feed.symbols cannot be empty")
		}
		if c.MarketFeed.APIKey == "" {
			return fmt.Errorf("market_feed.api_key is required")
		}
	}
	if len(c.Scoring.Composite.Weights) > 0 {
		var sum float64
		for name, w := range c.Scoring.Composite.Weights {
			if w < 0 {
				return fmt.Errorf("scoring.composite.weights.%s is negative", name)
			}
			sum += w
		}
		if math.Abs(sum-1.0) > 1e-9 {
			return fmt.Errorf("scoring.composite.weights must sum to 1.0, got %.4f", sum)
		}
	}
	return nil
}
