package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Bybit struct {
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://stream.bybit.com/v5/public/linear"`
		RestURL        string        `yaml:"rest_url" default:"https://api.bybit.com"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"20s"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		MaxReconnects  int           `yaml:"max_reconnects" default:"10"`
	} `yaml:"bybit"`
	Analysis struct {
		Interval       time.Duration `yaml:"interval" default:"30s"`
		MinSamples     int           `yaml:"min_samples" default:"100"`
		BufferCapacity int           `yaml:"buffer_capacity" default:"1000"`
		MaxTicksPerSec int           `yaml:"max_ticks_per_sec" default:"4"`
		MinVolumeUSD   float64       `yaml:"min_volume_usd" default:"1000000"`
		BuyThreshold   float64       `yaml:"buy_threshold" default:"60"`
		SellThreshold  float64       `yaml:"sell_threshold" default:"40"`
		MLThreshold    float64       `yaml:"ml_threshold" default:"70"`
		Workers        int           `yaml:"workers" default:"8"`
		QueueSize      int           `yaml:"queue_size" default:"256"`
	} `yaml:"analysis"`
	ML struct {
		Enabled  bool          `yaml:"enabled" default:"false"`
		URL      string        `yaml:"url"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"60s"`
	} `yaml:"ml"`
	Kafka struct {
		Enabled     bool     `yaml:"enabled" default:"true"`
		Brokers     []string `yaml:"brokers"`
		TopicPrefix string   `yaml:"topic_prefix" default:"opportunities"`
		AlertTopic  string   `yaml:"alert_topic" default:"opportunities.alert.strong"`
		Compression string   `yaml:"compression" default:"snappy"`
		Producer    struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async" default:"true"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"oppradar"`
		Table            string        `yaml:"table" default:"oppradar.opportunities"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert" default:"true"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

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

	if v := os.Getenv("BYBIT_WS_URL"); v != "" {
		c.Bybit.WebSocketURL = v
	}
	if v := os.Getenv("BYBIT_REST_URL"); v != "" {
		c.Bybit.RestURL = v
	}
	if v := os.Getenv("ML_SERVICE_URL"); v != "" {
		c.ML.URL = v
		c.ML.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("ANALYSIS_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse ANALYSIS_INTERVAL: %w", err)
		}
		c.Analysis.Interval = d
	}
	if v := os.Getenv("ANALYSIS_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse ANALYSIS_WORKERS: %w", err)
		}
		c.Analysis.Workers = n
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Bybit.WebSocketURL == "" {
		return fmt.Errorf("bybit.websocket_url is required")
	}
	if c.Bybit.RestURL == "" {
		return fmt.Errorf("bybit.rest_url is required")
	}
	if c.Analysis.Interval <= 0 {
		return fmt.Errorf("analysis.interval must be positive")
	}
	if c.Analysis.BufferCapacity <= 0 {
		return fmt.Errorf("analysis.buffer_capacity must be positive")
	}
	if c.Analysis.BuyThreshold <= c.Analysis.SellThreshold {
		return fmt.Errorf("analysis.buy_threshold must exceed analysis.sell_threshold")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ML.Enabled && c.ML.URL == "" {
		return fmt.Errorf("ml.url is required when ml is enabled")
	}
	return nil
}
