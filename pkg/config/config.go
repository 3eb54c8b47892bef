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
	Environment string `yaml:"environment" default:"dev"`
	Logging     struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	MassData struct {
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		Timeout      time.Duration `yaml:"timeout" default:"30s"`
		FetchWorkers int           `yaml:"fetch_workers" default:"4"`
		Retries      int           `yaml:"retries" default:"2"`
		RateLimitRPS float64       `yaml:"rate_limit_rps" default:"5"`
	} `yaml:"massdata"`
	Compute struct {
		Workers int `yaml:"workers" default:"8"`
	} `yaml:"compute"`
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		TTL     time.Duration `yaml:"ttl" default:"24h"`
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Sink struct {
		Type       string `yaml:"type" default:"none"` // none, clickhouse, kafka
		ClickHouse struct {
			Host         string        `yaml:"host"`
			Port         int           `yaml:"port" default:"9000"`
			Database     string        `yaml:"database" default:"barscan"`
			Table        string        `yaml:"table" default:"signals"`
			User         string        `yaml:"user" default:"default"`
			Password     string        `yaml:"password"`
			DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"clickhouse"`
		Kafka struct {
			Brokers      []string      `yaml:"brokers"`
			Topic        string        `yaml:"topic" default:"barscan.signals"`
			Compression  string        `yaml:"compression" default:"gzip"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"kafka"`
	} `yaml:"sink"`
	Scan struct {
		Exchange string                 `yaml:"exchange" default:"XNYS"`
		Pattern  string                 `yaml:"pattern" default:"expansion_breakout"`
		Params   map[string]interface{} `yaml:"params"`
	} `yaml:"scan"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
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

	// Override with environment variables
	if v := os.Getenv("MASSDATA_API_KEY"); v != "" {
		c.MassData.APIKey = v
	}
	if v := os.Getenv("MASSDATA_BASE_URL"); v != "" {
		c.MassData.BaseURL = v
	}
	if v := os.Getenv("SINK"); v != "" {
		c.Sink.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Sink.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Cache.Redis.Host = v
	}
	if v := os.Getenv("FETCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MassData.FetchWorkers = n
		}
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Sink.Type {
	case "none", "clickhouse", "kafka":
	default:
		return fmt.Errorf("sink.type must be 'none', 'clickhouse' or 'kafka', got '%s'", c.Sink.Type)
	}
	if c.Sink.Type == "clickhouse" && c.Sink.ClickHouse.Host == "" {
		return fmt.Errorf("sink.clickhouse.host is required")
	}
	if c.Sink.Type == "kafka" && len(c.Sink.Kafka.Brokers) == 0 {
		return fmt.Errorf("sink.kafka.brokers cannot be empty")
	}
	if c.MassData.FetchWorkers <= 0 {
		return fmt.Errorf("massdata.fetch_workers must be positive")
	}
	if c.Compute.Workers <= 0 {
		return fmt.Errorf("compute.workers must be positive")
	}
	return nil
}
