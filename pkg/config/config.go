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
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		MaxUploadBytes  int64         `yaml:"max_upload_bytes" default:"20971520"`
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
	Pricing struct {
		DefaultTargetMargin float64 `yaml:"default_target_margin" default:"0.3"`
		MinObservations     int     `yaml:"min_observations" default:"3"`
		Workers             int     `yaml:"workers" default:"4"`
		ExportDelimiter     string  `yaml:"export_delimiter" default:";"`
		DecimalComma        bool    `yaml:"decimal_comma" default:"true"`
		WindowSize          int     `yaml:"window_size" default:"60"`
	} `yaml:"pricing"`
	Session struct {
		Prefix string        `yaml:"prefix" default:"priceopt"`
		TTL    time.Duration `yaml:"ttl" default:"24h"`
	} `yaml:"session"`
	Chat struct {
		TTL        time.Duration `yaml:"ttl" default:"1h"`
		MaxHistory int           `yaml:"max_history" default:"200"`
	} `yaml:"chat"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Name       string        `yaml:"name" default:"enrichment"`
		Workers    int           `yaml:"workers" default:"2"`
		MaxRetries int           `yaml:"max_retries" default:"3"`
		RetryDelay time.Duration `yaml:"retry_delay" default:"5s"`
	} `yaml:"queue"`
	Kafka struct {
		Enabled              bool     `yaml:"enabled"`
		Brokers              []string `yaml:"brokers"`
		ObservationsTopic    string   `yaml:"observations_topic" default:"pricing.observations"`
		RecommendationsTopic string   `yaml:"recommendations_topic" default:"pricing.recommendations"`
		LogsTopic            string   `yaml:"logs_topic" default:"pricing.logs"`
		GroupID              string   `yaml:"group_id" default:"priceopt"`
		Consumer             struct {
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
		Producer struct {
			BatchSize    int           `yaml:"batch_size" default:"100"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			RequiredAcks int           `yaml:"required_acks" default:"-1"`
			Compression  string        `yaml:"compression" default:"snappy"`
		} `yaml:"producer"`
		MaxEventsPerSecond int `yaml:"max_events_per_second" default:"50"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"pricing"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		Table       string        `yaml:"table" default:"product_analyses"`
		UseHTTP     bool          `yaml:"use_http"`
		AsyncInsert bool          `yaml:"async_insert"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"30s"`
		BatchSize   int           `yaml:"batch_size" default:"500"`
	} `yaml:"clickhouse"`
	RateLimit struct {
		UploadCapacity int     `yaml:"upload_capacity" default:"10"`
		UploadRefill   float64 `yaml:"upload_refill_per_sec" default:"0.2"`
	} `yaml:"ratelimit"`
}

// Default returns a configuration with every default tag applied.
func Default() *Config {
	c := &Config{Environment: "development"}
	_ = defaults.Set(c)
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, fills defaults for omitted keys and validates.
func Parse(b []byte) (*Config, error) {
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
	c.ApplyEnv(os.Getenv)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from the environment lookup.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv("PRICEOPT_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("PRICEOPT_HTTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := getenv("PRICEOPT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if m := c.Pricing.DefaultTargetMargin; m < 0 || m > 1 {
		return fmt.Errorf("pricing.default_target_margin must be within [0,1], got %v", m)
	}
	if c.Pricing.MinObservations < 3 {
		return fmt.Errorf("pricing.min_observations must be >= 3")
	}
	if c.Pricing.Workers <= 0 {
		return fmt.Errorf("pricing.workers must be positive")
	}
	if len([]rune(c.Pricing.ExportDelimiter)) != 1 {
		return fmt.Errorf("pricing.export_delimiter must be a single character")
	}
	if c.Queue.Enabled && c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.workers must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
