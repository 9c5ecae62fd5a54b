package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"SigForge/pkg/util"
)

// Duration is a time.Duration that unmarshals from YAML duration strings
// ("10s", "1m30s") or bare integers (nanoseconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case int:
		*d = Duration(time.Duration(v))
	case int64:
		*d = Duration(time.Duration(v))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration value %v", raw)
	}
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) { return time.Duration(d).String(), nil }

// Std converts to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects where raw bars and alt events are read from.
// Derived feature/signal tables are always parquet files under DataDir.
type StorageConfig struct {
	Backend string `yaml:"backend"` // parquet or clickhouse
	DataDir string `yaml:"data_dir"`
}

type ClickHouseConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	Database     string   `yaml:"database"`
	User         string   `yaml:"user"`
	Password     string   `yaml:"password"`
	DialTimeout  Duration `yaml:"dial_timeout"`
	MaxOpenConns int      `yaml:"max_open_conns"`
	MaxIdleConns int      `yaml:"max_idle_conns"`
	Debug        bool     `yaml:"debug"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	JobsTopic    string   `yaml:"jobs_topic"`
	EventsTopic  string   `yaml:"events_topic"`
	GroupID      string   `yaml:"group_id"`
	Workers      int      `yaml:"workers"`
	RequiredAcks int      `yaml:"required_acks"`
	Compression  string   `yaml:"compression"`
	DLQTopic     string   `yaml:"dlq_topic"`
	RetryMax     int      `yaml:"retry_max"`
	BackoffMin   Duration `yaml:"backoff_min"`
	BackoffMax   Duration `yaml:"backoff_max"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	TTL        Duration `yaml:"ttl"`
	MaxEntries int      `yaml:"max_entries"`
}

type QueueConfig struct {
	Workers    int      `yaml:"workers"`
	RetryLimit int      `yaml:"retry_limit"`
	RetryDelay Duration `yaml:"retry_delay"`
	KeyPrefix  string   `yaml:"key_prefix"`
}

// FeaturesConfig carries every window the feature engine uses. Values are
// explicit so a run is fully described by its config, no process-wide state.
type FeaturesConfig struct {
	SMAWindow            int    `yaml:"sma_window"`
	EMASpan              int    `yaml:"ema_span"`
	RSIWindow            int    `yaml:"rsi_window"`
	MACDFast             int    `yaml:"macd_fast"`
	MACDSlow             int    `yaml:"macd_slow"`
	MACDSignal           int    `yaml:"macd_signal"`
	BollingerWindow      int    `yaml:"bollinger_window"`
	VolatilityWindow     int    `yaml:"volatility_window"`
	ZScoreWindow         int    `yaml:"zscore_window"`
	RSIZScore            bool   `yaml:"rsi_zscore"`
	SentimentGranularity string `yaml:"sentiment_granularity"` // 1d or 1h
	SentimentShortWindow int    `yaml:"sentiment_short_window"`
	SentimentLongWindow  int    `yaml:"sentiment_long_window"`
}

type WeightsConfig struct {
	Technical       float64 `yaml:"technical"`
	SentimentMean   float64 `yaml:"sentiment_mean"`
	SentimentReddit float64 `yaml:"sentiment_reddit"`
	SentimentNews   float64 `yaml:"sentiment_news"`
}

type ThresholdsConfig struct {
	Buy  float64 `yaml:"buy"`
	Sell float64 `yaml:"sell"`
}

type SignalsConfig struct {
	Weights    WeightsConfig    `yaml:"weights"`
	Thresholds ThresholdsConfig `yaml:"thresholds"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

type QualityConfig struct {
	AuditDir string `yaml:"audit_dir"`
}

type Config struct {
	Environment string           `yaml:"environment"`
	Server      ServerConfig     `yaml:"server"`
	Storage     StorageConfig    `yaml:"storage"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
	Redis       RedisConfig      `yaml:"redis"`
	Cache       CacheConfig      `yaml:"cache"`
	Queue       QueueConfig      `yaml:"queue"`
	Features    FeaturesConfig   `yaml:"features"`
	Signals     SignalsConfig    `yaml:"signals"`
	Logging     LoggingConfig    `yaml:"logging"`
	Quality     QualityConfig    `yaml:"quality"`
}

// Default returns the full default configuration. Load unmarshals YAML over
// this value, so absent keys keep their defaults and present keys override
// individually (zero is a legal override for weights and thresholds).
func Default() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:            8085,
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Storage: StorageConfig{
			Backend: "parquet",
			DataDir: "./data",
		},
		ClickHouse: ClickHouseConfig{
			Host:         "localhost",
			Port:         9000,
			Database:     "sigforge",
			User:         "default",
			DialTimeout:  Duration(5 * time.Second),
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Kafka: KafkaConfig{
			Brokers:     []string{"localhost:9092"},
			JobsTopic:   "sigforge.jobs",
			EventsTopic: "sigforge.signal-runs",
			GroupID:     "sigforge",
			Workers:     4,
			RetryMax:    3,
			BackoffMin:  Duration(200 * time.Millisecond),
			BackoffMax:  Duration(5 * time.Second),
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Cache: CacheConfig{
			TTL:        Duration(time.Minute),
			MaxEntries: 4096,
		},
		Queue: QueueConfig{
			Workers:    4,
			RetryLimit: 3,
			RetryDelay: Duration(10 * time.Second),
			KeyPrefix:  "sigforge:queue",
		},
		Features: FeaturesConfig{
			SMAWindow:            20,
			EMASpan:              12,
			RSIWindow:            14,
			MACDFast:             12,
			MACDSlow:             26,
			MACDSignal:           9,
			BollingerWindow:      20,
			VolatilityWindow:     20,
			ZScoreWindow:         20,
			SentimentGranularity: "1d",
			SentimentShortWindow: 1,
			SentimentLongWindow:  5,
		},
		Signals: SignalsConfig{
			Weights: WeightsConfig{
				Technical:       0.4,
				SentimentMean:   0.3,
				SentimentReddit: 0.15,
				SentimentNews:   0.15,
			},
			Thresholds: ThresholdsConfig{
				Buy:  0.5,
				Sell: -0.5,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		Quality: QualityConfig{
			AuditDir: "./data/audit",
		},
	}
}

// Load reads a YAML configuration file over the defaults. An empty path
// yields the defaults unchanged.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SIGFORGE_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PORT"); v != "" {
		c.ClickHouse.Port = util.ParseIntDefault(v, c.ClickHouse.Port)
	}
	if v := os.Getenv("CLICKHOUSE_DB"); v != "" {
		c.ClickHouse.Database = v
	}
	if v := os.Getenv("CLICKHOUSE_USER"); v != "" {
		c.ClickHouse.User = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		c.Kafka.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitCSV(v)
	}
	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		c.Redis.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SIGNALS_BUY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Signals.Thresholds.Buy = f
		}
	}
	if v := os.Getenv("SIGNALS_SELL_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Signals.Thresholds.Sell = f
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Storage.Backend != "parquet" && c.Storage.Backend != "clickhouse" {
		return fmt.Errorf("storage.backend must be 'parquet' or 'clickhouse', got '%s'", c.Storage.Backend)
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Signals.Thresholds.Buy <= c.Signals.Thresholds.Sell {
		return fmt.Errorf("signals.thresholds.buy (%v) must exceed sell (%v)",
			c.Signals.Thresholds.Buy, c.Signals.Thresholds.Sell)
	}
	for name, w := range map[string]int{
		"sma_window":        c.Features.SMAWindow,
		"ema_span":          c.Features.EMASpan,
		"rsi_window":        c.Features.RSIWindow,
		"macd_fast":         c.Features.MACDFast,
		"macd_slow":         c.Features.MACDSlow,
		"macd_signal":       c.Features.MACDSignal,
		"bollinger_window":  c.Features.BollingerWindow,
		"volatility_window": c.Features.VolatilityWindow,
		"zscore_window":     c.Features.ZScoreWindow,
		"sentiment_short":   c.Features.SentimentShortWindow,
		"sentiment_long":    c.Features.SentimentLongWindow,
	} {
		if w < 1 {
			return fmt.Errorf("features.%s must be >= 1", name)
		}
	}
	if g := c.Features.SentimentGranularity; g != "1d" && g != "1h" {
		return fmt.Errorf("features.sentiment_granularity must be '1d' or '1h', got '%s'", g)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}
