package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"NightScan/internal/domain/models"
)

// Modes accepted by the -mode flag.
const (
	ModeTest = "test"
	ModeFull = "full"
)

type LoggingConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=json console"`
	Output string `yaml:"output" default:"stdout"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type PipelineConfig struct {
	LookbackDays int    `yaml:"lookback_days" default:"180" validate:"gte=30"`
	ChunkSize    int    `yaml:"chunk_size" default:"25" validate:"gt=0"`
	TopN         int    `yaml:"top_n" default:"10" validate:"gt=0"`
	OutputDir    string `yaml:"output_dir" default:"out"`
	StateDir     string `yaml:"state_dir" default:"state"`
	// TestUniverseSize truncates the universe in test mode.
	TestUniverseSize int `yaml:"test_universe_size" default:"10" validate:"gt=0"`
}

type UniverseConfig struct {
	File            string `yaml:"file" default:"config/universe.yaml"`
	BenchmarkSymbol string `yaml:"benchmark_symbol" default:"SPY"`
}

type CalendarConfig struct {
	File string `yaml:"file" default:"config/calendar.yaml"`
}

type ProviderEndpoint struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout" default:"30s"`
}

type ProvidersConfig struct {
	Primary      ProviderEndpoint `yaml:"primary"`
	Fallback     ProviderEndpoint `yaml:"fallback"`
	RetryMax     int              `yaml:"retry_max" default:"3" validate:"gte=1"`
	RateLimitRPS float64          `yaml:"rate_limit_rps" default:"5"`
	RateBurst    int              `yaml:"rate_burst" default:"5"`
	CacheTTL     time.Duration    `yaml:"cache_ttl" default:"4h"`
}

type RegimeConfig struct {
	LookbackDays    int           `yaml:"lookback_days" default:"180" validate:"gte=30"`
	MinObservations int           `yaml:"min_observations" default:"60" validate:"gte=20"`
	States          int           `yaml:"states" default:"3" validate:"gte=2,lte=5"`
	Seed            int64         `yaml:"seed" default:"42"`
	EWMALambda      float64       `yaml:"ewma_lambda" default:"0.94" validate:"gt=0,lt=1"`
	CacheTTL        time.Duration `yaml:"cache_ttl" default:"24h"`
}

type SentimentConfig struct {
	Enabled  bool          `yaml:"enabled" default:"true"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout" default:"30s"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"15m"`
	// FuturesGapProxy enables the ambient market-wide fallback when a
	// symbol has zero articles.
	FuturesGapProxy bool `yaml:"futures_gap_proxy" default:"true"`
}

type ForecastConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout" default:"60s"`
	RetryMax int           `yaml:"retry_max" default:"3" validate:"gte=1"`
}

type EnsembleConfig struct {
	ForecastWeight  float64 `yaml:"forecast_weight" default:"0.45" validate:"gte=0,lte=1"`
	TrendWeight     float64 `yaml:"trend_weight" default:"0.25" validate:"gte=0,lte=1"`
	TechnicalWeight float64 `yaml:"technical_weight" default:"0.15" validate:"gte=0,lte=1"`
	SentimentWeight float64 `yaml:"sentiment_weight" default:"0.15" validate:"gte=0,lte=1"`
}

// Weights returns the canonical weight table keyed by provider name.
func (e EnsembleConfig) Weights() map[string]float64 {
	return map[string]float64{
		"forecast":  e.ForecastWeight,
		"trend":     e.TrendWeight,
		"technical": e.TechnicalWeight,
		"sentiment": e.SentimentWeight,
	}
}

type EventRiskConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
	// SkipWindowBefore/After bound the hard no-trade window around an event.
	SkipWindowBefore time.Duration `yaml:"skip_window_before" default:"24h"`
	SkipWindowAfter  time.Duration `yaml:"skip_window_after" default:"24h"`
	// ElevatedWindow is the wider window with elevated but tradable risk.
	ElevatedWindow time.Duration `yaml:"elevated_window" default:"72h"`
	// EventRiskWeight scales the risk penalty subtracted from the score.
	EventRiskWeight float64 `yaml:"event_risk_weight" default:"0.15" validate:"gte=0,lte=1"`
	// Haircut tier thresholds on adjusted risk.
	HaircutLightAt  float64 `yaml:"haircut_light_at" default:"0.40"`
	HaircutMediumAt float64 `yaml:"haircut_medium_at" default:"0.60"`
	HaircutHeavyAt  float64 `yaml:"haircut_heavy_at" default:"0.80"`
	// Base weights per event type, regulatory > earnings > dividend > agm.
	RegulatoryWeight float64 `yaml:"regulatory_weight" default:"1.0"`
	EarningsWeight   float64 `yaml:"earnings_weight" default:"0.85"`
	DividendWeight   float64 `yaml:"dividend_weight" default:"0.5"`
	AGMWeight        float64 `yaml:"agm_weight" default:"0.3"`
}

type ScoringConfig struct {
	BuyThreshold float64 `yaml:"buy_threshold" default:"65" validate:"gt=50,lt=100"`
}

type TrainingConfig struct {
	Enabled        bool   `yaml:"enabled" default:"true"`
	MaxPerNight    int    `yaml:"max_per_night" default:"10" validate:"gt=0"`
	StalenessDays  int    `yaml:"staleness_days" default:"7" validate:"gt=0"`
	ModelDir       string `yaml:"model_dir" default:"models"`
	Workers        int    `yaml:"workers" default:"1" validate:"gte=1,lte=8"`
	TestMaxPerNight int   `yaml:"test_max_per_night" default:"2" validate:"gt=0"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"nightscan"`
}

type CacheConfig struct {
	Backend string      `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	Redis   RedisConfig `yaml:"redis"`
}

type ClickHouseConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host" default:"localhost"`
	Port         int           `yaml:"port" default:"9000"`
	Database     string        `yaml:"database" default:"nightscan"`
	User         string        `yaml:"user" default:"default"`
	Password     string        `yaml:"password"`
	DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	Topic        string   `yaml:"topic" default:"nightscan.notifications"`
	RequiredAcks int      `yaml:"required_acks" default:"-1"`
	Compression  string   `yaml:"compression" default:"gzip"`
	MaxAttempts  int      `yaml:"max_attempts" default:"3"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

type Config struct {
	Environment string           `yaml:"environment" default:"dev"`
	Logging     LoggingConfig    `yaml:"logging"`
	Server      ServerConfig     `yaml:"server"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Pipeline    PipelineConfig   `yaml:"pipeline"`
	Universe    UniverseConfig   `yaml:"universe"`
	Calendar    CalendarConfig   `yaml:"calendar"`
	Providers   ProvidersConfig  `yaml:"providers"`
	Regime      RegimeConfig     `yaml:"regime"`
	Sentiment   SentimentConfig  `yaml:"sentiment"`
	Forecast    ForecastConfig   `yaml:"forecast"`
	Ensemble    EnsembleConfig   `yaml:"ensemble"`
	EventRisk   EventRiskConfig  `yaml:"event_risk"`
	Scoring     ScoringConfig    `yaml:"scoring"`
	Training    TrainingConfig   `yaml:"training"`
	Cache       CacheConfig      `yaml:"cache"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Kafka       KafkaConfig      `yaml:"kafka"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults and
// validates the result. Validation failures are fatal before any phase runs.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides selected values with
// environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if v := os.Getenv("DATA_API_KEY"); v != "" {
		c.Providers.Primary.APIKey = v
	}
	if v := os.Getenv("DATA_FALLBACK_API_KEY"); v != "" {
		c.Providers.Fallback.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("MAX_MODELS_PER_NIGHT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Training.MaxPerNight = n
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Validate checks structural constraints plus the cross-field rules the
// tag-based validator cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfigValidation, err)
	}

	sum := c.Ensemble.ForecastWeight + c.Ensemble.TrendWeight +
		c.Ensemble.TechnicalWeight + c.Ensemble.SentimentWeight
	if math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("%w: ensemble weights must sum to 1.0, got %.4f", models.ErrConfigValidation, sum)
	}

	if !(c.EventRisk.HaircutLightAt < c.EventRisk.HaircutMediumAt &&
		c.EventRisk.HaircutMediumAt < c.EventRisk.HaircutHeavyAt) {
		return fmt.Errorf("%w: haircut thresholds must be strictly increasing", models.ErrConfigValidation)
	}

	if c.Providers.Primary.BaseURL == "" {
		return fmt.Errorf("%w: providers.primary.base_url is required", models.ErrConfigValidation)
	}
	if c.Forecast.BaseURL == "" && c.Training.Enabled {
		return fmt.Errorf("%w: forecast.base_url is required when training is enabled", models.ErrConfigValidation)
	}
	if c.Sentiment.Enabled && c.Sentiment.BaseURL == "" {
		return fmt.Errorf("%w: sentiment.base_url is required when sentiment is enabled", models.ErrConfigValidation)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%w: kafka.brokers cannot be empty when kafka is enabled", models.ErrConfigValidation)
	}

	return nil
}

// StalenessThreshold returns the model staleness cutoff as a duration.
func (c *Config) StalenessThreshold() time.Duration {
	return time.Duration(c.Training.StalenessDays) * 24 * time.Hour
}
