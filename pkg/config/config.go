package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Source  SourceConfig
	Scan    ScanConfig
	Scoring ScoringConfig
	Cache   CacheConfig
	Export  ExportConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  int
	WriteTimeout int
	BodyLimit    int
	RequestsPerMinute int
}

type SourceConfig struct {
	BaseURL           string
	UserAgent         string
	PageSize          int
	RequestsPerSecond float64
	MaxRetries        int
	TimeoutSec        int
}

type ScanConfig struct {
	MaxResultsCap  int
	DefaultResults int
	EmptyPageLimit int
	Concurrency    int
	DeadlineSec    int
}

type ScoringConfig struct {
	NeutralBand          float64
	DecayConstant        float64
	RelevanceSaturation  float64
	TitleWeight          float64
	SpamMediumThreshold  float64
	SpamHighThreshold    float64
}

type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLSec   int
}

type ExportConfig struct {
	Dir    string
	Format string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/keywordpulse")

	viper.SetEnvPrefix("KEYWORDPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings that would make the crawl misbehave before any
// network call is made.
func (c *Config) Validate() error {
	if c.Source.PageSize < 1 || c.Source.PageSize > 100 {
		return fmt.Errorf("source.pageSize must be between 1 and 100, got %d", c.Source.PageSize)
	}
	if c.Source.RequestsPerSecond <= 0 {
		return fmt.Errorf("source.requestsPerSecond must be positive, got %f", c.Source.RequestsPerSecond)
	}
	if c.Source.MaxRetries < 1 {
		return fmt.Errorf("source.maxRetries must be at least 1, got %d", c.Source.MaxRetries)
	}
	if c.Scan.MaxResultsCap < 1 {
		return fmt.Errorf("scan.maxResultsCap must be positive, got %d", c.Scan.MaxResultsCap)
	}
	if c.Scan.EmptyPageLimit < 1 {
		return fmt.Errorf("scan.emptyPageLimit must be at least 1, got %d", c.Scan.EmptyPageLimit)
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be at least 1, got %d", c.Scan.Concurrency)
	}
	if c.Scoring.NeutralBand < 0 || c.Scoring.NeutralBand >= 1 {
		return fmt.Errorf("scoring.neutralBand must be in [0, 1), got %f", c.Scoring.NeutralBand)
	}
	if c.Scoring.SpamMediumThreshold >= c.Scoring.SpamHighThreshold {
		return fmt.Errorf("scoring.spamMediumThreshold must be below spamHighThreshold")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readTimeout", 30)
	viper.SetDefault("server.writeTimeout", 120)
	viper.SetDefault("server.bodyLimit", 1048576)
	viper.SetDefault("server.requestsPerMinute", 60)

	viper.SetDefault("source.baseURL", "https://oauth.reddit.com")
	viper.SetDefault("source.userAgent", "keywordpulse/1.0")
	viper.SetDefault("source.pageSize", 100)
	viper.SetDefault("source.requestsPerSecond", 10.0)
	viper.SetDefault("source.maxRetries", 5)
	viper.SetDefault("source.timeoutSec", 30)

	viper.SetDefault("scan.maxResultsCap", 100000)
	viper.SetDefault("scan.defaultResults", 2500)
	viper.SetDefault("scan.emptyPageLimit", 3)
	viper.SetDefault("scan.concurrency", 8)
	viper.SetDefault("scan.deadlineSec", 0)

	viper.SetDefault("scoring.neutralBand", 0.1)
	viper.SetDefault("scoring.decayConstant", 0.0416667)
	viper.SetDefault("scoring.relevanceSaturation", 30.0)
	viper.SetDefault("scoring.titleWeight", 10.0)
	viper.SetDefault("scoring.spamMediumThreshold", 33.0)
	viper.SetDefault("scoring.spamHighThreshold", 66.0)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.host", "localhost")
	viper.SetDefault("cache.port", 6379)
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.ttlSec", 300)

	viper.SetDefault("export.dir", "./output")
	viper.SetDefault("export.format", "excel")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stdout")
}
