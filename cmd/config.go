package cmd

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/spigell/jobswipe/internal/events"
	"github.com/spigell/jobswipe/internal/feed"
	"github.com/spigell/jobswipe/internal/headhunter"
	"github.com/spigell/jobswipe/internal/storage/redisledger"
	"github.com/spigell/jobswipe/internal/summary"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultSQLitePath = "jobswipe.db"

	LedgerBackendDatabase = "database"
	LedgerBackendRedis    = "redis"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	AI       AIConfig       `mapstructure:"ai"`
	Events   EventsConfig   `mapstructure:"events"`
	Server   ServerConfig   `mapstructure:"server"`
	Import   ImportConfig   `mapstructure:"import"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=memory sqlite postgres"`
	// URL is a file path for sqlite and a connection string for postgres.
	// Only sqlite has a default.
	URL    string `mapstructure:"url" validate:"required_if=Driver postgres"`

	AutoMigrate bool `mapstructure:"auto-migrate"`
}

type LedgerConfig struct {
	Backend string `mapstructure:"backend" validate:"oneof=database redis"`
	Prefix  string `mapstructure:"prefix"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type FeedConfig struct {
	PoolLimit        int      `mapstructure:"pool-limit" validate:"gte=0,lte=500"`
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	DisableFilters   []string `mapstructure:"disable-filters" validate:"dive,oneof=open_status swiped excluded_companies"`
}

type SummaryConfig struct {
	LikedLimit    int    `mapstructure:"liked-limit" validate:"gte=0"`
	DislikedLimit int    `mapstructure:"disliked-limit" validate:"gte=0"`
	MaxWords      int    `mapstructure:"max-words" validate:"gte=0"`
	Batch         bool   `mapstructure:"batch"`
	Schedule      string `mapstructure:"schedule" validate:"required_if=Batch true"`
}

type AIConfig struct {
	Enabled  bool         `mapstructure:"enabled"`
	Provider string       `mapstructure:"provider" validate:"omitempty,oneof=gemini"`
	Gemini   GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries" validate:"gte=0,lte=10"`
	MaxLogLength int    `mapstructure:"max-log-length" validate:"gte=0"`
}

type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

type ImportConfig struct {
	HH HHImportConfig `mapstructure:"hh"`
}

type HHImportConfig struct {
	Search    headhunter.SearchParams `mapstructure:",squash"`
	Limit     int                     `mapstructure:"limit" validate:"gte=0"`
	UserAgent string                  `mapstructure:"user-agent"`
	TokenFile string                  `mapstructure:"token-file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverSQLite)
	// registered so JOBSWIPE_DATABASE_URL is picked up; the sqlite path is
	// filled in by loadConfig
	v.SetDefault("database.url", "")
	v.SetDefault("database.auto-migrate", true)

	v.SetDefault("ledger.backend", LedgerBackendDatabase)
	v.SetDefault("ledger.prefix", redisledger.DefaultPrefix)
	v.SetDefault("redis.url", "")

	v.SetDefault("feed.pool-limit", feed.DefaultPoolLimit)
	v.SetDefault("feed.exclude-companies", []string{})
	v.SetDefault("feed.disable-filters", []string{})

	v.SetDefault("summary.liked-limit", 3)
	v.SetDefault("summary.disliked-limit", 3)
	v.SetDefault("summary.max-words", 100)
	v.SetDefault("summary.batch", false)
	v.SetDefault("summary.schedule", summary.DefaultSchedule)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.channel", events.DefaultChannel)

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("import.hh.text", "")
	v.SetDefault("import.hh.limit", 200)
	v.SetDefault("import.hh.user-agent", headhunter.DefaultUserAgent)
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if config.Database.Driver == DriverSQLite && config.Database.URL == "" {
		config.Database.URL = defaultSQLitePath
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			fe := validationErrs[0]
			return fmt.Errorf("invalid config: %s failed on %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	needsRedis := c.Ledger.Backend == LedgerBackendRedis || c.Events.Enabled
	if needsRedis && c.Redis.URL == "" {
		return errors.New("invalid config: redis.url is required by ledger.backend=redis or events.enabled")
	}

	return nil
}
