package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobswipe/internal/ai/gemini"
	"github.com/spigell/jobswipe/internal/events"
	"github.com/spigell/jobswipe/internal/feed"
	"github.com/spigell/jobswipe/internal/ledger"
	"github.com/spigell/jobswipe/internal/logger"
	"github.com/spigell/jobswipe/internal/secrets"
	"github.com/spigell/jobswipe/internal/storage"
	"github.com/spigell/jobswipe/internal/storage/memory"
	"github.com/spigell/jobswipe/internal/storage/postgres"
	"github.com/spigell/jobswipe/internal/storage/redisledger"
	"github.com/spigell/jobswipe/internal/storage/sqlite"
	"github.com/spigell/jobswipe/internal/summary"
	"github.com/spigell/jobswipe/internal/swipe"
)

var errAIDisabled = errors.New("ai is disabled (set ai.enabled: true and configure ai.gemini)")

// application holds everything a command needs. close releases it in
// reverse order of acquisition.
type application struct {
	config *Config
	logger *zap.Logger
	db     storage.Database
	rdb    *redis.Client
	ledger *ledger.Service

	closers []func() error
}

type appOptions struct {
	// logs go to stderr for interactive commands
	stderrLogs bool
}

func newApplication(ctx context.Context, opts appOptions) (*application, error) {
	logOpts := logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug")}
	if opts.stderrLogs {
		logOpts.OutputPaths = []string{"stderr"}
	}

	log, err := logger.New(logOpts)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	config, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	a := &application{config: config, logger: log}
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	if err := a.openDatabase(ctx); err != nil {
		a.close()
		return nil, err
	}

	var store ledger.Store = a.db
	if config.Ledger.Backend == LedgerBackendRedis {
		rdb, err := a.redis(ctx)
		if err != nil {
			a.close()
			return nil, err
		}
		store = redisledger.NewLedgerStore(rdb, config.Ledger.Prefix)
	}
	a.ledger = ledger.NewService(store, log)

	log.Debug("application ready",
		zap.String("version", version),
		zap.String("database", config.Database.Driver),
		zap.String("ledger", config.Ledger.Backend),
	)

	return a, nil
}

func (a *application) openDatabase(ctx context.Context) error {
	cfg := a.config.Database

	switch cfg.Driver {
	case DriverMemory:
		a.db = memory.New()
	case DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.URL)
		if err != nil {
			return err
		}
		a.db = db
	case DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.URL)
		if err != nil {
			return err
		}
		a.db = db
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	a.closers = append(a.closers, a.db.Close)

	if cfg.AutoMigrate {
		return a.migrate(ctx)
	}
	return nil
}

func (a *application) migrate(ctx context.Context) error {
	m, ok := a.db.(storage.Migrator)
	if !ok {
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", a.config.Database.Driver, err)
	}
	return nil
}

func (a *application) redis(ctx context.Context) (*redis.Client, error) {
	if a.rdb != nil {
		return a.rdb, nil
	}
	rdb, err := redisledger.Connect(ctx, a.config.Redis.URL)
	if err != nil {
		return nil, err
	}
	a.rdb = rdb
	a.closers = append(a.closers, rdb.Close)
	return rdb, nil
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && a.logger != nil {
			a.logger.Warn("closing resource", zap.Error(err))
		}
	}
	a.closers = nil
}

func (a *application) feed() *feed.Assembler {
	return feed.NewAssembler(a.db, a.ledger, feed.Options{
		DefaultPoolLimit:  a.config.Feed.PoolLimit,
		ExcludedCompanies: a.config.Feed.ExcludeCompanies,
		DisabledFilters:   a.config.Feed.DisableFilters,
	}, a.logger)
}

func (a *application) summarizer(ctx context.Context) (*summary.Summarizer, error) {
	cfg := a.config.AI
	if !cfg.Enabled {
		return nil, errAIDisabled
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, a.logger)
	if err != nil {
		return nil, err
	}

	return summary.New(generator, a.ledger, a.db, a.db, summary.Options{
		LikedLimit:    a.config.Summary.LikedLimit,
		DislikedLimit: a.config.Summary.DislikedLimit,
		MaxWords:      a.config.Summary.MaxWords,
		MaxLogLength:  cfg.Gemini.MaxLogLength,
	}, a.logger), nil
}

// failureSinks always logs; with events enabled failures are also published.
func (a *application) failureSinks(ctx context.Context) ([]swipe.FailureSink, error) {
	sinks := []swipe.FailureSink{swipe.LogSink{Logger: a.logger}}
	if !a.config.Events.Enabled {
		return sinks, nil
	}

	rdb, err := a.redis(ctx)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	return append(sinks, events.NewPublisher(rdb, a.config.Events.Channel, a.logger)), nil
}
