package initializer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/ledger/infra"
	infra_eventbus "github.com/amirasaad/ledger/infra/eventbus"
	"github.com/amirasaad/ledger/infra/memory"
	"github.com/amirasaad/ledger/infra/migrations"
	infra_repository "github.com/amirasaad/ledger/infra/repository"
	"github.com/amirasaad/ledger/pkg/app"
	"github.com/amirasaad/ledger/pkg/config"
	"github.com/amirasaad/ledger/pkg/eventbus"
	"github.com/amirasaad/ledger/pkg/repository"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	deps.Uow, err = initStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	bus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.EventBus = bus
	if c, ok := bus.(interface{ Close() error }); ok {
		deps.Closers = append(deps.Closers, c)
	}
	return deps, nil
}

func initStore(cfg *config.App, logger *slog.Logger) (repository.UnitOfWork, error) {
	ledgerCfg := cfg.Ledger
	if ledgerCfg == nil {
		ledgerCfg = &config.Ledger{}
	}
	switch strings.ToLower(ledgerCfg.Store) {
	case "", "memory":
		logger.Info("Using in-memory ledger store")
		return memory.New(ledgerCfg.LockTimeout, logger), nil
	case "postgres":
		db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
		if err != nil {
			logger.Error("Failed to initialize database", "error", err)
			return nil, err
		}
		if ledgerCfg.Migrate {
			sqlDB, err := db.DB()
			if err != nil {
				return nil, err
			}
			if err := migrations.Up(sqlDB); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			logger.Info("Database migrations applied")
		}
		logger.Info("Using PostgreSQL ledger store", "lock_timeout", ledgerCfg.LockTimeout)
		return infra_repository.NewUoW(db, ledgerCfg.LockTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported ledger store %q", ledgerCfg.Store)
	}
}

func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	driver := ""
	if cfg.EventBus != nil {
		driver = strings.ToLower(cfg.EventBus.Driver)
	}
	switch driver {
	case "", "memory":
		return infra_eventbus.NewWithMemory(logger), nil
	case "redis":
		if cfg.Redis == nil || cfg.Redis.URL == "" {
			return nil, fmt.Errorf("redis event bus requires REDIS_URL")
		}
		bus, err := infra_eventbus.NewWithRedis(
			cfg.Redis.URL,
			cfg.Redis.KeyPrefix,
			infra_eventbus.DefaultDecoders(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis event bus: %w", err)
		}
		return bus, nil
	case "kafka":
		if cfg.Kafka == nil || strings.TrimSpace(cfg.Kafka.Brokers) == "" {
			return nil, fmt.Errorf("kafka event bus requires KAFKA_BROKERS")
		}
		bus, err := infra_eventbus.NewWithKafka(
			cfg.Kafka.Brokers,
			kafkaBusConfig(cfg.Kafka),
			infra_eventbus.DefaultDecoders(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Kafka event bus: %w", err)
		}
		return bus, nil
	default:
		return nil, fmt.Errorf("unsupported event bus driver %q", driver)
	}
}

func kafkaBusConfig(k *config.Kafka) *infra_eventbus.KafkaEventBusConfig {
	c := infra_eventbus.DefaultKafkaEventBusConfig()
	if k.GroupID != "" {
		c.GroupID = k.GroupID
	}
	if k.TopicPrefix != "" {
		c.TopicPrefix = k.TopicPrefix
	}
	c.SASLUsername = k.SASLUsername
	c.SASLPassword = k.SASLPassword
	c.TLSEnabled = k.TLSEnabled
	c.TLSCAFile = k.TLSCAFile
	c.TLSCertFile = k.TLSCertFile
	c.TLSKeyFile = k.TLSKeyFile
	c.TLSSkipVerify = k.TLSSkipVerify
	return c
}
