package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "PAYMENTS"

// Load reads defaults, then the optional YAML file at path, then PAYMENTS_*
// environment variables (PAYMENTS_STORAGE_DRIVER overrides storage.driver).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AutomaticEnv only resolves keys viper already knows, so every key gets a
// default.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("http.addr", cfg.HTTP.Addr)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.json_path", cfg.Storage.JSONPath)
	v.SetDefault("storage.sqlite_path", cfg.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", cfg.Storage.PostgresDSN)
	v.SetDefault("outbox.poll_interval", cfg.Outbox.PollInterval)
	v.SetDefault("outbox.batch_size", cfg.Outbox.BatchSize)
	v.SetDefault("kafka.brokers", cfg.Kafka.Brokers)
	v.SetDefault("kafka.topic", cfg.Kafka.Topic)
	v.SetDefault("settlement.max_retries", cfg.Settlement.MaxRetries)
	v.SetDefault("settlement.retry_delay", cfg.Settlement.RetryDelay)
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverJSONFile, DriverSQLite, DriverPostgres:
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Outbox.BatchSize <= 0 {
		return errors.Errorf("outbox.batch_size must be positive, got %d", c.Outbox.BatchSize)
	}
	if c.Outbox.PollInterval <= 0 {
		return errors.Errorf("outbox.poll_interval must be positive, got %s", c.Outbox.PollInterval)
	}
	return nil
}
