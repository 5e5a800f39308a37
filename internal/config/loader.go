package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"github.com/turtacn/tokenlife/pkg/constants"
)

// EnvPrefix is prepended to every environment override, e.g. TOKENLIFE_KEYS_SECRET.
const EnvPrefix = "TOKENLIFE"

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("keys.secret", "")
	v.SetDefault("keys.public_key", "")
	v.SetDefault("keys.private_key", "")
	v.SetDefault("keys.public_key_file", "")
	v.SetDefault("keys.private_key_file", "")
	v.SetDefault("keys.algorithm", "")
	v.SetDefault("keys.default_expires_in", constants.DefaultExpiresIn)

	v.SetDefault("store.driver", constants.StoreDriverMemory)
	v.SetDefault("store.namespace", constants.DefaultLedgerNamespace)
	v.SetDefault("store.redis.addresses", []string{})
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.pool_size", 10)
	v.SetDefault("store.redis.prefix", constants.ServiceName)
	v.SetDefault("store.sql.dsn", "")

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.secret_path", "")

	v.SetDefault("sweep.enabled", true)
	v.SetDefault("sweep.interval", constants.DefaultSweepInterval)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.revocation_topic", "tokenlife.revocations")
	v.SetDefault("kafka.group_id", "tokenlife-revocation")
	v.SetDefault("kafka.write_timeout", "10s")

	v.SetDefault("ops.addr", ":9090")
	v.SetDefault("ops.pprof", false)

	v.SetDefault("log.level", "info")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "")
	v.SetDefault("tracing.service_name", constants.ServiceName)
	v.SetDefault("tracing.sampling_rate", 1.0)
}

// LoadConfig loads the configuration from file and environment variables.
// configFile may be empty, in which case tokenlife.yaml is looked up in /etc/tokenlife/ and
// the working directory; a missing file is not an error.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("tokenlife")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/tokenlife/")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
