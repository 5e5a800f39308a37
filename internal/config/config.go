package config

import (
	"fmt"
	"time"

	"github.com/turtacn/tokenlife/pkg/constants"
)

// Config holds the application's configuration.
type Config struct {
	Keys    KeysConfig    `mapstructure:"keys"`
	Store   StoreConfig   `mapstructure:"store"`
	Vault   VaultConfig   `mapstructure:"vault"`
	Sweep   SweepConfig   `mapstructure:"sweep"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Ops     OpsConfig     `mapstructure:"ops"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// KeysConfig selects the signing mode. Exactly one of Secret or the PublicKey/PrivateKey pair
// is expected; the *File variants are read from disk when set.
type KeysConfig struct {
	Secret           string `mapstructure:"secret"`
	PublicKey        string `mapstructure:"public_key"`
	PrivateKey       string `mapstructure:"private_key"`
	PublicKeyFile    string `mapstructure:"public_key_file"`
	PrivateKeyFile   string `mapstructure:"private_key_file"`
	Algorithm        string `mapstructure:"algorithm"`
	DefaultExpiresIn string `mapstructure:"default_expires_in"`
}

// HasKeypair reports whether any asymmetric key material is configured.
func (k *KeysConfig) HasKeypair() bool {
	return k.PublicKey != "" || k.PrivateKey != "" || k.PublicKeyFile != "" || k.PrivateKeyFile != ""
}

type StoreConfig struct {
	Driver    string      `mapstructure:"driver"`
	Namespace string      `mapstructure:"namespace"`
	Redis     RedisConfig `mapstructure:"redis"`
	SQL       SQLConfig   `mapstructure:"sql"`
}

type RedisConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Password  string   `mapstructure:"password"`
	DB        int      `mapstructure:"db"`
	PoolSize  int      `mapstructure:"pool_size"`
	Prefix    string   `mapstructure:"prefix"`
}

type SQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// VaultConfig points at a KV v2 secret holding key material (fields: secret, public_key,
// private_key, algorithm). When enabled it takes precedence over KeysConfig material.
type VaultConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`
	SecretPath string `mapstructure:"secret_path"`
}

type SweepConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type KafkaConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Brokers         []string      `mapstructure:"brokers"`
	RevocationTopic string        `mapstructure:"revocation_topic"`
	// GroupID is a prefix; each instance consumes in group "<prefix>-<instance id>".
	GroupID         string        `mapstructure:"group_id"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
}

type OpsConfig struct {
	Addr  string `mapstructure:"addr"`
	Pprof bool   `mapstructure:"pprof"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Keys.Secret != "" && c.Keys.HasKeypair() {
		return fmt.Errorf("keys: configure either secret or a public/private keypair, not both")
	}
	if c.Keys.HasKeypair() && c.Keys.Algorithm == "" {
		return fmt.Errorf("keys: algorithm is required when a keypair is configured")
	}

	switch c.Store.Driver {
	case constants.StoreDriverMemory:
	case constants.StoreDriverRedis:
		if len(c.Store.Redis.Addresses) == 0 {
			return fmt.Errorf("store.redis.addresses is required for the redis driver")
		}
	case constants.StoreDriverSQLite, constants.StoreDriverPostgres:
		if c.Store.SQL.DSN == "" {
			return fmt.Errorf("store.sql.dsn is required for the %s driver", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store.driver: unsupported driver %q", c.Store.Driver)
	}

	if c.Vault.Enabled && (c.Vault.Address == "" || c.Vault.SecretPath == "") {
		return fmt.Errorf("vault: address and secret_path are required when vault is enabled")
	}
	if c.Sweep.Enabled && c.Sweep.Interval <= 0 {
		return fmt.Errorf("sweep.interval must be positive")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.RevocationTopic == "") {
		return fmt.Errorf("kafka: brokers and revocation_topic are required when kafka is enabled")
	}
	return nil
}
