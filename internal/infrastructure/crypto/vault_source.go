package crypto

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"
	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/pkg/errors"
	"github.com/turtacn/tokenlife/pkg/logger"
)

// Field names read from the KV v2 secret.
const (
	vaultFieldSecret     = "secret"
	vaultFieldPublicKey  = "public_key"
	vaultFieldPrivateKey = "private_key"
	vaultFieldAlgorithm  = "algorithm"
)

// VaultKeySource loads signing key material from a HashiCorp Vault KV v2 secret.
type VaultKeySource struct {
	client     *vault.Client
	mountPath  string
	secretPath string
	log        logger.Logger
}

// NewVaultKeySource creates and configures a new Vault client.
func NewVaultKeySource(cfg *config.VaultConfig, log logger.Logger) (*VaultKeySource, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.Config("create vault client").WithCause(err)
	}
	client.SetToken(cfg.Token)

	mount := cfg.MountPath
	if mount == "" {
		mount = "secret"
	}
	return &VaultKeySource{
		client:     client,
		mountPath:  mount,
		secretPath: cfg.SecretPath,
		log:        log.WithComponent("vault"),
	}, nil
}

// Load reads the secret and returns it as a KeyConfig. Missing fields stay empty, so
// NewKeySet applies the usual mode rules to whatever the secret holds.
func (s *VaultKeySource) Load(ctx context.Context) (KeyConfig, error) {
	secret, err := s.client.KVv2(s.mountPath).Get(ctx, s.secretPath)
	if err != nil {
		s.log.Error(ctx, "Failed to read key material from vault", err,
			logger.String("mount", s.mountPath), logger.String("path", s.secretPath))
		return KeyConfig{}, errors.Config("read key material from vault").WithCause(err)
	}
	if secret == nil || secret.Data == nil {
		return KeyConfig{}, errors.Config(fmt.Sprintf("vault secret %s/%s is empty", s.mountPath, s.secretPath))
	}

	field := func(name string) string {
		v, _ := secret.Data[name].(string)
		return v
	}
	kc := KeyConfig{
		Secret:     field(vaultFieldSecret),
		PublicKey:  field(vaultFieldPublicKey),
		PrivateKey: field(vaultFieldPrivateKey),
		Algorithm:  field(vaultFieldAlgorithm),
	}
	s.log.Info(ctx, "Loaded key material from vault",
		logger.String("path", s.secretPath), logger.Bool("keypair", kc.PrivateKey != ""))
	return kc, nil
}
