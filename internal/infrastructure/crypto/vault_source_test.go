package crypto

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/tokenlife/internal/config"
	"github.com/turtacn/tokenlife/pkg/errors"
	"github.com/turtacn/tokenlife/pkg/logger"
)

func newVaultServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/tokenlife/keys", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts
}

func vaultConfig(addr string) *config.VaultConfig {
	return &config.VaultConfig{
		Enabled:    true,
		Address:    addr,
		Token:      "test-token",
		MountPath:  "secret",
		SecretPath: "tokenlife/keys",
	}
}

func TestVaultKeySource_Load(t *testing.T) {
	ts := newVaultServer(t, http.StatusOK, `{
		"data": {
			"data": {"secret": "from-vault", "algorithm": "HS384"},
			"metadata": {
				"created_time": "2024-05-01T12:00:00.000000000Z",
				"custom_metadata": null,
				"deletion_time": "",
				"destroyed": false,
				"version": 3
			}
		}
	}`)

	src, err := NewVaultKeySource(vaultConfig(ts.URL), logger.NewNoopLogger())
	require.NoError(t, err)

	kc, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-vault", kc.Secret)
	assert.Equal(t, "HS384", kc.Algorithm)
	assert.Empty(t, kc.PrivateKey)

	ks, err := NewKeySet(kc)
	require.NoError(t, err)
	assert.Equal(t, "HS384", ks.Algorithm())
	assert.False(t, ks.Insecure())
}

func TestVaultKeySource_LoadFailure(t *testing.T) {
	ts := newVaultServer(t, http.StatusForbidden, `{"errors":["permission denied"]}`)

	src, err := NewVaultKeySource(vaultConfig(ts.URL), logger.NewNoopLogger())
	require.NoError(t, err)

	_, err = src.Load(context.Background())
	assert.ErrorIs(t, err, errors.ErrConfig)
}
