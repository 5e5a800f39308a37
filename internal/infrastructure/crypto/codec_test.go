package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/tokenlife/internal/domain/models"
	"github.com/turtacn/tokenlife/pkg/errors"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func sampleClaims() *models.Claims {
	return &models.Claims{
		Auth:   map[string]interface{}{"key": "alice@example.com", "basic": "xyz"},
		Access: map[string]interface{}{"scopes": []interface{}{"read", "write"}},
		Data:   map[string]interface{}{"n": float64(7)},
	}
}

func pemBlock(t *testing.T, typ string, der []byte) string {
	t.Helper()
	return string(pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der}))
}

func rsaKeyConfig(t *testing.T, alg string) KeyConfig {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return KeyConfig{
		PrivateKey: pemBlock(t, "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)),
		PublicKey:  pemBlock(t, "PUBLIC KEY", pub),
		Algorithm:  alg,
	}
}

func ecKeyConfig(t *testing.T) KeyConfig {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	priv, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return KeyConfig{
		PrivateKey: pemBlock(t, "EC PRIVATE KEY", priv),
		PublicKey:  pemBlock(t, "PUBLIC KEY", pub),
		Algorithm:  "ES256",
	}
}

func edKeyConfig(t *testing.T) KeyConfig {
	t.Helper()
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	priv, err := x509.MarshalPKCS8PrivateKey(privKey)
	require.NoError(t, err)
	pub, err := x509.MarshalPKIXPublicKey(pubKey)
	require.NoError(t, err)
	return KeyConfig{
		PrivateKey: pemBlock(t, "PRIVATE KEY", priv),
		PublicKey:  pemBlock(t, "PUBLIC KEY", pub),
		Algorithm:  "EdDSA",
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cfg  func(t *testing.T) KeyConfig
	}{
		{"HS256", func(t *testing.T) KeyConfig { return KeyConfig{Secret: "s3cret"} }},
		{"HS512", func(t *testing.T) KeyConfig { return KeyConfig{Secret: "s3cret", Algorithm: "HS512"} }},
		{"RS256", func(t *testing.T) KeyConfig { return rsaKeyConfig(t, "RS256") }},
		{"PS256", func(t *testing.T) KeyConfig { return rsaKeyConfig(t, "PS256") }},
		{"ES256", ecKeyConfig},
		{"EdDSA", edKeyConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			codec := NewCodec(WithClock(clock.Now))
			keys, err := NewKeySet(tt.cfg(t))
			require.NoError(t, err)
			assert.Equal(t, tt.name, keys.Algorithm())

			signKey, err := keys.SigningKey("")
			require.NoError(t, err)
			verifyKey, err := keys.VerificationKey("")
			require.NoError(t, err)

			claims := sampleClaims()
			token, err := codec.Encode(claims, signKey, keys.Algorithm(), time.Hour)
			require.NoError(t, err)
			assert.Len(t, strings.Split(token, "."), 3)

			decoded, err := codec.Decode(token, verifyKey, keys.Algorithm())
			require.NoError(t, err)
			assert.Equal(t, *claims, decoded.Claims)
			assert.NotEmpty(t, decoded.Metadata.ID)
			assert.Equal(t, clock.Now(), decoded.Metadata.IssuedAt.UTC())
			assert.Equal(t, clock.Now().Add(time.Hour), decoded.Metadata.ExpiresAt.UTC())
			assert.Equal(t, tt.name, decoded.Metadata.Algorithm)
		})
	}
}

func TestCodec_IdenticalClaimsGiveDistinctTokens(t *testing.T) {
	codec := NewCodec(WithClock(newFakeClock().Now))
	key := []byte("s3cret")

	a, err := codec.Encode(sampleClaims(), key, "HS256", time.Hour)
	require.NoError(t, err)
	b, err := codec.Encode(sampleClaims(), key, "HS256", time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCodec_EncodeValidation(t *testing.T) {
	codec := NewCodec()
	key := []byte("s3cret")

	tests := []struct {
		name   string
		claims *models.Claims
	}{
		{"nil claims", nil},
		{"missing auth", &models.Claims{Access: "a"}},
		{"missing access", &models.Claims{Auth: "u"}},
		{"empty auth map", &models.Claims{Auth: map[string]interface{}{}, Access: "a"}},
		{"blank access string", &models.Claims{Auth: "u", Access: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Encode(tt.claims, key, "HS256", time.Hour)
			assert.ErrorIs(t, err, errors.ErrValidation)
		})
	}
}

func TestCodec_EncodePastExpiry(t *testing.T) {
	codec := NewCodec()
	key := []byte("s3cret")
	claims := &models.Claims{Auth: "u", Access: "a"}

	token, err := codec.Encode(claims, key, "HS256", -time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(token, key, "HS256")
	assert.ErrorIs(t, err, errors.ErrExpired)
}

func TestCodec_DecodeFailures(t *testing.T) {
	clock := newFakeClock()
	codec := NewCodec(WithClock(clock.Now))
	key := []byte("s3cret")

	token, err := codec.Encode(sampleClaims(), key, "HS256", time.Second)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	forged := strings.Replace(string(payload), "alice", "mallo", 1)
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte(forged)) + "." + parts[2]

	tests := []struct {
		name  string
		token string
		key   interface{}
		alg   string
		want  error
	}{
		{"not a token", "not-a-token", key, "HS256", errors.ErrMalformed},
		{"garbage segments", "a.b.c", key, "HS256", errors.ErrMalformed},
		{"empty", "", key, "HS256", errors.ErrMalformed},
		{"wrong secret", token, []byte("other"), "HS256", errors.ErrSignature},
		{"tampered payload", tampered, key, "HS256", errors.ErrSignature},
		{"algorithm mismatch", token, key, "HS512", errors.ErrSignature},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token, tt.key, tt.alg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCodec_Expiry(t *testing.T) {
	clock := newFakeClock()
	codec := NewCodec(WithClock(clock.Now))
	key := []byte("s3cret")

	token, err := codec.Encode(sampleClaims(), key, "HS256", time.Second)
	require.NoError(t, err)

	_, err = codec.Decode(token, key, "HS256")
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = codec.Decode(token, key, "HS256")
	assert.ErrorIs(t, err, errors.ErrExpired)

	// a forged token is reported as a signature failure even when it is also expired
	_, err = codec.Decode(token, []byte("other"), "HS256")
	assert.ErrorIs(t, err, errors.ErrSignature)
}

func TestKeySet(t *testing.T) {
	t.Run("default secret is flagged insecure", func(t *testing.T) {
		ks, err := NewKeySet(KeyConfig{})
		require.NoError(t, err)
		assert.True(t, ks.Insecure())
		assert.Equal(t, ModeSymmetric, ks.Mode())
		assert.Equal(t, "HS256", ks.Algorithm())
	})

	t.Run("secret and keypair together", func(t *testing.T) {
		cfg := rsaKeyConfig(t, "RS256")
		cfg.Secret = "s"
		_, err := NewKeySet(cfg)
		assert.ErrorIs(t, err, errors.ErrConfig)
	})

	t.Run("half a keypair", func(t *testing.T) {
		cfg := rsaKeyConfig(t, "RS256")
		cfg.PublicKey = ""
		_, err := NewKeySet(cfg)
		assert.ErrorIs(t, err, errors.ErrConfig)
	})

	t.Run("keypair without algorithm", func(t *testing.T) {
		cfg := rsaKeyConfig(t, "")
		_, err := NewKeySet(cfg)
		assert.ErrorIs(t, err, errors.ErrConfig)
	})

	t.Run("hmac algorithm with keypair", func(t *testing.T) {
		_, err := NewKeySet(rsaKeyConfig(t, "HS256"))
		assert.ErrorIs(t, err, errors.ErrConfig)
	})

	t.Run("asymmetric algorithm with secret", func(t *testing.T) {
		_, err := NewKeySet(KeyConfig{Secret: "s", Algorithm: "RS256"})
		assert.ErrorIs(t, err, errors.ErrConfig)
	})

	t.Run("key type does not match algorithm", func(t *testing.T) {
		cfg := ecKeyConfig(t)
		cfg.Algorithm = "RS256"
		_, err := NewKeySet(cfg)
		assert.ErrorIs(t, err, errors.ErrConfig)
	})

	t.Run("per-call secret overrides symmetric key", func(t *testing.T) {
		ks, err := NewKeySet(KeyConfig{Secret: "s"})
		require.NoError(t, err)

		k, err := ks.SigningKey("override")
		require.NoError(t, err)
		assert.Equal(t, []byte("override"), k)

		k, err = ks.VerificationKey("")
		require.NoError(t, err)
		assert.Equal(t, []byte("s"), k)
	})

	t.Run("per-call secret rejected in keypair mode", func(t *testing.T) {
		ks, err := NewKeySet(rsaKeyConfig(t, "RS256"))
		require.NoError(t, err)
		assert.Equal(t, ModeAsymmetric, ks.Mode())

		_, err = ks.SigningKey("s")
		assert.ErrorIs(t, err, errors.ErrValidation)
		_, err = ks.VerificationKey("s")
		assert.ErrorIs(t, err, errors.ErrValidation)
	})
}
