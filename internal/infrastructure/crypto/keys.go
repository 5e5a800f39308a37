package crypto

import (
	"crypto"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/turtacn/tokenlife/pkg/constants"
	"github.com/turtacn/tokenlife/pkg/errors"
)

// Mode tells whether a KeySet signs with a shared secret or an asymmetric keypair.
type Mode int

const (
	ModeSymmetric Mode = iota
	ModeAsymmetric
)

func (m Mode) String() string {
	if m == ModeAsymmetric {
		return "asymmetric"
	}
	return "symmetric"
}

// KeyConfig is the raw key material. Secret and the PublicKey/PrivateKey pair are mutually
// exclusive; keys are PEM encoded.
type KeyConfig struct {
	Secret     string
	PublicKey  string
	PrivateKey string
	Algorithm  string
}

// KeySet is resolved signing configuration, immutable after NewKeySet.
type KeySet struct {
	mode      Mode
	method    jwt.SigningMethod
	secret    []byte
	signKey   interface{}
	verifyKey interface{}
	insecure  bool
}

// NewKeySet parses cfg.
// With neither a secret nor a keypair, it falls back to constants.InsecureDefaultSecret;
// Insecure reports that case so the caller can warn about it.
func NewKeySet(cfg KeyConfig) (*KeySet, error) {
	hasPair := cfg.PublicKey != "" || cfg.PrivateKey != ""
	if cfg.Secret != "" && hasPair {
		return nil, errors.Config("configure either a secret or a public/private keypair, not both")
	}
	if hasPair {
		return newAsymmetricKeySet(cfg)
	}

	ks := &KeySet{mode: ModeSymmetric, secret: []byte(cfg.Secret)}
	if cfg.Secret == "" {
		ks.secret = []byte(constants.InsecureDefaultSecret)
		ks.insecure = true
	}

	alg := cfg.Algorithm
	if alg == "" {
		alg = constants.DefaultAlgorithm
	}
	method, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, errors.Config(fmt.Sprintf("algorithm %q cannot be used with a shared secret", alg))
	}
	ks.method = method
	ks.signKey = ks.secret
	ks.verifyKey = ks.secret
	return ks, nil
}

func newAsymmetricKeySet(cfg KeyConfig) (*KeySet, error) {
	if cfg.PublicKey == "" || cfg.PrivateKey == "" {
		return nil, errors.Config("both public_key and private_key are required for keypair signing")
	}
	if cfg.Algorithm == "" {
		return nil, errors.Config("algorithm is required for keypair signing")
	}

	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		return nil, errors.Config(fmt.Sprintf("unknown algorithm %q", cfg.Algorithm))
	}

	var (
		priv interface{}
		pub  interface{}
		err  error
	)
	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		if priv, err = jwt.ParseRSAPrivateKeyFromPEM([]byte(cfg.PrivateKey)); err == nil {
			pub, err = jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKey))
		}
	case *jwt.SigningMethodECDSA:
		if priv, err = jwt.ParseECPrivateKeyFromPEM([]byte(cfg.PrivateKey)); err == nil {
			pub, err = jwt.ParseECPublicKeyFromPEM([]byte(cfg.PublicKey))
		}
	case *jwt.SigningMethodEd25519:
		var edPriv crypto.PrivateKey
		var edPub crypto.PublicKey
		if edPriv, err = jwt.ParseEdPrivateKeyFromPEM([]byte(cfg.PrivateKey)); err == nil {
			edPub, err = jwt.ParseEdPublicKeyFromPEM([]byte(cfg.PublicKey))
		}
		priv, pub = edPriv, edPub
	default:
		return nil, errors.Config(fmt.Sprintf("algorithm %q cannot be used with a keypair", cfg.Algorithm))
	}
	if err != nil {
		return nil, errors.Config("parse keypair").WithCause(err)
	}

	return &KeySet{
		mode:      ModeAsymmetric,
		method:    method,
		signKey:   priv,
		verifyKey: pub,
	}, nil
}

func (k *KeySet) Mode() Mode        { return k.mode }
func (k *KeySet) Algorithm() string { return k.method.Alg() }

// Insecure reports whether the built-in default secret is in use.
func (k *KeySet) Insecure() bool { return k.insecure }

// SigningKey returns the key to sign with. A non-empty secret overrides the configured one for
// this call only; in asymmetric mode an override is a validation error.
func (k *KeySet) SigningKey(secret string) (interface{}, error) {
	return k.resolve(secret, k.signKey)
}

// VerificationKey is the verifying counterpart of SigningKey.
func (k *KeySet) VerificationKey(secret string) (interface{}, error) {
	return k.resolve(secret, k.verifyKey)
}

func (k *KeySet) resolve(secret string, configured interface{}) (interface{}, error) {
	if secret == "" {
		return configured, nil
	}
	if k.mode == ModeAsymmetric {
		return nil, errors.Validation("a per-call secret cannot be used when a keypair is configured")
	}
	return []byte(secret), nil
}
