// Package crypto encodes claims into signed, time-bounded JWTs and decodes them back.
package crypto

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/turtacn/tokenlife/internal/domain/models"
	"github.com/turtacn/tokenlife/pkg/constants"
	"github.com/turtacn/tokenlife/pkg/errors"
	"github.com/turtacn/tokenlife/pkg/utils"
)

// Codec is stateless apart from its clock; one instance is safe for concurrent use.
type Codec struct {
	now func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithClock replaces time.Now as the source of iat, exp and the expiry check.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// NewCodec creates a new Codec.
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the codec's current time.
func (c *Codec) Now() time.Time {
	return c.now()
}

// Encode signs claims with key under alg. The token expires expiresIn after the current time
// and carries a fresh jti, so identical claims never produce identical tokens.
// A zero or negative expiresIn yields a token that is already expired.
func (c *Codec) Encode(claims *models.Claims, key interface{}, alg string, expiresIn time.Duration) (string, error) {
	if claims == nil || utils.IsBlank(claims.Auth) || utils.IsBlank(claims.Access) {
		return "", errors.Validation("auth and access claims are required")
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil {
		return "", errors.Config(fmt.Sprintf("unknown algorithm %q", alg))
	}

	now := c.now()
	mc := jwt.MapClaims{
		constants.ClaimAuth:     claims.Auth,
		constants.ClaimAccess:   claims.Access,
		constants.ClaimIssuedAt: jwt.NewNumericDate(now),
		constants.ClaimExpires:  jwt.NewNumericDate(now.Add(expiresIn)),
		constants.ClaimID:       uuid.NewString(),
	}
	if claims.Data != nil {
		mc[constants.ClaimData] = claims.Data
	}

	signed, err := jwt.NewWithClaims(method, mc).SignedString(key)
	if err != nil {
		return "", errors.Config("sign token").WithCause(err)
	}
	return signed, nil
}

// Decode verifies token with key, pinned to alg, and returns its claims and registered fields.
//
// Errors: Malformed for anything that is not a well-formed JWT, Signature when the signature
// does not verify or the header names another algorithm, Expired once exp has passed.
func (c *Codec) Decode(token string, key interface{}, alg string) (*models.DecodedToken, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{alg}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	mc := jwt.MapClaims{}
	parsed, err := parser.ParseWithClaims(token, mc, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	if !parsed.Valid {
		return nil, errors.Signature(jwt.ErrTokenSignatureInvalid)
	}

	out := &models.DecodedToken{
		Claims: models.Claims{
			Auth:   mc[constants.ClaimAuth],
			Access: mc[constants.ClaimAccess],
			Data:   mc[constants.ClaimData],
		},
		Metadata: models.TokenMetadata{Algorithm: alg},
	}
	if utils.IsBlank(out.Claims.Auth) || utils.IsBlank(out.Claims.Access) {
		return nil, errors.Malformed(fmt.Errorf("token is missing auth or access claims"))
	}
	if jti, ok := mc[constants.ClaimID].(string); ok {
		out.Metadata.ID = jti
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		out.Metadata.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.Metadata.ExpiresAt = exp.Time
	}
	return out, nil
}

func mapParseError(err error) error {
	switch {
	case stderrors.Is(err, jwt.ErrTokenMalformed):
		return errors.Malformed(err)
	case stderrors.Is(err, jwt.ErrTokenSignatureInvalid), stderrors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.Signature(err)
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return errors.Expired(err)
	default:
		return errors.Malformed(err)
	}
}
