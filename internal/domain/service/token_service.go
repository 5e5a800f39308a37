// Package service 定义令牌生命周期的领域服务
// TokenService signs, verifies and revokes tokens and sweeps the revocation ledger.
package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/tokenlife/internal/domain/models"
	"github.com/turtacn/tokenlife/pkg/constants"
	"github.com/turtacn/tokenlife/pkg/errors"
	"github.com/turtacn/tokenlife/pkg/logger"
	"github.com/turtacn/tokenlife/pkg/utils"
)

// Revocation sources, used as the metrics label and the event source.
const (
	SourceAPI   = "api"
	SourceEvent = "event"
)

// TokenService Token 生命周期服务
// Every method is safe for concurrent use. Per-call options never change instance state.
type TokenService struct {
	ledger           RevocationLedger
	codec            Codec
	keys             KeyResolver
	sweeper          *Sweeper
	publisher        RevocationPublisher
	instanceID       string
	defaultExpiresIn time.Duration
	retain           RetainFunc

	log     logger.Logger
	metrics Metrics
	tracer  trace.Tracer
	sweeps  singleflight.Group
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *TokenService) {
		s.log = log
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *TokenService) {
		s.metrics = m
	}
}

// WithTracer sets the tracer spans are started from.
func WithTracer(t trace.Tracer) Option {
	return func(s *TokenService) {
		s.tracer = t
	}
}

// WithPublisher announces every Invalidate through p. instanceID tags the events so the
// instance can skip its own events when they come back.
func WithPublisher(p RevocationPublisher, instanceID string) Option {
	return func(s *TokenService) {
		s.publisher = p
		s.instanceID = instanceID
	}
}

// WithDefaultExpiresIn sets the lifetime used when SignOptions.ExpiresIn is empty.
func WithDefaultExpiresIn(d time.Duration) Option {
	return func(s *TokenService) {
		if d > 0 {
			s.defaultExpiresIn = d
		}
	}
}

// WithRetainFunc sets the callback receiving ledger entries kept by a sweep.
func WithRetainFunc(fn RetainFunc) Option {
	return func(s *TokenService) {
		s.retain = fn
	}
}

// NewTokenService creates the service.
func NewTokenService(ledger RevocationLedger, codec Codec, keys KeyResolver, opts ...Option) *TokenService {
	defaultExpiresIn, _ := utils.ParseExpiresIn(constants.DefaultExpiresIn)
	s := &TokenService{
		ledger:           ledger,
		codec:            codec,
		keys:             keys,
		defaultExpiresIn: defaultExpiresIn,
		log:              logger.NewNoopLogger(),
		metrics:          noopMetrics{},
		tracer:           otel.Tracer(constants.ServiceName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithComponent("token_service")
	s.sweeper = NewSweeper(ledger, codec, s.retain, s.log)

	if keys.Insecure() {
		s.log.Warn(context.Background(), "No signing secret or keypair configured; using the insecure built-in default secret",
			logger.String("algorithm", keys.Algorithm()))
	}
	return s
}

// Ledger exposes the revocation ledger for inspection.
func (s *TokenService) Ledger() RevocationLedger {
	return s.ledger
}

// Sign issues a token for claims. opts overrides the secret and lifetime for this call only.
func (s *TokenService) Sign(ctx context.Context, claims *models.Claims, opts models.SignOptions) (string, error) {
	start := time.Now()
	_, span := s.tracer.Start(ctx, "TokenService.Sign")
	defer span.End()

	token, err := s.sign(claims, opts)
	s.metrics.RecordSign(err, time.Since(start))
	if err != nil {
		recordSpanError(span, err)
		s.log.Debug(ctx, "Sign rejected", logger.Err(err))
		return "", err
	}
	return token, nil
}

func (s *TokenService) sign(claims *models.Claims, opts models.SignOptions) (string, error) {
	if claims == nil || utils.IsBlank(claims.Auth) || utils.IsBlank(claims.Access) {
		return "", errors.Validation("auth and access claims are required")
	}

	expiresIn := s.defaultExpiresIn
	if opts.ExpiresIn != "" {
		d, err := utils.ParseExpiresIn(opts.ExpiresIn)
		if err != nil {
			return "", errors.Validation("invalid expiresIn").WithCause(err)
		}
		expiresIn = d
	}

	key, err := s.keys.SigningKey(opts.Secret)
	if err != nil {
		return "", err
	}
	return s.codec.Encode(claims, key, s.keys.Algorithm(), expiresIn)
}

// Verify checks token and returns its claims.
//
// The codec runs first; any decode failure is returned without touching the ledger. A token
// that decodes is then looked up in the ledger: listed tokens fail with the revoked error and
// a ledger failure fails the verification.
func (s *TokenService) Verify(ctx context.Context, token string, opts models.VerifyOptions) (*models.Claims, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "TokenService.Verify")
	defer span.End()

	claims, err := s.verify(ctx, token, opts)
	s.metrics.RecordVerify(err, time.Since(start))
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) verify(ctx context.Context, token string, opts models.VerifyOptions) (*models.Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.Validation("token is required")
	}

	key, err := s.keys.VerificationKey(opts.Secret)
	if err != nil {
		return nil, err
	}

	decoded, err := s.codec.Decode(token, key, s.keys.Algorithm())
	if err != nil {
		return nil, err
	}

	revoked, err := s.ledger.IsRevoked(ctx, token)
	if err != nil {
		s.log.Error(ctx, "Revocation lookup failed; rejecting token", err, logger.Token("token", token))
		return nil, err
	}
	if revoked {
		return nil, errors.Revoked()
	}
	return &decoded.Claims, nil
}

// Invalidate revokes token. Revoking a token twice is harmless.
// When a publisher is configured the revocation is also announced; a publish failure is logged
// and does not fail the call, since the local ledger already holds the entry.
func (s *TokenService) Invalidate(ctx context.Context, token string) error {
	ctx, span := s.tracer.Start(ctx, "TokenService.Invalidate")
	defer span.End()

	if strings.TrimSpace(token) == "" {
		err := errors.Validation("token is required")
		recordSpanError(span, err)
		return err
	}

	if err := s.ledger.Record(ctx, token); err != nil {
		recordSpanError(span, err)
		return err
	}
	s.metrics.RecordRevocation(SourceAPI)
	s.log.Info(ctx, "Token revoked", logger.Token("token", token))

	if s.publisher != nil {
		event := models.NewRevocationEvent(token, s.instanceID, s.expiryOf(token))
		if err := s.publisher.PublishRevocation(ctx, event); err != nil {
			s.log.Warn(ctx, "Failed to publish revocation event", logger.Err(err), logger.String("event_id", event.EventID))
		}
	}
	return nil
}

// ApplyRevocation records a revocation announced by another instance. Events this instance
// published itself are ignored.
func (s *TokenService) ApplyRevocation(ctx context.Context, event models.RevocationEvent) error {
	if s.instanceID != "" && event.Source == s.instanceID {
		return nil
	}
	if strings.TrimSpace(event.Token) == "" {
		return errors.Validation("revocation event carries no token")
	}
	if err := s.ledger.Record(ctx, event.Token); err != nil {
		return err
	}
	s.metrics.RecordRevocation(SourceEvent)
	return nil
}

// expiryOf returns the token's expiry when it decodes under the current key, zero otherwise.
func (s *TokenService) expiryOf(token string) time.Time {
	key, err := s.keys.VerificationKey("")
	if err != nil {
		return time.Time{}
	}
	decoded, err := s.codec.Decode(token, key, s.keys.Algorithm())
	if err != nil {
		return time.Time{}
	}
	return decoded.Metadata.ExpiresAt
}

// CleanupInvalidList sweeps the ledger under the current verification key, or under
// opts.Secret for this call. Concurrent calls with the same options share one sweep; a caller whose
// ctx ends stops waiting, but the sweep runs on for the others.
func (s *TokenService) CleanupInvalidList(ctx context.Context, opts models.VerifyOptions) (*models.SweepResult, error) {
	ctx, span := s.tracer.Start(ctx, "TokenService.CleanupInvalidList")
	defer span.End()

	key, err := s.keys.VerificationKey(opts.Secret)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	// the shared sweep must not die with whichever caller started it
	sweepCtx := context.WithoutCancel(ctx)
	ch := s.sweeps.DoChan("sweep:"+opts.Secret, func() (interface{}, error) {
		res, sweepErr := s.sweeper.Sweep(sweepCtx, key, s.keys.Algorithm())
		s.metrics.RecordSweep(res, sweepErr)
		return res, sweepErr
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		recordSpanError(span, ctx.Err())
		return nil, ctx.Err()
	}
	v, err, shared := res.Val, res.Err, res.Shared
	result, _ := v.(*models.SweepResult)

	if result != nil {
		span.SetAttributes(
			attribute.Int("sweep.scanned", result.Scanned),
			attribute.Int("sweep.removed", result.Removed),
			attribute.Bool("sweep.shared", shared),
		)
	}
	if err != nil {
		recordSpanError(span, err)
		return result, err
	}
	return result, nil
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
