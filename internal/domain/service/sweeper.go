package service

import (
	"context"
	"time"

	"github.com/turtacn/tokenlife/internal/domain/models"
	"github.com/turtacn/tokenlife/pkg/errors"
	"github.com/turtacn/tokenlife/pkg/logger"
)

// Sweeper purges revocation entries that no longer need tracking.
//
// Every entry is decoded under the current verification key. An entry that fails to decode
// for any reason (expired, malformed, signed under another key) can never verify again, so it
// is removed. Entries that still decode are kept and handed to the RetainFunc.
// Sweeper 清理不再需要跟踪的吊销记录。
type Sweeper struct {
	ledger RevocationLedger
	codec  Codec
	retain RetainFunc
	log    logger.Logger
}

// NewSweeper creates a sweeper. retain may be nil.
func NewSweeper(ledger RevocationLedger, codec Codec, retain RetainFunc, log logger.Logger) *Sweeper {
	if retain == nil {
		retain = func(context.Context, string, *models.DecodedToken) {}
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	return &Sweeper{
		ledger: ledger,
		codec:  codec,
		retain: retain,
		log:    log.WithComponent("sweeper"),
	}
}

// Sweep runs one full pass over the ledger using key and alg for decoding.
// A failed removal aborts the pass; the partial counts are returned alongside the error.
func (s *Sweeper) Sweep(ctx context.Context, key interface{}, alg string) (*models.SweepResult, error) {
	start := time.Now()
	result := &models.SweepResult{}

	err := s.ledger.Scan(ctx, func(token string) error {
		result.Scanned++

		decoded, err := s.codec.Decode(token, key, alg)
		if err != nil {
			if rmErr := s.ledger.Remove(ctx, token); rmErr != nil {
				s.log.Error(ctx, "Failed to remove ledger entry", rmErr, logger.Token("token", token))
				return rmErr
			}
			result.Removed++
			s.log.Debug(ctx, "Removed ledger entry",
				logger.Token("token", token), logger.String("reason", string(errors.CodeOf(err))))
			return nil
		}

		result.Retained++
		s.retain(ctx, token, decoded)
		return nil
	})
	result.Duration = time.Since(start)

	if err != nil {
		s.log.Error(ctx, "Sweep aborted", err,
			logger.Int("scanned", result.Scanned), logger.Int("removed", result.Removed))
		return result, err
	}

	s.log.Info(ctx, "Sweep completed",
		logger.Int("scanned", result.Scanned),
		logger.Int("removed", result.Removed),
		logger.Int("retained", result.Retained),
		logger.Duration("duration", result.Duration),
	)
	return result, nil
}
