// Package ledger keeps the set of revoked tokens inside a namespace of a KVStore.
package ledger

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/turtacn/tokenlife/internal/domain/repository"
	"github.com/turtacn/tokenlife/pkg/constants"
	"github.com/turtacn/tokenlife/pkg/errors"
	"github.com/turtacn/tokenlife/pkg/logger"
)

const (
	defaultCacheTTL     = time.Minute
	defaultCacheCleanup = 5 * time.Minute
)

// Ledger is the revocation ledger. Each entry is stored as key <namespace><token>, value <token>.
//
// Positive lookups are cached in-process. A token found revoked stays revoked until Remove,
// and Remove evicts it, so a cached hit can never report a token as valid; "not revoked" is
// always read from the store.
type Ledger struct {
	store     repository.KVStore
	namespace string
	revoked   *cache.Cache
	log       logger.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger's logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Ledger) {
		l.log = log.WithComponent("ledger")
	}
}

// WithCacheTTL sets how long a positive lookup is cached. Zero disables the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		if ttl <= 0 {
			l.revoked = nil
			return
		}
		l.revoked = cache.New(ttl, defaultCacheCleanup)
	}
}

// New creates a ledger over store. An empty namespace selects constants.DefaultLedgerNamespace.
func New(store repository.KVStore, namespace string, opts ...Option) *Ledger {
	if namespace == "" {
		namespace = constants.DefaultLedgerNamespace
	}
	l := &Ledger{
		store:     store,
		namespace: namespace,
		revoked:   cache.New(defaultCacheTTL, defaultCacheCleanup),
		log:       logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Namespace returns the key prefix the ledger writes under.
func (l *Ledger) Namespace() string {
	return l.namespace
}

// Store returns the underlying key-value store.
func (l *Ledger) Store() repository.KVStore {
	return l.store
}

func (l *Ledger) key(token string) []byte {
	return []byte(l.namespace + token)
}

// Record adds token to the ledger. Recording an already revoked token is a no-op.
func (l *Ledger) Record(ctx context.Context, token string) error {
	if err := l.store.Put(ctx, l.key(token), []byte(token)); err != nil {
		l.log.Error(ctx, "Failed to record revoked token", err, logger.Token("token", token))
		return errors.Store("put", err)
	}
	if l.revoked != nil {
		l.revoked.SetDefault(token, struct{}{})
	}
	return nil
}

// IsRevoked reports whether token is in the ledger.
func (l *Ledger) IsRevoked(ctx context.Context, token string) (bool, error) {
	if l.revoked != nil {
		if _, ok := l.revoked.Get(token); ok {
			return true, nil
		}
	}

	_, err := l.store.Get(ctx, l.key(token))
	if stderrors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Store("get", err)
	}

	if l.revoked != nil {
		l.revoked.SetDefault(token, struct{}{})
	}
	return true, nil
}

// Remove deletes token from the ledger. Removing an absent token is a no-op.
func (l *Ledger) Remove(ctx context.Context, token string) error {
	if l.revoked != nil {
		l.revoked.Delete(token)
	}
	if err := l.store.Delete(ctx, l.key(token)); err != nil {
		return errors.Store("delete", err)
	}
	return nil
}

// Scan calls fn for every revoked token in key order. Returning repository.ErrStopScan from fn
// ends the scan without error; any other error aborts it and is returned unchanged. fn may
// Remove the token it is handed.
func (l *Ledger) Scan(ctx context.Context, fn func(token string) error) error {
	var fnErr error
	err := l.store.Scan(ctx, []byte(l.namespace), func(_, value []byte) error {
		if err := fn(string(value)); err != nil {
			if err != repository.ErrStopScan {
				fnErr = err
			}
			return err
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return errors.Store("scan", err)
	}
	return nil
}

// Count returns the number of entries in the ledger.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	n := 0
	err := l.Scan(ctx, func(string) error {
		n++
		return nil
	})
	return n, err
}
