// Package kvstore implements a key/value cache over an ordered list of
// storage tiers. Reads walk the tiers in preference order; writes land in
// the first tier that is available and nowhere else.
package kvstore

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrNoTierAvailable is returned by Set when every tier is unavailable.
var ErrNoTierAvailable = errors.New("kvstore: no storage tier available")

// Tier is one backing store.
type Tier interface {
	Name() string
	// Available reports whether the tier can be used right now.
	Available(ctx context.Context) bool
	// Get returns found=false for a missing key; that is not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store is the tiered KeyValueStore. The first tier is preferred.
type Store struct {
	tiers  []Tier
	logger *zap.Logger
}

// New builds a Store trying tiers in the given order. Nil tiers are skipped.
func New(logger *zap.Logger, tiers ...Tier) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	kept := make([]Tier, 0, len(tiers))
	for _, t := range tiers {
		if t != nil {
			kept = append(kept, t)
		}
	}
	return &Store{tiers: kept, logger: logger}
}

// Tiers returns the tier names in preference order.
func (s *Store) Tiers() []string {
	names := make([]string, 0, len(s.tiers))
	for _, t := range s.tiers {
		names = append(names, t.Name())
	}
	return names
}

// Get returns the value from the first tier that holds key. Tier errors are
// logged and treated as a miss on that tier.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	for _, t := range s.tiers {
		if !t.Available(ctx) {
			continue
		}
		value, found, err := t.Get(ctx, key)
		if err != nil {
			s.logger.Warn("cache tier read failed",
				zap.String("tier", t.Name()),
				zap.String("key", key),
				zap.Error(err),
			)
			continue
		}
		if found {
			return value, true
		}
	}
	return nil, false
}

// Set writes value to the first available tier.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	for _, t := range s.tiers {
		if !t.Available(ctx) {
			continue
		}
		return t.Set(ctx, key, value)
	}
	return ErrNoTierAvailable
}
