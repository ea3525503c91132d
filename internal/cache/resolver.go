// Package cache memoizes standardized addresses so repeat lookups skip the
// USPS round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/usps/internal/address"
	"github.com/dukerupert/usps/internal/telemetry"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// KeyPrefix namespaces standardized addresses in the store.
const KeyPrefix = "usps:std:"

// DefaultTTL applies when NewResolver is given a zero TTL.
const DefaultTTL = 24 * time.Hour

// Resolver wraps another address.Resolver with a read-through cache.
// Only successful slots are cached. Store failures are logged and treated as
// misses so the cache never fails a lookup on its own.
type Resolver struct {
	next   address.Resolver
	store  Store
	ttl    time.Duration
	logger *slog.Logger
}

// Compile-time check to ensure Resolver implements address.Resolver.
var _ address.Resolver = (*Resolver)(nil)

// NewResolver creates a caching resolver in front of next.
func NewResolver(next address.Resolver, store Store, ttl time.Duration, logger *slog.Logger) *Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{next: next, store: store, ttl: ttl, logger: logger}
}

// Resolve answers cached addresses from the store and forwards the rest to
// the wrapped resolver in a single call.
func (r *Resolver) Resolve(ctx context.Context, addrs []*address.Address) (*address.Result, error) {
	slots := make([]address.Slot, len(addrs))
	keys := make([]string, len(addrs))
	var misses []*address.Address
	missIdx := make(map[*address.Address]int)

	for i, a := range addrs {
		keys[i] = Key(a)
		slots[i].Input = a

		if out, ok := r.lookup(ctx, keys[i]); ok {
			out.Name = a.Clone().Name
			slots[i].Output = out
			continue
		}

		if _, dup := missIdx[a]; !dup {
			missIdx[a] = i
			misses = append(misses, a)
		}
	}

	if len(misses) > 0 {
		result, err := r.next.Resolve(ctx, misses)
		if err != nil {
			return nil, err
		}

		for i, a := range addrs {
			if slots[i].Output != nil {
				continue
			}
			s, ok := result.Slot(a)
			if !ok {
				slots[i].Err = address.ErrMissingSlot
				continue
			}
			slots[i] = s
			if s.Err == nil && i == missIdx[a] {
				r.save(ctx, keys[i], s.Output)
			}
		}
	}

	return address.NewResult(slots...)
}

func (r *Resolver) lookup(ctx context.Context, key string) (*address.Address, bool) {
	b, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.logger.Warn("cache lookup failed", "key", key, "error", err)
		telemetry.RecordCacheLookup("error")
		return nil, false
	}
	if !ok {
		telemetry.RecordCacheLookup("miss")
		return nil, false
	}

	var out address.Address
	if err := json.Unmarshal(b, &out); err != nil {
		r.logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		telemetry.RecordCacheLookup("error")
		return nil, false
	}

	telemetry.RecordCacheLookup("hit")
	return &out, true
}

func (r *Resolver) save(ctx context.Context, key string, out *address.Address) {
	entry := out.Clone()
	entry.Name = nil

	b, err := json.Marshal(entry)
	if err != nil {
		r.logger.Warn("failed to encode cache entry", "key", key, "error", err)
		return
	}
	if err := r.store.Set(ctx, key, b, r.ttl); err != nil {
		r.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Key derives the cache key for a. The recipient name is left out because it
// does not affect standardization.
func Key(a *address.Address) string {
	upper := cases.Upper(language.AmericanEnglish)

	parts := make([]string, 0, 7)
	for _, v := range []*string{a.Company, a.Address1, a.Address2, a.City, a.State, a.Zip5, a.Zip4} {
		var s string
		if v != nil {
			s = strings.Join(strings.Fields(upper.String(*v)), " ")
		}
		parts = append(parts, s)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return KeyPrefix + hex.EncodeToString(sum[:])
}
