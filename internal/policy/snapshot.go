package policy

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-chaldduck/internal/pricing"
)

const snapshotCacheKey = "policy:snapshot:active"

// ActiveLister answers active-rule queries; satisfied by *Store.
type ActiveLister interface {
	ListActiveShippingRules(ctx context.Context, at time.Time) ([]ShippingRule, error)
	ListActiveDiscountRules(ctx context.Context, at time.Time) ([]DiscountRule, error)
}

// Snapshot is an immutable view of the rules active at TakenAt. Every
// pricing evaluation reads one snapshot; rule writes never touch it.
type Snapshot struct {
	TakenAt  time.Time      `json:"takenAt"`
	Shipping []ShippingRule `json:"shipping"`
	Discount []DiscountRule `json:"discount"`
}

// RuleSet converts the snapshot into the engine's evaluation form.
// Rows whose type fails to parse are skipped rather than failing the
// evaluation; the store validation makes them unreachable in practice.
func (s Snapshot) RuleSet(logger *zerolog.Logger) pricing.RuleSet {
	rs := pricing.RuleSet{
		Shipping: make([]pricing.ShippingRule, 0, len(s.Shipping)),
		Discount: make([]pricing.DiscountRule, 0, len(s.Discount)),
	}
	for _, r := range s.Shipping {
		rs.Shipping = append(rs.Shipping, r.Engine())
	}
	for _, r := range s.Discount {
		converted, err := r.Engine()
		if err != nil {
			if logger != nil {
				logger.Warn().Err(err).Int64("rule_id", r.ID).Msg("skip malformed discount rule")
			}
			continue
		}
		rs.Discount = append(rs.Discount, converted)
	}
	return rs
}

// SnapshotLoader reads the active rule snapshot through a Redis cache.
type SnapshotLoader struct {
	Store ActiveLister
	Cache *Cache
}

// Load returns the snapshot of rules active at the given instant,
// serving from cache when a recent snapshot exists.
func (l *SnapshotLoader) Load(ctx context.Context, at time.Time) (Snapshot, error) {
	var cached Snapshot
	if hit, err := l.Cache.GetJSON(ctx, snapshotCacheKey, &cached); err == nil && hit {
		return cached, nil
	}
	return l.Refresh(ctx, at)
}

// Refresh bypasses the cache, loads the snapshot from the store, and
// repopulates the cache. Used by Load on miss and by the warmer.
func (l *SnapshotLoader) Refresh(ctx context.Context, at time.Time) (Snapshot, error) {
	shipping, err := l.Store.ListActiveShippingRules(ctx, at)
	if err != nil {
		return Snapshot{}, err
	}
	discount, err := l.Store.ListActiveDiscountRules(ctx, at)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{TakenAt: at, Shipping: shipping, Discount: discount}
	_ = l.Cache.SetJSON(ctx, snapshotCacheKey, snap)
	return snap, nil
}

// Invalidate drops the cached snapshot. Called after every rule write.
func (l *SnapshotLoader) Invalidate(ctx context.Context) {
	_ = l.Cache.Delete(ctx, snapshotCacheKey)
}
