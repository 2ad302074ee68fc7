package fx

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mhorak/ibfolio/internal/kvstore"
)

// minorUnitFactor maps minor-unit currency codes to their major-unit code
// and scale. Pence-denominated tickers quote 1/100 of a pound.
var minorUnitFactor = map[string]struct {
	major  string
	factor float64
}{
	"GBX":     {"GBP", 0.01},
	"GBPENCE": {"GBP", 0.01},
}

// Resolver resolves conversion rates between two currencies on a date.
//
// Every cross rate is triangulated through one pivot currency so that rates
// stay mutually consistent: mixing independently sourced cross rates from
// different days would let A->B and A->pivot->B disagree. The secondary
// source is consulted only when the primary fixing cannot serve a request,
// which keeps warm-cache runs reproducible.
//
// A resolved rate of zero means "unavailable"; callers must treat it as
// "cannot value precisely", never as a real rate. Historical rates are
// immutable once published, so cache entries are never invalidated.
type Resolver struct {
	pivot     string
	cache     *kvstore.Store[float64]
	primary   PivotRateSource
	secondary CrossRateSource
}

// NewResolver creates a Resolver triangulating through pivot, caching every
// fetched rate in cache.
func NewResolver(pivot string, cache *kvstore.Store[float64], primary PivotRateSource, secondary CrossRateSource) *Resolver {
	return &Resolver{
		pivot:     strings.ToUpper(strings.TrimSpace(pivot)),
		cache:     cache,
		primary:   primary,
		secondary: secondary,
	}
}

// Pivot returns the pivot (reporting) currency.
func (r *Resolver) Pivot() string {
	return r.pivot
}

// cacheKey builds the composite cache key for a currency pair and date.
func cacheKey(currency, target string, date time.Time) string {
	return fmt.Sprintf("%s_%s_%s", currency, target, date.Format("2006-01-02"))
}

// Resolve returns target units per one unit of currency on date, or 0 when
// no provider could supply the rate.
func (r *Resolver) Resolve(ctx context.Context, currency string, date time.Time, target string) float64 {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	target = strings.ToUpper(strings.TrimSpace(target))

	// Minor-unit codes convert through their major unit.
	factor := 1.0
	if m, ok := minorUnitFactor[currency]; ok {
		currency = m.major
		factor = m.factor
	}

	// Identity resolves without touching the cache.
	if currency == target {
		return 1.0 * factor
	}

	key := cacheKey(currency, target, date)
	if cached, ok := r.cache.Get(key); ok {
		return cached * factor
	}

	value := r.fetch(ctx, currency, date, target)
	if value <= 0 {
		return 0
	}

	if err := r.cache.Put(key, value); err != nil {
		log.Printf("fx: failed to persist rate %s: %v", key, err)
	}
	return value * factor
}

// fetch resolves a non-identity, non-cached rate through the pivot.
func (r *Resolver) fetch(ctx context.Context, currency string, date time.Time, target string) float64 {
	switch {
	case target == r.pivot:
		// Direct: currency -> pivot.
		value, err := r.primary.PivotRate(ctx, currency, date)
		if err == nil && value > 0 {
			return value
		}
		log.Printf("fx: primary missing direct rate for %s on %s, using secondary: %v",
			currency, date.Format("2006-01-02"), err)
		return r.secondaryRate(ctx, currency, date, target)

	case currency == r.pivot:
		// Inverse: pivot -> target.
		inverse, err := r.primary.PivotRate(ctx, target, date)
		if err != nil || inverse <= 0 {
			inverse = r.secondaryRate(ctx, target, date, r.pivot)
		}
		if inverse <= 0 {
			return 0
		}
		return 1.0 / inverse

	default:
		// Cross rate: currency -> target via the pivot.
		src, srcErr := r.primary.PivotRate(ctx, currency, date)
		tgt, tgtErr := r.primary.PivotRate(ctx, target, date)
		if srcErr == nil && tgtErr == nil && src > 0 && tgt > 0 {
			return src / tgt
		}
		log.Printf("fx: primary missing leg for %s/%s on %s, using secondary cross rate",
			currency, target, date.Format("2006-01-02"))
		return r.secondaryRate(ctx, currency, date, target)
	}
}

func (r *Resolver) secondaryRate(ctx context.Context, from string, date time.Time, to string) float64 {
	value, err := r.secondary.Rate(ctx, from, date, to)
	if err != nil || value <= 0 {
		return 0
	}
	return value
}
