// Package ledger replays a trade history into per-symbol cost basis in the
// reporting currency, using weighted-average cost accounting.
package ledger

import (
	"context"
	"log"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/model"
)

// zeroEpsilon is the quantity magnitude below which a position is considered
// flat. Repeated partial sells leave floating-point residue; snapping both
// quantity and basis to zero keeps closed positions out of the ledger.
const zeroEpsilon = 1e-4

// RateResolver resolves a conversion rate between two currencies on a date.
// A returned rate of zero means the rate is unavailable.
type RateResolver interface {
	Resolve(ctx context.Context, currency string, date time.Time, target string) float64
}

// Reconstructor replays trades into a cost-basis ledger.
//
// The result is a pure function of the input trades and aliases, so passes
// are memoized by an input-content signature: repeated requests against
// unchanged source data return the previous ledger without recomputation.
type Reconstructor struct {
	fx        RateResolver
	reporting string

	mu            sync.Mutex
	lastSignature string
	lastLedger    map[string]model.CostBasisEntry
}

// NewReconstructor creates a Reconstructor converting every trade into the
// reporting currency through fx.
func NewReconstructor(fx RateResolver, reportingCurrency string) *Reconstructor {
	return &Reconstructor{
		fx:        fx,
		reporting: strings.ToUpper(reportingCurrency),
	}
}

// Canonical returns the canonical symbol for raw, passing it through
// unchanged when no alias is registered.
func Canonical(raw string, aliases map[string]string) string {
	if canonical, ok := aliases[raw]; ok {
		return canonical
	}
	return raw
}

// Reconstruct replays trades in chronological order and returns the cost
// basis per canonical symbol. Closed positions (zero final quantity) are
// dropped from the result.
//
// When signature matches the previous call's signature the memoized ledger
// is returned. Pass an empty signature to force recomputation.
func (r *Reconstructor) Reconstruct(ctx context.Context, trades []model.Trade, aliases map[string]string, signature string) map[string]model.CostBasisEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if signature != "" && signature == r.lastSignature && r.lastLedger != nil {
		return r.lastLedger
	}

	ledger := r.replay(ctx, trades, aliases)

	r.lastSignature = signature
	r.lastLedger = ledger
	return ledger
}

func (r *Reconstructor) replay(ctx context.Context, trades []model.Trade, aliases map[string]string) map[string]model.CostBasisEntry {
	// Stable sort preserves input order for equal timestamps, keeping the
	// replay deterministic for a given input ordering.
	ordered := make([]model.Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Time.Before(ordered[j].Time)
	})

	ledger := make(map[string]model.CostBasisEntry)

	for _, trade := range ordered {
		symbol := Canonical(trade.Symbol, aliases)
		entry := ledger[symbol]
		if entry.Currency == "" {
			entry.Currency = trade.Currency
		}

		switch {
		case trade.Quantity > 0:
			rate := r.fx.Resolve(ctx, trade.Currency, trade.Time, r.reporting)
			cost := (trade.Quantity*trade.Price + math.Abs(trade.Fee)) * rate
			entry.Quantity += trade.Quantity
			entry.CostBasis += cost

		case trade.Quantity < 0:
			sold := math.Abs(trade.Quantity)
			if entry.Quantity > 0 {
				fraction := math.Min(1.0, sold/entry.Quantity)
				entry.CostBasis -= entry.CostBasis * fraction
			} else {
				// Sell against a flat or short book: quantity-only
				// decrement, flagged as a data-quality signal.
				log.Printf("ledger: %v: sell of %.4f %s with no tracked position",
					apperrors.ErrOversell, sold, symbol)
			}
			entry.Quantity -= sold
		}

		if math.Abs(entry.Quantity) < zeroEpsilon {
			entry.Quantity = 0
			entry.CostBasis = 0
		}

		ledger[symbol] = entry
	}

	for symbol, entry := range ledger {
		if entry.Quantity == 0 {
			delete(ledger, symbol)
		}
	}

	return ledger
}
