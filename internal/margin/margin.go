// Package margin computes the interest cost of debit cash balances using
// per-currency tiered rate schedules.
package margin

import "math"

// Tier is one rung of a rate schedule: balances up to Limit (beyond the
// previous tier's limit) accrue at AnnualRate percent per year. The last
// tier of every schedule is unbounded.
type Tier struct {
	Limit      float64
	AnnualRate float64
}

// Cost is the interest cost of a debit balance.
type Cost struct {
	Annual        float64 `json:"annual"`
	Daily         float64 `json:"daily"`
	EffectiveRate float64 `json:"effective_rate"`
}

// debitEpsilon tolerates float residue around zero; balances at or above
// -0.01 are treated as no debit.
const debitEpsilon = -0.01

// tierTables holds the published margin schedules per currency. Limits are
// in the balance currency, ascending, last tier unbounded.
var tierTables = map[string][]Tier{
	"USD": {
		{Limit: 100000, AnnualRate: 5.14},
		{Limit: 1000000, AnnualRate: 4.64},
		{Limit: 50000000, AnnualRate: 4.39},
		{Limit: math.Inf(1), AnnualRate: 4.14},
	},
	"EUR": {
		{Limit: 100000, AnnualRate: 4.88},
		{Limit: 1000000, AnnualRate: 4.38},
		{Limit: math.Inf(1), AnnualRate: 4.13},
	},
	"CZK": {
		{Limit: 2500000, AnnualRate: 6.75},
		{Limit: math.Inf(1), AnnualRate: 6.25},
	},
}

// defaultTiers applies to currencies without a published schedule.
var defaultTiers = []Tier{
	{Limit: math.Inf(1), AnnualRate: 6.0},
}

// dayCount returns the day-count convention for a currency.
func dayCount(currency string) float64 {
	switch currency {
	case "USD", "EUR":
		return 360
	default:
		return 365
	}
}

// Tiers returns the rate schedule for a currency, falling back to the
// default schedule for unlisted currencies.
func Tiers(currency string) []Tier {
	if tiers, ok := tierTables[currency]; ok {
		return tiers
	}
	return defaultTiers
}

// InterestCost returns the annual and daily interest cost of balance in the
// given currency, plus the blended effective rate. A non-debit balance
// costs nothing.
func InterestCost(currency string, balance float64) Cost {
	if balance >= debitEpsilon {
		return Cost{}
	}
	return interestCost(Tiers(currency), dayCount(currency), -balance)
}

// interestCost walks the tier schedule: each tier's capacity is its limit
// minus the previous limit, and the debt taxed at that tier is the smaller
// of the remaining debt and the capacity.
func interestCost(tiers []Tier, days float64, debt float64) Cost {
	var annual float64
	remaining := debt
	previousLimit := 0.0

	for _, tier := range tiers {
		if remaining <= 0 {
			break
		}
		capacity := tier.Limit - previousLimit
		amount := math.Min(remaining, capacity)
		annual += amount * tier.AnnualRate / 100
		remaining -= amount
		previousLimit = tier.Limit
	}

	return Cost{
		Annual:        annual,
		Daily:         annual / days,
		EffectiveRate: annual / debt * 100,
	}
}
