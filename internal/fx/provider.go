// Package fx resolves currency conversion rates for a given date through a
// single pivot currency, with a durable cache and a primary/secondary
// provider chain.
package fx

import (
	"context"
	"time"
)

// PivotRateSource quotes a currency directly against the pivot currency:
// the returned rate is pivot units per one unit of currency.
type PivotRateSource interface {
	PivotRate(ctx context.Context, currency string, date time.Time) (float64, error)
}

// CrossRateSource quotes an arbitrary currency pair: the returned rate is
// target units per one unit of from.
type CrossRateSource interface {
	Rate(ctx context.Context, from string, date time.Time, to string) (float64, error)
}
