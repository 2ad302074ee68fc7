package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"

	"github.com/mhorak/ibfolio/internal/model"
	"github.com/mhorak/ibfolio/internal/repository"
)

// MakeID generates a fresh UUID string for test entities.
func MakeID() string {
	return uuid.New().String()
}

// Float returns a pointer to the given float, for optional zone fields.
func Float(v float64) *float64 {
	return &v
}

// MetadataBuilder provides a fluent interface for creating symbol overrides.
//
// Example usage:
//
//	meta := testutil.NewMetadata("AAPL").
//	    WithZones(150, 220).
//	    WithCountry("US").
//	    Build(t, db)
type MetadataBuilder struct {
	meta model.MetadataOverride
}

// NewMetadata creates a MetadataBuilder for the given symbol.
func NewMetadata(symbol string) *MetadataBuilder {
	return &MetadataBuilder{meta: model.MetadataOverride{Symbol: symbol}}
}

// WithZones sets the buy and sell zone prices.
func (b *MetadataBuilder) WithZones(buy, sell float64) *MetadataBuilder {
	b.meta.BuyZone = Float(buy)
	b.meta.SellZone = Float(sell)
	return b
}

// WithCountry sets the country override.
func (b *MetadataBuilder) WithCountry(country string) *MetadataBuilder {
	b.meta.CountryOverride = country
	return b
}

// WithNote sets the free-form note.
func (b *MetadataBuilder) WithNote(note string) *MetadataBuilder {
	b.meta.Note = note
	return b
}

// Build stores the override and returns it.
func (b *MetadataBuilder) Build(t *testing.T, db *sql.DB) model.MetadataOverride {
	t.Helper()

	repo := repository.NewMetadataRepository(db)
	if err := repo.Upsert(context.Background(), b.meta); err != nil {
		t.Fatalf("Failed to create test metadata: %v", err)
	}
	return b.meta
}

// OptionTradeBuilder provides a fluent interface for creating journaled
// option trades.
//
// Example usage:
//
//	trade := testutil.NewOptionTrade("SPY").
//	    WithType("SELL PUT").
//	    WithStrike(450).
//	    Build(t, db)
type OptionTradeBuilder struct {
	trade model.OptionTrade
}

// NewOptionTrade creates an OptionTradeBuilder with sensible defaults.
func NewOptionTrade(ticker string) *OptionTradeBuilder {
	return &OptionTradeBuilder{
		trade: model.OptionTrade{
			ID:         MakeID(),
			Ticker:     ticker,
			Type:       "SELL PUT",
			Strike:     100,
			Expiration: "2025-06-20",
			Premium:    250,
			Fees:       1.1,
			Currency:   "USD",
			Status:     "OPEN",
			DateOpened: "2025-01-02",
		},
	}
}

// WithID sets a custom ID.
func (b *OptionTradeBuilder) WithID(id string) *OptionTradeBuilder {
	b.trade.ID = id
	return b
}

// WithType sets the trade type (e.g. "BUY CALL").
func (b *OptionTradeBuilder) WithType(t string) *OptionTradeBuilder {
	b.trade.Type = t
	return b
}

// WithStrike sets the strike price.
func (b *OptionTradeBuilder) WithStrike(strike float64) *OptionTradeBuilder {
	b.trade.Strike = strike
	return b
}

// WithStatus sets the trade status.
func (b *OptionTradeBuilder) WithStatus(status string) *OptionTradeBuilder {
	b.trade.Status = status
	return b
}

// WithPremium sets the collected premium.
func (b *OptionTradeBuilder) WithPremium(premium float64) *OptionTradeBuilder {
	b.trade.Premium = premium
	return b
}

// WithDateOpened sets the open date (YYYY-MM-DD).
func (b *OptionTradeBuilder) WithDateOpened(date string) *OptionTradeBuilder {
	b.trade.DateOpened = date
	return b
}

// WithExpiration sets the expiration date (YYYY-MM-DD).
func (b *OptionTradeBuilder) WithExpiration(date string) *OptionTradeBuilder {
	b.trade.Expiration = date
	return b
}

// Build stores the trade and returns it.
func (b *OptionTradeBuilder) Build(t *testing.T, db *sql.DB) model.OptionTrade {
	t.Helper()

	repo := repository.NewOptionsRepository(db)
	if err := repo.Insert(context.Background(), b.trade); err != nil {
		t.Fatalf("Failed to create test option trade: %v", err)
	}
	return b.trade
}
