package valuation

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/mhorak/ibfolio/internal/model"
)

// fakeRates resolves every currency pair from a canned table keyed
// "FROM->TO"; unknown pairs resolve to the zero sentinel.
type fakeRates struct {
	rates map[string]float64
}

func (f *fakeRates) Resolve(_ context.Context, currency string, _ time.Time, target string) float64 {
	if currency == target {
		return 1.0
	}
	return f.rates[currency+"->"+target]
}

// fakeMarket serves canned quotes and live FX rates.
type fakeMarket struct {
	quotes map[string]model.Quote
	fx     map[string]float64 // currency -> target rate
}

func (f *fakeMarket) GetQuotes(_ context.Context, symbols []string) map[string]model.Quote {
	result := make(map[string]model.Quote)
	for _, s := range symbols {
		if q, ok := f.quotes[s]; ok {
			result[s] = q
		}
	}
	return result
}

func (f *fakeMarket) GetLiveFXRates(_ context.Context, currencies []string, target string) map[string]float64 {
	result := make(map[string]float64)
	for _, c := range currencies {
		if c == target {
			result[c] = 1.0
		} else if rate, ok := f.fx[c]; ok {
			result[c] = rate
		}
	}
	return result
}

func newTestEngine(market *fakeMarket) *Engine {
	e := NewEngine(&fakeRates{rates: map[string]float64{
		"USD->CZK": 23.0,
		"USD->USD": 1.0,
		"SEK->CZK": 2.2,
		"SEK->USD": 0.0957,
	}}, market, "CZK", "USD")
	e.now = func() time.Time { return time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC) }
	return e
}

func standardMarket() *fakeMarket {
	return &fakeMarket{
		quotes: map[string]model.Quote{
			"AAPL": {Price: 230, Currency: "USD", Name: "Apple Inc.", High52: 250, Low52: 160, Country: "United States"},
		},
		fx: map[string]float64{"USD": 23.0, "SEK": 2.2, "EUR": 25.0},
	}
}

// TestValuate_Empty tests the empty-input pass.
func TestValuate_Empty(t *testing.T) {
	e := newTestEngine(standardMarket())

	result := e.Valuate(context.Background(), Input{})

	if result.Status != "empty" {
		t.Errorf("Status = %q, want empty", result.Status)
	}
	if len(result.Positions) != 0 {
		t.Errorf("Positions = %v, want none", result.Positions)
	}
}

// TestValuate_LivePriceAndLedgerBasis tests the primary valuation path.
//
// WHY: A live-quoted position must be priced from the quote (source
// "Live") with the ledger's basis scaled to the held quantity.
func TestValuate_LivePriceAndLedgerBasis(t *testing.T) {
	e := newTestEngine(standardMarket())

	result := e.Valuate(context.Background(), Input{
		Positions: []model.Position{
			{Symbol: "AAPL", Quantity: 10, Currency: "USD", ClosePrice: 220, CostBasis: 1500, Multiplier: 1},
		},
		Ledger: map[string]model.CostBasisEntry{
			"AAPL": {Quantity: 10, CostBasis: 34500, Currency: "USD"}, // 1500 USD at 23.0
		},
	})

	if result.Status != "success" {
		t.Fatalf("Status = %q, want success", result.Status)
	}
	p := result.Positions[0]
	if p.PriceSource != model.PriceSourceLive {
		t.Errorf("PriceSource = %q, want Live", p.PriceSource)
	}
	if float64(p.CurrentPrice) != 230 {
		t.Errorf("CurrentPrice = %v, want 230 (live quote)", p.CurrentPrice)
	}
	if !p.LedgerMatch {
		t.Error("LedgerMatch = false, want true")
	}
	// 10 shares * 230 USD * 23.0 = 52900 CZK market value.
	if math.Abs(float64(p.MarketValueReporting)-52900) > 1e-6 {
		t.Errorf("MarketValueReporting = %v, want 52900", p.MarketValueReporting)
	}
	// Basis scaled to held quantity: 10 * (34500 / 10) = 34500.
	if math.Abs(float64(p.CostBasisReporting)-34500) > 1e-6 {
		t.Errorf("CostBasisReporting = %v, want 34500", p.CostBasisReporting)
	}
	if p.Name != "Apple Inc." {
		t.Errorf("Name = %q, want quote name", p.Name)
	}
}

// TestValuate_ReportFallback tests degradation when a quote is missing.
//
// WHY: A failed quote fetch must fall back to the snapshot's close price
// with source "Report" while the rest of the batch stays live.
func TestValuate_ReportFallback(t *testing.T) {
	e := newTestEngine(standardMarket())

	result := e.Valuate(context.Background(), Input{
		Positions: []model.Position{
			{Symbol: "AAPL", Quantity: 10, Currency: "USD", ClosePrice: 220, Multiplier: 1},
			{Symbol: "NOQUOTE", Quantity: 5, Currency: "USD", ClosePrice: 40, CostBasis: 180, Multiplier: 1},
		},
		ReportDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	})

	var fallback model.PositionView
	for _, p := range result.Positions {
		if p.Symbol == "NOQUOTE" {
			fallback = p
		}
	}
	if fallback.PriceSource != model.PriceSourceReport {
		t.Errorf("PriceSource = %q, want Report", fallback.PriceSource)
	}
	if float64(fallback.CurrentPrice) != 40 {
		t.Errorf("CurrentPrice = %v, want snapshot close 40", fallback.CurrentPrice)
	}
	// Snapshot basis converted at the report-date rate: 180 * 23.0.
	if math.Abs(float64(fallback.CostBasisReporting)-4140) > 1e-6 {
		t.Errorf("CostBasisReporting = %v, want 4140", fallback.CostBasisReporting)
	}
}

// TestValuate_OptionPosition tests option sign inversion and classification.
func TestValuate_OptionPosition(t *testing.T) {
	e := newTestEngine(standardMarket())

	result := e.Valuate(context.Background(), Input{
		Positions: []model.Position{
			{Symbol: "SPY241220P00450000-P", Quantity: -1, Currency: "USD",
				ClosePrice: 5, AssetCategory: "Equity and Index Options", Multiplier: 100},
		},
	})

	p := result.Positions[0]
	// Short option: -(-1 * 5 * 100) = 500 native.
	if math.Abs(float64(p.MarketValueNative)-500) > 1e-6 {
		t.Errorf("MarketValueNative = %v, want 500", p.MarketValueNative)
	}
	if p.Region != "Derivatives" || p.Country != "N/A" {
		t.Errorf("Country/Region = %q/%q, want N/A/Derivatives", p.Country, p.Region)
	}
}

// TestValuate_PnLPercentNative tests that FX movement stays out of the
// percentage return.
func TestValuate_PnLPercentNative(t *testing.T) {
	e := newTestEngine(standardMarket())

	result := e.Valuate(context.Background(), Input{
		Positions: []model.Position{
			// Bought at 200 native, now 230: +15% regardless of FX.
			{Symbol: "AAPL", Quantity: 10, Currency: "USD", ClosePrice: 220, CostBasis: 2000, Multiplier: 1},
		},
	})

	p := result.Positions[0]
	if math.Abs(float64(p.PnLPercent)-15) > 1e-6 {
		t.Errorf("PnLPercent = %v, want 15", p.PnLPercent)
	}
}

// TestValuate_KPIs tests net liquidity, leverage, and two-pass weights.
func TestValuate_KPIs(t *testing.T) {
	e := newTestEngine(standardMarket())

	result := e.Valuate(context.Background(), Input{
		Positions: []model.Position{
			{Symbol: "AAPL", Quantity: 10, Currency: "USD", ClosePrice: 220, CostBasis: 1500, Multiplier: 1},
		},
		CashBalances: []model.CashBalance{
			{Currency: "USD", Amount: 1000},
		},
		AccrualsBase: 100, // USD
	})

	kpi := result.KPI
	// Market: 2300 USD; cash 1000; accruals 100 -> NAV 3400 USD.
	if math.Abs(float64(kpi.NetLiquidityDisplay)-3400) > 1e-6 {
		t.Errorf("NetLiquidityDisplay = %v, want 3400", kpi.NetLiquidityDisplay)
	}
	if math.Abs(float64(kpi.NetLiquidityReporting)-3400*23.0) > 1e-6 {
		t.Errorf("NetLiquidityReporting = %v, want %v", kpi.NetLiquidityReporting, 3400*23.0)
	}
	// Leverage = gross display / NAV display.
	if math.Abs(float64(kpi.Leverage)-2300.0/3400) > 1e-9 {
		t.Errorf("Leverage = %v, want %v", kpi.Leverage, 2300.0/3400)
	}
	// Weight = position reporting value / NAV reporting.
	p := result.Positions[0]
	want := 52900.0 / (3400 * 23.0) * 100
	if math.Abs(float64(p.PortfolioPercent)-want) > 1e-6 {
		t.Errorf("PortfolioPercent = %v, want %v", p.PortfolioPercent, want)
	}
}

// TestValuate_MarginAnnotations tests debit-balance interest annotations.
func TestValuate_MarginAnnotations(t *testing.T) {
	e := newTestEngine(standardMarket())

	result := e.Valuate(context.Background(), Input{
		CashBalances: []model.CashBalance{
			{Currency: "USD", Amount: -50000},
			{Currency: "SEK", Amount: 2000},
		},
	})

	var debit, credit model.CashBalance
	for _, cb := range result.CashBalances {
		switch cb.Currency {
		case "USD":
			debit = cb
		case "SEK":
			credit = cb
		}
	}

	// 50000 entirely in the first USD tier at 5.14%, 360-day convention.
	wantDaily := 50000 * 5.14 / 100 / 360
	if math.Abs(debit.DailyInterestNative-wantDaily) > 1e-9 {
		t.Errorf("DailyInterestNative = %v, want %v", debit.DailyInterestNative, wantDaily)
	}
	if math.Abs(debit.EffectiveRate-5.14) > 1e-9 {
		t.Errorf("EffectiveRate = %v, want 5.14", debit.EffectiveRate)
	}
	if credit.DailyInterestNative != 0 || credit.EffectiveRate != 0 {
		t.Errorf("Credit balance annotated with interest: %+v", credit)
	}
}

// TestValuate_Instructions tests buy/sell zone classification.
func TestValuate_Instructions(t *testing.T) {
	e := newTestEngine(standardMarket())
	buyZone, sellZone := 240.0, 260.0

	result := e.Valuate(context.Background(), Input{
		Positions: []model.Position{
			{Symbol: "AAPL", Quantity: 10, Currency: "USD", ClosePrice: 220, Multiplier: 1},
		},
		Metadata: map[string]model.MetadataOverride{
			"AAPL": {Symbol: "AAPL", BuyZone: &buyZone, SellZone: &sellZone},
		},
	})

	p := result.Positions[0]
	// Live price 230 <= buy zone 240.
	if p.Instruction != model.InstructionBuy {
		t.Errorf("Instruction = %q, want Buy", p.Instruction)
	}
	wantPctBuy := (230.0 - 240.0) / 230.0 * 100
	if math.Abs(float64(p.PctToBuyZone)-wantPctBuy) > 1e-9 {
		t.Errorf("PctToBuyZone = %v, want %v", p.PctToBuyZone, wantPctBuy)
	}
}

// TestValuate_CountryPrecedence tests the classification cascade.
//
// WHY: A user override beats the static ADR table, which beats everything
// derived from quotes or identifiers.
func TestValuate_CountryPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		isin     string
		liveName string
		override string
		currency string
		want     string
	}{
		{"override wins over static table", "BABA", "", "", "DE", "USD", "DE"},
		{"static table beats live name", "BABA", "", "United States", "", "USD", "CN"},
		{"cayman maps to china", "XYZ", "", "Cayman Islands", "", "USD", "CN"},
		{"isin prefix", "XYZ", "SE0012673267", "", "", "SEK", "SE"},
		{"exchange suffix", "EVO.ST", "", "", "", "SEK", "SE"},
		{"currency fallback", "XYZ", "", "", "", "HKD", "HK"},
		{"unknown", "XYZ", "", "", "", "XXX", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectCountry(tt.symbol, tt.isin, tt.liveName, tt.override, tt.currency)
			if got != tt.want {
				t.Errorf("DetectCountry() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestDetectRegion tests the country-to-region grouping.
func TestDetectRegion(t *testing.T) {
	tests := map[string]string{
		"US": "North America",
		"DE": "Europe",
		"CN": "Asia",
		"AU": "Pacific",
		"BR": "South America",
		"ZA": "Emerging",
		"XX": "Other",
	}
	for country, want := range tests {
		if got := DetectRegion(country); got != want {
			t.Errorf("DetectRegion(%q) = %q, want %q", country, got, want)
		}
	}
}

// TestValuate_NonFiniteSanitized tests NaN serialization.
//
// WHY: A division by an unavailable rate can produce NaN; the JSON output
// must carry null, never the literal NaN Go's encoder rejects.
func TestValuate_NonFiniteSanitized(t *testing.T) {
	// No FX available anywhere: rates resolve to the zero sentinel.
	market := &fakeMarket{quotes: map[string]model.Quote{}, fx: map[string]float64{}}
	e := NewEngine(&fakeRates{rates: map[string]float64{}}, market, "CZK", "USD")
	e.now = func() time.Time { return time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC) }

	result := e.Valuate(context.Background(), Input{
		Positions: []model.Position{
			{Symbol: "XYZ", Quantity: 10, Currency: "XXX", ClosePrice: 100, Multiplier: 1},
		},
	})

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() returned error: %v", err)
	}
	if strings.Contains(string(data), "NaN") {
		t.Errorf("Serialized result contains NaN: %s", data)
	}
}

// TestLookupMetadata tests suffixed-ticker normalization.
func TestLookupMetadata(t *testing.T) {
	metadata := map[string]model.MetadataOverride{
		"BOSS": {Symbol: "BOSS", Note: "base"},
		"EVO":  {Symbol: "EVO", Note: "canonical"},
	}

	if got := lookupMetadata(metadata, "BOSSd"); got.Note != "base" {
		t.Errorf(`lookupMetadata("BOSSd") = %+v, want the BOSS entry`, got)
	}
	if got := lookupMetadata(metadata, "EVOs"); got.Note != "canonical" {
		t.Errorf(`lookupMetadata("EVOs") = %+v, want the EVO entry`, got)
	}
	if got := lookupMetadata(metadata, "EVO.ST"); got.Note != "canonical" {
		t.Errorf(`lookupMetadata("EVO.ST") = %+v, want the EVO entry`, got)
	}
	if got := lookupMetadata(metadata, "MISSING"); got.Symbol != "" {
		t.Errorf(`lookupMetadata("MISSING") = %+v, want zero value`, got)
	}
}
