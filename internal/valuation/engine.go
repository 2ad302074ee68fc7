// Package valuation combines the holdings snapshot, live quotes, the
// reconstructed cost-basis ledger, and resolved FX rates into per-position
// valuations and portfolio KPIs.
package valuation

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mhorak/ibfolio/internal/ledger"
	"github.com/mhorak/ibfolio/internal/margin"
	"github.com/mhorak/ibfolio/internal/model"
)

// displayCurrencies is the fixed set of rates reported alongside every
// valuation pass for the frontend's converter.
var displayCurrencies = []string{"USD", "EUR", "GBP", "HKD", "SEK", "PLN", "AUD", "CAD", "JPY", "CHF", "CNY", "SGD"}

// RateResolver resolves a historical conversion rate; zero means
// unavailable.
type RateResolver interface {
	Resolve(ctx context.Context, currency string, date time.Time, target string) float64
}

// MarketSource supplies live quotes and live FX rates. Both return partial
// results; missing entries mean the provider could not answer.
type MarketSource interface {
	GetQuotes(ctx context.Context, symbols []string) map[string]model.Quote
	GetLiveFXRates(ctx context.Context, currencies []string, target string) map[string]float64
}

// Input is everything one aggregation pass consumes.
type Input struct {
	Positions    []model.Position
	Ledger       map[string]model.CostBasisEntry
	Aliases      map[string]string
	CashBalances []model.CashBalance
	AccrualsBase float64 // pending accruals in the account base currency
	ReportDate   time.Time
	Metadata     map[string]model.MetadataOverride
}

// Engine values positions and aggregates KPIs. Reporting is the primary
// currency for cost basis and net liquidity; display is the secondary
// currency shown alongside it.
type Engine struct {
	fx        RateResolver
	market    MarketSource
	reporting string
	display   string
	now       func() time.Time
}

// NewEngine creates a valuation Engine.
func NewEngine(fx RateResolver, market MarketSource, reporting, display string) *Engine {
	return &Engine{
		fx:        fx,
		market:    market,
		reporting: strings.ToUpper(reporting),
		display:   strings.ToUpper(display),
		now:       time.Now,
	}
}

// Valuate runs one aggregation pass. The pass is best-effort: provider
// failures degrade individual positions (price source falls back to the
// report snapshot, rates to zero) but never fail the pass.
func (e *Engine) Valuate(ctx context.Context, in Input) model.PortfolioResult {
	if len(in.Positions) == 0 && len(in.CashBalances) == 0 {
		return model.PortfolioResult{
			Positions:    []model.PositionView{},
			CashBalances: []model.CashBalance{},
			FXRates:      map[string]float64{},
			Status:       "empty",
		}
	}

	today := e.now()
	reportDate := in.ReportDate
	if reportDate.IsZero() {
		reportDate = today
	}

	symbols := make([]string, 0, len(in.Positions))
	for _, p := range in.Positions {
		symbols = append(symbols, p.Symbol)
	}
	quotes := e.market.GetQuotes(ctx, symbols)

	liveRates := e.liveRates(ctx, in, today)

	positions := make([]model.PositionView, 0, len(in.Positions))
	var totalMarketRep, totalMarketDisp, totalCostRep float64
	var grossRep, grossDisp float64

	for _, pos := range in.Positions {
		view, mvRep, mvDisp, cbRep := e.valuePosition(ctx, pos, quotes, liveRates, in, today, reportDate)

		totalMarketRep += mvRep
		totalMarketDisp += mvDisp
		totalCostRep += cbRep
		grossRep += math.Abs(mvRep)
		grossDisp += math.Abs(mvDisp)

		positions = append(positions, view)
	}

	cash, totalCashRep, totalCashDisp := e.valueCash(in.CashBalances, liveRates)

	// Accruals arrive in the account base (display) currency.
	accrualsDisp := in.AccrualsBase
	accrualsRep := accrualsDisp * liveRates.toReporting(e.display)

	navRep := totalMarketRep + totalCashRep + accrualsRep
	navDisp := totalMarketDisp + totalCashDisp + accrualsDisp

	var leverage, pctInvested float64
	if navDisp != 0 {
		leverage = grossDisp / navDisp
	}
	if navRep != 0 {
		pctInvested = totalMarketRep / navRep * 100
	}

	sort.Slice(positions, func(i, j int) bool {
		return float64(positions[i].MarketValueReporting) > float64(positions[j].MarketValueReporting)
	})

	// Weights need net liquidity, so they are a second pass.
	if navRep > 0 {
		for i := range positions {
			positions[i].PortfolioPercent = model.NullableFloat(float64(positions[i].MarketValueReporting) / navRep * 100)
		}
	}

	fxRates := make(map[string]float64, len(displayCurrencies))
	for _, currency := range displayCurrencies {
		fxRates[currency] = liveRates.toReporting(currency)
	}

	return model.PortfolioResult{
		KPI: model.KPISummary{
			NetLiquidityReporting: model.NullableFloat(navRep),
			NetLiquidityDisplay:   model.NullableFloat(navDisp),
			CashBalanceDisplay:    model.NullableFloat(totalCashDisp),
			TotalMarketReporting:  model.NullableFloat(totalMarketRep),
			GrossExposureRep:      model.NullableFloat(grossRep),
			GrossExposureDisplay:  model.NullableFloat(grossDisp),
			TotalPnLReporting:     model.NullableFloat(totalMarketRep - totalCostRep),
			Leverage:              model.NullableFloat(leverage),
			PercentInvested:       model.NullableFloat(pctInvested),
			ReportDate:            reportDate.Format("2006-01-02"),
		},
		Positions:    positions,
		CashBalances: cash,
		FXRates:      fxRates,
		Status:       "success",
	}
}

// rateTable holds today's rates against the reporting and display
// currencies, keyed by source currency.
type rateTable struct {
	reporting map[string]float64
	display   map[string]float64
}

func (t rateTable) toReporting(currency string) float64 { return t.reporting[currency] }
func (t rateTable) toDisplay(currency string) float64   { return t.display[currency] }

// liveRates collects today's conversion rates for every currency the pass
// touches. Live pair quotes are preferred; currencies the live provider
// cannot quote fall back to the historical resolver for today's date.
func (e *Engine) liveRates(ctx context.Context, in Input, today time.Time) rateTable {
	currencies := map[string]bool{e.reporting: true, e.display: true}
	for _, c := range displayCurrencies {
		currencies[c] = true
	}
	for _, p := range in.Positions {
		if p.Currency != "" {
			currencies[p.Currency] = true
		}
	}
	for _, cb := range in.CashBalances {
		currencies[cb.Currency] = true
	}

	wanted := make([]string, 0, len(currencies))
	for c := range currencies {
		wanted = append(wanted, c)
	}
	sort.Strings(wanted)

	toRep := e.market.GetLiveFXRates(ctx, wanted, e.reporting)
	for _, currency := range wanted {
		if _, ok := toRep[currency]; !ok {
			if rate := e.fx.Resolve(ctx, currency, today, e.reporting); rate > 0 {
				toRep[currency] = rate
			}
		}
	}

	// Display-currency rates derive from the reporting legs so the two
	// columns stay mutually consistent within the pass.
	toDisp := make(map[string]float64, len(toRep))
	displayLeg := toRep[e.display]
	for currency, rate := range toRep {
		if currency == e.display {
			toDisp[currency] = 1.0
		} else if displayLeg > 0 {
			toDisp[currency] = rate / displayLeg
		}
	}

	return rateTable{reporting: toRep, display: toDisp}
}

// valuePosition builds one position view and returns it with its reporting
// and display market values and reporting cost basis for aggregation.
func (e *Engine) valuePosition(ctx context.Context, pos model.Position, quotes map[string]model.Quote, liveRates rateTable, in Input, today, reportDate time.Time) (model.PositionView, float64, float64, float64) {
	symbol := pos.Symbol
	currency := pos.Currency

	ledgerEntry, hasLedger := in.Ledger[ledger.Canonical(symbol, in.Aliases)]
	if hasLedger && ledgerEntry.Currency != "" {
		// The ledger's currency comes from actual executions and is more
		// reliable than the snapshot field.
		currency = ledgerEntry.Currency
	}

	quote, hasQuote := quotes[symbol]

	var price float64
	var priceSource, name string
	var fxDate time.Time
	live := hasQuote && quote.Price > 0
	if live {
		price = quote.Price
		priceSource = model.PriceSourceLive
		fxDate = today
		name = quote.Name
	} else {
		price = pos.ClosePrice
		priceSource = model.PriceSourceReport
		fxDate = reportDate
	}
	if name == "" {
		name = symbol
	}

	var fxRep, fxDisp float64
	if live {
		fxRep = liveRates.toReporting(currency)
		fxDisp = liveRates.toDisplay(currency)
	} else {
		fxRep = e.fx.Resolve(ctx, currency, fxDate, e.reporting)
		fxDisp = e.fx.Resolve(ctx, currency, fxDate, e.display)
	}

	isOption := isOptionPosition(pos)
	mult := pos.Multiplier
	if mult == 0 {
		mult = 1
	}

	// Options carry their sign inverted: a long option is premium already
	// paid out, a short option a liability, so the figure is the one that
	// feeds net-liquidity accounting rather than notional exposure.
	mvNative := pos.Quantity * price * mult
	if isOption {
		mvNative = -mvNative
	}
	mvRep := mvNative * fxRep
	mvDisp := mvNative * fxDisp

	cbNative := pos.CostBasis
	var cbRep float64
	if hasLedger {
		if math.Abs(ledgerEntry.Quantity) > 1e-6 {
			cbRep = pos.Quantity * (ledgerEntry.CostBasis / ledgerEntry.Quantity)
		}
	} else {
		cbRep = cbNative * fxRep
	}

	pnlRep := mvRep - cbRep
	pnlNative := mvNative - cbNative
	var pnlPercent float64
	if cbNative != 0 {
		// Native values only, so FX movement stays out of the percentage.
		pnlPercent = pnlNative / cbNative * 100
	}

	meta := lookupMetadata(in.Metadata, symbol)
	instr, pctBuy, pctSell := instruction(price, meta)

	var country, region string
	if isOption {
		country, region = "N/A", "Derivatives"
	} else {
		country = DetectCountry(symbol, pos.ISIN, quote.Country, meta.CountryOverride, currency)
		region = DetectRegion(country)
	}

	view := model.PositionView{
		Symbol:               symbol,
		Name:                 name,
		Quantity:             pos.Quantity,
		Currency:             currency,
		CurrentPrice:         model.NullableFloat(price),
		PriceSource:          priceSource,
		MarketValueNative:    model.NullableFloat(mvNative),
		MarketValueReporting: model.NullableFloat(mvRep),
		MarketValueDisplay:   model.NullableFloat(mvDisp),
		CostBasisReporting:   model.NullableFloat(cbRep),
		UnrealizedPnL:        model.NullableFloat(pnlRep),
		UnrealizedPnLNative:  model.NullableFloat(pnlNative),
		PnLPercent:           model.NullableFloat(pnlPercent),
		LedgerMatch:          hasLedger,
		Country:              country,
		Region:               region,
		Instruction:          instr,
		PctToBuyZone:         model.NullableFloat(pctBuy),
		PctToSellZone:        model.NullableFloat(pctSell),
		Note:                 meta.Note,
	}
	if live {
		view.High52 = model.NullableFloat(quote.High52)
		view.Low52 = model.NullableFloat(quote.Low52)
	}
	if meta.BuyZone != nil {
		view.BuyZone = model.NullableFloat(*meta.BuyZone)
	}
	if meta.SellZone != nil {
		view.SellZone = model.NullableFloat(*meta.SellZone)
	}

	return view, mvRep, mvDisp, cbRep
}

// valueCash converts cash balances and annotates debit balances with their
// margin interest cost.
func (e *Engine) valueCash(balances []model.CashBalance, liveRates rateTable) ([]model.CashBalance, float64, float64) {
	result := make([]model.CashBalance, 0, len(balances))
	var totalRep, totalDisp float64

	for _, cb := range balances {
		fxRep := liveRates.toReporting(cb.Currency)
		fxDisp := liveRates.toDisplay(cb.Currency)

		cb.ValueReporting = cb.Amount * fxRep
		cb.ValueDisplay = cb.Amount * fxDisp
		totalRep += cb.ValueReporting
		totalDisp += cb.ValueDisplay

		if cb.Amount < 0 {
			cost := margin.InterestCost(cb.Currency, cb.Amount)
			cb.DailyInterestNative = cost.Daily
			cb.DailyInterestRep = cost.Daily * fxRep
			cb.DailyInterestDisp = cost.Daily * fxDisp
			cb.EffectiveRate = cost.EffectiveRate
		}

		result = append(result, cb)
	}

	return result, totalRep, totalDisp
}

// isOptionPosition recognizes option rows by asset category or by the
// dashed contract-code shape of the symbol.
func isOptionPosition(pos model.Position) bool {
	if strings.Contains(pos.AssetCategory, "Option") {
		return true
	}
	s := pos.Symbol
	return (strings.HasSuffix(s, "-P") || strings.HasSuffix(s, "-C")) && len(s) > 15
}

// lookupMetadata finds the override for a statement symbol, tolerating the
// suffixed ticker variants some statements use: a trailing lowercase 'd'
// or 's' marker and exchange suffixes are stripped before falling back.
func lookupMetadata(metadata map[string]model.MetadataOverride, symbol string) model.MetadataOverride {
	if meta, ok := metadata[symbol]; ok {
		return meta
	}

	norm := strings.TrimSpace(symbol)
	if len(norm) > 1 {
		last := norm[len(norm)-1]
		if last == 'd' || last == 's' {
			candidate := norm[:len(norm)-1]
			if strings.ContainsFunc(candidate, func(r rune) bool { return r >= 'A' && r <= 'Z' }) {
				norm = candidate
			}
		}
	}
	if meta, ok := metadata[norm]; ok {
		return meta
	}

	base, _, _ := strings.Cut(norm, ".")
	if meta, ok := metadata[base]; ok {
		return meta
	}
	return model.MetadataOverride{}
}
