package model

// Price source values for PositionView.PriceSource.
const (
	PriceSourceLive   = "Live"
	PriceSourceReport = "Report"
)

// Instruction values derived from metadata buy/sell zones.
const (
	InstructionBuy  = "Buy"
	InstructionSell = "Sell"
	InstructionHold = "Hold"
)

// PositionView is one valued position as returned by an aggregation pass.
// Converted amounts are expressed in the reporting currency and in the
// secondary display currency configured for the account.
type PositionView struct {
	Symbol               string        `json:"symbol"`
	Name                 string        `json:"name"`
	Quantity             float64       `json:"quantity"`
	Currency             string        `json:"currency"`
	CurrentPrice         NullableFloat `json:"currentPrice"`
	PriceSource          string        `json:"priceSource"`
	MarketValueNative    NullableFloat `json:"marketValueNative"`
	MarketValueReporting NullableFloat `json:"marketValueReporting"`
	MarketValueDisplay   NullableFloat `json:"marketValueDisplay"`
	CostBasisReporting   NullableFloat `json:"costBasisReporting"`
	UnrealizedPnL        NullableFloat `json:"unrealizedPnl"`
	UnrealizedPnLNative  NullableFloat `json:"unrealizedPnlNative"`
	PnLPercent           NullableFloat `json:"pnlPercent"`
	PortfolioPercent     NullableFloat `json:"portfolioPercent"`
	LedgerMatch          bool          `json:"ledgerMatch"`
	Country              string        `json:"country"`
	Region               string        `json:"region"`
	High52               NullableFloat `json:"yearHigh,omitempty"`
	Low52                NullableFloat `json:"yearLow,omitempty"`
	Instruction          string        `json:"instruction"`
	PctToBuyZone         NullableFloat `json:"pctToBuyZone"`
	PctToSellZone        NullableFloat `json:"pctToSellZone"`
	BuyZone              NullableFloat `json:"buyZone,omitempty"`
	SellZone             NullableFloat `json:"sellZone,omitempty"`
	Note                 string        `json:"note,omitempty"`
}

// KPISummary aggregates the portfolio-level indicators of one pass.
type KPISummary struct {
	NetLiquidityReporting NullableFloat `json:"netLiquidityReporting"`
	NetLiquidityDisplay   NullableFloat `json:"netLiquidityDisplay"`
	CashBalanceDisplay    NullableFloat `json:"cashBalanceDisplay"`
	TotalMarketReporting  NullableFloat `json:"totalMarketReporting"`
	GrossExposureRep      NullableFloat `json:"grossExposureReporting"`
	GrossExposureDisplay  NullableFloat `json:"grossExposureDisplay"`
	TotalPnLReporting     NullableFloat `json:"totalPnlReporting"`
	Leverage              NullableFloat `json:"leverage"`
	PercentInvested       NullableFloat `json:"percentInvested"`
	ReportDate            string        `json:"reportDate"`
}

// PortfolioResult is the best-effort outcome of one aggregation pass.
// Status is "empty" when no statement data exists, "success" otherwise.
type PortfolioResult struct {
	KPI           KPISummary         `json:"kpi"`
	Positions     []PositionView     `json:"positions"`
	CashBalances  []CashBalance      `json:"cashBalances"`
	FXRates       map[string]float64 `json:"fxRates"`
	Status        string             `json:"status"`
}
