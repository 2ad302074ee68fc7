package model

import "time"

// Trade represents a single normalized trade record from the statement
// history. Quantity is signed: positive for buys, negative for sells.
// Symbol is the raw statement ticker, before alias normalization.
type Trade struct {
	Symbol   string    `json:"symbol"`
	Quantity float64   `json:"quantity"`
	Price    float64   `json:"price"`
	Currency string    `json:"currency"`
	Fee      float64   `json:"fee"`
	Time     time.Time `json:"time"`
}

// CostBasisEntry is the reconstructed state of one canonical symbol after
// replaying its trade history: the running quantity still held and the cost
// basis of those units expressed in the reporting currency.
type CostBasisEntry struct {
	Quantity  float64 `json:"quantity"`
	CostBasis float64 `json:"costBasis"` // reporting currency
	Currency  string  `json:"currency"`  // trading currency of the instrument
}

// CashBalance is one currency's cash position from the statement, with
// converted values and margin interest annotations filled in by the
// valuation pass.
type CashBalance struct {
	Currency            string  `json:"currency"`
	Amount              float64 `json:"amount"`
	ValueReporting      float64 `json:"valueReporting"`
	ValueDisplay        float64 `json:"valueDisplay"`
	DailyInterestNative float64 `json:"dailyInterestNative"`
	DailyInterestRep    float64 `json:"dailyInterestReporting"`
	DailyInterestDisp   float64 `json:"dailyInterestDisplay"`
	EffectiveRate       float64 `json:"effectiveRate"`
}
