package model

// Execution is one executed order from the statement history with its
// broker-reported economics, as shown on the performance view. Unlike Trade
// it keeps proceeds, commissions, and the realized P&L the broker assigned
// to the fill.
type Execution struct {
	Symbol      string  `json:"symbol"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Proceeds    float64 `json:"proceeds"`
	Commission  float64 `json:"commission"`
	Basis       float64 `json:"basis"`
	RealizedPnL float64 `json:"realizedPnl"`
	Currency    string  `json:"currency"`
	Category    string  `json:"category"`
	Code        string  `json:"code"`
}

// InterestPosting is one interest debit or credit from the statement.
type InterestPosting struct {
	Date        string  `json:"date"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// PerformanceReport aggregates the executed orders and interest postings
// across all statement files, deduplicated and newest first.
type PerformanceReport struct {
	Trades   []Execution       `json:"trades"`
	Interest []InterestPosting `json:"interest"`
}
