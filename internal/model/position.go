package model

// Position is one row of the holdings snapshot: what the broker says is
// currently held. Read-only to the valuation core.
type Position struct {
	Symbol        string  `json:"symbol"`
	Quantity      float64 `json:"quantity"`
	Currency      string  `json:"currency"`
	ClosePrice    float64 `json:"closePrice"` // last price reported by the statement
	CostBasis     float64 `json:"costBasis"`  // statement's own basis, native currency
	ISIN          string  `json:"isin,omitempty"`
	AssetCategory string  `json:"assetCategory"`
	Multiplier    float64 `json:"multiplier"` // contract multiplier, 1 for equities
}

// Quote is a live market data point for one symbol. Any field other than
// Price may be empty when the provider returned partial data.
type Quote struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
	Name     string  `json:"name,omitempty"`
	High52   float64 `json:"high52,omitempty"`
	Low52    float64 `json:"low52,omitempty"`
	Country  string  `json:"country,omitempty"` // provider-reported domicile name
}
