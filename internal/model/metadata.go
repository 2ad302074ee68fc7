package model

// MetadataOverride holds user-entered annotations for one symbol. Pointer
// fields are nil when the user never set them; the valuation core merges
// them into position views but never mutates them.
type MetadataOverride struct {
	Symbol          string   `json:"symbol"`
	BuyZone         *float64 `json:"buyZone,omitempty"`
	SellZone        *float64 `json:"sellZone,omitempty"`
	CountryOverride string   `json:"countryOverride,omitempty"`
	Note            string   `json:"note,omitempty"`
}

// OptionTrade is one manually journaled option position.
type OptionTrade struct {
	ID         string  `json:"id"`
	Ticker     string  `json:"ticker"`
	Type       string  `json:"type"` // e.g. "SELL PUT", "BUY CALL"
	Strike     float64 `json:"strike"`
	Expiration string  `json:"expiration"` // YYYY-MM-DD
	Premium    float64 `json:"premium"`
	Fees       float64 `json:"fees"`
	Currency   string  `json:"currency"`
	Status     string  `json:"status"` // OPEN, CLOSED, EXPIRED, ASSIGNED
	DateOpened string  `json:"dateOpened"`
	Notes      string  `json:"notes,omitempty"`
}

// OptionStats aggregates the journal for the options dashboard.
type OptionStats struct {
	TotalTrades      int     `json:"totalTrades"`
	OpenTrades       int     `json:"openTrades"`
	PremiumCollected float64 `json:"premiumCollected"`
	FeesPaid         float64 `json:"feesPaid"`
	ByStatus         map[string]int `json:"byStatus"`
}
