package request

// OptionTrade is the body for creating or updating an options-journal entry.
type OptionTrade struct {
	Ticker     string  `json:"ticker"`
	Type       string  `json:"type"`
	Strike     float64 `json:"strike"`
	Expiration string  `json:"expiration"`
	Premium    float64 `json:"premium"`
	Fees       float64 `json:"fees"`
	Currency   string  `json:"currency"`
	Status     string  `json:"status"`
	DateOpened string  `json:"dateOpened"`
	Notes      string  `json:"notes"`
}
