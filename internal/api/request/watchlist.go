package request

// AddWatchlistSymbol is the body for adding a symbol to the watchlist.
type AddWatchlistSymbol struct {
	Symbol string `json:"symbol"`
}
