package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mhorak/ibfolio/internal/market"
)

// QuoteHandler serves ad-hoc single-symbol quote lookups.
type QuoteHandler struct {
	market *market.Service
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(market *market.Service) *QuoteHandler {
	return &QuoteHandler{
		market: market,
	}
}

// Quote fetches a live quote for one symbol.
//
// Endpoint: GET /api/quote?symbol=AAPL
// Error: 400 Bad Request when the symbol parameter is missing
// Error: 404 Not Found when the provider has no data for the symbol
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol")))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol parameter is required", nil)
		return
	}

	quotes := h.market.GetQuotes(r.Context(), []string{symbol})
	quote, ok := quotes[symbol]
	if !ok {
		respondError(w, http.StatusNotFound, "quote not found", symbol)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// OHLCV returns the candle history for one symbol.
//
// Endpoint: GET /api/market-data/{symbol}/ohlcv?range=1y
// Error: 404 Not Found when the provider has no history for the symbol
func (h *QuoteHandler) OHLCV(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required", nil)
		return
	}
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = "1y"
	}

	history, err := h.market.GetOHLCV(r.Context(), symbol, rng)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}
