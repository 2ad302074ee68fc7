package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhorak/ibfolio/internal/api/request"
	"github.com/mhorak/ibfolio/internal/service"
)

// WatchlistHandler handles watchlist HTTP requests.
type WatchlistHandler struct {
	metadataService *service.MetadataService
}

// NewWatchlistHandler creates a new WatchlistHandler
func NewWatchlistHandler(metadataService *service.MetadataService) *WatchlistHandler {
	return &WatchlistHandler{
		metadataService: metadataService,
	}
}

// List returns the watched symbols.
//
// Endpoint: GET /api/watchlist
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.metadataService.Watchlist(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, symbols)
}

// Add stores a new watched symbol.
//
// Endpoint: POST /api/watchlist
// Error: 400 Bad Request when the symbol is missing or malformed
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	var body request.AddWatchlistSymbol
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	symbol, err := h.metadataService.AddToWatchlist(r.Context(), body.Symbol)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"symbol": symbol})
}

// Remove deletes a watched symbol.
//
// Endpoint: DELETE /api/watchlist/{symbol}
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.metadataService.RemoveFromWatchlist(r.Context(), chi.URLParam(r, "symbol")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Quotes returns live quotes for every watched symbol, enriched with the
// stored zone annotations.
//
// Endpoint: GET /api/watchlist/quotes
func (h *WatchlistHandler) Quotes(w http.ResponseWriter, r *http.Request) {
	entries, err := h.metadataService.WatchlistQuotes(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
