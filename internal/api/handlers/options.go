package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhorak/ibfolio/internal/api/request"
	"github.com/mhorak/ibfolio/internal/model"
	"github.com/mhorak/ibfolio/internal/service"
)

// OptionsHandler handles the options-journal HTTP requests.
type OptionsHandler struct {
	optionsService   *service.OptionsService
	portfolioService *service.PortfolioService
}

// NewOptionsHandler creates a new OptionsHandler
func NewOptionsHandler(optionsService *service.OptionsService, portfolioService *service.PortfolioService) *OptionsHandler {
	return &OptionsHandler{
		optionsService:   optionsService,
		portfolioService: portfolioService,
	}
}

// List returns every journaled option trade, newest first.
//
// Endpoint: GET /api/options
func (h *OptionsHandler) List(w http.ResponseWriter, r *http.Request) {
	trades, err := h.optionsService.GetAll(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, trades)
}

// Create journals a new option trade.
//
// Endpoint: POST /api/options
// Error: 400 Bad Request on validation failure
func (h *OptionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body request.OptionTrade
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	created, err := h.optionsService.Create(r.Context(), optionFromRequest(body))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// Update applies changes to an existing trade.
//
// Endpoint: PUT /api/options/{id}
// Error: 404 Not Found when the trade does not exist
func (h *OptionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body request.OptionTrade
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	trade := optionFromRequest(body)
	trade.ID = chi.URLParam(r, "id")
	updated, err := h.optionsService.Update(r.Context(), trade)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Delete removes a journaled trade.
//
// Endpoint: DELETE /api/options/{id}
func (h *OptionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.optionsService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Stats aggregates the journal for the dashboard.
//
// Endpoint: GET /api/options/stats
func (h *OptionsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.optionsService.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// Import journals the option positions found in the statement snapshot
// that are not yet tracked, and returns the trades it created.
//
// Endpoint: POST /api/options/import
func (h *OptionsHandler) Import(w http.ResponseWriter, r *http.Request) {
	positions, err := h.portfolioService.GetPositions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	created, err := h.optionsService.ImportFromPositions(r.Context(), positions)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if created == nil {
		created = []model.OptionTrade{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"imported": len(created),
		"trades":   created,
	})
}

func optionFromRequest(body request.OptionTrade) model.OptionTrade {
	return model.OptionTrade{
		Ticker:     body.Ticker,
		Type:       body.Type,
		Strike:     body.Strike,
		Expiration: body.Expiration,
		Premium:    body.Premium,
		Fees:       body.Fees,
		Currency:   body.Currency,
		Status:     body.Status,
		DateOpened: body.DateOpened,
		Notes:      body.Notes,
	}
}
