package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mhorak/ibfolio/internal/api/request"
	"github.com/mhorak/ibfolio/internal/model"
	"github.com/mhorak/ibfolio/internal/service"
)

// MetadataHandler handles symbol override HTTP requests.
type MetadataHandler struct {
	metadataService *service.MetadataService
}

// NewMetadataHandler creates a new MetadataHandler
func NewMetadataHandler(metadataService *service.MetadataService) *MetadataHandler {
	return &MetadataHandler{
		metadataService: metadataService,
	}
}

// List returns every stored symbol override keyed by symbol.
//
// Endpoint: GET /api/metadata
func (h *MetadataHandler) List(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.metadataService.GetAll(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, overrides)
}

// Get returns the override for one symbol.
//
// Endpoint: GET /api/metadata/{symbol}
// Error: 404 Not Found when no override is stored
func (h *MetadataHandler) Get(w http.ResponseWriter, r *http.Request) {
	meta, err := h.metadataService.Get(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, meta)
}

// Upsert creates or replaces the override for one symbol.
//
// Endpoint: PUT /api/metadata/{symbol}
// Error: 400 Bad Request on validation failure
func (h *MetadataHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var body request.UpsertMetadata
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	meta := model.MetadataOverride{
		Symbol:          chi.URLParam(r, "symbol"),
		BuyZone:         body.BuyZone,
		SellZone:        body.SellZone,
		CountryOverride: body.CountryOverride,
		Note:            body.Note,
	}
	stored, err := h.metadataService.Upsert(r.Context(), meta)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

// Delete removes the override for one symbol.
//
// Endpoint: DELETE /api/metadata/{symbol}
func (h *MetadataHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.metadataService.Delete(r.Context(), chi.URLParam(r, "symbol")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
