package handlers

import (
	"net/http"

	"github.com/mhorak/ibfolio/internal/service"
)

// maxUploadBytes bounds the in-memory portion of a statement upload.
const maxUploadBytes = 32 << 20

// PortfolioHandler serves the aggregated portfolio views.
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Portfolio runs a full aggregation pass and returns the valued portfolio.
//
// Endpoint: GET /api/portfolio
// Response: 200 OK with the position table, cash balances, and KPIs
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	result, err := h.portfolioService.GetPortfolio(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Performance returns the executed orders and interest postings aggregated
// across all statement files, newest first.
//
// Endpoint: GET /api/performance
func (h *PortfolioHandler) Performance(w http.ResponseWriter, r *http.Request) {
	report, err := h.portfolioService.GetPerformance(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Upload stores posted statement CSV files in the data directory.
//
// Endpoint: POST /api/upload (multipart form, field "files")
// Response: 200 OK with the stored filenames
// Error: 400 Bad Request when no files are posted or a filename is invalid
func (h *PortfolioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart request", err.Error())
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files provided", nil)
		return
	}

	saved := make([]string, 0, len(files))
	for _, header := range files {
		f, err := header.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to read upload", err.Error())
			return
		}
		name, err := h.portfolioService.SaveStatement(header.Filename, f)
		f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "failed to store statement", err.Error())
			return
		}
		saved = append(saved, name)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"files":  saved,
	})
}

// CostBasis returns the reconstructed cost-basis ledger keyed by canonical
// symbol, without running a valuation.
//
// Endpoint: GET /api/portfolio/costbasis
func (h *PortfolioHandler) CostBasis(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.portfolioService.GetCostBasis(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, ledger)
}
