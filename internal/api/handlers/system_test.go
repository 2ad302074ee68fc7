package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mhorak/ibfolio/internal/api/handlers"
	"github.com/mhorak/ibfolio/internal/service"
	"github.com/mhorak/ibfolio/internal/testutil"
)

func TestSystemHandler_Health(t *testing.T) {
	t.Run("reports healthy with a live database", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		handler := handlers.NewSystemHandler(service.NewSystemService(db))

		req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Health(w, req)

		// Assert
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		var response handlers.HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Status != "healthy" || response.Database != "connected" {
			t.Errorf("Unexpected health response: %+v", response)
		}
	})

	t.Run("reports unhealthy with a closed database", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		db.Close()
		handler := handlers.NewSystemHandler(service.NewSystemService(db))

		req := httptest.NewRequest(http.MethodGet, "/api/system/health", nil)
		w := httptest.NewRecorder()

		// Execute
		handler.Health(w, req)

		// Assert
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("Expected 503, got %d", w.Code)
		}
		var response handlers.HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if response.Status != "unhealthy" {
			t.Errorf("Expected unhealthy status, got %q", response.Status)
		}
	})
}

func TestSystemHandler_Version(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := handlers.NewSystemHandler(service.NewSystemService(db))

	req := httptest.NewRequest(http.MethodGet, "/api/system/version", nil)
	w := httptest.NewRecorder()

	handler.Version(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["version"] != service.Version {
		t.Errorf("Expected version %q, got %q", service.Version, response["version"])
	}
}
