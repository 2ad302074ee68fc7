package fx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhorak/ibfolio/internal/apperrors"
)

const frankfurterBaseURL = "https://api.frankfurter.app"

// FrankfurterClient is the secondary rate source, consulted only when the
// primary fixing cannot serve a request. Unlike the fixing feed it quotes
// arbitrary pairs directly.
type FrankfurterClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewFrankfurterClient creates a Frankfurter API client with the given
// per-request timeout.
func NewFrankfurterClient(timeout time.Duration) *FrankfurterClient {
	return &FrankfurterClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		baseURL:    frankfurterBaseURL,
	}
}

type frankfurterResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// Rate returns to units per one unit of from on date.
func (c *FrankfurterClient) Rate(ctx context.Context, from string, date time.Time, to string) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s/%s?from=%s&to=%s", c.baseURL, date.Format("2006-01-02"), from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("frankfurter returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	var parsed frankfurterResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("frankfurter: decode response: %w", err)
	}

	value, ok := parsed.Rates[to]
	if !ok {
		return 0, fmt.Errorf("frankfurter: %w: no rate for %s->%s", apperrors.ErrRateUnavailable, from, to)
	}
	return value, nil
}
