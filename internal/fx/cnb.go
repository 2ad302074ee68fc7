package fx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhorak/ibfolio/internal/apperrors"
)

const cnbBaseURL = "https://www.cnb.cz/cs/financni-trhy/devizovy-trh/kurzy-devizoveho-trhu/kurzy-devizoveho-trhu/denni_kurz.txt"

// CNBClient fetches the Czech National Bank daily fixing, the primary
// historical source for rates against the CZK pivot.
//
// The feed is a pipe-separated text document, one currency per line:
//
//	31.01.2025 #22
//	země|měna|množství|kód|kurz
//	Austrálie|dolar|1|AUD|15,649
//
// Some currencies are quoted per 100 or 1000 units (množství), so the
// published kurz is divided by that quantity.
type CNBClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewCNBClient creates a CNB fixing client. The timeout bounds each request;
// outgoing requests are throttled to one per 200ms to stay polite to the
// bank's public endpoint.
func NewCNBClient(timeout time.Duration) *CNBClient {
	return &CNBClient{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		baseURL:    cnbBaseURL,
	}
}

// PivotRate returns CZK per one unit of currency on date, or an error when
// the fixing for that date does not quote the currency.
func (c *CNBClient) PivotRate(ctx context.Context, currency string, date time.Time) (float64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	url := fmt.Sprintf("%s?date=%s", c.baseURL, date.Format("02.01.2006"))
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
		return 0, fmt.Errorf("cnb fixing returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	return parseCNBFixing(string(body), currency)
}

// parseCNBFixing scans the fixing document for the requested currency code
// and normalizes the rate to one unit.
func parseCNBFixing(body, currency string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) < 3 {
		return 0, fmt.Errorf("cnb fixing: short document")
	}

	for _, line := range lines[2:] {
		parts := strings.Split(line, "|")
		if len(parts) < 5 {
			continue
		}
		if parts[3] != currency {
			continue
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || qty == 0 {
			return 0, fmt.Errorf("cnb fixing: bad quantity %q for %s", parts[2], currency)
		}
		rateStr := strings.ReplaceAll(strings.TrimSpace(parts[4]), ",", ".")
		value, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			return 0, fmt.Errorf("cnb fixing: bad rate %q for %s", parts[4], currency)
		}
		return value / qty, nil
	}

	return 0, fmt.Errorf("cnb fixing: %w: %s not quoted", apperrors.ErrRateUnavailable, currency)
}
