// Package yahoo is a thin client for the Yahoo Finance chart and
// quoteSummary endpoints.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/mhorak/ibfolio/internal/model"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// crumbPattern locates the session crumb inside a quote page.
var crumbPattern = regexp.MustCompile(`"CrumbStore":\{"crumb":"(.*?)"\}`)

// CrumbStore persists the Yahoo session crumb across restarts so a fresh
// process can skip the page scrape when the stored crumb still works.
type CrumbStore interface {
	LoadCrumb() (string, error)
	SaveCrumb(crumb string) error
}

// FinanceClient provides methods for fetching quotes, FX pair prices, and
// company profiles from Yahoo Finance. It holds a cookie jar and a session
// crumb; the quoteSummary endpoint rejects requests without both.
type FinanceClient struct {
	httpClient *http.Client
	crumbs     CrumbStore
	crumb      string

	chartURL   string
	summaryURL string
	sessionURL string
}

// NewFinanceClient creates a Yahoo Finance client with the given per-request
// timeout. crumbs may be nil, in which case the session crumb is re-scraped
// on every process start.
//
// Returns:
//   - *FinanceClient: A new client instance ready for use
func NewFinanceClient(timeout time.Duration, crumbs CrumbStore) *FinanceClient {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		log.Printf("yahoo: failed to create cookie jar: %v", err)
	}

	c := &FinanceClient{
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
		crumbs:     crumbs,
		chartURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
		summaryURL: "https://query1.finance.yahoo.com/v10/finance/quoteSummary",
		sessionURL: "https://finance.yahoo.com/quote/VHYL.L",
	}

	if crumbs != nil {
		if crumb, err := crumbs.LoadCrumb(); err == nil && crumb != "" {
			c.crumb = crumb
		}
	}
	return c
}

// Quote fetches the live quote for a Yahoo symbol: regular market price,
// trading currency, display name, and 52-week range.
//
// Parameters:
//   - symbol: Yahoo ticker symbol (e.g., "AAPL", "EVO.ST")
//
// Returns:
//   - model.Quote: The live quote (Country left empty; see Profile)
//   - error: If the request fails or Yahoo returns no result
func (c *FinanceClient) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	url := fmt.Sprintf("%s/%s?interval=1d&range=5d", c.chartURL, symbol)

	var response chartResponse
	if err := c.getJSON(ctx, url, &response); err != nil {
		return model.Quote{}, err
	}
	if response.Chart.Error != nil {
		return model.Quote{}, fmt.Errorf("yahoo error for %s: %s", symbol, response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return model.Quote{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	meta := response.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return model.Quote{}, fmt.Errorf("no market price for symbol %s", symbol)
	}

	name := meta.LongName
	if name == "" {
		name = meta.Shortname
	}

	return model.Quote{
		Symbol:   symbol,
		Price:    meta.RegularMarketPrice,
		Currency: meta.Currency,
		Name:     name,
		High52:   meta.FiftyTwoWeekHigh,
		Low52:    meta.FiftyTwoWeekLow,
	}, nil
}

// History fetches the OHLCV series for a symbol over the given chart period
// and bar interval (Yahoo's own tokens, e.g. "1mo" and "1d"). Bars the
// exchange has not published yet come back as nulls and are dropped.
//
// Parameters:
//   - symbol: Yahoo ticker symbol
//   - period: chart span ("1d", "5d", "1mo", "1y", "max", ...)
//   - interval: bar width ("5m", "15m", "1d", "1wk", ...)
//
// Returns:
//   - []model.Candle: OHLCV bars, oldest first
//   - error: If the request fails or Yahoo returns no series
func (c *FinanceClient) History(ctx context.Context, symbol, period, interval string) ([]model.Candle, error) {
	url := fmt.Sprintf("%s/%s?range=%s&interval=%s", c.chartURL, symbol, period, interval)

	var response chartResponse
	if err := c.getJSON(ctx, url, &response); err != nil {
		return nil, err
	}
	if response.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error for %s: %s", symbol, response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return nil, fmt.Errorf("no results returned for symbol %s", symbol)
	}

	result := response.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no price series for symbol %s", symbol)
	}
	series := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		closing := at(series.Close, i)
		if closing == nil {
			continue
		}
		candle := model.Candle{Time: ts, Close: *closing}
		if v := at(series.Open, i); v != nil {
			candle.Open = *v
		}
		if v := at(series.High, i); v != nil {
			candle.High = *v
		}
		if v := at(series.Low, i); v != nil {
			candle.Low = *v
		}
		if v := at(series.Volume, i); v != nil {
			candle.Volume = *v
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// at reads a nullable series value, tolerating series shorter than the
// timestamp axis.
func at(series []*float64, i int) *float64 {
	if i >= len(series) {
		return nil
	}
	return series[i]
}

// PairPrice fetches the live FX rate for a currency pair via its "=X"
// ticker (e.g. USDCZK=X).
//
// Parameters:
//   - from: Source currency code
//   - to: Target currency code
//
// Returns:
//   - float64: to units per one unit of from
//   - error: If the request fails or Yahoo returns no result
func (c *FinanceClient) PairPrice(ctx context.Context, from, to string) (float64, error) {
	quote, err := c.Quote(ctx, fmt.Sprintf("%s%s=X", from, to))
	if err != nil {
		return 0, err
	}
	return quote.Price, nil
}

// Profile fetches the country of economic domicile for a symbol from the
// quoteSummary assetProfile module. The endpoint requires a session crumb;
// on an authentication failure the session is re-established once and the
// request retried.
//
// Parameters:
//   - symbol: Yahoo ticker symbol
//
// Returns:
//   - string: Country name as reported by Yahoo (e.g., "United States")
//   - error: If the request fails or the profile carries no country
func (c *FinanceClient) Profile(ctx context.Context, symbol string) (string, error) {
	country, err := c.fetchProfile(ctx, symbol)
	if err == nil {
		return country, nil
	}

	// A stale crumb is the usual failure; refresh the session and retry.
	if sessErr := c.initSession(ctx); sessErr != nil {
		return "", fmt.Errorf("profile for %s: %w", symbol, err)
	}
	return c.fetchProfile(ctx, symbol)
}

func (c *FinanceClient) fetchProfile(ctx context.Context, symbol string) (string, error) {
	url := fmt.Sprintf("%s/%s?modules=assetProfile&crumb=%s", c.summaryURL, symbol, c.crumb)

	var response summaryResponse
	if err := c.getJSON(ctx, url, &response); err != nil {
		return "", err
	}
	if response.QuoteSummary.Error != nil {
		return "", fmt.Errorf("yahoo error for %s: %s", symbol, response.QuoteSummary.Error.Description)
	}
	if len(response.QuoteSummary.Result) == 0 {
		return "", fmt.Errorf("no profile returned for symbol %s", symbol)
	}

	country := response.QuoteSummary.Result[0].AssetProfile.Country
	if country == "" {
		return "", fmt.Errorf("profile for %s carries no country", symbol)
	}
	return country, nil
}

// initSession visits a quote page to collect session cookies and scrape the
// crumb, persisting it when a CrumbStore is configured.
func (c *FinanceClient) initSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to establish yahoo session: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	matches := crumbPattern.FindStringSubmatch(string(body))
	if len(matches) < 2 {
		return fmt.Errorf("could not find crumb in yahoo response")
	}

	c.crumb = matches[1]
	if c.crumbs != nil {
		if err := c.crumbs.SaveCrumb(c.crumb); err != nil {
			log.Printf("yahoo: failed to persist crumb: %v", err)
		}
	}
	return nil
}

// getJSON executes a GET request and decodes the JSON body into out.
// The User-Agent header mimics a browser; Yahoo blocks default Go clients.
func (c *FinanceClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}
