package market

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/kvstore"
	"github.com/mhorak/ibfolio/internal/model"
)

// fakeFetcher serves canned quotes and counts provider calls.
type fakeFetcher struct {
	mu           sync.Mutex
	quotes       map[string]model.Quote
	pairRates    map[string]float64
	countries    map[string]string
	history      map[string][]model.Candle
	quoteCalls   int
	historyCalls int
	lastSpan     [2]string
}

func (f *fakeFetcher) Quote(_ context.Context, symbol string) (model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quoteCalls++
	q, ok := f.quotes[symbol]
	if !ok {
		return model.Quote{}, fmt.Errorf("no quote for %s", symbol)
	}
	return q, nil
}

func (f *fakeFetcher) PairPrice(_ context.Context, from, to string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.pairRates[from+to]
	if !ok {
		return 0, fmt.Errorf("no rate for %s%s", from, to)
	}
	return v, nil
}

func (f *fakeFetcher) Profile(_ context.Context, symbol string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.countries[symbol]
	if !ok {
		return "", fmt.Errorf("no profile for %s", symbol)
	}
	return c, nil
}

func (f *fakeFetcher) History(_ context.Context, symbol, period, interval string) ([]model.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	f.lastSpan = [2]string{period, interval}
	candles, ok := f.history[symbol]
	if !ok {
		return nil, fmt.Errorf("no history for %s", symbol)
	}
	return candles, nil
}

func newTestService(t *testing.T, fetcher *fakeFetcher) *Service {
	t.Helper()
	store, err := kvstore.Open[model.Quote](filepath.Join(t.TempDir(), "quotes.json"))
	if err != nil {
		t.Fatalf("failed to open quote store: %v", err)
	}
	s := NewService(fetcher, store, 0)
	s.limiter = rate.NewLimiter(rate.Inf, 1) // no throttling in tests
	return s
}

// TestTranslateSymbol tests broker-to-provider symbol translation.
func TestTranslateSymbol(t *testing.T) {
	tests := []struct {
		broker string
		want   string
	}{
		{"AAPL", "AAPL"},
		{"EVO", "EVO.ST"},
		{"ZAL", "ZAL.DE"},
		{"WIZZ", "WIZZ.L"},
		{"SPY 20DEC24 450.0 C", "SPY241220C00450000"},
		{"TSLA 17JAN25 222.5 P", "TSLA250117P00222500"},
		{"BRK B", "BRK-B"},
	}

	for _, tt := range tests {
		t.Run(tt.broker, func(t *testing.T) {
			if got := TranslateSymbol(tt.broker); got != tt.want {
				t.Errorf("TranslateSymbol(%q) = %q, want %q", tt.broker, got, tt.want)
			}
		})
	}
}

// TestGetQuotes_PartialFailure tests that one symbol's failure is isolated.
//
// WHY: The valuation pass must still price N-1 positions when one quote
// fetch fails; a missing map entry is the contract for "unknown".
func TestGetQuotes_PartialFailure(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]model.Quote{
		"AAPL": {Price: 230, Currency: "USD", Name: "Apple Inc."},
		"MSFT": {Price: 410, Currency: "USD", Name: "Microsoft"},
	}}
	s := newTestService(t, fetcher)

	quotes := s.GetQuotes(context.Background(), []string{"AAPL", "MSFT", "BOGUS"})

	if len(quotes) != 2 {
		t.Fatalf("Expected 2 quotes, got %d: %v", len(quotes), quotes)
	}
	if _, ok := quotes["BOGUS"]; ok {
		t.Error("Failed symbol present in results")
	}
	if quotes["AAPL"].Price != 230 {
		t.Errorf("AAPL price = %v, want 230", quotes["AAPL"].Price)
	}
}

// TestGetQuotes_CacheAndCooldown tests the cache and failed-symbol layers.
//
// WHY: A second request inside the TTL must not touch the provider, and a
// symbol that just failed must not be retried until its cooldown expires.
func TestGetQuotes_CacheAndCooldown(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]model.Quote{
		"AAPL": {Price: 230, Currency: "USD"},
	}}
	s := newTestService(t, fetcher)

	s.GetQuotes(context.Background(), []string{"AAPL", "BOGUS"})
	callsAfterFirst := fetcher.quoteCalls

	s.GetQuotes(context.Background(), []string{"AAPL", "BOGUS"})
	if fetcher.quoteCalls != callsAfterFirst {
		t.Errorf("Second request hit the provider (%d -> %d calls)", callsAfterFirst, fetcher.quoteCalls)
	}
}

// TestGetQuotes_PenceNormalization tests GBp-to-GBP price conversion.
func TestGetQuotes_PenceNormalization(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]model.Quote{
		"WIZZ.L": {Price: 1450, Currency: "GBp", High52: 2500, Low52: 1100},
	}}
	s := newTestService(t, fetcher)

	quotes := s.GetQuotes(context.Background(), []string{"WIZZ"})
	q, ok := quotes["WIZZ"]
	if !ok {
		t.Fatal("WIZZ missing from results")
	}
	if q.Price != 14.50 || q.Currency != "GBP" {
		t.Errorf("Got price=%v currency=%s, want 14.50 GBP", q.Price, q.Currency)
	}
	if q.High52 != 25 || q.Low52 != 11 {
		t.Errorf("52-week range = %v/%v, want 25/11", q.High52, q.Low52)
	}
}

// TestGetQuotes_DurablePersistence tests the last-known-quote store.
func TestGetQuotes_DurablePersistence(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]model.Quote{
		"AAPL": {Price: 230, Currency: "USD"},
	}}
	s := newTestService(t, fetcher)

	s.GetQuotes(context.Background(), []string{"AAPL"})

	stored, ok := s.LastKnownQuote("AAPL")
	if !ok {
		t.Fatal("Quote not persisted to durable store")
	}
	if stored.Price != 230 {
		t.Errorf("Stored price = %v, want 230", stored.Price)
	}
}

// TestNewService_QuoteTTL tests that the configured TTL drives cache expiry.
//
// WHY: The TTL is an operator tunable; a hardcoded expiry would make the
// QUOTE_TTL setting a no-op.
func TestNewService_QuoteTTL(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]model.Quote{
		"AAPL": {Price: 230, Currency: "USD"},
	}}
	s := NewService(fetcher, nil, 10*time.Millisecond)
	s.limiter = rate.NewLimiter(rate.Inf, 1)

	s.GetQuotes(context.Background(), []string{"AAPL"})
	callsAfterFirst := fetcher.quoteCalls

	time.Sleep(20 * time.Millisecond)
	s.GetQuotes(context.Background(), []string{"AAPL"})

	if fetcher.quoteCalls != callsAfterFirst+1 {
		t.Errorf("Expected a refetch after TTL expiry (%d -> %d calls)", callsAfterFirst, fetcher.quoteCalls)
	}
}

// TestGetOHLCV tests range mapping, caching, and the missing-history error.
func TestGetOHLCV(t *testing.T) {
	candles := []model.Candle{
		{Time: 1717200000, Open: 100, High: 105, Low: 99, Close: 104, Volume: 1_000_000},
		{Time: 1717286400, Open: 104, High: 108, Low: 103, Close: 107, Volume: 900_000},
	}

	t.Run("maps the range and translates the symbol", func(t *testing.T) {
		// Setup
		fetcher := &fakeFetcher{history: map[string][]model.Candle{"EVO.ST": candles}}
		s := newTestService(t, fetcher)

		// Execute
		got, err := s.GetOHLCV(context.Background(), "EVO", "1w")

		// Assert
		if err != nil {
			t.Fatalf("GetOHLCV failed: %v", err)
		}
		if got.Symbol != "EVO" || got.Range != "1w" || len(got.Candles) != 2 {
			t.Errorf("Unexpected history: %+v", got)
		}
		if fetcher.lastSpan != [2]string{"5d", "15m"} {
			t.Errorf("Span for 1w = %v, want [5d 15m]", fetcher.lastSpan)
		}
	})

	t.Run("unknown range falls back to one year", func(t *testing.T) {
		fetcher := &fakeFetcher{history: map[string][]model.Candle{"AAPL": candles}}
		s := newTestService(t, fetcher)

		got, err := s.GetOHLCV(context.Background(), "AAPL", "2centuries")
		if err != nil {
			t.Fatalf("GetOHLCV failed: %v", err)
		}
		if got.Range != "1y" || fetcher.lastSpan != [2]string{"1y", "1d"} {
			t.Errorf("Fallback range = %q span %v, want 1y [1y 1d]", got.Range, fetcher.lastSpan)
		}
	})

	t.Run("repeated requests are served from cache", func(t *testing.T) {
		fetcher := &fakeFetcher{history: map[string][]model.Candle{"AAPL": candles}}
		s := newTestService(t, fetcher)

		if _, err := s.GetOHLCV(context.Background(), "AAPL", "1y"); err != nil {
			t.Fatalf("GetOHLCV failed: %v", err)
		}
		if _, err := s.GetOHLCV(context.Background(), "AAPL", "1y"); err != nil {
			t.Fatalf("GetOHLCV failed: %v", err)
		}
		if fetcher.historyCalls != 1 {
			t.Errorf("Expected 1 provider call, got %d", fetcher.historyCalls)
		}
	})

	t.Run("missing history maps to quote-not-found", func(t *testing.T) {
		s := newTestService(t, &fakeFetcher{history: map[string][]model.Candle{"EMPTY": {}}})

		if _, err := s.GetOHLCV(context.Background(), "EMPTY", "1y"); !errors.Is(err, apperrors.ErrQuoteNotFound) {
			t.Errorf("Expected ErrQuoteNotFound for an empty series, got %v", err)
		}
	})
}

// TestGetLiveFXRates tests live FX pair resolution.
func TestGetLiveFXRates(t *testing.T) {
	fetcher := &fakeFetcher{pairRates: map[string]float64{
		"USDCZK": 23.1,
		"EURCZK": 25.2,
	}}
	s := newTestService(t, fetcher)

	rates := s.GetLiveFXRates(context.Background(), []string{"USD", "EUR", "CZK", "XXX"}, "CZK")

	if rates["CZK"] != 1.0 {
		t.Errorf("Identity rate = %v, want 1.0", rates["CZK"])
	}
	if rates["USD"] != 23.1 || rates["EUR"] != 25.2 {
		t.Errorf("Rates = %v, want USD 23.1 and EUR 25.2", rates)
	}
	if _, ok := rates["XXX"]; ok {
		t.Error("Unresolvable pair present in results")
	}
}
