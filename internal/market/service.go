// Package market serves live quotes and FX rates with caching, throttling,
// and failed-symbol cooldown on top of an external quote provider.
package market

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/kvstore"
	"github.com/mhorak/ibfolio/internal/model"
)

const (
	defaultQuoteTTL = 5 * time.Minute
	failedCooldown  = 1 * time.Hour
	fetchWorkers    = 4

	// Intraday candles move constantly; daily candles change once a day.
	intradayHistoryTTL = 1 * time.Minute
	dailyHistoryTTL    = 1 * time.Hour
)

// QuoteFetcher is the external provider contract: per-symbol quotes, FX
// pair prices, company domicile lookups, and price history.
type QuoteFetcher interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	PairPrice(ctx context.Context, from, to string) (float64, error)
	Profile(ctx context.Context, symbol string) (string, error)
	History(ctx context.Context, symbol, period, interval string) ([]model.Candle, error)
}

// historySpan maps a chart range to the provider's period/interval pair.
type historySpan struct {
	period   string
	interval string
	intraday bool
}

var historySpans = map[string]historySpan{
	"1d":  {"1d", "5m", true},
	"1w":  {"5d", "15m", true},
	"1m":  {"1mo", "1d", false},
	"3m":  {"3mo", "1d", false},
	"6m":  {"6mo", "1d", false},
	"1y":  {"1y", "1d", false},
	"5y":  {"5y", "1wk", false},
	"max": {"max", "1wk", false},
}

// Service answers quote and FX lookups for the valuation pass.
//
// Three layers sit in front of the provider: a short-TTL in-memory cache so
// one aggregation pass never fetches a symbol twice, a failed-symbol
// cooldown so a symbol the provider cannot quote is not retried on every
// request, and a durable store so the last known quote survives restarts.
// Outgoing requests are serialized through a minimum-delay throttle.
type Service struct {
	fetcher QuoteFetcher
	cache   *gocache.Cache
	failed  *gocache.Cache
	store   *kvstore.Store[model.Quote]
	limiter *rate.Limiter

	mu        sync.Mutex
	countries map[string]string
}

// NewService creates a market Service over fetcher. store may be nil to
// disable durable quote persistence; a non-positive quoteTTL falls back to
// the default.
func NewService(fetcher QuoteFetcher, store *kvstore.Store[model.Quote], quoteTTL time.Duration) *Service {
	if quoteTTL <= 0 {
		quoteTTL = defaultQuoteTTL
	}
	return &Service{
		fetcher:   fetcher,
		cache:     gocache.New(quoteTTL, 10*time.Minute),
		failed:    gocache.New(failedCooldown, 10*time.Minute),
		store:     store,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		countries: make(map[string]string),
	}
}

// GetQuotes fetches live quotes for the given broker symbols concurrently.
// The result is partial: symbols that cannot be quoted are simply absent,
// and one symbol's failure never aborts the batch.
func (s *Service) GetQuotes(ctx context.Context, symbols []string) map[string]model.Quote {
	results := make(map[string]model.Quote, len(symbols))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchWorkers)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			quote, ok := s.getQuote(ctx, symbol)
			if !ok {
				return nil
			}
			mu.Lock()
			results[symbol] = quote
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; failures are local misses.
	_ = g.Wait()
	return results
}

// getQuote resolves one broker symbol through the cache layers and, on a
// miss, the provider.
func (s *Service) getQuote(ctx context.Context, symbol string) (model.Quote, bool) {
	if cached, ok := s.cache.Get(symbol); ok {
		return cached.(model.Quote), true
	}
	if _, cooling := s.failed.Get(symbol); cooling {
		return model.Quote{}, false
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return model.Quote{}, false
	}

	yahooSymbol := TranslateSymbol(symbol)
	quote, err := s.fetcher.Quote(ctx, yahooSymbol)
	if err != nil {
		log.Printf("market: quote fetch failed for %s (%s): %v", symbol, yahooSymbol, err)
		s.failed.SetDefault(symbol, true)
		return model.Quote{}, false
	}

	// Pence-quoted instruments are normalized to pounds so prices and
	// position currencies line up.
	if quote.Currency == "GBp" || quote.Currency == "GBX" {
		quote.Price /= 100
		quote.High52 /= 100
		quote.Low52 /= 100
		quote.Currency = "GBP"
	}

	quote.Symbol = symbol
	quote.Country = s.country(ctx, yahooSymbol)

	s.cache.SetDefault(symbol, quote)
	if s.store != nil {
		if err := s.store.Put(symbol, quote); err != nil {
			log.Printf("market: failed to persist quote for %s: %v", symbol, err)
		}
	}
	return quote, true
}

// country resolves the provider-reported domicile for a symbol, memoized
// for the process lifetime; domiciles do not change intraday.
func (s *Service) country(ctx context.Context, yahooSymbol string) string {
	s.mu.Lock()
	if country, ok := s.countries[yahooSymbol]; ok {
		s.mu.Unlock()
		return country
	}
	s.mu.Unlock()

	country, err := s.fetcher.Profile(ctx, yahooSymbol)
	if err != nil {
		return ""
	}

	s.mu.Lock()
	s.countries[yahooSymbol] = country
	s.mu.Unlock()
	return country
}

// GetLiveFXRates fetches today's rates from each currency to target,
// concurrently. Identity pairs resolve to 1 without a fetch; failed pairs
// are absent from the result.
func (s *Service) GetLiveFXRates(ctx context.Context, currencies []string, target string) map[string]float64 {
	rates := make(map[string]float64, len(currencies))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchWorkers)

	for _, currency := range currencies {
		currency := strings.ToUpper(strings.TrimSpace(currency))
		if currency == target {
			rates[currency] = 1.0
			continue
		}

		g.Go(func() error {
			key := "FX:" + currency + target
			if cached, ok := s.cache.Get(key); ok {
				mu.Lock()
				rates[currency] = cached.(float64)
				mu.Unlock()
				return nil
			}

			if err := s.limiter.Wait(ctx); err != nil {
				return nil
			}
			value, err := s.fetcher.PairPrice(ctx, currency, target)
			if err != nil || value <= 0 {
				log.Printf("market: live fx fetch failed for %s/%s: %v", currency, target, err)
				return nil
			}

			s.cache.SetDefault(key, value)
			mu.Lock()
			rates[currency] = value
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return rates
}

// GetOHLCV fetches the candle history for a broker symbol over a named
// range ("1d", "1w", "1m", "3m", "6m", "1y", "5y", "max"; unknown ranges
// fall back to "1y"). Results are cached with a short TTL for intraday
// ranges and a longer one for daily ranges.
func (s *Service) GetOHLCV(ctx context.Context, symbol, rng string) (model.OHLCV, error) {
	span, ok := historySpans[rng]
	if !ok {
		rng = "1y"
		span = historySpans[rng]
	}

	key := "OHLCV:" + symbol + ":" + rng
	if cached, ok := s.cache.Get(key); ok {
		return cached.(model.OHLCV), nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return model.OHLCV{}, err
	}

	candles, err := s.fetcher.History(ctx, TranslateSymbol(symbol), span.period, span.interval)
	if err != nil {
		return model.OHLCV{}, fmt.Errorf("history for %s: %w", symbol, err)
	}
	if len(candles) == 0 {
		return model.OHLCV{}, fmt.Errorf("history for %s: %w", symbol, apperrors.ErrQuoteNotFound)
	}

	result := model.OHLCV{Symbol: symbol, Range: rng, Candles: candles}
	ttl := dailyHistoryTTL
	if span.intraday {
		ttl = intradayHistoryTTL
	}
	s.cache.Set(key, result, ttl)
	return result, nil
}

// LastKnownQuote returns the durably stored quote for a symbol, if any.
// Used as a stale fallback when the provider is unreachable.
func (s *Service) LastKnownQuote(symbol string) (model.Quote, bool) {
	if s.store == nil {
		return model.Quote{}, false
	}
	return s.store.Get(symbol)
}
