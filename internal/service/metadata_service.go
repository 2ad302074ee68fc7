package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/mhorak/ibfolio/internal/market"
	"github.com/mhorak/ibfolio/internal/model"
	"github.com/mhorak/ibfolio/internal/repository"
	"github.com/mhorak/ibfolio/internal/validation"
)

// MetadataService handles symbol override and watchlist business logic.
type MetadataService struct {
	metadataRepo *repository.MetadataRepository
	market       *market.Service
}

// NewMetadataService creates a new MetadataService with the provided dependencies.
func NewMetadataService(metadataRepo *repository.MetadataRepository, market *market.Service) *MetadataService {
	return &MetadataService{
		metadataRepo: metadataRepo,
		market:       market,
	}
}

// GetAll retrieves every symbol override.
func (s *MetadataService) GetAll(ctx context.Context) (map[string]model.MetadataOverride, error) {
	return s.metadataRepo.GetAll(ctx)
}

// Get retrieves the override for one symbol.
func (s *MetadataService) Get(ctx context.Context, symbol string) (model.MetadataOverride, error) {
	return s.metadataRepo.Get(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// Upsert validates and stores an override. The symbol is normalized to
// upper case so statement lookups are case-insensitive.
func (s *MetadataService) Upsert(ctx context.Context, m model.MetadataOverride) (model.MetadataOverride, error) {
	m.Symbol = strings.ToUpper(strings.TrimSpace(m.Symbol))
	if err := validation.ValidateMetadata(m); err != nil {
		return model.MetadataOverride{}, err
	}
	if err := s.metadataRepo.Upsert(ctx, m); err != nil {
		return model.MetadataOverride{}, err
	}
	return m, nil
}

// Delete removes the override for a symbol.
func (s *MetadataService) Delete(ctx context.Context, symbol string) error {
	return s.metadataRepo.Delete(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// Watchlist retrieves the watched symbols.
func (s *MetadataService) Watchlist(ctx context.Context) ([]string, error) {
	return s.metadataRepo.GetWatchlist(ctx)
}

// AddToWatchlist validates and stores a watched symbol.
func (s *MetadataService) AddToWatchlist(ctx context.Context, symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if err := validation.ValidateSymbol(symbol); err != nil {
		return "", err
	}
	if err := s.metadataRepo.AddToWatchlist(ctx, symbol); err != nil {
		return "", err
	}
	return symbol, nil
}

// RemoveFromWatchlist deletes a watched symbol.
func (s *MetadataService) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	return s.metadataRepo.RemoveFromWatchlist(ctx, strings.ToUpper(strings.TrimSpace(symbol)))
}

// WatchlistQuotes fetches live quotes for every watched symbol, enriched
// with the stored zone annotations. Symbols the provider cannot quote are
// returned with a zero price so the watchlist stays complete.
func (s *MetadataService) WatchlistQuotes(ctx context.Context) ([]WatchlistEntry, error) {
	symbols, err := s.metadataRepo.GetWatchlist(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	overrides, err := s.metadataRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}

	quotes := s.market.GetQuotes(ctx, symbols)

	entries := make([]WatchlistEntry, 0, len(symbols))
	for _, symbol := range symbols {
		entry := WatchlistEntry{Symbol: symbol}
		if quote, ok := quotes[symbol]; ok {
			entry.Quote = quote
			entry.Found = true
		}
		if meta, ok := overrides[symbol]; ok {
			entry.Metadata = &meta
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// WatchlistEntry is one watched symbol with its live quote and stored
// annotations.
type WatchlistEntry struct {
	Symbol   string                  `json:"symbol"`
	Quote    model.Quote             `json:"quote"`
	Found    bool                    `json:"found"`
	Metadata *model.MetadataOverride `json:"metadata,omitempty"`
}
