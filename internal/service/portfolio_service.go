package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/mhorak/ibfolio/internal/ledger"
	"github.com/mhorak/ibfolio/internal/model"
	"github.com/mhorak/ibfolio/internal/repository"
	"github.com/mhorak/ibfolio/internal/statement"
	"github.com/mhorak/ibfolio/internal/valuation"
)

// PortfolioService runs the full aggregation pipeline: statement loading,
// trade replay, and valuation. Passes are serialized so every position in
// one response is priced from the same set of rates and quotes.
type PortfolioService struct {
	source        *statement.DirSource
	reconstructor *ledger.Reconstructor
	engine        *valuation.Engine
	metadataRepo  *repository.MetadataRepository

	mu sync.Mutex
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(
	source *statement.DirSource,
	reconstructor *ledger.Reconstructor,
	engine *valuation.Engine,
	metadataRepo *repository.MetadataRepository,
) *PortfolioService {
	return &PortfolioService{
		source:        source,
		reconstructor: reconstructor,
		engine:        engine,
		metadataRepo:  metadataRepo,
	}
}

// GetPortfolio runs one aggregation pass over the current statement files.
// The result is best-effort: provider failures degrade individual positions
// rather than failing the pass. Only statement-directory and metadata-store
// errors are returned.
func (s *PortfolioService) GetPortfolio(ctx context.Context) (model.PortfolioResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sections, signature, err := s.source.Load()
	if err != nil {
		return model.PortfolioResult{}, fmt.Errorf("failed to load statements: %w", err)
	}
	if len(sections) == 0 {
		return model.PortfolioResult{
			Positions:    []model.PositionView{},
			CashBalances: []model.CashBalance{},
			FXRates:      map[string]float64{},
			Status:       "empty",
		}, nil
	}

	trades := statement.Trades(sections)
	aliases := statement.Aliases(sections)
	costBasis := s.reconstructor.Reconstruct(ctx, trades, aliases, signature)

	metadata, err := s.metadataRepo.GetAll(ctx)
	if err != nil {
		return model.PortfolioResult{}, fmt.Errorf("failed to load metadata: %w", err)
	}

	input := valuation.Input{
		Positions:    statement.Positions(sections),
		Ledger:       costBasis,
		Aliases:      aliases,
		CashBalances: statement.CashBalances(sections),
		AccrualsBase: statement.Accruals(sections),
		Metadata:     metadata,
	}
	if reportDate, ok := statement.ReportDate(sections); ok {
		input.ReportDate = reportDate
	}

	return s.engine.Valuate(ctx, input), nil
}

// GetPositions returns the raw holdings snapshot from the latest statement,
// without pricing it.
func (s *PortfolioService) GetPositions(ctx context.Context) ([]model.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sections, _, err := s.source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load statements: %w", err)
	}
	return statement.Positions(sections), nil
}

// SaveStatement stores an uploaded statement file in the data directory and
// returns the stored filename. The next aggregation pass picks it up through
// the changed content signature.
func (s *PortfolioService) SaveStatement(name string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved, err := s.source.Save(name, r)
	if err != nil {
		return "", fmt.Errorf("failed to save statement: %w", err)
	}
	return saved, nil
}

// GetPerformance aggregates executed orders and interest postings across
// all statement files. Overlapping exports repeat rows, so both lists are
// deduplicated by their natural identity before sorting newest first.
func (s *PortfolioService) GetPerformance(ctx context.Context) (model.PerformanceReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sections, _, err := s.source.Load()
	if err != nil {
		return model.PerformanceReport{}, fmt.Errorf("failed to load statements: %w", err)
	}

	report := model.PerformanceReport{
		Trades:   []model.Execution{},
		Interest: []model.InterestPosting{},
	}

	seenTrades := make(map[string]bool)
	for _, ex := range statement.Executions(sections) {
		key := fmt.Sprintf("%s|%s|%s|%v|%v", ex.Symbol, ex.Date, ex.Time, ex.Quantity, ex.Price)
		if seenTrades[key] {
			continue
		}
		seenTrades[key] = true
		report.Trades = append(report.Trades, ex)
	}
	sort.SliceStable(report.Trades, func(i, j int) bool {
		a, b := report.Trades[i], report.Trades[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.Time > b.Time
	})

	seenInterest := make(map[string]bool)
	for _, p := range statement.InterestPostings(sections) {
		key := fmt.Sprintf("%s|%v|%s|%s", p.Date, p.Amount, p.Currency, p.Description)
		if seenInterest[key] {
			continue
		}
		seenInterest[key] = true
		report.Interest = append(report.Interest, p)
	}
	sort.SliceStable(report.Interest, func(i, j int) bool {
		return report.Interest[i].Date > report.Interest[j].Date
	})

	return report, nil
}

// GetCostBasis returns the reconstructed cost-basis ledger without running
// a valuation, for inspection and debugging endpoints.
func (s *PortfolioService) GetCostBasis(ctx context.Context) (map[string]model.CostBasisEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sections, signature, err := s.source.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load statements: %w", err)
	}
	trades := statement.Trades(sections)
	aliases := statement.Aliases(sections)
	return s.reconstructor.Reconstruct(ctx, trades, aliases, signature), nil
}
