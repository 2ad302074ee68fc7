package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mhorak/ibfolio/internal/model"
	"github.com/mhorak/ibfolio/internal/repository"
	"github.com/mhorak/ibfolio/internal/validation"
)

// brokerOptionPattern matches statement option symbols, e.g.
// "SPY 20DEC24 450.0 C".
var brokerOptionPattern = regexp.MustCompile(`^(\w+)\s+(\d{2})([A-Z]{3})(\d{2})\s+([\d\.]+)\s+([CP])$`)

var brokerMonths = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// OptionsService handles the manually journaled option trades.
type OptionsService struct {
	optionsRepo *repository.OptionsRepository
	now         func() time.Time
}

// NewOptionsService creates a new OptionsService with the provided repository.
func NewOptionsService(optionsRepo *repository.OptionsRepository) *OptionsService {
	return &OptionsService{
		optionsRepo: optionsRepo,
		now:         time.Now,
	}
}

// GetAll retrieves every journaled trade, newest first.
func (s *OptionsService) GetAll(ctx context.Context) ([]model.OptionTrade, error) {
	return s.optionsRepo.GetAll(ctx)
}

// Create validates and stores a new option trade. Missing status defaults
// to OPEN and a missing open date to today.
func (s *OptionsService) Create(ctx context.Context, t model.OptionTrade) (model.OptionTrade, error) {
	t.ID = uuid.New().String()
	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))
	if t.Status == "" {
		t.Status = "OPEN"
	}
	if t.DateOpened == "" {
		t.DateOpened = s.now().Format("2006-01-02")
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}

	if err := validation.ValidateOptionTrade(t); err != nil {
		return model.OptionTrade{}, err
	}
	if err := s.optionsRepo.Insert(ctx, t); err != nil {
		return model.OptionTrade{}, err
	}
	return t, nil
}

// Update validates and applies changes to an existing trade.
func (s *OptionsService) Update(ctx context.Context, t model.OptionTrade) (model.OptionTrade, error) {
	if err := validation.ValidateUUID(t.ID); err != nil {
		return model.OptionTrade{}, err
	}

	current, err := s.optionsRepo.Get(ctx, t.ID)
	if err != nil {
		return model.OptionTrade{}, err
	}
	t.DateOpened = current.DateOpened
	t.Ticker = strings.ToUpper(strings.TrimSpace(t.Ticker))

	if err := validation.ValidateOptionTrade(t); err != nil {
		return model.OptionTrade{}, err
	}
	if err := s.optionsRepo.Update(ctx, t); err != nil {
		return model.OptionTrade{}, err
	}
	return t, nil
}

// Delete removes a trade by ID.
func (s *OptionsService) Delete(ctx context.Context, id string) error {
	if err := validation.ValidateUUID(id); err != nil {
		return err
	}
	return s.optionsRepo.Delete(ctx, id)
}

// Stats aggregates the journal for the dashboard.
func (s *OptionsService) Stats(ctx context.Context) (model.OptionStats, error) {
	trades, err := s.optionsRepo.GetAll(ctx)
	if err != nil {
		return model.OptionStats{}, err
	}

	stats := model.OptionStats{ByStatus: make(map[string]int)}
	for _, t := range trades {
		stats.TotalTrades++
		stats.ByStatus[t.Status]++
		if t.Status == "OPEN" {
			stats.OpenTrades++
		}
		stats.PremiumCollected += t.Premium
		stats.FeesPaid += t.Fees
	}
	return stats, nil
}

// ImportFromPositions journals option positions found in the holdings
// snapshot that are not yet tracked, matched by ticker, expiration, strike,
// and right. Returns the trades it created.
func (s *OptionsService) ImportFromPositions(ctx context.Context, positions []model.Position) ([]model.OptionTrade, error) {
	existing, err := s.optionsRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(existing))
	for _, t := range existing {
		known[optionKey(t.Ticker, t.Expiration, t.Strike, t.Type)] = true
	}

	var created []model.OptionTrade
	for _, pos := range positions {
		trade, ok := s.parseBrokerOption(pos)
		if !ok {
			continue
		}
		key := optionKey(trade.Ticker, trade.Expiration, trade.Strike, trade.Type)
		if known[key] {
			continue
		}
		known[key] = true

		trade.ID = uuid.New().String()
		if err := s.optionsRepo.Insert(ctx, trade); err != nil {
			return created, fmt.Errorf("failed to import option %s: %w", pos.Symbol, err)
		}
		created = append(created, trade)
	}
	return created, nil
}

// parseBrokerOption converts an option snapshot row into a journal entry.
// The trade direction comes from the position sign: a negative quantity is
// a written (sold) contract.
func (s *OptionsService) parseBrokerOption(pos model.Position) (model.OptionTrade, bool) {
	if !strings.Contains(pos.AssetCategory, "Option") {
		return model.OptionTrade{}, false
	}
	m := brokerOptionPattern.FindStringSubmatch(strings.TrimSpace(pos.Symbol))
	if m == nil {
		return model.OptionTrade{}, false
	}

	day, _ := strconv.Atoi(m[2])
	month, ok := brokerMonths[m[3]]
	if !ok {
		return model.OptionTrade{}, false
	}
	year, _ := strconv.Atoi(m[4])
	strike, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return model.OptionTrade{}, false
	}

	side := "BUY"
	if pos.Quantity < 0 {
		side = "SELL"
	}
	right := "CALL"
	if m[6] == "P" {
		right = "PUT"
	}

	// The snapshot carries no trade price, but cost basis over quantity is
	// the total premium per contract; dividing by the contract multiplier
	// recovers the per-share premium regardless of direction.
	mult := pos.Multiplier
	if mult <= 1 {
		mult = 100
	}
	var premium float64
	if pos.Quantity != 0 {
		premium = math.Abs(pos.CostBasis / pos.Quantity / mult)
	}

	expiration := time.Date(2000+year, month, day, 0, 0, 0, 0, time.UTC)
	return model.OptionTrade{
		Ticker:     m[1],
		Type:       side + " " + right,
		Strike:     strike,
		Expiration: expiration.Format("2006-01-02"),
		Premium:    premium,
		Currency:   pos.Currency,
		Status:     "OPEN",
		DateOpened: s.now().Format("2006-01-02"),
	}, true
}

func optionKey(ticker, expiration string, strike float64, side string) string {
	return fmt.Sprintf("%s|%s|%.3f|%s", ticker, expiration, strike, side)
}
