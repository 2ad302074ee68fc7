package service

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// RefreshService keeps the quote and FX caches warm by re-running the
// aggregation pass on a schedule, so interactive requests mostly hit warm
// caches instead of waiting on external providers.
type RefreshService struct {
	portfolio *PortfolioService
	schedule  string
	timeout   time.Duration
	cron      *cron.Cron
}

// NewRefreshService creates a RefreshService running on the given cron
// schedule (e.g. "@every 15m").
func NewRefreshService(portfolio *PortfolioService, schedule string, timeout time.Duration) *RefreshService {
	return &RefreshService{
		portfolio: portfolio,
		schedule:  schedule,
		timeout:   timeout,
		cron:      cron.New(),
	}
}

// Start registers the refresh job and starts the scheduler.
func (s *RefreshService) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.refresh)
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("refresh: scheduled portfolio refresh %s", s.schedule)
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish.
func (s *RefreshService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *RefreshService) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.portfolio.GetPortfolio(ctx)
	if err != nil {
		log.Printf("refresh: portfolio refresh failed: %v", err)
		return
	}
	log.Printf("refresh: refreshed %d positions in %s (status %s)",
		len(result.Positions), time.Since(start).Round(time.Millisecond), result.Status)
}
