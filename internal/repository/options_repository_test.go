package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/repository"
	"github.com/mhorak/ibfolio/internal/testutil"
)

func TestOptionsRepository(t *testing.T) {
	t.Run("insert and get round-trips a trade", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewOptionsRepository(db)
		trade := testutil.NewOptionTrade("SPY").WithStrike(450).WithPremium(320).Build(t, db)

		// Execute
		got, err := repo.Get(context.Background(), trade.ID)

		// Assert
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Ticker != "SPY" || got.Strike != 450 || got.Premium != 320 {
			t.Errorf("Unexpected trade: %+v", got)
		}
		if got.Status != "OPEN" {
			t.Errorf("Expected status OPEN, got %q", got.Status)
		}
	})

	t.Run("get all orders newest first", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewOptionsRepository(db)
		testutil.NewOptionTrade("SPY").WithDateOpened("2025-01-02").Build(t, db)
		testutil.NewOptionTrade("TSLA").WithDateOpened("2025-03-01").Build(t, db)
		testutil.NewOptionTrade("QQQ").WithDateOpened("2024-11-15").Build(t, db)

		// Execute
		trades, err := repo.GetAll(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("GetAll failed: %v", err)
		}
		if len(trades) != 3 {
			t.Fatalf("Expected 3 trades, got %d", len(trades))
		}
		if trades[0].Ticker != "TSLA" || trades[2].Ticker != "QQQ" {
			t.Errorf("Expected newest-first ordering, got %s, %s, %s",
				trades[0].Ticker, trades[1].Ticker, trades[2].Ticker)
		}
	})

	t.Run("update changes mutable fields", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewOptionsRepository(db)
		trade := testutil.NewOptionTrade("SPY").Build(t, db)

		// Execute
		trade.Status = "CLOSED"
		trade.Premium = 410
		if err := repo.Update(context.Background(), trade); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		// Assert
		got, err := repo.Get(context.Background(), trade.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Status != "CLOSED" || got.Premium != 410 {
			t.Errorf("Expected updated trade, got %+v", got)
		}
	})

	t.Run("get returns not found for unknown id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewOptionsRepository(db)

		_, err := repo.Get(context.Background(), testutil.MakeID())
		if !errors.Is(err, apperrors.ErrOptionTradeNotFound) {
			t.Errorf("Expected ErrOptionTradeNotFound, got %v", err)
		}
	})

	t.Run("delete removes a trade", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewOptionsRepository(db)
		trade := testutil.NewOptionTrade("SPY").Build(t, db)

		// Execute
		if err := repo.Delete(context.Background(), trade.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		// Assert
		testutil.AssertRowCount(t, db, "option_trades", 0)
		if err := repo.Delete(context.Background(), trade.ID); !errors.Is(err, apperrors.ErrOptionTradeNotFound) {
			t.Errorf("Expected ErrOptionTradeNotFound on second delete, got %v", err)
		}
	})
}
