package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/model"
	"github.com/mhorak/ibfolio/internal/repository"
	"github.com/mhorak/ibfolio/internal/testutil"
)

func TestMetadataRepository(t *testing.T) {
	t.Run("upsert and get round-trips an override", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewMetadataRepository(db)

		meta := model.MetadataOverride{
			Symbol:          "AAPL",
			BuyZone:         testutil.Float(150),
			SellZone:        testutil.Float(220),
			CountryOverride: "US",
			Note:            "core holding",
		}

		// Execute
		if err := repo.Upsert(context.Background(), meta); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		got, err := repo.Get(context.Background(), "AAPL")

		// Assert
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.BuyZone == nil || *got.BuyZone != 150 {
			t.Errorf("Expected buy zone 150, got %v", got.BuyZone)
		}
		if got.CountryOverride != "US" {
			t.Errorf("Expected country override US, got %q", got.CountryOverride)
		}
		if got.Note != "core holding" {
			t.Errorf("Expected note to survive, got %q", got.Note)
		}
	})

	t.Run("upsert replaces an existing override", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewMetadataRepository(db)
		testutil.NewMetadata("EVO").WithZones(80, 140).Build(t, db)

		// Execute: second upsert clears the zones
		if err := repo.Upsert(context.Background(), model.MetadataOverride{Symbol: "EVO", Note: "rebased"}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		// Assert
		got, err := repo.Get(context.Background(), "EVO")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.BuyZone != nil || got.SellZone != nil {
			t.Errorf("Expected zones cleared, got %v/%v", got.BuyZone, got.SellZone)
		}
		testutil.AssertRowCount(t, db, "symbol_metadata", 1)
	})

	t.Run("get returns not found for unknown symbol", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMetadataRepository(db)

		_, err := repo.Get(context.Background(), "MISSING")
		if !errors.Is(err, apperrors.ErrMetadataNotFound) {
			t.Errorf("Expected ErrMetadataNotFound, got %v", err)
		}
	})

	t.Run("get all keys overrides by symbol", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewMetadataRepository(db)
		testutil.NewMetadata("AAPL").WithZones(150, 220).Build(t, db)
		testutil.NewMetadata("BABA").WithCountry("CN").Build(t, db)

		// Execute
		all, err := repo.GetAll(context.Background())

		// Assert
		if err != nil {
			t.Fatalf("GetAll failed: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("Expected 2 overrides, got %d", len(all))
		}
		if all["BABA"].CountryOverride != "CN" {
			t.Errorf("Expected BABA country CN, got %q", all["BABA"].CountryOverride)
		}
	})

	t.Run("delete removes an override", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewMetadataRepository(db)
		testutil.NewMetadata("AAPL").Build(t, db)

		// Execute
		if err := repo.Delete(context.Background(), "AAPL"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		// Assert
		testutil.AssertRowCount(t, db, "symbol_metadata", 0)
		if err := repo.Delete(context.Background(), "AAPL"); !errors.Is(err, apperrors.ErrMetadataNotFound) {
			t.Errorf("Expected ErrMetadataNotFound on second delete, got %v", err)
		}
	})
}

func TestMetadataRepository_Watchlist(t *testing.T) {
	t.Run("add, list, and remove symbols", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewMetadataRepository(db)

		// Execute
		for _, symbol := range []string{"WIZZ.L", "AAPL", "EVO.ST"} {
			if err := repo.AddToWatchlist(context.Background(), symbol); err != nil {
				t.Fatalf("AddToWatchlist failed: %v", err)
			}
		}

		// Assert: alphabetical order
		symbols, err := repo.GetWatchlist(context.Background())
		if err != nil {
			t.Fatalf("GetWatchlist failed: %v", err)
		}
		want := []string{"AAPL", "EVO.ST", "WIZZ.L"}
		if len(symbols) != len(want) {
			t.Fatalf("Expected %d symbols, got %d", len(want), len(symbols))
		}
		for i, symbol := range want {
			if symbols[i] != symbol {
				t.Errorf("Expected %q at index %d, got %q", symbol, i, symbols[i])
			}
		}

		if err := repo.RemoveFromWatchlist(context.Background(), "AAPL"); err != nil {
			t.Fatalf("RemoveFromWatchlist failed: %v", err)
		}
		testutil.AssertRowCount(t, db, "watchlist", 2)
	})

	t.Run("adding a symbol twice is a no-op", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMetadataRepository(db)

		if err := repo.AddToWatchlist(context.Background(), "AAPL"); err != nil {
			t.Fatalf("AddToWatchlist failed: %v", err)
		}
		if err := repo.AddToWatchlist(context.Background(), "AAPL"); err != nil {
			t.Fatalf("Second AddToWatchlist failed: %v", err)
		}
		testutil.AssertRowCount(t, db, "watchlist", 1)
	})

	t.Run("removing an unknown symbol returns not found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewMetadataRepository(db)

		err := repo.RemoveFromWatchlist(context.Background(), "MISSING")
		if !errors.Is(err, apperrors.ErrMetadataNotFound) {
			t.Errorf("Expected ErrMetadataNotFound, got %v", err)
		}
	})
}
