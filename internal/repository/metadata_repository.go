package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/model"
)

// MetadataRepository provides data access methods for the symbol_metadata
// and watchlist tables.
type MetadataRepository struct {
	db *sql.DB
}

// NewMetadataRepository creates a new MetadataRepository with the provided database connection.
func NewMetadataRepository(db *sql.DB) *MetadataRepository {
	return &MetadataRepository{db: db}
}

// GetAll retrieves every symbol override, keyed by symbol.
func (r *MetadataRepository) GetAll(ctx context.Context) (map[string]model.MetadataOverride, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT symbol, buy_zone, sell_zone, country_override, note
        FROM symbol_metadata
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol_metadata table: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]model.MetadataOverride)
	for rows.Next() {
		var m model.MetadataOverride
		var buyZone, sellZone sql.NullFloat64

		if err := rows.Scan(&m.Symbol, &buyZone, &sellZone, &m.CountryOverride, &m.Note); err != nil {
			return nil, fmt.Errorf("failed to scan symbol_metadata results: %w", err)
		}
		if buyZone.Valid {
			m.BuyZone = &buyZone.Float64
		}
		if sellZone.Valid {
			m.SellZone = &sellZone.Float64
		}
		overrides[m.Symbol] = m
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol_metadata table: %w", err)
	}
	return overrides, nil
}

// Get retrieves the override for one symbol.
func (r *MetadataRepository) Get(ctx context.Context, symbol string) (model.MetadataOverride, error) {
	var m model.MetadataOverride
	var buyZone, sellZone sql.NullFloat64

	err := r.db.QueryRowContext(ctx, `
        SELECT symbol, buy_zone, sell_zone, country_override, note
        FROM symbol_metadata
        WHERE symbol = ?
    `, symbol).Scan(&m.Symbol, &buyZone, &sellZone, &m.CountryOverride, &m.Note)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MetadataOverride{}, apperrors.ErrMetadataNotFound
	}
	if err != nil {
		return model.MetadataOverride{}, fmt.Errorf("failed to query symbol_metadata table: %w", err)
	}

	if buyZone.Valid {
		m.BuyZone = &buyZone.Float64
	}
	if sellZone.Valid {
		m.SellZone = &sellZone.Float64
	}
	return m, nil
}

// Upsert creates or replaces the override for a symbol.
func (r *MetadataRepository) Upsert(ctx context.Context, m model.MetadataOverride) error {
	var buyZone, sellZone sql.NullFloat64
	if m.BuyZone != nil {
		buyZone = sql.NullFloat64{Float64: *m.BuyZone, Valid: true}
	}
	if m.SellZone != nil {
		sellZone = sql.NullFloat64{Float64: *m.SellZone, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO symbol_metadata (symbol, buy_zone, sell_zone, country_override, note, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(symbol) DO UPDATE SET
            buy_zone = excluded.buy_zone,
            sell_zone = excluded.sell_zone,
            country_override = excluded.country_override,
            note = excluded.note,
            updated_at = excluded.updated_at
    `, m.Symbol, buyZone, sellZone, m.CountryOverride, m.Note, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert symbol_metadata: %w", err)
	}
	return nil
}

// Delete removes the override for a symbol.
func (r *MetadataRepository) Delete(ctx context.Context, symbol string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM symbol_metadata WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete symbol_metadata: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrMetadataNotFound
	}
	return nil
}

// GetWatchlist retrieves every watched symbol, ordered alphabetically.
func (r *MetadataRepository) GetWatchlist(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT symbol FROM watchlist ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist table: %w", err)
	}
	defer rows.Close()

	symbols := []string{}
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist results: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watchlist table: %w", err)
	}
	return symbols, nil
}

// AddToWatchlist inserts a symbol into the watchlist. Adding a symbol
// twice is a no-op.
func (r *MetadataRepository) AddToWatchlist(ctx context.Context, symbol string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO watchlist (symbol, added_at) VALUES (?, ?)
        ON CONFLICT(symbol) DO NOTHING
    `, symbol, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert watchlist symbol: %w", err)
	}
	return nil
}

// RemoveFromWatchlist deletes a symbol from the watchlist.
func (r *MetadataRepository) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE symbol = ?`, symbol)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist symbol: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrMetadataNotFound
	}
	return nil
}
