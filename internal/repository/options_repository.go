package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/model"
)

// OptionsRepository provides data access methods for the option_trades table.
type OptionsRepository struct {
	db *sql.DB
}

// NewOptionsRepository creates a new OptionsRepository with the provided database connection.
func NewOptionsRepository(db *sql.DB) *OptionsRepository {
	return &OptionsRepository{db: db}
}

const optionTradeColumns = `id, ticker, type, strike, expiration, premium, fees, currency, status, date_opened, notes`

func scanOptionTrade(scanner interface{ Scan(...any) error }) (model.OptionTrade, error) {
	var t model.OptionTrade
	err := scanner.Scan(
		&t.ID, &t.Ticker, &t.Type, &t.Strike, &t.Expiration,
		&t.Premium, &t.Fees, &t.Currency, &t.Status, &t.DateOpened, &t.Notes,
	)
	return t, err
}

// GetAll retrieves every journaled option trade, newest first.
func (r *OptionsRepository) GetAll(ctx context.Context) ([]model.OptionTrade, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+optionTradeColumns+` FROM option_trades ORDER BY date_opened DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query option_trades table: %w", err)
	}
	defer rows.Close()

	trades := []model.OptionTrade{}
	for rows.Next() {
		t, err := scanOptionTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan option_trades results: %w", err)
		}
		trades = append(trades, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating option_trades table: %w", err)
	}
	return trades, nil
}

// Get retrieves one option trade by ID.
func (r *OptionsRepository) Get(ctx context.Context, id string) (model.OptionTrade, error) {
	t, err := scanOptionTrade(r.db.QueryRowContext(ctx,
		`SELECT `+optionTradeColumns+` FROM option_trades WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.OptionTrade{}, apperrors.ErrOptionTradeNotFound
	}
	if err != nil {
		return model.OptionTrade{}, fmt.Errorf("failed to query option_trades table: %w", err)
	}
	return t, nil
}

// Insert stores a new option trade.
func (r *OptionsRepository) Insert(ctx context.Context, t model.OptionTrade) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO option_trades (`+optionTradeColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, t.ID, t.Ticker, t.Type, t.Strike, t.Expiration,
		t.Premium, t.Fees, t.Currency, t.Status, t.DateOpened, t.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert option trade: %w", err)
	}
	return nil
}

// Update replaces the mutable fields of an option trade.
func (r *OptionsRepository) Update(ctx context.Context, t model.OptionTrade) error {
	result, err := r.db.ExecContext(ctx, `
        UPDATE option_trades
        SET ticker = ?, type = ?, strike = ?, expiration = ?,
            premium = ?, fees = ?, currency = ?, status = ?, notes = ?
        WHERE id = ?
    `, t.Ticker, t.Type, t.Strike, t.Expiration,
		t.Premium, t.Fees, t.Currency, t.Status, t.Notes, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update option trade: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrOptionTradeNotFound
	}
	return nil
}

// Delete removes an option trade by ID.
func (r *OptionsRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM option_trades WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete option trade: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrOptionTradeNotFound
	}
	return nil
}
