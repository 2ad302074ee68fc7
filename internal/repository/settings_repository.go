package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/mhorak/ibfolio/internal/apperrors"
)

// SettingsRepository provides data access methods for the settings table.
// Secret values (provider session tokens) are fernet-encrypted at rest so
// a copied database file does not leak them.
type SettingsRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewSettingsRepository creates a new SettingsRepository. secretKey is the
// base64 fernet key; it may be empty, in which case secret operations
// return apperrors.ErrSecretKeyMissing.
func NewSettingsRepository(db *sql.DB, secretKey string) (*SettingsRepository, error) {
	r := &SettingsRepository{db: db}
	if secretKey != "" {
		key, err := fernet.DecodeKey(secretKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode settings secret key: %w", err)
		}
		r.key = key
	}
	return r, nil
}

// Get retrieves a plaintext setting value.
func (r *SettingsRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query settings table: %w", err)
	}
	return value, nil
}

// Set creates or replaces a plaintext setting value.
func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
    `, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert setting: %w", err)
	}
	return nil
}

// GetSecret retrieves and decrypts an encrypted setting value.
func (r *SettingsRepository) GetSecret(ctx context.Context, key string) (string, error) {
	if r.key == nil {
		return "", apperrors.ErrSecretKeyMissing
	}

	encrypted, err := r.Get(ctx, key)
	if err != nil {
		return "", err
	}

	plaintext := fernet.VerifyAndDecrypt([]byte(encrypted), 0, []*fernet.Key{r.key})
	if plaintext == nil {
		return "", apperrors.ErrSecretDecrypt
	}
	return string(plaintext), nil
}

// SetSecret encrypts and stores a setting value.
func (r *SettingsRepository) SetSecret(ctx context.Context, key, value string) error {
	if r.key == nil {
		return apperrors.ErrSecretKeyMissing
	}

	encrypted, err := fernet.EncryptAndSign([]byte(value), r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt setting: %w", err)
	}
	return r.Set(ctx, key, string(encrypted))
}
