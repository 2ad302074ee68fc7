package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrMetadataNotFound indicates that no metadata override exists for a symbol.
	ErrMetadataNotFound = errors.New("metadata not found")

	// ErrOptionTradeNotFound indicates that an options-journal entry does not exist.
	ErrOptionTradeNotFound = errors.New("option trade not found")

	// ErrSettingNotFound indicates that a settings key has not been stored.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrQuoteNotFound indicates that the quote provider returned no data for a symbol.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrRateUnavailable indicates that no provider could resolve a currency
	// rate for the requested date. Callers treat the corresponding zero rate
	// as "cannot value", never as a real rate.
	ErrRateUnavailable = errors.New("exchange rate unavailable")
)

// Data quality errors describe recoverable problems in statement input.
// They are logged and skipped, never fatal to an aggregation pass.
var (
	// ErrMalformedRow indicates a statement row whose numeric or date fields
	// could not be parsed.
	ErrMalformedRow = errors.New("malformed statement row")

	// ErrOversell indicates a sell that exceeds the tracked running quantity.
	ErrOversell = errors.New("sell exceeds tracked position")
)

// Secrets errors.
var (
	// ErrSecretKeyMissing indicates that an encrypted setting was requested
	// but no fernet key is configured.
	ErrSecretKeyMissing = errors.New("secret key not configured")

	// ErrSecretDecrypt indicates that a stored secret failed to decrypt.
	ErrSecretDecrypt = errors.New("failed to decrypt secret")
)
