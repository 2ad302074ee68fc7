package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fernet/fernet-go"

	"github.com/mhorak/ibfolio/internal/apperrors"
	"github.com/mhorak/ibfolio/internal/repository"
	"github.com/mhorak/ibfolio/internal/testutil"
)

func testSecretKey(t *testing.T) string {
	t.Helper()

	var key fernet.Key
	if err := key.Generate(); err != nil {
		t.Fatalf("Failed to generate fernet key: %v", err)
	}
	return key.Encode()
}

func TestSettingsRepository(t *testing.T) {
	t.Run("set and get a plaintext value", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewSettingsRepository(db, "")
		if err != nil {
			t.Fatalf("NewSettingsRepository failed: %v", err)
		}

		// Execute
		if err := repo.Set(context.Background(), "refresh_schedule", "@every 15m"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := repo.Get(context.Background(), "refresh_schedule")

		// Assert
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "@every 15m" {
			t.Errorf("Expected '@every 15m', got %q", got)
		}
	})

	t.Run("set replaces an existing value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewSettingsRepository(db, "")
		if err != nil {
			t.Fatalf("NewSettingsRepository failed: %v", err)
		}

		if err := repo.Set(context.Background(), "key", "first"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := repo.Set(context.Background(), "key", "second"); err != nil {
			t.Fatalf("Second set failed: %v", err)
		}

		got, err := repo.Get(context.Background(), "key")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != "second" {
			t.Errorf("Expected 'second', got %q", got)
		}
		testutil.AssertRowCount(t, db, "settings", 1)
	})

	t.Run("get returns not found for unknown key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewSettingsRepository(db, "")
		if err != nil {
			t.Fatalf("NewSettingsRepository failed: %v", err)
		}

		_, err = repo.Get(context.Background(), "missing")
		if !errors.Is(err, apperrors.ErrSettingNotFound) {
			t.Errorf("Expected ErrSettingNotFound, got %v", err)
		}
	})

	t.Run("secrets round-trip through encryption", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewSettingsRepository(db, testSecretKey(t))
		if err != nil {
			t.Fatalf("NewSettingsRepository failed: %v", err)
		}

		// Execute
		if err := repo.SetSecret(context.Background(), "crumb", "Xa9/27b"); err != nil {
			t.Fatalf("SetSecret failed: %v", err)
		}

		// Assert: decrypts back, and the stored value is not the plaintext
		got, err := repo.GetSecret(context.Background(), "crumb")
		if err != nil {
			t.Fatalf("GetSecret failed: %v", err)
		}
		if got != "Xa9/27b" {
			t.Errorf("Expected decrypted secret, got %q", got)
		}
		raw, err := repo.Get(context.Background(), "crumb")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if raw == "Xa9/27b" {
			t.Error("Expected stored value to be encrypted")
		}
	})

	t.Run("secret operations without a key fail", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo, err := repository.NewSettingsRepository(db, "")
		if err != nil {
			t.Fatalf("NewSettingsRepository failed: %v", err)
		}

		if err := repo.SetSecret(context.Background(), "crumb", "value"); !errors.Is(err, apperrors.ErrSecretKeyMissing) {
			t.Errorf("Expected ErrSecretKeyMissing from SetSecret, got %v", err)
		}
		if _, err := repo.GetSecret(context.Background(), "crumb"); !errors.Is(err, apperrors.ErrSecretKeyMissing) {
			t.Errorf("Expected ErrSecretKeyMissing from GetSecret, got %v", err)
		}
	})

	t.Run("rejects a malformed secret key", func(t *testing.T) {
		db := testutil.SetupTestDB(t)

		if _, err := repository.NewSettingsRepository(db, "not-a-key"); err == nil {
			t.Error("Expected error for malformed key")
		}
	})
}
