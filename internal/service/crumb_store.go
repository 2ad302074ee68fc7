package service

import (
	"context"
	"time"

	"github.com/mhorak/ibfolio/internal/repository"
)

const crumbSettingKey = "quote_provider_crumb"

// SettingsCrumbStore persists the quote provider's session crumb in the
// encrypted settings store, so restarts can reuse a still-valid session
// instead of re-scraping one.
type SettingsCrumbStore struct {
	settingsRepo *repository.SettingsRepository
}

// NewSettingsCrumbStore creates a SettingsCrumbStore over the settings
// repository.
func NewSettingsCrumbStore(settingsRepo *repository.SettingsRepository) *SettingsCrumbStore {
	return &SettingsCrumbStore{settingsRepo: settingsRepo}
}

// LoadCrumb returns the stored crumb, or an error when none is stored or
// no secret key is configured.
func (s *SettingsCrumbStore) LoadCrumb() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.settingsRepo.GetSecret(ctx, crumbSettingKey)
}

// SaveCrumb encrypts and stores the crumb.
func (s *SettingsCrumbStore) SaveCrumb(crumb string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.settingsRepo.SetSecret(ctx, crumbSettingKey, crumb)
}
