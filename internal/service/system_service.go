package service

import (
	"database/sql"

	"github.com/mhorak/ibfolio/internal/database"
)

// Version is the application version reported by the system endpoints.
const Version = "1.2.0"

// SystemService handles system-related operations
type SystemService struct {
	db *sql.DB
}

// NewSystemService creates a new SystemService
func NewSystemService(db *sql.DB) *SystemService {
	return &SystemService{
		db: db,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// AppVersion returns the running application version.
func (s *SystemService) AppVersion() string {
	return Version
}
