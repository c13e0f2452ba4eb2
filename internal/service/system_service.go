package service

import (
	"database/sql"
	"fmt"
	"runtime"

	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/database"
	"github.com/ndewijer/Stock-Holdings-Tracker-Backend/internal/version"
)

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

// VersionInfo is the running build plus the applied schema version.
type VersionInfo struct {
	version.Info
	SchemaVersion int64 `json:"schemaVersion"`
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application and schema versions.
func (s *SystemService) CheckVersion() (VersionInfo, error) {
	schema, err := database.SchemaVersion(s.db)
	if err != nil {
		return VersionInfo{}, fmt.Errorf("failed to get schema version: %w", err)
	}

	return VersionInfo{
		Info: version.Info{
			Version:   version.Version,
			GoVersion: runtime.Version(),
		},
		SchemaVersion: schema,
	}, nil
}
