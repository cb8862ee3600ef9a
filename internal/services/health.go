package services

import (
	"context"
	"time"

	"autoblog/internal/store"
)

// HealthStatus is the health endpoint payload
type HealthStatus struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Database  string    `json:"database"`
	Timestamp time.Time `json:"timestamp"`
}

// VersionInfo is the version endpoint payload
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion,omitempty"`
}

// HealthService answers liveness probes from the desktop wrapper
type HealthService struct {
	version string
	started time.Time
	db      *store.Store
}

// NewHealthService creates the health service
func NewHealthService(version string, db *store.Store) *HealthService {
	return &HealthService{
		version: version,
		started: time.Now(),
		db:      db,
	}
}

// Health reports overall status. Degraded means the process is up but
// the database is not answering.
func (s *HealthService) Health(ctx context.Context) HealthStatus {
	status := "healthy"
	database := "ok"
	if err := s.db.Ping(ctx); err != nil {
		status = "degraded"
		database = err.Error()
	}
	return HealthStatus{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Database:  database,
		Timestamp: time.Now(),
	}
}

// Version reports the running build version
func (s *HealthService) Version() VersionInfo {
	return VersionInfo{Version: s.version}
}
