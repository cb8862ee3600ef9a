package license

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"autoblog/internal/security"
	"autoblog/internal/store"
)

// Status summarises the local license record for the client boot check
type Status struct {
	HasLicense bool   `json:"hasLicense"`
	IsActive   bool   `json:"isActive"`
	Email      string `json:"email,omitempty"`
}

// Service coordinates license activation: it fingerprints the machine,
// asks the sales platform for a verdict, and persists the result in the
// singleton license row.
type Service struct {
	licenses    *store.LicenseRepository
	fingerprint *security.FingerprintGenerator
	client      *ActivationClient
	logger      *slog.Logger
}

// NewService creates the license service
func NewService(licenses *store.LicenseRepository, fingerprint *security.FingerprintGenerator, client *ActivationClient, logger *slog.Logger) *Service {
	return &Service{
		licenses:    licenses,
		fingerprint: fingerprint,
		client:      client,
		logger:      logger.With(slog.String("component", "license")),
	}
}

// GetStatus reports whether a license is stored and whether it is
// active. An absent row is not an error; it just means not activated.
func (s *Service) GetStatus(ctx context.Context) (Status, error) {
	lic, err := s.licenses.Get(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Status{}, nil
		}
		return Status{}, fmt.Errorf("failed to read license: %w", err)
	}
	return Status{
		HasLicense: true,
		IsActive:   lic.Status == store.LicenseStatusActive,
		Email:      lic.Email,
	}, nil
}

// Activate validates the license key against the sales platform and,
// on success, upserts the singleton license row. Re-activating with a
// new key replaces the stored one; there is never a second row. The
// platform's verdict is returned unmodified as *ValidationError so
// the handler can surface its message.
func (s *Service) Activate(ctx context.Context, email, licenseKey string) error {
	fp := s.fingerprint.Generate()
	label := s.fingerprint.MachineLabel()

	if err := s.client.Validate(ctx, email, licenseKey, fp, label); err != nil {
		return err
	}

	if _, err := s.licenses.Save(ctx, email, licenseKey, fp); err != nil {
		return fmt.Errorf("failed to persist license: %w", err)
	}

	s.logger.InfoContext(ctx, "license activated",
		slog.String("email", email))
	return nil
}

// UpdateStatus marks the stored license invalid or expired. Not routed;
// kept for administrative use against the storage contract.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) error {
	return s.licenses.UpdateStatus(ctx, id, status)
}

// Delete removes the stored license
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.licenses.Delete(ctx, id)
}
