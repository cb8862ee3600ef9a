package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LicenseRepository persists the singleton license activation record.
// The single-row invariant is enforced here: Save is get-or-create, so
// a second activation always updates the first row in place.
type LicenseRepository struct {
	db *sql.DB
}

// Get returns the license row, or ErrNotFound when the installation has
// never been activated.
func (r *LicenseRepository) Get(ctx context.Context) (*License, error) {
	var (
		l             License
		activatedAt   int64
		lastValidated sql.NullInt64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, license_key, device_fingerprint, activated_at, last_validated_at, status
		 FROM license LIMIT 1`).
		Scan(&l.ID, &l.Email, &l.LicenseKey, &l.DeviceFingerprint, &activatedAt, &lastValidated, &l.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select license: %w", err)
	}

	l.ActivatedAt = time.Unix(activatedAt, 0)
	if lastValidated.Valid {
		t := time.Unix(lastValidated.Int64, 0)
		l.LastValidatedAt = &t
	}
	return &l, nil
}

// Save upserts the singleton license row. On first activation a row is
// inserted with activated_at = now; later activations update the
// existing row and refresh last_validated_at, preserving the original
// activation time.
func (r *LicenseRepository) Save(ctx context.Context, email, licenseKey, fingerprint string) (*License, error) {
	now := time.Now()

	existing, err := r.Get(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO license (email, license_key, device_fingerprint, activated_at, last_validated_at, status)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			email, licenseKey, fingerprint, now.Unix(), now.Unix(), LicenseStatusActive)
		if err != nil {
			return nil, fmt.Errorf("failed to insert license: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read license id: %w", err)
		}
		return &License{
			ID:                id,
			Email:             email,
			LicenseKey:        licenseKey,
			DeviceFingerprint: fingerprint,
			ActivatedAt:       now,
			LastValidatedAt:   &now,
			Status:            LicenseStatusActive,
		}, nil

	case err != nil:
		return nil, err

	default:
		_, err := r.db.ExecContext(ctx,
			`UPDATE license SET email = ?, license_key = ?, device_fingerprint = ?,
			        last_validated_at = ?, status = ?
			 WHERE id = ?`,
			email, licenseKey, fingerprint, now.Unix(), LicenseStatusActive, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update license: %w", err)
		}
		existing.Email = email
		existing.LicenseKey = licenseKey
		existing.DeviceFingerprint = fingerprint
		existing.LastValidatedAt = &now
		existing.Status = LicenseStatusActive
		return existing, nil
	}
}

// UpdateStatus sets the status of the license row. Administrative
// operation used for revocation; not reachable from the API surface.
func (r *LicenseRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE license SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update license status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the license row (explicit de-activation)
func (r *LicenseRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM license WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete license: %w", err)
	}
	return nil
}
