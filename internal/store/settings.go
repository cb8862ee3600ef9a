package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SettingsRepository persists the singleton website profile. Save is an
// explicit upsert so the table can never grow a second row regardless
// of how many times the settings form is submitted.
type SettingsRepository struct {
	db *sql.DB
}

// Get returns the settings row, or ErrNotFound when the profile has
// never been saved.
func (r *SettingsRepository) Get(ctx context.Context) (*Settings, error) {
	var (
		s         Settings
		industry  sql.NullString
		blogTone  sql.NullString
		method    sql.NullString
		wpURL     sql.NullString
		wpUser    sql.NullString
		wpPass    sql.NullString
		updatedAt int64
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT id, website_url, ai_api_key, industry, blog_tone, publish_method,
		        wordpress_url, wordpress_username, wordpress_app_password, updated_at
		 FROM settings LIMIT 1`).
		Scan(&s.ID, &s.WebsiteURL, &s.AIAPIKey, &industry, &blogTone, &method,
			&wpURL, &wpUser, &wpPass, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select settings: %w", err)
	}

	s.Industry = industry.String
	s.BlogTone = blogTone.String
	s.PublishMethod = method.String
	s.WordpressURL = wpURL.String
	s.WordpressUsername = wpUser.String
	s.WordpressAppPassword = wpPass.String
	s.UpdatedAt = time.Unix(updatedAt, 0)
	return &s, nil
}

// Save upserts the singleton row: updates in place when one exists,
// inserts the first row otherwise. Returns the stored state.
func (r *SettingsRepository) Save(ctx context.Context, s *Settings) (*Settings, error) {
	now := time.Now()

	existing, err := r.Get(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO settings (website_url, ai_api_key, industry, blog_tone, publish_method,
			                       wordpress_url, wordpress_username, wordpress_app_password, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.WebsiteURL, s.AIAPIKey, s.Industry, s.BlogTone, s.PublishMethod,
			s.WordpressURL, s.WordpressUsername, s.WordpressAppPassword, now.Unix())
		if err != nil {
			return nil, fmt.Errorf("failed to insert settings: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read settings id: %w", err)
		}
		stored := *s
		stored.ID = id
		stored.UpdatedAt = now
		return &stored, nil

	case err != nil:
		return nil, err

	default:
		_, err := r.db.ExecContext(ctx,
			`UPDATE settings SET website_url = ?, ai_api_key = ?, industry = ?, blog_tone = ?,
			        publish_method = ?, wordpress_url = ?, wordpress_username = ?,
			        wordpress_app_password = ?, updated_at = ?
			 WHERE id = ?`,
			s.WebsiteURL, s.AIAPIKey, s.Industry, s.BlogTone, s.PublishMethod,
			s.WordpressURL, s.WordpressUsername, s.WordpressAppPassword, now.Unix(), existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update settings: %w", err)
		}
		stored := *s
		stored.ID = existing.ID
		stored.UpdatedAt = now
		return &stored, nil
	}
}
