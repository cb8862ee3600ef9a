package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostRepository persists blog posts
type PostRepository struct {
	db *sql.DB
}

// PostUpdate carries the mutable fields for a partial update. Nil
// pointers leave the stored value untouched.
type PostUpdate struct {
	Title        *string
	Content      *string
	Excerpt      *string
	Status       *string
	ScheduledFor *time.Time
	PublishedAt  *time.Time
	Topic        *string
	Keywords     *string
}

// Create inserts a new post and returns it with its assigned id
func (r *PostRepository) Create(ctx context.Context, p *BlogPost) (*BlogPost, error) {
	now := time.Now()

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO blog_posts (title, content, excerpt, status, scheduled_for, published_at,
		                         topic, keywords, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Content, p.Excerpt, p.Status,
		nullableUnix(p.ScheduledFor), nullableUnix(p.PublishedAt),
		p.Topic, p.Keywords, now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read post id: %w", err)
	}

	stored := *p
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	return &stored, nil
}

// Get returns the post with the given id, or ErrNotFound
func (r *PostRepository) Get(ctx context.Context, id int64) (*BlogPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, excerpt, status, scheduled_for, published_at,
		        topic, keywords, created_at, updated_at
		 FROM blog_posts WHERE id = ?`, id)

	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select post: %w", err)
	}
	return post, nil
}

// List returns all posts, newest first
func (r *PostRepository) List(ctx context.Context) ([]*BlogPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, excerpt, status, scheduled_for, published_at,
		        topic, keywords, created_at, updated_at
		 FROM blog_posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to select posts: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListByStatus returns posts with the given status, newest first
func (r *PostRepository) ListByStatus(ctx context.Context, status string) ([]*BlogPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, content, excerpt, status, scheduled_for, published_at,
		        topic, keywords, created_at, updated_at
		 FROM blog_posts WHERE status = ? ORDER BY created_at DESC, id DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to select posts by status: %w", err)
	}
	defer rows.Close()

	return collectPosts(rows)
}

// Update applies the non-nil fields of upd and returns the updated
// post, or ErrNotFound when the id is unknown.
func (r *PostRepository) Update(ctx context.Context, id int64, upd *PostUpdate) (*BlogPost, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		existing.Title = *upd.Title
	}
	if upd.Content != nil {
		existing.Content = *upd.Content
	}
	if upd.Excerpt != nil {
		existing.Excerpt = *upd.Excerpt
	}
	if upd.Status != nil {
		existing.Status = *upd.Status
	}
	if upd.ScheduledFor != nil {
		existing.ScheduledFor = upd.ScheduledFor
	}
	if upd.PublishedAt != nil {
		existing.PublishedAt = upd.PublishedAt
	}
	if upd.Topic != nil {
		existing.Topic = *upd.Topic
	}
	if upd.Keywords != nil {
		existing.Keywords = *upd.Keywords
	}
	existing.UpdatedAt = time.Now()

	_, err = r.db.ExecContext(ctx,
		`UPDATE blog_posts SET title = ?, content = ?, excerpt = ?, status = ?,
		        scheduled_for = ?, published_at = ?, topic = ?, keywords = ?, updated_at = ?
		 WHERE id = ?`,
		existing.Title, existing.Content, existing.Excerpt, existing.Status,
		nullableUnix(existing.ScheduledFor), nullableUnix(existing.PublishedAt),
		existing.Topic, existing.Keywords, existing.UpdatedAt.Unix(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	return existing, nil
}

// Delete removes the post; deleting an unknown id is a no-op
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*BlogPost, error) {
	var (
		p            BlogPost
		excerpt      sql.NullString
		scheduledFor sql.NullInt64
		publishedAt  sql.NullInt64
		topic        sql.NullString
		keywords     sql.NullString
		createdAt    int64
		updatedAt    int64
	)

	if err := row.Scan(&p.ID, &p.Title, &p.Content, &excerpt, &p.Status,
		&scheduledFor, &publishedAt, &topic, &keywords, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Excerpt = excerpt.String
	p.Topic = topic.String
	p.Keywords = keywords.String
	p.CreatedAt = time.Unix(createdAt, 0)
	p.UpdatedAt = time.Unix(updatedAt, 0)
	if scheduledFor.Valid {
		t := time.Unix(scheduledFor.Int64, 0)
		p.ScheduledFor = &t
	}
	if publishedAt.Valid {
		t := time.Unix(publishedAt.Int64, 0)
		p.PublishedAt = &t
	}
	return &p, nil
}

func collectPosts(rows *sql.Rows) ([]*BlogPost, error) {
	var result []*BlogPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullableUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
