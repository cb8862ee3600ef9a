package store

import "time"

// User is the single administrative account created during first-run
// setup. PasswordHash holds a PHC-encoded argon2id digest.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Settings is the singleton website profile row
type Settings struct {
	ID                   int64     `json:"id"`
	WebsiteURL           string    `json:"websiteUrl"`
	AIAPIKey             string    `json:"openaiApiKey"`
	Industry             string    `json:"industry,omitempty"`
	BlogTone             string    `json:"blogTone,omitempty"`
	PublishMethod        string    `json:"publishMethod,omitempty"`
	WordpressURL         string    `json:"wordpressUrl,omitempty"`
	WordpressUsername    string    `json:"wordpressUsername,omitempty"`
	WordpressAppPassword string    `json:"wordpressAppPassword,omitempty"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// Blog post status values
const (
	PostStatusDraft     = "draft"
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
)

// BlogPost is a generated or hand-written article
type BlogPost struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Excerpt      string     `json:"excerpt,omitempty"`
	Status       string     `json:"status"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	Topic        string     `json:"topic,omitempty"`
	// Keywords is a JSON-encoded string array
	Keywords  string    `json:"keywords,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Generation outcome values
const (
	GenerationStatusSuccess = "success"
	GenerationStatusError   = "error"
)

// GenerationHistory records one language-model generation attempt
type GenerationHistory struct {
	ID           int64     `json:"id"`
	Topic        string    `json:"topic"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response,omitempty"`
	TokensUsed   int64     `json:"tokensUsed,omitempty"`
	Cost         string    `json:"cost,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// License status values
const (
	LicenseStatusActive  = "active"
	LicenseStatusInvalid = "invalid"
	LicenseStatusExpired = "expired"
)

// License is the singleton activation record. At most one row exists
// per installation; a second activation updates the first in place.
type License struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	LicenseKey        string     `json:"licenseKey"`
	DeviceFingerprint string     `json:"deviceFingerprint"`
	ActivatedAt       time.Time  `json:"activatedAt"`
	LastValidatedAt   *time.Time `json:"lastValidatedAt,omitempty"`
	Status            string     `json:"status"`
}
