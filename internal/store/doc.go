// Package store provides SQLite-backed persistence for users, the
// website profile, blog posts, generation history, and the license
// activation record. The schema is applied through embedded goose
// migrations on startup. Settings and license are singleton rows whose
// repositories upsert rather than insert.
package store
