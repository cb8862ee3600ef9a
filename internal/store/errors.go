package store

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint is violated
	ErrDuplicate = errors.New("record already exists")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. The pure-Go driver surfaces constraint errors as strings, so
// matching the message is the portable check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
