package db

import (
	"errors"
	"strings"
)

// ErrStaleVersion is returned by versioned updates when the row moved on since
// it was read. Callers retry the whole transaction.
var ErrStaleVersion = errors.New("stale row version")

// IsUniqueViolation reports whether the provided error references a unique
// violation. Postgres reports "duplicate key value", sqlite reports "UNIQUE
// constraint failed". When constraintName is provided, the helper looks for the
// constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}
