package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyErr reports whether err is a unique-constraint
// violation on any of the supported dialects. gorm only translates the
// error when the dialector is configured for it, so the driver-native
// messages are matched as a fallback.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	// postgres 23505, mysql 1062, sqlite and glebarez/sqlite in turn
	msg := err.Error()
	for _, marker := range []string{
		"duplicate key value violates unique constraint",
		"Error 1062",
		"UNIQUE constraint failed",
		"constraint failed: UNIQUE",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
