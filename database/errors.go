package database

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/attachkit/errors"
)

var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no route to host",
	"network is unreachable",
	"connection closed",
	"driver: bad connection",
	"database is closed",
	"sql: database is closed",
}

var retryablePatterns = []string{
	"deadlock",
	"lock timeout",
	"database is locked",
	"too many connections",
}

func containsAny(err error, patterns []string) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// IsConnectionError reports whether err looks like a lost or refused connection.
func IsConnectionError(err error) bool {
	return containsAny(err, connectionPatterns)
}

// IsRetryableError reports whether err is worth retrying.
func IsRetryableError(err error) bool {
	return IsConnectionError(err) || containsAny(err, retryablePatterns)
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// FromDatabase converts a database error to an AppError.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource, "").WithCause(err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.AlreadyExists(resource).WithCause(err)
	case IsConnectionError(err):
		return apperrors.New(apperrors.ErrCodeDatabaseError,
			"Database is temporarily unavailable. Please try again.",
			http.StatusServiceUnavailable).WithCause(err)
	case IsRetryableError(err):
		return apperrors.New(apperrors.ErrCodeDatabaseError,
			"Database operation failed. Please try again.",
			http.StatusServiceUnavailable).WithCause(err)
	default:
		return apperrors.DatabaseError(err)
	}
}
