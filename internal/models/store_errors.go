package models

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// StoreErrorKind categorises a persistence failure by its signature.
type StoreErrorKind string

const (
	StoreErrorNone             StoreErrorKind = ""
	StoreErrorMissingRelation  StoreErrorKind = "missing_relation"
	StoreErrorPermissionDenied StoreErrorKind = "permission_denied"
	StoreErrorNoRows           StoreErrorKind = "no_rows"
	StoreErrorUniqueViolation  StoreErrorKind = "unique_violation"
	StoreErrorNotConfigured    StoreErrorKind = "not_configured"
	StoreErrorOther            StoreErrorKind = "other"
)

// Postgres SQLSTATE codes we care about.
const (
	sqlStateUndefinedTable        = "42P01"
	sqlStateUndefinedFunction     = "42883"
	sqlStateInsufficientPrivilege = "42501"
	sqlStateUniqueViolation       = "23505"
)

// ClassifyStoreError maps driver errors onto a StoreErrorKind.
// sqlite messages are matched by text since that driver exposes no codes.
func ClassifyStoreError(err error) StoreErrorKind {
	if err == nil {
		return StoreErrorNone
	}
	if errors.Is(err, ErrNotConfigured) {
		return StoreErrorNotConfigured
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || ErrorCode(err) == CodeNotFound {
		return StoreErrorNoRows
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUndefinedTable, sqlStateUndefinedFunction:
			return StoreErrorMissingRelation
		case sqlStateInsufficientPrivilege:
			return StoreErrorPermissionDenied
		case sqlStateUniqueViolation:
			return StoreErrorUniqueViolation
		}
		return StoreErrorOther
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return StoreErrorUniqueViolation
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "no such table"), strings.Contains(msg, "does not exist"):
		return StoreErrorMissingRelation
	case strings.Contains(msg, "permission denied"), strings.Contains(msg, "row-level security"):
		return StoreErrorPermissionDenied
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return StoreErrorUniqueViolation
	}
	return StoreErrorOther
}

// Diagnostic returns a human-readable hint for a store failure. It is advisory only.
func (k StoreErrorKind) Diagnostic() string {
	switch k {
	case StoreErrorMissingRelation:
		return "The userinfo table is missing. Run the database migrations."
	case StoreErrorPermissionDenied:
		return "Permission denied by a row-level security policy. Check the table policies."
	case StoreErrorNoRows:
		return "No profile row matched this handle."
	case StoreErrorNotConfigured:
		return "The backend is not configured."
	case StoreErrorUniqueViolation:
		return "A conflicting row already exists."
	case StoreErrorNone:
		return ""
	default:
		return "The profile could not be loaded."
	}
}
