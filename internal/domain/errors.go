package domain

import (
	"errors"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrDuplicate       = errors.New("already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNoRecordUpdated = errors.New("no record updated")
)

// UnknownRolesError reports role identifiers referenced in an assignment
// that do not exist in the permission store. All offending identifiers are
// collected before failing so the caller sees the full set at once.
type UnknownRolesError struct {
	RoleIDs []string
}

func (e *UnknownRolesError) Error() string {
	return "unknown roles: " + strings.Join(e.RoleIDs, ",")
}

func (e *UnknownRolesError) Unwrap() error { return ErrInvalidInput }
