// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by someone
// else, while ErrConflict signals that an operation cannot proceed due
// to existing dependent records (e.g. deleting a class with active
// bookings).
package repository

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a class that still has non-cancelled bookings, or moving a
// membership through an illegal status transition. Handlers should
// translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrClassFull is returned by the conditional booking insert when the
// target class already holds capacity non-cancelled bookings. The
// check and the insert happen in a single statement, so two racing
// bookings for the last spot cannot both succeed.
var ErrClassFull = errors.New("class is full")

// mapFKConflict rewrites the MySQL "row is referenced" error (1451) to
// ErrConflict so handlers can answer 409 instead of 500 when a delete
// hits a foreign key.
func mapFKConflict(err error) error {
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "1451") {
		return ErrConflict
	}
	return err
}
