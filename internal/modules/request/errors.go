package request

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"fixhub/internal/domain"
)

var (
	// ErrNotFound covers both a missing request and a request the caller
	// has no ownership visibility into, so existence never leaks.
	ErrNotFound = errors.New("service request not found")

	ErrForbidden = errors.New("access denied")

	// ErrAlreadyAssigned is the accept-precondition failure: the request
	// was taken by another repairer or is no longer open.
	ErrAlreadyAssigned = errors.New("request is no longer available")

	// ErrAssignedElsewhere tells a repairer the job belongs to a colleague,
	// as opposed to the transition merely being illegal.
	ErrAssignedElsewhere = errors.New("request is assigned to another repairer")

	// ErrConflict means the stored status changed between read and write.
	ErrConflict = errors.New("request was modified concurrently")

	ErrNotCompleted = errors.New("request is not completed yet")
	ErrAlreadyRated = errors.New("request has already been rated")
)

// ValidationError enumerates the missing or malformed input fields.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// InvalidTransitionError names the current and the requested status.
type InvalidTransitionError struct {
	From domain.RequestStatus
	To   domain.RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition request from %s to %s", e.From, e.To)
}
