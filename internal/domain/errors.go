package domain

import "errors"

// Sentinel errors shared across use cases and the HTTP boundary.
var (
	// ErrNoPendingItems signals an empty queue (or a lost claim race). It is a
	// neutral outcome, not a failure.
	ErrNoPendingItems = errors.New("no pending items")

	// ErrNotFound signals a missing target entity (project, queue item).
	ErrNotFound = errors.New("not found")

	// ErrEmptyProject signals a synthesis attempt on a project with no
	// processed items.
	ErrEmptyProject = errors.New("no processed items found for project")

	// ErrUpstream signals a failed call to a remote dependency (browser
	// service, LLM API).
	ErrUpstream = errors.New("upstream service error")
)

// ErrorKind classifies a failure for the API boundary. Full diagnostic detail
// stays in server-side logs; clients only see the kind and message.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation_error"
	KindNotFound   ErrorKind = "not_found"
	KindUpstream   ErrorKind = "upstream_error"
	KindInternal   ErrorKind = "internal_error"
)

// Classify maps an error chain to its boundary kind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrEmptyProject):
		return KindValidation
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	default:
		return KindInternal
	}
}
