package reconcile

import (
	"errors"
	"fmt"

	"github.com/iliyamo/band-manager/internal/model"
)

// Kind classifies the errors returned by session operations.
type Kind int

const (
	// KindValidation is a field-scoped problem detected before any store
	// call; the session stays where it was.
	KindValidation Kind = iota + 1
	// KindPersistence is a failed store call; the session stays editable
	// and the operation may be retried.
	KindPersistence
	// KindNotFound means the show or entry vanished; the session is closed.
	KindNotFound
	// KindConflict is reserved for optimistic concurrency and is never
	// returned today.
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPersistence:
		return "persistence"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every session operation that fails for a domain
// reason.  Fields is set for validation errors.
type Error struct {
	Kind   Kind
	Op     string
	Fields model.FieldErrors
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if len(e.Fields) > 0 {
		return msg + ": " + e.Fields.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// ErrSessionState is returned when an operation is not allowed in the
// session's current state, for example editing a saved session.
var ErrSessionState = errors.New("operation not allowed in current session state")

func validationError(op string, fields model.FieldErrors) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields, Err: fields}
}

// classify maps a store failure onto the error taxonomy.  Field errors
// reported by the store are surfaced as validation errors.
func classify(op string, err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	if errors.Is(err, ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: op, Err: err}
	}
	var fe model.FieldErrors
	if errors.As(err, &fe) {
		return &Error{Kind: KindValidation, Op: op, Fields: fe, Err: err}
	}
	return &Error{Kind: KindPersistence, Op: op, Err: err}
}
