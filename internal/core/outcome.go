package core

import (
	"context"
	"reflect"
)

// OutcomeKind identifies how an executed operation's result was classified.
type OutcomeKind int

const (
	// OutcomeSuccess means the operation returned a usable value.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNull means the operation returned an absent value (nil pointer,
	// nil interface, nil map/slice, ...).
	OutcomeNull
	// OutcomeEmpty means the operation returned a collection-like value with
	// zero elements.
	OutcomeEmpty
	// OutcomeError means the operation returned a non-nil error.
	OutcomeError
	// OutcomeTimeout means an asynchronous operation did not settle within the
	// configured timeout.
	OutcomeTimeout
	// OutcomeWaiting means an asynchronous operation is still pending. It is a
	// transient signal, never a terminal outcome.
	OutcomeWaiting
)

// String returns a human-readable name for the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNull:
		return "null"
	case OutcomeEmpty:
		return "empty"
	case OutcomeError:
		return "error"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeWaiting:
		return "waiting"
	default:
		return "unknown"
	}
}

// Operation is the wrapped unit of work. It must respect ctx cancellation for
// asynchronous dispatch with a timeout to be effective.
type Operation[T any] func(ctx context.Context) (T, error)

// Outcome is the classified result of a single operation execution.
type Outcome[T any] struct {
	Kind  OutcomeKind
	Value T
	Err   error
}

// Classify maps a raw operation result to an Outcome.
//
// Precedence: a non-nil error always wins, then absence of a value, then an
// empty collection, then success. This means an operation that fails while
// also returning a nil slice is classified as an error, never as null.
func Classify[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Outcome[T]{Kind: OutcomeError, Err: err}
	}
	if isNull(v) {
		return Outcome[T]{Kind: OutcomeNull}
	}
	if isEmpty(v) {
		return Outcome[T]{Kind: OutcomeEmpty}
	}
	return Outcome[T]{Kind: OutcomeSuccess, Value: v}
}

// isNull reports whether v is the absence-of-value sentinel for its type.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// isEmpty reports whether v is a collection-like value with zero elements.
func isEmpty(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.String, reflect.Array, reflect.Chan:
		return rv.Len() == 0
	default:
		return false
	}
}
