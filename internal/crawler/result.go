package crawler

// ResultKind enumerates the outcomes an adapter call can produce.
type ResultKind int

const (
	// ResultEmpty means the adapter ran but produced nothing usable.
	ResultEmpty ResultKind = iota
	// ResultOK means a value is present.
	ResultOK
	// ResultFailed means the adapter errored; Reason says why.
	ResultFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultFailed:
		return "failed"
	default:
		return "empty"
	}
}

// Result is Ok(value), Empty, or Failed(reason). The zero value is Empty.
type Result[T any] struct {
	kind   ResultKind
	value  T
	reason string
}

// Ok wraps a usable value.
func Ok[T any](v T) Result[T] {
	return Result[T]{kind: ResultOK, value: v}
}

// Empty reports that nothing usable was produced.
func Empty[T any]() Result[T] {
	return Result[T]{kind: ResultEmpty}
}

// Failed records an adapter failure.
func Failed[T any](reason string) Result[T] {
	return Result[T]{kind: ResultFailed, reason: reason}
}

// Kind returns the outcome discriminator.
func (r Result[T]) Kind() ResultKind {
	return r.kind
}

// Value returns the wrapped value and whether it is present.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.kind == ResultOK
}

// Reason is the failure description, empty unless Kind is ResultFailed.
func (r Result[T]) Reason() string {
	return r.reason
}
