package client

// Kind is the three-way classification of an API call result.
type Kind int

// The zero Kind is Unknown, so an Outcome that was never filled in is not
// a success.
const (
	Unknown Kind = iota
	Success
	ExpectedFailure
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ExpectedFailure:
		return "expected_failure"
	case TransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of every Client operation. Value is only
// meaningful when Kind is Success. Err is nil on success and otherwise
// wraps exactly one of the package's sentinel errors.
type Outcome[T any] struct {
	Kind    Kind
	Value   T
	Message string
	Err     error
}

// OK reports whether the call succeeded.
func (o Outcome[T]) OK() bool {
	return o.Kind == Success
}

func succeed[T any](v T, msg string) Outcome[T] {
	return Outcome[T]{Kind: Success, Value: v, Message: msg}
}

func fail[T any](err error, msg string) Outcome[T] {
	return Outcome[T]{Kind: kindOf(err), Message: msg, Err: err}
}
