package apperrors

import "fmt"

// Code classifies an error for callers and for HTTP status mapping.
type Code string

const (
	CodeQuotaExceeded         Code = "QUOTA_EXCEEDED"
	CodeInsufficientPoints    Code = "INSUFFICIENT_POINTS"
	CodeOutOfStock            Code = "OUT_OF_STOCK"
	CodeConcurrencyConflict   Code = "CONCURRENCY_CONFLICT"
	CodeDependencyUnavailable Code = "DEPENDENCY_UNAVAILABLE"
	CodeNotFound              Code = "NOT_FOUND"
)

// Error is the engine's error type. Two Errors match under errors.Is when
// their codes are equal, so sentinel instances below work as comparison
// targets regardless of the wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap returns a copy of the sentinel with a cause attached.
func Wrap(sentinel *Error, err error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Err: err}
}

// Wrapf returns a copy of the sentinel with a more specific message.
func Wrapf(sentinel *Error, format string, args ...any) *Error {
	return &Error{Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	// ErrQuotaExceeded: the daily action limit was reached. Recoverable by
	// waiting for the counter to expire.
	ErrQuotaExceeded = &Error{Code: CodeQuotaExceeded, Message: "daily action limit exceeded"}

	// ErrInsufficientPoints: redemption balance too low.
	ErrInsufficientPoints = &Error{Code: CodeInsufficientPoints, Message: "not enough points"}

	// ErrOutOfStock: redemption target has no stock left.
	ErrOutOfStock = &Error{Code: CodeOutOfStock, Message: "reward out of stock"}

	// ErrConcurrencyConflict: an optimistic version check lost a race.
	// Callers should re-read state and retry the whole operation.
	ErrConcurrencyConflict = &Error{Code: CodeConcurrencyConflict, Message: "concurrent update conflict, retry"}

	// ErrDependencyUnavailable: the durable or fast store is unreachable.
	// Retry with backoff rather than treating as a permanent rejection.
	ErrDependencyUnavailable = &Error{Code: CodeDependencyUnavailable, Message: "backing store unavailable"}

	// ErrNotFound: the referenced entity does not exist.
	ErrNotFound = &Error{Code: CodeNotFound, Message: "not found"}
)
