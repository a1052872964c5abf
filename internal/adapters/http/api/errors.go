package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrInvalidParams = errors.New("invalid detection parameters")
	ErrNotFound      = errors.New("not found")
	ErrBackpressure  = errors.New("backpressure")
	ErrConflict      = errors.New("conflict")
	ErrUnavailable   = errors.New("unavailable")
)

// kindError tags an underlying error with the operation that failed and an
// API error kind. errors.Is matches both the kind and the cause.
type kindError struct {
	op   string
	kind error
	err  error
}

func (e *kindError) Error() string {
	msg := e.op
	if e.kind != nil {
		msg += ": " + e.kind.Error()
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

func (e *kindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &kindError{op: op, kind: kind}
}

// WrapKind wraps err as kind raised by op.
func WrapKind(op string, kind, err error) error {
	return &kindError{op: op, kind: kind, err: err}
}

// Wrap prefixes err with op without assigning a kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{op: op, err: err}
}
