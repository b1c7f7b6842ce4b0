package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a computation or fetch produced no value.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindInsufficientData - fewer than two prices, or a missing prior year or line item
	KindInsufficientData
	// KindDegenerateRatio - a ratio denominator was zero
	KindDegenerateRatio
	// KindProviderFailure - an external data fetch did not succeed
	KindProviderFailure
)

// Sentinel errors, one per kind, for errors.Is checks.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrDegenerateRatio  = errors.New("degenerate ratio")
	ErrProviderFailure  = errors.New("provider failure")
)

// String returns the snake_case name used in logs and JSON payloads
func (k ErrorKind) String() string {
	switch k {
	case KindInsufficientData:
		return "insufficient_data"
	case KindDegenerateRatio:
		return "degenerate_ratio"
	case KindProviderFailure:
		return "provider_failure"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names decode to KindUnknown.
func (k *ErrorKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "insufficient_data":
		*k = KindInsufficientData
	case "degenerate_ratio":
		*k = KindDegenerateRatio
	case "provider_failure":
		*k = KindProviderFailure
	default:
		*k = KindUnknown
	}
	return nil
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInsufficientData:
		return ErrInsufficientData
	case KindDegenerateRatio:
		return ErrDegenerateRatio
	case KindProviderFailure:
		return ErrProviderFailure
	default:
		return nil
	}
}

// Error is a classified failure. Op names the operation that failed.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel error for this kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// NewError creates a classified error with a formatted message
func NewError(kind ErrorKind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// InsufficientData creates a KindInsufficientData error
func InsufficientData(op string, format string, args ...interface{}) error {
	return NewError(KindInsufficientData, op, format, args...)
}

// DegenerateRatio creates a KindDegenerateRatio error
func DegenerateRatio(op string, format string, args ...interface{}) error {
	return NewError(KindDegenerateRatio, op, format, args...)
}

// ProviderFailure wraps a fetch error as KindProviderFailure
func ProviderFailure(op string, err error) error {
	return &Error{Kind: KindProviderFailure, Op: op, Err: err}
}

// KindOf extracts the ErrorKind of err, or KindUnknown.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrInsufficientData):
		return KindInsufficientData
	case errors.Is(err, ErrDegenerateRatio):
		return KindDegenerateRatio
	case errors.Is(err, ErrProviderFailure):
		return KindProviderFailure
	}
	return KindUnknown
}
