package transfer

import (
	"errors"
	"fmt"
)

// Kind classifies a transfer failure so callers can branch on it instead of
// unwinding. Connect and write failures are worth a fresh connection; open,
// too-large and resolve failures are not.
type Kind int

const (
	KindUnknown Kind = iota
	// KindOpen is a local file error: cannot open, stat, or read the source.
	KindOpen
	// KindResolve is a name resolution failure for the target host.
	KindResolve
	// KindConnect is a failure to establish a connection to the receiver.
	KindConnect
	// KindWrite is a connection failure while the transfer is in flight.
	KindWrite
	// KindTooLarge marks a file whose size does not fit the uint32 size field.
	KindTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindResolve:
		return "resolve"
	case KindConnect:
		return "connect"
	case KindWrite:
		return "write"
	case KindTooLarge:
		return "too_large"
	default:
		return "unknown"
	}
}

// Error carries a failure kind alongside the underlying cause.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "dial tcp" or "write payload"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("transfer: %s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("transfer: %s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and the failing operation.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind from err, or KindUnknown if err carries
// no *Error in its chain.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// Retryable reports whether a fresh connection attempt could succeed where
// this error failed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConnect, KindWrite:
		return true
	default:
		return false
	}
}
