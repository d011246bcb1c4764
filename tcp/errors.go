package tcp

import "errors"

// ErrorKind enumerates the error conditions a TCB can surface to the
// caller of the user API. It is distinct from the internal,
// never-surfaced segment-admission errors below.
type ErrorKind uint8

const (
	ErrKindNone ErrorKind = iota
	ErrAlreadyConnected
	ErrNotConnected
	ErrNoBuffer
	ErrAddrInUse
	ErrConnRefused
	ErrConnReset
	ErrConnAborted
	ErrTimedOut
	ErrWouldBlock
	ErrInvalidArg
	ErrFamilyUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case ErrAlreadyConnected:
		return "already connected"
	case ErrNotConnected:
		return "not connected"
	case ErrNoBuffer:
		return "no buffer"
	case ErrAddrInUse:
		return "address in use"
	case ErrConnRefused:
		return "connection refused"
	case ErrConnReset:
		return "connection reset"
	case ErrConnAborted:
		return "connection aborted"
	case ErrTimedOut:
		return "timed out"
	case ErrWouldBlock:
		return "would block"
	case ErrInvalidArg:
		return "invalid argument"
	case ErrFamilyUnsupported:
		return "address family unsupported"
	default:
		return "no error"
	}
}

// StackError is the error type returned by the user-facing API, wrapping
// one of the ErrorKind values: a small typed error a caller can switch on
// via Kind, while still
// composing with errors.Is/errors.As through Unwrap.
type StackError struct {
	Kind ErrorKind
	err  error // optional underlying cause, nil for most kinds
}

func (e *StackError) Error() string {
	if e.err != nil {
		return e.Kind.String() + ": " + e.err.Error()
	}
	return e.Kind.String()
}

func (e *StackError) Unwrap() error { return e.err }

func newErr(kind ErrorKind) *StackError { return &StackError{Kind: kind} }

func wrapErr(kind ErrorKind, cause error) *StackError {
	return &StackError{Kind: kind, err: cause}
}

// Internal, segment-admission-level sentinels. These never escape the FSM
// (bad checksums, unknown-option malformed headers, and
// unacceptable segments are dropped at the edge and never surface").
var (
	errDropSegment   = errors.New("tcp: segment dropped")
	errBadChecksum   = errors.New("tcp: bad checksum")
	errUnacceptable  = errors.New("tcp: segment outside window")
)
