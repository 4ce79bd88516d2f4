package domain

import (
	"fmt"
	"strings"
)

// Kind is the discriminant every engine failure carries. Callers dispatch on
// the kind, never on error strings.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindConflict
	KindForbidden
	KindQuotaExceeded
	KindExhausted
	KindAlreadyRedeemed
	KindExpired
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindExhausted:
		return "exhausted"
	case KindAlreadyRedeemed:
		return "already_redeemed"
	case KindExpired:
		return "expired"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the single tagged error type for the engine. Context fields are
// populated where they carry signal (the coupon code, the contended owner,
// requested/available counts on exhaustion).
type Error struct {
	Kind      Kind
	Msg       string
	Code      string // coupon code or entity id involved, if any
	Owner     string // owning/conflicting user id, if any
	Requested int
	Available int
	Err       error // wrapped cause
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (code=%s)", e.Code)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind from any error produced by the engine.
// Non-engine errors report KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if de, ok := err.(*Error); ok {
		return de.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool { return KindOf(err) == k }

func NotFound(msg, code string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg, Code: code}
}

func InvalidState(msg, code string) *Error {
	return &Error{Kind: KindInvalidState, Msg: msg, Code: code}
}

func Conflict(msg, code, owner string) *Error {
	return &Error{Kind: KindConflict, Msg: msg, Code: code, Owner: owner}
}

func Forbidden(msg, code, owner string) *Error {
	return &Error{Kind: KindForbidden, Msg: msg, Code: code, Owner: owner}
}

func QuotaExceeded(msg string, limit int) *Error {
	return &Error{Kind: KindQuotaExceeded, Msg: msg, Requested: limit}
}

func Exhausted(msg string, requested, available int) *Error {
	return &Error{Kind: KindExhausted, Msg: msg, Requested: requested, Available: available}
}

func AlreadyRedeemed(code string) *Error {
	return &Error{Kind: KindAlreadyRedeemed, Msg: "coupon has already been redeemed", Code: code}
}

func Expired(msg, code string) *Error {
	return &Error{Kind: KindExpired, Msg: msg, Code: code}
}

func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// Infra-level sentinels shared by the postgres executor helpers.
var (
	ErrInvalidArgument    = &Error{Kind: KindInternal, Msg: "invalid argument"}
	ErrInvalidExecContext = &Error{Kind: KindInternal, Msg: "invalid execution context"}
	ErrReadDatabaseRow    = &Error{Kind: KindInternal, Msg: "failed to read database row"}
)
