package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to react differently
// (HTTP status, retry policy, rollback behavior).
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation means the input was rejected by a business rule.
	// Never retried verbatim.
	KindValidation
	// KindNotFound means the referenced entity does not exist for this user.
	KindNotFound
	// KindAuth means the credential is missing, unknown or expired.
	KindAuth
	// KindNetwork means a transport-level failure reaching a collaborator.
	KindNetwork
	// KindDecryption means a note could not be decrypted (wrong password
	// or corrupted ciphertext).
	KindDecryption
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindDecryption:
		return "decryption"
	default:
		return "unknown"
	}
}

// Error carries a kind alongside the message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is lets errors.Is match on kind: errors.Is(err, apperr.New(kind, "")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}
