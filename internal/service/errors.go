package service

import "errors"

// Kind classifies a failure so the transport layer can pick a status code
// without knowing which operation produced it.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindInvalidToken   Kind = "invalid_token"
	KindAuthentication Kind = "authentication"
	KindPrecondition   Kind = "precondition"
	KindDelivery       Kind = "delivery"
	KindInternal       Kind = "internal"
)

// Error is the only error type the service returns.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets a kind sentinel (an Error with no message) match every error of
// that kind, e.g. errors.Is(err, ErrValidation).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// Kind sentinels.
var (
	ErrValidation     = &Error{Kind: KindValidation}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrInvalid        = &Error{Kind: KindInvalidToken}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrPrecondition   = &Error{Kind: KindPrecondition}
	ErrDelivery       = &Error{Kind: KindDelivery}
	ErrInternal       = &Error{Kind: KindInternal}
)

// Fixed-message errors.  Unknown email and wrong password share
// ErrInvalidCredentials so callers cannot probe which accounts exist.
var (
	ErrInvalidCredentials = &Error{Kind: KindAuthentication, Message: "invalid credentials"}
	ErrNotActivated       = &Error{Kind: KindAuthentication, Message: "account not activated"}
	ErrInvalidToken       = &Error{Kind: KindInvalidToken, Message: "invalid or expired verification token"}
	ErrInvalidCode        = &Error{Kind: KindInvalidToken, Message: "invalid or expired verification code"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Message: "user already exists"}
	ErrAccountNotFound    = &Error{Kind: KindNotFound, Message: "account not found"}
	ErrPhoneNotVerified   = &Error{Kind: KindPrecondition, Message: "phone must be verified"}
)

func validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func delivery(msg string, err error) error {
	return &Error{Kind: KindDelivery, Message: msg, Err: err}
}

func internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message of err.  Wrapped causes are
// not included.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}
