package domain

import "errors"

// Kind classifies a domain error so the HTTP boundary can pick a status code
// without knowing every sentinel.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindConflict
	KindForbidden
	KindLimitExceeded
	KindUnauthorized
	KindValidation
)

// Error is a domain error tagged with its Kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf returns the Kind of err, or KindUnexpected if err is not a domain error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnexpected
}

// Common domain errors
var (
	ErrInvalidInput = newError(KindValidation, "invalid input")
	ErrForbidden    = newError(KindForbidden, "forbidden")
)

// Account errors
var (
	ErrAccountNotFound   = newError(KindNotFound, "account not found")
	ErrDuplicateUsername = newError(KindConflict, "username already exists")
	ErrAlreadyActive     = newError(KindConflict, "account is already logged in")
	ErrAlreadyInactive   = newError(KindConflict, "account is already logged out")
	ErrBadCredential     = newError(KindUnauthorized, "invalid username or password")
	ErrAccountInactive   = newError(KindForbidden, "account is inactive")
	ErrAccountHasLoans   = newError(KindConflict, "account still holds active loans")
)

// Credential errors
var (
	ErrCredentialExpired   = newError(KindUnauthorized, "token expired")
	ErrCredentialInvalid   = newError(KindUnauthorized, "token invalid")
	ErrWrongCredentialKind = newError(KindUnauthorized, "invalid token type, refresh token required")
)

// Catalog errors
var (
	ErrBookNotFound    = newError(KindNotFound, "book not found")
	ErrOutOfStock      = newError(KindConflict, "book is out of stock")
	ErrInvalidPrice    = newError(KindValidation, "price must be greater than zero")
	ErrInvalidStock    = newError(KindValidation, "stock must not be negative")
	ErrInvalidDiscount = newError(KindValidation, "discount percentage must be between 0 and 100")
)

// Loan errors
var (
	ErrLoanNotFound        = newError(KindNotFound, "loan not found")
	ErrAlreadyReturned     = newError(KindConflict, "book already returned")
	ErrBorrowLimitExceeded = newError(KindLimitExceeded, "borrow limit exceeded")
	ErrInvalidDueDate      = newError(KindValidation, "due date must not be in the past")
)
