package kitty

import (
	"errors"
	"fmt"
)

// Code categorizes registry failures.
type Code string

const (
	// CodeIdentifierOverflow indicates the identifier space is exhausted.
	CodeIdentifierOverflow Code = "IDENTIFIER_OVERFLOW"

	// CodeUnknownIdentifier indicates no record exists for an identifier.
	CodeUnknownIdentifier Code = "UNKNOWN_IDENTIFIER"

	// CodeSameIdentifier indicates breed was given the same parent twice.
	CodeSameIdentifier Code = "SAME_IDENTIFIER"

	// CodeDuplicateIdentifier indicates an insert collided with an existing entry.
	// Unreachable while the allocator holds its guarantee.
	CodeDuplicateIdentifier Code = "DUPLICATE_IDENTIFIER"

	// CodeNotOwner indicates the caller does not own the record.
	CodeNotOwner Code = "NOT_OWNER"

	// CodeAlreadyOwner indicates a buyer tried to purchase their own record.
	CodeAlreadyOwner Code = "ALREADY_OWNER"

	// CodeAlreadyListed indicates the record is already offered for sale.
	CodeAlreadyListed Code = "ALREADY_LISTED"

	// CodeNotListed indicates the record is not offered for sale.
	CodeNotListed Code = "NOT_LISTED"

	// CodeExternalTransferFailed wraps a failure reported by the funds collaborator.
	CodeExternalTransferFailed Code = "EXTERNAL_TRANSFER_FAILED"
)

// Error is a registry failure with a stable code.
//
// Two Errors match under errors.Is when their codes are equal, so callers
// compare against the Err* sentinels below regardless of the identifier
// or message carried by a particular failure.
type Error struct {
	Code    Code
	Message string

	// ID is the identifier involved, when there is one.
	ID    ID
	HasID bool

	// Err is the underlying cause (external transfer failures only).
	Err error
}

// Sentinels for errors.Is matching.
var (
	ErrIdentifierOverflow     = &Error{Code: CodeIdentifierOverflow, Message: "identifier space exhausted"}
	ErrUnknownIdentifier      = &Error{Code: CodeUnknownIdentifier, Message: "unknown identifier"}
	ErrSameIdentifier         = &Error{Code: CodeSameIdentifier, Message: "parents must be distinct"}
	ErrDuplicateIdentifier    = &Error{Code: CodeDuplicateIdentifier, Message: "identifier already present"}
	ErrNotOwner               = &Error{Code: CodeNotOwner, Message: "caller is not the owner"}
	ErrAlreadyOwner           = &Error{Code: CodeAlreadyOwner, Message: "caller already owns the record"}
	ErrAlreadyListed          = &Error{Code: CodeAlreadyListed, Message: "record is already listed"}
	ErrNotListed              = &Error{Code: CodeNotListed, Message: "record is not listed"}
	ErrExternalTransferFailed = &Error{Code: CodeExternalTransferFailed, Message: "external transfer failed"}
)

// Input validation failures, raised before any state is read.
var (
	ErrInvalidName      = errors.New("invalid name")
	ErrInvalidPrincipal = errors.New("invalid principal")
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.HasID {
		msg = fmt.Sprintf("%s (id=%d)", msg, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithID returns a copy of e naming the identifier involved.
func (e *Error) WithID(id ID) *Error {
	c := *e
	c.ID = id
	c.HasID = true
	return &c
}

// NewTransferError wraps a funds collaborator failure.
func NewTransferError(err error) *Error {
	c := *ErrExternalTransferFailed
	c.Err = err
	return &c
}

// CodeOf extracts the code from err, or "" if err is not a registry error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRejection returns true if err is a registry precondition failure as
// opposed to an infrastructure error.
func IsRejection(err error) bool {
	return CodeOf(err) != ""
}
