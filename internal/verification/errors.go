package verification

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy of a GSTIN verification.
type Category string

const (
	// CategoryMalformedIdentifier means the input failed the GSTIN grammar.
	// It is raised before any network or fallback access.
	CategoryMalformedIdentifier Category = "malformed_identifier"

	// CategoryCredentialsMissing means the upstream client id/secret are not configured.
	CategoryCredentialsMissing Category = "credentials_missing"

	// CategoryNotFound means the identifier is well formed but not registered.
	CategoryNotFound Category = "not_found"

	// CategoryUpstreamUnavailable covers timeouts, connection failures and the
	// upstream reporting that it cannot reach the GST portal.
	CategoryUpstreamUnavailable Category = "upstream_unavailable"

	// CategoryUpstreamRejected means the upstream answered and declined with a reason.
	CategoryUpstreamRejected Category = "upstream_rejected"

	// CategoryUnknownFailure is the catch-all; its message is always generic.
	CategoryUnknownFailure Category = "unknown_failure"
)

// User-facing messages for categories whose text is fixed.
const (
	MsgMalformedIdentifier = "Invalid GSTIN format. GSTIN must be 15 characters."
	MsgCredentialsMissing  = "MasterGST credentials not configured. Please set MASTERGST_CLIENT_ID and MASTERGST_CLIENT_SECRET."
	MsgNotFound            = "GSTIN not found. Please verify the GSTIN number."
	MsgPortalUnavailable   = "GST portal is temporarily unavailable. Please try again later."
	MsgUpstreamUnreachable = "GST verification service is unreachable. Please try again later."
	MsgUnknownFailure      = "Failed to verify GSTIN. Please check the GSTIN number and try again."
	MsgDefaultRejection    = "GSTIN verification failed"
)

// Error is a classified verification failure. Message is safe to show to end
// users; Cause is kept for logs only.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("gstin verification [%s]: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("gstin verification [%s]: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether calling again later may succeed.
func (e *Error) Retryable() bool {
	return e.Category == CategoryUpstreamUnavailable
}

// NewError creates a classified error.
func NewError(category Category, message string, cause error) *Error {
	return &Error{Category: category, Message: message, Cause: cause}
}

func Malformed() *Error {
	return NewError(CategoryMalformedIdentifier, MsgMalformedIdentifier, nil)
}

func CredentialsMissing() *Error {
	return NewError(CategoryCredentialsMissing, MsgCredentialsMissing, nil)
}

func NotFound() *Error {
	return NewError(CategoryNotFound, MsgNotFound, nil)
}

func Unavailable(message string, cause error) *Error {
	return NewError(CategoryUpstreamUnavailable, message, cause)
}

func Rejected(message string) *Error {
	return NewError(CategoryUpstreamRejected, message, nil)
}

func Unknown(cause error) *Error {
	return NewError(CategoryUnknownFailure, MsgUnknownFailure, cause)
}

// CategoryOf extracts the category from err. Errors that were never
// classified report CategoryUnknownFailure.
func CategoryOf(err error) Category {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Category
	}
	return CategoryUnknownFailure
}

// IsCategory reports whether err carries the given category.
func IsCategory(err error, category Category) bool {
	var ve *Error
	return errors.As(err, &ve) && ve.Category == category
}

// Classify returns err as a *Error, wrapping anything unclassified as an
// unknown failure so raw transport errors never cross the service boundary.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ve *Error
	if errors.As(err, &ve) {
		return ve
	}
	return Unknown(err)
}
