package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents an objdb error code.
type ErrorCode string

const (
	ErrAmbiguousAddressing ErrorCode = "AMBIGUOUS_ADDRESSING" // 400
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrOutOfRange          ErrorCode = "OUT_OF_RANGE"         // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFileNotFound        ErrorCode = "FILE_NOT_FOUND"       // 404
	ErrDuplicateID         ErrorCode = "DUPLICATE_ID"         // 409
	ErrNameAlreadyExists   ErrorCode = "NAME_ALREADY_EXISTS"  // 409
	ErrNothingToUndo       ErrorCode = "NOTHING_TO_UNDO"      // 409
	ErrDocumentTooLarge    ErrorCode = "DOCUMENT_TOO_LARGE"   // 413
	ErrMalformedDocument   ErrorCode = "MALFORMED_DOCUMENT"   // 422
	ErrMissingAttribute    ErrorCode = "MISSING_ATTRIBUTE"    // 422
	ErrCancelled           ErrorCode = "CANCELLED"            // 499
	ErrNoReverseOperation  ErrorCode = "NO_REVERSE_OPERATION" // 500
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// ObjError represents a structured error with code, status, and details.
type ObjError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the wrapped error, if any. Never serialized.
	cause error
}

// Error implements the error interface.
func (e *ObjError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ObjError) Unwrap() error {
	return e.cause
}

// NewAmbiguousAddressing creates a 400 error for when both ID and name are provided.
func NewAmbiguousAddressing() *ObjError {
	return &ObjError{
		Code:    ErrAmbiguousAddressing,
		Status:  400,
		Message: "cannot specify both id and name; use one addressing mode",
	}
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ObjError {
	return &ObjError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewOutOfRange creates a 400 error for an index outside [0, length).
func NewOutOfRange(index, length int) *ObjError {
	return &ObjError{
		Code:    ErrOutOfRange,
		Status:  400,
		Message: fmt.Sprintf("index %d out of range [0, %d)", index, length),
		Details: map[string]any{"index": index, "length": length},
	}
}

// NewNotFound creates a 404 error for when a snapshot or object cannot be found.
func NewNotFound(identifier string) *ObjError {
	return &ObjError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *ObjError {
	return &ObjError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewDuplicateID creates a 409 error for a repeated category or object id.
// kind is "category" or "object".
func NewDuplicateID(kind, id string) *ObjError {
	return &ObjError{
		Code:    ErrDuplicateID,
		Status:  409,
		Message: fmt.Sprintf("duplicate %s id %q", kind, id),
		Details: map[string]any{"kind": kind, "id": id},
	}
}

// NewNameAlreadyExists creates a 409 error for snapshot name collisions.
func NewNameAlreadyExists(name string) *ObjError {
	return &ObjError{
		Code:    ErrNameAlreadyExists,
		Status:  409,
		Message: fmt.Sprintf("snapshot with name %q already exists", name),
		Details: map[string]any{"name": name},
	}
}

// NewNothingToUndo creates a 409 error for undo on an empty history.
func NewNothingToUndo() *ObjError {
	return &ObjError{
		Code:    ErrNothingToUndo,
		Status:  409,
		Message: "nothing to undo",
	}
}

// NewDocumentTooLarge creates a 413 error when an import file exceeds the size limit.
func NewDocumentTooLarge(max, actual int64) *ObjError {
	return &ObjError{
		Code:    ErrDocumentTooLarge,
		Status:  413,
		Message: fmt.Sprintf("document exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewMalformedDocument creates a 422 error for documents that cannot be decoded.
func NewMalformedDocument(msg string) *ObjError {
	return &ObjError{
		Code:    ErrMalformedDocument,
		Status:  422,
		Message: msg,
	}
}

// NewMissingAttribute creates a 422 error for a required attribute absent from an element.
func NewMissingAttribute(element, attr string) *ObjError {
	return &ObjError{
		Code:    ErrMissingAttribute,
		Status:  422,
		Message: fmt.Sprintf("<%s> is missing required attribute %q", element, attr),
		Details: map[string]any{"element": element, "attribute": attr},
	}
}

// NewCancelled creates a 499 error when an operation's context is cancelled.
func NewCancelled(op string) *ObjError {
	return &ObjError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
		Details: map[string]any{"operation": op},
	}
}

// NewNoReverseOperation creates a 500 error for a command built without a reverse operation.
func NewNoReverseOperation(name string) *ObjError {
	return &ObjError{
		Code:    ErrNoReverseOperation,
		Status:  500,
		Message: fmt.Sprintf("command %q has no reverse operation", name),
		Details: map[string]any{"command": name},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message is generic; the cause is kept in Details for logging and via Unwrap.
func NewInternal(err error) *ObjError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &ObjError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) an ObjError with the given code.
func Is(err error, code ErrorCode) bool {
	var oErr *ObjError
	if stderrors.As(err, &oErr) {
		return oErr.Code == code
	}
	return false
}

// As extracts the ObjError that err is or wraps. For a wrapped error the
// result is a copy whose Message keeps the wrapping context, such as
// "changes[2]: not found: X". INTERNAL messages stay generic.
func As(err error) (*ObjError, bool) {
	var oErr *ObjError
	if !stderrors.As(err, &oErr) {
		return nil, false
	}
	if err == error(oErr) || oErr.Code == ErrInternal {
		return oErr, true
	}
	cp := *oErr
	cp.Message = strings.Replace(err.Error(), oErr.Error(), oErr.Message, 1)
	return &cp, true
}
