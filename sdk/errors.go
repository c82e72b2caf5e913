package sdk

import (
	"errors"
	"fmt"
)

// Error represents an API error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("code: %d, msg: %s", e.Code, e.Msg)
}

// NewError creates a new error
func NewError(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Is matches by code so errors.Is works against the predefined errors.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Common error codes, mirroring the server taxonomy.
const (
	CodeSuccess = 0

	// Common errors (1xxx)
	CodeInvalidParam    = 1001
	CodeInternalServer  = 1002
	CodeNotFound        = 1003
	CodeIdentityUnknown = 1004

	// Message errors (2xxx)
	CodeValidation      = 2001
	CodePayloadTooLarge = 2002
	CodeUpload          = 2003
	CodeNotAuthorized   = 2004
	CodeLoad            = 2005
	CodeSendFailed      = 2006

	// Group errors (3xxx)
	CodeGroupNotFound  = 3001
	CodeNotGroupMember = 3002
	CodeEmptyGroup     = 3003

	// Attachment errors (4xxx)
	CodeBlobNotFound     = 4001
	CodeSignatureInvalid = 4002

	// Realtime errors (5xxx)
	CodeConnOverLimit = 5001
	CodeConnClosed    = 5002
	CodePushFailed    = 5003
)

// Predefined errors
var (
	ErrInvalidParam    = NewError(CodeInvalidParam, "invalid parameter")
	ErrInternalServer  = NewError(CodeInternalServer, "internal server error")
	ErrNotFound        = NewError(CodeNotFound, "not found")
	ErrIdentityUnknown = NewError(CodeIdentityUnknown, "unknown identity")

	ErrValidation      = NewError(CodeValidation, "message needs content or an attachment")
	ErrPayloadTooLarge = NewError(CodePayloadTooLarge, "attachment exceeds the size limit")
	ErrUpload          = NewError(CodeUpload, "attachment upload did not complete")
	ErrNotAuthorized   = NewError(CodeNotAuthorized, "no permission for this conversation")
	ErrLoad            = NewError(CodeLoad, "conversation load failed")
	ErrSendFailed      = NewError(CodeSendFailed, "message send failed")

	ErrGroupNotFound  = NewError(CodeGroupNotFound, "group not found")
	ErrNotGroupMember = NewError(CodeNotGroupMember, "not a group member")

	ErrConnClosed = NewError(CodeConnClosed, "connection closed")
)

// CodeOf extracts the API error code, or CodeInternalServer for transport
// failures.
func CodeOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeInternalServer
}
