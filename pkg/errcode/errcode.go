package errcode

import "fmt"

// Error represents a business error
type Error struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("errcode: %d, msg: %s", e.Code, e.Msg)
}

// New creates a new error with code and message
func New(code int, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Wrap wraps an error with additional context
func (e *Error) Wrap(err error) *Error {
	if err == nil {
		return e
	}
	return &Error{
		Code: e.Code,
		Msg:  fmt.Sprintf("%s: %v", e.Msg, err),
	}
}

// Is matches wrapped copies against their template by code so that
// errors.Is(errcode.ErrLoad.Wrap(err), errcode.ErrLoad) holds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Common error codes
var (
	// Success
	ErrSuccess = New(0, "success")

	// Common errors (1xxx)
	ErrInvalidParam    = New(1001, "invalid parameter")
	ErrInternalServer  = New(1002, "internal server error")
	ErrNotFound        = New(1003, "not found")
	ErrIdentityUnknown = New(1004, "unknown identity")

	// Message errors (2xxx)
	ErrValidation      = New(2001, "message needs content or an attachment")
	ErrPayloadTooLarge = New(2002, "attachment exceeds the size limit")
	ErrUpload          = New(2003, "attachment upload did not complete")
	ErrNotAuthorized   = New(2004, "no permission for this conversation")
	ErrLoad            = New(2005, "conversation load failed")
	ErrSendFailed      = New(2006, "message send failed")

	// ErrStale marks a response that arrived after a newer request
	// superseded it. Never user-visible: callers discard silently.
	ErrStale = New(2099, "stale response")

	// Group errors (3xxx)
	ErrGroupNotFound  = New(3001, "group not found")
	ErrNotGroupMember = New(3002, "not a group member")
	ErrEmptyGroup     = New(3003, "group needs a name and at least one member")

	// Attachment errors (4xxx)
	ErrBlobNotFound     = New(4001, "attachment blob not found")
	ErrSignatureInvalid = New(4002, "attachment access token invalid or expired")

	// Realtime errors (5xxx)
	ErrConnOverLimit = New(5001, "connection over max limit")
	ErrConnClosed    = New(5002, "connection closed")
	ErrPushFailed    = New(5003, "push message failed")
)
