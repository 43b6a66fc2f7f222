package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes forum errors.
type ErrorCode string

const (
	// CodeNotAllowed indicates the caller is not the forum admin.
	CodeNotAllowed ErrorCode = "NOT_ALLOWED"

	// CodePostDoesNotExist indicates a vote target was never created.
	CodePostDoesNotExist ErrorCode = "POST_DOES_NOT_EXIST"

	// CodeMainPostDoesNotExist indicates a sub-post names a missing main post.
	CodeMainPostDoesNotExist ErrorCode = "MAIN_POST_DOES_NOT_EXIST"

	// CodeUserNotGroupMember indicates the commitment is not in the group.
	CodeUserNotGroupMember ErrorCode = "USER_NOT_GROUP_MEMBER"

	CodeAlreadyVoted ErrorCode = "ALREADY_VOTED"
	CodeHasNotVoted  ErrorCode = "HAS_NOT_VOTED"

	// CodeProofValidationFailed wraps the oracle's *oracle.ProofError.
	CodeProofValidationFailed ErrorCode = "PROOF_VALIDATION_FAILED"

	CodeVoteCountUnderflow ErrorCode = "VOTE_COUNT_UNDERFLOW"
	CodeVoteCountOverflow  ErrorCode = "VOTE_COUNT_OVERFLOW"

	CodeNotInitialized     ErrorCode = "NOT_INITIALIZED"
	CodeAlreadyInitialized ErrorCode = "ALREADY_INITIALIZED"

	// CodeOracleFailure wraps any oracle error other than a proof rejection.
	CodeOracleFailure ErrorCode = "ORACLE_FAILURE"
)

// ForumError is a rejection reported to the caller. All forum errors are
// terminal: the call had no effect and is not retried.
type ForumError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains the identifiers involved (group, post, voter...).
	Details map[string]string

	// Cause is the underlying error, if any.
	Cause error
}

// Sentinels for errors.Is. A ForumError matches a sentinel with the same code.
var (
	ErrNotAllowed            = &ForumError{Code: CodeNotAllowed}
	ErrPostDoesNotExist      = &ForumError{Code: CodePostDoesNotExist}
	ErrMainPostDoesNotExist  = &ForumError{Code: CodeMainPostDoesNotExist}
	ErrUserNotGroupMember    = &ForumError{Code: CodeUserNotGroupMember}
	ErrAlreadyVoted          = &ForumError{Code: CodeAlreadyVoted}
	ErrHasNotVoted           = &ForumError{Code: CodeHasNotVoted}
	ErrProofValidationFailed = &ForumError{Code: CodeProofValidationFailed}
	ErrVoteCountUnderflow    = &ForumError{Code: CodeVoteCountUnderflow}
	ErrVoteCountOverflow     = &ForumError{Code: CodeVoteCountOverflow}
	ErrNotInitialized        = &ForumError{Code: CodeNotInitialized}
	ErrAlreadyInitialized    = &ForumError{Code: CodeAlreadyInitialized}
	ErrOracleFailure         = &ForumError{Code: CodeOracleFailure}
)

// Error implements the error interface.
func (e *ForumError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the cause.
func (e *ForumError) Unwrap() error {
	return e.Cause
}

// Is matches any *ForumError with the same code.
func (e *ForumError) Is(target error) bool {
	t, ok := target.(*ForumError)
	return ok && t.Code == e.Code
}

// CodeOf returns the code of the first ForumError in err's chain, or "" if
// there is none.
func CodeOf(err error) ErrorCode {
	var fe *ForumError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsRejection reports whether err is a ForumError, as opposed to an
// infrastructure failure such as a storage error.
func IsRejection(err error) bool {
	return CodeOf(err) != ""
}

func newError(code ErrorCode, message string, details map[string]string) *ForumError {
	return &ForumError{Code: code, Message: message, Details: details}
}

func wrapError(code ErrorCode, message string, cause error) *ForumError {
	return &ForumError{Code: code, Message: message, Cause: cause}
}
