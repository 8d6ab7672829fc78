package studygroups

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "TOKEN_MALFORMED"
	TextCodeInvalidSignature = "TOKEN_INVALID_SIGNATURE"
	TextCodeUnauthenticated  = "UNAUTHENTICATED"
	TextCodeNotOwner         = "NOT_GROUP_OWNER"
	TextCodeNotRequester     = "NOT_REQUESTER"
	TextCodeAlreadyMember    = "ALREADY_MEMBER"
	TextCodeAlreadyRequested = "ALREADY_REQUESTED"
	TextCodeAlreadyProcessed = "ALREADY_PROCESSED"
	TextCodeOwnerCannotLeave = "OWNER_CANNOT_LEAVE"
	TextCodeNotMember        = "NOT_MEMBER"
)

// ErrTokenExpired is returned when a session token is past its expiry.
var ErrTokenExpired = errors.New("session token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for structurally invalid tokens.
var ErrTokenMalformed = errors.New("session token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidSignature is returned when a token fails signature verification.
var ErrInvalidSignature = errors.New("session token signature invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidSignature).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated collapses every token or lookup failure the resolver
// sees. It is the only auth failure that may reach a client.
var ErrUnauthenticated = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrNotOwner is returned when a non-owner acts on a group's join requests.
var ErrNotOwner = errors.New("only the group owner can perform this action", errors.CategoryAuthz).
	WithTextCode(TextCodeNotOwner).
	WithCode(errors.CodeForbidden)

// ErrNotRequester is returned when a user cancels a request they do not own.
var ErrNotRequester = errors.New("you can only cancel your own requests", errors.CategoryAuthz).
	WithTextCode(TextCodeNotRequester).
	WithCode(errors.CodeForbidden)

// ErrAlreadyMember is returned when a member requests to join again.
var ErrAlreadyMember = errors.New("already a member of this group", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyMember).
	WithCode(errors.CodeConflict)

// ErrAlreadyRequested is returned when a pending join request already exists.
var ErrAlreadyRequested = errors.New("join request already pending", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyRequested).
	WithCode(errors.CodeConflict)

// ErrAlreadyProcessed is returned for accept/reject on a non pending request.
var ErrAlreadyProcessed = errors.New("request has already been processed", errors.CategoryConflict).
	WithTextCode(TextCodeAlreadyProcessed).
	WithCode(errors.CodeConflict)

// ErrOwnerCannotLeave is returned when the owner tries to leave their group.
var ErrOwnerCannotLeave = errors.New("group owner cannot leave, transfer ownership or delete the group first", errors.CategoryValidation).
	WithTextCode(TextCodeOwnerCannotLeave).
	WithCode(errors.CodeBadRequest)

// ErrNotMember is returned when leaving a group without a membership.
var ErrNotMember = errors.New("not a member of this group", errors.CategoryValidation).
	WithTextCode(TextCodeNotMember).
	WithCode(errors.CodeBadRequest)

// ErrUserNotFound is the error we return for non found users
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrGroupNotFound is the error we return for non found groups
var ErrGroupNotFound = errors.New("group not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrRequestNotFound is the error we return for non found join requests
var ErrRequestNotFound = errors.New("join request not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("user with this email already exists", errors.CategoryValidation).
	WithCode(errors.CodeConflict)

// ErrUnableToFindSession is the error when our request has no auth cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrNoEmptyString is returned when hashing an empty password.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the bcrypt mismatch error in our taxonomy.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation detects the store's unique constraint errors so racing
// request-join calls can be mapped to AlreadyRequested/AlreadyMember.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
