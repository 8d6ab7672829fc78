package studygroups

import (
	"context"
)

// Resolution is the outcome of resolving one request's cookie header.
// It is either authenticated, carrying the live user record, or not.
// The reason an unauthenticated outcome was reached is kept for logging
// only and must never be surfaced to the client.
type Resolution struct {
	user    *User
	session Session
	reason  error
}

// Authenticated reports whether a live user was resolved.
func (r *Resolution) Authenticated() bool {
	return r != nil && r.user != nil
}

// User returns the live user record, nil when unauthenticated. Role and
// name reflect current state, not the token's snapshot.
func (r *Resolution) User() *User {
	if r == nil {
		return nil
	}
	return r.user
}

// Session returns the verified session, nil when unauthenticated.
func (r *Resolution) Session() Session {
	if r == nil {
		return nil
	}
	return r.session
}

// Reason returns why resolution failed. Log it, never send it.
func (r *Resolution) Reason() error {
	if r == nil {
		return ErrUnauthenticated
	}
	return r.reason
}

// SessionResolver turns an incoming Cookie header into an
// authenticated-user-or-absent outcome. It never returns an error to the
// caller; protected routes map an unauthenticated resolution to a redirect
// or a 401 depending on whether they serve pages or an API.
type SessionResolver interface {
	Resolve(ctx context.Context, cookieHeader string) *Resolution
}

type sessionResolver struct {
	validator  TokenValidator
	users      UserFinder
	cookieName string
	logger     Logger
}

// NewSessionResolver composes the token codec with the user store. The
// cookie name defaults to DefaultCookieName.
func NewSessionResolver(validator TokenValidator, users UserFinder, cookieName string, logger Logger) SessionResolver {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if logger == nil {
		logger = defLogger{}
	}
	return &sessionResolver{
		validator:  validator,
		users:      users,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Resolve walks the request's single-pass state machine: no cookie header,
// no auth cookie, failed verification, and a deleted user all collapse to
// unauthenticated. Verification failures are swallowed here so signature
// details cannot leak to the client.
func (s *sessionResolver) Resolve(ctx context.Context, cookieHeader string) *Resolution {
	if cookieHeader == "" {
		return &Resolution{reason: ErrUnableToFindSession}
	}

	token, ok := ParseCookieHeader(cookieHeader, s.cookieName)
	if !ok || token == "" {
		return &Resolution{reason: ErrUnableToFindSession}
	}

	claims, err := s.validator.Validate(token)
	if err != nil {
		s.logger.Debug("session resolve: token rejected", "error", err)
		return &Resolution{reason: err}
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Debug("session resolve: claims unusable", "error", err)
		return &Resolution{reason: err}
	}

	userID, err := session.GetUserUUID()
	if err != nil {
		s.logger.Debug("session resolve: subject is not a uuid", "error", err)
		return &Resolution{reason: ErrUnableToDecodeSession}
	}

	// The token may outlive the account. A valid, unexpired token for a
	// deleted user resolves to unauthenticated.
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.logger.Debug("session resolve: user lookup failed", "error", err)
		return &Resolution{reason: ErrUnauthenticated}
	}

	return &Resolution{
		user:    user,
		session: session,
	}
}
