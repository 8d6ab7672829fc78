package studygroups

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
)

// Auther is the default Authenticator implementation.
type Auther struct {
	users           Users
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        []string
	logger          Logger
	tokenService    TokenService
	tokenValidator  TokenValidator
	activitySink    ActivitySink
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		users:           users,
		signingKey:      []byte(opts.GetSigningKey()),
		tokenExpiration: opts.GetTokenExpiration(),
		audience:        opts.GetAudience(),
		issuer:          opts.GetIssuer(),
		logger:          defLogger{},
		tokenService:    tokenService,
		activitySink:    noopActivitySink{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.tokenService = NewTokenService(
		s.signingKey,
		s.tokenExpiration,
		s.issuer,
		s.audience,
		logger,
	)
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithTokenValidator sets a custom token validator for externally issued tokens.
func (s *Auther) WithTokenValidator(validator TokenValidator) *Auther {
	s.tokenValidator = validator
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Register creates a STUDENT account and issues its first session token.
// Duplicate emails fail with ErrEmailTaken before the insert is attempted;
// a racing insert is caught by the store's unique email constraint.
func (s *Auther) Register(ctx context.Context, input RegisterInput) (*User, string, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		s.emitAuthEvent(ctx, ActivityEventRegisterFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"error": ErrEmailTaken.Message,
		})
		return nil, "", ErrEmailTaken
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, "", errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
	}

	user := &User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		Role:         RoleStudent,
		PasswordHash: hash,
	}

	user, err = s.users.Register(ctx, user)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, "", ErrEmailTaken
		}
		s.logger.Error("Register create user error", "error", err)
		return nil, "", errors.Wrap(err, errors.CategoryInternal, "could not create user")
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		return nil, "", err
	}

	s.emitAuthEvent(ctx, ActivityEventRegisterSuccess, actorRef(user), user.ID.String(), map[string]any{
		"email": email,
	})

	return user, token, nil
}

// Login verifies the credentials and issues a fresh session token. Both
// unknown email and bad password produce the same ErrInvalidCredentials so
// the response cannot be used as an account oracle.
func (s *Auther) Login(ctx context.Context, email, password string) (*User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Debug("Login lookup failed", "email", email, "error", err)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
		})
		return nil, "", ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Debug("Login password mismatch", "email", email)
		s.emitAuthEvent(ctx, ActivityEventLoginFailure, actorRef(user), user.ID.String(), map[string]any{
			"email": email,
		})
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(user)
	if err != nil {
		return nil, "", err
	}

	s.emitAuthEvent(ctx, ActivityEventLoginSuccess, actorRef(user), user.ID.String(), map[string]any{
		"email": email,
	})

	return user, token, nil
}

// SessionFromToken verifies a raw token and returns its session view.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	validator := s.tokenValidator
	if validator == nil {
		validator = s.tokenService
	}

	claims, err := validator.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// UserFromSession resolves the session's subject to the live user record.
func (s *Auther) UserFromSession(ctx context.Context, session Session) (*User, error) {
	id, err := session.GetUserUUID()
	if err != nil {
		return nil, ErrUnableToDecodeSession
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("UserFromSession lookup failed: %s", err)
		return nil, err
	}

	return user, nil
}

func (s *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(s.activitySink)
	event := ActivityEvent{
		EventType: eventType,
		Actor:     actor,
		UserID:    userID,
		Metadata:  metadata,
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("activity sink record error: %v", err)
	}
}

var _ Authenticator = (*Auther)(nil)
