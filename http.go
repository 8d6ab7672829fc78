package studygroups

import (
	"context"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/studybuddy/go-studygroups/middleware/sessionware"
)

type RouteAuthenticator struct {
	auth             Authenticator
	cfg              Config
	cookieDuration   time.Duration
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error // TODO: make functions
	ErrorHandler     func(c router.Context, err error) error // TODO: make functions
}

func NewHTTPAuthenticator(auther Authenticator, cfg Config) (*RouteAuthenticator, error) {
	cookieDuration := time.Duration(DefaultCookieMaxAge) * time.Second
	if cfg.GetCookieMaxAge() > 0 {
		cookieDuration = time.Duration(cfg.GetCookieMaxAge()) * time.Second
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		Logger:         defLogger{},
		cookieDuration: cookieDuration,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	validator := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		a.Logger,
	)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return sessionware.New(sessionware.Config{
			ErrorHandler:   errorHandler,
			TokenValidator: SessionValidator(validator),
			SigningKey: sessionware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:  cfg.GetAuthScheme(),
			ContextKey:  cfg.GetContextKey(),
			TokenLookup: cfg.GetTokenLookup(),
		})
	}
}

// ProtectedRouteWithUser is ProtectedRoute plus a live-user lookup: the
// middleware resolves the token's subject against the store and places the
// user record in router locals. A valid token whose account no longer
// exists fails the request.
func (a *RouteAuthenticator) ProtectedRouteWithUser(cfg Config, users UserFinder, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	validator := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		a.Logger,
	)

	resolver := func(ctx context.Context, claims sessionware.SessionClaims) (any, error) {
		id, err := uuid.Parse(claims.UserID())
		if err != nil {
			return nil, ErrUnableToDecodeSession
		}

		user, err := users.GetByID(ctx, id)
		if err != nil {
			return nil, ErrUnauthenticated
		}

		return user, nil
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return sessionware.New(sessionware.Config{
			ErrorHandler:   errorHandler,
			TokenValidator: SessionValidator(validator),
			UserResolver:   resolver,
			SigningKey: sessionware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:  cfg.GetAuthScheme(),
			ContextKey:  cfg.GetContextKey(),
			TokenLookup: cfg.GetTokenLookup(),
		})
	}
}

// SessionValidator adapts a TokenValidator to the middleware's narrower
// claims interface.
func SessionValidator(v TokenValidator) sessionware.TokenValidator {
	return sessionValidatorAdapter{v: v}
}

type sessionValidatorAdapter struct {
	v TokenValidator
}

func (a sessionValidatorAdapter) Validate(raw string) (sessionware.SessionClaims, error) {
	claims, err := a.v.Validate(raw)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Login authenticates the payload's credentials and, on success, installs
// the session cookie on the response.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) error {
	_, token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return err
	}

	a.setCookieToken(ctx, token)
	return nil
}

// Register creates the account and signs the new user in with a cookie,
// the same way Login does.
func (a *RouteAuthenticator) Register(ctx router.Context, input RegisterInput) (*User, error) {
	user, token, err := a.auth.Register(ctx.Context(), input)
	if err != nil {
		a.Logger.Error("Register error: %s", err)
		return nil, err
	}

	a.setCookieToken(ctx, token)
	return user, nil
}

// Logout clears the session cookie. The token itself stays valid until it
// expires; there is no server side revocation list.
func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetCookieName())
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if IsTokenExpiredError(err) {
			richErr = ErrTokenExpired
		} else if IsMalformedError(err) {
			richErr = ErrTokenMalformed
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		return def[0]
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = a.cfg.GetRejectedRouteDefault()
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) SetRedirect(ctx router.Context) {
	rejectedRoute := a.cfg.GetRejectedRouteKey()

	a.Logger.Info("Setting redirect cookie", "key", rejectedRoute, "path", ctx.OriginalURL())

	opts := CookieOptions{
		HTTPOnly: true,
		Secure:   a.cfg.GetSecureCookies(),
		SameSite: "Lax",
	}
	ctx.Cookie(routerCookie(rejectedRoute, ctx.OriginalURL(), opts, time.Now().Add(time.Minute*5)))
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string) {
	opts := AuthCookieOptions(a.cfg.GetSecureCookies())
	opts.MaxAge = int(a.cookieDuration / time.Second)
	c.Cookie(routerCookie(a.cfg.GetCookieName(), val, opts, time.Now().Add(a.cookieDuration)))
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	opts := AuthCookieOptions(a.cfg.GetSecureCookies())
	opts.MaxAge = 0
	c.Cookie(routerCookie(name, "", opts, time.Now().Add(-time.Hour*(24*365))))
}

// routerCookie maps CookieOptions onto the router's cookie type, so the
// attributes the HTTP layer ships are the ones the cookie codec describes.
func routerCookie(name, value string, opts CookieOptions, expires time.Time) *router.Cookie {
	return &router.Cookie{
		Name:     name,
		Value:    value,
		Path:     opts.Path,
		Expires:  expires,
		MaxAge:   opts.MaxAge,
		HTTPOnly: opts.HTTPOnly,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	}
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	a.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect("/login", statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	a.Logger.Info(
		"Middleware error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)
