package studygroups

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
)

// DevSigningKey is the development fallback secret. Deployments must
// provide their own key; see AuthConfig.Validate.
const DevSigningKey = "studybuddy-dev-signing-key-change-in-production!"

const (
	// DefaultCookieName is the fixed auth cookie identifier.
	DefaultCookieName = "auth_token"
	// DefaultCookieMaxAge bounds the cookie lifetime: 7 days, in seconds.
	DefaultCookieMaxAge = 7 * 24 * 60 * 60
	// DefaultTokenExpiration is the token TTL in minutes, deliberately
	// shorter than the cookie max age. A live cookie can hold an expired
	// token; the resolver treats that as unauthenticated.
	DefaultTokenExpiration = 15
)

// AuthConfig is the default Config implementation.
type AuthConfig struct {
	SigningKey           string
	SigningMethod        string
	ContextKey           string
	TokenExpiration      int
	TokenLookup          string
	AuthScheme           string
	Issuer               string
	Audience             []string
	CookieName           string
	CookieMaxAge         int
	SecureCookies        bool
	RejectedRouteKey     string
	RejectedRouteDefault string
}

// NewAuthConfig returns a config with the module defaults applied.
func NewAuthConfig(signingKey string) *AuthConfig {
	if signingKey == "" {
		signingKey = DevSigningKey
	}

	return &AuthConfig{
		SigningKey:           signingKey,
		SigningMethod:        "HS256",
		ContextKey:           "user",
		TokenExpiration:      DefaultTokenExpiration,
		TokenLookup:          "cookie:" + DefaultCookieName + ",header:Authorization",
		AuthScheme:           "Bearer",
		CookieName:           DefaultCookieName,
		CookieMaxAge:         DefaultCookieMaxAge,
		RejectedRouteKey:     "rejected_route",
		RejectedRouteDefault: "/dashboard",
	}
}

// Validate enforces the signing key contract: at least 32 characters.
func (c AuthConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(
			&c.SigningKey,
			validation.Required,
			validation.Length(32, 0),
		),
		validation.Field(&c.TokenExpiration, validation.Min(1)),
		validation.Field(&c.CookieMaxAge, validation.Min(1)),
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, "invalid auth configuration")
	}
	return nil
}

func (c AuthConfig) GetSigningKey() string      { return c.SigningKey }
func (c AuthConfig) GetSigningMethod() string   { return c.SigningMethod }
func (c AuthConfig) GetContextKey() string      { return c.ContextKey }
func (c AuthConfig) GetTokenExpiration() int    { return c.TokenExpiration }
func (c AuthConfig) GetTokenLookup() string     { return c.TokenLookup }
func (c AuthConfig) GetAuthScheme() string      { return c.AuthScheme }
func (c AuthConfig) GetIssuer() string          { return c.Issuer }
func (c AuthConfig) GetAudience() []string      { return c.Audience }
func (c AuthConfig) GetCookieName() string      { return c.CookieName }
func (c AuthConfig) GetCookieMaxAge() int       { return c.CookieMaxAge }
func (c AuthConfig) GetSecureCookies() bool     { return c.SecureCookies }
func (c AuthConfig) GetRejectedRouteKey() string {
	return c.RejectedRouteKey
}
func (c AuthConfig) GetRejectedRouteDefault() string {
	return c.RejectedRouteDefault
}

var _ Config = (*AuthConfig)(nil)
