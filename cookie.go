package studygroups

import (
	"strconv"
	"strings"
)

// CookieOptions are the security attributes emitted with the auth cookie.
type CookieOptions struct {
	HTTPOnly bool
	Secure   bool
	SameSite string
	MaxAge   int
	Path     string
}

// AuthCookieOptions returns the attributes for the session cookie:
// 7 day max age, root path, SameSite Lax, Secure only when the deployment
// says so. HTTPOnly is not configurable for the auth cookie, see
// SerializeAuthCookie.
func AuthCookieOptions(secure bool) CookieOptions {
	return CookieOptions{
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
		MaxAge:   DefaultCookieMaxAge,
		Path:     "/",
	}
}

// SerializeCookie renders a Set-Cookie header value. Every option present
// is emitted; zero values are skipped.
func SerializeCookie(name, value string, opts CookieOptions) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("=")
	b.WriteString(value)

	if opts.MaxAge != 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(strconv.Itoa(opts.MaxAge))
	}

	if opts.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(opts.Path)
	}

	if opts.HTTPOnly {
		b.WriteString("; HttpOnly")
	}

	if opts.Secure {
		b.WriteString("; Secure")
	}

	if opts.SameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(opts.SameSite)
	}

	return b.String()
}

// SerializeAuthCookie is SerializeCookie with HTTPOnly forced on. The
// session token must never be readable from script, regardless of what the
// caller passed.
func SerializeAuthCookie(name, token string, opts CookieOptions) string {
	opts.HTTPOnly = true
	return SerializeCookie(name, token, opts)
}

// SerializeClearCookie renders a Set-Cookie value that instructs the client
// to drop the cookie immediately. The path must match the original set or
// browsers will not overwrite it.
func SerializeClearCookie(name string, opts CookieOptions) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteString("=; Max-Age=0")

	if opts.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(opts.Path)
	}

	return b.String()
}

// ParseCookieHeader extracts the named cookie's value from a Cookie header.
// The value is returned literally, no URL decoding: the token codec's
// output alphabet excludes ';' and '=' so a literal prefix match is enough.
// The second return is false when the cookie is absent.
func ParseCookieHeader(header, name string) (string, bool) {
	if header == "" || name == "" {
		return "", false
	}

	prefix := name + "="
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, prefix) {
			return part[len(prefix):], true
		}
	}

	return "", false
}
