package auth

import (
	"net/http"
	"strings"
	"time"
)

const (
	SessionCookieName = "console_session"
	GateCookieName    = "console_gate"
	CSRFCookieName    = "csrf_token"
	CSRFHeaderName    = "X-CSRF-Token"
)

// CookieConfig holds cookie attributes shared by every console cookie
type CookieConfig struct {
	Domain   string // Empty string = current host only
	Secure   bool
	SameSite string // "strict", "lax" or "none", case-insensitive
}

func (c CookieConfig) cookie(name, value string, expires time.Time, httpOnly bool) *http.Cookie {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		Expires:  expires,
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   c.Secure,
		SameSite: parseSameSite(c.SameSite),
	}
}

// SetSessionCookie stores the signed session token in an httpOnly cookie
func SetSessionCookie(w http.ResponseWriter, token string, expires time.Time, config CookieConfig) {
	http.SetCookie(w, config.cookie(SessionCookieName, token, expires, true))
}

// SetCSRFCookie exposes the CSRF token to the UI, which echoes it in X-CSRF-Token
func SetCSRFCookie(w http.ResponseWriter, token string, expires time.Time, config CookieConfig) {
	http.SetCookie(w, config.cookie(CSRFCookieName, token, expires, false))
}

// SetGateCookie identifies the browser to the credential gate
func SetGateCookie(w http.ResponseWriter, gateID string, expires time.Time, config CookieConfig) {
	http.SetCookie(w, config.cookie(GateCookieName, gateID, expires, true))
}

// ClearSessionCookies expires the session and CSRF cookies. The gate cookie is kept.
func ClearSessionCookies(w http.ResponseWriter, config CookieConfig) {
	for _, c := range []*http.Cookie{
		config.cookie(SessionCookieName, "", time.Unix(0, 0), true),
		config.cookie(CSRFCookieName, "", time.Unix(0, 0), false),
	} {
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

// CookieValue returns the named cookie's value or ""
func CookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}

func parseSameSite(sameSite string) http.SameSite {
	switch strings.ToLower(sameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
