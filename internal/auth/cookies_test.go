package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSessionCookie(rec, "tok", time.Now().Add(time.Hour), CookieConfig{Secure: true, SameSite: "Strict"})

	c := findCookie(rec.Result().Cookies(), SessionCookieName)
	require.NotNil(t, c)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Greater(t, c.MaxAge, 0)
}

func TestSetCSRFCookie_ReadableByScript(t *testing.T) {
	rec := httptest.NewRecorder()
	SetCSRFCookie(rec, "csrf", time.Now().Add(time.Hour), CookieConfig{SameSite: "lax"})

	c := findCookie(rec.Result().Cookies(), CSRFCookieName)
	require.NotNil(t, c)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestClearSessionCookies_KeepsGate(t *testing.T) {
	rec := httptest.NewRecorder()
	ClearSessionCookies(rec, CookieConfig{})

	cookies := rec.Result().Cookies()
	for _, name := range []string{SessionCookieName, CSRFCookieName} {
		c := findCookie(cookies, name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Less(t, c.MaxAge, 0)
	}
	assert.Nil(t, findCookie(cookies, GateCookieName))
}

func TestCookieValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, CookieValue(req, GateCookieName))

	req.AddCookie(&http.Cookie{Name: GateCookieName, Value: "gate-1"})
	assert.Equal(t, "gate-1", CookieValue(req, GateCookieName))
}

func TestParseSameSite(t *testing.T) {
	tests := map[string]http.SameSite{
		"Strict": http.SameSiteStrictMode,
		"LAX":    http.SameSiteLaxMode,
		"none":   http.SameSiteNoneMode,
		"":       http.SameSiteDefaultMode,
		"bogus":  http.SameSiteDefaultMode,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseSameSite(in), in)
	}
}
