package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	// Cookie names
	AccessTokenCookie  = "flightdeck_access_token"
	RefreshTokenCookie = "flightdeck_refresh_token"
)

// CookieConfig carries the attributes shared by both session cookies.
type CookieConfig struct {
	Secure     bool          // Secure attribute; SameSite follows it (Strict when secure, Lax otherwise)
	Path       string        // path scoping both cookies to the API mount point
	AccessTTL  time.Duration // lifetime of the access cookie
	RefreshTTL time.Duration // lifetime of the refresh cookie
}

// CookieManager sets, reads and clears the pair of HTTP-only session
// cookies. Each cookie's MaxAge equals its credential's own TTL, so the
// cookie and the credential inside it expire together.
type CookieManager struct {
	config CookieConfig
}

// NewCookieManager creates a cookie manager with the given configuration.
func NewCookieManager(config CookieConfig) *CookieManager {
	return &CookieManager{config: config}
}

// SetSession sets both the access and refresh token cookies.
func (m *CookieManager) SetSession(c echo.Context, accessToken, refreshToken string) {
	m.setCookie(c, AccessTokenCookie, accessToken, int(m.config.AccessTTL.Seconds()))
	m.setCookie(c, RefreshTokenCookie, refreshToken, int(m.config.RefreshTTL.Seconds()))
}

// Clear unsets both cookies. The attributes must match the ones used
// when setting them attribute-for-attribute, otherwise most clients
// keep the original cookie; setCookie reuses the exact same set.
func (m *CookieManager) Clear(c echo.Context) {
	m.setCookie(c, AccessTokenCookie, "", -1)
	m.setCookie(c, RefreshTokenCookie, "", -1)
}

// AccessToken reads the access credential from the request's cookie
// jar; empty string when absent.
func (m *CookieManager) AccessToken(c echo.Context) string {
	return m.readCookie(c, AccessTokenCookie)
}

// RefreshToken reads the refresh secret from the request's cookie jar;
// empty string when absent.
func (m *CookieManager) RefreshToken(c echo.Context) string {
	return m.readCookie(c, RefreshTokenCookie)
}

func (m *CookieManager) readCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

func (m *CookieManager) setCookie(c echo.Context, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if m.config.Secure {
		sameSite = http.SameSiteStrictMode
	}
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   maxAge,
		Path:     m.config.Path,
		Secure:   m.config.Secure,
		HttpOnly: true, // always; session cookies are never script-readable
		SameSite: sameSite,
	})
}
