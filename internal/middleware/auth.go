package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes and methods
	"strings"  // string utilities for header parsing

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/flightdeck-site/flightdeck-api/internal/model" // request-scoped identity type
	"github.com/flightdeck-site/flightdeck-api/internal/utils" // access-token verification
)

// authUserKey is the context key under which the verified identity is
// stored. Handlers read it back through CurrentUser rather than
// touching the key directly, so the identity stays a typed value and
// never an ad hoc ambient field.
const authUserKey = "authUser"

// CookieReader resolves the access credential from the request's cookie
// jar. It exists as a function type so this package does not depend on
// the handler package's cookie manager; an empty string means absent.
type CookieReader func(echo.Context) string

// CurrentUser returns the identity attached by RequireAuth, and false
// when the request never passed through it.
func CurrentUser(c echo.Context) (model.AuthUser, bool) {
	u, ok := c.Get(authUserKey).(model.AuthUser)
	return u, ok
}

// RequireAuth returns an Echo middleware that verifies an access
// credential and injects the resolved identity into the request
// context. The credential is taken from a Bearer Authorization header
// (scheme matched case-insensitively) or, failing that, from the
// access cookie via readCookie. When requireAdmin is set the resolved
// role must be "admin" (case-insensitive) or the request ends with 403.
//
// Verification failures all collapse into one generic 401 body so a
// caller cannot tell a forged token from an expired one.
func RequireAuth(secret string, readCookie CookieReader, requireAdmin bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// CORS pre-flight carries no credentials by design.
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			token := extractBearerToken(c.Request().Header.Get("Authorization"))
			if token == "" && readCookie != nil {
				token = readCookie(c)
			}
			if token == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Missing or invalid authorization header"})
			}

			claims, err := utils.VerifyAccessToken(secret, token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid or expired token"})
			}

			authUser := model.AuthUser{ID: claims.UserID, Name: claims.Name, Role: claims.Role}
			c.Set(authUserKey, authUser)

			if requireAdmin && !authUser.IsAdmin() {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin privileges required"})
			}
			return next(c)
		}
	}
}

// extractBearerToken splits an Authorization header value and returns
// the token part when the scheme is "bearer" in any casing. Empty
// string when the header is missing or malformed.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
