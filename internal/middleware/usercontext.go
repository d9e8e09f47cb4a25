package middleware

// usercontext.go implements the transitional per-request identity gate
// for endpoints still on the pre-credential scheme. A client sends its
// user id in a plain header; the gate validates the v4-UUID shape and
// tags the request with it. This is tenant tagging, not authentication:
// there is no credential and no proof of ownership, and routes behind
// this gate must never be treated as authenticated.

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// legacyUserIDKey is the context key for the tagged tenant id.
const legacyUserIDKey = "legacyUserID"

// candidateHeaderNames lists every spelling legacy clients have used
// for the identity header, checked in order.
var candidateHeaderNames = []string{"x-user-id", "user_id", "user-id", "userid", "userId"}

// LegacyUserID returns the tenant id attached by RequireUserID, and
// false when the request never passed through it.
func LegacyUserID(c echo.Context) (string, bool) {
	id, ok := c.Get(legacyUserIDKey).(string)
	return id, ok && id != ""
}

// ExtractLegacyUserID pulls the raw legacy identity header off a
// request without validating it. Used by the auth bridge endpoints,
// which respond with their own statuses on absence.
func ExtractLegacyUserID(c echo.Context) string {
	for _, name := range candidateHeaderNames {
		if v := strings.TrimSpace(c.Request().Header.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// RequireUserID returns an Echo middleware that enforces a well-formed
// v4-UUID identity header, rejecting with 400 when absent or malformed.
func RequireUserID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}
			raw := ExtractLegacyUserID(c)
			if raw == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing x-user-id header"})
			}
			if !isUUIDv4(raw) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid x-user-id header format"})
			}
			c.Set(legacyUserIDKey, strings.ToLower(raw))
			return next(c)
		}
	}
}

func isUUIDv4(s string) bool {
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	// uuid.Parse accepts URN and braced forms; the header contract is
	// the plain 36-char shape only.
	if len(s) != 36 {
		return false
	}
	return id.Version() == 4
}
