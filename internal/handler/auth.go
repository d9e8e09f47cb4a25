package handler

import (
	"context"  // context with cancellation for DB calls
	"errors"   // sentinel comparisons against repository errors
	"net/http" // HTTP status codes and primitives
	"strings"  // case-insensitive role comparison
	"time"     // timeouts for DB calls and expiry checks

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/flightdeck-site/flightdeck-api/internal/config"     // app configuration
	"github.com/flightdeck-site/flightdeck-api/internal/middleware" // request identity accessors
	"github.com/flightdeck-site/flightdeck-api/internal/model"      // user and token records
	"github.com/flightdeck-site/flightdeck-api/internal/queue"      // session audit events
	"github.com/flightdeck-site/flightdeck-api/internal/repository" // sentinel errors
	"github.com/flightdeck-site/flightdeck-api/internal/utils"      // token issuing, hashing, sanitizing
)

// UserDirectory is the slice of the user repository the auth flows
// need. Defined here so tests can substitute an in-memory directory.
type UserDirectory interface {
	GetByName(ctx context.Context, name string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
	SetPasswordHashIfUnset(ctx context.Context, id, hash string) error
}

// RefreshTokenStore is the slice of the refresh token repository the
// auth flows need.
type RefreshTokenStore interface {
	Save(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	Find(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Delete(ctx context.Context, tokenHash string) error
}

// AuthHandler bundles dependencies for the auth endpoints: the user
// directory, the refresh token store, the cookie manager and an
// optional best-effort audit event publisher.
type AuthHandler struct {
	Cfg     config.Config
	Users   UserDirectory
	Tokens  RefreshTokenStore
	Cookies *CookieManager
	Publish func(ctx context.Context, e queue.SessionEvent) error
}

func NewAuthHandler(cfg config.Config, u UserDirectory, t RefreshTokenStore, cookies *CookieManager) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Cookies: cookies}
}

// ----- DTOs -----

type loginReq struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}
type legacyResetReq struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type sessionUser struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Role *string `json:"role"`
}
type sessionResp struct {
	User                  sessionUser `json:"user"`
	AccessTokenExpiresAt  time.Time   `json:"accessTokenExpiresAt"`
	RefreshTokenExpiresAt time.Time   `json:"refreshTokenExpiresAt"`
}

// Login verifies name/password and opens a session: one stateless
// access token plus one stored, rotating refresh secret, both set as
// HTTP-only cookies. Credential checks run before the role check so a
// wrong password yields 401 even for non-admin accounts.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name and password are required."})
	}
	name := utils.SanitizeText(req.Name, 255)
	password := utils.SanitizeText(req.Password, 128)
	if name == "" || password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name and password are required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByName(ctx, name)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.Logger().Errorf("login: user lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to log in."})
	}
	// Unknown user and passwordless legacy account are deliberately
	// indistinguishable from a wrong password.
	if errors.Is(err, repository.ErrNotFound) || u.PasswordHash == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials."})
	}
	if !utils.VerifyPassword(*u.PasswordHash, password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials."})
	}
	if h.Cfg.AdminOnly && !isAdmin(u.Role) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin privileges required."})
	}

	return h.issueSession(ctx, c, u, "login")
}

// Refresh rotates a refresh secret: the presented record is deleted
// before any successor exists, so the same secret can never succeed
// twice, even for the legitimate client racing itself. Every failure
// clears the session cookies.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := h.refreshSecretFrom(c)
	if raw == "" {
		h.Cookies.Clear(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Refresh token is required."})
	}
	tokenHash := utils.HashRefreshRaw(raw)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	stored, err := h.Tokens.Find(ctx, tokenHash)
	if errors.Is(err, repository.ErrNotFound) {
		h.Cookies.Clear(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid refresh token."})
	}
	if err != nil {
		c.Logger().Errorf("refresh: token lookup failed: %v", err)
		h.Cookies.Clear(c)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to refresh token."})
	}

	// Expiry is checked with <=, so a record expiring exactly now is
	// already dead. Expired rows are pruned here, lazily.
	if !stored.ExpiresAt.After(time.Now().UTC()) {
		_ = h.Tokens.Delete(ctx, tokenHash)
		h.Cookies.Clear(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Refresh token expired."})
	}

	u, err := h.Users.GetByID(ctx, stored.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		_ = h.Tokens.Delete(ctx, tokenHash)
		h.Cookies.Clear(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid refresh token."})
	}
	if err != nil {
		c.Logger().Errorf("refresh: user lookup failed: %v", err)
		h.Cookies.Clear(c)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to refresh token."})
	}

	// Consume the presented record unconditionally before issuing a
	// replacement. Role and name are re-read from the directory above,
	// so role changes take effect on the next rotation.
	if err := h.Tokens.Delete(ctx, tokenHash); err != nil {
		c.Logger().Errorf("refresh: token delete failed: %v", err)
		h.Cookies.Clear(c)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to refresh token."})
	}

	if h.Cfg.AdminOnly && !isAdmin(u.Role) {
		// The old record is gone and no successor was written; the
		// caller is fully logged out before seeing the 403.
		h.Cookies.Clear(c)
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Admin privileges required."})
	}

	return h.issueSession(ctx, c, u, "refresh")
}

// Logout revokes the presented refresh secret when there is one and
// clears both cookies in every case. Revoking a secret that was never
// issued or is already gone still succeeds.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := h.refreshSecretFrom(c)

	if raw != "" {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := h.Tokens.Delete(ctx, utils.HashRefreshRaw(raw)); err != nil {
			c.Logger().Errorf("logout: token delete failed: %v", err)
			h.Cookies.Clear(c)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to revoke refresh token."})
		}
	}

	h.Cookies.Clear(c)
	h.publishEvent("logout", "", "")
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Session echoes the identity attached by the auth middleware. No
// credential verification happens here; that already ran upstream.
func (h *AuthHandler) Session(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Not authenticated."})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": sessionUser{ID: u.ID, Name: u.Name, Role: u.Role},
	})
}

// LegacyUser tells a pre-auth client whether its account still needs
// the bridge. Already-migrated accounts answer 204 just like a missing
// header, so the endpoint leaks nothing about accounts that moved on.
func (h *AuthHandler) LegacyUser(c echo.Context) error {
	legacyID := middleware.ExtractLegacyUserID(c)
	if legacyID == "" {
		return c.NoContent(http.StatusNoContent)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, legacyID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found."})
	}
	if err != nil {
		c.Logger().Errorf("legacy user: lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load user."})
	}
	if u.PasswordHash != nil {
		// Nothing to bridge; the caller should use normal login.
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user": echo.Map{"id": u.ID, "name": u.Name},
	})
}

// LegacyPasswordReset sets the first password on a passwordless legacy
// account, exactly once, and immediately upgrades the caller to a full
// credential session in the same round trip.
func (h *AuthHandler) LegacyPasswordReset(c echo.Context) error {
	legacyID := middleware.ExtractLegacyUserID(c)
	if legacyID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing x-user-id header"})
	}

	var req legacyResetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password and confirmation are required."})
	}
	password := utils.SanitizeText(req.Password, 128)
	confirm := utils.SanitizeText(req.ConfirmPassword, 128)
	if password == "" || password != confirm {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Passwords do not match."})
	}
	if len(password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 8 characters."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		c.Logger().Errorf("legacy reset: hash failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to set password."})
	}

	err = h.Users.SetPasswordHashIfUnset(ctx, legacyID, hash)
	switch {
	case errors.Is(err, repository.ErrAlreadyMigrated):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Account already migrated."})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found."})
	case err != nil:
		c.Logger().Errorf("legacy reset: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to set password."})
	}

	u, err := h.Users.GetByID(ctx, legacyID)
	if err != nil {
		c.Logger().Errorf("legacy reset: reload failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to set password."})
	}
	return h.issueSession(ctx, c, u, "legacy-migration")
}

// issueSession creates the access/refresh pair for a user, persists the
// refresh hash, sets both cookies and writes the session payload.
func (h *AuthHandler) issueSession(ctx context.Context, c echo.Context, u model.User, event string) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Name, u.Role, h.Cfg.AccessTTL)
	if err != nil {
		c.Logger().Errorf("issue session: access token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to log in."})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTL)
	if err != nil {
		c.Logger().Errorf("issue session: refresh token failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to log in."})
	}
	if err := h.Tokens.Save(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		c.Logger().Errorf("issue session: save refresh failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to log in."})
	}

	h.Cookies.SetSession(c, access.Token, refresh.Raw)
	h.publishEvent(event, u.ID, u.Name)

	return c.JSON(http.StatusOK, sessionResp{
		User:                  sessionUser{ID: u.ID, Name: u.Name, Role: u.Role},
		AccessTokenExpiresAt:  access.Exp,
		RefreshTokenExpiresAt: refresh.Exp,
	})
}

// refreshSecretFrom resolves the refresh secret from the cookie jar
// first, then from the request body.
func (h *AuthHandler) refreshSecretFrom(c echo.Context) string {
	if raw := h.Cookies.RefreshToken(c); raw != "" {
		return raw
	}
	var req refreshReq
	_ = c.Bind(&req)
	return utils.SanitizeText(req.RefreshToken, 512)
}

// publishEvent hands a session audit event to the queue publisher when
// one is wired. Best-effort: the publisher logs its own failures and a
// broker outage never affects the request.
func (h *AuthHandler) publishEvent(eventType, userID, userName string) {
	if h.Publish == nil {
		return
	}
	e := queue.SessionEvent{
		Type:     eventType,
		UserID:   userID,
		UserName: userName,
		At:       time.Now().UTC().Format(time.RFC3339),
	}
	go func() { _ = h.Publish(context.Background(), e) }()
}

func isAdmin(role *string) bool {
	return role != nil && strings.EqualFold(*role, "admin")
}
