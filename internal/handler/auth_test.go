package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flightdeck-site/flightdeck-api/internal/config"
	"github.com/flightdeck-site/flightdeck-api/internal/middleware"
	"github.com/flightdeck-site/flightdeck-api/internal/model"
	"github.com/flightdeck-site/flightdeck-api/internal/repository"
	"github.com/flightdeck-site/flightdeck-api/internal/utils"
)

// ----- in-memory fakes -----

type fakeDirectory struct {
	byID map[string]*model.User
}

func newFakeDirectory(users ...*model.User) *fakeDirectory {
	d := &fakeDirectory{byID: map[string]*model.User{}}
	for _, u := range users {
		d.byID[u.ID] = u
	}
	return d
}

func (d *fakeDirectory) GetByName(ctx context.Context, name string) (model.User, error) {
	for _, u := range d.byID {
		if u.Name == name {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (d *fakeDirectory) GetByID(ctx context.Context, id string) (model.User, error) {
	if u, ok := d.byID[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (d *fakeDirectory) SetPasswordHashIfUnset(ctx context.Context, id, hash string) error {
	u, ok := d.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if u.PasswordHash != nil {
		return repository.ErrAlreadyMigrated
	}
	u.PasswordHash = &hash
	return nil
}

type fakeTokenStore struct {
	byHash  map[string]model.RefreshToken
	failing bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byHash: map[string]model.RefreshToken{}}
}

func (s *fakeTokenStore) Save(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if s.failing {
		return errors.New("store down")
	}
	s.byHash[tokenHash] = model.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (s *fakeTokenStore) Find(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	if s.failing {
		return model.RefreshToken{}, errors.New("store down")
	}
	if tok, ok := s.byHash[tokenHash]; ok {
		return tok, nil
	}
	return model.RefreshToken{}, repository.ErrNotFound
}

func (s *fakeTokenStore) Delete(ctx context.Context, tokenHash string) error {
	if s.failing {
		return errors.New("store down")
	}
	delete(s.byHash, tokenHash)
	return nil
}

// ----- helpers -----

func strPtr(s string) *string { return &s }

func testConfig() config.Config {
	return config.Config{
		JWTSecret:  "test-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
		BcryptCost: 4,
		CookiePath: "/api",
		AdminOnly:  true,
	}
}

func testAdminUser(t *testing.T) *model.User {
	t.Helper()
	hash, err := utils.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	return &model.User{
		ID:           "11111111-1111-4111-8111-111111111111",
		Name:         "alice",
		Role:         strPtr("admin"),
		PasswordHash: &hash,
	}
}

func newAuthHarness(t *testing.T, dir *fakeDirectory, store *fakeTokenStore) *AuthHandler {
	t.Helper()
	cfg := testConfig()
	cookies := NewCookieManager(CookieConfig{
		Path:       cfg.CookiePath,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	return NewAuthHandler(cfg, dir, store, cookies)
}

func jsonRequest(t *testing.T, method, path string, body any, cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func responseError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func sessionCookies(rec *httptest.ResponseRecorder) (access, refresh *http.Cookie) {
	for _, ck := range rec.Result().Cookies() {
		switch ck.Name {
		case AccessTokenCookie:
			access = ck
		case RefreshTokenCookie:
			refresh = ck
		}
	}
	return access, refresh
}

// seedSession plants a live refresh record and returns the raw secret a
// client would hold.
func seedSession(t *testing.T, store *fakeTokenStore, userID string, expiresAt time.Time) string {
	t.Helper()
	tok, err := utils.NewRefreshToken(time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), userID, utils.HashRefreshRaw(tok.Raw), expiresAt))
	return tok.Raw
}

// ----- Login -----

func TestLoginSuccess(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(u), store)

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", loginReq{Name: "alice", Password: "s3cret-pass"})
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, u.ID, resp.User.ID)
	assert.Equal(t, "alice", resp.User.Name)
	require.NotNil(t, resp.User.Role)
	assert.Equal(t, "admin", *resp.User.Role)
	assert.True(t, resp.RefreshTokenExpiresAt.After(resp.AccessTokenExpiresAt))

	access, refresh := sessionCookies(rec)
	require.NotNil(t, access)
	require.NotNil(t, refresh)

	claims, err := utils.VerifyAccessToken("test-secret", access.Value)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	// Only the hash of the refresh secret is stored.
	_, err = store.Find(context.Background(), utils.HashRefreshRaw(refresh.Value))
	require.NoError(t, err)
	_, err = store.Find(context.Background(), refresh.Value)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLoginWrongPassword(t *testing.T) {
	h := newAuthHarness(t, newFakeDirectory(testAdminUser(t)), newFakeTokenStore())

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", loginReq{Name: "alice", Password: "wrong"})
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials.", responseError(t, rec))
}

// Unknown users, passwordless legacy accounts and wrong passwords must
// produce the same response, so the endpoint cannot be used to probe
// which accounts exist.
func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	legacy := &model.User{ID: "22222222-2222-4222-8222-222222222222", Name: "carol"}
	h := newAuthHarness(t, newFakeDirectory(testAdminUser(t), legacy), newFakeTokenStore())

	reqs := []loginReq{
		{Name: "nobody", Password: "whatever"},
		{Name: "carol", Password: "whatever"},
		{Name: "alice", Password: "wrong"},
	}
	for _, r := range reqs {
		c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", r)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials.", responseError(t, rec))
	}
}

func TestLoginNonAdminForbidden(t *testing.T) {
	hash, err := utils.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	member := &model.User{ID: "33333333-3333-4333-8333-333333333333", Name: "bob", Role: strPtr("member"), PasswordHash: &hash}
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(member), store)

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", loginReq{Name: "bob", Password: "s3cret-pass"})
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin privileges required.", responseError(t, rec))
	assert.Empty(t, store.byHash, "no session may be persisted on 403")
}

// A bad password on a non-admin account answers 401, not 403. The
// credential check always runs first.
func TestLoginCredentialsCheckedBeforeRole(t *testing.T) {
	hash, err := utils.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	member := &model.User{ID: "33333333-3333-4333-8333-333333333333", Name: "bob", Role: strPtr("member"), PasswordHash: &hash}
	h := newAuthHarness(t, newFakeDirectory(member), newFakeTokenStore())

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", loginReq{Name: "bob", Password: "wrong"})
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials.", responseError(t, rec))
}

func TestLoginAdminOnlyDisabled(t *testing.T) {
	hash, err := utils.HashPassword("s3cret-pass", 4)
	require.NoError(t, err)
	member := &model.User{ID: "33333333-3333-4333-8333-333333333333", Name: "bob", Role: strPtr("member"), PasswordHash: &hash}
	h := newAuthHarness(t, newFakeDirectory(member), newFakeTokenStore())
	h.Cfg.AdminOnly = false

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", loginReq{Name: "bob", Password: "s3cret-pass"})
	require.NoError(t, h.Login(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginMissingFields(t *testing.T) {
	h := newAuthHarness(t, newFakeDirectory(), newFakeTokenStore())

	for _, body := range []loginReq{{}, {Name: "alice"}, {Password: "x"}, {Name: "   ", Password: "x"}} {
		c, rec := jsonRequest(t, http.MethodPost, "/api/auth/login", body)
		require.NoError(t, h.Login(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Name and password are required.", responseError(t, rec))
	}
}

// ----- Refresh -----

func TestRefreshRotatesSecret(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(u), store)
	raw := seedSession(t, store, u.ID, time.Now().UTC().Add(time.Hour))

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// The presented record is gone and exactly one successor exists.
	_, err := store.Find(context.Background(), utils.HashRefreshRaw(raw))
	assert.ErrorIs(t, err, repository.ErrNotFound)
	require.Len(t, store.byHash, 1)

	_, refresh := sessionCookies(rec)
	require.NotNil(t, refresh)
	assert.NotEqual(t, raw, refresh.Value)

	successor, err := store.Find(context.Background(), utils.HashRefreshRaw(refresh.Value))
	require.NoError(t, err)
	assert.Equal(t, u.ID, successor.UserID, "rotation keeps the subject")
}

func TestRefreshSecretIsSingleUse(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(u), store)
	raw := seedSession(t, store, u.ID, time.Now().UTC().Add(time.Hour))

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c2, rec2 := jsonRequest(t, http.MethodPost, "/api/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	require.NoError(t, h.Refresh(c2))
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
	assert.Equal(t, "Invalid refresh token.", responseError(t, rec2))

	access, refresh := sessionCookies(rec2)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.Equal(t, -1, access.MaxAge)
	assert.Equal(t, -1, refresh.MaxAge)
}

// A record whose expiry equals the current instant is already expired;
// the comparison is <=, not <.
func TestRefreshExpiredAtBoundary(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(u), store)
	raw := seedSession(t, store, u.ID, time.Now().UTC())

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token expired.", responseError(t, rec))
	assert.Empty(t, store.byHash, "expired record is pruned")
}

func TestRefreshMissingSecret(t *testing.T) {
	h := newAuthHarness(t, newFakeDirectory(), newFakeTokenStore())

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", nil)
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token is required.", responseError(t, rec))
}

func TestRefreshFromBody(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(u), store)
	raw := seedSession(t, store, u.ID, time.Now().UTC().Add(time.Hour))

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", refreshReq{RefreshToken: raw})
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshUserDeleted(t *testing.T) {
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(), store)
	raw := seedSession(t, store, "44444444-4444-4444-8444-444444444444", time.Now().UTC().Add(time.Hour))

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid refresh token.", responseError(t, rec))
	assert.Empty(t, store.byHash, "orphaned record is pruned")
}

// A user demoted after login loses the session on the next rotation:
// the old record is consumed and no successor is written.
func TestRefreshDemotedUser(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	dir := newFakeDirectory(u)
	h := newAuthHarness(t, dir, store)
	raw := seedSession(t, store, u.ID, time.Now().UTC().Add(time.Hour))

	u.Role = strPtr("member")

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	require.NoError(t, h.Refresh(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin privileges required.", responseError(t, rec))
	assert.Empty(t, store.byHash)
}

// Role and name are re-read from the directory on every rotation, so a
// rename shows up in the next session payload.
func TestRefreshReloadsUserRecord(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(u), store)
	raw := seedSession(t, store, u.ID, time.Now().UTC().Add(time.Hour))

	u.Name = "alice-renamed"

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/refresh", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	require.NoError(t, h.Refresh(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice-renamed", resp.User.Name)
}

// ----- Logout -----

func TestLogoutRevokesAndClears(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(u), store)
	raw := seedSession(t, store, u.ID, time.Now().UTC().Add(time.Hour))

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/logout", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: raw})
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())
	assert.Empty(t, store.byHash)

	access, refresh := sessionCookies(rec)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.Equal(t, -1, access.MaxAge)
	assert.Equal(t, -1, refresh.MaxAge)
}

func TestLogoutWithoutSession(t *testing.T) {
	h := newAuthHarness(t, newFakeDirectory(), newFakeTokenStore())

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/logout", nil)
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())
}

func TestLogoutIsIdempotent(t *testing.T) {
	u := testAdminUser(t)
	store := newFakeTokenStore()
	h := newAuthHarness(t, newFakeDirectory(u), store)
	raw := seedSession(t, store, u.ID, time.Now().UTC().Add(time.Hour))

	for i := 0; i < 2; i++ {
		c, rec := jsonRequest(t, http.MethodPost, "/api/auth/logout", nil,
			&http.Cookie{Name: RefreshTokenCookie, Value: raw})
		require.NoError(t, h.Logout(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestLogoutStoreError(t *testing.T) {
	store := newFakeTokenStore()
	store.failing = true
	h := newAuthHarness(t, newFakeDirectory(), store)

	c, rec := jsonRequest(t, http.MethodPost, "/api/auth/logout", nil,
		&http.Cookie{Name: RefreshTokenCookie, Value: "whatever"})
	require.NoError(t, h.Logout(c))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Cookies are cleared even when revocation fails.
	access, _ := sessionCookies(rec)
	require.NotNil(t, access)
	assert.Equal(t, -1, access.MaxAge)
}

// ----- Session -----

func TestSessionEchoesVerifiedIdentity(t *testing.T) {
	u := testAdminUser(t)
	h := newAuthHarness(t, newFakeDirectory(u), newFakeTokenStore())

	access, err := utils.NewAccessToken("test-secret", u.ID, u.Name, u.Role, time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+access.Token)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	guarded := middleware.RequireAuth("test-secret", h.Cookies.AccessToken, true)(h.Session)
	require.NoError(t, guarded(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		User sessionUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, u.ID, body.User.ID)
	assert.Equal(t, "alice", body.User.Name)
}

func TestSessionWithoutMiddleware(t *testing.T) {
	h := newAuthHarness(t, newFakeDirectory(), newFakeTokenStore())

	c, rec := jsonRequest(t, http.MethodGet, "/api/auth/session", nil)
	require.NoError(t, h.Session(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated.", responseError(t, rec))
}

// ----- Legacy bridge -----

func legacyRequest(t *testing.T, method, path, headerName, headerValue string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	c, rec := jsonRequest(t, method, path, body)
	if headerName != "" {
		c.Request().Header.Set(headerName, headerValue)
	}
	return c, rec
}

func TestLegacyUserNoHeader(t *testing.T) {
	h := newAuthHarness(t, newFakeDirectory(), newFakeTokenStore())

	c, rec := legacyRequest(t, http.MethodGet, "/api/auth/legacy-user", "", "", nil)
	require.NoError(t, h.LegacyUser(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestLegacyUserUnknown(t *testing.T) {
	h := newAuthHarness(t, newFakeDirectory(), newFakeTokenStore())

	c, rec := legacyRequest(t, http.MethodGet, "/api/auth/legacy-user",
		"x-user-id", "55555555-5555-4555-8555-555555555555", nil)
	require.NoError(t, h.LegacyUser(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found.", responseError(t, rec))
}

// An already-migrated account answers 204 like a missing header, so the
// endpoint cannot distinguish migrated accounts from nothing at all.
func TestLegacyUserAlreadyMigrated(t *testing.T) {
	u := testAdminUser(t)
	h := newAuthHarness(t, newFakeDirectory(u), newFakeTokenStore())

	c, rec := legacyRequest(t, http.MethodGet, "/api/auth/legacy-user", "x-user-id", u.ID, nil)
	require.NoError(t, h.LegacyUser(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestLegacyUserPendingMigration(t *testing.T) {
	legacy := &model.User{ID: "22222222-2222-4222-8222-222222222222", Name: "carol"}
	h := newAuthHarness(t, newFakeDirectory(legacy), newFakeTokenStore())

	c, rec := legacyRequest(t, http.MethodGet, "/api/auth/legacy-user", "x-user-id", legacy.ID, nil)
	require.NoError(t, h.LegacyUser(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{"id":"22222222-2222-4222-8222-222222222222","name":"carol"}}`, rec.Body.String())
}

// Alternate header spellings used by older clients are honored.
func TestLegacyUserAlternateHeaderNames(t *testing.T) {
	legacy := &model.User{ID: "22222222-2222-4222-8222-222222222222", Name: "carol"}
	h := newAuthHarness(t, newFakeDirectory(legacy), newFakeTokenStore())

	for _, name := range []string{"x-user-id", "user_id", "user-id", "userid", "userId"} {
		c, rec := legacyRequest(t, http.MethodGet, "/api/auth/legacy-user", name, legacy.ID, nil)
		require.NoError(t, h.LegacyUser(c))
		assert.Equal(t, http.StatusOK, rec.Code, "header %s", name)
	}
}

func TestLegacyPasswordResetSuccess(t *testing.T) {
	legacy := &model.User{ID: "22222222-2222-4222-8222-222222222222", Name: "carol", Role: strPtr("admin")}
	store := newFakeTokenStore()
	dir := newFakeDirectory(legacy)
	h := newAuthHarness(t, dir, store)

	c, rec := legacyRequest(t, http.MethodPost, "/api/auth/legacy-password-reset",
		"x-user-id", legacy.ID,
		legacyResetReq{Password: "brand-new-pass", ConfirmPassword: "brand-new-pass"})
	require.NoError(t, h.LegacyPasswordReset(c))
	require.Equal(t, http.StatusOK, rec.Code)

	// Account now carries a hash and got a full session in the same
	// round trip.
	require.NotNil(t, legacy.PasswordHash)
	assert.True(t, utils.VerifyPassword(*legacy.PasswordHash, "brand-new-pass"))
	assert.Len(t, store.byHash, 1)

	access, refresh := sessionCookies(rec)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
}

func TestLegacyPasswordResetOneShot(t *testing.T) {
	legacy := &model.User{ID: "22222222-2222-4222-8222-222222222222", Name: "carol", Role: strPtr("admin")}
	h := newAuthHarness(t, newFakeDirectory(legacy), newFakeTokenStore())

	body := legacyResetReq{Password: "brand-new-pass", ConfirmPassword: "brand-new-pass"}

	c, rec := legacyRequest(t, http.MethodPost, "/api/auth/legacy-password-reset", "x-user-id", legacy.ID, body)
	require.NoError(t, h.LegacyPasswordReset(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c2, rec2 := legacyRequest(t, http.MethodPost, "/api/auth/legacy-password-reset", "x-user-id", legacy.ID, body)
	require.NoError(t, h.LegacyPasswordReset(c2))
	assert.Equal(t, http.StatusBadRequest, rec2.Code)
	assert.Equal(t, "Account already migrated.", responseError(t, rec2))
}

func TestLegacyPasswordResetValidation(t *testing.T) {
	legacy := &model.User{ID: "22222222-2222-4222-8222-222222222222", Name: "carol"}
	h := newAuthHarness(t, newFakeDirectory(legacy), newFakeTokenStore())

	tests := []struct {
		name     string
		headerID string
		body     legacyResetReq
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing header",
			body:     legacyResetReq{Password: "brand-new-pass", ConfirmPassword: "brand-new-pass"},
			wantCode: http.StatusBadRequest,
			wantErr:  "Missing x-user-id header",
		},
		{
			name:     "mismatched confirmation",
			headerID: legacy.ID,
			body:     legacyResetReq{Password: "brand-new-pass", ConfirmPassword: "other"},
			wantCode: http.StatusBadRequest,
			wantErr:  "Passwords do not match.",
		},
		{
			name:     "too short",
			headerID: legacy.ID,
			body:     legacyResetReq{Password: "short", ConfirmPassword: "short"},
			wantCode: http.StatusBadRequest,
			wantErr:  "Password must be at least 8 characters.",
		},
		{
			name:     "unknown user",
			headerID: "99999999-9999-4999-8999-999999999999",
			body:     legacyResetReq{Password: "brand-new-pass", ConfirmPassword: "brand-new-pass"},
			wantCode: http.StatusNotFound,
			wantErr:  "User not found.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := legacyRequest(t, http.MethodPost, "/api/auth/legacy-password-reset", "x-user-id", tt.headerID, tt.body)
			if tt.headerID == "" {
				c.Request().Header.Del("x-user-id")
			}
			require.NoError(t, h.LegacyPasswordReset(c))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, responseError(t, rec))
		})
	}
}
