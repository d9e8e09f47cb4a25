package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/flightdeck-site/flightdeck-api/internal/handler"
	"github.com/flightdeck-site/flightdeck-api/internal/middleware"
)

// Deps bundles everything route registration needs. Each route group is
// statically bound to exactly one identity scheme: the credential gate
// (RequireAuth) or the legacy header gate (RequireUserID), never both.
type Deps struct {
	JWTSecret    string
	AdminOnly    bool
	Cookies      *handler.CookieManager
	Throttle     echo.MiddlewareFunc
	Auth         *handler.AuthHandler
	Users        *handler.UsersHandler
	TabGroups    *handler.TabGroupsHandler
	Tabs         *handler.TabsHandler
	Environments *handler.EnvironmentsHandler
	Sessions     *handler.AdminSessionsHandler
	AdminUsers   *handler.AdminUsersHandler
}

// Register wires all routes under the /api mount point. The cookie path
// configuration must match this mount or clients will not send the
// session cookies back.
func Register(e *echo.Echo, d Deps) {
	api := e.Group("/api")

	api.GET("/health", handler.Health)

	// Session lifecycle. Login and the legacy password reset sit behind
	// the throttle because both accept password guesses.
	auth := api.Group("/auth")
	auth.POST("/login", d.Auth.Login, d.Throttle)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)
	auth.GET("/session", d.Auth.Session,
		middleware.RequireAuth(d.JWTSecret, d.Cookies.AccessToken, d.AdminOnly))
	auth.GET("/legacy-user", d.Auth.LegacyUser)
	auth.POST("/legacy-password-reset", d.Auth.LegacyPasswordReset, d.Throttle)

	// Account creation is the unauthenticated entry point that mints
	// the id legacy clients identify themselves with afterwards.
	api.POST("/users", d.Users.Create)

	// Workspace endpoints still ride the legacy per-request identity
	// header. This is tenant tagging, not authentication.
	ws := api.Group("", middleware.RequireUserID())
	ws.GET("/users/workspace", d.Users.Workspace)

	ws.GET("/tab-groups", d.TabGroups.List)
	ws.POST("/tab-groups", d.TabGroups.Create)
	ws.GET("/tab-groups/summary", d.TabGroups.Summary)
	ws.PATCH("/tab-groups/:tabGroupId", d.TabGroups.Rename)
	ws.DELETE("/tab-groups/:tabGroupId", d.TabGroups.Delete)
	ws.GET("/tab-groups/:tabGroupId/tabs", d.Tabs.ListForGroup)

	ws.POST("/tabs", d.Tabs.Create)
	ws.PATCH("/tabs/:tabId", d.Tabs.Rename)
	ws.DELETE("/tabs/:tabId", d.Tabs.Delete)
	ws.GET("/tabs/:tabId/environments", d.Environments.ListForTab)

	ws.POST("/environments", d.Environments.Create)
	ws.PATCH("/environments/:environmentId", d.Environments.Update)
	ws.DELETE("/environments/:environmentId", d.Environments.Delete)

	// Admin console requires a verified admin credential.
	admin := api.Group("/admin",
		middleware.RequireAuth(d.JWTSecret, d.Cookies.AccessToken, true))
	admin.GET("/sessions", d.Sessions.List)
	admin.DELETE("/sessions/:sessionId", d.Sessions.Delete)
	admin.GET("/users", d.AdminUsers.List)
	admin.POST("/users", d.AdminUsers.Create)
	admin.PATCH("/users/:userId", d.AdminUsers.Update)
	admin.DELETE("/users/:userId", d.AdminUsers.Delete)
}
