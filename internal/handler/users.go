package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flightdeck-site/flightdeck-api/internal/middleware"
	"github.com/flightdeck-site/flightdeck-api/internal/repository"
	"github.com/flightdeck-site/flightdeck-api/internal/utils"
)

// UsersHandler serves the self-service user endpoints. Create is the
// unauthenticated entry point that mints the UUID a legacy client then
// carries in its identity header; everything else sits behind the gate.
type UsersHandler struct {
	Users  *repository.UserRepo
	Groups *repository.TabGroupRepo
}

func NewUsersHandler(u *repository.UserRepo, g *repository.TabGroupRepo) *UsersHandler {
	return &UsersHandler{Users: u, Groups: g}
}

type createAccountReq struct {
	Name string `json:"name"`
}

// Create provisions a passwordless account and returns its id.
func (h *UsersHandler) Create(c echo.Context) error {
	var req createAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name is required."})
	}
	name := utils.SanitizeText(req.Name, 255)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name is required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, name, nil, nil)
	if errors.Is(err, repository.ErrNameExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Name already exists."})
	}
	if err != nil {
		c.Logger().Errorf("users: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create user."})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": u.ID, "name": u.Name})
}

// Workspace returns the caller's workspace overview: identity plus
// per-group tab and environment counts.
func (h *UsersHandler) Workspace(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found."})
	}
	if err != nil {
		c.Logger().Errorf("users: workspace lookup failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load workspace."})
	}

	summaries, err := h.Groups.Summary(ctx, userID)
	if err != nil {
		c.Logger().Errorf("users: workspace summary failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load workspace."})
	}

	type groupSummary struct {
		TabGroupID       string `json:"tabGroupId"`
		Title            string `json:"title"`
		TabCount         int    `json:"tabCount"`
		EnvironmentCount int    `json:"environmentCount"`
	}
	groups := make([]groupSummary, 0, len(summaries))
	for _, s := range summaries {
		groups = append(groups, groupSummary{TabGroupID: s.TabGroupID, Title: s.Title, TabCount: s.TabCount, EnvironmentCount: s.EnvironmentCount})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":      echo.Map{"id": u.ID, "name": u.Name},
		"tabGroups": groups,
	})
}
