package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flightdeck-site/flightdeck-api/internal/middleware"
	"github.com/flightdeck-site/flightdeck-api/internal/model"
	"github.com/flightdeck-site/flightdeck-api/internal/repository"
	"github.com/flightdeck-site/flightdeck-api/internal/utils"
)

// TabGroupsHandler serves the tab-group CRUD endpoints. All routes sit
// behind the legacy identity gate; the tenant id comes from the request
// context, never from the body.
type TabGroupsHandler struct {
	Groups *repository.TabGroupRepo
}

func NewTabGroupsHandler(g *repository.TabGroupRepo) *TabGroupsHandler {
	return &TabGroupsHandler{Groups: g}
}

type tabGroupPart struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toTabGroupPart(g model.TabGroup) tabGroupPart {
	return tabGroupPart{ID: g.ID, Title: g.Title, SortOrder: g.SortOrder, CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt}
}

type titleReq struct {
	Title string `json:"title"`
}

// List returns the caller's tab groups.
func (h *TabGroupsHandler) List(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	groups, err := h.Groups.ListForUser(ctx, userID)
	if err != nil {
		c.Logger().Errorf("tab groups: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list tab groups."})
	}
	out := make([]tabGroupPart, 0, len(groups))
	for _, g := range groups {
		out = append(out, toTabGroupPart(g))
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a group at the end of the caller's workspace.
func (h *TabGroupsHandler) Create(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)

	var req titleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required."})
	}
	title := utils.SanitizeText(req.Title, 255)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.Create(ctx, userID, title)
	if err != nil {
		c.Logger().Errorf("tab groups: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create tab group."})
	}
	return c.JSON(http.StatusCreated, toTabGroupPart(g))
}

// Rename changes a group's title.
func (h *TabGroupsHandler) Rename(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)
	groupID := c.Param("tabGroupId")

	var req titleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required."})
	}
	title := utils.SanitizeText(req.Title, 255)
	if title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title is required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	g, err := h.Groups.Rename(ctx, userID, groupID, title)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tab group not found."})
	}
	if err != nil {
		c.Logger().Errorf("tab groups: rename failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to rename tab group."})
	}
	return c.JSON(http.StatusOK, toTabGroupPart(g))
}

// Delete removes a group with its tabs and environments.
func (h *TabGroupsHandler) Delete(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)
	groupID := c.Param("tabGroupId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Groups.Delete(ctx, userID, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tab group not found."})
	}
	if err != nil {
		c.Logger().Errorf("tab groups: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete tab group."})
	}
	return c.NoContent(http.StatusNoContent)
}

// Summary returns per-group tab and environment counts.
func (h *TabGroupsHandler) Summary(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	summaries, err := h.Groups.Summary(ctx, userID)
	if err != nil {
		c.Logger().Errorf("tab groups: summary failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to load summary."})
	}
	type summaryPart struct {
		TabGroupID       string `json:"tabGroupId"`
		Title            string `json:"title"`
		TabCount         int    `json:"tabCount"`
		EnvironmentCount int    `json:"environmentCount"`
	}
	out := make([]summaryPart, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryPart{TabGroupID: s.TabGroupID, Title: s.Title, TabCount: s.TabCount, EnvironmentCount: s.EnvironmentCount})
	}
	return c.JSON(http.StatusOK, out)
}
