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

// TabsHandler serves the tab CRUD endpoints behind the legacy gate.
type TabsHandler struct {
	Tabs *repository.TabRepo
}

func NewTabsHandler(t *repository.TabRepo) *TabsHandler { return &TabsHandler{Tabs: t} }

type tabPart struct {
	ID         string    `json:"id"`
	TabGroupID string    `json:"tabGroupId"`
	Title      string    `json:"title"`
	SortOrder  int       `json:"sortOrder"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toTabPart(t model.Tab) tabPart {
	return tabPart{ID: t.ID, TabGroupID: t.TabGroupID, Title: t.Title, SortOrder: t.SortOrder, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

// ListForGroup returns the tabs of one of the caller's groups.
func (h *TabsHandler) ListForGroup(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)
	groupID := c.Param("tabGroupId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tabs, err := h.Tabs.ListForGroup(ctx, userID, groupID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tab group not found."})
	}
	if err != nil {
		c.Logger().Errorf("tabs: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list tabs."})
	}
	out := make([]tabPart, 0, len(tabs))
	for _, t := range tabs {
		out = append(out, toTabPart(t))
	}
	return c.JSON(http.StatusOK, out)
}

type createTabReq struct {
	TabGroupID string `json:"tabGroupId"`
	Title      string `json:"title"`
}

// Create appends a tab to one of the caller's groups.
func (h *TabsHandler) Create(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)

	var req createTabReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tab group id and title are required."})
	}
	title := utils.SanitizeText(req.Title, 255)
	groupID := utils.SanitizeText(req.TabGroupID, 36)
	if title == "" || groupID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tab group id and title are required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tabs.Create(ctx, userID, groupID, title)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tab group not found."})
	}
	if err != nil {
		c.Logger().Errorf("tabs: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create tab."})
	}
	return c.JSON(http.StatusCreated, toTabPart(t))
}

// Rename changes a tab's title.
func (h *TabsHandler) Rename(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)
	tabID := c.Param("tabId")

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

	t, err := h.Tabs.Rename(ctx, userID, tabID, title)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tab not found."})
	}
	if err != nil {
		c.Logger().Errorf("tabs: rename failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to rename tab."})
	}
	return c.JSON(http.StatusOK, toTabPart(t))
}

// Delete removes a tab and its environments.
func (h *TabsHandler) Delete(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)
	tabID := c.Param("tabId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Tabs.Delete(ctx, userID, tabID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tab not found."})
	}
	if err != nil {
		c.Logger().Errorf("tabs: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete tab."})
	}
	return c.NoContent(http.StatusNoContent)
}
