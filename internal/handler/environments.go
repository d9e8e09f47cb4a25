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

// EnvironmentsHandler serves the environment CRUD endpoints behind the
// legacy gate.
type EnvironmentsHandler struct {
	Environments *repository.EnvironmentRepo
}

func NewEnvironmentsHandler(e *repository.EnvironmentRepo) *EnvironmentsHandler {
	return &EnvironmentsHandler{Environments: e}
}

type environmentPart struct {
	ID        string    `json:"id"`
	TabID     string    `json:"tabId"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toEnvironmentPart(e model.Environment) environmentPart {
	return environmentPart{ID: e.ID, TabID: e.TabID, Name: e.Name, URL: e.URL, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// ListForTab returns the environments of one of the caller's tabs.
func (h *EnvironmentsHandler) ListForTab(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)
	tabID := c.Param("tabId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	envs, err := h.Environments.ListForTab(ctx, userID, tabID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tab not found."})
	}
	if err != nil {
		c.Logger().Errorf("environments: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list environments."})
	}
	out := make([]environmentPart, 0, len(envs))
	for _, e := range envs {
		out = append(out, toEnvironmentPart(e))
	}
	return c.JSON(http.StatusOK, out)
}

type createEnvironmentReq struct {
	TabID string `json:"tabId"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// Create adds an environment under one of the caller's tabs.
func (h *EnvironmentsHandler) Create(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)

	var req createEnvironmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tab id, name and url are required."})
	}
	tabID := utils.SanitizeText(req.TabID, 36)
	name := utils.SanitizeText(req.Name, 255)
	url := utils.SanitizeText(req.URL, 2048)
	if tabID == "" || name == "" || url == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tab id, name and url are required."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Environments.Create(ctx, userID, tabID, name, url)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Tab not found."})
	}
	if err != nil {
		c.Logger().Errorf("environments: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create environment."})
	}
	return c.JSON(http.StatusCreated, toEnvironmentPart(e))
}

type updateEnvironmentReq struct {
	Name *string `json:"name"`
	URL  *string `json:"url"`
}

// Update changes name and/or url of an environment.
func (h *EnvironmentsHandler) Update(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)
	envID := c.Param("environmentId")

	var req updateEnvironmentReq
	if err := c.Bind(&req); err != nil || (req.Name == nil && req.URL == nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "At least one field (name, url) must be provided."})
	}
	var name, url *string
	if req.Name != nil {
		v := utils.SanitizeText(*req.Name, 255)
		if v == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid name."})
		}
		name = &v
	}
	if req.URL != nil {
		v := utils.SanitizeText(*req.URL, 2048)
		if v == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid url."})
		}
		url = &v
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	e, err := h.Environments.Update(ctx, userID, envID, name, url)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Environment not found."})
	}
	if err != nil {
		c.Logger().Errorf("environments: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update environment."})
	}
	return c.JSON(http.StatusOK, toEnvironmentPart(e))
}

// Delete removes an environment.
func (h *EnvironmentsHandler) Delete(c echo.Context) error {
	userID, _ := middleware.LegacyUserID(c)
	envID := c.Param("environmentId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Environments.Delete(ctx, userID, envID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Environment not found."})
	}
	if err != nil {
		c.Logger().Errorf("environments: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete environment."})
	}
	return c.NoContent(http.StatusNoContent)
}
