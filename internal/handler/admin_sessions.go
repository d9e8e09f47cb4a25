package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flightdeck-site/flightdeck-api/internal/model"
)

// SessionInventory is the slice of the refresh token repository the
// admin sessions console needs.
type SessionInventory interface {
	List(ctx context.Context) ([]model.RefreshToken, error)
	DeleteByID(ctx context.Context, id uint64) error
}

// AdminSessionsHandler serves the operator view over active refresh
// records: enough to identify and selectively revoke a session, never
// the secret or its hash.
type AdminSessionsHandler struct {
	Sessions SessionInventory
}

func NewAdminSessionsHandler(s SessionInventory) *AdminSessionsHandler {
	return &AdminSessionsHandler{Sessions: s}
}

type adminSession struct {
	ID        uint64    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// List enumerates all active sessions.
func (h *AdminSessionsHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	records, err := h.Sessions.List(ctx)
	if err != nil {
		c.Logger().Errorf("admin sessions: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list sessions."})
	}

	out := make([]adminSession, 0, len(records))
	for _, r := range records {
		out = append(out, adminSession{
			ID:        r.ID,
			UserID:    r.UserID,
			UserName:  r.UserName,
			CreatedAt: r.CreatedAt,
			ExpiresAt: r.ExpiresAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Delete revokes one session by its surrogate id.
func (h *AdminSessionsHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("sessionId"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid session id."})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Sessions.DeleteByID(ctx, id); err != nil {
		c.Logger().Errorf("admin sessions: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete session."})
	}
	return c.NoContent(http.StatusNoContent)
}
