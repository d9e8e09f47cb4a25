package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/flightdeck-site/flightdeck-api/internal/config"
	"github.com/flightdeck-site/flightdeck-api/internal/model"
	"github.com/flightdeck-site/flightdeck-api/internal/repository"
	"github.com/flightdeck-site/flightdeck-api/internal/utils"
)

// AdminUsersHandler serves the admin user console: list, create, update
// and delete accounts. Password hashes never leave this handler.
type AdminUsersHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.RefreshTokenRepo
}

func NewAdminUsersHandler(cfg config.Config, u *repository.UserRepo, t *repository.RefreshTokenRepo) *AdminUsersHandler {
	return &AdminUsersHandler{Cfg: cfg, Users: u, Tokens: t}
}

type adminUser struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Role        *string   `json:"role"`
	HasPassword bool      `json:"hasPassword"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toAdminUser(u model.User) adminUser {
	return adminUser{
		ID:          u.ID,
		Name:        u.Name,
		Role:        u.Role,
		HasPassword: u.PasswordHash != nil,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// List returns every account, password state included as a boolean only.
func (h *AdminUsersHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		c.Logger().Errorf("admin users: list failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list users."})
	}
	out := make([]adminUser, 0, len(users))
	for _, u := range users {
		out = append(out, toAdminUser(u))
	}
	return c.JSON(http.StatusOK, out)
}

type createUserReq struct {
	Name     string  `json:"name"`
	Role     *string `json:"role"`
	Password *string `json:"password"`
}

// Create provisions an account. A missing password creates a legacy
// account that must go through the bridge before it can log in.
func (h *AdminUsersHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid body."})
	}
	name := utils.SanitizeText(req.Name, 255)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Name is required."})
	}
	var role *string
	if req.Role != nil {
		if r := utils.SanitizeText(*req.Role, 50); r != "" {
			role = &r
		}
	}
	var hash *string
	if req.Password != nil {
		password := utils.SanitizeText(*req.Password, 128)
		if len(password) < 8 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 8 characters."})
		}
		hashed, err := utils.HashPassword(password, h.Cfg.BcryptCost)
		if err != nil {
			c.Logger().Errorf("admin users: hash failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create user."})
		}
		hash = &hashed
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Create(ctx, name, role, hash)
	if errors.Is(err, repository.ErrNameExists) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Name already exists."})
	}
	if err != nil {
		c.Logger().Errorf("admin users: create failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create user."})
	}
	return c.JSON(http.StatusCreated, toAdminUser(u))
}

// Update applies a partial update. Fields absent from the body are left
// alone; an explicit null role clears the role, and an explicit null
// password demotes the account back to the legacy passwordless state.
func (h *AdminUsersHandler) Update(c echo.Context) error {
	userID := c.Param("userId")

	var body map[string]json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil || len(body) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "At least one field (name, role, password) must be provided."})
	}

	var upd repository.UserUpdate
	if raw, ok := body["name"]; ok {
		var name *string
		if err := json.Unmarshal(raw, &name); err != nil || name == nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid name."})
		}
		sanitized := utils.SanitizeText(*name, 255)
		if sanitized == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid name."})
		}
		upd.Name = &sanitized
	}
	if raw, ok := body["role"]; ok {
		var role *string
		if err := json.Unmarshal(raw, &role); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid role."})
		}
		upd.RoleSet = true
		if role != nil {
			if r := utils.SanitizeText(*role, 50); r != "" {
				upd.Role = &r
			}
		}
	}
	if raw, ok := body["password"]; ok {
		var password *string
		if err := json.Unmarshal(raw, &password); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid password."})
		}
		upd.PasswordHashSet = true
		if password != nil {
			sanitized := utils.SanitizeText(*password, 128)
			if len(sanitized) < 8 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Password must be at least 8 characters."})
			}
			hashed, err := utils.HashPassword(sanitized, h.Cfg.BcryptCost)
			if err != nil {
				c.Logger().Errorf("admin users: hash failed: %v", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update user."})
			}
			upd.PasswordHash = &hashed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.Update(ctx, userID, upd)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found."})
	case errors.Is(err, repository.ErrNameExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Name already exists."})
	case err != nil:
		c.Logger().Errorf("admin users: update failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update user."})
	}

	// Demoting to passwordless invalidates any outstanding sessions.
	if upd.PasswordHashSet && upd.PasswordHash == nil {
		if err := h.Tokens.DeleteAllForUser(ctx, userID); err != nil {
			c.Logger().Errorf("admin users: session revoke failed: %v", err)
		}
	}
	return c.JSON(http.StatusOK, toAdminUser(u))
}

// Delete removes an account and revokes all of its sessions.
func (h *AdminUsersHandler) Delete(c echo.Context) error {
	userID := c.Param("userId")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.DeleteAllForUser(ctx, userID); err != nil {
		c.Logger().Errorf("admin users: session revoke failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete user."})
	}
	err := h.Users.Delete(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found."})
	}
	if err != nil {
		c.Logger().Errorf("admin users: delete failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete user."})
	}
	return c.NoContent(http.StatusNoContent)
}
