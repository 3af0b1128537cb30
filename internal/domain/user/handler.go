package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ayurclinic/clinic/internal/platform/auth"
)

// Handler exposes admin account management.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/users", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.ListUsers)
	g.POST("", h.CreateUser)
	g.PATCH("/:id", h.UpdateUser)
	g.DELETE("/:id", h.DeleteUser)
	g.PATCH("/:id/toggle-status", h.ToggleStatus)
}

func (h *Handler) ListUsers(c echo.Context) error {
	var role auth.Role
	if raw := c.QueryParam("role"); raw != "" {
		r, err := auth.ParseRole(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid role filter")
		}
		role = r
	}
	users, err := h.svc.List(c.Request().Context(), role)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) CreateUser(c echo.Context) error {
	var params CreateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Create(c.Request().Context(), params)
	if err != nil {
		return mapUserError(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) UpdateUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var params UpdateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Update(c.Request().Context(), id, params)
	if err != nil {
		return mapUserError(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	// Admins cannot delete themselves through the API.
	if id == auth.UserIDFromContext(c.Request().Context()) {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot delete own account")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return mapUserError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ToggleStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapUserError(err)
	}
	updated, err := h.svc.SetActive(c.Request().Context(), id, !u.IsActive)
	if err != nil {
		return mapUserError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func mapUserError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNameConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, ErrEmailTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "user operation failed")
	}
}
