package loginlog

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ayurclinic/clinic/internal/platform/auth"
	"github.com/ayurclinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/admin/login-logs", auth.RequireRole(auth.RoleAdmin))
	g.GET("", h.ListLogs)
	g.GET("/:userId", h.ListLogsForUser)
}

func (h *Handler) ListLogs(c echo.Context) error {
	f := Filter{
		Status: Status(c.QueryParam("status")),
		Params: pagination.FromContext(c),
	}
	return h.respond(c, f)
}

func (h *Handler) ListLogsForUser(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid userId")
	}
	f := Filter{
		UserID: userID,
		Status: Status(c.QueryParam("status")),
		Params: pagination.FromContext(c),
	}
	return h.respond(c, f)
}

func (h *Handler) respond(c echo.Context, f Filter) error {
	if f.Status != "" && !f.Status.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid status filter")
	}
	items, total, err := h.svc.Query(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to query login logs")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, f.Limit, f.Offset))
}
