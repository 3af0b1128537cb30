package dashboard

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ayurclinic/clinic/internal/domain/patient"
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
	g := api.Group("/dashboard", auth.RequireSession())
	g.GET("/metrics", h.Metrics)
	g.GET("/today-appointments", h.TodayAppointments)
	g.GET("/recent-patients", h.RecentPatients)

	admin := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/dashboard/metrics", h.AdminMetrics)
	admin.GET("/doctor-stats", h.DoctorStats)
	admin.GET("/doctor-patients", h.DoctorPatients)
}

func (h *Handler) Metrics(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())
	m, err := h.svc.DoctorMetrics(c.Request().Context(), sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute metrics")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) TodayAppointments(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())
	items, err := h.svc.TodayAppointments(c.Request().Context(), sess.UserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) RecentPatients(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())
	limit := 5
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	items, err := h.svc.RecentPatients(c.Request().Context(), sess.UserID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patients")
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) AdminMetrics(c echo.Context) error {
	m, err := h.svc.AdminMetrics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute metrics")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DoctorStats(c echo.Context) error {
	stats, err := h.svc.DoctorStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute doctor stats")
	}
	return c.JSON(http.StatusOK, stats)
}

// DoctorPatients is the admin view across panels: ?doctorId= narrows to one
// doctor, omitted means all.
func (h *Handler) DoctorPatients(c echo.Context) error {
	f := patient.ListFilter{
		Search: c.QueryParam("search"),
		Params: pagination.FromContext(c),
	}
	if raw := c.QueryParam("doctorId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
		}
		f.DoctorID = id
	}
	items, total, err := h.svc.DoctorPatients(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patients")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, f.Limit, f.Offset))
}
