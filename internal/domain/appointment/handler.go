package appointment

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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
	g := api.Group("/appointments", auth.RequireSession())
	g.GET("", h.ListAppointments)
	g.POST("", h.CreateAppointment)
	g.GET("/:id", h.GetAppointment)
	g.PUT("/:id", h.UpdateAppointment)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	f := ListFilter{Params: pagination.FromContext(c)}
	if sess.Role == auth.RoleAdmin {
		if raw := c.QueryParam("doctorId"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid doctorId")
			}
			f.DoctorID = id
		}
	} else {
		f.DoctorID = sess.UserID
	}
	if raw := c.QueryParam("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		}
		f.Date = &d
	}

	items, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, f.Limit, f.Offset))
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	var params CreateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doctorID := sess.UserID
	if sess.Role == auth.RoleAdmin {
		doctorID = 0
	}

	a, err := h.svc.Create(c.Request().Context(), doctorID, params)
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create appointment")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	a, err := h.fetchScoped(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	a, err := h.fetchScoped(c)
	if err != nil {
		return err
	}

	var params UpdateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.Update(c.Request().Context(), a.ID, params)
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update appointment")
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) fetchScoped(c echo.Context) (*Appointment, error) {
	sess := auth.SessionFromContext(c.Request().Context())

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load appointment")
	}
	if sess.Role != auth.RoleAdmin && a.DoctorID != sess.UserID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return a, nil
}
