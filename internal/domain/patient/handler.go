package patient

import (
	"errors"
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
	g := api.Group("/patients", auth.RequireSession())
	g.GET("", h.ListPatients)
	g.POST("", h.CreatePatient)
	g.GET("/:id", h.GetPatient)
	g.PATCH("/:id", h.UpdatePatient)
}

// ListPatients returns the caller's patients. Admins may pass ?doctorId= to
// inspect a specific doctor's panel or omit it to list across all doctors;
// for every other role the filter is pinned to the session's own user id.
func (h *Handler) ListPatients(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	f := ListFilter{
		Search: c.QueryParam("search"),
		Params: pagination.FromContext(c),
	}
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

	items, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patients")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, f.Limit, f.Offset))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	var params CreateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	p, err := h.svc.Create(c.Request().Context(), sess.UserID, params)
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDoctorNotFound):
		return echo.NewHTTPError(http.StatusBadRequest, "no doctor account for caller")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create patient")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.fetchScoped(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	p, err := h.fetchScoped(c)
	if err != nil {
		return err
	}

	var params UpdateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.svc.Update(c.Request().Context(), p.ID, params)
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update patient")
	}
	return c.JSON(http.StatusOK, updated)
}

// fetchScoped loads the patient from :id and enforces ownership: non-admin
// callers get 404, not 403, for patients outside their panel so that record
// existence does not leak across doctors.
func (h *Handler) fetchScoped(c echo.Context) (*Patient, error) {
	sess := auth.SessionFromContext(c.Request().Context())

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load patient")
	}
	if sess.Role != auth.RoleAdmin && p.DoctorID != sess.UserID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return p, nil
}
