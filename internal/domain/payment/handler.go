package payment

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
	g := api.Group("/payments", auth.RequireSession())
	g.GET("", h.ListPayments)
	g.POST("", h.CreatePayment)
	g.GET("/:id", h.GetPayment)
	g.PUT("/:id/status", h.UpdateStatus)
}

func (h *Handler) ListPayments(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	f := ListFilter{
		Status: Status(c.QueryParam("status")),
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
	if raw := c.QueryParam("patientId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
		}
		f.PatientID = id
	}

	items, total, err := h.svc.List(c.Request().Context(), f)
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list payments")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, f.Limit, f.Offset))
}

func (h *Handler) CreatePayment(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	var params CreateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doctorID := sess.UserID
	if sess.Role == auth.RoleAdmin {
		doctorID = 0
	}

	y, err := h.svc.Create(c.Request().Context(), doctorID, params)
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create payment")
	}
	return c.JSON(http.StatusCreated, y)
}

func (h *Handler) GetPayment(c echo.Context) error {
	id, err := h.scopedID(c)
	if err != nil {
		return err
	}
	y, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "payment not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load payment")
	}
	return c.JSON(http.StatusOK, y)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := h.scopedID(c)
	if err != nil {
		return err
	}

	var update StatusUpdate
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	y, err := h.svc.UpdateStatus(c.Request().Context(), id, update)
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "payment not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update payment")
	}
	return c.JSON(http.StatusOK, y)
}

// scopedID parses :id and verifies the payment's owning doctor matches the
// caller for non-admin sessions, hiding foreign payments as 404.
func (h *Handler) scopedID(c echo.Context) (int64, error) {
	sess := auth.SessionFromContext(c.Request().Context())

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	owner, err := h.svc.OwnerDoctor(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return 0, echo.NewHTTPError(http.StatusNotFound, "payment not found")
	}
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusInternalServerError, "failed to load payment")
	}
	if sess.Role != auth.RoleAdmin && owner != sess.UserID {
		return 0, echo.NewHTTPError(http.StatusNotFound, "payment not found")
	}
	return id, nil
}
