package prescription

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ayurclinic/clinic/internal/platform/auth"
	"github.com/ayurclinic/clinic/internal/platform/blobstore"
	"github.com/ayurclinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/prescriptions", auth.RequireSession())
	g.GET("", h.ListPrescriptions)
	g.POST("", h.CreatePrescription)
	g.GET("/:id", h.GetPrescription)
	g.POST("/upload", h.UploadFile)
}

// RegisterUploadRoutes exposes stored files outside the /api prefix so the
// prescriptionUrl references resolve directly.
func (h *Handler) RegisterUploadRoutes(root *echo.Group) {
	root.GET("/uploads/:name", h.ServeUpload, auth.RequireSession())
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
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
	if raw := c.QueryParam("patientId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patientId")
		}
		f.PatientID = id
	}

	items, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list prescriptions")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, f.Limit, f.Offset))
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	var params CreateParams
	if err := c.Bind(&params); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	doctorID := sess.UserID
	if sess.Role == auth.RoleAdmin {
		doctorID = 0
	}

	rx, err := h.svc.Create(c.Request().Context(), doctorID, params)
	switch {
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create prescription")
	}
	return c.JSON(http.StatusCreated, rx)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	rx, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load prescription")
	}
	if sess.Role != auth.RoleAdmin && rx.DoctorID != sess.UserID {
		return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
	}
	return c.JSON(http.StatusOK, rx)
}

// UploadFile accepts a multipart prescription scan and returns its opaque
// URL reference.
func (h *Handler) UploadFile(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	url, err := h.svc.Upload(c.Request().Context(), sess.UserID,
		fh.Filename, fh.Header.Get("Content-Type"), fh.Size, src)
	switch {
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds 10 MB")
	case errors.Is(err, blobstore.ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusBadRequest, "only jpeg, png and pdf files are accepted")
	case errors.Is(err, blobstore.ErrMissingFileName):
		return echo.NewHTTPError(http.StatusBadRequest, "file name is required")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "upload failed")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// ServeUpload streams a stored file back to any authenticated user.
func (h *Handler) ServeUpload(c echo.Context) error {
	rc, meta, err := h.svc.OpenUpload(c.Request().Context(), c.Param("name"))
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open file")
	}
	defer rc.Close()
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
