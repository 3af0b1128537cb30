package user

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ayurclinic/clinic/internal/domain/loginlog"
	"github.com/ayurclinic/clinic/internal/platform/auth"
)

// AuthHandler exposes the session login flow: local credentials, the
// optional identity-provider token path, logout and current-user.
type AuthHandler struct {
	users    *Service
	sessions auth.SessionStore
	audit    *loginlog.Service
	provider auth.IdentityProvider
	cfg      auth.SessionConfig
}

func NewAuthHandler(users *Service, sessions auth.SessionStore, audit *loginlog.Service,
	provider auth.IdentityProvider, cfg auth.SessionConfig) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		audit:    audit,
		provider: provider,
		cfg:      cfg,
	}
}

// RegisterRoutes mounts the auth endpoints. Middleware passed in is applied
// to the credential-bearing routes only, so a tight login rate limit does not
// throttle session lookups.
func (h *AuthHandler) RegisterRoutes(api *echo.Group, loginMW ...echo.MiddlewareFunc) {
	g := api.Group("/auth")
	g.POST("/login", h.Login, loginMW...)
	g.POST("/oauth", h.OAuthLogin, loginMW...)
	g.POST("/logout", h.Logout, auth.RequireSession())
	g.GET("/user", h.CurrentUser)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session cookie. Every attempt against a
// known username is recorded before the response goes out; the failure
// message never reveals whether the username exists.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username and password are required")
	}

	ctx := c.Request().Context()
	u, err := h.users.Authenticate(ctx, req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		if u != nil {
			h.record(c, u.ID, loginlog.StatusFailed, "")
		}
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, ErrAccountInactive):
		h.record(c, u.ID, loginlog.StatusLocked, "")
		return echo.NewHTTPError(http.StatusUnauthorized, "account is deactivated")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	return h.establishSession(c, u)
}

type oauthRequest struct {
	IDToken string `json:"idToken"`
}

// OAuthLogin verifies an identity-provider ID token and logs the linked or
// freshly provisioned account in. Returns 404-style disabled error when no
// provider is configured.
func (h *AuthHandler) OAuthLogin(c echo.Context) error {
	var req oauthRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.IDToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "idToken is required")
	}

	ctx := c.Request().Context()
	ident, err := h.provider.Verify(ctx, req.IDToken)
	switch {
	case errors.Is(err, auth.ErrProviderDisabled):
		return echo.NewHTTPError(http.StatusNotFound, "external login is not enabled")
	case err != nil:
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid identity token")
	}

	u, err := h.users.ProvisionExternal(ctx, *ident)
	switch {
	case errors.Is(err, ErrAccountInactive):
		h.record(c, u.ID, loginlog.StatusLocked, "")
		return echo.NewHTTPError(http.StatusUnauthorized, "account is deactivated")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	return h.establishSession(c, u)
}

// Logout destroys the session server-side. Destroying twice is a no-op.
func (h *AuthHandler) Logout(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())
	if err := h.sessions.Destroy(c.Request().Context(), sess.SID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}
	auth.ClearSessionCookie(c, h.cfg)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// CurrentUser resolves the session to its account. The middleware already
// destroyed stale sessions, so an attached session always resolves here
// unless the user vanished mid-request.
func (h *AuthHandler) CurrentUser(c echo.Context) error {
	sess := auth.SessionFromContext(c.Request().Context())
	if sess == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	u, err := h.users.Get(c.Request().Context(), sess.UserID)
	if errors.Is(err, ErrNotFound) {
		_ = h.sessions.Destroy(c.Request().Context(), sess.SID)
		auth.ClearSessionCookie(c, h.cfg)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load user")
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) establishSession(c echo.Context, u *User) error {
	ctx := c.Request().Context()
	sess, err := h.sessions.Create(ctx, u.ID, u.Role, u.FullName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}
	h.record(c, u.ID, loginlog.StatusSuccess, sess.SID)
	auth.SetSessionCookie(c, h.cfg, sess)
	return c.JSON(http.StatusOK, u)
}

// record appends to the audit log before any response is written. A failed
// audit write does not block the login.
func (h *AuthHandler) record(c echo.Context, userID int64, status loginlog.Status, sid string) {
	_ = h.audit.Record(c.Request().Context(), &loginlog.Entry{
		UserID:    userID,
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
		SessionID: sid,
		Status:    status,
	})
}
