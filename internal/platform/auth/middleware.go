package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const sessionKey contextKey = "session"

// UserChecker lets the session middleware verify that a session still points
// at a real user. Sessions outlive user deletion; a stale one is destroyed
// on first use instead of granting access.
type UserChecker interface {
	UserExists(ctx context.Context, id int64) (bool, error)
}

// SessionConfig wires the session middleware.
type SessionConfig struct {
	Store        SessionStore
	Users        UserChecker
	CookieName   string
	CookieSecure bool
}

// SessionMiddleware resolves the session cookie on every request and, when it
// maps to a live session and an existing user, attaches the session to the
// request context and slides its expiry. Requests without a valid session
// pass through unauthenticated; rejection is RequireSession's job.
func SessionMiddleware(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(cfg.CookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}

			ctx := c.Request().Context()
			sess, err := cfg.Store.Get(ctx, cookie.Value)
			if err != nil {
				return next(c)
			}

			exists, err := cfg.Users.UserExists(ctx, sess.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "session lookup failed")
			}
			if !exists {
				// User was deleted after login; the session must not
				// keep authenticating.
				_ = cfg.Store.Destroy(ctx, sess.SID)
				ClearSessionCookie(c, cfg)
				return next(c)
			}

			_ = cfg.Store.Touch(ctx, sess.SID)

			c.SetRequest(c.Request().WithContext(
				context.WithValue(ctx, sessionKey, sess)))
			return next(c)
		}
	}
}

// RequireSession rejects unauthenticated requests with 401.
func RequireSession() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SessionFromContext(c.Request().Context()) == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			return next(c)
		}
	}
}

// RequireRole rejects requests whose session role is not in the allowed set:
// 401 when unauthenticated, 403 otherwise. The message never names the roles
// that would have been accepted.
func RequireRole(allowed ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFromContext(c.Request().Context())
			if sess == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
			}
			if !sess.Role.In(allowed...) {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}

// SessionFromContext returns the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}

// UserIDFromContext returns the authenticated user id, or 0.
func UserIDFromContext(ctx context.Context) int64 {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.UserID
	}
	return 0
}

// RoleFromContext returns the authenticated role, or "" when unauthenticated.
func RoleFromContext(ctx context.Context) Role {
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.Role
	}
	return ""
}

// WithSession returns a context carrying the given session. Test helper and
// the glue for handlers invoked outside the middleware chain.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SetSessionCookie writes the session cookie on a login response.
func SetSessionCookie(c echo.Context, cfg SessionConfig, sess *Session) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    sess.SID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie on logout.
func ClearSessionCookie(c echo.Context, cfg SessionConfig) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
