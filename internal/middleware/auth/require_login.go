package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/GongoraLeo/spherework-sub000/internal/models"
	"github.com/GongoraLeo/spherework-sub000/internal/service/token"
)

const (
	ContextUserID = "userID"
	ContextRole   = "role"
)

type Middleware struct {
	Tokens *token.TokenService
}

// RequireLogin authenticates from the accessToken cookie, falling back
// to a refresh rotation when the access token has expired. On a
// successful rotation the new pair is set as cookies so the client
// keeps working without an explicit refresh call.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if asCookie, err := c.Cookie("accessToken"); err == nil && asCookie.Value != "" {
			if p, err := m.Tokens.ParseAccess(asCookie.Value); err == nil {
				setPrincipal(c, p)
				return next(c)
			}
		}

		rfCookie, err := c.Cookie("refreshToken")
		if err != nil || rfCookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
		}

		access, refresh, p, err := m.Tokens.Rotate(c.Request().Context(), rfCookie.Value)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		c.SetCookie(CreateCookie("accessToken", access, "/", time.Now().Add(token.AccessTTL)))
		c.SetCookie(CreateCookie("refreshToken", refresh, "/", time.Now().Add(token.RefreshTTL)))
		setPrincipal(c, p)
		return next(c)
	}
}

// RequireAdmin stacks on RequireLogin and rejects everyone without the
// admin role.
func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireLogin(func(c echo.Context) error {
		role, _ := c.Get(ContextRole).(string)
		if role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "not enough rights")
		}
		return next(c)
	})
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func setPrincipal(c echo.Context, p models.Principal) {
	c.Set(ContextUserID, p.ID)
	c.Set(ContextRole, p.Role)
}

// Principal rebuilds the caller identity the middleware stored in the
// echo context. ok is false on unauthenticated requests.
func Principal(c echo.Context) (models.Principal, bool) {
	id, okID := c.Get(ContextUserID).(uint)
	role, okRole := c.Get(ContextRole).(string)
	if !okID || !okRole {
		return models.Principal{}, false
	}
	return models.Principal{ID: id, Role: role}, true
}
