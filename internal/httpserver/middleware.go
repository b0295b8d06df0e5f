package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/identity/internal/service"
)

const userKey = "user"

type Authenticator struct {
	Svc *service.AuthService
}

// RequireAuth accepts an access token from the Authorization header or the
// accessToken cookie and stores its payload under "user".
func (m *Authenticator) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
		if raw == "" {
			if ck, err := c.Cookie(accessCookie); err == nil {
				raw = ck.Value
			}
		}
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		p, err := m.Svc.Authenticate(c.Request().Context(), raw)
		if err != nil {
			return toHTTPError(err)
		}

		c.Set(userKey, p)
		c.Set("user_id", p.UserID)
		c.Set("role", p.Role)
		return next(c)
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
