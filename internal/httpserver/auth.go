package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/identity/internal/logging"
	"github.com/Skotchmaster/identity/internal/service"
	"github.com/Skotchmaster/identity/internal/tokens"
	"github.com/Skotchmaster/identity/internal/transport"
)

type AuthHTTP struct {
	Svc        *service.AuthService
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return toHTTPError(err)
	}
	h.setTokenCookies(c, res)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.RefreshToken == "" {
		if ck, err := c.Cookie(refreshCookie); err == nil {
			req.RefreshToken = ck.Value
		}
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return toHTTPError(err)
	}
	c.SetCookie(createCookie(accessCookie, res.AccessToken, "/", time.Now().Add(h.AccessTTL)))
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) RequestLoginCode(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.EmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.RequestLoginCode(ctx, req.Email)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) VerifyLoginCode(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.VerifyCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.VerifyLoginCode(ctx, req.Email, req.Code)
	if err != nil {
		return toHTTPError(err)
	}
	h.setTokenCookies(c, res)
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.EmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Token == "" {
		req.Token = c.QueryParam("token")
	}

	res, err := h.Svc.ResetPassword(ctx, req.Token, req.NewPassword)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	p, ok := c.Get(userKey).(*tokens.Payload)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
	}
	return c.JSON(http.StatusOK, transport.UserView{
		ID:       p.UserID,
		Username: p.Username,
		Email:    p.Email,
		Role:     p.Role,
	})
}

func (h *AuthHTTP) setTokenCookies(c echo.Context, res *transport.LoginResult) {
	now := time.Now()
	c.SetCookie(createCookie(accessCookie, res.AccessToken, "/", now.Add(h.AccessTTL)))
	c.SetCookie(createCookie(refreshCookie, res.RefreshToken, "/", now.Add(h.RefreshTTL)))
}
