package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	loggingmw "github.com/Skotchmaster/identity/internal/middleware/logging"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Auth        *Authenticator
	Logger      *slog.Logger
	// Ready reports whether dependencies (the database) can serve traffic.
	Ready func(ctx context.Context) error
}

func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if d.Logger != nil {
		e.Use(loggingmw.RequestLogger(d.Logger))
	}

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready").SetInternal(err)
			}
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/auth")
	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)
	api.POST("/login-code", d.AuthHandler.RequestLoginCode)
	api.POST("/login-code/verify", d.AuthHandler.VerifyLoginCode)
	api.POST("/password/forgot", d.AuthHandler.ForgotPassword)
	api.POST("/password/reset", d.AuthHandler.ResetPassword)

	api.GET("/me", d.AuthHandler.Me, d.Auth.RequireAuth)
}
