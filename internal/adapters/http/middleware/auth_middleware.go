package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Mode selects how the admin surface authenticates interactive callers.
type Mode string

const (
	ModeNone     Mode = "none"
	ModeAPIKey   Mode = "api_key"
	ModeOneLogin Mode = "onelogin"
)

// ParseAuthMode validates the configured mode string. An empty value
// defaults to ModeNone.
func ParseAuthMode(raw string) (Mode, error) {
	switch mode := Mode(raw); mode {
	case "":
		return ModeNone, nil
	case ModeNone, ModeAPIKey, ModeOneLogin:
		return mode, nil
	default:
		return "", errors.New("invalid auth mode")
	}
}

// AuthMiddleware dispatches to the identity-provider middleware when the
// configured mode requires it. The mode arrives via the configuration
// struct rather than being read from process state here.
func AuthMiddleware(mode Mode, onelogin echo.MiddlewareFunc) (echo.MiddlewareFunc, error) {
	if mode == ModeOneLogin && onelogin == nil {
		return nil, errors.New("onelogin middleware is required when auth mode is onelogin")
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch mode {
			case ModeNone, ModeAPIKey:
				return next(c)
			case ModeOneLogin:
				return onelogin(next)(c)
			default:
				return echo.NewHTTPError(http.StatusInternalServerError, "invalid auth mode")
			}
		}
	}, nil
}
