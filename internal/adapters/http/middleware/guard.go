package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Request headers consumed by the guards.
const (
	HeaderAuthorization   = "Authorization"
	HeaderIdentity        = "ERIC-Identity"
	HeaderIdentityType    = "ERIC-Identity-Type"
	HeaderKeyPrivileges   = "ERIC-Authorised-Key-Privileges"
	HeaderAuthorisedRoles = "ERIC-Authorised-Roles"
	HeaderWWWAuthenticate = "WWW-Authenticate"
)

const (
	identityTypeOAuth2 = "oauth2"
	identityTypeKey    = "key"
)

// Decision is the outcome of a single guard. A non-zero Status on an
// allowed decision terminates the request successfully without running
// later guards or the handler (pre-flight handling). Headers are written
// to the response either way.
type Decision struct {
	Allowed bool
	Status  int
	Message string
	Headers map[string]string
}

func Allow() Decision { return Decision{Allowed: true} }

func AllowWithStatus(status int) Decision {
	return Decision{Allowed: true, Status: status}
}

func Deny(status int, message string) Decision {
	return Decision{Status: status, Message: message}
}

// WithHeader attaches a diagnostic header to the decision.
func (d Decision) WithHeader(key, value string) Decision {
	if d.Headers == nil {
		d.Headers = map[string]string{}
	}
	d.Headers[key] = value
	return d
}

// Guard is a single authorization-decision unit.
type Guard interface {
	Evaluate(c echo.Context) Decision
}

// GuardFunc adapts an ordinary function to the Guard interface.
type GuardFunc func(echo.Context) Decision

func (f GuardFunc) Evaluate(c echo.Context) Decision { return f(c) }

// Chain composes guards into a single middleware applied in order. The
// first deny terminates the request with the guard's status and headers;
// no later guard or handler runs after a deny.
func Chain(guards ...Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, g := range guards {
				decision := g.Evaluate(c)
				for k, v := range decision.Headers {
					c.Response().Header().Set(k, v)
				}
				if !decision.Allowed {
					msg := decision.Message
					if msg == "" {
						msg = http.StatusText(decision.Status)
					}
					return c.JSON(decision.Status, map[string]string{"error": msg})
				}
				if decision.Status != 0 {
					return c.NoContent(decision.Status)
				}
			}
			return next(c)
		}
	}
}
