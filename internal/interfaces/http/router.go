package http

import (
	stdhttp "net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// Validator adapts go-playground/validator to echo's Validator contract.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(stdhttp.StatusBadRequest, err.Error())
	}
	return nil
}

// Middleware bundles the pipeline pieces the router composes, in their
// fixed order: logging, then the credential or privilege gate for the
// surface, then the route-specific role gate (folded into the guard
// chains).
type Middleware struct {
	XRay          echo.MiddlewareFunc
	RequestLogger echo.MiddlewareFunc
	Auth          echo.MiddlewareFunc
	AdminGuards   echo.MiddlewareFunc
	SystemGuards  echo.MiddlewareFunc
}

// NewRouter builds the full route table. The admin surface (role and
// group administration plus user search) sits behind the token guard;
// the user-data surface sits behind the internal-key guard. The
// healthcheck stays unguarded.
func NewRouter(roles *RolesHandler, groups *GroupsHandler, users *UsersHandler, m Middleware) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	if m.XRay != nil {
		e.Use(m.XRay)
	}
	if m.RequestLogger != nil {
		e.Use(m.RequestLogger)
	}

	e.GET("/account-gateway/healthcheck", Healthcheck)

	admin := e.Group("/admin")
	if m.Auth != nil {
		admin.Use(m.Auth)
	}
	if m.AdminGuards != nil {
		admin.Use(m.AdminGuards)
	}
	admin.GET("/roles", roles.List)
	admin.POST("/roles", roles.Add)
	admin.PUT("/roles/:role_id", roles.Edit)
	admin.DELETE("/roles/:role_id", roles.Delete)
	admin.GET("/permission-groups", groups.List)
	admin.POST("/permission-groups", groups.Add)
	admin.PUT("/permission-groups/:group_id", groups.Edit)
	admin.DELETE("/permission-groups/:group_id", groups.Delete)
	admin.GET("/users/search", users.Search)

	system := e.Group("/users")
	if m.SystemGuards != nil {
		system.Use(m.SystemGuards)
	}
	system.GET("/:user_id", users.Get)
	system.PUT("/:user_id/roles", users.SetRoles)
	system.PATCH("/:user_id", users.Update)

	return e
}
