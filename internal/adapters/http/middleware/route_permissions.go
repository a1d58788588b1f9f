package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Permissions required by the guarded route families.
const (
	PermissionUserSearch = "user-search"
	PermissionUserUnlink = "user-unlink"
)

// RouteRule maps one (method, route-family prefix) pair to the permission
// the caller's authorised-role list must contain.
type RouteRule struct {
	Method     string
	PathPrefix string
	Permission string
}

// RoutePermissionGuard gates specific route families on a per-method
// permission. Methods without a rule on a guarded family pass through
// unchanged; this fails open deliberately, matching the service it
// replaced, and is tracked as a known gap rather than silently tightened.
type RoutePermissionGuard struct {
	rules []RouteRule
}

func NewRoutePermissionGuard(rules ...RouteRule) *RoutePermissionGuard {
	if len(rules) == 0 {
		rules = DefaultRouteRules()
	}
	return &RoutePermissionGuard{rules: rules}
}

// DefaultRouteRules guards the user-search and unlink-login families.
func DefaultRouteRules() []RouteRule {
	return []RouteRule{
		{Method: http.MethodGet, PathPrefix: "/admin/users/search", Permission: PermissionUserSearch},
		{Method: http.MethodPatch, PathPrefix: "/users/", Permission: PermissionUserUnlink},
	}
}

func (g *RoutePermissionGuard) Evaluate(c echo.Context) Decision {
	req := c.Request()
	for _, rule := range g.rules {
		if req.Method != rule.Method || !strings.HasPrefix(req.URL.Path, rule.PathPrefix) {
			continue
		}
		if callerRoles(req).contains(rule.Permission) {
			return Allow()
		}
		return Deny(http.StatusForbidden, "missing permission "+rule.Permission)
	}
	return Allow()
}
