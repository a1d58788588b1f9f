package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"account-gateway/internal/domain"
	"account-gateway/internal/ports"
)

// InternalKeyGuard authorizes system-to-system calls presenting an
// internal key rather than a user token. A merely "internal" caller is
// not enough to reach user-data routes: it must hold both the
// internal-application privilege and the user-data privilege. Callers
// that instead present an oauth2 identity already granted the bypass role
// are allowed straight through.
type InternalKeyGuard struct {
	bypassRole string
	logger     ports.Logger
}

func NewInternalKeyGuard(bypassRole string, logger ports.Logger) *InternalKeyGuard {
	return &InternalKeyGuard{bypassRole: bypassRole, logger: logger}
}

func (g *InternalKeyGuard) Evaluate(c echo.Context) Decision {
	req := c.Request()

	identityType := strings.TrimSpace(req.Header.Get(HeaderIdentityType))
	if strings.EqualFold(identityType, identityTypeOAuth2) && callerRoles(req).contains(g.bypassRole) {
		return Allow()
	}

	// Base internal-identity check: the request must carry a recognised
	// internal key identity at all before privileges are even read.
	if strings.TrimSpace(req.Header.Get(HeaderIdentity)) == "" || !strings.EqualFold(identityType, identityTypeKey) {
		return Deny(http.StatusUnauthorized, "no recognised internal identity")
	}

	privileges := parseKeyPrivileges(req.Header.Get(HeaderKeyPrivileges))
	// Both privileges are required; either one alone is denied. 401 here,
	// distinct from the 403 used for role-based denial.
	if !privileges[domain.PrivilegeInternalApp] || !privileges[domain.PrivilegeUserData] {
		g.logger.Debug(req.Context(), "internal key missing required privileges",
			"identity", req.Header.Get(HeaderIdentity))
		return Deny(http.StatusUnauthorized, "insufficient key privileges")
	}
	return Allow()
}

// parseKeyPrivileges reads the comma-separated privileges header into a
// set. An absent header yields an empty set. Unknown privilege values are
// never granted.
func parseKeyPrivileges(header string) map[domain.KeyPrivilege]bool {
	privileges := map[domain.KeyPrivilege]bool{}
	for _, raw := range strings.Split(header, ",") {
		p, err := domain.ParseKeyPrivilege(raw)
		if err != nil {
			continue
		}
		privileges[p] = true
	}
	return privileges
}

type roleList []string

func (r roleList) contains(role string) bool {
	for _, candidate := range r {
		if candidate == role {
			return true
		}
	}
	return false
}

// callerRoles reads the whitespace-separated authorised-roles header.
func callerRoles(req *http.Request) roleList {
	return strings.Fields(req.Header.Get(HeaderAuthorisedRoles))
}
