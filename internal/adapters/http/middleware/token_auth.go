package middleware

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"account-gateway/internal/domain"
	"account-gateway/internal/ports"
)

// ContextKeyAuthorization is the request-context key the resolved
// authorization record is stored under for downstream handlers.
const ContextKeyAuthorization = "oauth_authorization"

const (
	schemeBasic  = "basic"
	schemeBearer = "bearer"
)

// TokenAuthGuard resolves an opaque bearer or basic credential against the
// authorization-record store and checks expiry against the injected clock.
type TokenAuthGuard struct {
	records ports.AuthorizationStore
	clock   ports.Clock
	logger  ports.Logger
}

func NewTokenAuthGuard(records ports.AuthorizationStore, clock ports.Clock, logger ports.Logger) *TokenAuthGuard {
	return &TokenAuthGuard{records: records, clock: clock, logger: logger}
}

func wwwAuthenticate(code, description string) string {
	return fmt.Sprintf("Bearer error=%q, error_description=%q", code, description)
}

func denyUnauthorized(code, description string) Decision {
	return Deny(http.StatusUnauthorized, description).
		WithHeader(HeaderWWWAuthenticate, wwwAuthenticate(code, description))
}

func (g *TokenAuthGuard) Evaluate(c echo.Context) Decision {
	req := c.Request()
	// Pre-flight requests carry no credential and are always let through.
	if req.Method == http.MethodOptions {
		return AllowWithStatus(http.StatusNoContent)
	}

	header := strings.TrimSpace(req.Header.Get(HeaderAuthorization))
	if header == "" {
		return denyUnauthorized("invalid_request", "no authorisation header provided")
	}

	scheme, value := splitAuthorization(header)
	if strings.EqualFold(scheme, schemeBasic) {
		decoded, err := base64.StdEncoding.DecodeString(value)
		// The password component must be empty: the decoded credential
		// has to end with a colon. This is a legacy contract kept on
		// purpose, not an oversight.
		if err != nil || !strings.HasSuffix(string(decoded), ":") {
			return denyUnauthorized("invalid_literal", "malformed basic credential")
		}
	}

	token := req.URL.Query().Get("access_token")
	if token == "" && strings.EqualFold(scheme, schemeBearer) {
		token = value
	}
	if token == "" {
		return denyUnauthorized("invalid_request", "no access token supplied")
	}

	record, err := g.records.GetByToken(req.Context(), token)
	if errors.Is(err, domain.ErrNotFound) {
		return denyUnauthorized("invalid_token", "access token not recognised")
	}
	if err != nil {
		g.logger.Error(req.Context(), "authorization record lookup failed", "error", err)
		return Deny(http.StatusInternalServerError, "internal error")
	}
	if record.Expires < g.clock.Now().Unix() {
		return denyUnauthorized("expired_token", "access token has expired")
	}

	c.Set(ContextKeyAuthorization, record)
	return Allow()
}

func splitAuthorization(header string) (scheme, value string) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}
