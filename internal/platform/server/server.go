package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	adaptermiddleware "account-gateway/internal/adapters/http/middleware"
	"account-gateway/internal/application"
	"account-gateway/internal/infrastructure"
	"account-gateway/internal/infrastructure/auth"
	"account-gateway/internal/infrastructure/dynamodb"
	httpiface "account-gateway/internal/interfaces/http"
	"account-gateway/internal/ports"
)

// Build wires the stores, services, guards and router into a ready echo
// instance. Both the container entrypoint and the Lambda entrypoint share
// this wiring.
func Build(ctx context.Context, cfg infrastructure.Config, logger ports.Logger) (*echo.Echo, error) {
	authMode, err := adaptermiddleware.ParseAuthMode(cfg.AuthMode)
	if err != nil {
		return nil, err
	}

	ddbClient, err := dynamodb.NewClient(ctx, cfg.Region, cfg.TableName)
	if err != nil {
		return nil, err
	}
	roleRepo := dynamodb.NewRoleRepository(ddbClient)
	groupRepo := dynamodb.NewAdminGroupRepository(ddbClient)
	userRepo := dynamodb.NewUserRepository(ddbClient)
	authRepo := dynamodb.NewAuthorizationRepository(ddbClient)

	clock := infrastructure.SystemClock{}
	roleSvc := application.NewRoleService(roleRepo, clock, logger)
	groupSvc := application.NewAdminGroupService(groupRepo, uuid.NewString, clock, logger)
	userSvc := application.NewUserService(userRepo, roleRepo, clock, logger)

	var oneLoginHandler echo.MiddlewareFunc
	if authMode == adaptermiddleware.ModeOneLogin {
		oneLoginHandler = auth.NewOneLoginMiddleware(cfg.OneLoginJWKSURL, cfg.OneLoginIssuer).Handler
	}
	authMiddleware, err := adaptermiddleware.AuthMiddleware(authMode, oneLoginHandler)
	if err != nil {
		return nil, err
	}

	routeGuard := adaptermiddleware.NewRoutePermissionGuard()
	mw := httpiface.Middleware{
		XRay:          adaptermiddleware.XRayMiddleware("account-gateway-http"),
		RequestLogger: adaptermiddleware.RequestLogger(logger),
		Auth:          authMiddleware,
		AdminGuards: adaptermiddleware.Chain(
			adaptermiddleware.NewTokenAuthGuard(authRepo, clock, logger),
			routeGuard,
		),
		SystemGuards: adaptermiddleware.Chain(
			adaptermiddleware.NewInternalKeyGuard(cfg.AdminBypassRole, logger),
			routeGuard,
		),
	}

	return httpiface.NewRouter(
		httpiface.NewRolesHandler(roleSvc),
		httpiface.NewGroupsHandler(groupSvc),
		httpiface.NewUsersHandler(userSvc),
		mw,
	), nil
}
