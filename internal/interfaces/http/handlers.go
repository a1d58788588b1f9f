package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	"account-gateway/internal/adapters/http/middleware"
	"account-gateway/internal/application"
	"account-gateway/internal/domain"
)

func handleError(c echo.Context, err error) error {
	var unknownRoles *domain.UnknownRolesError
	switch {
	case errors.As(err, &unknownRoles):
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": unknownRoles.Error()})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrNoRecordUpdated):
		// The store reported zero records changed for a record known to
		// exist. Surfaced, never swallowed.
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		return c.JSON(stdhttp.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func Healthcheck(c echo.Context) error {
	return c.JSON(stdhttp.StatusOK, map[string]string{"status": "ok"})
}

type RolesHandler struct {
	service *application.RoleService
}

func NewRolesHandler(service *application.RoleService) *RolesHandler {
	return &RolesHandler{service: service}
}

func (h *RolesHandler) List(c echo.Context) error {
	roles, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, roles)
}

func (h *RolesHandler) Add(c echo.Context) error {
	var req struct {
		ID          string   `json:"id" validate:"required"`
		Permissions []string `json:"permissions" validate:"required,min=1"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	created, err := h.service.Add(c.Request().Context(), domain.Role{ID: req.ID, Permissions: req.Permissions})
	if err != nil {
		return handleError(c, err)
	}
	if !created {
		return c.JSON(stdhttp.StatusConflict, map[string]string{"error": "role already exists"})
	}
	return c.NoContent(stdhttp.StatusCreated)
}

func (h *RolesHandler) Edit(c echo.Context) error {
	var req struct {
		Permissions []string `json:"permissions" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	updated, err := h.service.Edit(c.Request().Context(), c.Param("role_id"), req.Permissions)
	if err != nil {
		return handleError(c, err)
	}
	if !updated {
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": "role not found"})
	}
	return c.NoContent(stdhttp.StatusOK)
}

func (h *RolesHandler) Delete(c echo.Context) error {
	removed, err := h.service.Delete(c.Request().Context(), c.Param("role_id"))
	if err != nil {
		return handleError(c, err)
	}
	if !removed {
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": "role not found"})
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

type GroupsHandler struct {
	service *application.AdminGroupService
}

func NewGroupsHandler(service *application.AdminGroupService) *GroupsHandler {
	return &GroupsHandler{service: service}
}

func (h *GroupsHandler) List(c echo.Context) error {
	groups, err := h.service.ListAll(c.Request().Context())
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, groups)
}

func (h *GroupsHandler) Add(c echo.Context) error {
	var req struct {
		GroupID     string   `json:"group_id" validate:"required"`
		Name        string   `json:"name" validate:"required"`
		Permissions []string `json:"permissions"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	group, created, err := h.service.Add(c.Request().Context(), domain.AdminPermissionGroup{
		GroupID:     req.GroupID,
		Name:        req.Name,
		Permissions: req.Permissions,
	})
	if err != nil {
		return handleError(c, err)
	}
	if !created {
		return c.JSON(stdhttp.StatusConflict, map[string]string{"error": "group already exists"})
	}
	return c.JSON(stdhttp.StatusCreated, group)
}

func (h *GroupsHandler) Edit(c echo.Context) error {
	var req struct {
		Permissions []string `json:"permissions" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	updated, err := h.service.Edit(c.Request().Context(), c.Param("group_id"), req.Permissions)
	if err != nil {
		return handleError(c, err)
	}
	if !updated {
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": "group not found"})
	}
	return c.NoContent(stdhttp.StatusOK)
}

func (h *GroupsHandler) Delete(c echo.Context) error {
	removed, err := h.service.Delete(c.Request().Context(), c.Param("group_id"))
	if err != nil {
		return handleError(c, err)
	}
	if !removed {
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": "group not found"})
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

type UsersHandler struct {
	service *application.UserService
}

func NewUsersHandler(service *application.UserService) *UsersHandler {
	return &UsersHandler{service: service}
}

func (h *UsersHandler) Get(c echo.Context) error {
	user, err := h.service.GetByID(c.Request().Context(), c.Param("user_id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, user)
}

func (h *UsersHandler) Search(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "email query parameter is required"})
	}
	user, err := h.service.FindByEmail(c.Request().Context(), email)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, user)
}

func (h *UsersHandler) SetRoles(c echo.Context) error {
	var req struct {
		Roles []string `json:"roles"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	// An empty list is a valid assignment: it clears the user's roles.
	count, err := h.service.SetRoles(c.Request().Context(), c.Param("user_id"), req.Roles)
	if err != nil {
		return handleError(c, err)
	}
	if count == 0 {
		return c.JSON(stdhttp.StatusNotFound, map[string]string{"error": "user not found"})
	}
	return c.NoContent(stdhttp.StatusOK)
}

func (h *UsersHandler) Update(c echo.Context) error {
	var req struct {
		UnlinkOneLogin bool `json:"unlink_one_login"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if !req.UnlinkOneLogin {
		return c.JSON(stdhttp.StatusBadRequest, map[string]string{"error": "no update requested"})
	}
	actor := c.Request().Header.Get(middleware.HeaderIdentity)
	if _, err := h.service.UnlinkOneLogin(c.Request().Context(), c.Param("user_id"), actor); err != nil {
		return handleError(c, err)
	}
	// Already-unlinked users fall through here untouched: a no-op, not
	// an error.
	return c.NoContent(stdhttp.StatusOK)
}
