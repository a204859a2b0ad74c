package api

import (
	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
)

// RoleHandler serves the role list.
type RoleHandler struct {
	views  *Views
	guilds *service.GuildService
}

// NewRoleHandler creates a RoleHandler.
func NewRoleHandler(views *Views, guilds *service.GuildService) *RoleHandler {
	return &RoleHandler{views: views, guilds: guilds}
}

// ListRoles handles GET /roles.
func (h *RoleHandler) ListRoles(c echo.Context) error {
	return h.views.showGuild(c, "roles", "Roles", "roles", render.RolesView{}, h.load)
}

func (h *RoleHandler) load(r *request) (any, error) {
	roles, err := h.guilds.Roles(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	return render.RolesView{Roles: roles}, nil
}

// DeleteRole handles POST /roles/:id/delete.
func (h *RoleHandler) DeleteRole(c echo.Context) error {
	return h.views.act(c, action{
		back: "/roles",
		confirm: &render.Confirm{
			Title:   "Delete role",
			Message: "Delete this role? Members lose it immediately and it cannot be restored.",
			Label:   "Delete role",
		},
		run: func(r *request) (string, error) {
			roleID, err := paramID(c, "id")
			if err != nil {
				return "", err
			}
			if err := h.guilds.DeleteRole(r.ctx, r.actor, roleID); err != nil {
				return "", err
			}
			return "Role deleted", nil
		},
		refresh: func(r *request) (string, any, error) {
			view, err := h.load(r)
			return "role_list", view, err
		},
	})
}
