package api

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// MemberHandler serves the member list, member detail and role assignment.
type MemberHandler struct {
	views      *Views
	guilds     *service.GuildService
	moderation *service.ModerationService
}

// NewMemberHandler creates a MemberHandler.
func NewMemberHandler(views *Views, guilds *service.GuildService, moderation *service.ModerationService) *MemberHandler {
	return &MemberHandler{views: views, guilds: guilds, moderation: moderation}
}

// ListMembers handles GET /members?q=.
func (h *MemberHandler) ListMembers(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	return h.views.showGuild(c, "members", "Members", "members", render.MembersView{Query: query}, func(r *request) (any, error) {
		members, err := h.guilds.Members(r.ctx, r.actor, query)
		if err != nil {
			return nil, err
		}
		view := render.MembersView{Query: query, Members: members, Warnings: map[snowflake.ID]int{}}
		if r.actor.Can(permissions.PermModerate) {
			p, err := h.moderation.Punishments(r.ctx, r.actor)
			if err != nil {
				slog.Warn("loading warnings for member list", "error", err)
			} else {
				for _, w := range p.WarningList() {
					view.Warnings[w.UserID] = w.Total()
				}
			}
		}
		return view, nil
	})
}

// GetMember handles GET /members/:id.
func (h *MemberHandler) GetMember(c echo.Context) error {
	return h.views.showGuild(c, "member", "Member", "members", nil, func(r *request) (any, error) {
		userID, err := paramID(c, "id")
		if err != nil {
			return nil, err
		}
		return h.memberView(r, userID)
	})
}

func (h *MemberHandler) memberView(r *request, userID snowflake.ID) (*render.MemberView, error) {
	detail, err := h.guilds.Member(r.ctx, r.actor, userID)
	if err != nil {
		return nil, err
	}
	return &render.MemberView{
		Member:   detail.Member,
		Info:     detail.Info,
		Roles:    detail.Roles,
		Assigned: detail.Assigned,
		Warnings: detail.Info.WarningsCount,
	}, nil
}

// AssignRole handles POST /members/:id/roles/add.
func (h *MemberHandler) AssignRole(c echo.Context) error {
	return h.changeRole(c, true)
}

// RemoveRole handles POST /members/:id/roles/remove.
func (h *MemberHandler) RemoveRole(c echo.Context) error {
	return h.changeRole(c, false)
}

func (h *MemberHandler) changeRole(c echo.Context, add bool) error {
	return h.views.act(c, action{
		back: "/members/" + c.Param("id"),
		run: func(r *request) (string, error) {
			userID, err := paramID(c, "id")
			if err != nil {
				return "", err
			}
			roleID, err := formID(c, "role_id")
			if err != nil {
				return "", err
			}
			if add {
				if err := h.guilds.AssignRole(r.ctx, r.actor, userID, roleID); err != nil {
					return "", err
				}
				return fmt.Sprintf("Role %s assigned", roleID), nil
			}
			if err := h.guilds.RemoveRole(r.ctx, r.actor, userID, roleID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Role %s removed", roleID), nil
		},
		refresh: func(r *request) (string, any, error) {
			userID, _ := paramID(c, "id")
			view, err := h.memberView(r, userID)
			return "member_roles", view, err
		},
	})
}
