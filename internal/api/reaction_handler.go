package api

import (
	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// ReactionHandler serves reaction role messages and their welcome actions.
type ReactionHandler struct {
	views     *Views
	reactions *service.ReactionRoleService
	guilds    *service.GuildService
	channels  *service.ChannelService
}

// NewReactionHandler creates a ReactionHandler.
func NewReactionHandler(views *Views, reactions *service.ReactionRoleService, guilds *service.GuildService, channels *service.ChannelService) *ReactionHandler {
	return &ReactionHandler{views: views, reactions: reactions, guilds: guilds, channels: channels}
}

func (h *ReactionHandler) textChannels(r *request) ([]models.Channel, error) {
	channels, err := h.channels.Channels(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	return models.FilterChannels(channels, models.ChannelTypeText), nil
}

// ListReactionRoles handles GET /reaction-roles.
func (h *ReactionHandler) ListReactionRoles(c echo.Context) error {
	return h.views.showGuild(c, "reaction_roles", "Reaction roles", "reaction-roles", &render.ReactionRolesView{}, func(r *request) (any, error) {
		view, err := h.reactionRoles(r)
		if err != nil {
			return nil, err
		}
		if view.Channels, err = h.textChannels(r); err != nil {
			return nil, err
		}
		return view, nil
	})
}

func (h *ReactionHandler) reactionRoles(r *request) (*render.ReactionRolesView, error) {
	list, err := h.reactions.List(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	roles, err := h.guilds.Roles(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	return &render.ReactionRolesView{List: list, Roles: roles}, nil
}

func (h *ReactionHandler) refreshReactionRoles(r *request) (string, any, error) {
	view, err := h.reactionRoles(r)
	return "reaction_role_list", view, err
}

// formBindings reads the repeated emoji and role_id rows of a form.
func formBindings(c echo.Context) []models.ReactionBinding {
	form, err := c.FormParams()
	if err != nil {
		return nil
	}
	roles := make([]snowflake.ID, len(form["role_id"]))
	for i, raw := range form["role_id"] {
		// An unparsable role drops its row.
		roles[i], _ = snowflake.ParseOptional(raw)
	}
	return service.Bindings(form["emoji"], roles)
}

// CreateReactionRole handles POST /reaction-roles.
func (h *ReactionHandler) CreateReactionRole(c echo.Context) error {
	return h.views.act(c, action{
		back: "/reaction-roles",
		run: func(r *request) (string, error) {
			channelID, err := formID(c, "channel_id")
			if err != nil {
				return "", err
			}
			_, err = h.reactions.Create(r.ctx, r.actor, service.ReactionRoleInput{
				ChannelID: channelID,
				Message:   c.FormValue("message"),
				Reactions: formBindings(c),
			})
			if err != nil {
				return "", err
			}
			return "Reaction role message posted", nil
		},
		refresh: h.refreshReactionRoles,
	})
}

// UpdateReactionRole handles POST /reaction-roles/:id/update.
func (h *ReactionHandler) UpdateReactionRole(c echo.Context) error {
	return h.views.act(c, action{
		back: "/reaction-roles",
		run: func(r *request) (string, error) {
			messageID, err := paramID(c, "id")
			if err != nil {
				return "", err
			}
			if err := h.reactions.Update(r.ctx, r.actor, messageID, formBindings(c)); err != nil {
				return "", err
			}
			return "Reactions updated", nil
		},
		refresh: h.refreshReactionRoles,
	})
}

// DeleteReactionRole handles POST /reaction-roles/:id/delete.
func (h *ReactionHandler) DeleteReactionRole(c echo.Context) error {
	return h.views.act(c, action{
		back: "/reaction-roles",
		confirm: &render.Confirm{
			Title:   "Delete reaction role",
			Message: "Stop handling reactions on this message? Roles already given are kept.",
			Label:   "Delete",
		},
		run: func(r *request) (string, error) {
			messageID, err := paramID(c, "id")
			if err != nil {
				return "", err
			}
			if err := h.reactions.Delete(r.ctx, r.actor, messageID); err != nil {
				return "", err
			}
			return "Reaction role deleted", nil
		},
		refresh: h.refreshReactionRoles,
	})
}

// ListWelcomes handles GET /welcomes.
func (h *ReactionHandler) ListWelcomes(c echo.Context) error {
	return h.views.showGuild(c, "welcomes", "Welcomes", "welcomes", &render.WelcomesView{}, func(r *request) (any, error) {
		view, err := h.welcomes(r)
		if err != nil {
			return nil, err
		}
		if view.ReactionRoles, err = h.reactions.List(r.ctx, r.actor); err != nil {
			return nil, err
		}
		if view.Channels, err = h.textChannels(r); err != nil {
			return nil, err
		}
		return view, nil
	})
}

func (h *ReactionHandler) welcomes(r *request) (*render.WelcomesView, error) {
	list, err := h.reactions.Welcomes(r.ctx, r.actor)
	if err != nil {
		return nil, err
	}
	return &render.WelcomesView{List: list}, nil
}

func (h *ReactionHandler) refreshWelcomes(r *request) (string, any, error) {
	view, err := h.welcomes(r)
	return "welcome_list", view, err
}

// CreateWelcome handles POST /welcomes.
func (h *ReactionHandler) CreateWelcome(c echo.Context) error {
	return h.views.act(c, action{
		back: "/welcomes",
		run: func(r *request) (string, error) {
			messageID, err := formID(c, "message_id")
			if err != nil {
				return "", err
			}
			target, err := formID(c, "target_channel_id")
			if err != nil {
				return "", err
			}
			err = h.reactions.CreateWelcome(r.ctx, r.actor, service.WelcomeInput{
				MessageID:       messageID,
				TargetChannelID: target,
				Message:         c.FormValue("message"),
			})
			if err != nil {
				return "", err
			}
			return "Welcome action created", nil
		},
		refresh: h.refreshWelcomes,
	})
}

// DeleteWelcome handles POST /welcomes/:id/delete.
func (h *ReactionHandler) DeleteWelcome(c echo.Context) error {
	return h.views.act(c, action{
		back: "/welcomes",
		confirm: &render.Confirm{
			Title:   "Delete welcome",
			Message: "Stop greeting members who react to this message?",
			Label:   "Delete",
		},
		run: func(r *request) (string, error) {
			messageID, err := paramID(c, "id")
			if err != nil {
				return "", err
			}
			if err := h.reactions.DeleteWelcome(r.ctx, r.actor, messageID); err != nil {
				return "", err
			}
			return "Welcome action deleted", nil
		},
		refresh: h.refreshWelcomes,
	})
}
