package service

import (
	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// Actor is the logged-in session acting on its selected guild.
type Actor struct {
	Session *models.Session
	GuildID snowflake.ID
}

// Perms returns the panel capabilities of the actor's role.
func (a Actor) Perms() permissions.Permission {
	if a.Session == nil {
		return 0
	}
	return permissions.ForRole(a.Session.Role)
}

// Can reports whether the actor holds every permission in perm.
func (a Actor) Can(perm permissions.Permission) bool {
	return a.Perms().Has(perm)
}

// require checks a capability before any bot call is made.
func require(a Actor, perm permissions.Permission) error {
	if a.Session == nil {
		return Unauthorized("NO_SESSION", "not logged in")
	}
	if !a.Can(perm) {
		return Forbidden("FORBIDDEN", "your role is not allowed to do this")
	}
	return nil
}

// requireGuild is require plus a selected guild.
func requireGuild(a Actor, perm permissions.Permission) error {
	if err := require(a, perm); err != nil {
		return err
	}
	if a.GuildID.IsZero() {
		return BadRequest("NO_GUILD", "select a server first")
	}
	return nil
}

// botFor returns a bot client carrying the actor's bearer token.
func botFor(bot *botapi.Client, a Actor) *botapi.Client {
	return bot.As(a.Session.Token)
}
