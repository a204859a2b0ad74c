package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/auth"
	"github.com/WoushouW/woushBOT/internal/gateway"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/redis"
	"github.com/WoushouW/woushBOT/internal/render"
)

// Dependencies holds all handler instances and middleware for route wiring.
type Dependencies struct {
	Views       *Views
	Auth        *AuthHandler
	Guilds      *GuildHandler
	Members     *MemberHandler
	Roles       *RoleHandler
	Channels    *ChannelHandler
	Messages    *MessageHandler
	Moderation  *ModerationHandler
	Reactions   *ReactionHandler
	TempRooms   *TempRoomHandler
	Feeds       *FeedHandler
	Gateway     *gateway.Manager
	Guard       *auth.Guard
	Redis       *redis.Client
	LoginLimit  int
	ActionLimit int
}

// SetupRouter registers all panel routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	e.HTTPErrorHandler = deps.Views.HTTPError

	// Health check
	e.GET("/health", func(c echo.Context) error {
		if err := deps.Redis.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	e.StaticFS("/static", render.Static())

	// Login: no session, stricter per-IP limit on attempts.
	loginLimit := deps.LoginLimit
	if loginLimit <= 0 {
		loginLimit = 5
	}
	e.GET(auth.LoginPath, deps.Auth.LoginPage)
	e.POST(auth.LoginPath, deps.Auth.Login,
		RateLimitMiddleware(deps.Redis, loginLimit, time.Minute, deps.Auth.LoginLimited),
	)

	actionLimit := deps.ActionLimit
	if actionLimit <= 0 {
		actionLimit = 120
	}
	p := e.Group("", deps.Guard.Middleware(),
		RateLimitMiddleware(deps.Redis, actionLimit, time.Minute, nil),
	)
	perm := RequirePermission

	// Session
	p.GET("/", deps.Auth.Home)
	p.POST("/logout", deps.Auth.Logout)
	p.GET("/settings", deps.Auth.Settings)
	p.POST("/settings", deps.Auth.SaveSettings)
	p.POST("/guild/select", deps.Guilds.SelectGuild)
	p.POST("/refresh", deps.Guilds.Refresh)

	// Live updates
	p.GET("/ws", deps.Gateway.HandleWebSocket)

	// Dashboard
	p.GET("/dashboard", deps.Guilds.Dashboard, perm(permissions.PermViewDashboard))

	// Members and roles
	p.GET("/members", deps.Members.ListMembers, perm(permissions.PermViewDashboard))
	p.GET("/members/:id", deps.Members.GetMember, perm(permissions.PermViewDashboard))
	p.POST("/members/:id/roles/add", deps.Members.AssignRole, perm(permissions.PermManageRoles))
	p.POST("/members/:id/roles/remove", deps.Members.RemoveRole, perm(permissions.PermManageRoles))
	p.GET("/roles", deps.Roles.ListRoles, perm(permissions.PermViewDashboard))
	p.POST("/roles/:id/delete", deps.Roles.DeleteRole, perm(permissions.PermManageRoles))

	// Channels and messages
	p.GET("/channels", deps.Channels.ListChannels, perm(permissions.PermReadChannels))
	p.POST("/channels", deps.Channels.CreateChannel, perm(permissions.PermManageChannels))
	p.POST("/channels/:id/delete", deps.Channels.DeleteChannel, perm(permissions.PermManageChannels))
	p.GET("/messages", deps.Messages.ListMessages, perm(permissions.PermReadChannels))
	p.POST("/messages/send", deps.Messages.SendMessage, perm(permissions.PermManageMessages))
	p.POST("/messages/bulk-delete", deps.Messages.BulkDelete, perm(permissions.PermManageMessages))

	// Moderation
	mod := perm(permissions.PermModerate)
	p.GET("/moderation", deps.Moderation.Moderation, mod)
	p.POST("/moderation/mute", deps.Moderation.Mute, mod)
	p.POST("/moderation/unmute", deps.Moderation.Unmute, mod)
	p.POST("/moderation/warn", deps.Moderation.Warn, mod)
	p.POST("/moderation/clear-warnings", deps.Moderation.ClearWarnings, mod)
	p.POST("/moderation/kick", deps.Moderation.Kick, mod)
	p.POST("/moderation/ban", deps.Moderation.Ban, mod)
	p.POST("/moderation/unban", deps.Moderation.Unban, mod)

	// Reaction roles and welcomes
	rr := perm(permissions.PermManageReactionRoles)
	p.GET("/reaction-roles", deps.Reactions.ListReactionRoles, rr)
	p.POST("/reaction-roles", deps.Reactions.CreateReactionRole, rr)
	p.POST("/reaction-roles/:id/update", deps.Reactions.UpdateReactionRole, rr)
	p.POST("/reaction-roles/:id/delete", deps.Reactions.DeleteReactionRole, rr)
	wel := perm(permissions.PermManageWelcomes)
	p.GET("/welcomes", deps.Reactions.ListWelcomes, wel)
	p.POST("/welcomes", deps.Reactions.CreateWelcome, wel)
	p.POST("/welcomes/:id/delete", deps.Reactions.DeleteWelcome, wel)

	// Temp rooms
	tr := perm(permissions.PermManageTempRooms)
	p.GET("/temp-rooms", deps.TempRooms.ListTempRooms, tr)
	p.POST("/temp-rooms", deps.TempRooms.CreateTempRoom, tr)
	p.POST("/temp-rooms/:id/delete", deps.TempRooms.DeleteTempRoom, tr)

	// Feeds and review
	p.GET("/activity", deps.Feeds.Activity, perm(permissions.PermViewDashboard))
	p.GET("/activity/stats", deps.Feeds.ActivityStats, perm(permissions.PermViewDashboard))
	p.GET("/suspicious", deps.Feeds.Suspicious, perm(permissions.PermReviewSuspicious))
	cfg := perm(permissions.PermConfigureSuspicious)
	p.POST("/suspicious/triggers/add", deps.Feeds.AddTrigger, cfg)
	p.POST("/suspicious/triggers/remove", deps.Feeds.RemoveTrigger, cfg)
	p.POST("/suspicious/channels/add", deps.Feeds.AddExcludedChannel, cfg)
	p.POST("/suspicious/channels/remove", deps.Feeds.RemoveExcludedChannel, cfg)
	p.GET("/audit", deps.Feeds.Audit, perm(permissions.PermViewAudit))
}
