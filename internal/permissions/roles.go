package permissions

// Panel roles as issued by the bot's login endpoint.
const (
	RoleAdmin       = "admin"
	RoleModerator   = "moderator"
	RoleRoomManager = "room_manager"
)

var rolePerms = map[string]Permission{
	RoleAdmin: PermAll,
	RoleModerator: PermViewDashboard | PermReadChannels | PermManageMessages |
		PermModerate | PermReviewSuspicious,
	RoleRoomManager: PermReadChannels | PermManageTempRooms,
}

// ForRole resolves a login role to its capability set. Unknown roles get none.
func ForRole(role string) Permission {
	return rolePerms[role]
}

// HomePath is where a role lands after login.
func HomePath(role string) string {
	if role == RoleRoomManager {
		return "/temp-rooms"
	}
	return "/dashboard"
}
