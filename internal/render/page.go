package render

import (
	"time"

	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// Page is the data every page and fragment template receives.
type Page struct {
	Title    string
	Nav      string
	Session  *models.Session
	Guilds   []models.Guild
	GuildID  snowflake.ID
	Settings models.Settings
	Flashes  []models.Flash
	Data     any
}

// Can reports whether the session's role holds the named capability.
func (p *Page) Can(name string) bool {
	if p.Session == nil {
		return false
	}
	return permissions.ForRole(p.Session.Role).Has(permissions.ByName(name))
}

// Role returns the session role, or "".
func (p *Page) Role() string {
	if p.Session == nil {
		return ""
	}
	return p.Session.Role
}

// GuildName returns the selected guild's name.
func (p *Page) GuildName() string {
	for _, g := range p.Guilds {
		if g.ID == p.GuildID {
			return g.Name
		}
	}
	return ""
}

// RefreshSeconds is the auto-refresh interval for the browser, 0 when off.
func (p *Page) RefreshSeconds() int {
	if !p.Settings.AutoRefresh {
		return 0
	}
	return int(p.Settings.Interval() / time.Second)
}

// Confirm is the confirmation dialog shown before a destructive action.
// Submitting it repeats the action with confirmed=yes; Cancel is a link.
// Fragment names the list the repeated action re-renders, if any.
type Confirm struct {
	Title     string
	Message   string
	Action    string
	CancelURL string
	Fields    map[string]string
	Label     string
	Fragment  string
}

// LoginView is the login page.
type LoginView struct {
	Error string
}

// ErrorView is shown when a page cannot load its data.
type ErrorView struct {
	Message string
	Retry   string
}

// DashboardView is the overview page; its stats and recent activity are
// also pushed by the live updater.
type DashboardView struct {
	Bot       *models.BotInfo
	Guild     *models.Guild
	Stats     models.Stats
	FetchedAt time.Time
	Recent    []models.Activity
}

type MembersView struct {
	Query    string
	Members  []models.Member
	Warnings map[snowflake.ID]int
}

type MemberView struct {
	Member   models.Member
	Info     *models.MemberInfo
	Roles    []models.Role
	Assigned []models.Role
	Warnings int
}

type RolesView struct {
	Roles []models.Role
}

type ChannelsView struct {
	Tree models.ChannelTree
}

type MessagesView struct {
	Channels  []models.Channel
	ChannelID snowflake.ID
	Limit     int
	Messages  []models.Message
}

// Moderation tabs.
const (
	TabMutes    = "mutes"
	TabBans     = "bans"
	TabWarnings = "warnings"
)

// ValidTab returns tab when known, otherwise the mutes tab.
func ValidTab(tab string) string {
	switch tab {
	case TabBans, TabWarnings:
		return tab
	}
	return TabMutes
}

type ModerationView struct {
	Tab      string
	Mutes    []models.Mute
	Bans     []models.Ban
	Warnings []models.WarningSet
	History  []models.ModerationAction
	Members  []models.Member
	Channels []models.Channel
	Now      time.Time
}

type ReactionRolesView struct {
	List     []models.ReactionRole
	Channels []models.Channel
	Roles    []models.Role
}

type WelcomesView struct {
	List          []models.Welcome
	ReactionRoles []models.ReactionRole
	Channels      []models.Channel
}

type TempRoomsView struct {
	Rooms     []models.TempRoom
	Channels  []models.Channel
	ChannelID snowflake.ID
	Messages  []models.Message
	Now       time.Time
}

type SuspiciousView struct {
	Config   *models.SuspiciousConfig
	Messages []models.SuspiciousMessage
	Channels []models.Channel
}

type ActivityView struct {
	Filter  string
	Filters []string
	Items   []models.Activity
}

type StatsView struct {
	Period  string
	Periods []string
	Users   []models.RankedUser
}

type SettingsView struct {
	Settings models.Settings
	Min      int
	Max      int
}

type AuditView struct {
	Entries []models.AuditEntry
	Total   int
	Action  string
	Offset  int
	Limit   int
}

// NextOffset is the offset of the following page, or -1 on the last one.
func (v AuditView) NextOffset() int {
	if v.Offset+v.Limit >= v.Total {
		return -1
	}
	return v.Offset + v.Limit
}

// PrevOffset is the offset of the previous page, or -1 on the first one.
func (v AuditView) PrevOffset() int {
	if v.Offset <= 0 {
		return -1
	}
	if v.Offset-v.Limit < 0 {
		return 0
	}
	return v.Offset - v.Limit
}
