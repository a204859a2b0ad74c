package models

import (
	"sort"
	"strings"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

type Member struct {
	ID            snowflake.ID   `json:"id"`
	Username      string         `json:"username"`
	Discriminator string         `json:"discriminator"`
	Nick          *string        `json:"nick"`
	Avatar        *string        `json:"avatar"`
	Bot           bool           `json:"bot"`
	Roles         []snowflake.ID `json:"roles"`
	Status        string         `json:"status"`
	JoinedAt      Timestamp      `json:"joined_at"`
}

// DisplayName prefers the guild nickname.
func (m Member) DisplayName() string {
	if m.Nick != nil && *m.Nick != "" {
		return *m.Nick
	}
	return m.Username
}

func (m Member) IsOnline() bool {
	return m.Status != "" && m.Status != "offline" && m.Status != "invisible"
}

func (m Member) HasRole(id snowflake.ID) bool {
	for _, r := range m.Roles {
		if r == id {
			return true
		}
	}
	return false
}

// FilterMembers returns members whose username, nick or id contains query,
// case-insensitively, sorted by display name.
func FilterMembers(members []Member, query string) []Member {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if query == "" ||
			strings.Contains(strings.ToLower(m.Username), query) ||
			strings.Contains(strings.ToLower(m.DisplayName()), query) ||
			strings.Contains(m.ID.String(), query) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].DisplayName()) < strings.ToLower(out[j].DisplayName())
	})
	return out
}

// MemberInfo is the moderation summary from .../members/:uid/info.
type MemberInfo struct {
	PunishmentsCount  int                `json:"punishments_count"`
	WarningsCount     int                `json:"warnings_count"`
	ModerationHistory []MemberModeration `json:"moderation_history"`
}

type MemberModeration struct {
	Action    string     `json:"action"`
	Reason    FlexString `json:"reason"`
	Moderator FlexString `json:"moderator"`
	Timestamp FlexString `json:"timestamp"`
	Duration  FlexString `json:"duration"`
	Icon      string     `json:"icon"`
}
