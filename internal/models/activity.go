package models

import (
	"sort"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// Activity filters accepted by /api/activity.
var ActivityFilters = []string{"all", "members", "roles", "moderation", "channels", "messages", "system"}

// ValidActivityFilter reports whether f is a known filter.
func ValidActivityFilter(f string) bool {
	for _, v := range ActivityFilters {
		if v == f {
			return true
		}
	}
	return false
}

type Activity struct {
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Description FlexString   `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
	UserID      snowflake.ID `json:"user_id"`
	Username    FlexString   `json:"username"`
	GuildID     snowflake.ID `json:"guild_id"`
	GuildName   FlexString   `json:"guild_name"`
	Time        FlexString   `json:"time"`
}

type ModerationAction struct {
	Action    string       `json:"action"`
	UserID    snowflake.ID `json:"user_id"`
	Username  FlexString   `json:"username"`
	User      FlexString   `json:"user,omitempty"`
	Moderator FlexString   `json:"moderator"`
	Reason    FlexString   `json:"reason"`
	Duration  FlexString   `json:"duration"`
	GuildID   snowflake.ID `json:"guild_id"`
	GuildName FlexString   `json:"guild_name"`
	Time      FlexString   `json:"time"`
	Icon      string       `json:"icon"`
}

// Target returns the affected user's label.
func (a ModerationAction) Target() string {
	if a.Username != "" {
		return a.Username.String()
	}
	if a.User != "" {
		return a.User.String()
	}
	return a.UserID.String()
}

type UserActivity struct {
	Messages  int `json:"messages"`
	Reactions int `json:"reactions"`
}

// ActivityStats is the per-user message/reaction tally for a period.
type ActivityStats struct {
	Users  map[snowflake.ID]UserActivity `json:"users"`
	Period FlexString                    `json:"period"`
}

// RankedUser is one row of the activity leaderboard.
type RankedUser struct {
	UserID snowflake.ID
	Name   string
	UserActivity
}

func (r RankedUser) Total() int { return r.Messages + r.Reactions }

// Ranked returns users by total activity, highest first, limited to n
// (n <= 0 means no limit). Names resolve through the loaded members.
func (s *ActivityStats) Ranked(members []Member, n int) []RankedUser {
	names := make(map[snowflake.ID]string, len(members))
	for _, m := range members {
		names[m.ID] = m.DisplayName()
	}
	out := make([]RankedUser, 0, len(s.Users))
	for uid, a := range s.Users {
		name, ok := names[uid]
		if !ok {
			name = uid.String()
		}
		out = append(out, RankedUser{UserID: uid, Name: name, UserActivity: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total() != out[j].Total() {
			return out[i].Total() > out[j].Total()
		}
		return out[i].UserID < out[j].UserID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
