package models

import (
	"sort"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// ReactionBinding maps one emoji to a role.
type ReactionBinding struct {
	Emoji  string       `json:"emoji"`
	RoleID snowflake.ID `json:"role_id"`
}

type ReactionRole struct {
	MessageID    snowflake.ID      `json:"-"`
	ChannelID    snowflake.ID      `json:"channel_id"`
	GuildID      snowflake.ID      `json:"guild_id"`
	Message      string            `json:"message"`
	Reactions    []ReactionBinding `json:"reactions"`
	Unconfigured bool              `json:"unconfigured,omitempty"`
}

// ReactionRoleList flattens the message-id keyed map, newest message first.
func ReactionRoleList(m map[snowflake.ID]ReactionRole) []ReactionRole {
	out := make([]ReactionRole, 0, len(m))
	for mid, rr := range m {
		rr.MessageID = mid
		out = append(out, rr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID > out[j].MessageID })
	return out
}

// CreatedMessage is returned by endpoints that post a message.
type CreatedMessage struct {
	MessageID snowflake.ID `json:"message_id"`
}

type Welcome struct {
	MessageID       snowflake.ID `json:"-"`
	GuildID         snowflake.ID `json:"guild_id"`
	SourceChannelID snowflake.ID `json:"source_channel_id"`
	TargetChannelID snowflake.ID `json:"target_channel_id"`
	Message         string       `json:"message"`
}

// WelcomeList flattens the message-id keyed map, newest first.
func WelcomeList(m map[snowflake.ID]Welcome) []Welcome {
	out := make([]Welcome, 0, len(m))
	for mid, w := range m {
		w.MessageID = mid
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MessageID > out[j].MessageID })
	return out
}
