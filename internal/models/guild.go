package models

import "github.com/WoushouW/woushBOT/internal/snowflake"

// BotInfo is the bot account summary from /api/bot/info.
type BotInfo struct {
	ID            snowflake.ID `json:"id"`
	Username      string       `json:"username"`
	Discriminator string       `json:"discriminator"`
	Avatar        *string      `json:"avatar"`
	GuildsCount   int          `json:"guilds_count"`
	Uptime        *string      `json:"uptime"`
}

type Guild struct {
	ID          snowflake.ID `json:"id"`
	Name        string       `json:"name"`
	Icon        *string      `json:"icon"`
	MemberCount int          `json:"member_count"`
}

// GuildFull is the combined guild payload from /api/guilds/:id/full.
type GuildFull struct {
	Guild    Guild     `json:"guild"`
	Members  []Member  `json:"members"`
	Channels []Channel `json:"channels"`
	Roles    []Role    `json:"roles"`
}

// Stats summarises a guild for the dashboard cards.
type Stats struct {
	Members      int
	Humans       int
	Bots         int
	Online       int
	TextChannels int
	VoiceChannel int
	Categories   int
	Roles        int
}

// ComputeStats derives dashboard counters. The member total falls back to
// the loaded member list when the guild reports none.
func (g *GuildFull) ComputeStats() Stats {
	s := Stats{Members: g.Guild.MemberCount, Roles: len(g.Roles)}
	if s.Members == 0 {
		s.Members = len(g.Members)
	}
	for _, m := range g.Members {
		if m.Bot {
			s.Bots++
		} else {
			s.Humans++
		}
		if m.IsOnline() {
			s.Online++
		}
	}
	for _, c := range g.Channels {
		switch c.Type {
		case ChannelTypeText:
			s.TextChannels++
		case ChannelTypeVoice:
			s.VoiceChannel++
		case ChannelTypeCategory:
			s.Categories++
		}
	}
	return s
}

// RoleByID returns the role with the given id, if loaded.
func (g *GuildFull) RoleByID(id snowflake.ID) (Role, bool) {
	for _, r := range g.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

// MemberByID returns the member with the given id, if loaded.
func (g *GuildFull) MemberByID(id snowflake.ID) (Member, bool) {
	for _, m := range g.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// ChannelByID returns the channel with the given id, if loaded.
func (g *GuildFull) ChannelByID(id snowflake.ID) (Channel, bool) {
	for _, c := range g.Channels {
		if c.ID == id {
			return c, true
		}
	}
	return Channel{}, false
}

// TextChannels returns the text channels in position order.
func (g *GuildFull) TextChannels() []Channel {
	return FilterChannels(g.Channels, ChannelTypeText)
}
