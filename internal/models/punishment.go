package models

import (
	"sort"
	"time"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// AutoBanWarnings is the warning count at which the bot bans automatically.
const AutoBanWarnings = 3

type Mute struct {
	UserID       snowflake.ID `json:"-"`
	GuildID      snowflake.ID `json:"guild_id"`
	Reason       string       `json:"reason"`
	Until        Timestamp    `json:"until"`
	StartTime    Timestamp    `json:"start_time"`
	Moderator    string       `json:"moderator"`
	MemberName   string       `json:"member_name"`
	LogChannelID snowflake.ID `json:"log_channel_id"`
}

// Active reports whether the mute has not yet run out at now.
func (m Mute) Active(now time.Time) bool {
	return m.Until.IsZero() || m.Until.After(now)
}

type Ban struct {
	UserID       snowflake.ID `json:"-"`
	GuildID      snowflake.ID `json:"guild_id"`
	Reason       string       `json:"reason"`
	StartTime    Timestamp    `json:"start_time"`
	Until        Timestamp    `json:"until"`
	Moderator    string       `json:"moderator"`
	UserName     string       `json:"user_name"`
	LogChannelID snowflake.ID `json:"log_channel_id"`
}

type Warning struct {
	Reason    FlexString `json:"reason"`
	Time      FlexString `json:"time"`
	Moderator FlexString `json:"moderator"`
}

type WarningSet struct {
	UserID   snowflake.ID `json:"-"`
	Username FlexString   `json:"username"`
	Warnings []Warning    `json:"warnings"`
	Count    int          `json:"count"`
}

// Total returns the warning count, falling back to the list length.
func (w WarningSet) Total() int {
	if w.Count > 0 {
		return w.Count
	}
	return len(w.Warnings)
}

// Punishments is the /api/guilds/:id/punishments payload, keyed by user id.
type Punishments struct {
	Mutes    map[snowflake.ID]Mute       `json:"mutes"`
	Bans     map[snowflake.ID]Ban        `json:"bans"`
	Warnings map[snowflake.ID]WarningSet `json:"warnings"`
}

// MuteList returns mutes newest first, with UserID filled in.
func (p *Punishments) MuteList() []Mute {
	out := make([]Mute, 0, len(p.Mutes))
	for uid, m := range p.Mutes {
		m.UserID = uid
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime.Time) {
			return out[i].StartTime.After(out[j].StartTime.Time)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// BanList returns bans newest first, with UserID filled in.
func (p *Punishments) BanList() []Ban {
	out := make([]Ban, 0, len(p.Bans))
	for uid, b := range p.Bans {
		b.UserID = uid
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime.Time) {
			return out[i].StartTime.After(out[j].StartTime.Time)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// WarningList returns warning sets with the most warnings first.
func (p *Punishments) WarningList() []WarningSet {
	out := make([]WarningSet, 0, len(p.Warnings))
	for uid, w := range p.Warnings {
		w.UserID = uid
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total() != out[j].Total() {
			return out[i].Total() > out[j].Total()
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// WarnResult is returned by the warn endpoint.
type WarnResult struct {
	Warnings   int  `json:"warnings"`
	AutoBanned bool `json:"auto_banned"`
}

// WarningCount is returned by GET .../warnings.
type WarningCount struct {
	Warnings int `json:"warnings"`
}
