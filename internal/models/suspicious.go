package models

import "github.com/WoushouW/woushBOT/internal/snowflake"

type SuspiciousConfig struct {
	Triggers         []string       `json:"triggers"`
	ExcludedChannels []snowflake.ID `json:"excluded_channels"`
	DefaultTriggers  []string       `json:"default_triggers"`
}

// IsExcluded reports whether the channel is skipped by the filter.
func (c *SuspiciousConfig) IsExcluded(id snowflake.ID) bool {
	for _, ch := range c.ExcludedChannels {
		if ch == id {
			return true
		}
	}
	return false
}

type SuspiciousMessage struct {
	UserID      snowflake.ID `json:"user_id"`
	Username    FlexString   `json:"username"`
	Content     FlexString   `json:"content"`
	ChannelName FlexString   `json:"channel_name"`
	Timestamp   FlexString   `json:"timestamp"`
	Avatar      *string      `json:"avatar"`
}
