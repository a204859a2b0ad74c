package models

import (
	"sort"

	"github.com/bwmarrin/discordgo"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// ChannelType is the Discord channel type code.
type ChannelType int

const (
	ChannelTypeText     = ChannelType(discordgo.ChannelTypeGuildText)
	ChannelTypeVoice    = ChannelType(discordgo.ChannelTypeGuildVoice)
	ChannelTypeCategory = ChannelType(discordgo.ChannelTypeGuildCategory)
)

// Valid reports whether the panel can create a channel of this type.
func (t ChannelType) Valid() bool {
	return t == ChannelTypeText || t == ChannelTypeVoice || t == ChannelTypeCategory
}

func (t ChannelType) Label() string {
	switch t {
	case ChannelTypeText:
		return "text"
	case ChannelTypeVoice:
		return "voice"
	case ChannelTypeCategory:
		return "category"
	default:
		return "unknown"
	}
}

func (t ChannelType) Icon() string {
	switch t {
	case ChannelTypeText:
		return "fas fa-hashtag"
	case ChannelTypeVoice:
		return "fas fa-volume-up"
	case ChannelTypeCategory:
		return "fas fa-folder"
	default:
		return "fas fa-question"
	}
}

type Channel struct {
	ID         snowflake.ID `json:"id"`
	Name       string       `json:"name"`
	Type       ChannelType  `json:"type"`
	Position   int          `json:"position"`
	Topic      *string      `json:"topic"`
	CategoryID snowflake.ID `json:"category_id"`
}

// FilterChannels returns the channels of type t, sorted by position.
func FilterChannels(channels []Channel, t ChannelType) []Channel {
	out := make([]Channel, 0, len(channels))
	for _, c := range channels {
		if c.Type == t {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// CategoryGroup is a category with its child channels.
type CategoryGroup struct {
	Category Channel
	Channels []Channel
}

// ChannelTree groups channels under their categories, both in position order.
type ChannelTree struct {
	Uncategorized []Channel
	Categories    []CategoryGroup
}

func BuildChannelTree(channels []Channel) ChannelTree {
	var tree ChannelTree
	index := map[snowflake.ID]int{}
	for _, c := range FilterChannels(channels, ChannelTypeCategory) {
		index[c.ID] = len(tree.Categories)
		tree.Categories = append(tree.Categories, CategoryGroup{Category: c})
	}

	sorted := make([]Channel, len(channels))
	copy(sorted, channels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	for _, c := range sorted {
		if c.Type == ChannelTypeCategory {
			continue
		}
		if i, ok := index[c.CategoryID]; ok && !c.CategoryID.IsZero() {
			tree.Categories[i].Channels = append(tree.Categories[i].Channels, c)
			continue
		}
		tree.Uncategorized = append(tree.Uncategorized, c)
	}
	return tree
}
