package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/permissions"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// Feed sizes used by the dashboard.
const (
	RecentActivityLimit = 5
	ActivityFeedLimit   = 100
	HistoryLimit        = 50
	maxTriggerLength    = 100
)

// DefaultStatsPeriod is the activity stats window in days.
const DefaultStatsPeriod = "30"

// FeedService reads the activity feeds and manages the suspicious message
// filter.
type FeedService struct {
	bot   *botapi.Client
	audit *AuditService
}

// NewFeedService creates a FeedService.
func NewFeedService(bot *botapi.Client, audit *AuditService) *FeedService {
	return &FeedService{bot: bot, audit: audit}
}

// Activity returns the activity feed for filter. Unknown filters fall back
// to "all".
func (s *FeedService) Activity(ctx context.Context, a Actor, filter string, limit int) ([]models.Activity, error) {
	if err := require(a, permissions.PermViewDashboard); err != nil {
		return nil, err
	}
	if !models.ValidActivityFilter(filter) {
		filter = "all"
	}
	if limit <= 0 {
		limit = ActivityFeedLimit
	}
	items, err := botFor(s.bot, a).Activity(ctx, filter, limit)
	if err != nil {
		return nil, fromBot(err)
	}
	if items == nil {
		items = []models.Activity{}
	}
	return items, nil
}

// NormalizePeriod accepts a positive day count or "all".
func NormalizePeriod(p string) string {
	p = strings.TrimSpace(strings.ToLower(p))
	if p == "all" {
		return p
	}
	if n, err := strconv.Atoi(p); err == nil && n > 0 && n <= 3650 {
		return strconv.Itoa(n)
	}
	return DefaultStatsPeriod
}

// StatsView is the activity leaderboard.
type StatsView struct {
	Period string
	Users  []models.RankedUser
}

// ActivityStats ranks the guild's users by messages plus reactions.
func (s *FeedService) ActivityStats(ctx context.Context, a Actor, period string, top int) (*StatsView, error) {
	if err := requireGuild(a, permissions.PermViewDashboard); err != nil {
		return nil, err
	}
	period = NormalizePeriod(period)
	bot := botFor(s.bot, a)

	stats, err := bot.ActivityStats(ctx, a.GuildID, period)
	if err != nil {
		return nil, fromBot(err)
	}
	// Names are a nicety; a missing member list still ranks by id.
	members, _ := bot.Members(ctx, a.GuildID)
	return &StatsView{Period: period, Users: stats.Ranked(members, top)}, nil
}

// SuspiciousConfig returns the guild's filter configuration.
func (s *FeedService) SuspiciousConfig(ctx context.Context, a Actor) (*models.SuspiciousConfig, error) {
	if err := requireGuild(a, permissions.PermReviewSuspicious); err != nil {
		return nil, err
	}
	cfg, err := botFor(s.bot, a).SuspiciousConfig(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	return cfg, nil
}

// SuspiciousMessages returns the flagged messages of the guild.
func (s *FeedService) SuspiciousMessages(ctx context.Context, a Actor) ([]models.SuspiciousMessage, error) {
	if err := requireGuild(a, permissions.PermReviewSuspicious); err != nil {
		return nil, err
	}
	msgs, err := botFor(s.bot, a).SuspiciousMessages(ctx, a.GuildID)
	if err != nil {
		return nil, fromBot(err)
	}
	if msgs == nil {
		msgs = []models.SuspiciousMessage{}
	}
	return msgs, nil
}

func normalizeTrigger(word string) (string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", BadRequest("WORD_REQUIRED", "enter a trigger word")
	}
	if len(word) > maxTriggerLength {
		return "", BadRequest("WORD_TOO_LONG", "trigger word must be at most 100 characters")
	}
	return word, nil
}

// AddTrigger adds a word to the filter.
func (s *FeedService) AddTrigger(ctx context.Context, a Actor, word string) error {
	if err := requireGuild(a, permissions.PermConfigureSuspicious); err != nil {
		return err
	}
	word, err := normalizeTrigger(word)
	if err != nil {
		return err
	}
	if err := botFor(s.bot, a).AddTrigger(ctx, a.GuildID, word); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "suspicious.trigger_add", word, "")
	return nil
}

// RemoveTrigger removes a word from the filter.
func (s *FeedService) RemoveTrigger(ctx context.Context, a Actor, word string) error {
	if err := requireGuild(a, permissions.PermConfigureSuspicious); err != nil {
		return err
	}
	word, err := normalizeTrigger(word)
	if err != nil {
		return err
	}
	if err := botFor(s.bot, a).RemoveTrigger(ctx, a.GuildID, word); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "suspicious.trigger_remove", word, "")
	return nil
}

// AddExcludedChannel stops the filter from scanning a channel.
func (s *FeedService) AddExcludedChannel(ctx context.Context, a Actor, channelID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermConfigureSuspicious); err != nil {
		return err
	}
	if channelID.IsZero() {
		return BadRequest("CHANNEL_REQUIRED", "choose a channel")
	}
	if err := botFor(s.bot, a).AddExcludedChannel(ctx, a.GuildID, channelID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "suspicious.exclude_add", channelID.String(), "")
	return nil
}

// RemoveExcludedChannel makes the filter scan a channel again.
func (s *FeedService) RemoveExcludedChannel(ctx context.Context, a Actor, channelID snowflake.ID) error {
	if err := requireGuild(a, permissions.PermConfigureSuspicious); err != nil {
		return err
	}
	if channelID.IsZero() {
		return BadRequest("CHANNEL_REQUIRED", "choose a channel")
	}
	if err := botFor(s.bot, a).RemoveExcludedChannel(ctx, a.GuildID, channelID); err != nil {
		return fromBot(err)
	}
	s.audit.Record(ctx, a, "suspicious.exclude_remove", channelID.String(), "")
	return nil
}
