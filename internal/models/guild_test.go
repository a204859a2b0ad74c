package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/WoushouW/woushBOT/internal/snowflake"
)

func TestComputeStats(t *testing.T) {
	g := GuildFull{
		Members: []Member{
			{ID: 1, Username: "a", Status: "online"},
			{ID: 2, Username: "b", Status: "offline"},
			{ID: 3, Username: "bot", Bot: true, Status: "dnd"},
		},
		Channels: []Channel{
			{ID: 10, Type: ChannelTypeText},
			{ID: 11, Type: ChannelTypeText},
			{ID: 12, Type: ChannelTypeVoice},
			{ID: 13, Type: ChannelTypeCategory},
			{ID: 14, Type: ChannelType(13)},
		},
		Roles: []Role{{ID: 20}},
	}

	s := g.ComputeStats()
	if s.Members != 3 {
		t.Errorf("Members = %d, want 3 (fallback to list length)", s.Members)
	}
	if s.Humans != 2 || s.Bots != 1 {
		t.Errorf("Humans/Bots = %d/%d, want 2/1", s.Humans, s.Bots)
	}
	if s.Online != 2 {
		t.Errorf("Online = %d, want 2", s.Online)
	}
	if s.TextChannels != 2 || s.VoiceChannel != 1 || s.Categories != 1 {
		t.Errorf("unexpected channel counts: %+v", s)
	}

	g.Guild.MemberCount = 250
	if got := g.ComputeStats().Members; got != 250 {
		t.Errorf("Members = %d, want reported 250", got)
	}
}

func TestChannelType_Labels(t *testing.T) {
	if ChannelTypeText.Label() != "text" || ChannelTypeVoice.Label() != "voice" || ChannelTypeCategory.Label() != "category" {
		t.Error("unexpected label for known channel type")
	}
	if ChannelType(5).Label() != "unknown" || ChannelType(5).Valid() {
		t.Error("type 5 should be unknown and invalid for creation")
	}
}

func TestHexColor(t *testing.T) {
	if got := (Role{Color: 0}).HexColor(); got != DefaultRoleColor {
		t.Errorf("got %q, want default", got)
	}
	if got := (Role{Color: 0x5865F2}).HexColor(); got != "#5865f2" {
		t.Errorf("got %q, want #5865f2", got)
	}
}

func TestPunishmentLists(t *testing.T) {
	data := `{
		"mutes": {"5": {"guild_id":"1","reason":"spam","until":"2030-01-01T00:00:00+00:00","start_time":"2024-01-02T00:00:00","moderator":"Admin Panel","member_name":"eve","log_channel_id":null}},
		"bans": {"6": {"guild_id":"1","reason":"raid","start_time":"2024-01-01T00:00:00","user_name":"mallory"}},
		"warnings": {
			"7": {"username":"trent","warnings":[{"reason":"a","time":"t","moderator":"m"}],"count":1},
			"8": {"username":"peggy","warnings":[{"reason":"a"},{"reason":"b"}],"count":2}
		}
	}`
	var p Punishments
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	mutes := p.MuteList()
	if len(mutes) != 1 || mutes[0].UserID != 5 || mutes[0].MemberName != "eve" {
		t.Fatalf("unexpected mutes: %+v", mutes)
	}
	if !mutes[0].Active(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("mute should be active before its until time")
	}

	bans := p.BanList()
	if len(bans) != 1 || bans[0].UserID != 6 {
		t.Fatalf("unexpected bans: %+v", bans)
	}

	warns := p.WarningList()
	if len(warns) != 2 || warns[0].UserID != 8 || warns[0].Total() != 2 {
		t.Fatalf("expected peggy first with 2 warnings, got %+v", warns)
	}
}

func TestActivityStats_Ranked(t *testing.T) {
	s := ActivityStats{Users: map[snowflake.ID]UserActivity{
		1: {Messages: 5, Reactions: 1},
		2: {Messages: 10},
		3: {Reactions: 2},
	}}
	members := []Member{{ID: 2, Username: "bob"}}

	ranked := s.Ranked(members, 2)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(ranked))
	}
	if ranked[0].UserID != 2 || ranked[0].Name != "bob" {
		t.Errorf("expected bob first, got %+v", ranked[0])
	}
	if ranked[1].UserID != 1 || ranked[1].Name != "1" {
		t.Errorf("expected user 1 second with id fallback name, got %+v", ranked[1])
	}
}

func TestSettingsInterval(t *testing.T) {
	if got := (Settings{RefreshInterval: 1}).Interval(); got != 10*time.Second {
		t.Errorf("got %v, want 10s lower bound", got)
	}
	if got := (Settings{RefreshInterval: 99999}).Interval(); got != time.Hour {
		t.Errorf("got %v, want 1h upper bound", got)
	}
	if got := DefaultSettings(time.Minute); got.RefreshInterval != 60 || !got.AutoRefresh {
		t.Errorf("unexpected defaults: %+v", got)
	}
}

func TestFilterMembers(t *testing.T) {
	nick := "Zed"
	members := []Member{
		{ID: 100, Username: "carol"},
		{ID: 200, Username: "alice", Nick: &nick},
		{ID: 300, Username: "bob"},
	}
	got := FilterMembers(members, "")
	if len(got) != 3 || got[0].Username != "bob" || got[2].DisplayName() != "Zed" {
		t.Errorf("unexpected order: %+v", got)
	}
	got = FilterMembers(members, "ZE")
	if len(got) != 1 || got[0].ID != 200 {
		t.Errorf("expected nick match, got %+v", got)
	}
	got = FilterMembers(members, "30")
	if len(got) != 1 || got[0].ID != 300 {
		t.Errorf("expected id match, got %+v", got)
	}
}
