package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
)

const guildFullJSON = `{
	"guild": {"id": "100", "name": "Woush HQ", "member_count": 3},
	"members": [
		{"id": "1", "username": "alice", "status": "online"},
		{"id": "2", "username": "bob", "status": "offline"},
		{"id": "3", "username": "helper", "bot": true, "status": "online"}
	],
	"channels": [{"id": "10", "name": "general", "type": 0}],
	"roles": []
}`

func TestDashboard_RendersSnapshot(t *testing.T) {
	p := newTestPanel(t)
	p.bot.on(http.MethodGet, "/api/bot/info", jsonReply(http.StatusOK, `{"id":"9","username":"WoushBot","guilds_count":2}`))
	p.bot.on(http.MethodGet, "/api/guilds/100/full", jsonReply(http.StatusOK, guildFullJSON))
	_, cookie := p.login(t, "admin", 100)

	rec := p.do(http.MethodGet, "/dashboard", nil, cookie, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{"WoushBot", `id="frag-stats"`, `id="frag-recent_activity"`} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	// The second load is served from the cached snapshot.
	p.do(http.MethodGet, "/dashboard", nil, cookie, "")
	if n := len(p.bot.called(http.MethodGet, "/api/guilds/100/full")); n != 1 {
		t.Errorf("guild fetched %d times, want 1", n)
	}
}

func TestSelectGuild(t *testing.T) {
	p := newTestPanel(t)
	p.bot.on(http.MethodGet, "/api/guilds/200", jsonReply(http.StatusOK, `{"id":"200","name":"Other"}`))
	sess, cookie := p.login(t, "admin", 100)

	req := url.Values{"guild_id": {"200"}}
	rec := p.doWithReferer(http.MethodPost, "/guild/select", req, cookie, "http://example.com/members")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/members" {
		t.Errorf("Location = %q, want /members", loc)
	}
	guildID, _, err := p.redis.Selection(context.Background(), sess.ID)
	if err != nil || guildID != 200 {
		t.Errorf("selection = %d, %v", guildID, err)
	}
	flashes, _ := p.redis.PopFlashes(context.Background(), sess.ID)
	if len(flashes) != 1 || flashes[0].Message != "Switched to Other" {
		t.Errorf("flashes = %+v", flashes)
	}
}

func TestSelectGuild_UnknownGuild(t *testing.T) {
	p := newTestPanel(t)
	p.bot.on(http.MethodGet, "/api/guilds/300", jsonReply(http.StatusNotFound, `{"error":"not found"}`))
	sess, cookie := p.login(t, "admin", 100)

	rec := p.do(http.MethodPost, "/guild/select", url.Values{"guild_id": {"300"}}, cookie, "")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	guildID, _, _ := p.redis.Selection(context.Background(), sess.ID)
	if guildID != 100 {
		t.Errorf("selection changed to %d", guildID)
	}
	flashes, _ := p.redis.PopFlashes(context.Background(), sess.ID)
	if len(flashes) != 1 || flashes[0].Level != "error" {
		t.Errorf("flashes = %+v", flashes)
	}
}
