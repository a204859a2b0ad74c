package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/database"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/redis"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

// fakeBot records every request and answers from a route table.
type fakeBot struct {
	mu       sync.Mutex
	requests []recorded
	routes   map[string]http.HandlerFunc
}

type recorded struct {
	Method string
	Path   string
	Body   map[string]any
	Auth   string
}

func newFakeBot(t *testing.T) (*fakeBot, *botapi.Client) {
	t.Helper()
	fb := &fakeBot{routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, botapi.New(srv.URL, 5*time.Second, botapi.WithRetry(0, time.Millisecond))
}

func (f *fakeBot) on(method, path string, h http.HandlerFunc) {
	f.routes[method+" "+path] = h
}

func (f *fakeBot) serve(w http.ResponseWriter, r *http.Request) {
	rec := recorded{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	data, _ := io.ReadAll(r.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	// Route handlers read the body again.
	r.Body = io.NopCloser(bytes.NewReader(data))
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h(w, r)
}

func (f *fakeBot) calls() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func actor(role string) Actor {
	return Actor{
		Session: &models.Session{ID: "sid", Token: "bot-token", Role: role, ExpiresAt: time.Now().Add(time.Hour)},
		GuildID: 100,
	}
}

func newAudit() (*AuditService, *database.MemoryAuditRepository) {
	repo := database.NewMemoryAuditRepository(50)
	return NewAuditService(repo), repo
}

func TestMute_SendsExactParams(t *testing.T) {
	fb, bot := newFakeBot(t)
	audit, repo := newAudit()
	svc := NewModerationService(bot, audit)

	err := svc.Mute(context.Background(), actor("moderator"), ActionInput{UserID: 42, Duration: 600, Reason: " spam "})
	if err != nil {
		t.Fatalf("Mute: %v", err)
	}

	calls := fb.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 request, got %d", len(calls))
	}
	c := calls[0]
	if c.Method != http.MethodPost || c.Path != "/api/guilds/100/members/42/timeout" {
		t.Errorf("request = %s %s", c.Method, c.Path)
	}
	if c.Auth != "Bearer bot-token" {
		t.Errorf("Authorization = %q", c.Auth)
	}
	if c.Body["duration"] != float64(600) || c.Body["reason"] != "spam" {
		t.Errorf("body = %v", c.Body)
	}
	if _, ok := c.Body["log_channel_id"]; ok {
		t.Error("log_channel_id should be omitted when unset")
	}

	entries, _ := repo.List(context.Background(), database.AuditFilter{})
	if len(entries) != 1 || entries[0].Action != "member.mute" || entries[0].TargetID != "42" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestMute_ValidationSkipsBot(t *testing.T) {
	fb, bot := newFakeBot(t)
	audit, _ := newAudit()
	svc := NewModerationService(bot, audit)

	tests := []struct {
		name string
		in   ActionInput
	}{
		{"no user", ActionInput{Duration: 60}},
		{"no duration", ActionInput{UserID: 1}},
		{"negative duration", ActionInput{UserID: 1, Duration: -5}},
		{"too long", ActionInput{UserID: 1, Duration: maxTimeoutSeconds + 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Mute(context.Background(), actor("admin"), tt.in)
			if !IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if n := len(fb.calls()); n != 0 {
		t.Errorf("validation failures must not reach the bot, got %d requests", n)
	}
}

func TestWarn_RequiresReason(t *testing.T) {
	fb, bot := newFakeBot(t)
	audit, _ := newAudit()
	svc := NewModerationService(bot, audit)

	_, err := svc.Warn(context.Background(), actor("admin"), ActionInput{UserID: 5})
	if !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fb.calls()) != 0 {
		t.Error("bot should not be called")
	}
}

func TestWarn_AutoBan(t *testing.T) {
	fb, bot := newFakeBot(t)
	fb.on(http.MethodPost, "/api/guilds/100/members/5/warn", jsonReply(200, `{"warnings":3,"auto_banned":true}`))
	audit, repo := newAudit()
	svc := NewModerationService(bot, audit)

	res, err := svc.Warn(context.Background(), actor("moderator"), ActionInput{UserID: 5, Reason: "flood"})
	if err != nil {
		t.Fatalf("Warn: %v", err)
	}
	if res.Warnings != 3 || !res.AutoBanned {
		t.Errorf("result = %+v", res)
	}
	entries, _ := repo.List(context.Background(), database.AuditFilter{})
	if len(entries) != 1 || entries[0].Detail != "3/3: flood (auto-banned)" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestPermissionDenied(t *testing.T) {
	fb, bot := newFakeBot(t)
	audit, _ := newAudit()
	ch := NewChannelService(bot, audit)

	err := ch.DeleteChannel(context.Background(), actor("moderator"), 7)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("moderator deleting a channel: got %v, want ErrForbidden", err)
	}
	err = NewModerationService(bot, audit).Kick(context.Background(), actor("room_manager"), ActionInput{UserID: 1})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("room manager kicking: got %v, want ErrForbidden", err)
	}
	if len(fb.calls()) != 0 {
		t.Error("denied actions must not reach the bot")
	}
}

func TestNoGuildSelected(t *testing.T) {
	_, bot := newFakeBot(t)
	audit, _ := newAudit()
	a := actor("admin")
	a.GuildID = 0

	_, err := NewModerationService(bot, audit).Punishments(context.Background(), a)
	var se *ServiceError
	if !errors.As(err, &se) || se.Code != "NO_GUILD" {
		t.Errorf("got %v, want NO_GUILD", err)
	}
}

func TestFromBot(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", botapi.ErrUnauthorized, ErrUnauthorized},
		{"not ready", fmt.Errorf("%w: starting", botapi.ErrBotNotReady), ErrUnavailable},
		{"bad request", &botapi.APIError{Status: 400, Message: "bad"}, ErrBadRequest},
		{"not found", &botapi.APIError{Status: 404, Message: "gone"}, ErrNotFound},
		{"server", &botapi.APIError{Status: 500, Message: "boom"}, ErrInternal},
		{"network", errors.New("dial tcp: refused"), ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fromBot(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("fromBot(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
	if fromBot(nil) != nil {
		t.Error("fromBot(nil) should be nil")
	}
}

func TestBackend401Surfaces(t *testing.T) {
	fb, bot := newFakeBot(t)
	fb.on(http.MethodGet, "/api/guilds/100/punishments", jsonReply(401, `{"error":"Unauthorized"}`))
	audit, _ := newAudit()

	_, err := NewModerationService(bot, audit).Punishments(context.Background(), actor("admin"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("got %v, want ErrUnauthorized", err)
	}
}

func TestCreateChannelValidation(t *testing.T) {
	fb, bot := newFakeBot(t)
	fb.on(http.MethodPost, "/api/guilds/100/channels", jsonReply(200, `{"id":"555"}`))
	audit, _ := newAudit()
	svc := NewChannelService(bot, audit)
	ctx := context.Background()

	if _, err := svc.CreateChannel(ctx, actor("admin"), CreateChannelInput{Name: "  ", Type: "0"}); !IsValidation(err) {
		t.Errorf("empty name: %v", err)
	}
	if _, err := svc.CreateChannel(ctx, actor("admin"), CreateChannelInput{Name: "x", Type: "5"}); !IsValidation(err) {
		t.Errorf("type 5: %v", err)
	}
	if len(fb.calls()) != 0 {
		t.Fatal("invalid forms must not reach the bot")
	}

	id, err := svc.CreateChannel(ctx, actor("admin"), CreateChannelInput{Name: "lobby", Type: "2", Topic: "ignored"})
	if err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if id != 555 {
		t.Errorf("id = %d", id)
	}
	body := fb.calls()[0].Body
	if body["name"] != "lobby" || body["type"] != float64(2) {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["topic"]; ok {
		t.Error("voice channels carry no topic")
	}
}

func TestBulkDeleteBounds(t *testing.T) {
	fb, bot := newFakeBot(t)
	audit, _ := newAudit()
	svc := NewChannelService(bot, audit)

	for _, n := range []int{0, 101} {
		if _, err := svc.BulkDelete(context.Background(), actor("admin"), 9, n); !IsValidation(err) {
			t.Errorf("limit %d: %v", n, err)
		}
	}
	if len(fb.calls()) != 0 {
		t.Error("out of range limits must not reach the bot")
	}
}

func TestSendMessageEmbed(t *testing.T) {
	fb, bot := newFakeBot(t)
	fb.on(http.MethodPost, "/api/channels/9/messages", jsonReply(200, `{"id":"77"}`))
	audit, _ := newAudit()
	svc := NewChannelService(bot, audit)

	_, err := svc.SendMessage(context.Background(), actor("moderator"), 9, SendMessageInput{
		EmbedTitle: "Rules", EmbedDescription: "Be nice", EmbedColor: "#5865F2",
	})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	embed, ok := fb.calls()[0].Body["embed"].(map[string]any)
	if !ok {
		t.Fatalf("body = %v", fb.calls()[0].Body)
	}
	if embed["title"] != "Rules" || embed["color"] != float64(0x5865F2) {
		t.Errorf("embed = %v", embed)
	}

	if _, err := svc.SendMessage(context.Background(), actor("moderator"), 9, SendMessageInput{EmbedTitle: "x", EmbedColor: "zz"}); !IsValidation(err) {
		t.Errorf("bad colour: %v", err)
	}
	if _, err := svc.SendMessage(context.Background(), actor("moderator"), 9, SendMessageInput{}); !IsValidation(err) {
		t.Errorf("empty message: %v", err)
	}
}

func TestBindings(t *testing.T) {
	got := Bindings([]string{"✅", "", "🎮", "🔥"}, []snowflake.ID{1, 2, 0})
	if len(got) != 1 || got[0].Emoji != "✅" || got[0].RoleID != 1 {
		t.Errorf("Bindings = %+v", got)
	}
}

func TestCreateReactionRole(t *testing.T) {
	fb, bot := newFakeBot(t)
	fb.on(http.MethodPost, "/api/guilds/100/reaction-roles", jsonReply(200, `{"message_id":"900"}`))
	audit, _ := newAudit()
	svc := NewReactionRoleService(bot, audit)
	ctx := context.Background()

	if _, err := svc.Create(ctx, actor("admin"), ReactionRoleInput{ChannelID: 3, Message: "pick"}); !IsValidation(err) {
		t.Errorf("no reactions: %v", err)
	}
	dup := []models.ReactionBinding{{Emoji: "a", RoleID: 1}, {Emoji: "a", RoleID: 2}}
	if _, err := svc.Create(ctx, actor("admin"), ReactionRoleInput{ChannelID: 3, Message: "pick", Reactions: dup}); !IsValidation(err) {
		t.Errorf("duplicate emoji: %v", err)
	}

	id, err := svc.Create(ctx, actor("admin"), ReactionRoleInput{
		ChannelID: 3, Message: "pick", Reactions: []models.ReactionBinding{{Emoji: "a", RoleID: 1}},
	})
	if err != nil || id != 900 {
		t.Fatalf("Create = %d, %v", id, err)
	}
	body := fb.calls()[0].Body
	if body["channel_id"] != "3" || body["message"] != "pick" {
		t.Errorf("body = %v", body)
	}
}

func TestValidateTempRoom(t *testing.T) {
	valid := func() models.TempRoomRequest {
		return models.TempRoomRequest{RoomName: "Squad", DurationMinutes: 60, UserLimit: 5, MessageID: 1, UserID: 2, ChannelID: 3}
	}
	if r := valid(); ValidateTempRoom(&r) != nil {
		t.Fatal("valid request rejected")
	}

	tests := []struct {
		name   string
		mutate func(*models.TempRoomRequest)
	}{
		{"empty name", func(r *models.TempRoomRequest) { r.RoomName = " " }},
		{"long name", func(r *models.TempRoomRequest) { r.RoomName = "abcdefghijklmnopqrstuvwxyz12345" }},
		{"zero duration", func(r *models.TempRoomRequest) { r.DurationMinutes = 0 }},
		{"long duration", func(r *models.TempRoomRequest) { r.DurationMinutes = 91 }},
		{"zero limit", func(r *models.TempRoomRequest) { r.UserLimit = 0 }},
		{"big limit", func(r *models.TempRoomRequest) { r.UserLimit = 51 }},
		{"no message", func(r *models.TempRoomRequest) { r.MessageID = 0 }},
		{"no user", func(r *models.TempRoomRequest) { r.UserID = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(&r)
			if err := ValidateTempRoom(&r); !IsValidation(err) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestNormalizePeriod(t *testing.T) {
	cases := map[string]string{"": "30", "7": "7", "all": "all", "ALL": "all", "-1": "30", "abc": "30"}
	for in, want := range cases {
		if got := NormalizePeriod(in); got != want {
			t.Errorf("NormalizePeriod(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRemoveTriggerNormalizes(t *testing.T) {
	fb, bot := newFakeBot(t)
	audit, _ := newAudit()
	svc := NewFeedService(bot, audit)

	if err := svc.RemoveTrigger(context.Background(), actor("admin"), "  Scam "); err != nil {
		t.Fatalf("RemoveTrigger: %v", err)
	}
	if p := fb.calls()[0].Path; p != "/api/guilds/100/suspicious-config/triggers/scam" {
		t.Errorf("path = %s", p)
	}
	if err := svc.AddTrigger(context.Background(), actor("admin"), ""); !IsValidation(err) {
		t.Errorf("empty word: %v", err)
	}
}

func newSessionService(t *testing.T, bot *botapi.Client) (*SessionService, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := redis.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return NewSessionService(bot, rc, time.Hour, time.Minute), rc
}

func TestLogin(t *testing.T) {
	fb, bot := newFakeBot(t)
	fb.on(http.MethodPost, "/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["pin"] != "1234" {
			jsonReply(401, `{"success":false,"error":"Invalid PIN"}`)(w, r)
			return
		}
		jsonReply(200, `{"success":true,"token":"tok","role":"moderator"}`)(w, r)
	})
	svc, rc := newSessionService(t, bot)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "0000"); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong PIN: %v", err)
	}
	if _, err := svc.Login(ctx, " "); !IsValidation(err) {
		t.Errorf("empty PIN: %v", err)
	}

	sess, err := svc.Login(ctx, "1234")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token != "tok" || sess.Role != "moderator" || sess.ID == "" {
		t.Errorf("session = %+v", sess)
	}
	stored, err := rc.GetSession(ctx, sess.ID)
	if err != nil || stored.Token != "tok" {
		t.Errorf("stored session = %+v, %v", stored, err)
	}
	if s := svc.Settings(ctx, sess); !s.AutoRefresh || s.RefreshInterval != 60 {
		t.Errorf("default settings = %+v", s)
	}
}

func TestLogin_UnknownRole(t *testing.T) {
	fb, bot := newFakeBot(t)
	fb.on(http.MethodPost, "/api/auth/login", jsonReply(200, `{"success":true,"token":"tok","role":"guest"}`))
	svc, _ := newSessionService(t, bot)

	if _, err := svc.Login(context.Background(), "1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
}

func TestSaveSettingsBounds(t *testing.T) {
	_, bot := newFakeBot(t)
	svc, _ := newSessionService(t, bot)
	sess := &models.Session{ID: "s", ExpiresAt: time.Now().Add(time.Hour)}
	ctx := context.Background()

	for _, n := range []int{9, 3601} {
		if err := svc.SaveSettings(ctx, sess, models.Settings{RefreshInterval: n}); !IsValidation(err) {
			t.Errorf("interval %d: %v", n, err)
		}
	}
	want := models.Settings{AutoRefresh: false, Notifications: true, RefreshInterval: 30}
	if err := svc.SaveSettings(ctx, sess, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if got := svc.Settings(ctx, sess); got != want {
		t.Errorf("Settings = %+v, want %+v", got, want)
	}
}

func TestAuditList_RequiresAdmin(t *testing.T) {
	audit, _ := newAudit()
	if _, err := audit.List(context.Background(), actor("moderator"), "", 10, 0); !errors.Is(err, ErrForbidden) {
		t.Errorf("got %v, want ErrForbidden", err)
	}
	audit.Record(context.Background(), actor("admin"), "role.delete", "1", "")
	page, err := audit.List(context.Background(), actor("admin"), "", 10, 0)
	if err != nil || page.Total != 1 {
		t.Errorf("page = %+v, %v", page, err)
	}
}
