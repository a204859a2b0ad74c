package api

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

const activeRoomsJSON = `[{
	"channel_id": "77", "room_name": "Study", "owner_id": "12", "owner_name": "bob",
	"duration": 30, "user_limit": 5,
	"created_at": "2099-01-01T00:00:00Z", "expires_at": "2099-01-01T00:30:00Z"
}]`

func roomForm() url.Values {
	return url.Values{
		"room_name":    {"Study"},
		"duration":     {"30"},
		"user_limit":   {"5"},
		"message_text": {"room please"},
		"channel_id":   {"10"},
		"message_id":   {"11"},
		"user_id":      {"12"},
	}
}

func TestCreateTempRoom_RerendersRoomList(t *testing.T) {
	p := newTestPanel(t)
	p.bot.on(http.MethodPost, "/api/guilds/100/temp-rooms", jsonReply(http.StatusOK, `{"channel_id":"77","role_id":"78","room_name":"Study"}`))
	p.bot.on(http.MethodGet, "/api/guilds/100/temp-rooms", jsonReply(http.StatusOK, activeRoomsJSON))
	_, cookie := p.login(t, "room_manager", 100)

	rec := p.do(http.MethodPost, "/temp-rooms", roomForm(), cookie, "temp_room_list")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	calls := p.bot.called(http.MethodPost, "/api/guilds/100/temp-rooms")
	if len(calls) != 1 {
		t.Fatalf("create calls = %d, want 1", len(calls))
	}
	body := calls[0].Body
	if body["room_name"] != "Study" || body["duration_minutes"] != float64(30) || body["user_limit"] != float64(5) || body["user_id"] != "12" {
		t.Errorf("create body = %v", body)
	}
	if got := rec.Header().Get(TargetHeader); got != "temp_room_list" {
		t.Errorf("target = %q", got)
	}
	html := rec.Body.String()
	if !strings.Contains(html, `id="frag-temp_room_list"`) || !strings.Contains(html, "/temp-rooms/77/delete") {
		t.Errorf("unexpected fragment: %s", html)
	}
	if !strings.Contains(toasts(t, rec), "Room Study created for 30 minutes") {
		t.Errorf("toast = %q", toasts(t, rec))
	}
}

func TestCreateTempRoom_Validation(t *testing.T) {
	for name, change := range map[string]func(url.Values){
		"duration too long": func(v url.Values) { v.Set("duration", "91") },
		"no users":          func(v url.Values) { v.Set("user_limit", "0") },
		"name too long":     func(v url.Values) { v.Set("room_name", strings.Repeat("x", 31)) },
		"no request":        func(v url.Values) { v.Del("message_id") },
	} {
		t.Run(name, func(t *testing.T) {
			p := newTestPanel(t)
			_, cookie := p.login(t, "room_manager", 100)
			form := roomForm()
			change(form)

			rec := p.do(http.MethodPost, "/temp-rooms", form, cookie, "temp_room_list")

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if !strings.Contains(toasts(t, rec), "toast-warning") {
				t.Errorf("expected a warning toast, got %q", toasts(t, rec))
			}
			if n := p.bot.count(); n != 0 {
				t.Errorf("bot calls = %d, want 0", n)
			}
		})
	}
}

func TestDeleteTempRoom_Confirmation(t *testing.T) {
	p := newTestPanel(t)
	p.bot.on(http.MethodGet, "/api/guilds/100/temp-rooms", jsonReply(http.StatusOK, `[]`))
	_, cookie := p.login(t, "room_manager", 100)

	rec := p.do(http.MethodPost, "/temp-rooms/77/delete", url.Values{}, cookie, "temp_room_list")
	if rec.Header().Get(ConfirmHeader) == "" {
		t.Fatalf("expected a confirmation dialog, got %d: %s", rec.Code, rec.Body.String())
	}
	if n := p.bot.count(); n != 0 {
		t.Fatalf("bot calls before confirmation = %d", n)
	}

	rec = p.do(http.MethodPost, "/temp-rooms/77/delete", url.Values{"confirmed": {"yes"}}, cookie, "temp_room_list")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if n := len(p.bot.called(http.MethodDelete, "/api/guilds/100/temp-rooms/77")); n != 1 {
		t.Errorf("delete calls = %d, want 1", n)
	}
	if !strings.Contains(rec.Body.String(), "No active rooms.") {
		t.Errorf("expected the emptied room list: %s", rec.Body.String())
	}
}

func TestDestructiveActions_RequireConfirmation(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		form     url.Values
		fragment string
		method   string
		botPath  string
	}{
		{"reaction role", "/reaction-roles/900/delete", url.Values{}, "reaction_role_list", http.MethodDelete, "/api/reaction-roles/900"},
		{"welcome", "/welcomes/901/delete", url.Values{}, "welcome_list", http.MethodDelete, "/api/welcomes/901"},
		{"bulk delete", "/messages/bulk-delete", url.Values{"channel_id": {"555"}, "limit": {"20"}}, "message_list", http.MethodPost, "/api/channels/555/messages/bulk-delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPanel(t)
			_, cookie := p.login(t, "admin", 100)

			rec := p.do(http.MethodPost, tt.path, tt.form, cookie, tt.fragment)
			if rec.Header().Get(ConfirmHeader) == "" {
				t.Fatalf("expected a confirmation dialog, got %d", rec.Code)
			}
			if n := p.bot.count(); n != 0 {
				t.Fatalf("bot calls before confirmation = %d", n)
			}
			for k := range tt.form {
				if !strings.Contains(rec.Body.String(), `name="`+k+`"`) {
					t.Errorf("dialog lost field %s", k)
				}
			}

			confirmed := url.Values{"confirmed": {"yes"}}
			for k, v := range tt.form {
				confirmed[k] = v
			}
			rec = p.do(http.MethodPost, tt.path, confirmed, cookie, tt.fragment)

			if rec.Code != http.StatusOK {
				t.Fatalf("confirmed status = %d: %s", rec.Code, rec.Body.String())
			}
			if n := len(p.bot.called(tt.method, tt.botPath)); n != 1 {
				t.Errorf("%s %s calls = %d, want 1", tt.method, tt.botPath, n)
			}
			if got := rec.Header().Get(TargetHeader); got != tt.fragment {
				t.Errorf("target = %q, want %q", got, tt.fragment)
			}
		})
	}
}
