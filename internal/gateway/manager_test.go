package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/auth"
	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/state"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func testSession(id string) *models.Session {
	now := time.Now()
	return &models.Session{ID: id, Token: "bot-token", Role: "admin", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
}

// startServer serves /ws for sess through the real handler.
func startServer(t *testing.T, m *Manager, sess *models.Session) string {
	t.Helper()
	e := echo.New()
	e.GET("/ws", m.HandleWebSocket, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth.SetSession(c, sess)
			return next(c)
		}
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

// tab is a test browser tab. A single goroutine owns reads so waiting for
// silence never leaves a deadline on the connection.
type tab struct {
	*websocket.Conn
	payloads chan Payload
	readErr  chan error
}

// dial connects and consumes HELLO, which is sent after registration.
func dial(t *testing.T, url string) *tab {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	tb := &tab{Conn: ws, payloads: make(chan Payload, 16), readErr: make(chan error, 1)}
	go func() {
		for {
			var p Payload
			if err := ws.ReadJSON(&p); err != nil {
				tb.readErr <- err
				close(tb.payloads)
				return
			}
			tb.payloads <- p
		}
	}()

	p := readPayload(t, tb)
	if p.Event != EventHello {
		t.Fatalf("first event = %q, want HELLO", p.Event)
	}
	return tb
}

func readPayload(t *testing.T, tb *tab) Payload {
	t.Helper()
	select {
	case p, ok := <-tb.payloads:
		if !ok {
			t.Fatalf("reading payload: %v", <-tb.readErr)
		}
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("reading payload: timed out")
	}
	return Payload{}
}

func expectSilence(t *testing.T, tb *tab) {
	t.Helper()
	select {
	case p, ok := <-tb.payloads:
		if !ok {
			t.Fatalf("connection closed: %v", <-tb.readErr)
		}
		t.Fatalf("unexpected payload %q", p.Event)
	case <-time.After(150 * time.Millisecond):
	}
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	settings models.Settings
	logouts  []string
}

func newFakeSessions(sess ...*models.Session) *fakeSessions {
	f := &fakeSessions{sessions: map[string]*models.Session{}, settings: models.DefaultSettings(time.Minute)}
	for _, s := range sess {
		f.sessions[s.ID] = s
	}
	return f
}

func (f *fakeSessions) Lookup(_ context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, service.Unauthorized("SESSION_EXPIRED", "expired")
	}
	return s, nil
}

func (f *fakeSessions) Settings(context.Context, *models.Session) models.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeSessions) Logout(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	f.logouts = append(f.logouts, id)
	return nil
}

type fakeSnaps struct {
	calls atomic.Int32
	err   error
	snap  *state.Snapshot
}

func (f *fakeSnaps) Refresh(context.Context, *models.Session) (*state.Snapshot, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type fakeActivity struct{}

func (fakeActivity) Activity(context.Context, service.Actor, string, int) ([]models.Activity, error) {
	return []models.Activity{{Type: "members", Title: "Member joined", Description: "carol joined"}}, nil
}

func guildSnapshot(members int) *state.Snapshot {
	return &state.Snapshot{
		Bot:       &models.BotInfo{Username: "woush"},
		Guild:     &models.GuildFull{Guild: models.Guild{ID: 100, Name: "Guild"}},
		Stats:     models.Stats{Members: members, Humans: members},
		FetchedAt: time.Now(),
	}
}

func newTestPoller(t *testing.T, m *Manager, sessions *fakeSessions, snaps *fakeSnaps) *Poller {
	t.Helper()
	r, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return NewPoller(m, sessions, snaps, fakeActivity{}, r, nil, PollerConfig{Tick: time.Second})
}

// ---------------------------------------------------------------------------
// Manager
// ---------------------------------------------------------------------------

func TestManager_RegistersAndForgetsConnections(t *testing.T) {
	m := NewManager()
	sess := testSession("s1")
	url := startServer(t, m, sess)

	a := dial(t, url)
	_ = dial(t, url)
	if n := m.Count("s1"); n != 2 {
		t.Fatalf("Count = %d, want 2 tabs", n)
	}
	if got := m.Sessions(); len(got) != 1 || got[0] != "s1" {
		t.Fatalf("Sessions = %v", got)
	}

	a.Close()
	deadline := time.Now().Add(2 * time.Second)
	for m.Count("s1") != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("closed tab still registered, Count = %d", m.Count("s1"))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestManager_SendToUnknownSessionIsNoop(t *testing.T) {
	m := NewManager()
	if n := m.SendToSession("nobody", Payload{Event: EventStateUpdate}); n != 0 {
		t.Errorf("SendToSession = %d, want 0", n)
	}
	m.RequestRefresh("nobody")
	if m.takeRefresh("nobody") {
		t.Error("refresh recorded for a session without connections")
	}
}

func TestManager_ExpireClosesWithCode(t *testing.T) {
	m := NewManager()
	url := startServer(t, m, testSession("s1"))
	ws := dial(t, url)

	m.Expire("s1")

	if p := readPayload(t, ws); p.Event != EventSessionExpired {
		t.Fatalf("event = %q, want SESSION_EXPIRED", p.Event)
	}
	var err error
	select {
	case err = <-ws.readErr:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not closed")
	}
	if !websocket.IsCloseError(err, CloseSessionExpired) {
		t.Fatalf("close error = %v, want code %d", err, CloseSessionExpired)
	}
	if m.Count("s1") != 0 {
		t.Error("expired session still registered")
	}
}

func TestManager_ClientRefreshRequest(t *testing.T) {
	m := NewManager()
	url := startServer(t, m, testSession("s1"))
	ws := dial(t, url)
	m.takeRefresh("s1") // the one queued on connect

	if err := ws.WriteJSON(Payload{Event: EventRefresh}); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for !m.takeRefresh("s1") {
		if time.Now().After(deadline) {
			t.Fatal("REFRESH from the client was not recorded")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSameOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://panel.example", true},
		{"https://evil.example", false},
		{"::not a url", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://panel.example/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := sameOrigin(r); got != tt.want {
			t.Errorf("sameOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// Poller
// ---------------------------------------------------------------------------

func TestPoller_PushesRenderedFragments(t *testing.T) {
	m := NewManager()
	sess := testSession("s1")
	ws := dial(t, startServer(t, m, sess))

	snaps := &fakeSnaps{snap: guildSnapshot(42)}
	p := newTestPoller(t, m, newFakeSessions(sess), snaps)
	p.Tick(context.Background())

	got := readPayload(t, ws)
	if got.Event != EventStateUpdate {
		t.Fatalf("event = %q, want STATE_UPDATE", got.Event)
	}
	stats := got.Fragments["stats"]
	if !strings.Contains(stats, `id="frag-stats"`) || !strings.Contains(stats, ">42<") {
		t.Errorf("stats fragment = %s", stats)
	}
	if !strings.Contains(got.Fragments["recent_activity"], "carol joined") {
		t.Errorf("recent_activity fragment = %s", got.Fragments["recent_activity"])
	}
}

func TestPoller_HonoursInterval(t *testing.T) {
	m := NewManager()
	sess := testSession("s1")
	ws := dial(t, startServer(t, m, sess))

	now := time.Now()
	snaps := &fakeSnaps{snap: guildSnapshot(1)}
	p := newTestPoller(t, m, newFakeSessions(sess), snaps)
	p.now = func() time.Time { return now }

	p.Tick(context.Background())
	readPayload(t, ws)

	now = now.Add(30 * time.Second)
	p.Tick(context.Background())
	expectSilence(t, ws)
	if n := snaps.calls.Load(); n != 1 {
		t.Fatalf("refreshes inside the interval = %d, want 1", n)
	}

	now = now.Add(31 * time.Second)
	p.Tick(context.Background())
	readPayload(t, ws)
	if n := snaps.calls.Load(); n != 2 {
		t.Fatalf("refreshes after the interval = %d, want 2", n)
	}
}

func TestPoller_AutoRefreshOff(t *testing.T) {
	m := NewManager()
	sess := testSession("s1")
	ws := dial(t, startServer(t, m, sess))

	sessions := newFakeSessions(sess)
	sessions.settings.AutoRefresh = false
	snaps := &fakeSnaps{snap: guildSnapshot(1)}
	p := newTestPoller(t, m, sessions, snaps)

	// A new tab gets one update even with auto refresh off.
	p.Tick(context.Background())
	readPayload(t, ws)

	// Past the 60s interval, well inside the session lifetime.
	p.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	p.Tick(context.Background())
	expectSilence(t, ws)
	if n := snaps.calls.Load(); n != 1 {
		t.Errorf("refreshes = %d, want 1", n)
	}
}

func TestPoller_NotifiesNewMembers(t *testing.T) {
	m := NewManager()
	sess := testSession("s1")
	ws := dial(t, startServer(t, m, sess))

	snaps := &fakeSnaps{snap: guildSnapshot(10)}
	p := newTestPoller(t, m, newFakeSessions(sess), snaps)
	now := time.Now()
	p.now = func() time.Time { return now }

	p.Tick(context.Background())
	if got := readPayload(t, ws); got.Notice != "" {
		t.Errorf("first update notice = %q, want none", got.Notice)
	}

	snaps.snap = guildSnapshot(12)
	now = now.Add(2 * time.Minute)
	p.Tick(context.Background())
	if got := readPayload(t, ws); got.Notice != "2 new members joined" {
		t.Errorf("notice = %q", got.Notice)
	}
}

func TestPoller_ExpiredSessionIsLoggedOut(t *testing.T) {
	m := NewManager()
	sess := testSession("s1")
	sess.ExpiresAt = time.Now().Add(-time.Minute)
	ws := dial(t, startServer(t, m, sess))

	sessions := newFakeSessions(sess)
	snaps := &fakeSnaps{snap: guildSnapshot(1)}
	p := newTestPoller(t, m, sessions, snaps)
	p.Tick(context.Background())

	if got := readPayload(t, ws); got.Event != EventSessionExpired {
		t.Fatalf("event = %q, want SESSION_EXPIRED", got.Event)
	}
	if snaps.calls.Load() != 0 {
		t.Error("refresh ran for an expired session")
	}
	if len(sessions.logouts) != 1 || sessions.logouts[0] != "s1" {
		t.Errorf("logouts = %v", sessions.logouts)
	}
}

func TestPoller_BotUnauthorizedEndsSession(t *testing.T) {
	m := NewManager()
	sess := testSession("s1")
	ws := dial(t, startServer(t, m, sess))

	sessions := newFakeSessions(sess)
	p := newTestPoller(t, m, sessions, &fakeSnaps{err: botapi.ErrUnauthorized})
	p.Tick(context.Background())

	if got := readPayload(t, ws); got.Event != EventSessionExpired {
		t.Fatalf("event = %q, want SESSION_EXPIRED", got.Event)
	}
	if len(sessions.logouts) != 1 {
		t.Errorf("logouts = %v", sessions.logouts)
	}
}

func TestPoller_FailuresKeepPreviousRender(t *testing.T) {
	for name, err := range map[string]error{
		"bot down":   botapi.ErrBotNotReady,
		"superseded": state.ErrSuperseded,
		"no guild":   state.ErrNoGuildSelected,
		"other":      errors.New("boom"),
	} {
		t.Run(name, func(t *testing.T) {
			m := NewManager()
			sess := testSession("s1")
			ws := dial(t, startServer(t, m, sess))

			sessions := newFakeSessions(sess)
			p := newTestPoller(t, m, sessions, &fakeSnaps{err: err})
			p.Tick(context.Background())

			expectSilence(t, ws)
			if len(sessions.logouts) != 0 {
				t.Errorf("session logged out on %v", err)
			}
			if m.Count("s1") != 1 {
				t.Error("connection dropped")
			}
		})
	}
}

type countingPruner struct {
	days atomic.Int32
}

func (c *countingPruner) Prune(_ context.Context, days int) (int64, error) {
	c.days.Store(int32(days))
	return 3, nil
}

func TestPoller_Prune(t *testing.T) {
	pr := &countingPruner{}
	p := NewPoller(NewManager(), newFakeSessions(), &fakeSnaps{}, nil, nil, pr, PollerConfig{RetentionDays: 90})
	p.prune()
	if pr.days.Load() != 90 {
		t.Errorf("pruned with %d days, want 90", pr.days.Load())
	}
}

func TestPoller_StartStop(t *testing.T) {
	p := NewPoller(NewManager(), newFakeSessions(), &fakeSnaps{}, nil, nil, &countingPruner{}, PollerConfig{Tick: time.Hour, RetentionDays: 30})
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if n := len(p.cron.Entries()); n != 2 {
		t.Errorf("scheduled %d jobs, want poll and prune", n)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)
}
