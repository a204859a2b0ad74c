package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/WoushouW/woushBOT/internal/auth"
	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/database"
	"github.com/WoushouW/woushBOT/internal/gateway"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/redis"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/snowflake"
	"github.com/WoushouW/woushBOT/internal/state"
)

// ---------------------------------------------------------------------------
// Fake bot API
// ---------------------------------------------------------------------------

type botCall struct {
	Method string
	Path   string
	Body   map[string]any
}

// fakeBot records every request and answers from a route table. Unknown
// routes get 204.
type fakeBot struct {
	mu     sync.Mutex
	calls  []botCall
	routes map[string]http.HandlerFunc
}

func (f *fakeBot) on(method, path string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = h
}

func (f *fakeBot) serve(w http.ResponseWriter, r *http.Request) {
	call := botCall{Method: r.Method, Path: r.URL.Path}
	data, _ := io.ReadAll(r.Body)
	if len(data) > 0 {
		_ = json.Unmarshal(data, &call.Body)
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	f.mu.Lock()
	f.calls = append(f.calls, call)
	h, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h(w, r)
}

// called returns the recorded calls matching method and path.
func (f *fakeBot) called(method, path string) []botCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []botCall
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeBot) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func jsonReply(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

// ---------------------------------------------------------------------------
// Test panel
// ---------------------------------------------------------------------------

type testPanel struct {
	e       *echo.Echo
	bot     *fakeBot
	redis   *redis.Client
	mr      *miniredis.Miniredis
	tokens  *auth.TokenService
	state   *state.Refresher
	auditDB *database.MemoryAuditRepository
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := redis.NewClient("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("creating test redis client: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

func newTestPanel(t *testing.T) *testPanel {
	t.Helper()

	fb := &fakeBot{routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	bot := botapi.New(srv.URL, 5*time.Second, botapi.WithRetry(0, time.Millisecond))

	rc, mr := newTestRedis(t)
	auditDB := database.NewMemoryAuditRepository(100)
	audit := service.NewAuditService(auditDB)

	sessions := service.NewSessionService(bot, rc, time.Hour, 30*time.Second)
	refresher := state.NewRefresher(bot, rc, time.Minute, time.Hour)
	guilds := service.NewGuildService(bot, audit)
	channels := service.NewChannelService(bot, audit)
	moderation := service.NewModerationService(bot, audit)
	reactions := service.NewReactionRoleService(bot, audit)
	rooms := service.NewTempRoomService(bot, audit)
	feeds := service.NewFeedService(bot, audit)

	renderer, err := render.New()
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	tokens := auth.NewTokenService("test-secret")
	guard := auth.NewGuard(tokens, rc, false)
	views := NewViews(sessions, refresher, guilds, guard, renderer)

	e := echo.New()
	e.Renderer = renderer
	SetupRouter(e, &Dependencies{
		Views:      views,
		Auth:       NewAuthHandler(views, sessions, guard),
		Guilds:     NewGuildHandler(views, guilds, feeds, refresher),
		Members:    NewMemberHandler(views, guilds, moderation),
		Roles:      NewRoleHandler(views, guilds),
		Channels:   NewChannelHandler(views, channels),
		Messages:   NewMessageHandler(views, channels),
		Moderation: NewModerationHandler(views, moderation, guilds, channels),
		Reactions:  NewReactionHandler(views, reactions, guilds, channels),
		TempRooms:  NewTempRoomHandler(views, rooms, channels),
		Feeds:      NewFeedHandler(views, feeds, channels, audit),
		Gateway:    gateway.NewManager(),
		Guard:      guard,
		Redis:      rc,
	})

	return &testPanel{e: e, bot: fb, redis: rc, mr: mr, tokens: tokens, state: refresher, auditDB: auditDB}
}

// login stores a session for role with guildID selected (0 for none) and
// returns its cookie.
func (p *testPanel) login(t *testing.T, role string, guildID snowflake.ID) (*models.Session, *http.Cookie) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	sess := &models.Session{
		ID:        uuid.NewString(),
		Token:     "bot-token",
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	if err := p.redis.SaveSession(ctx, sess); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if !guildID.IsZero() {
		if _, err := p.state.Select(ctx, sess, guildID); err != nil {
			t.Fatalf("Select: %v", err)
		}
	}
	token, err := p.tokens.GenerateSessionToken(sess.ID, sess.Role, sess.ExpiresAt)
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	return sess, &http.Cookie{Name: auth.CookieName, Value: token}
}

// do sends a request. fragment, when set, asks for that fragment back the
// way panel.js does.
func (p *testPanel) do(method, path string, form url.Values, cookie *http.Cookie, fragment string) *httptest.ResponseRecorder {
	return p.send(method, path, form, cookie, fragment, "")
}

func (p *testPanel) doWithReferer(method, path string, form url.Values, cookie *http.Cookie, referer string) *httptest.ResponseRecorder {
	return p.send(method, path, form, cookie, "", referer)
}

func (p *testPanel) send(method, path string, form url.Values, cookie *http.Cookie, fragment, referer string) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	if fragment != "" {
		req.Header.Set(auth.FragmentHeader, fragment)
	}
	if referer != "" {
		req.Header.Set("Referer", referer)
	}
	rec := httptest.NewRecorder()
	p.e.ServeHTTP(rec, req)
	return rec
}

// toasts decodes the toast header panel.js reads.
func toasts(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	raw := rec.Header().Get(ToastsHeader)
	if raw == "" {
		return ""
	}
	html, err := url.PathUnescape(raw)
	if err != nil {
		t.Fatalf("toast header is not path-escaped: %v", err)
	}
	return html
}

func sessionGone(t *testing.T, p *testPanel, id string) bool {
	t.Helper()
	_, err := p.redis.GetSession(context.Background(), id)
	return err != nil
}
