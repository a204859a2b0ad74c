package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/render"
	"github.com/WoushouW/woushBOT/internal/service"
	"github.com/WoushouW/woushBOT/internal/state"
)

// Fragments pushed on every update.
var liveFragments = []string{"stats", "recent_activity"}

// SessionSource loads and ends sessions.
type SessionSource interface {
	Lookup(ctx context.Context, id string) (*models.Session, error)
	Settings(ctx context.Context, sess *models.Session) models.Settings
	Logout(ctx context.Context, id string) error
}

// SnapshotSource refreshes the selected guild of a session.
type SnapshotSource interface {
	Refresh(ctx context.Context, sess *models.Session) (*state.Snapshot, error)
}

// ActivitySource returns the recent activity feed.
type ActivitySource interface {
	Activity(ctx context.Context, a service.Actor, filter string, limit int) ([]models.Activity, error)
}

// FragmentRenderer renders a named fragment.
type FragmentRenderer interface {
	Fragment(name string, data any) (string, error)
}

// Pruner deletes audit entries older than a number of days.
type Pruner interface {
	Prune(ctx context.Context, days int) (int64, error)
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Tick time.Duration
	// RetentionDays enables a daily audit prune when positive.
	RetentionDays int
}

type sessionMark struct {
	pushed  time.Time
	members int
}

// Poller refreshes sessions that have a live connection and pushes the
// re-rendered dashboard fragments to them.
type Poller struct {
	manager  *Manager
	sessions SessionSource
	snaps    SnapshotSource
	activity ActivitySource
	renderer FragmentRenderer
	pruner   Pruner
	cfg      PollerConfig

	cron *cron.Cron
	now  func() time.Time

	mu    sync.Mutex
	marks map[string]sessionMark
}

// NewPoller creates a Poller. pruner may be nil.
func NewPoller(m *Manager, sessions SessionSource, snaps SnapshotSource, activity ActivitySource, renderer FragmentRenderer, pruner Pruner, cfg PollerConfig) *Poller {
	if cfg.Tick <= 0 {
		cfg.Tick = 10 * time.Second
	}
	return &Poller{
		manager:  m,
		sessions: sessions,
		snaps:    snaps,
		activity: activity,
		renderer: renderer,
		pruner:   pruner,
		cfg:      cfg,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:      time.Now,
		marks:    make(map[string]sessionMark),
	}
}

// Start schedules the poll and, when configured, the audit prune.
func (p *Poller) Start() error {
	entryID, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.cfg.Tick), func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Tick*3)
		defer cancel()
		p.Tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling poll: %w", err)
	}
	slog.Info("live updates scheduled", "entryID", entryID, "tick", p.cfg.Tick)

	if p.pruner != nil && p.cfg.RetentionDays > 0 {
		if _, err := p.cron.AddFunc("@daily", p.prune); err != nil {
			return fmt.Errorf("scheduling audit prune: %w", err)
		}
	}

	p.cron.Start()
	return nil
}

// Stop halts scheduling and waits for a running poll to finish.
func (p *Poller) Stop(ctx context.Context) {
	done := p.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Tick polls every session with an open connection once.
func (p *Poller) Tick(ctx context.Context) {
	live := p.manager.Sessions()
	p.forgetClosed(live)

	for _, sid := range live {
		if ctx.Err() != nil {
			return
		}
		p.pollSession(ctx, sid)
	}
}

func (p *Poller) pollSession(ctx context.Context, sid string) {
	now := p.now()

	sess, err := p.sessions.Lookup(ctx, sid)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			p.expire(ctx, sid, "session gone")
			return
		}
		slog.Warn("poll: loading session", "session", sid, "error", err)
		return
	}
	if sess.Expired(now) {
		p.expire(ctx, sid, "session expired")
		return
	}

	settings := p.sessions.Settings(ctx, sess)
	requested := p.manager.takeRefresh(sid)
	if !requested {
		if !settings.AutoRefresh {
			return
		}
		p.mu.Lock()
		last := p.marks[sid].pushed
		p.mu.Unlock()
		if !last.IsZero() && now.Sub(last) < settings.Interval() {
			return
		}
	}

	snap, err := p.snaps.Refresh(ctx, sess)
	switch {
	case errors.Is(err, state.ErrNoGuildSelected), errors.Is(err, state.ErrSuperseded):
		slog.Debug("poll: nothing to push", "session", sid, "reason", err)
		return
	case errors.Is(err, botapi.ErrUnauthorized):
		p.expire(ctx, sid, "bot rejected the token")
		return
	case err != nil:
		// The tab keeps its previous render.
		slog.Warn("poll: refresh failed", "session", sid, "error", err)
		return
	}

	payload, members, err := p.buildUpdate(ctx, sess, settings, snap)
	if err != nil {
		slog.Error("poll: rendering update", "session", sid, "error", err)
		return
	}

	p.mu.Lock()
	prev, seen := p.marks[sid]
	p.marks[sid] = sessionMark{pushed: now, members: members}
	p.mu.Unlock()

	if settings.Notifications && seen && members > prev.members {
		n := members - prev.members
		payload.Notice = fmt.Sprintf("%d new member%s joined", n, plural(n))
	}

	if sent := p.manager.SendToSession(sid, payload); sent > 0 {
		slog.Debug("poll: pushed update", "session", sid, "connections", sent)
	}
}

func (p *Poller) buildUpdate(ctx context.Context, sess *models.Session, settings models.Settings, snap *state.Snapshot) (Payload, int, error) {
	view := render.DashboardView{
		Bot:       snap.Bot,
		Stats:     snap.Stats,
		FetchedAt: snap.FetchedAt,
	}
	page := &render.Page{Session: sess, Settings: settings, Data: &view}
	if snap.Guild != nil {
		view.Guild = &snap.Guild.Guild
		page.GuildID = snap.Guild.Guild.ID
	}

	if p.activity != nil {
		actor := service.Actor{Session: sess, GuildID: page.GuildID}
		recent, err := p.activity.Activity(ctx, actor, "all", service.RecentActivityLimit)
		if err != nil {
			slog.Warn("poll: loading activity", "session", sess.ID, "error", err)
		}
		view.Recent = recent
	}

	frags := make(map[string]string, len(liveFragments))
	for _, name := range liveFragments {
		html, err := p.renderer.Fragment(name, page)
		if err != nil {
			return Payload{}, 0, fmt.Errorf("fragment %s: %w", name, err)
		}
		frags[name] = html
	}
	return Payload{Event: EventStateUpdate, Fragments: frags}, snap.Stats.Members, nil
}

func (p *Poller) expire(ctx context.Context, sid, reason string) {
	slog.Info("poll: ending session", "session", sid, "reason", reason)
	if err := p.sessions.Logout(ctx, sid); err != nil {
		slog.Warn("poll: logout failed", "session", sid, "error", err)
	}
	p.manager.Expire(sid)

	p.mu.Lock()
	delete(p.marks, sid)
	p.mu.Unlock()
}

func (p *Poller) forgetClosed(live []string) {
	open := make(map[string]struct{}, len(live))
	for _, sid := range live {
		open[sid] = struct{}{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for sid := range p.marks {
		if _, ok := open[sid]; !ok {
			delete(p.marks, sid)
		}
	}
}

func (p *Poller) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	n, err := p.pruner.Prune(ctx, p.cfg.RetentionDays)
	if err != nil {
		slog.Error("audit prune failed", "error", err)
		return
	}
	slog.Info("audit pruned", "deleted", n, "olderThanDays", p.cfg.RetentionDays)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
