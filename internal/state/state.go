// Package state holds the per-session application state: the selected guild,
// its cached snapshot and the dashboard settings. Nothing here is global; an
// AppState is built for every request or poll and passed to the renderers.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/WoushouW/woushBOT/internal/botapi"
	"github.com/WoushouW/woushBOT/internal/models"
	"github.com/WoushouW/woushBOT/internal/redis"
	"github.com/WoushouW/woushBOT/internal/snowflake"
)

var (
	// ErrSuperseded means a newer guild selection replaced the one a refresh
	// started with; its result was discarded.
	ErrSuperseded = errors.New("refresh superseded by a newer selection")
	// ErrNoGuildSelected means the session has not picked a guild yet.
	ErrNoGuildSelected = errors.New("no guild selected")
)

// Snapshot is one consistent view of the bot and the selected guild.
type Snapshot struct {
	Bot        *models.BotInfo   `json:"bot"`
	Guild      *models.GuildFull `json:"guild"`
	Stats      models.Stats      `json:"stats"`
	Generation int64             `json:"generation"`
	FetchedAt  time.Time         `json:"fetched_at"`
}

// AppState is everything a page render needs about the session.
type AppState struct {
	Session    *models.Session
	GuildID    snowflake.ID
	Generation int64
	Snapshot   *Snapshot
	Settings   models.Settings
}

// HasGuild reports whether a guild is selected.
func (s *AppState) HasGuild() bool {
	return !s.GuildID.IsZero()
}

// Refresher loads guild snapshots for sessions. Overlapping refreshes of the
// same session and selection share one round of bot requests, and a result is
// only committed while its selection generation is still current.
type Refresher struct {
	bot         *botapi.Client
	redis       *redis.Client
	snapshotTTL time.Duration
	selectTTL   time.Duration
	group       singleflight.Group
	now         func() time.Time
}

// NewRefresher creates a Refresher. snapshotTTL bounds how long a snapshot is
// reused; selectTTL is how long a guild selection is remembered.
func NewRefresher(bot *botapi.Client, rc *redis.Client, snapshotTTL, selectTTL time.Duration) *Refresher {
	return &Refresher{
		bot:         bot,
		redis:       rc,
		snapshotTTL: snapshotTTL,
		selectTTL:   selectTTL,
		now:         time.Now,
	}
}

// Load builds the AppState from redis without calling the bot.
func (r *Refresher) Load(ctx context.Context, sess *models.Session, settings models.Settings) (*AppState, error) {
	guildID, gen, err := r.redis.Selection(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	st := &AppState{
		Session:    sess,
		GuildID:    snowflake.ID(guildID),
		Generation: gen,
		Settings:   settings,
	}
	if guildID == 0 {
		return st, nil
	}
	snap, err := r.cached(ctx, sess.ID)
	if err != nil {
		slog.Warn("reading cached snapshot", "session", sess.ID, "error", err)
	}
	if snap != nil && snap.Generation == gen {
		st.Snapshot = snap
	}
	return st, nil
}

// Select records the session's guild. It bumps the selection generation,
// which drops the cached snapshot and voids any refresh still in flight.
func (r *Refresher) Select(ctx context.Context, sess *models.Session, guildID snowflake.ID) (int64, error) {
	if guildID.IsZero() {
		return 0, ErrNoGuildSelected
	}
	ttl := r.selectTTL
	if left := sess.ExpiresAt.Sub(r.now()); left > 0 && left < ttl {
		ttl = left
	}
	return r.redis.SelectGuild(ctx, sess.ID, int64(guildID), ttl)
}

// Invalidate drops the cached snapshot so the next read refetches. Used after
// actions that change guild state and on navigation.
func (r *Refresher) Invalidate(ctx context.Context, sess *models.Session) error {
	_, err := r.redis.InvalidateSnapshot(ctx, sess.ID)
	return err
}

// Current returns the cached snapshot when it is still valid, otherwise it
// refreshes.
func (r *Refresher) Current(ctx context.Context, st *AppState) (*Snapshot, error) {
	if st.Snapshot != nil && st.Snapshot.Generation == st.Generation {
		return st.Snapshot, nil
	}
	snap, err := r.Refresh(ctx, st.Session)
	if err != nil {
		return nil, err
	}
	st.Snapshot = snap
	st.Generation = snap.Generation
	return snap, nil
}

// Refresh fetches bot info and the full guild in parallel and commits the
// snapshot if the selection did not change meanwhile.
func (r *Refresher) Refresh(ctx context.Context, sess *models.Session) (*Snapshot, error) {
	guildID, gen, err := r.redis.Selection(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	if guildID == 0 {
		return nil, ErrNoGuildSelected
	}

	key := fmt.Sprintf("%s:%d:%d", sess.ID, guildID, gen)
	v, err, shared := r.group.Do(key, func() (any, error) {
		// Detached from the first caller so a cancelled request does not
		// fail the callers sharing this round.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		return r.fetch(fetchCtx, sess, snowflake.ID(guildID), gen)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("refresh shared", "session", sess.ID, "guild", guildID)
	}
	return v.(*Snapshot), nil
}

func (r *Refresher) fetch(ctx context.Context, sess *models.Session, guildID snowflake.ID, gen int64) (*Snapshot, error) {
	bot := r.bot.As(sess.Token)
	snap := &Snapshot{Generation: gen}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		info, err := bot.BotInfo(gctx)
		if err != nil {
			return fmt.Errorf("bot info: %w", err)
		}
		snap.Bot = info
		return nil
	})
	g.Go(func() error {
		full, err := bot.GuildFull(gctx, guildID)
		if err != nil {
			return fmt.Errorf("guild %s: %w", guildID, err)
		}
		snap.Guild = full
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap.Stats = snap.Guild.ComputeStats()
	snap.FetchedAt = r.now().UTC()

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	ok, err := r.redis.CommitSnapshot(ctx, sess.ID, gen, payload, r.snapshotTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.Debug("discarding superseded refresh", "session", sess.ID, "guild", guildID, "generation", gen)
		return nil, ErrSuperseded
	}
	return snap, nil
}

func (r *Refresher) cached(ctx context.Context, sessionID string) (*Snapshot, error) {
	data, err := r.redis.Snapshot(ctx, sessionID)
	if err != nil || data == nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}
