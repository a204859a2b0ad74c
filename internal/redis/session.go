package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	goredis "github.com/redis/go-redis/v9"

	"github.com/WoushouW/woushBOT/internal/models"
)

const (
	sessionPrefix  = "session:"
	settingsPrefix = "settings:"
	flashPrefix    = "flash:"
	flashTTL       = 5 * time.Minute
)

// ErrSessionNotFound is returned when a session key is missing or expired.
var ErrSessionNotFound = errors.New("session not found")

// SaveSession stores the session until its ExpiresAt.
func (c *Client) SaveSession(ctx context.Context, s *models.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("saving session: already expired")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return c.rdb.Set(ctx, sessionPrefix+s.ID, data, ttl).Err()
}

// GetSession loads a session by id.
func (c *Client) GetSession(ctx context.Context, id string) (*models.Session, error) {
	data, err := c.rdb.Get(ctx, sessionPrefix+id).Bytes()
	if err == goredis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	var s models.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes the session and everything keyed by it.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.rdb.Del(ctx,
		sessionPrefix+id,
		settingsPrefix+id,
		flashPrefix+id,
		selectionPrefix+id,
		snapshotPrefix+id,
	).Err()
}

// SaveSettings writes the dashboard settings hash with the given TTL.
func (c *Client) SaveSettings(ctx context.Context, id string, s models.Settings, ttl time.Duration) error {
	key := settingsPrefix + id
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.HSet(ctx, key,
			"auto_refresh", strconv.FormatBool(s.AutoRefresh),
			"notifications", strconv.FormatBool(s.Notifications),
			"refresh_interval", strconv.Itoa(s.RefreshInterval),
		)
		if ttl > 0 {
			p.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}

// GetSettings returns the stored settings. found is false when none exist.
func (c *Client) GetSettings(ctx context.Context, id string) (settings models.Settings, found bool, err error) {
	raw, err := c.rdb.HGetAll(ctx, settingsPrefix+id).Result()
	if err != nil {
		return settings, false, fmt.Errorf("getting settings: %w", err)
	}
	if len(raw) == 0 {
		return settings, false, nil
	}
	if err := mapstructure.WeakDecode(raw, &settings); err != nil {
		return settings, false, fmt.Errorf("decoding settings: %w", err)
	}
	return settings, true, nil
}

// PushFlash queues a toast for the session's next render.
func (c *Client) PushFlash(ctx context.Context, id string, f models.Flash) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding flash: %w", err)
	}
	key := flashPrefix + id
	_, err = c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, key, data)
		p.Expire(ctx, key, flashTTL)
		return nil
	})
	return err
}

// PopFlashes returns and clears the queued toasts.
func (c *Client) PopFlashes(ctx context.Context, id string) ([]models.Flash, error) {
	key := flashPrefix + id
	var lrange *goredis.StringSliceCmd
	_, err := c.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		lrange = p.LRange(ctx, key, 0, -1)
		p.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("popping flashes: %w", err)
	}

	items := lrange.Val()
	flashes := make([]models.Flash, 0, len(items))
	for _, item := range items {
		var f models.Flash
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			continue
		}
		flashes = append(flashes, f)
	}
	return flashes, nil
}
