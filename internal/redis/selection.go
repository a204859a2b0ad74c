package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	selectionPrefix = "selection:"
	snapshotPrefix  = "snapshot:"
)

// selectScript stores the chosen guild, bumps the generation and drops the
// cached snapshot in one step.
var selectScript = goredis.NewScript(`
redis.call("HSET", KEYS[1], "guild_id", ARGV[1])
local gen = redis.call("HINCRBY", KEYS[1], "gen", 1)
redis.call("DEL", KEYS[2])
if tonumber(ARGV[2]) > 0 then
    redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return gen
`)

// commitScript writes the snapshot only if the selection generation still
// matches the one the refresh started with.
var commitScript = goredis.NewScript(`
local gen = redis.call("HGET", KEYS[1], "gen")
if gen ~= ARGV[1] then
    return 0
end
redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
return 1
`)

// SelectGuild records the session's guild and returns the new generation.
func (c *Client) SelectGuild(ctx context.Context, sessionID string, guildID int64, ttl time.Duration) (int64, error) {
	keys := []string{selectionPrefix + sessionID, snapshotPrefix + sessionID}
	gen, err := selectScript.Run(ctx, c.rdb, keys, strconv.FormatInt(guildID, 10), ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("selecting guild: %w", err)
	}
	return gen, nil
}

// Selection returns the selected guild and generation. guildID is 0 when
// nothing is selected.
func (c *Client) Selection(ctx context.Context, sessionID string) (guildID, gen int64, err error) {
	vals, err := c.rdb.HMGet(ctx, selectionPrefix+sessionID, "guild_id", "gen").Result()
	if err != nil {
		return 0, 0, fmt.Errorf("getting selection: %w", err)
	}
	guildID = parseInt(vals[0])
	gen = parseInt(vals[1])
	return guildID, gen, nil
}

// invalidateScript bumps the generation of an existing selection and drops
// the snapshot. A session without a selection gets no key.
var invalidateScript = goredis.NewScript(`
redis.call("DEL", KEYS[2])
if redis.call("EXISTS", KEYS[1]) == 0 then
    return 0
end
return redis.call("HINCRBY", KEYS[1], "gen", 1)
`)

// InvalidateSnapshot bumps the generation without changing the guild, so
// in-flight refreshes are discarded and the next read refetches. It returns
// 0 when nothing is selected.
func (c *Client) InvalidateSnapshot(ctx context.Context, sessionID string) (int64, error) {
	keys := []string{selectionPrefix + sessionID, snapshotPrefix + sessionID}
	gen, err := invalidateScript.Run(ctx, c.rdb, keys).Int64()
	if err != nil {
		return 0, fmt.Errorf("invalidating snapshot: %w", err)
	}
	return gen, nil
}

// CommitSnapshot stores payload if gen is still current. It reports false
// when a newer selection superseded the refresh.
func (c *Client) CommitSnapshot(ctx context.Context, sessionID string, gen int64, payload []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	keys := []string{selectionPrefix + sessionID, snapshotPrefix + sessionID}
	ok, err := commitScript.Run(ctx, c.rdb, keys, strconv.FormatInt(gen, 10), payload, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("committing snapshot: %w", err)
	}
	return ok == 1, nil
}

// Snapshot returns the cached snapshot payload, or nil when absent.
func (c *Client) Snapshot(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, snapshotPrefix+sessionID).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}
	return data, nil
}

func parseInt(v any) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
