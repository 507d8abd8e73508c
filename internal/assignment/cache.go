package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "assignments:version"
	bumpChannel     = "assignments.bump"
)

// Region wraps Redis based caching of computed role sets with versioning
// controls. Any grant, membership, hierarchy or inference-rule mutation
// bumps the version, which implicitly drops every memoized entry.
type Region struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRegion instantiates the cache helper.
func NewRegion(client *redis.Client, ttl time.Duration) *Region {
	return &Region{client: client, ttl: ttl}
}

// Version returns the current cache version, initialising when missing.
func (c *Region) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if err == redis.Nil {
		if err := c.client.Set(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, cacheVersionKey, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Region) BuildKey(ctx context.Context, parts ...string) (string, error) {
	if c == nil || c.client == nil {
		return strings.Join(parts, ":"), nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	joined := strings.Join(parts, ":")
	return fmt.Sprintf("%s:%d", joined, ver), nil
}

// FetchJSON loads a cached value or populates it using the loader.
func (c *Region) FetchJSON(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		return err
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Invalidate drops the whole region by incrementing the global version and
// publishing an event. It satisfies shared.Invalidator.
func (c *Region) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// advanceVersionScript moves the version key forward, never back. Bump
// messages can arrive after newer increments; replaying one with a plain
// SET would resurrect role sets memoized before the later mutations.
var advanceVersionScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local want = tonumber(ARGV[1]) or 0
if want > cur then
	redis.call('SET', KEYS[1], ARGV[1])
	return want
end
return cur
`)

// applyBump folds a published bump payload into the version key. The key
// only ever advances: a stale payload is a no-op, an unparsable one drops
// the region outright via Incr.
func (c *Region) applyBump(ctx context.Context, payload string) error {
	if payload != "" {
		if ver, err := strconv.ParseInt(payload, 10, 64); err == nil {
			return advanceVersionScript.Run(ctx, c.client, []string{cacheVersionKey}, ver).Err()
		}
	}
	return c.client.Incr(ctx, cacheVersionKey).Err()
}

// ListenForInvalidation subscribes to version bump notifications.
func (c *Region) ListenForInvalidation(ctx context.Context, channel string) error {
	if c == nil || c.client == nil {
		return nil
	}
	if channel == "" {
		channel = bumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				_ = c.applyBump(ctx, msg.Payload)
			}
		}
	}()
	return nil
}

func keyRolesForUserProject(userID, projectID string) string {
	return strings.Join([]string{"assignments", "user_project", userID, projectID}, ":")
}

func keyRolesForUserDomain(userID, domainID string) string {
	return strings.Join([]string{"assignments", "user_domain", userID, domainID}, ":")
}
