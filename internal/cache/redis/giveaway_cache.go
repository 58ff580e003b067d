package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/redis/go-redis/v9"

	dg "github.com/open-builders/giveaway-discord-bot/internal/domain/giveaway"
	rplatform "github.com/open-builders/giveaway-discord-bot/internal/platform/redis"
)

const responsePrefix = "httpcache:GET:"

// ResponseKey is the key of a cached GET response for the given URL path.
// Guild and giveaway segments are rewritten to their canonical form so every
// accepted spelling of an ID maps to the key that writers invalidate.
func ResponseKey(path string) string {
	return responsePrefix + canonicalPath(path)
}

// canonicalPath rewrites /api/v1/guilds/<guild>/giveaways/<id>/...
// Unparseable segments are kept as they are.
func canonicalPath(path string) string {
	parts := strings.Split(path, "/")
	for i := 0; i+1 < len(parts); i++ {
		switch parts[i] {
		case "guilds":
			if id, err := snowflake.Parse(parts[i+1]); err == nil {
				parts[i+1] = id.String()
			}
		case "giveaways":
			if id, err := dg.ParseID(parts[i+1]); err == nil {
				parts[i+1] = id.String()
			}
		}
	}
	return strings.Join(parts, "/")
}

// GiveawayCache keeps a JSON snapshot of every saved giveaway and drops the
// cached API responses that include it.
type GiveawayCache struct {
	client *rplatform.Client
	ttl    time.Duration
}

func NewGiveawayCache(client *rplatform.Client, ttl time.Duration) *GiveawayCache {
	return &GiveawayCache{client: client, ttl: ttl}
}

func (c *GiveawayCache) key(id dg.ID) string { return fmt.Sprintf("giveaway:id:%s", id) }

// Get returns the snapshot, or nil when none is cached.
func (c *GiveawayCache) Get(ctx context.Context, id dg.ID) (*dg.Giveaway, error) {
	b, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g dg.Giveaway
	if err := json.Unmarshal(b, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Set stores the snapshot and invalidates stale responses.
func (c *GiveawayCache) Set(ctx context.Context, g *dg.Giveaway) error {
	b, err := json.Marshal(g)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(g.ID), b, c.ttl)
	pipe.Del(ctx, responseKeys(g)...)
	_, err = pipe.Exec(ctx)
	return err
}

func responseKeys(g *dg.Giveaway) []string {
	base := fmt.Sprintf("/api/v1/guilds/%s/giveaways", g.GuildID)
	return []string{
		ResponseKey(base),
		ResponseKey(base + "/" + g.ID.String()),
		ResponseKey(base + "/" + g.ID.String() + "/entrants"),
	}
}
