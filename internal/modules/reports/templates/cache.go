package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache stores merged templates per org. Keys already embed the template id
// and branding fingerprint; InvalidateOrg drops everything for one org.
type Cache interface {
	Get(ctx context.Context, orgID uuid.UUID, key string) (*MergedTemplate, bool, error)
	Set(ctx context.Context, orgID uuid.UUID, key string, m *MergedTemplate) error
	InvalidateOrg(ctx context.Context, orgID uuid.UUID) error
}

func cacheKey(templateID, fingerprint string) string {
	if templateID == "" {
		templateID = "default"
	}
	return templateID + ":" + fingerprint
}

type MemoryCache struct {
	mu    sync.Mutex
	items map[uuid.UUID]map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[uuid.UUID]map[string][]byte{}}
}

func (c *MemoryCache) Get(_ context.Context, orgID uuid.UUID, key string) (*MergedTemplate, bool, error) {
	c.mu.Lock()
	raw, ok := c.items[orgID][key]
	c.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	var m MergedTemplate
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, err
	}
	return &m, true, nil
}

func (c *MemoryCache) Set(_ context.Context, orgID uuid.UUID, key string, m *MergedTemplate) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items[orgID] == nil {
		c.items[orgID] = map[string][]byte{}
	}
	c.items[orgID][key] = raw
	return nil
}

func (c *MemoryCache) InvalidateOrg(_ context.Context, orgID uuid.UUID) error {
	c.mu.Lock()
	delete(c.items, orgID)
	c.mu.Unlock()
	return nil
}

// RedisCache versions each org's keys with a generation counter, so
// invalidation is one INCR and stale entries age out by TTL.
type RedisCache struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(rdb *goredis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "claimpacket"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) genKey(orgID uuid.UUID) string {
	return fmt.Sprintf("%s:tmplgen:%s", c.prefix, orgID)
}

func (c *RedisCache) generation(ctx context.Context, orgID uuid.UUID) (int64, error) {
	raw, err := c.rdb.Get(ctx, c.genKey(orgID)).Result()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (c *RedisCache) dataKey(ctx context.Context, orgID uuid.UUID, key string) (string, error) {
	gen, err := c.generation(ctx, orgID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:tmpl:%s:%d:%s", c.prefix, orgID, gen, key), nil
}

func (c *RedisCache) Get(ctx context.Context, orgID uuid.UUID, key string) (*MergedTemplate, bool, error) {
	k, err := c.dataKey(ctx, orgID, key)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var m MergedTemplate
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, err
	}
	return &m, true, nil
}

func (c *RedisCache) Set(ctx context.Context, orgID uuid.UUID, key string, m *MergedTemplate) error {
	k, err := c.dataKey(ctx, orgID, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, k, raw, c.ttl).Err()
}

func (c *RedisCache) InvalidateOrg(ctx context.Context, orgID uuid.UUID) error {
	return c.rdb.Incr(ctx, c.genKey(orgID)).Err()
}
