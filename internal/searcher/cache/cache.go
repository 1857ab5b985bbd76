// Package cache provides a Redis-backed, singleflight-deduplicated cache
// in front of the querier service, grounded on the teacher's query cache
// (same key-hash/stats/invalidate shape) but keyed on the BM25 params used
// for a request as well as the query text, since different (k1, b) values
// for the same terms produce different rankings.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/nilquery/ixora/internal/bm25"
	"github.com/nilquery/ixora/internal/querier"
	"github.com/nilquery/ixora/pkg/config"
	pkgredis "github.com/nilquery/ixora/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, query string, limit int, params bm25.Params) ([]querier.Hit, bool) {
	key := c.buildKey(query, limit, params)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			c.misses.Add(1)
			return nil, false
		}
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	var hits []querier.Hit
	if err := json.Unmarshal([]byte(data), &hits); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "err", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "query", query, "key", key)
	return hits, true
}

func (c *QueryCache) Set(ctx context.Context, query string, limit int, params bm25.Params, hits []querier.Hit) {
	key := c.buildKey(query, limit, params)
	data, err := json.Marshal(hits)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	params bm25.Params,
	computeFn func() ([]querier.Hit, error),
) ([]querier.Hit, bool, error) {
	if hits, ok := c.Get(ctx, query, limit, params); ok {
		return hits, true, nil
	}
	key := c.buildKey(query, limit, params)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if hits, ok := c.Get(ctx, query, limit, params); ok {
			return hits, nil
		}
		hits, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, params, hits)
		return hits, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]querier.Hit), false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	pattern := keyPrefix + "*"
	deleted, err := c.client.FlushByPattern(ctx, pattern)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(query string, limit int, params bm25.Params) string {
	normalized := normalizeQuery(query)
	raw := fmt.Sprintf("%s:limit=%d:k1=%g:b=%g", normalized, limit, params.K1, params.B)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// normalizeQuery canonicalizes AND/OR/NOT terms into a cache key that is
// independent of word order and casing.
func normalizeQuery(query string) string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0)
	excludes := make([]string, 0)
	queryType := "AND"
	excludeNext := false
	for _, w := range words {
		upper := strings.ToUpper(w)
		switch upper {
		case "AND":
			queryType = "AND"
		case "OR":
			queryType = "OR"
		case "NOT":
			excludeNext = true
		default:
			if excludeNext {
				excludes = append(excludes, w)
				excludeNext = false
			} else {
				terms = append(terms, w)
			}
		}
	}

	sort.Strings(terms)
	sort.Strings(excludes)
	parts := []string{queryType, strings.Join(terms, ",")}
	if len(excludes) > 0 {
		parts = append(parts, "NOT:"+strings.Join(excludes, ","))
	}
	return strings.Join(parts, "|")
}
