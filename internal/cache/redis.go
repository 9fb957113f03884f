package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"todo-api/internal/config"
	"todo-api/internal/models"
	"todo-api/pkg/logger"
)

const (
	statsKeyPrefix    = "stats:user:"
	statsGenKeyPrefix = "stats:gen:"
)

var (
	client *redis.Client
	once   sync.Once
)

// Client returns the global Redis client (initialized on first use), or nil when Redis is unreachable.
func Client(ctx context.Context) *redis.Client {
	once.Do(func() {
		cfg := config.Get()
		if cfg.RedisURL == "" {
			logger.Info(ctx, "Redis disabled (no REDIS_URL)")
			return
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error(ctx, "Invalid REDIS_URL", "error", err)
			return
		}
		opts.PoolSize = cfg.RedisPoolSize
		c := redis.NewClient(opts)
		if err := c.Ping(ctx).Err(); err != nil {
			logger.Error(ctx, "Redis ping failed", "error", err)
			_ = c.Close()
			return
		}
		client = c
		logger.Info(ctx, "Redis client initialized", "pool_size", cfg.RedisPoolSize)
	})
	return client
}

// StatsCache keeps each user's computed stats for a short TTL.
// Every entry is stamped with the user's generation at the time the computation
// started; Invalidate bumps the generation, so a computation that raced a write
// leaves an entry no reader will accept.
// A nil *StatsCache is valid and caches nothing.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

type statsEntry struct {
	Gen   int64         `json:"gen"`
	Stats *models.Stats `json:"stats"`
}

// NewStatsCache returns nil when rdb is nil.
func NewStatsCache(rdb *redis.Client, ttl time.Duration) *StatsCache {
	if rdb == nil {
		return nil
	}
	return &StatsCache{rdb: rdb, ttl: ttl}
}

// StatsKey returns the Redis key of one user's stats.
func StatsKey(userID string) string {
	return statsKeyPrefix + userID
}

// GenKey returns the Redis key of one user's stats generation.
func GenKey(userID string) string {
	return statsGenKeyPrefix + userID
}

// genTTL outlives any entry written under an older generation.
func (c *StatsCache) genTTL() time.Duration {
	return c.ttl + 24*time.Hour
}

// Get reads cached stats and the user's current generation.
// ok is false on miss, error, or an entry stamped with an older generation.
func (c *StatsCache) Get(ctx context.Context, userID string) (*models.Stats, int64, bool) {
	if c == nil {
		return nil, 0, false
	}
	vals, err := c.rdb.MGet(ctx, StatsKey(userID), GenKey(userID)).Result()
	if err != nil {
		logger.Debug(ctx, "Redis get stats failed", "error", err)
		return nil, 0, false
	}
	gen := parseGen(vals[1])
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}
	s, fresh := decodeEntry([]byte(raw), gen)
	return s, gen, fresh
}

// Set writes stats computed at generation gen with the configured TTL.
func (c *StatsCache) Set(ctx context.Context, userID string, gen int64, s *models.Stats) {
	if c == nil || s == nil {
		return
	}
	b, err := json.Marshal(statsEntry{Gen: gen, Stats: s})
	if err != nil {
		logger.Debug(ctx, "Marshal stats for cache failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, StatsKey(userID), b, c.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set stats failed", "error", err)
	}
}

// Invalidate bumps the user's generation and drops the cached entry.
func (c *StatsCache) Invalidate(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenKey(userID))
		pipe.Expire(ctx, GenKey(userID), c.genTTL())
		pipe.Del(ctx, StatsKey(userID))
		return nil
	})
	if err != nil {
		logger.Debug(ctx, "Redis invalidate stats failed", "error", err)
	}
}

func parseGen(v interface{}) int64 {
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

// decodeEntry returns the stats of an entry stamped with gen.
func decodeEntry(b []byte, gen int64) (*models.Stats, bool) {
	var e statsEntry
	if err := json.Unmarshal(b, &e); err != nil || e.Stats == nil {
		return nil, false
	}
	if e.Gen != gen {
		return nil, false
	}
	return e.Stats, true
}

// PingContext checks the underlying connection for readiness probes.
func (c *StatsCache) PingContext(ctx context.Context) error {
	if c == nil {
		return errors.New("redis disabled")
	}
	return c.rdb.Ping(ctx).Err()
}
