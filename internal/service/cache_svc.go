package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Redis key TTLs.
const (
	DefaultSimulationCacheTTL = 10 * time.Minute
	AdjustedRatingCacheTTL    = 5 * time.Minute
)

// CacheService provides a Redis cache-aside layer for simulation results and
// adjusted ratings.
type CacheService struct {
	rdb           *redis.Client
	simulationTTL time.Duration
}

// NewCacheService creates a new CacheService. If redisURL is empty or connection
// fails, it returns a CacheService with a nil client (cache operations become no-ops).
func NewCacheService(redisURL string, simulationTTL time.Duration) *CacheService {
	if simulationTTL <= 0 {
		simulationTTL = DefaultSimulationCacheTTL
	}
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{simulationTTL: simulationTTL}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{simulationTTL: simulationTTL}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		_ = rdb.Close()
		return &CacheService{simulationTTL: simulationTTL}
	}

	log.Info().Str("addr", opts.Addr).Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb, simulationTTL: simulationTTL}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetSimulation returns a cached simulation result.
func (c *CacheService) GetSimulation(ctx context.Context, key string) (*model.SimulationResult, bool) {
	var res model.SimulationResult
	if !c.get(ctx, simulationKey(key), &res) {
		return nil, false
	}
	return &res, true
}

// SetSimulation stores a simulation result.
func (c *CacheService) SetSimulation(ctx context.Context, key string, res *model.SimulationResult) {
	c.set(ctx, simulationKey(key), res, c.simulationTTL)
}

// GetAdjustedRating returns a script's cached adjusted rating.
func (c *CacheService) GetAdjustedRating(ctx context.Context, scriptID int64) (*model.AdjustedRating, bool) {
	var res model.AdjustedRating
	if !c.get(ctx, adjustedRatingKey(scriptID), &res) {
		return nil, false
	}
	return &res, true
}

// SetAdjustedRating stores a script's adjusted rating.
func (c *CacheService) SetAdjustedRating(ctx context.Context, scriptID int64, res *model.AdjustedRating) {
	c.set(ctx, adjustedRatingKey(scriptID), res, AdjustedRatingCacheTTL)
}

// InvalidateScript drops everything cached for a script (called after corrections,
// flag flips and re-rating).
func (c *CacheService) InvalidateScript(ctx context.Context, scriptID int64) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, adjustedRatingKey(scriptID)).Err(); err != nil {
		log.Warn().Err(err).Int64("script_id", scriptID).Msg("cache: invalidate script error")
	}
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *CacheService) get(ctx context.Context, key string, v any) bool {
	if c.rdb == nil {
		return false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: get error")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: corrupt entry")
		return false
	}
	return true
}

func (c *CacheService) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: encode error")
		return
	}
	if err := c.rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: set error")
	}
}

func simulationKey(key string) string {
	return fmt.Sprintf("simulation:%s", key)
}

func adjustedRatingKey(scriptID int64) string {
	return fmt.Sprintf("adjusted_rating:%d", scriptID)
}
