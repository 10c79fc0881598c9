package upstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProfileCache is a short-TTL read-through cache in front of the profile
// service, so one program-status request fanning out over hundreds of
// learners does not hammer the upstream. Cache errors degrade to a miss.
type ProfileCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewProfileCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ProfileCache {
	return &ProfileCache{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func cacheKey(userID string) string {
	return "profile:" + userID
}

func (c *ProfileCache) Get(ctx context.Context, userID string) (*Profile, bool) {
	data, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("profile cache read failed", zap.Error(err), zap.String("user_id", userID))
		}
		return nil, false
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		c.logger.Warn("profile cache entry corrupt", zap.Error(err), zap.String("user_id", userID))
		return nil, false
	}

	return &profile, true
}

func (c *ProfileCache) Set(ctx context.Context, userID string, profile *Profile) {
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}

	if err := c.rdb.Set(ctx, cacheKey(userID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("profile cache write failed", zap.Error(err), zap.String("user_id", userID))
	}
}
