package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"vidshare/db"
	"vidshare/logger"
	"vidshare/model"
)

const tagCountsTTL = 5 * time.Minute

// GetTagCountsKey builds the Redis key for a media kind's tag counts.
func GetTagCountsKey(kind model.CommentKind) string {
	return fmt.Sprintf("tagcounts:%s", kind)
}

// GetTagCounts returns cached tag counts for a media kind. A nil client,
// a missing key or a decode failure all report a miss so callers fall back
// to the database.
func GetTagCounts(ctx context.Context, kind model.CommentKind) ([]model.TagCount, bool) {
	if db.RedisClient == nil {
		return nil, false
	}

	data, err := db.RedisClient.Get(ctx, GetTagCountsKey(kind)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Tag count cache read failed",
				logger.String("kind", string(kind)),
				logger.ErrorField(err))
		}
		return nil, false
	}

	var counts []model.TagCount
	if err := json.Unmarshal([]byte(data), &counts); err != nil {
		logger.Warn("Tag count cache entry corrupt",
			logger.String("kind", string(kind)),
			logger.ErrorField(err))
		return nil, false
	}
	return counts, true
}

// SetTagCounts stores tag counts for a media kind with a short TTL.
func SetTagCounts(ctx context.Context, kind model.CommentKind, counts []model.TagCount) {
	if db.RedisClient == nil {
		return
	}

	data, err := json.Marshal(counts)
	if err != nil {
		logger.Warn("Could not marshal tag counts", logger.ErrorField(err))
		return
	}
	if err := db.RedisClient.Set(ctx, GetTagCountsKey(kind), data, tagCountsTTL).Err(); err != nil {
		logger.Warn("Tag count cache write failed",
			logger.String("kind", string(kind)),
			logger.ErrorField(err))
	}
}

// InvalidateTagCounts drops the cached counts for a media kind after a
// mutation that may change tag assignments.
func InvalidateTagCounts(ctx context.Context, kind model.CommentKind) {
	if db.RedisClient == nil {
		return
	}
	if err := db.RedisClient.Del(ctx, GetTagCountsKey(kind)).Err(); err != nil {
		logger.Warn("Tag count cache invalidation failed",
			logger.String("kind", string(kind)),
			logger.ErrorField(err))
	}
}
