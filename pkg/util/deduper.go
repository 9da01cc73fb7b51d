package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper is a best-effort fast path in front of the store-level
// existence check. It never replaces that check: when Redis is
// unavailable processing is allowed through.
type Deduper struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewDeduper(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Deduper {
	return &Deduper{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// AcquireOnce tries to acquire a dedup lock for a handler + message id.
// Returns true if this is the first time processing, false on a duplicate.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, messageID string) bool {
	if d == nil || d.rdb == nil {
		return true
	}

	key := fmt.Sprintf("dedup:%s:%s", handler, messageID)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("Redis dedup check failed, allowing processing",
				zap.String("handler", handler),
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
		return true
	}

	if !ok && d.logger != nil {
		d.logger.Info("Skipped duplicated message",
			zap.String("handler", handler),
			zap.String("message_id", messageID),
			zap.String("dedup_key", key),
		)
	}

	return ok
}

// Release drops the dedup key so a failed message is retried on the
// next poll. Best-effort: a leftover key expires with the TTL.
func (d *Deduper) Release(ctx context.Context, handler, messageID string) {
	if d == nil || d.rdb == nil {
		return
	}

	key := fmt.Sprintf("dedup:%s:%s", handler, messageID)
	if err := d.rdb.Del(ctx, key).Err(); err != nil && d.logger != nil {
		d.logger.Warn("Failed to release dedup key",
			zap.String("dedup_key", key),
			zap.Error(err),
		)
	}
}
