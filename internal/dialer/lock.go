package dialer

import (
	"context"
	"log/slog"
	"time"

	"voca-platform/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// LeadLocker serializes outbound dispatch per lead so two concurrent calls
// cannot race their qualification writes onto the same lead.
type LeadLocker interface {
	// Acquire returns false when a call for the lead is already in flight.
	Acquire(ctx context.Context, leadID string) (bool, error)
	// Release frees the slot; failures are logged, not propagated, because
	// the TTL reclaims leaked slots anyway.
	Release(ctx context.Context, leadID string)
}

// RedisLeadLocker implements LeadLocker on the shared Redis instance with an
// atomic Lua acquire (limit 1) and a TTL sized to the longest plausible call.
type RedisLeadLocker struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

const defaultLockTTL = 30 * time.Minute

func NewRedisLeadLocker(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *RedisLeadLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &RedisLeadLocker{rdb: rdb, ttl: ttl, log: log}
}

func lockKey(leadID string) string { return "dial:lead:" + leadID }

func (l *RedisLeadLocker) Acquire(ctx context.Context, leadID string) (bool, error) {
	return utils.AcquireDispatchSlot(ctx, l.rdb, lockKey(leadID), 1, l.ttl)
}

func (l *RedisLeadLocker) Release(ctx context.Context, leadID string) {
	if err := utils.ReleaseDispatchSlot(ctx, l.rdb, lockKey(leadID)); err != nil {
		l.log.Warn("lead lock release failed", "lead_id", leadID, "err", err)
	}
}
