package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carelink/escort-platform/pkg/logging"
)

// Guard deduplicates match announcements when two invocations race to the
// same request/availability pair. The store's conditional updates already
// prevent a double state transition; the guard keeps the losing invocation
// from re-sending notifications. A nil guard or an unreachable Redis
// degrades to unguarded behavior.
type Guard struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewGuard builds a guard backed by the provided Redis client.
func NewGuard(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Guard {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Guard{
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

// Acquire claims the announcement slot for a pair. It returns true when this
// invocation is the first to claim it, or whenever the guard cannot decide.
func (g *Guard) Acquire(ctx context.Context, requestID, availabilityID string) bool {
	if g == nil || g.redis == nil {
		return true
	}
	ok, err := g.redis.SetNX(ctx, matchKey(requestID, availabilityID), 1, g.ttl).Result()
	if err != nil {
		g.logger.Warn("match guard unavailable, proceeding unguarded", "error", err)
		return true
	}
	return ok
}

func matchKey(requestID, availabilityID string) string {
	return fmt.Sprintf("match:%s:%s", requestID, availabilityID)
}
