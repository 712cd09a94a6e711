// Package cache serves advisory remaining-seat counts from Redis for the
// public browse endpoints.  Values here are display hints with a short
// TTL; the admission decision never reads them; it recomputes remaining
// capacity under the exhibition row lock.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// seatTTL bounds how stale a displayed count can be.
const seatTTL = 30 * time.Second

// SeatCache wraps a Redis client.  A nil client disables caching and every
// read falls through to the loader.
type SeatCache struct {
	rdb *redis.Client
}

func NewSeatCache(rdb *redis.Client) *SeatCache { return &SeatCache{rdb: rdb} }

func key(exhibitionID uint64) string {
	return "seats:remaining:" + strconv.FormatUint(exhibitionID, 10)
}

// Remaining returns the cached remaining-seat count for an exhibition,
// falling back to load on miss and storing the result.  Loader errors are
// returned unchanged; cache errors degrade to a direct load.
func (c *SeatCache) Remaining(ctx context.Context, exhibitionID uint64, load func(context.Context, uint64) (uint32, error)) (uint32, error) {
	if c == nil || c.rdb == nil {
		return load(ctx, exhibitionID)
	}
	if v, err := c.rdb.Get(ctx, key(exhibitionID)).Result(); err == nil {
		if n, perr := strconv.ParseUint(v, 10, 32); perr == nil {
			return uint32(n), nil
		}
	}
	n, err := load(ctx, exhibitionID)
	if err != nil {
		return 0, err
	}
	_ = c.rdb.Set(ctx, key(exhibitionID), strconv.FormatUint(uint64(n), 10), seatTTL).Err()
	return n, nil
}

// Invalidate drops the cached count after a successful registration or
// cancellation so displays converge quickly.
func (c *SeatCache) Invalidate(ctx context.Context, exhibitionID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Del(ctx, key(exhibitionID)).Err()
}
