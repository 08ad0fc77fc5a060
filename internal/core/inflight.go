package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"pulsewatch/internal/cache"
)

// inflightGuard keeps at most one check per monitor running at a time.
//
// The lock is a cache key with a TTL so a crashed holder cannot block a
// monitor forever. Each acquisition stores its own token and release only
// deletes the key while it still holds that token, so a holder that outlived
// the TTL cannot free a lock taken since. When the cache itself fails the
// check runs anyway.
type inflightGuard struct {
	cache cache.Cache
	ttl   time.Duration
}

func inflightKey(monitorID string) string {
	return "inflight:monitor:" + monitorID
}

// acquire reports whether the caller may run a check for monitorID.
// When ok is true, release must be called once the check ends.
func (g *inflightGuard) acquire(ctx context.Context, monitorID string) (release func(), ok bool) {
	key := inflightKey(monitorID)

	token := []byte(uuid.NewString())

	won, err := g.cache.SetNX(ctx, key, token, g.ttl)
	if err != nil {
		log.Warn().Err(err).Str("monitor_id", monitorID).Msg("In-flight lock unavailable, running check anyway")
		return func() {}, true
	}
	if !won {
		return nil, false
	}

	return func() {
		released, err := g.cache.CompareAndDelete(context.WithoutCancel(ctx), key, token)
		if err != nil {
			log.Warn().Err(err).Str("monitor_id", monitorID).Msg("Failed to release in-flight lock")
			return
		}
		if !released {
			log.Warn().Str("monitor_id", monitorID).Dur("ttl", g.ttl).Msg("In-flight lock expired before the check finished")
		}
	}, true
}
