package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/angelmondragon/rpg-market/api/responses"
	pkgerrors "github.com/angelmondragon/rpg-market/pkg/errors"
	"github.com/angelmondragon/rpg-market/pkg/logger"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// BidLimiter answers whether a key may act now.
type BidLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// BidRateLimiter throttles bids per user with GCRA in redis. When redis is
// unreachable it falls back to an in-process token bucket per key.
type BidRateLimiter struct {
	limiter  BidLimiter
	fallback *localLimiter
	limit    redis_rate.Limit
	logg     *logger.Logger
}

// NewBidRateLimiter builds a limiter allowing perMinute bids with the given
// burst. rdb may be nil, in which case only the local bucket is used.
func NewBidRateLimiter(rdb *redis.Client, perMinute, burst int, logg *logger.Logger) *BidRateLimiter {
	var limiter BidLimiter
	if rdb != nil {
		limiter = redis_rate.NewLimiter(rdb)
	}
	return newBidRateLimiter(limiter, perMinute, burst, logg)
}

func newBidRateLimiter(limiter BidLimiter, perMinute, burst int, logg *logger.Logger) *BidRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	limit := redis_rate.PerMinute(perMinute)
	limit.Burst = burst
	return &BidRateLimiter{
		limiter:  limiter,
		fallback: newLocalLimiter(),
		limit:    limit,
		logg:     logg,
	}
}

// Handler limits by authenticated user; it must run after Auth.
func (rl *BidRateLimiter) Handler(next http.Handler) http.Handler {
	if rl == nil || rl.limit.Rate <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := UserIDFromContext(ctx)
		if userID == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := "bids:user:" + userID
		res := rl.allow(ctx, key)

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit.Rate))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if res.Allowed == 0 {
			retryAfter := int(res.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			h.Set("Retry-After", strconv.Itoa(retryAfter))
			if rl.logg != nil {
				rl.logg.Warn(rl.logg.WithFields(ctx, map[string]any{
					"retry_after_seconds": retryAfter,
					"limit_per_minute":    rl.limit.Rate,
				}), "bid.rate_limit.blocked")
			}
			err := pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("too many bids, retry in %d seconds", retryAfter))
			responses.WriteError(ctx, nil, w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *BidRateLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	if rl.limiter != nil {
		res, err := rl.limiter.Allow(ctx, key, rl.limit)
		if err == nil {
			return res
		}
		if rl.logg != nil {
			rl.logg.Warn(rl.logg.WithField(ctx, "error", err.Error()), "bid.rate_limit.fallback")
		}
	}
	return rl.fallback.allow(key, rl.limit)
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

type localLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
}

const localEntryTTL = 10 * time.Minute

func newLocalLimiter() *localLimiter {
	return &localLimiter{entries: map[string]*limiterEntry{}}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for k, e := range l.entries {
		if now.Sub(e.lastAccess) > localEntryTTL {
			delete(l.entries, k)
		}
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(ratePerSec), limit.Burst)}
		l.entries[key] = entry
	}
	entry.lastAccess = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}
	if entry.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = time.Duration(float64(time.Second) / ratePerSec)
	}
	if remaining := int(entry.limiter.TokensAt(now)); remaining > 0 {
		res.Remaining = remaining
	}
	return res
}
