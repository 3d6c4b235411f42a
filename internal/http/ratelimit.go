package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/statuspage/internal/telemetry"
	"golang.org/x/time/rate"
)

const limiterSweepInterval = 5 * time.Minute

// RateDecision is the outcome of a single rate limit check.
type RateDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) RateDecision
	Close() error
}

// MemoryRateLimiter is a per-key token bucket held in process memory.
// Suitable for a single replica.
type MemoryRateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*visitor
	stopCh   chan struct{}
	once     sync.Once
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryRateLimiter allows perMinute requests per key per minute.
func NewMemoryRateLimiter(perMinute int) *MemoryRateLimiter {
	rl := &MemoryRateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    perMinute,
		limiters: make(map[string]*visitor),
		stopCh:   make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *MemoryRateLimiter) Allow(_ context.Context, key string) RateDecision {
	rl.mu.Lock()
	v, ok := rl.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = v
	}
	v.lastSeen = time.Now()
	rl.mu.Unlock()

	r := v.limiter.Reserve()
	if delay := r.Delay(); delay > 0 {
		r.Cancel()
		return RateDecision{Allowed: false, RetryAfter: delay}
	}
	return RateDecision{Allowed: true, Remaining: int(v.limiter.Tokens())}
}

func (rl *MemoryRateLimiter) sweepLoop() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			rl.sweep(now)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *MemoryRateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, v := range rl.limiters {
		if now.Sub(v.lastSeen) > limiterSweepInterval {
			delete(rl.limiters, key)
		}
	}
}

func (rl *MemoryRateLimiter) Close() error {
	rl.once.Do(func() {
		close(rl.stopCh)
	})
	return nil
}

// RedisRateLimiter is a fixed window counter shared between replicas.
// Redis failures fail open.
type RedisRateLimiter struct {
	client  *redis.Client
	limit   int
	window  time.Duration
	prefix  string
	timeout time.Duration
}

// NewRedisRateLimiter connects to addr and allows perMinute requests per key per minute.
func NewRedisRateLimiter(ctx context.Context, addr string, perMinute int) (*RedisRateLimiter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisRateLimiter{
		client:  client,
		limit:   perMinute,
		window:  time.Minute,
		prefix:  "statuspage:ratelimit:",
		timeout: 250 * time.Millisecond,
	}, nil
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) RateDecision {
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		log.Error().Err(err).Str("op", "incr").Msg("Redis rate limiter error")
		return RateDecision{Allowed: true}
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			log.Error().Err(err).Str("op", "expire").Msg("Redis rate limiter error")
		}
	}

	if int(counter) <= rl.limit {
		return RateDecision{Allowed: true, Remaining: rl.limit - int(counter)}
	}

	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = rl.window
	}
	return RateDecision{Allowed: false, RetryAfter: ttl}
}

func (rl *RedisRateLimiter) Close() error {
	return rl.client.Close()
}

// RateLimitMiddleware rejects requests over the limit with 429, keyed by
// the client IP stored by ClientIPMiddleware.
func RateLimitMiddleware(limiter RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIPFromContext(r.Context())
			if key == "" {
				key = ExtractClientIP(r, ClientIPOptions{})
			}

			decision := limiter.Allow(r.Context(), "ip:"+key)
			if !decision.Allowed {
				seconds := int(decision.RetryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				telemetry.GetMetrics().RateLimitedTotal.Add(r.Context(), 1)
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}
