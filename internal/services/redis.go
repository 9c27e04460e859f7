package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/voyago/travel-booking/internal/clock"
)

// InitRedis connects to REDIS_URL. An empty URL means redis is not used.
func InitRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opt)
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}
	return client, nil
}

// TripLocker serialises booking attempts on one trip.
// TryLock returns ok=false when another holder has the trip.
type TripLocker interface {
	TryLock(ctx context.Context, tripID string) (unlock func(), ok bool, err error)
}

// unlockScript deletes the key only if it still holds our token.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTripLocker holds trip:lock:<id> with SET NX PX.
type RedisTripLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisTripLocker(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisTripLocker {
	return &RedisTripLocker{client: client, ttl: ttl, log: log}
}

func tripLockKey(tripID string) string {
	return "trip:lock:" + tripID
}

func (l *RedisTripLocker) TryLock(ctx context.Context, tripID string) (func(), bool, error) {
	key := tripLockKey(tripID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := unlockScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.log.Warn("failed to release trip lock", zap.String("trip_id", tripID), zap.Error(err))
		}
	}
	return unlock, true, nil
}

// LocalTripLocker is the in-process fallback used when redis is not configured.
type LocalTripLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalTripLocker() *LocalTripLocker {
	return &LocalTripLocker{held: make(map[string]struct{})}
}

func (l *LocalTripLocker) TryLock(_ context.Context, tripID string) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[tripID]; busy {
		return nil, false, nil
	}
	l.held[tripID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, tripID)
			l.mu.Unlock()
		})
	}, true, nil
}

// RateLimiter is a fixed-window request counter per client and service.
type RateLimiter struct {
	client  *redis.Client
	service string
	limit   int
	window  time.Duration
	clock   clock.Clock
}

func NewRateLimiter(client *redis.Client, service string, limit int, window time.Duration, clk clock.Clock) *RateLimiter {
	return &RateLimiter{client: client, service: service, limit: limit, window: window, clock: clk}
}

// Allow counts one request for clientID. When redis is absent or errors, requests are allowed.
func (r *RateLimiter) Allow(ctx context.Context, clientID string) (bool, error) {
	if r == nil || r.client == nil || r.limit <= 0 {
		return true, nil
	}

	windowSeconds := int64(r.window / time.Second)
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	bucket := r.clock.Now().Unix() / windowSeconds
	key := fmt.Sprintf("rate:%s:%s:%d", r.service, clientID, bucket)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, r.window).Err(); err != nil {
			return true, err
		}
	}
	return count <= int64(r.limit), nil
}
