package auth

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"cmsadmin/internal/errcode"
)

// memRedis implements the handful of commands the revoker and limiter use.
// Anything else panics through the nil embedded interface.
type memRedis struct {
	redis.UniversalClient

	mu     sync.Mutex
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemRedis() *memRedis {
	return &memRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := m.values[key]; ok {
			n++
		}
		delete(m.values, key)
		delete(m.ttls, key)
	}
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, _ := strconv.ParseInt(m.values[key], 10, 64)
	n++
	m.values[key] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (m *memRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return redis.NewBoolResult(false, nil)
	}
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (m *memRedis) TTL(ctx context.Context, key string) *redis.DurationCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; !ok {
		return redis.NewDurationResult(-2*time.Second, nil)
	}
	return redis.NewDurationResult(m.ttls[key], nil)
}

func (m *memRedis) ttl(key string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ttls[key]
}

// unreachableRedis fails every command without waiting on retries.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:0",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRevoker_RevokeUntilExpiry(t *testing.T) {
	ctx := context.Background()
	rdb := newMemRedis()
	revoker := NewRedisRevoker(rdb, time.Hour)

	revoked, err := revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, revoker.Revoke(ctx, "jti-1", time.Now().Add(10*time.Minute)))
	revoked, err = revoker.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)

	ttl := rdb.ttl(refreshTokenBlacklistKeyPrefix + "jti-1")
	require.Greater(t, ttl, 9*time.Minute)
	require.LessOrEqual(t, ttl, 10*time.Minute)

	// unknown expiry falls back to the default, past expiry to a floor
	require.NoError(t, revoker.Revoke(ctx, "jti-2", time.Time{}))
	require.Equal(t, time.Hour, rdb.ttl(refreshTokenBlacklistKeyPrefix+"jti-2"))
	require.NoError(t, revoker.Revoke(ctx, "jti-3", time.Now().Add(-time.Minute)))
	require.Equal(t, time.Second, rdb.ttl(refreshTokenBlacklistKeyPrefix+"jti-3"))
}

func TestRedisRevoker_LookupErrorIsReported(t *testing.T) {
	revoker := NewRedisRevoker(unreachableRedis(t), time.Hour)

	_, err := revoker.IsRevoked(context.Background(), "jti")
	require.Error(t, err)
	require.Error(t, revoker.Revoke(context.Background(), "jti", time.Time{}))
}

func TestRedisLoginLimiter_RateLimitsPerHour(t *testing.T) {
	ctx := context.Background()
	rdb := newMemRedis()
	limiter := NewRedisLoginLimiter(rdb, 2, 0, time.Minute)
	limiter.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

	require.NoError(t, limiter.Allow(ctx, "10.0.0.1", "Ann@Example.test"))
	require.NoError(t, limiter.Allow(ctx, "10.0.0.1", "ann@example.test"))
	err := limiter.Allow(ctx, "10.0.0.1", "ann@example.test")
	require.True(t, errcode.Is(err, errcode.KindRateLimited))
	require.Equal(t, "rate limit exceeded", errcode.PublicMessage(err))

	require.Equal(t, time.Hour, rdb.ttl("rate:login:10.0.0.1:ann@example.test:2026030109"))

	// another client address has its own budget
	require.NoError(t, limiter.Allow(ctx, "10.0.0.2", "ann@example.test"))

	// and so does the next hour
	limiter.now = func() time.Time { return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, limiter.Allow(ctx, "10.0.0.1", "ann@example.test"))
}

func TestRedisLoginLimiter_LocksAfterRepeatedFailures(t *testing.T) {
	ctx := context.Background()
	rdb := newMemRedis()
	limiter := NewRedisLoginLimiter(rdb, 0, 3, 15*time.Minute)

	limiter.RecordFailure(ctx, "bob@example.test")
	limiter.RecordFailure(ctx, "BOB@example.test")
	require.NoError(t, limiter.Allow(ctx, "10.0.0.1", "bob@example.test"))

	limiter.RecordFailure(ctx, "bob@example.test")
	err := limiter.Allow(ctx, "10.0.0.1", "bob@example.test")
	require.True(t, errcode.Is(err, errcode.KindRateLimited))
	require.Equal(t, "account temporarily locked", errcode.PublicMessage(err))
	require.Equal(t, 15*time.Minute, rdb.ttl("lock:login:bob@example.test"))

	// a successful login clears the failure count, not an active lock
	limiter.Reset(ctx, "bob@example.test")
	_, counted := rdb.values["lock:login:fail:bob@example.test"]
	require.False(t, counted)
	require.Error(t, limiter.Allow(ctx, "10.0.0.1", "bob@example.test"))
}

func TestRedisLoginLimiter_AllowsWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	limiter := NewRedisLoginLimiter(unreachableRedis(t), 1, 1, time.Minute)

	limiter.RecordFailure(ctx, "ann@example.test")
	require.NoError(t, limiter.Allow(ctx, "10.0.0.1", "ann@example.test"))
	require.NoError(t, limiter.Allow(ctx, "10.0.0.1", "ann@example.test"))
}
