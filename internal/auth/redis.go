package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cmsadmin/internal/errcode"
)

const refreshTokenBlacklistKeyPrefix = "auth:refresh:blacklist:"

// RefreshRevoker tracks refresh tokens that may no longer be exchanged.
type RefreshRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// LoginLimiter throttles password attempts per client and locks accounts after repeated failures.
type LoginLimiter interface {
	Allow(ctx context.Context, ip, email string) error
	RecordFailure(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

// RedisRevoker keeps revoked jtis until the token would have expired anyway.
type RedisRevoker struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
}

func NewRedisRevoker(client redis.UniversalClient, defaultTTL time.Duration) *RedisRevoker {
	return &RedisRevoker{client: client, defaultTTL: defaultTTL}
}

func (r *RedisRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := r.defaultTTL
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	if err := r.client.Set(ctx, refreshTokenBlacklistKeyPrefix+jti, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, refreshTokenBlacklistKeyPrefix+jti).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, fmt.Errorf("refresh blacklist lookup: %w", err)
	}
}

// RedisLoginLimiter counts attempts per ip+email per hour and failures per email.
// Redis outages degrade to allowing the attempt.
type RedisLoginLimiter struct {
	client        redis.UniversalClient
	perHour       int
	lockThreshold int
	lockTTL       time.Duration
	now           func() time.Time
}

func NewRedisLoginLimiter(client redis.UniversalClient, perHour, lockThreshold int, lockTTL time.Duration) *RedisLoginLimiter {
	return &RedisLoginLimiter{
		client:        client,
		perHour:       perHour,
		lockThreshold: lockThreshold,
		lockTTL:       lockTTL,
		now:           time.Now,
	}
}

func (l *RedisLoginLimiter) Allow(ctx context.Context, ip, email string) error {
	email = strings.ToLower(email)

	rateKey := "rate:login:" + ip + ":" + email + ":" + l.now().UTC().Format("2006010215")
	count, err := incrWithTTL(ctx, l.client, rateKey, time.Hour)
	if err != nil {
		count = 0
	}
	if l.perHour > 0 && count > int64(l.perHour) {
		return errcode.New(errcode.KindRateLimited, "rate limit exceeded")
	}

	if ttl, _ := l.client.TTL(ctx, "lock:login:"+email).Result(); ttl > 0 {
		return errcode.New(errcode.KindRateLimited, "account temporarily locked")
	}
	return nil
}

func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, email string) {
	email = strings.ToLower(email)
	count, err := incrWithTTL(ctx, l.client, "lock:login:fail:"+email, l.lockTTL)
	if err != nil {
		return
	}
	if l.lockThreshold > 0 && count >= int64(l.lockThreshold) {
		_ = l.client.Set(ctx, "lock:login:"+email, "1", l.lockTTL).Err()
	}
}

func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) {
	_ = l.client.Del(ctx, "lock:login:fail:"+strings.ToLower(email)).Err()
}

type redisRateCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

func incrWithTTL(ctx context.Context, client redisRateCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}
