package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLockTTL        = 30 * time.Second
	DefaultAcquireTimeout = 10 * time.Second
	retryInterval         = 50 * time.Millisecond
	maxRetryInterval      = time.Second
)

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisLocker is a distributed Locker for several server instances sharing one database.
type RedisLocker struct {
	client     *redis.Client
	instanceID string
	ttl        time.Duration
	logger     *slog.Logger
}

func NewRedisLocker(client *redis.Client, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client:     client,
		instanceID: uuid.New().String(),
		ttl:        DefaultLockTTL,
		logger:     logger,
	}
}

// Connect opens a client and pings it.
func Connect(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Lock, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, DefaultAcquireTimeout)
	defer cancel()

	lockKey := "lock:" + key
	value := fmt.Sprintf("%s:%s", l.instanceID, uuid.New().String())
	wait := retryInterval

	for {
		ok, err := l.client.SetNX(acquireCtx, lockKey, value, l.ttl).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("redis error acquiring %s: %w", lockKey, err)
		}
		if ok {
			return &redisLock{locker: l, key: lockKey, value: value, acquiredAt: time.Now()}, nil
		}

		select {
		case <-acquireCtx.Done():
			l.logger.Warn("lock acquisition timed out", slog.String("key", lockKey))
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, lockKey)
		case <-time.After(wait):
		}
		wait = min(wait*2, maxRetryInterval)
	}
}

type redisLock struct {
	locker     *RedisLocker
	key        string
	value      string
	acquiredAt time.Time
}

func (l *redisLock) Release(ctx context.Context) error {
	result, err := releaseScript.Run(ctx, l.locker.client, []string{l.key}, l.value).Int64()
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	if result == 0 {
		l.locker.logger.Warn("lock expired before release",
			slog.String("key", l.key), slog.Duration("held", time.Since(l.acquiredAt)))
		return ErrLockNotHeld
	}
	return nil
}
