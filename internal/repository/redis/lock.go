package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixLock    = "giveaway:lock:"
	lockPollInterval = 25 * time.Millisecond
)

// ErrLocked is returned by TryLock when another holder owns the key.
var ErrLocked = errors.New("lock already held")

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// refreshScript extends the lock only if the caller still owns it.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// Locker is a SETNX based mutex shared by every bot instance using the same
// Redis. A held lock is refreshed every ttl/3 until released, so only a
// crashed holder lets it expire.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// Lock blocks until key is acquired or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	t := time.NewTicker(lockPollInterval)
	defer t.Stop()
	for {
		unlock, err := l.TryLock(ctx, key)
		if !errors.Is(err, ErrLocked) {
			return unlock, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// TryLock acquires key once, returning ErrLocked if it is held.
func (l *Locker) TryLock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, keyPrefixLock+key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(keyPrefixLock+key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// release must outlive a cancelled caller context
			releaseScript.Run(context.Background(), l.client, []string{keyPrefixLock + key}, token)
		})
	}, nil
}

func (l *Locker) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	interval := l.ttl / 3
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			n, err := refreshScript.Run(context.Background(), l.client, []string{key}, token, l.ttl.Milliseconds()).Int64()
			if err == nil && n == 0 {
				// lost the key to expiry; a new holder owns it now
				return
			}
		}
	}
}
