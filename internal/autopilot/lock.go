package autopilot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	appErrors "github.com/unclebandit/autobuzz-backend/internal/errors"
	"github.com/unclebandit/autobuzz-backend/internal/logging"
)

// RunLocker admits one active run per owner. Acquire fails with
// appErrors.ErrRunInProgress while another run holds the owner.
type RunLocker interface {
	Acquire(ctx context.Context, ownerID string) (release func(), err error)
}

// LocalRunLocker guards runs inside a single process.
type LocalRunLocker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewLocalRunLocker() *LocalRunLocker {
	return &LocalRunLocker{active: make(map[string]struct{})}
}

func (l *LocalRunLocker) Acquire(_ context.Context, ownerID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[ownerID]; busy {
		return nil, appErrors.ErrRunInProgress
	}
	l.active[ownerID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, ownerID)
			l.mu.Unlock()
		})
	}, nil
}

const runLockPrefix = "autobuzz:autopilot:run:"

var releaseRunLockScript = goredis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('del', KEYS[1])
else
  return 0
end
`)

var renewRunLockScript = goredis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
  return redis.call('pexpire', KEYS[1], ARGV[2])
else
  return 0
end
`)

// RedisRunLocker guards runs across server and worker processes with a
// SET NX lease. The holder extends the lease every renewEvery until release,
// so the TTL only bounds how long a crashed holder blocks the owner.
type RedisRunLocker struct {
	client     goredis.UniversalClient
	ttl        time.Duration
	renewEvery time.Duration
	logger     logging.Logger
}

func NewRedisRunLocker(client goredis.UniversalClient, ttl time.Duration, logger logging.Logger) *RedisRunLocker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisRunLocker{client: client, ttl: ttl, renewEvery: ttl / 3, logger: logger}
}

func (l *RedisRunLocker) Acquire(ctx context.Context, ownerID string) (func(), error) {
	key := runLockPrefix + ownerID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire run lease: %w", err)
	}
	if !ok {
		return nil, appErrors.ErrRunInProgress
	}

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go l.renew(ctx, key, token, stop, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-renewed
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := releaseRunLockScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.WithError(err).WithField("owner_id", ownerID).Warn("Failed to release run lease")
			}
		})
	}, nil
}

// renew keeps the lease alive until stop closes or the lease is lost.
func (l *RedisRunLocker) renew(ctx context.Context, key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.renewEvery)
	defer ticker.Stop()

	ctx = context.WithoutCancel(ctx)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			renewCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			n, err := renewRunLockScript.Run(renewCtx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				l.logger.WithError(err).WithField("key", key).Warn("Failed to extend run lease")
				continue
			}
			if n == 0 {
				l.logger.WithField("key", key).Warn("Run lease lost before the run finished")
				return
			}
		}
	}
}
