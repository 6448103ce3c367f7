package record

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// A crashed holder's lock expires on its own after this TTL.
	redisLockTTL = 30 * time.Second
)

// unlockScript releases a lock only if the caller still holds it.
const unlockScript = `if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) end return 0`

// RedisStore keeps the per-game records under chess:<id>:{game,turn,players}
// keys. It is behaviorally interchangeable with FileStore; the node sysop
// picks the backend that fits the deployment.
type RedisStore struct {
	rdb         *redis.Client
	lockTimeout time.Duration
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis record store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis ping: %v", ErrUnavailable, err)
	}
	return &RedisStore{rdb: rdb, lockTimeout: defaultLockTimeout}, nil
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// SetLockTimeout overrides how long Acquire waits for a busy game.
func (s *RedisStore) SetLockTimeout(d time.Duration) {
	if d > 0 {
		s.lockTimeout = d
	}
}

func (s *RedisStore) Get(ctx context.Context, gameID string, kind Kind) (string, bool, error) {
	if err := validateGameID(gameID); err != nil {
		return "", false, err
	}
	raw, err := s.rdb.Get(ctx, recordKey(gameID, kind)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, recordKey(gameID, kind), err)
	}
	return raw, true, nil
}

func (s *RedisStore) Put(ctx context.Context, gameID string, kind Kind, text string) error {
	if err := validateGameID(gameID); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, recordKey(gameID, kind), text, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, recordKey(gameID, kind), err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, gameID string, kinds ...Kind) error {
	if err := validateGameID(gameID); err != nil {
		return err
	}
	keys := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		keys = append(keys, recordKey(gameID, kind))
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: del %s: %v", ErrUnavailable, gameID, err)
	}
	return nil
}

func (s *RedisStore) ListGames(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	pattern := "chess:*:" + string(KindPlayers)
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrUnavailable, err)
		}
		for _, key := range keys {
			id := strings.TrimSuffix(strings.TrimPrefix(key, "chess:"), ":"+string(KindPlayers))
			ids = append(ids, id)
		}
		cursor = next
		if cursor == 0 {
			return ids, nil
		}
	}
}

// Acquire takes chess:<id>:lock with SET NX. The TTL bounds how long a
// crashed holder can block the game.
func (s *RedisStore) Acquire(ctx context.Context, gameID string) (func(), error) {
	if err := validateGameID(gameID); err != nil {
		return nil, err
	}
	lockKey := "chess:" + gameID + ":lock"
	token := uuid.NewString()
	deadline := time.Now().Add(s.lockTimeout)
	for {
		ok, err := s.rdb.SetNX(ctx, lockKey, token, redisLockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: lock %s: %v", ErrUnavailable, gameID, err)
		}
		if ok {
			release := func() {
				s.rdb.Eval(context.Background(), unlockScript, []string{lockKey}, token)
			}
			return release, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockBusy, gameID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}

func recordKey(gameID string, kind Kind) string {
	return "chess:" + strings.TrimSpace(gameID) + ":" + string(kind)
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
