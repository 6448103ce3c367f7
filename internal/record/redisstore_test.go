package record

import (
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := NewRedisStore(fmt.Sprintf("redis://%s/0", mr.Addr()))
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.SetLockTimeout(time.Second)
	return s
}

func TestRedisStoreContract(t *testing.T) {
	runStoreContract(t, newTestRedisStore(t))
}

func TestRedisStoreRejectsBadURL(t *testing.T) {
	if _, err := NewRedisStore("http://localhost:6379"); err == nil {
		t.Fatalf("expected error for non-redis scheme")
	}
	if _, err := NewRedisStore(""); err == nil {
		t.Fatalf("expected error for empty url")
	}
}
