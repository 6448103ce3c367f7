package record

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s.SetLockTimeout(time.Second)
	return s
}

func TestFileStoreContract(t *testing.T) {
	runStoreContract(t, newTestFileStore(t))
}

func TestFileStoreLayout(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	// The on-disk names are the exchange format other node software reads;
	// they must not drift.
	if err := s.Put(ctx, "G7", KindPlayers, "KD9GEK\nN0CALL"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, "G7_players.txt"))
	if err != nil {
		t.Fatalf("expected G7_players.txt: %v", err)
	}
	if string(raw) != "KD9GEK\nN0CALL" {
		t.Fatalf("unexpected file contents: %q", raw)
	}
}

func TestFileStoreStaleLockTakeover(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()

	lockPath := filepath.Join(s.dir, "G1.lock")
	if err := os.WriteFile(lockPath, []byte("12345\n"), 0o644); err != nil {
		t.Fatalf("plant lock: %v", err)
	}
	old := time.Now().Add(-2 * lockStaleAfter)
	if err := os.Chtimes(lockPath, old, old); err != nil {
		t.Fatalf("age lock: %v", err)
	}

	release, err := s.Acquire(ctx, "G1")
	if err != nil {
		t.Fatalf("expected stale lock takeover, got %v", err)
	}
	release()
}

func TestFileStorePutLeavesNoTempFiles(t *testing.T) {
	s := newTestFileStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := s.Put(ctx, "G1", KindGame, "fen"); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only the record file, got %v", names)
	}
}
