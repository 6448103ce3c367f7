package record

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultLockTimeout = 5 * time.Second

	// A lock older than this is assumed to belong to a crashed process and
	// is taken over. Operations hold the lock for milliseconds.
	lockStaleAfter = 30 * time.Second

	lockRetryDelay = 25 * time.Millisecond
)

// FileStore keeps one set of flat files per game under a shared directory:
// <id>_game.txt, <id>_turn.txt, <id>_players.txt. This is the layout the
// BBS door programs exchange on disk, so it doubles as the wire format.
type FileStore struct {
	dir         string
	lockTimeout time.Duration
}

func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("game directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", ErrUnavailable, dir, err)
	}
	return &FileStore{dir: dir, lockTimeout: defaultLockTimeout}, nil
}

// SetLockTimeout overrides how long Acquire waits for a busy game.
func (s *FileStore) SetLockTimeout(d time.Duration) {
	if d > 0 {
		s.lockTimeout = d
	}
}

func (s *FileStore) Get(ctx context.Context, gameID string, kind Kind) (string, bool, error) {
	path, err := s.recordPath(gameID, kind)
	if err != nil {
		return "", false, err
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}
	return string(raw), true, nil
}

func (s *FileStore) Put(ctx context.Context, gameID string, kind Kind, text string) error {
	path, err := s.recordPath(gameID, kind)
	if err != nil {
		return err
	}
	// Write-then-rename so a reader never sees a half-written record.
	tmp, err := os.CreateTemp(s.dir, gameID+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: temp file: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: rename %s: %v", ErrUnavailable, path, err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, gameID string, kinds ...Kind) error {
	for _, kind := range kinds {
		path, err := s.recordPath(gameID, kind)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove %s: %v", ErrUnavailable, path, err)
		}
	}
	return nil
}

func (s *FileStore) ListGames(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", ErrUnavailable, s.dir, err)
	}
	suffix := "_" + string(KindPlayers) + ".txt"
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, suffix) {
			ids = append(ids, strings.TrimSuffix(name, suffix))
		}
	}
	return ids, nil
}

// Acquire creates <id>.lock with O_EXCL. Writers from other processes spin
// on the same file, so a held lock gives single-writer-at-a-time semantics
// for that game only.
func (s *FileStore) Acquire(ctx context.Context, gameID string) (func(), error) {
	if err := validateGameID(gameID); err != nil {
		return nil, err
	}
	lockPath := filepath.Join(s.dir, gameID+".lock")
	deadline := time.Now().Add(s.lockTimeout)
	for {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return func() { os.Remove(lockPath) }, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("%w: lock %s: %v", ErrUnavailable, lockPath, err)
		}
		if info, serr := os.Stat(lockPath); serr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			// Holder is long gone; take the lock over.
			os.Remove(lockPath)
			continue
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

func (s *FileStore) recordPath(gameID string, kind Kind) (string, error) {
	if err := validateGameID(gameID); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, fmt.Sprintf("%s_%s.txt", gameID, kind)), nil
}

// validateGameID rejects identifiers that would escape the game directory
// or collide with the record naming convention.
func validateGameID(gameID string) error {
	id := strings.TrimSpace(gameID)
	if id == "" || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrBadGameID, gameID)
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrBadGameID, gameID)
	}
	return nil
}
