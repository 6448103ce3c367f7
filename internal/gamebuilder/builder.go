package gamebuilder

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kd9gek/bpq-chess/internal/archive"
	"github.com/kd9gek/bpq-chess/internal/config"
	"github.com/kd9gek/bpq-chess/internal/lobby"
	"github.com/kd9gek/bpq-chess/internal/msgcat"
	"github.com/kd9gek/bpq-chess/internal/record"
	"github.com/kd9gek/bpq-chess/internal/rules"
	"github.com/kd9gek/bpq-chess/internal/session"
)

// Deps wires the shared core for all three binaries: record store backend,
// rules engine, session store, directory and message catalog.
type Deps struct {
	Store   *session.Store
	Records record.Store
	Lobby   *lobby.Directory
	Catalog *msgcat.Catalog

	closer interface{ Close() error }
}

func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Deps{}

	switch cfg.StorageBackend {
	case config.BackendRedis:
		rs, err := record.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init redis store: %w", err)
		}
		rs.SetLockTimeout(cfg.LockTimeout)
		deps.Records = rs
		deps.closer = rs
	default:
		fs, err := record.NewFileStore(cfg.GameDir)
		if err != nil {
			return nil, fmt.Errorf("init file store: %w", err)
		}
		fs.SetLockTimeout(cfg.LockTimeout)
		deps.Records = fs
	}

	deps.Store = session.NewStore(deps.Records, rules.NewEngine(), logger)

	// Result archive: Postgres when configured, in-process otherwise.
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, err := archive.NewPostgresRepository(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init archive: %w", err)
		}
		deps.Store.AttachArchive(repo)
	} else {
		deps.Store.AttachArchive(archive.NewMemoryRepository())
	}

	cat, err := msgcat.New(cfg.MessageDir)
	if err != nil {
		return nil, fmt.Errorf("init message catalog: %w", err)
	}
	deps.Catalog = cat
	deps.Lobby = lobby.NewDirectory(deps.Records)
	return deps, nil
}

func (d *Deps) Close() error {
	if d == nil || d.closer == nil {
		return nil
	}
	return d.closer.Close()
}
