package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Backend selects how the shared game records are stored.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// AppConfig covers all three binaries. Everything defaults to the flat-file
// layout under GameDir so a bare node works with no configuration at all;
// Redis and the result archive are opt-in.
type AppConfig struct {
	GameDir string `yaml:"game-dir" env:"GAME_DIR" env-default:"/var/lib/bpq-chess/games"`
	MailDir string `yaml:"mail-dir" env:"BPQ_MAIL_DIR" env-default:"/var/lib/linbpq/messages"`

	StorageBackend string `yaml:"storage-backend" env:"STORAGE_BACKEND" env-default:"file"`
	RedisURL       string `yaml:"redis-url" env:"REDIS_URL"`
	DatabaseURL    string `yaml:"database-url" env:"DATABASE_URL"`

	LockTimeout  time.Duration `yaml:"lock-timeout" env:"LOCK_TIMEOUT" env-default:"5s"`
	PollInterval time.Duration `yaml:"poll-interval" env:"RELAY_POLL_INTERVAL" env-default:"30s"`

	MessageDir string `yaml:"message-dir" env:"MESSAGE_DIR"`

	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFile  string `yaml:"log-file" env:"LOG_FILE"`
}

// Load reads the optional yaml config file and applies environment
// overrides on top. An empty path means environment only.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	var err error
	if strings.TrimSpace(path) != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	switch cfg.StorageBackend {
	case BackendFile:
	case BackendRedis:
		if strings.TrimSpace(cfg.RedisURL) == "" {
			return nil, fmt.Errorf("REDIS_URL is required with the redis backend")
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
	return cfg, nil
}
