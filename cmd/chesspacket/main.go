package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/kd9gek/bpq-chess/internal/config"
	"github.com/kd9gek/bpq-chess/internal/console"
	"github.com/kd9gek/bpq-chess/internal/gamebuilder"
	"github.com/kd9gek/bpq-chess/internal/obslog"
)

// chesspacket is the interactive BBS door: stdin/stdout belong to the
// connected operator, so logs go to the file sink only.
func main() {
	configPath := flag.String("config", "", "path to yaml config (env-only when empty)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(obslog.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile, Console: false}); err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer obslog.L().Sync()

	deps, err := gamebuilder.New(cfg, obslog.L())
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	door := console.New(deps.Store, deps.Lobby, deps.Catalog, os.Stdin, os.Stdout, obslog.L())
	if err := door.Run(context.Background()); err != nil {
		log.Fatalf("session error: %v", err)
	}
}
