package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/kd9gek/bpq-chess/internal/config"
	"github.com/kd9gek/bpq-chess/internal/gamebuilder"
	"github.com/kd9gek/bpq-chess/internal/obslog"
)

// opengames prints the game identifiers still waiting for a second player.
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

	deps, err := gamebuilder.New(cfg, obslog.L())
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	open, err := deps.Lobby.Open(context.Background())
	if err != nil {
		log.Fatalf("list error: %v", err)
	}
	if len(open) == 0 {
		fmt.Println(deps.Catalog.Line("console.no_open_games"))
		return
	}
	fmt.Println(deps.Catalog.Line("console.open_games_header"))
	for _, id := range open {
		fmt.Printf("- %s\n", id)
	}
}
