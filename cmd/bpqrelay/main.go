package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/kd9gek/bpq-chess/internal/config"
	"github.com/kd9gek/bpq-chess/internal/gamebuilder"
	"github.com/kd9gek/bpq-chess/internal/obslog"
	"github.com/kd9gek/bpq-chess/internal/relay"
	"go.uber.org/zap"
)

// bpqrelay processes moves submitted over BPQ mail. By default it polls
// the mailbox until stopped; -once drains a single batch, which fits cron
// driven nodes.
func main() {
	configPath := flag.String("config", "", "path to yaml config (env-only when empty)")
	once := flag.Bool("once", false, "drain one batch and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(obslog.Options{Level: cfg.LogLevel, FilePath: cfg.LogFile, Console: true}); err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer obslog.L().Sync()

	deps, err := gamebuilder.New(cfg, obslog.L())
	if err != nil {
		log.Fatalf("init error: %v", err)
	}
	defer deps.Close()

	box, err := relay.NewMailbox(cfg.MailDir)
	if err != nil {
		log.Fatalf("mailbox error: %v", err)
	}
	proc := relay.NewProcessor(deps.Store, box, deps.Catalog, obslog.L())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := proc.RunOnce(ctx); err != nil {
			log.Fatalf("relay error: %v", err)
		}
		return
	}

	obslog.L().Info("relay_started", zap.Duration("interval", cfg.PollInterval))
	if err := proc.Run(ctx, cfg.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("relay error: %v", err)
	}
}
