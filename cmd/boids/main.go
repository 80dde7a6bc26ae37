package main

import (
	"context"
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/game"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/simulation"
)

func main() {
	configFile := flag.String("config", "", "JSON or YAML config file (defaults when empty)")
	watch := flag.Bool("watch", false, "restart the run whenever the config file changes")
	debug := flag.Bool("debug", false, "log every message handled by the world")
	flag.Parse()

	level := golog.InfoLevel
	if *debug {
		level = golog.DebugLevel
	}
	logger := golog.New(level, os.Stdout)

	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
	}

	var watcher *simulation.ConfigWatcher
	if *watch && *configFile != "" {
		var err error
		if watcher, err = simulation.NewConfigWatcher(*configFile); err != nil {
			logger.Fatalf("Failed to watch config: %v", err)
		}
		defer watcher.Close()
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("BoidsWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		logger.Fatalf("Failed to create actor system: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatalf("Failed to start actor system: %v", err)
	}
	defer system.Stop(ctx)

	g, err := game.NewGame(ctx, cfg, system, logger, watcher)
	if err != nil {
		logger.Fatalf("Failed to start game: %v", err)
	}

	ebiten.SetWindowSize(cfg.ScreenWidth, cfg.ScreenHeight)
	ebiten.SetWindowTitle("Boids: follow the target (click to move it)")
	if err := ebiten.RunGame(g); err != nil {
		logger.Error(err)
	}
}
