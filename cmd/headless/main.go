// Command headless runs the swarm without a window, driving the world actor
// with a fixed timestep and recording telemetry to CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/script"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/telemetry"
)

const askTimeout = 5 * time.Second

type options struct {
	configFile string
	ticks      int
	dt         float64
	scriptFile string
	outDir     string
}

func main() {
	var opts options
	flag.StringVar(&opts.configFile, "config", "", "JSON or YAML config file (defaults when empty)")
	flag.IntVar(&opts.ticks, "ticks", 600, "number of ticks to run")
	flag.Float64Var(&opts.dt, "dt", 1.0/60, "seconds per tick")
	flag.StringVar(&opts.scriptFile, "script", "", "tengo target script (overrides the config)")
	flag.StringVar(&opts.outDir, "out", "", "directory for agents.csv, stats.csv, config.yaml and final.json")
	debug := flag.Bool("debug", false, "verbose logging")
	flag.Parse()

	level := golog.InfoLevel
	if *debug {
		level = golog.DebugLevel
	}
	logger := golog.New(level, os.Stdout)

	if err := run(opts, logger); err != nil {
		logger.Fatalf("Headless run failed: %v", err)
	}
}

// run owns the recorder and the actor system; both are closed before it returns.
func run(opts options, logger golog.Logger) (err error) {
	cfg := simulation.DefaultConfig()
	if opts.configFile != "" {
		if cfg, err = simulation.LoadConfig(opts.configFile); err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	if opts.scriptFile != "" {
		cfg.TargetScript = opts.scriptFile
	}

	var target *script.TargetScript
	if cfg.TargetScript != "" {
		if target, err = script.LoadTargetScript(cfg.TargetScript); err != nil {
			return fmt.Errorf("loading target script: %w", err)
		}
	}

	recorder, err := telemetry.NewRecorder(opts.outDir)
	if err != nil {
		return fmt.Errorf("opening output: %w", err)
	}
	defer func() {
		if cerr := recorder.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing output: %w", cerr)
		}
	}()
	if recorder != nil {
		if err := cfg.WriteYAML(filepath.Join(recorder.Dir(), "config.yaml")); err != nil {
			return err
		}
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("BoidsHeadless", actor.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return fmt.Errorf("starting actor system: %w", err)
	}
	defer func() {
		if serr := system.Stop(ctx); serr != nil {
			logger.Warnf("Stopping actor system: %v", serr)
		}
	}()

	pid, err := system.Spawn(ctx, "world", simulation.NewWorldActor(nil, cfg))
	if err != nil {
		return fmt.Errorf("spawning world: %w", err)
	}

	if target == nil {
		if err := actor.Tell(ctx, pid, simulation.NewSetTarget(geometry.Zero)); err != nil {
			return fmt.Errorf("placing target: %w", err)
		}
	}

	started := time.Now()
	var last *simulation.Snapshot
	for i := 0; i < opts.ticks; i++ {
		if target != nil {
			if err := driveTarget(ctx, pid, target, float64(i)*opts.dt, uint64(i)); err != nil {
				return fmt.Errorf("tick %d: %w", i, err)
			}
		}
		if err := actor.Tell(ctx, pid, simulation.NewTick(opts.dt)); err != nil {
			return fmt.Errorf("tick %d: %w", i, err)
		}

		reply, err := actor.Ask(ctx, pid, simulation.NewGetSnapshot(), askTimeout)
		if err != nil {
			return fmt.Errorf("snapshot %d: %w", i, err)
		}
		if last, err = simulation.SnapshotFromProto(reply); err != nil {
			return fmt.Errorf("snapshot %d: %w", i, err)
		}
		if err := recorder.WriteStats(last.Stats); err != nil {
			return err
		}
		if err := recorder.WriteAgents(last.Samples()); err != nil {
			return err
		}
	}

	if last == nil {
		return nil
	}
	logger.Infof("Ran %d ticks (%.1fs simulated) in %s | mean distance %.1f ± %.1f | alignment %.2f | colliding %d",
		last.Stats.Tick, last.Stats.Elapsed, time.Since(started).Round(time.Millisecond),
		last.Stats.MeanDistance, last.Stats.StdDevDistance, last.Stats.MeanAlignment, last.Stats.Colliding)
	if recorder == nil {
		return nil
	}
	b, err := last.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding final snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(recorder.Dir(), "final.json"), b, 0o644); err != nil {
		return fmt.Errorf("writing final snapshot: %w", err)
	}
	return nil
}

// driveTarget evaluates the target script and forwards the result to the world.
func driveTarget(ctx context.Context, pid *actor.PID, target *script.TargetScript, t float64, tick uint64) error {
	pos, ok, err := target.Eval(t, tick)
	if err != nil {
		return err
	}
	if !ok {
		return actor.Tell(ctx, pid, simulation.NewClearTargets())
	}
	return actor.Tell(ctx, pid, simulation.NewSetTarget(pos))
}
