package simulation

import (
	"fmt"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/collision"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/swarm"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/telemetry"
)

// WorldActor owns the authoritative swarm. The render loop or a headless
// driver sends it Tick and target messages; after every tick it pushes a
// Snapshot to snapshotCh without blocking.
type WorldActor struct {
	cfg      *Config
	world    *swarm.World
	detector *collision.Detector

	snapshotCh chan<- *Snapshot
	positions  []geometry.Vector2D
	flags      []bool
	stats      telemetry.Stats

	// --- Benchmark Stats ---
	ticksSinceLog int
	stepTime      time.Duration
	lastLogTime   time.Time
}

// NewWorldActor creates the world logic unit. snapshotCh may be nil when
// snapshots are only read through GetSnapshot.
func NewWorldActor(snapshotCh chan<- *Snapshot, cfg *Config) *WorldActor {
	return &WorldActor{
		cfg:         cfg,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(ctx *actor.Context) error {
	if err := w.reset(w.cfg); err != nil {
		return fmt.Errorf("building world: %w", err)
	}
	opts := w.world.Options()
	ctx.ActorSystem().Logger().Infof("World built: %d agents, %s index, %d workers, seed %d",
		w.world.Len(), opts.NeighborIndex, opts.Workers, opts.Seed)
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	if _, ok := ctx.Message().(*goaktpb.PostStart); ok {
		ctx.Logger().Info("World started")
		return
	}

	msg := ctx.Message()
	switch MessageName(msg) {
	case TickName:
		start := time.Now()
		if err := w.tick(tickDelta(msg)); err != nil {
			ctx.Logger().Warnf("tick rejected: %v", err)
			return
		}
		w.stepTime += time.Since(start)
		w.ticksSinceLog++
		w.logBenchmarks(ctx)
		w.pushSnapshot()

	case SetTargetName:
		pos := targetPosition(msg)
		w.world.SetTarget(pos)
		ctx.Logger().Debugf("set Target position to %v", pos)

	case ClearTargetsName:
		w.world.ClearTargets()

	case ResetName:
		cfg, err := resetConfig(msg)
		if err != nil {
			ctx.Logger().Errorf("reset rejected: %v", err)
			return
		}
		if err := w.reset(cfg); err != nil {
			ctx.Logger().Errorf("reset failed: %v", err)
			return
		}
		ctx.Logger().Infof("World reset: %d agents, %s index", w.world.Len(), cfg.NeighborIndex)
		w.pushSnapshot()

	case GetSnapshotName:
		ctx.Response(w.Snapshot().ToProto())

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("World is shutdown after %d ticks", w.world.Tick())
	return nil
}

// reset replaces the world with a fresh population built from cfg. On error
// the previous world is kept.
func (w *WorldActor) reset(cfg *Config) error {
	opts, err := cfg.SwarmOptions()
	if err != nil {
		return err
	}
	world, err := swarm.NewWorld(opts)
	if err != nil {
		return err
	}
	w.cfg = cfg
	w.world = world
	w.detector = collision.NewDetector(world.Len(), cfg.ColliderRadius)
	w.flags = make([]bool, world.Len())
	w.refreshStats()
	return nil
}

// tick runs one Step, then refreshes collision flags and stats.
func (w *WorldActor) tick(dt float64) error {
	if err := w.world.Step(dt); err != nil {
		return err
	}
	w.positions = w.world.Positions(w.positions[:0])
	flags, err := w.detector.Update(w.positions, w.flags)
	if err != nil {
		return err
	}
	w.flags = flags
	w.refreshStats()
	return nil
}

func (w *WorldActor) refreshStats() {
	target, ok := w.world.ResolvedTarget()
	w.stats = telemetry.Compute(w.world.Tick(), w.world.Elapsed(), w.world.Agents(), target, ok, w.flags)
}

func (w *WorldActor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(w.lastLogTime) >= time.Second {
		avg := float64(w.stepTime.Microseconds()) / 1000.0 / float64(w.ticksSinceLog)
		ctx.Logger().Infof("📊 TICK RATE: %d/sec (step avg %.3fms) | Agents: %d | Colliding: %d | Mean distance: %.1f",
			w.ticksSinceLog, avg, w.stats.Agents, w.stats.Colliding, w.stats.MeanDistance)
		w.ticksSinceLog = 0
		w.stepTime = 0
		w.lastLogTime = time.Now()
	}
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.Snapshot():
	default:
		// UI busy, skip frame
	}
}

// Snapshot captures the current world state.
func (w *WorldActor) Snapshot() *Snapshot {
	agents := w.world.Agents()
	follow := w.world.FollowVelocities()
	avoid := w.world.AvoidVelocities()

	s := &Snapshot{
		Agents: make([]AgentView, len(agents)),
		Stats:  w.stats,
	}
	s.Target, _ = w.world.ResolvedTarget()
	if len(follow) == len(agents) && len(avoid) == len(agents) {
		s.Steering = make([]geometry.Vector2D, len(agents))
	}
	for i, a := range agents {
		s.Agents[i] = AgentView{
			ID:          a.ID,
			Position:    a.Position,
			Orientation: a.Orientation,
			Colliding:   i < len(w.flags) && w.flags[i],
		}
		if s.Steering != nil {
			s.Steering[i] = follow[i].Add(avoid[i]).Normalize()
		}
	}
	return s
}
