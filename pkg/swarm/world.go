package swarm

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

var (
	ErrInvalidDelta  = errors.New("delta time must be finite and non-negative")
	ErrUnknownTarget = errors.New("unknown target")
)

// parallelThreshold is the population below which Step stays on one goroutine
// even when Workers > 1.
const parallelThreshold = 256

// Options configures a World.
type Options struct {
	Population      int
	SpawnHalfExtent float64
	Seed            uint64

	Speed           float64
	TurnRate        float64
	AvoidanceRadius float64

	NeighborIndex IndexKind
	// Workers bounds the goroutines used per stage. Values below 2 run serially.
	Workers      int
	TargetPolicy TargetPolicy
}

func DefaultOptions() Options {
	return Options{
		Population:      DefaultPopulation,
		SpawnHalfExtent: DefaultSpawnHalfExtent,
		Seed:            1,
		Speed:           DefaultSpeed,
		TurnRate:        DefaultTurnRate,
		AvoidanceRadius: DefaultAvoidanceRadius,
		NeighborIndex:   IndexBruteForce,
		Workers:         1,
		TargetPolicy:    TargetPolicyRequireSingle,
	}
}

func (o Options) validate() error {
	switch {
	case o.Population < 0:
		return fmt.Errorf("population must be >= 0, got %d", o.Population)
	case o.SpawnHalfExtent < 0:
		return fmt.Errorf("spawn half extent must be >= 0, got %g", o.SpawnHalfExtent)
	case o.Speed < 0:
		return fmt.Errorf("speed must be >= 0, got %g", o.Speed)
	case o.TurnRate < 0:
		return fmt.Errorf("turn rate must be >= 0, got %g", o.TurnRate)
	case o.AvoidanceRadius < 0:
		return fmt.Errorf("avoidance radius must be >= 0, got %g", o.AvoidanceRadius)
	}
	return nil
}

// World owns the population, the targets and the per-tick scratch vectors.
// It is not safe for concurrent use; Step parallelises internally.
type World struct {
	opts    Options
	agents  []Agent
	targets []Target
	nextID  TargetID
	index   NeighborIndex

	positions []geometry.Vector2D
	radii     []float64
	follow    []geometry.Vector2D
	avoid     []geometry.Vector2D

	tick    uint64
	elapsed float64
}

// NewWorld spawns opts.Population agents at random positions.
func NewWorld(opts Options) (*World, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	template := NewAgent(0, geometry.Zero)
	template.Speed = opts.Speed
	template.TurnRate = opts.TurnRate
	template.AvoidanceRadius = opts.AvoidanceRadius

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	agents := SpawnRandom(opts.Population, opts.SpawnHalfExtent, rng, template)
	return NewWorldWithAgents(opts, agents)
}

// NewWorldWithAgents builds a world around an explicit population. The slice
// is copied. Population, spawn and per-agent fields of opts are ignored.
func NewWorldWithAgents(opts Options, agents []Agent) (*World, error) {
	maxRadius := 0.0
	for _, a := range agents {
		maxRadius = math.Max(maxRadius, a.AvoidanceRadius)
	}
	index, err := NewNeighborIndex(opts.NeighborIndex, maxRadius)
	if err != nil {
		return nil, err
	}
	return &World{
		opts:   opts,
		agents: slices.Clone(agents),
		index:  index,
		nextID: 1,
	}, nil
}

// Step advances the world by dt seconds: Follow and Avoidance over a snapshot
// of positions, then Integration once both are complete. A dt of zero is
// valid and leaves positions unchanged. Ticks without a resolved target leave
// every follow vector as the previous tick wrote it (zero in a new world).
func (w *World) Step(dt float64) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return ErrInvalidDelta
	}
	n := len(w.agents)
	w.snapshot()
	w.index.Rebuild(w.positions)

	target, hasTarget := ResolveTarget(w.targets, w.opts.TargetPolicy)
	w.follow = resize(w.follow, n)
	w.avoid = resize(w.avoid, n)

	// Without a resolved target the follow vectors keep their last value.
	w.forEachChunk(n, func(lo, hi int) {
		if hasTarget {
			followRange(target, w.positions, w.follow, lo, hi)
		}
		avoidRange(w.positions, w.radii, w.index, w.avoid, lo, hi)
	})

	next := make([]Agent, n)
	w.forEachChunk(n, func(lo, hi int) {
		integrateRange(w.agents, w.follow, w.avoid, dt, next, lo, hi)
	})
	w.agents = next

	w.tick++
	w.elapsed += dt
	return nil
}

func (w *World) snapshot() {
	n := len(w.agents)
	w.positions = resize(w.positions, n)
	if cap(w.radii) < n {
		w.radii = make([]float64, n)
	}
	w.radii = w.radii[:n]
	for i, a := range w.agents {
		w.positions[i] = a.Position
		w.radii[i] = a.AvoidanceRadius
	}
}

// forEachChunk calls fn over [0, n) split into contiguous ranges. It returns
// once every call has finished.
func (w *World) forEachChunk(n int, fn func(lo, hi int)) {
	workers := w.opts.Workers
	if workers < 2 || n < parallelThreshold {
		fn(0, n)
		return
	}
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// AddTarget places a new target and returns its id.
func (w *World) AddTarget(pos geometry.Vector2D) TargetID {
	id := w.nextID
	w.nextID++
	w.targets = append(w.targets, Target{ID: id, Position: pos})
	return id
}

func (w *World) MoveTarget(id TargetID, pos geometry.Vector2D) error {
	for i := range w.targets {
		if w.targets[i].ID == id {
			w.targets[i].Position = pos
			return nil
		}
	}
	return fmt.Errorf("move target %d: %w", id, ErrUnknownTarget)
}

func (w *World) RemoveTarget(id TargetID) error {
	for i := range w.targets {
		if w.targets[i].ID == id {
			w.targets = slices.Delete(w.targets, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("remove target %d: %w", id, ErrUnknownTarget)
}

// SetTarget moves the lowest-id target to pos, creating one when the world
// has none. This is what a pointer click does.
func (w *World) SetTarget(pos geometry.Vector2D) TargetID {
	if len(w.targets) == 0 {
		return w.AddTarget(pos)
	}
	lowest := 0
	for i, t := range w.targets {
		if t.ID < w.targets[lowest].ID {
			lowest = i
		}
	}
	w.targets[lowest].Position = pos
	return w.targets[lowest].ID
}

func (w *World) ClearTargets() {
	w.targets = w.targets[:0]
}

func (w *World) Targets() []Target {
	return slices.Clone(w.targets)
}

// ResolvedTarget is the target the next Step will follow, if any.
func (w *World) ResolvedTarget() (geometry.Vector2D, bool) {
	return ResolveTarget(w.targets, w.opts.TargetPolicy)
}

func (w *World) Agents() []Agent {
	return slices.Clone(w.agents)
}

// Positions appends every agent position to dst.
func (w *World) Positions(dst []geometry.Vector2D) []geometry.Vector2D {
	for _, a := range w.agents {
		dst = append(dst, a.Position)
	}
	return dst
}

func (w *World) Len() int { return len(w.agents) }

func (w *World) Tick() uint64 { return w.tick }

// Elapsed is the sum of every dt passed to Step, in seconds.
func (w *World) Elapsed() float64 { return w.elapsed }

// FollowVelocities returns a copy of the follow vectors computed by the last Step.
func (w *World) FollowVelocities() []geometry.Vector2D {
	return slices.Clone(w.follow)
}

// AvoidVelocities returns a copy of the avoidance vectors computed by the last Step.
func (w *World) AvoidVelocities() []geometry.Vector2D {
	return slices.Clone(w.avoid)
}

func (w *World) Options() Options { return w.opts }
