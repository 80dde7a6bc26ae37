package swarm

import (
	"errors"
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

func singleAgentWorld(t *testing.T, opts Options, pos geometry.Vector2D) *World {
	t.Helper()
	w, err := NewWorldWithAgents(opts, []Agent{NewAgent(0, pos)})
	if err != nil {
		t.Fatalf("NewWorldWithAgents: %v", err)
	}
	return w
}

// headingError is the unsigned angle between an agent's heading and the
// direction to target.
func headingError(a Agent, target geometry.Vector2D) float64 {
	return math.Abs(a.Heading().SignedAngle(target.Sub(a.Position)))
}

func TestWorld_EndToEndTurnsTowardTarget(t *testing.T) {
	target := vec(100, 0)
	w := singleAgentWorld(t, DefaultOptions(), geometry.Zero)
	w.AddTarget(target)

	before := headingError(w.Agents()[0], target)
	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}
	a := w.Agents()[0]
	assertVec(t, "position after tick 1", a.Position, vec(0, 50))
	if !approx(a.Orientation, math.Pi/4) {
		t.Errorf("orientation after tick 1 = %g, want %g", a.Orientation, math.Pi/4)
	}
	assertVec(t, "follow", w.FollowVelocities()[0], vec(1, 0))
	assertVec(t, "avoid", w.AvoidVelocities()[0], geometry.Zero)

	after := headingError(a, target)
	if after >= before {
		t.Errorf("heading error did not shrink: %g -> %g", before, after)
	}
	if w.Tick() != 1 || w.Elapsed() != 1 {
		t.Errorf("tick=%d elapsed=%g, want 1 and 1", w.Tick(), w.Elapsed())
	}
}

func TestWorld_ConvergesOnDistantTarget(t *testing.T) {
	target := vec(10000, 0)
	w := singleAgentWorld(t, DefaultOptions(), geometry.Zero)
	w.AddTarget(target)

	const dt = 0.1
	step := geometry.Radians(DefaultTurnRate) * dt
	for i := 0; i < 100; i++ {
		if err := w.Step(dt); err != nil {
			t.Fatal(err)
		}
	}
	a := w.Agents()[0]
	if got := headingError(a, target); got > step+0.01 {
		t.Errorf("heading error %g after 10s, want <= %g", got, step+0.01)
	}
	if a.Position.X <= 0 {
		t.Errorf("agent did not move toward target: %v", a.Position)
	}
}

func TestWorld_NoTargetGoesStraight(t *testing.T) {
	w := singleAgentWorld(t, DefaultOptions(), geometry.Zero)
	for i := 0; i < 3; i++ {
		if err := w.Step(1); err != nil {
			t.Fatal(err)
		}
	}
	a := w.Agents()[0]
	assertVec(t, "position", a.Position, vec(0, 150))
	if a.Orientation != DefaultOrientation {
		t.Errorf("orientation = %g, want unchanged", a.Orientation)
	}
	assertVec(t, "follow", w.FollowVelocities()[0], geometry.Zero)
}

func TestWorld_NoTargetKeepsAnyHeading(t *testing.T) {
	for _, orientation := range []float64{-3 * math.Pi / 4, math.Pi, -math.Pi / 2, 0.3} {
		a := NewAgent(0, geometry.Zero)
		a.Orientation = orientation
		w, err := NewWorldWithAgents(DefaultOptions(), []Agent{a})
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Step(1); err != nil {
			t.Fatal(err)
		}
		if got := w.Agents()[0].Orientation; got != orientation {
			t.Errorf("orientation %g turned to %g with no target and no neighbours", orientation, got)
		}
	}
}

func TestWorld_LostTargetKeepsLastFollow(t *testing.T) {
	w := singleAgentWorld(t, DefaultOptions(), geometry.Zero)
	id := w.AddTarget(vec(100, 0))
	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}
	assertVec(t, "follow with target", w.FollowVelocities()[0], vec(1, 0))

	if err := w.RemoveTarget(id); err != nil {
		t.Fatal(err)
	}
	if err := w.Step(1); err != nil {
		t.Fatal(err)
	}
	assertVec(t, "follow after target removed", w.FollowVelocities()[0], vec(1, 0))
	// Still steering toward +X: pi/2 -> pi/4 -> 0.
	if a := w.Agents()[0]; !approx(a.Orientation, 0) {
		t.Errorf("orientation = %g, want 0", a.Orientation)
	}

	// A second target makes the require-single policy resolve nothing too.
	w.AddTarget(vec(0, -100))
	w.AddTarget(vec(-100, 0))
	if err := w.Step(0.5); err != nil {
		t.Fatal(err)
	}
	assertVec(t, "follow with two targets", w.FollowVelocities()[0], vec(1, 0))
}

func TestWorld_MultipleTargets(t *testing.T) {
	tests := []struct {
		name       string
		policy     TargetPolicy
		wantFollow geometry.Vector2D
	}{
		{"require single keeps the initial zero", TargetPolicyRequireSingle, geometry.Zero},
		{"lowest id follows first target", TargetPolicyLowestID, vec(1, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.TargetPolicy = tt.policy
			w := singleAgentWorld(t, opts, geometry.Zero)
			w.AddTarget(vec(10, 0))
			w.AddTarget(vec(0, -10))
			if err := w.Step(0.1); err != nil {
				t.Fatal(err)
			}
			assertVec(t, "follow", w.FollowVelocities()[0], tt.wantFollow)
		})
	}
}

func TestWorld_InvalidDelta(t *testing.T) {
	w := singleAgentWorld(t, DefaultOptions(), geometry.Zero)
	for _, dt := range []float64{-0.1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := w.Step(dt); !errors.Is(err, ErrInvalidDelta) {
			t.Errorf("Step(%g) error = %v, want ErrInvalidDelta", dt, err)
		}
	}
	if w.Tick() != 0 {
		t.Errorf("tick advanced to %d on invalid input", w.Tick())
	}
	assertVec(t, "position", w.Agents()[0].Position, geometry.Zero)
}

func TestWorld_ZeroDelta(t *testing.T) {
	w := singleAgentWorld(t, DefaultOptions(), vec(3, 3))
	w.AddTarget(vec(100, 0))
	if err := w.Step(0); err != nil {
		t.Fatal(err)
	}
	a := w.Agents()[0]
	assertVec(t, "position", a.Position, vec(3, 3))
	if a.Orientation != DefaultOrientation {
		t.Errorf("orientation = %g, want unchanged", a.Orientation)
	}
	if w.Tick() != 1 {
		t.Errorf("tick = %d, want 1", w.Tick())
	}
}

func TestWorld_TargetOperations(t *testing.T) {
	w := singleAgentWorld(t, DefaultOptions(), geometry.Zero)

	id := w.SetTarget(vec(1, 2))
	if got := w.Targets(); len(got) != 1 || got[0].ID != id {
		t.Fatalf("SetTarget on empty world: %+v", got)
	}
	if again := w.SetTarget(vec(3, 4)); again != id {
		t.Errorf("SetTarget created a second target: %d != %d", again, id)
	}
	assertVec(t, "moved", w.Targets()[0].Position, vec(3, 4))

	other := w.AddTarget(vec(9, 9))
	if other == id {
		t.Fatal("AddTarget reused an id")
	}
	if err := w.MoveTarget(other, vec(-1, -1)); err != nil {
		t.Fatal(err)
	}
	if err := w.RemoveTarget(id); err != nil {
		t.Fatal(err)
	}
	pos, ok := w.ResolvedTarget()
	if !ok {
		t.Fatal("expected the remaining target to resolve")
	}
	assertVec(t, "resolved", pos, vec(-1, -1))

	if err := w.MoveTarget(id, geometry.Zero); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("MoveTarget on removed id: %v", err)
	}
	if err := w.RemoveTarget(id); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("RemoveTarget on removed id: %v", err)
	}

	w.ClearTargets()
	if len(w.Targets()) != 0 {
		t.Errorf("ClearTargets left %v", w.Targets())
	}
}

func TestWorld_AgentsIsACopy(t *testing.T) {
	w := singleAgentWorld(t, DefaultOptions(), geometry.Zero)
	agents := w.Agents()
	agents[0].Position = vec(99, 99)
	assertVec(t, "world position", w.Agents()[0].Position, geometry.Zero)
}

func TestNewWorld_SpawnsInsideSquare(t *testing.T) {
	opts := DefaultOptions()
	opts.Population = 200
	opts.SpawnHalfExtent = 50
	opts.Seed = 42
	w, err := NewWorld(opts)
	if err != nil {
		t.Fatal(err)
	}
	if w.Len() != 200 {
		t.Fatalf("Len = %d, want 200", w.Len())
	}
	for i, a := range w.Agents() {
		if a.ID != AgentID(i) {
			t.Errorf("agent %d has id %d", i, a.ID)
		}
		if a.Position.X < -50 || a.Position.X >= 50 || a.Position.Y < -50 || a.Position.Y >= 50 {
			t.Errorf("agent %d spawned outside square: %v", i, a.Position)
		}
		if a.Orientation != DefaultOrientation {
			t.Errorf("agent %d orientation %g", i, a.Orientation)
		}
	}

	same, err := NewWorld(opts)
	if err != nil {
		t.Fatal(err)
	}
	if same.Agents()[17].Position != w.Agents()[17].Position {
		t.Error("same seed produced different positions")
	}
}

func TestNewWorld_RejectsBadOptions(t *testing.T) {
	bad := []func(*Options){
		func(o *Options) { o.Population = -1 },
		func(o *Options) { o.Speed = -1 },
		func(o *Options) { o.TurnRate = -5 },
		func(o *Options) { o.AvoidanceRadius = -1 },
		func(o *Options) { o.NeighborIndex = "octree" },
	}
	for i, mutate := range bad {
		opts := DefaultOptions()
		mutate(&opts)
		if _, err := NewWorld(opts); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestWorld_ParallelMatchesSerial(t *testing.T) {
	for _, kind := range []IndexKind{IndexBruteForce, IndexGrid, IndexRTree} {
		t.Run(string(kind), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Population = 600
			opts.SpawnHalfExtent = 150
			opts.NeighborIndex = kind

			serial, err := NewWorld(opts)
			if err != nil {
				t.Fatal(err)
			}
			opts.Workers = 4
			parallel, err := NewWorld(opts)
			if err != nil {
				t.Fatal(err)
			}
			serial.AddTarget(vec(40, -20))
			parallel.AddTarget(vec(40, -20))

			for i := 0; i < 20; i++ {
				if err := serial.Step(1.0 / 60); err != nil {
					t.Fatal(err)
				}
				if err := parallel.Step(1.0 / 60); err != nil {
					t.Fatal(err)
				}
			}
			s, p := serial.Agents(), parallel.Agents()
			for i := range s {
				if s[i] != p[i] {
					t.Fatalf("agent %d differs: serial %+v parallel %+v", i, s[i], p[i])
				}
			}
		})
	}
}

func benchmarkStep(b *testing.B, kind IndexKind, workers int) {
	opts := DefaultOptions()
	opts.Population = 2000
	opts.SpawnHalfExtent = 500
	opts.NeighborIndex = kind
	opts.Workers = workers
	w, err := NewWorld(opts)
	if err != nil {
		b.Fatal(err)
	}
	w.AddTarget(geometry.Zero)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = w.Step(1.0 / 60)
	}
}

func BenchmarkStep_BruteForce(b *testing.B) { benchmarkStep(b, IndexBruteForce, 1) }
func BenchmarkStep_Grid(b *testing.B)       { benchmarkStep(b, IndexGrid, 1) }
func BenchmarkStep_RTree(b *testing.B)      { benchmarkStep(b, IndexRTree, 1) }
func BenchmarkStep_GridParallel(b *testing.B) {
	benchmarkStep(b, IndexGrid, 4)
}
