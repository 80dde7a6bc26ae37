package simulation

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

func testConfig(population int) *Config {
	cfg := DefaultConfig()
	cfg.Population = population
	cfg.Seed = 3
	cfg.SpawnHalfExtent = 50
	return cfg
}

func TestWorldActor_TickUpdatesSnapshot(t *testing.T) {
	w := NewWorldActor(nil, testConfig(20))
	if err := w.reset(w.cfg); err != nil {
		t.Fatal(err)
	}
	w.world.SetTarget(geometry.Vector2D{X: 500, Y: 0})

	for i := 0; i < 5; i++ {
		if err := w.tick(0.1); err != nil {
			t.Fatal(err)
		}
	}
	snap := w.Snapshot()
	if snap.Stats.Tick != 5 || math.Abs(snap.Stats.Elapsed-0.5) > 1e-9 {
		t.Errorf("tick=%d elapsed=%g, want 5 and 0.5", snap.Stats.Tick, snap.Stats.Elapsed)
	}
	if len(snap.Agents) != 20 || len(snap.Steering) != 20 {
		t.Fatalf("got %d agents, %d steering vectors", len(snap.Agents), len(snap.Steering))
	}
	if !snap.Stats.HasTarget || snap.Target.X != 500 {
		t.Errorf("target missing from snapshot: %+v", snap.Target)
	}
}

func TestWorldActor_FlagsMatchColliderOverlap(t *testing.T) {
	cfg := testConfig(60)
	cfg.SpawnHalfExtent = 30 // dense enough to guarantee overlaps
	w := NewWorldActor(nil, cfg)
	if err := w.reset(cfg); err != nil {
		t.Fatal(err)
	}
	if err := w.tick(0); err != nil {
		t.Fatal(err)
	}
	snap := w.Snapshot()
	if snap.Stats.Colliding == 0 {
		t.Fatal("expected colliding agents in a dense swarm")
	}
	for i, a := range snap.Agents {
		overlapping := false
		for j, b := range snap.Agents {
			if i != j && a.Position.DistanceTo(b.Position) < 2*cfg.ColliderRadius-1e-6 {
				overlapping = true
				break
			}
		}
		if overlapping && !a.Colliding {
			t.Errorf("agent %d overlaps a neighbour but is not flagged", i)
		}
	}
}

func TestWorldActor_InvalidTickKeepsState(t *testing.T) {
	w := NewWorldActor(nil, testConfig(3))
	if err := w.reset(w.cfg); err != nil {
		t.Fatal(err)
	}
	if err := w.tick(math.NaN()); err == nil {
		t.Fatal("expected error for NaN delta")
	}
	if w.world.Tick() != 0 {
		t.Errorf("tick advanced to %d", w.world.Tick())
	}
}

func TestWorldActor_ResetKeepsOldWorldOnError(t *testing.T) {
	w := NewWorldActor(nil, testConfig(4))
	if err := w.reset(w.cfg); err != nil {
		t.Fatal(err)
	}
	bad := testConfig(10)
	bad.TargetPolicy = "nearest"
	if err := w.reset(bad); err == nil {
		t.Fatal("expected error")
	}
	if w.world.Len() != 4 {
		t.Errorf("world replaced despite error: %d agents", w.world.Len())
	}
}

func TestWorldActor_PushSnapshotDoesNotBlock(t *testing.T) {
	ch := make(chan *Snapshot, 1)
	w := NewWorldActor(ch, testConfig(2))
	if err := w.reset(w.cfg); err != nil {
		t.Fatal(err)
	}
	w.pushSnapshot()
	w.pushSnapshot() // channel full, dropped
	if len(ch) != 1 {
		t.Errorf("channel holds %d snapshots, want 1", len(ch))
	}
}

func TestWorldActor_Messaging(t *testing.T) {
	ctx := context.Background()
	system, err := actor.NewActorSystem("BoidsTest", actor.WithLogger(log.DiscardLogger))
	if err != nil {
		t.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = system.Stop(ctx) })

	pid, err := system.Spawn(ctx, "world", NewWorldActor(nil, testConfig(10)))
	if err != nil {
		t.Fatal(err)
	}

	if err := actor.Tell(ctx, pid, NewSetTarget(geometry.Vector2D{X: 0, Y: 1000})); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := actor.Tell(ctx, pid, NewTick(0.5)); err != nil {
			t.Fatal(err)
		}
	}

	reply, err := actor.Ask(ctx, pid, NewGetSnapshot(), 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	snap, err := SnapshotFromProto(reply)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Stats.Tick != 3 || len(snap.Agents) != 10 {
		t.Errorf("tick=%d agents=%d, want 3 and 10", snap.Stats.Tick, len(snap.Agents))
	}
	if !snap.Stats.HasTarget || snap.Target.Y != 1000 {
		t.Errorf("target not applied: %+v", snap.Target)
	}

	reset := testConfig(4)
	msg, err := NewReset(reset)
	if err != nil {
		t.Fatal(err)
	}
	if err := actor.Tell(ctx, pid, msg); err != nil {
		t.Fatal(err)
	}
	reply, err = actor.Ask(ctx, pid, NewGetSnapshot(), 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if snap, err = SnapshotFromProto(reply); err != nil {
		t.Fatal(err)
	}
	if snap.Stats.Tick != 0 || len(snap.Agents) != 4 || snap.Stats.HasTarget {
		t.Errorf("reset not applied: tick=%d agents=%d target=%v", snap.Stats.Tick, len(snap.Agents), snap.Stats.HasTarget)
	}
}
