// Package swarm is the steering core: agents follow a single shared target while
// pushing away from close neighbours, then integrate that steering into position
// and heading once per tick.
//
// A tick runs three stages in a fixed order over the same population:
//
//  1. Follow: unit vector from each agent toward the target.
//  2. Avoidance: normalised sum of outward offsets from neighbours in range.
//  3. Integration: move along the current heading, then turn toward
//     normalize(follow + avoid) by at most one tick's worth of turn rate.
//
// Stages 1 and 2 only read a snapshot of positions and write per-agent vectors;
// stage 3 is the only writer of agent state and runs after both are complete.
package swarm

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

// Defaults for a freshly spawned agent.
const (
	DefaultSpeed           = 50.0 // units per second
	DefaultTurnRate        = 45.0 // degrees per second
	DefaultColliderRadius  = 10.0
	DefaultAvoidanceRadius = DefaultColliderRadius * 2
	// DefaultOrientation faces +Y.
	DefaultOrientation = math.Pi / 2

	DefaultPopulation      = 100
	DefaultSpawnHalfExtent = 300.0
)

// AgentID identifies an agent for the lifetime of a world.
type AgentID uint32

// Agent is one boid. Every agent carries every field; there is no optional state.
type Agent struct {
	ID       AgentID
	Position geometry.Vector2D
	// Orientation is the heading angle in radians, counter-clockwise from +X.
	Orientation float64
	// Speed is constant forward speed in units per second.
	Speed float64
	// TurnRate is the maximum angular speed in degrees per second.
	TurnRate float64
	// AvoidanceRadius is the distance below which another agent repels this one.
	AvoidanceRadius float64
}

// NewAgent returns an agent at pos with the default speed, turn rate, radius and heading.
func NewAgent(id AgentID, pos geometry.Vector2D) Agent {
	return Agent{
		ID:              id,
		Position:        pos,
		Orientation:     DefaultOrientation,
		Speed:           DefaultSpeed,
		TurnRate:        DefaultTurnRate,
		AvoidanceRadius: DefaultAvoidanceRadius,
	}
}

// Heading is the unit forward vector derived from Orientation.
func (a Agent) Heading() geometry.Vector2D {
	return geometry.Heading(a.Orientation)
}

// SpawnRandom creates n agents copied from template with positions drawn
// uniformly from the square [-halfExtent, halfExtent)². IDs run from 0 to n-1.
func SpawnRandom(n int, halfExtent float64, rng *rand.Rand, template Agent) []Agent {
	agents := make([]Agent, n)
	for i := range agents {
		a := template
		a.ID = AgentID(i)
		a.Position = geometry.Vector2D{
			X: (rng.Float64()*2 - 1) * halfExtent,
			Y: (rng.Float64()*2 - 1) * halfExtent,
		}
		agents[i] = a
	}
	return agents
}
