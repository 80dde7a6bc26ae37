package swarm

import (
	"math"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

// IntegrateAgent advances one agent by dt seconds. The agent first moves
// Speed*dt along its current heading, then turns toward
// normalize(follow + avoid) by exactly Radians(TurnRate)*dt in the direction
// of the signed angle. The turn may overshoot the desired direction. A zero
// desired vector, or an angle of exactly zero, keeps the current orientation.
func IntegrateAgent(a Agent, follow, avoid geometry.Vector2D, dt float64) Agent {
	heading := a.Heading()
	a.Position = a.Position.Add(heading.Mul(a.Speed * dt))

	desired := follow.Add(avoid).Normalize()
	if desired.IsZero() {
		return a
	}
	angle := heading.SignedAngle(desired)
	if angle != 0 {
		step := math.Copysign(geometry.Radians(a.TurnRate)*dt, angle)
		a.Orientation = geometry.WrapAngle(a.Orientation + step)
	}
	return a
}

// Integrate returns the next state of every agent. agents is not modified.
// follow and avoid must have the same length as agents.
func Integrate(agents []Agent, follow, avoid []geometry.Vector2D, dt float64) []Agent {
	next := make([]Agent, len(agents))
	integrateRange(agents, follow, avoid, dt, next, 0, len(agents))
	return next
}

func integrateRange(agents []Agent, follow, avoid []geometry.Vector2D, dt float64, dst []Agent, lo, hi int) {
	for i := lo; i < hi; i++ {
		dst[i] = IntegrateAgent(agents[i], follow[i], avoid[i], dt)
	}
}
