// Package telemetry summarises the swarm each tick and writes the results to CSV.
package telemetry

import (
	"gonum.org/v1/gonum/stat"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/swarm"
)

// Stats is one row of stats.csv.
type Stats struct {
	Tick      uint64  `csv:"tick"`
	Elapsed   float64 `csv:"elapsed"`
	Agents    int     `csv:"agents"`
	HasTarget bool    `csv:"has_target"`
	// Distance to the followed target. Zero when there is none.
	MeanDistance   float64 `csv:"mean_distance"`
	StdDevDistance float64 `csv:"stddev_distance"`
	// MeanAlignment is the mean cosine between heading and the direction to
	// the target: 1 when every agent faces it, -1 when every agent faces away.
	MeanAlignment float64 `csv:"mean_alignment"`
	Colliding     int     `csv:"colliding"`
}

// Compute summarises agents against the followed target. flags may be nil.
func Compute(tick uint64, elapsed float64, agents []swarm.Agent, target geometry.Vector2D, hasTarget bool, flags []bool) Stats {
	s := Stats{
		Tick:      tick,
		Elapsed:   elapsed,
		Agents:    len(agents),
		HasTarget: hasTarget,
	}
	for _, f := range flags {
		if f {
			s.Colliding++
		}
	}
	if !hasTarget || len(agents) == 0 {
		return s
	}

	distances := make([]float64, len(agents))
	alignment := make([]float64, len(agents))
	for i, a := range agents {
		toTarget := target.Sub(a.Position)
		distances[i] = toTarget.Len()
		alignment[i] = a.Heading().Dot(toTarget.Normalize())
	}

	if len(agents) == 1 {
		s.MeanDistance = distances[0]
	} else {
		s.MeanDistance, s.StdDevDistance = stat.MeanStdDev(distances, nil)
	}
	s.MeanAlignment = stat.Mean(alignment, nil)
	return s
}
