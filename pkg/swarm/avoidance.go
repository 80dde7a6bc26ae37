package swarm

import "github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"

// RepulsionSum accumulates positions[self] - positions[j] over every candidate
// j != self strictly closer than radius. Each neighbour contributes its full
// offset; the sum is not normalised. A neighbour exactly at radius does not count.
func RepulsionSum(self int, positions []geometry.Vector2D, radius float64, candidates []int) geometry.Vector2D {
	me := positions[self]
	sum := geometry.Zero
	for _, j := range candidates {
		if j == self {
			continue
		}
		offset := me.Sub(positions[j])
		if offset.Len() < radius {
			sum = sum.Add(offset)
		}
	}
	return sum
}

// ComputeAvoidance writes the normalised repulsion for every agent into dst and
// returns it. radii[i] is agent i's avoidance radius. index must already be
// rebuilt from positions; nil means compare every pair.
// Agents with no neighbour in range, or whose neighbours cancel out exactly,
// get the zero vector.
func ComputeAvoidance(positions []geometry.Vector2D, radii []float64, index NeighborIndex, dst []geometry.Vector2D) []geometry.Vector2D {
	if index == nil {
		index = NewBruteForceIndex()
		index.Rebuild(positions)
	}
	dst = resize(dst, len(positions))
	avoidRange(positions, radii, index, dst, 0, len(positions))
	return dst
}

func avoidRange(positions []geometry.Vector2D, radii []float64, index NeighborIndex, dst []geometry.Vector2D, lo, hi int) {
	var candidates []int
	for i := lo; i < hi; i++ {
		candidates = index.Candidates(candidates[:0], positions[i], radii[i])
		dst[i] = RepulsionSum(i, positions, radii[i], candidates).Normalize()
	}
}
