package swarm

import "github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"

// ComputeFollow writes normalize(target - p) for every position into dst and
// returns it, growing dst when it is too short. An agent sitting exactly on
// the target gets the zero vector.
func ComputeFollow(target geometry.Vector2D, positions []geometry.Vector2D, dst []geometry.Vector2D) []geometry.Vector2D {
	dst = resize(dst, len(positions))
	followRange(target, positions, dst, 0, len(positions))
	return dst
}

func followRange(target geometry.Vector2D, positions, dst []geometry.Vector2D, lo, hi int) {
	for i := lo; i < hi; i++ {
		dst[i] = target.Sub(positions[i]).Normalize()
	}
}

func resize(dst []geometry.Vector2D, n int) []geometry.Vector2D {
	if cap(dst) < n {
		return make([]geometry.Vector2D, n)
	}
	return dst[:n]
}
