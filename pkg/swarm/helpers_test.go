package swarm

import (
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) <= eps
}

func assertVec(t *testing.T, name string, got, want geometry.Vector2D) {
	t.Helper()
	if !approx(got.X, want.X) || !approx(got.Y, want.Y) {
		t.Errorf("%s: got %v (%g, %g), want (%g, %g)", name, got, got.X, got.Y, want.X, want.Y)
	}
}

func vec(x, y float64) geometry.Vector2D {
	return geometry.Vector2D{X: x, Y: y}
}
