package game

import "github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"

// Camera maps between world units (origin at the centre, +Y up) and screen
// pixels (origin top-left, +Y down).
type Camera struct {
	Center geometry.Vector2D // world point shown at the middle of the screen
	Zoom   float64           // pixels per world unit
	Width  float64
	Height float64
}

func NewCamera(width, height int) *Camera {
	return &Camera{Zoom: 1, Width: float64(width), Height: float64(height)}
}

func (c *Camera) WorldToScreen(p geometry.Vector2D) (x, y float64) {
	x = (p.X-c.Center.X)*c.Zoom + c.Width/2
	y = c.Height/2 - (p.Y-c.Center.Y)*c.Zoom
	return x, y
}

func (c *Camera) ScreenToWorld(x, y float64) geometry.Vector2D {
	return geometry.Vector2D{
		X: (x-c.Width/2)/c.Zoom + c.Center.X,
		Y: (c.Height/2-y)/c.Zoom + c.Center.Y,
	}
}

// ScreenAngle converts a world orientation (CCW from +X) to a screen rotation
// (clockwise, because screen Y points down).
func ScreenAngle(orientation float64) float64 {
	return -orientation
}
