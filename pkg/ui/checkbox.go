package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// rect is a screen-space hit box.
type rect struct {
	X, Y, W, H float64
}

func (r rect) contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// latch turns a held mouse button into a single press per hold.
type latch struct {
	held bool
}

// fire reports whether this frame starts a new press over the widget.
func (l *latch) fire(over, pressed bool) bool {
	if !over || !pressed {
		l.held = false
		return false
	}
	if l.held {
		return false
	}
	l.held = true
	return true
}

func cursorOver(r rect) bool {
	mx, my := ebiten.CursorPosition()
	return r.contains(float64(mx), float64(my))
}

// Checkbox toggles a display or simulation flag.
type Checkbox struct {
	Label string
	Value bool
	X, Y  float64
	Size  float64
	latch latch
}

func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{
		Label: label,
		Value: value,
		X:     x,
		Y:     y,
		Size:  16,
	}
}

func (c *Checkbox) bounds() rect {
	return rect{X: c.X, Y: c.Y, W: c.Size, H: c.Size}
}

func (c *Checkbox) Update() {
	c.handle(cursorOver(c.bounds()), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
}

func (c *Checkbox) handle(over, pressed bool) {
	if c.latch.fire(over, pressed) {
		c.Value = !c.Value
	}
}

func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen,
		float32(c.X), float32(c.Y),
		float32(c.Size), float32(c.Size),
		2,
		color.RGBA{R: 200, G: 200, B: 200, A: 255},
		true)

	if c.Value {
		vector.FillRect(screen,
			float32(c.X+2), float32(c.Y+2),
			float32(c.Size-4), float32(c.Size-4),
			color.RGBA{R: 100, G: 200, B: 100, A: 255},
			true)
	}
}
