// Package collision tracks which agents overlap each other. Every agent carries
// a sensor circle in a chipmunk space; overlaps are reported as flags and never
// push agents apart or change their steering.
package collision

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

var ErrPopulationMismatch = errors.New("population changed")

const collisionTypeAgent cp.CollisionType = 1

// stepSeconds is the timestep handed to the space. Bodies are teleported and
// carry no velocity, so its value does not change the result.
const stepSeconds = 1.0 / 60

// Detector owns one sensor body per agent.
type Detector struct {
	space  *cp.Space
	radius float64
	bodies []*cp.Body
	shapes map[*cp.Shape]int
	// contacts[i] is how many other sensors agent i currently touches.
	contacts []int
}

// NewDetector returns a detector for n agents with the given collider radius.
func NewDetector(n int, radius float64) *Detector {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{})

	d := &Detector{
		space:  space,
		radius: radius,
		shapes: make(map[*cp.Shape]int),
	}

	handler := space.NewCollisionHandler(collisionTypeAgent, collisionTypeAgent)
	handler.UserData = d
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, userData interface{}) bool {
		userData.(*Detector).touch(arb, 1)
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, userData interface{}) {
		userData.(*Detector).touch(arb, -1)
	}

	mass := 1.0
	moment := cp.MomentForCircle(mass, 0, radius, cp.Vector{})
	for i := 0; i < n; i++ {
		body := cp.NewBody(mass, moment)
		shape := cp.NewCircle(body, radius, cp.Vector{})
		shape.SetSensor(true)
		shape.SetCollisionType(collisionTypeAgent)
		space.AddBody(body)
		space.AddShape(shape)

		d.shapes[shape] = i
		d.bodies = append(d.bodies, body)
	}
	d.contacts = make([]int, n)
	return d
}

func (d *Detector) touch(arb *cp.Arbiter, delta int) {
	a, b := arb.Shapes()
	if i, ok := d.shapes[a]; ok {
		d.contacts[i] += delta
	}
	if j, ok := d.shapes[b]; ok {
		d.contacts[j] += delta
	}
}

// Update moves every sensor to its agent's position, lets the space find new
// and ended overlaps, and appends one flag per agent to dst.
// positions must hold exactly one entry per agent the detector was built for.
func (d *Detector) Update(positions []geometry.Vector2D, dst []bool) ([]bool, error) {
	if len(positions) != len(d.bodies) {
		return dst, fmt.Errorf("%w: have %d sensors, got %d positions", ErrPopulationMismatch, len(d.bodies), len(positions))
	}
	for i, p := range positions {
		body := d.bodies[i]
		body.SetPosition(cp.Vector{X: p.X, Y: p.Y})
		body.SetVelocity(0, 0)
	}
	d.space.Step(stepSeconds)
	return d.Flags(dst[:0]), nil
}

// Flags appends the current overlap state of every agent to dst.
func (d *Detector) Flags(dst []bool) []bool {
	for _, c := range d.contacts {
		dst = append(dst, c > 0)
	}
	return dst
}

// Count is the number of agents touching at least one other agent.
func (d *Detector) Count() int {
	n := 0
	for _, c := range d.contacts {
		if c > 0 {
			n++
		}
	}
	return n
}

func (d *Detector) Radius() float64 { return d.radius }

func (d *Detector) Len() int { return len(d.bodies) }
