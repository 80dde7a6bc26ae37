package swarm

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

// TargetID identifies a target within a world.
type TargetID uint32

// Target is a point every agent steers toward.
type Target struct {
	ID       TargetID
	Position geometry.Vector2D
}

// TargetPolicy decides what the follow stage does when more than one target exists.
type TargetPolicy int

const (
	// TargetPolicyRequireSingle follows only when exactly one target exists;
	// with two or more, no target resolves and follow vectors are not updated.
	TargetPolicyRequireSingle TargetPolicy = iota
	// TargetPolicyLowestID follows the target with the smallest ID.
	TargetPolicyLowestID
)

func (p TargetPolicy) String() string {
	switch p {
	case TargetPolicyRequireSingle:
		return "requireSingle"
	case TargetPolicyLowestID:
		return "lowestId"
	default:
		return fmt.Sprintf("TargetPolicy(%d)", int(p))
	}
}

// ParseTargetPolicy is the inverse of TargetPolicy.String. The empty string
// maps to TargetPolicyRequireSingle.
func ParseTargetPolicy(s string) (TargetPolicy, error) {
	switch s {
	case "", "requireSingle":
		return TargetPolicyRequireSingle, nil
	case "lowestId":
		return TargetPolicyLowestID, nil
	default:
		return 0, fmt.Errorf("unknown target policy %q", s)
	}
}

// ResolveTarget picks the position agents should follow this tick.
// ok is false when there is nothing to follow.
func ResolveTarget(targets []Target, policy TargetPolicy) (pos geometry.Vector2D, ok bool) {
	switch len(targets) {
	case 0:
		return geometry.Zero, false
	case 1:
		return targets[0].Position, true
	}
	if policy != TargetPolicyLowestID {
		return geometry.Zero, false
	}
	best := targets[0]
	for _, t := range targets[1:] {
		if t.ID < best.ID {
			best = t
		}
	}
	return best.Position, true
}
