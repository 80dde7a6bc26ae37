// Package script drives the target position from a tengo program, for runs
// with no pointer to click with.
//
// The program sees two globals, t (seconds since start) and tick, and must
// declare x and y. It may declare active and set it to false to leave the
// swarm without a target for that tick. Standard tengo modules such as "math" are importable.
//
//	math := import("math")
//	x := 200 * math.cos(t)
//	y := 200 * math.sin(t)
package script

import (
	"errors"
	"fmt"
	"os"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
)

var ErrMissingOutput = errors.New("script must declare x and y")

// TargetScript is a compiled target program. It is not safe for concurrent use.
type TargetScript struct {
	path     string
	compiled *tengo.Compiled
}

// LoadTargetScript reads and compiles the program at path.
func LoadTargetScript(path string) (*TargetScript, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading target script: %w", err)
	}
	ts, err := CompileTargetScript(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ts.path = path
	return ts, nil
}

// CompileTargetScript compiles src.
func CompileTargetScript(src []byte) (*TargetScript, error) {
	s := tengo.NewScript(src)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	_ = s.Add("t", 0.0)
	_ = s.Add("tick", 0)
	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling target script: %w", err)
	}
	return &TargetScript{compiled: compiled}, nil
}

// Path is the file the script was loaded from, empty when compiled from memory.
func (s *TargetScript) Path() string { return s.path }

// Eval runs the program for time t and returns the target position.
// ok is false when the program set active to false.
func (s *TargetScript) Eval(t float64, tick uint64) (pos geometry.Vector2D, ok bool, err error) {
	if err := s.compiled.Set("t", t); err != nil {
		return geometry.Zero, false, err
	}
	if err := s.compiled.Set("tick", int64(tick)); err != nil {
		return geometry.Zero, false, err
	}
	if err := s.compiled.Run(); err != nil {
		return geometry.Zero, false, fmt.Errorf("running target script: %w", err)
	}

	if s.compiled.IsDefined("active") && !s.compiled.Get("active").Bool() {
		return geometry.Zero, false, nil
	}
	if !s.compiled.IsDefined("x") || !s.compiled.IsDefined("y") {
		return geometry.Zero, false, ErrMissingOutput
	}
	x, y := s.compiled.Get("x"), s.compiled.Get("y")
	pos = geometry.Vector2D{X: x.Float(), Y: y.Float()}
	if !pos.IsFinite() {
		return geometry.Zero, false, fmt.Errorf("script produced non-finite target %v", pos)
	}
	return pos, true, nil
}
