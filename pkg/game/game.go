// Package game is the ebiten front end: it drives the world actor once per
// frame, turns clicks into target moves and draws the last snapshot.
package game

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/script"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/ui"
)

var (
	whiteImage = ebiten.NewImage(3, 3)

	backgroundColor = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	targetColor     = color.RGBA{R: 50, G: 100, B: 255, A: 255}
	agentColor      = color.RGBA{R: 230, G: 60, B: 60, A: 255}
	collidingColor  = color.RGBA{R: 255, G: 220, B: 0, A: 255}
	radiusColor     = color.RGBA{R: 255, G: 255, B: 255, A: 40}
	steeringColor   = color.RGBA{R: 100, G: 255, B: 120, A: 160}
)

const (
	agentSize    = 8.0
	targetRadius = 10.0
	steeringLen  = 25.0
)

type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *simulation.Snapshot
	lastState  *simulation.Snapshot
	logger     log.Logger

	cfg     *simulation.Config
	camera  *Camera
	script  *script.TargetScript
	watcher *simulation.ConfigWatcher

	// simulated seconds and ticks sent so far, fed to the target script
	simTime float64
	ticks   uint64

	// UI Controls
	panel                  *ui.UIPanel
	widgetTimeScale        *ui.Slider
	widgetPaused           *ui.Checkbox
	widgetDisplayAvoidance *ui.Checkbox
	widgetDisplaySteering  *ui.Checkbox
	widgetDisplayCollision *ui.Checkbox
	resetRequested         bool

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame spawns the world actor in system and builds the control panel.
// watcher may be nil.
func NewGame(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem, logger log.Logger, watcher *simulation.ConfigWatcher) (*Game, error) {
	snapshotCh := make(chan *simulation.Snapshot, 10) // Buffer to avoid blocking

	worldPID, err := system.Spawn(ctx, "world", simulation.NewWorldActor(snapshotCh, cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  &simulation.Snapshot{}, // Avoid nil pointer
		logger:     logger,
		cfg:        cfg,
		camera:     NewCamera(cfg.ScreenWidth, cfg.ScreenHeight),
		watcher:    watcher,
	}
	if err := g.loadScript(); err != nil {
		return nil, err
	}
	g.buildPanel()

	// The target starts at the origin, like the first frame of every run.
	if g.script == nil {
		g.setTarget(geometry.Zero)
	}
	return g, nil
}

func (g *Game) buildPanel() {
	g.panel = ui.NewUIPanel(10, 10, 220, 300)

	g.panel.AddSection("Simulation")
	g.widgetTimeScale = g.panel.AddSlider("Time Scale", 0.1, 4, g.cfg.TimeScale)
	g.widgetPaused = g.panel.AddCheckbox("Paused", false)
	g.panel.AddButton("Reset", func() { g.resetRequested = true })
	g.panel.EndSection()

	g.panel.AddSection("Visualization")
	g.widgetDisplayAvoidance = g.panel.AddCheckbox("Avoidance Radius", g.cfg.DisplayAvoidanceRadius)
	g.widgetDisplaySteering = g.panel.AddCheckbox("Steering", g.cfg.DisplaySteering)
	g.widgetDisplayCollision = g.panel.AddCheckbox("Collisions", g.cfg.DisplayCollisions)
	g.panel.EndSection()
}

func (g *Game) loadScript() error {
	g.script = nil
	if g.cfg.TargetScript == "" {
		return nil
	}
	ts, err := script.LoadTargetScript(g.cfg.TargetScript)
	if err != nil {
		return err
	}
	g.script = ts
	return nil
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update()

	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
		// Use previous state if new one isn't ready
	}

	g.pollWatcher()
	if g.resetRequested {
		g.resetRequested = false
		g.reset(g.cfg)
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if !g.panel.Contains(float64(x), float64(y)) {
			pos := g.camera.ScreenToWorld(float64(x), float64(y))
			g.logger.Infof("set Target position to %v", pos)
			g.setTarget(pos)
		}
	}

	if g.widgetPaused.Value {
		return nil
	}

	dt := g.widgetTimeScale.Value / float64(ebiten.TPS())
	if g.script != nil {
		g.driveScript()
	}
	if err := actor.Tell(g.ctx, g.worldPID, simulation.NewTick(dt)); err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	g.simTime += dt
	g.ticks++
	return nil
}

func (g *Game) driveScript() {
	pos, ok, err := g.script.Eval(g.simTime, g.ticks)
	switch {
	case err != nil:
		g.logger.Warnf("target script %s: %v", g.script.Path(), err)
	case ok:
		g.setTarget(pos)
	default:
		_ = actor.Tell(g.ctx, g.worldPID, simulation.NewClearTargets())
	}
}

func (g *Game) setTarget(pos geometry.Vector2D) {
	if err := actor.Tell(g.ctx, g.worldPID, simulation.NewSetTarget(pos)); err != nil {
		g.logger.Errorf("set target: %v", err)
	}
}

func (g *Game) pollWatcher() {
	if g.watcher == nil {
		return
	}
	select {
	case cfg, ok := <-g.watcher.Configs:
		if ok {
			g.logger.Infof("config reloaded from disk: %d agents", cfg.Population)
			g.reset(cfg)
		}
	case err, ok := <-g.watcher.Errors:
		if ok {
			g.logger.Warnf("config reload: %v", err)
		}
	default:
	}
}

// reset starts a new run from cfg with the target back at the origin.
func (g *Game) reset(cfg *simulation.Config) {
	msg, err := simulation.NewReset(cfg)
	if err != nil {
		g.logger.Errorf("reset: %v", err)
		return
	}
	g.cfg = cfg
	if err := g.loadScript(); err != nil {
		g.logger.Warnf("target script: %v", err)
	}
	g.widgetTimeScale.SetValue(cfg.TimeScale)
	g.simTime, g.ticks = 0, 0
	_ = actor.Tell(g.ctx, g.worldPID, msg)
	if g.script == nil {
		g.setTarget(geometry.Zero)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(backgroundColor)
	state := g.lastState

	if state.Stats.HasTarget {
		tx, ty := g.camera.WorldToScreen(state.Target)
		vector.FillCircle(screen, float32(tx), float32(ty), float32(targetRadius*g.camera.Zoom), targetColor, true)
	}

	avoidance := float32(g.cfg.AvoidanceRadius * g.camera.Zoom)
	for i, a := range state.Agents {
		x, y := g.camera.WorldToScreen(a.Position)
		if g.widgetDisplayAvoidance.Value {
			vector.StrokeCircle(screen, float32(x), float32(y), avoidance, 1, radiusColor, true)
		}
		if g.widgetDisplaySteering.Value && i < len(state.Steering) {
			sx, sy := g.camera.WorldToScreen(a.Position.Add(state.Steering[i].Mul(steeringLen)))
			vector.StrokeLine(screen, float32(x), float32(y), float32(sx), float32(sy), 1, steeringColor, true)
		}
		clr := agentColor
		if a.Colliding && g.widgetDisplayCollision.Value {
			clr = collidingColor
		}
		drawBoid(screen, x, y, ScreenAngle(a.Orientation), agentSize*g.camera.Zoom, clr)
	}

	g.panel.Draw(screen)

	msg := fmt.Sprintf("Tick: %d\nAgents: %d\nColliding: %d\nMean dist: %.1f\nAlignment: %.2f\n\nFPS: %.2f\nTPS: %.2f\nUpdate: %.2fms\nDraw:   %.2fms",
		state.Stats.Tick,
		state.Stats.Agents,
		state.Stats.Colliding,
		state.Stats.MeanDistance,
		state.Stats.MeanAlignment,
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, g.cfg.ScreenWidth-150, 10)
}

// drawBoid draws a triangle pointing along angle (screen radians, clockwise).
func drawBoid(screen *ebiten.Image, x, y, angle, size float64, clr color.RGBA) {
	r, g, b, a := float32(clr.R)/255, float32(clr.G)/255, float32(clr.B)/255, float32(clr.A)/255
	vertex := func(theta, length float64) ebiten.Vertex {
		return ebiten.Vertex{
			DstX:   float32(x + math.Cos(theta)*length),
			DstY:   float32(y + math.Sin(theta)*length),
			SrcX:   1,
			SrcY:   1,
			ColorR: r,
			ColorG: g,
			ColorB: b,
			ColorA: a,
		}
	}
	vertices := []ebiten.Vertex{
		vertex(angle, size),
		vertex(angle+2.5, size*0.8),
		vertex(angle-2.5, size*0.8),
	}
	screen.DrawTriangles(vertices, []uint16{0, 1, 2}, whiteImage, &ebiten.DrawTrianglesOptions{})
}

func (g *Game) Layout(w, h int) (int, int) { return g.cfg.ScreenWidth, g.cfg.ScreenHeight }

func init() {
	whiteImage.Fill(color.White)
}
