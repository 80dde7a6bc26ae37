package simulation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/swarm"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_JSONOverlaysDefaults(t *testing.T) {
	path := writeFile(t, "boids.json", `{"population": 250, "neighborIndex": "grid", "targetPolicy": "lowestId"}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Population != 250 || cfg.NeighborIndex != "grid" || cfg.TargetPolicy != "lowestId" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	def := DefaultConfig()
	if cfg.Speed != def.Speed || cfg.TurnRate != def.TurnRate || cfg.ScreenWidth != def.ScreenWidth {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeFile(t, "boids.yaml", `
population: 12
speed: 80
colliderRadius: 6
avoidanceRadius: 0
targetScript: orbit.tengo
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Population != 12 || cfg.Speed != 80 {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	if cfg.AvoidanceRadius != 12 {
		t.Errorf("AvoidanceRadius = %g, want twice the collider radius", cfg.AvoidanceRadius)
	}
	if want := filepath.Join(filepath.Dir(path), "orbit.tengo"); cfg.TargetScript != want {
		t.Errorf("TargetScript = %q, want %q", cfg.TargetScript, want)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown field", "a.json", `{"populaton": 3}`},
		{"negative population", "b.json", `{"population": -1}`},
		{"bad index", "c.json", `{"neighborIndex": "quadtree"}`},
		{"bad policy", "d.yaml", "targetPolicy: nearest\n"},
		{"zero time scale", "e.json", `{"timeScale": 0}`},
		{"not json", "f.json", `{population:`},
		{"not yaml", "g.yml", "population: [1,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeFile(t, tt.file, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfig_JSONRoundTripsThroughParse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Population = 33
	cfg.Seed = 99
	b, err := cfg.JSON()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParseConfig(b)
	if err != nil {
		t.Fatalf("ParseConfig rejected its own output: %v", err)
	}
	if *back != *cfg {
		t.Errorf("got %+v, want %+v", back, cfg)
	}
}

func TestConfig_WriteYAMLLoads(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NeighborIndex = "rtree"
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatal(err)
	}
	back, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if back.NeighborIndex != "rtree" {
		t.Errorf("NeighborIndex = %q", back.NeighborIndex)
	}
}

func TestConfig_SwarmOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Workers = 3
	cfg.TargetPolicy = "lowestId"
	cfg.NeighborIndex = "grid"

	opts, err := cfg.SwarmOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Seed != 7 || opts.Workers != 3 || opts.TargetPolicy != swarm.TargetPolicyLowestID || opts.NeighborIndex != swarm.IndexGrid {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.AvoidanceRadius != swarm.DefaultAvoidanceRadius {
		t.Errorf("AvoidanceRadius = %g", opts.AvoidanceRadius)
	}

	cfg.Seed = 0
	cfg.Workers = 0
	opts, err = cfg.SwarmOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Seed == 0 || opts.Workers < 1 {
		t.Errorf("zero seed or workers not resolved: %+v", opts)
	}

	cfg.TargetPolicy = "nearest"
	if _, err := cfg.SwarmOptions(); err == nil {
		t.Error("expected error for unknown policy")
	}
}
