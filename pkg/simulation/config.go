package simulation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/lao-tseu-is-alive/go-boids-follow/pkg/swarm"
)

//go:embed config.schema.json
var configSchemaJSON string

var configSchema = jsonschema.MustCompileString("config.schema.json", configSchemaJSON)

type Config struct {
	// Window
	ScreenWidth  int `json:"screenWidth" yaml:"screenWidth"`
	ScreenHeight int `json:"screenHeight" yaml:"screenHeight"`

	// Population
	Population      int     `json:"population" yaml:"population"`
	SpawnHalfExtent float64 `json:"spawnHalfExtent" yaml:"spawnHalfExtent"`
	Seed            uint64  `json:"seed" yaml:"seed"` // 0 picks a seed from the clock

	// Agent
	Speed          float64 `json:"speed" yaml:"speed"`       // units per second
	TurnRate       float64 `json:"turnRate" yaml:"turnRate"` // degrees per second
	ColliderRadius float64 `json:"colliderRadius" yaml:"colliderRadius"`
	// AvoidanceRadius of 0 means twice the collider radius.
	AvoidanceRadius float64 `json:"avoidanceRadius" yaml:"avoidanceRadius"`

	// Pipeline
	NeighborIndex string `json:"neighborIndex" yaml:"neighborIndex"`
	Workers       int    `json:"workers" yaml:"workers"` // 0 means one per CPU
	TargetPolicy  string `json:"targetPolicy" yaml:"targetPolicy"`

	// TimeScale multiplies the fixed per-frame timestep.
	TimeScale float64 `json:"timeScale" yaml:"timeScale"`
	// TargetScript is a tengo program that moves the target every tick.
	TargetScript string `json:"targetScript,omitempty" yaml:"targetScript,omitempty"`

	DisplayAvoidanceRadius bool `json:"displayAvoidanceRadius" yaml:"displayAvoidanceRadius"`
	DisplaySteering        bool `json:"displaySteering" yaml:"displaySteering"`
	DisplayCollisions      bool `json:"displayCollisions" yaml:"displayCollisions"`
}

func DefaultConfig() *Config {
	return &Config{
		ScreenWidth:       1280,
		ScreenHeight:      720,
		Population:        swarm.DefaultPopulation,
		SpawnHalfExtent:   swarm.DefaultSpawnHalfExtent,
		Speed:             swarm.DefaultSpeed,
		TurnRate:          swarm.DefaultTurnRate,
		ColliderRadius:    swarm.DefaultColliderRadius,
		AvoidanceRadius:   swarm.DefaultAvoidanceRadius,
		NeighborIndex:     string(swarm.IndexBruteForce),
		Workers:           1,
		TargetPolicy:      swarm.TargetPolicyRequireSingle.String(),
		TimeScale:         1,
		DisplayCollisions: true,
	}
}

// LoadConfig reads a JSON or YAML file (by extension), validates it against
// the embedded schema and overlays it on DefaultConfig.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		if b, err = yamlToJSON(b); err != nil {
			return nil, err
		}
	}

	cfg, err := ParseConfig(b)
	if err != nil {
		return nil, err
	}
	if cfg.TargetScript != "" && !filepath.IsAbs(cfg.TargetScript) {
		cfg.TargetScript = filepath.Join(filepath.Dir(configFile), cfg.TargetScript)
	}
	return cfg, nil
}

// ParseConfig validates a JSON document and overlays it on DefaultConfig.
func ParseConfig(b []byte) (*Config, error) {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := configSchema.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.AvoidanceRadius == 0 {
		cfg.AvoidanceRadius = 2 * cfg.ColliderRadius
	}
	return cfg, nil
}

// yamlToJSON lets YAML files go through the same schema as JSON ones.
func yamlToJSON(b []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config yaml: %w", err)
	}
	if v == nil {
		v = map[string]interface{}{}
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to convert config yaml: %w", err)
	}
	return out, nil
}

// JSON is the document ParseConfig accepts, used to ship a config to the world actor.
func (c *Config) JSON() ([]byte, error) {
	return json.Marshal(c)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// SwarmOptions maps the config onto the steering core.
func (c *Config) SwarmOptions() (swarm.Options, error) {
	policy, err := swarm.ParseTargetPolicy(c.TargetPolicy)
	if err != nil {
		return swarm.Options{}, err
	}
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	workers := c.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	radius := c.AvoidanceRadius
	if radius == 0 {
		radius = 2 * c.ColliderRadius
	}
	return swarm.Options{
		Population:      c.Population,
		SpawnHalfExtent: c.SpawnHalfExtent,
		Seed:            seed,
		Speed:           c.Speed,
		TurnRate:        c.TurnRate,
		AvoidanceRadius: radius,
		NeighborIndex:   swarm.IndexKind(c.NeighborIndex),
		Workers:         workers,
		TargetPolicy:    policy,
	}, nil
}
