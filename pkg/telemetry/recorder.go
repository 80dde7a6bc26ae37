package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// AgentSample is one row of agents.csv.
type AgentSample struct {
	Tick        uint64  `csv:"tick"`
	ID          uint32  `csv:"id"`
	X           float64 `csv:"x"`
	Y           float64 `csv:"y"`
	Orientation float64 `csv:"orientation"`
	Colliding   bool    `csv:"colliding"`
}

// Recorder appends telemetry rows to agents.csv and stats.csv in one directory.
// A nil *Recorder discards everything, so callers need not check whether
// recording is enabled.
type Recorder struct {
	dir        string
	agentsFile *os.File
	statsFile  *os.File

	agentsHeaderWritten bool
	statsHeaderWritten  bool
}

// NewRecorder creates dir and both CSV files inside it.
// It returns nil, nil when dir is empty.
func NewRecorder(dir string) (*Recorder, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	agents, err := os.Create(filepath.Join(dir, "agents.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating agents.csv: %w", err)
	}
	stats, err := os.Create(filepath.Join(dir, "stats.csv"))
	if err != nil {
		agents.Close()
		return nil, fmt.Errorf("creating stats.csv: %w", err)
	}
	return &Recorder{dir: dir, agentsFile: agents, statsFile: stats}, nil
}

// Dir is the output directory, empty for a nil recorder.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

func (r *Recorder) WriteStats(s Stats) error {
	if r == nil {
		return nil
	}
	if err := writeRows([]Stats{s}, r.statsFile, &r.statsHeaderWritten); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

func (r *Recorder) WriteAgents(samples []AgentSample) error {
	if r == nil || len(samples) == 0 {
		return nil
	}
	if err := writeRows(samples, r.agentsFile, &r.agentsHeaderWritten); err != nil {
		return fmt.Errorf("writing agents: %w", err)
	}
	return nil
}

// writeRows emits the CSV header only on the first call for a file.
func writeRows(rows interface{}, f *os.File, headerWritten *bool) error {
	if *headerWritten {
		return gocsv.MarshalWithoutHeaders(rows, f)
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		return err
	}
	*headerWritten = true
	return nil
}

func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	errA := r.agentsFile.Close()
	errS := r.statsFile.Close()
	if errA != nil {
		return errA
	}
	return errS
}
