package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Logger receives a group of named scalar metrics once per emission.
// The sink is assumed available; implementations do not report failures.
type Logger interface {
	Log(fields map[string]float64)
}

// NopLogger discards all metrics.
type NopLogger struct{}

func (NopLogger) Log(map[string]float64) {}

// RunLogger appends one JSON object per emission to a writer, tagged
// with a run id and a monotonically increasing step.
type RunLogger struct {
	w     io.Writer
	c     io.Closer
	runID string
	step  int
}

type runRecord struct {
	Run    string             `json:"run"`
	Step   int                `json:"step"`
	Fields map[string]float64 `json:"fields"`
}

// NewRunLogger wraps an existing writer.
func NewRunLogger(w io.Writer) *RunLogger {
	return &RunLogger{w: w, runID: uuid.NewString()}
}

// OpenRunLogger creates or appends to a JSONL file at path.
func OpenRunLogger(path string) (*RunLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create metrics dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open metrics log: %w", err)
	}
	l := NewRunLogger(f)
	l.c = f
	return l, nil
}

// RunID returns the identifier stamped on every record.
func (l *RunLogger) RunID() string { return l.runID }

func (l *RunLogger) Log(fields map[string]float64) {
	l.step++
	rec := runRecord{Run: l.runID, Step: l.step, Fields: fields}
	// Sink failures are not handled; see the metric emission contract.
	_ = json.NewEncoder(l.w).Encode(rec)
}

// Close releases the underlying file, if any.
func (l *RunLogger) Close() error {
	if l.c == nil {
		return nil
	}
	return l.c.Close()
}
