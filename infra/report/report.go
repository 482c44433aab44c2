// Package report persists simulation results. It is a side-effecting
// boundary only; KPI computation happens in the simulation.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/transitlab/busopt/core/model"
)

// Build wraps a run summary with its metadata.
func Build(policy string, sampleSize int, results model.Summary) model.RunResult {
	return model.RunResult{
		RunID:      uuid.NewString(),
		Policy:     policy,
		Timestamp:  time.Now().UTC(),
		SampleSize: sampleSize,
		Results:    results,
	}
}

// WriteJSON writes the result document to w.
func WriteJSON(w io.Writer, r model.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// FileReporter persists result documents under a directory, one file per
// policy, mirroring the <policy>_simulation_results.json layout.
type FileReporter struct {
	Dir string
}

// Save writes the result and returns the file path.
func (f FileReporter) Save(r model.RunResult) (string, error) {
	if err := os.MkdirAll(f.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(f.Dir, fmt.Sprintf("%s_simulation_results.json", r.Policy))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteJSON(out, r); err != nil {
		_ = out.Close()
		return "", err
	}
	return path, out.Close()
}
