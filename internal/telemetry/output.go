package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// OutputManager appends per-tick frames and the final perf summary to CSV
// files in one directory.
type OutputManager struct {
	dir       string
	frameFile *os.File
	perfFile  *os.File

	frameHeaderWritten bool
}

// NewOutputManager creates dir and its CSV files. An empty dir disables
// output and returns a nil manager whose methods are no-ops.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	om.frameFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.frameFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

func (om *OutputManager) WriteFrame(f Frame) error {
	if om == nil {
		return nil
	}

	records := []Row{f.Row()}
	if !om.frameHeaderWritten {
		if err := gocsv.Marshal(records, om.frameFile); err != nil {
			return fmt.Errorf("writing frame: %w", err)
		}
		om.frameHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.frameFile); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

func (om *OutputManager) WritePerf(stats PerfStats) error {
	if om == nil {
		return nil
	}
	if err := gocsv.Marshal([]PerfStatsCSV{stats.ToCSV()}, om.perfFile); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.frameFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WriteRows writes rows as a single CSV document with a header.
func WriteRows(w io.Writer, rows []Row) error {
	return gocsv.Marshal(rows, w)
}

// ReadRows parses a CSV document produced by WriteRows.
func ReadRows(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
