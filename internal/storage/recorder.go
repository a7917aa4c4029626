package storage

import (
	"github.com/san-kum/osvsim/internal/telemetry"
)

// Recorder buffers a run's frames and console output in memory until the
// run ends and Flush writes them to the store.
type Recorder struct {
	store  *Store
	run    *Run
	frames []telemetry.Frame
	lines  []ConsoleLine
}

func NewRecorder(store *Store, run *Run) *Recorder {
	return &Recorder{store: store, run: run}
}

func (r *Recorder) OnFrame(f telemetry.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func (r *Recorder) OnConsole(frame int, text string) {
	r.lines = append(r.lines, ConsoleLine{FrameNo: frame, Text: text})
}

// Flush saves the buffered run along with how it ended and its tick timing.
func (r *Recorder) Flush(finalState string, perf telemetry.PerfStats) error {
	r.run.FinalState = finalState
	r.run.Overruns = perf.Overruns
	r.run.AvgTickUS = perf.AvgTickDuration.Microseconds()
	return r.store.Save(r.run, r.frames, r.lines)
}

func (r *Recorder) Run() *Run { return r.run }
