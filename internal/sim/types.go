// Package sim is the real-time frame loop that ties a sandboxed control
// program to the simulated arena.
package sim

import (
	"context"
	"time"

	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/sandbox"
	"github.com/san-kum/osvsim/internal/telemetry"
)

// State is the scheduler's lifecycle position.
type State int

const (
	StateRunning State = iota
	StateTimedOut
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTimedOut:
		return "timed_out"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Observer receives every telemetry frame in order. An error stops the run.
type Observer interface {
	OnFrame(f telemetry.Frame) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(telemetry.Frame) error

func (f ObserverFunc) OnFrame(fr telemetry.Frame) error { return f(fr) }

// ConsoleObserver is implemented by observers that also want println text.
type ConsoleObserver interface {
	OnConsole(frame int, text string)
}

// Launcher starts the child process for a run.
type Launcher func(ctx context.Context) (sandbox.Process, error)

type Config struct {
	TickRate    float64
	Timeout     time.Duration
	Ack         byte
	ReadBuffer  int
	QueueCap    int
	SensorRange float64
}

// Period is the tick length implied by TickRate.
func (c Config) Period() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}

// Result summarises a finished run.
type Result struct {
	Frames     int
	State      State
	TimedOut   bool
	Final      osv.Pose
	Collisions int
	Anomalies  int
	Dropped    int
	ChildGone  bool
	Perf       telemetry.PerfStats
}
