package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/physics"
	"github.com/san-kum/osvsim/internal/protocol"
	"github.com/san-kum/osvsim/internal/sandbox"
	"github.com/san-kum/osvsim/internal/sensor"
	"github.com/san-kum/osvsim/internal/telemetry"
)

// Scheduler owns the arena for one run and drives it at a fixed tick rate.
// Everything happens on the calling goroutine; nothing here is safe for
// concurrent use.
type Scheduler struct {
	cfg       Config
	arena     *osv.Arena
	drive     *physics.DifferentialDrive
	machine   *protocol.Machine
	queue     *protocol.Queue
	scratch   []byte
	proc      sandbox.Process
	observers []Observer
	perf      *telemetry.PerfCollector
	log       zerolog.Logger

	frame      int
	state      State
	childGone  bool
	collisions int
	anomalies  int
}

func New(arena *osv.Arena, cfg Config, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		arena:   arena,
		drive:   physics.NewDifferentialDrive(cfg.TickRate),
		machine: protocol.NewMachine(arena, sensor.New(cfg.SensorRange), cfg.Ack, log),
		queue:   protocol.NewQueue(cfg.QueueCap),
		scratch: make([]byte, cfg.ReadBuffer),
		perf:    telemetry.NewPerfCollector(int(cfg.TickRate), cfg.Period()),
		log:     log,
	}
}

func (s *Scheduler) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Attach hands the scheduler a running child. Run does this itself.
func (s *Scheduler) Attach(p sandbox.Process) { s.proc = p }

func (s *Scheduler) State() State { return s.state }

func (s *Scheduler) Frame() int { return s.frame }

// Run spawns the child and ticks until the timeout elapses or ctx is
// cancelled, then kills the child. Reaching the timeout is a normal finish.
func (s *Scheduler) Run(ctx context.Context, launch Launcher) (*Result, error) {
	if err := s.validateConfig(); err != nil {
		return nil, err
	}

	// The child's parent-death signal is tied to the spawning thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	proc, err := launch(ctx)
	if err != nil {
		return nil, err
	}
	s.Attach(proc)
	s.state = StateRunning
	s.log.Info().Int("pid", proc.Pid()).Uint8("ack", s.machine.Ack()).Dur("period", s.cfg.Period()).Dur("timeout", s.cfg.Timeout).Msg("run started")

	start := time.Now()
	next := start
	period := s.cfg.Period()

	var runErr error
	for s.state == StateRunning {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if time.Since(start) >= s.cfg.Timeout {
			s.state = StateTimedOut
			break
		}

		waitUntil(next)
		next = next.Add(period)

		if err := s.Tick(); err != nil {
			runErr = err
			break
		}
	}

	timedOut := s.state == StateTimedOut
	if err := proc.Terminate(); err != nil {
		s.log.Warn().Err(err).Msg("terminate child")
	}
	s.state = StateTerminated

	res := s.result()
	res.TimedOut = timedOut
	res.Perf.Log(s.log)
	s.log.Info().Int("frames", res.Frames).Int("collisions", res.Collisions).Int("anomalies", res.Anomalies).Msg("run finished")
	return res, runErr
}

// Tick runs one frame: poll the child, move the vehicle, service at most
// one request and publish telemetry.
func (s *Scheduler) Tick() error {
	s.perf.StartTick()
	defer s.perf.EndTick()

	s.perf.StartPhase(telemetry.PhaseRead)
	if err := s.poll(); err != nil {
		return &osv.RunError{Frame: s.frame, Op: "read", Wrapped: err}
	}

	s.perf.StartPhase(telemetry.PhasePhysics)
	if !s.drive.Step(s.arena) {
		s.collisions++
	}

	s.perf.StartPhase(telemetry.PhaseProtocol)
	s.service()

	s.perf.StartPhase(telemetry.PhaseTelemetry)
	frame := telemetry.NewFrame(s.frame, s.arena.Vehicle)
	for _, o := range s.observers {
		if err := o.OnFrame(frame); err != nil {
			return &osv.RunError{Frame: s.frame, Op: "telemetry", Wrapped: err}
		}
	}
	s.frame++
	return nil
}

func (s *Scheduler) poll() error {
	if s.childGone || s.proc == nil {
		return nil
	}

	dropped := s.queue.Dropped()
	_, err := s.queue.Poll(s.proc, s.scratch)
	if lost := s.queue.Dropped() - dropped; lost > 0 {
		s.log.Warn().Int("frame", s.frame).Int("bytes", lost).Msg("pending input over capacity, oldest bytes dropped")
	}

	switch {
	case errors.Is(err, io.EOF):
		s.childGone = true
		s.log.Info().Int("frame", s.frame).Msg("child closed its output")
		return nil
	case err != nil:
		return fmt.Errorf("%w: %v", osv.ErrSandbox, err)
	}
	return nil
}

func (s *Scheduler) service() {
	if s.proc == nil {
		return
	}

	out, err := s.machine.Process(s.queue, s.proc)
	if err != nil && !s.childGone {
		// The child is gone or stopped reading; keep simulating until the
		// timeout like any other silent program.
		s.childGone = true
		s.log.Warn().Err(err).Int("frame", s.frame).Msg("reply not delivered")
	}

	switch out.Status {
	case protocol.StatusHandled:
		if out.Op == protocol.OpPrintln {
			s.log.Info().Int("frame", s.frame).Str("text", out.Text).Msg("println")
			for _, o := range s.observers {
				if c, ok := o.(ConsoleObserver); ok {
					c.OnConsole(s.frame, out.Text)
				}
			}
		}
	case protocol.StatusIgnored:
		s.anomalies++
		s.log.Warn().Err(osv.ErrProtocol).Int("frame", s.frame).Uint8("opcode", uint8(out.Op)).Msg("unknown opcode ignored")
	}
}

func (s *Scheduler) result() *Result {
	return &Result{
		Frames:     s.frame,
		State:      s.state,
		Final:      s.arena.Vehicle.Pose,
		Collisions: s.collisions,
		Anomalies:  s.anomalies,
		Dropped:    s.queue.Dropped(),
		ChildGone:  s.childGone,
		Perf:       s.perf.Stats(),
	}
}

func (s *Scheduler) validateConfig() error {
	if s.cfg.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %f", s.cfg.TickRate)
	}
	if s.cfg.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", s.cfg.Timeout)
	}
	if s.cfg.ReadBuffer <= 0 {
		return fmt.Errorf("read buffer must be positive, got %d", s.cfg.ReadBuffer)
	}
	return nil
}

// waitUntil busy-waits for the next tick boundary.
func waitUntil(deadline time.Time) {
	for time.Now().Before(deadline) {
		runtime.Gosched()
	}
}
