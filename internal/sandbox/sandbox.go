// Package sandbox runs a compiled control program as a child process wired
// to two pipes. The engine writes protocol replies to the child's stdin and
// polls its stdout without ever blocking the tick loop.
package sandbox

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/san-kum/osvsim/internal/osv"
)

const stderrDrain = time.Second

// Process is the engine's view of a running child.
type Process interface {
	// Read returns whatever the child has written so far, or 0 bytes and a
	// nil error when nothing is pending. It never blocks.
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Terminate() error
	Pid() int
}

type Sandbox struct {
	cmd    *exec.Cmd
	stdin  *os.File
	stdout *os.File
	stderr *os.File
	log    zerolog.Logger

	forwarded chan struct{}
	once      sync.Once
	termErr   error
}

// Spawn starts path with no arguments. The child's stdin and stdout are
// pipes owned by the returned Sandbox and its stderr is forwarded to log at
// debug level. On Linux the child receives SIGTERM if the spawning thread
// exits, so callers should hold the OS thread for the life of the run.
func Spawn(ctx context.Context, path string, log zerolog.Logger) (*Sandbox, error) {
	toChildR, toChildW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", osv.ErrSandbox, err)
	}
	fromChildR, fromChildW, err := os.Pipe()
	if err != nil {
		closeAll(toChildR, toChildW)
		return nil, fmt.Errorf("%w: stdout pipe: %v", osv.ErrSandbox, err)
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(toChildR, toChildW, fromChildR, fromChildW)
		return nil, fmt.Errorf("%w: stderr pipe: %v", osv.ErrSandbox, err)
	}

	cmd := exec.CommandContext(ctx, path)
	cmd.Stdin = toChildR
	cmd.Stdout = fromChildW
	cmd.Stderr = errW
	cmd.SysProcAttr = sysProcAttr()

	if err := cmd.Start(); err != nil {
		closeAll(toChildR, toChildW, fromChildR, fromChildW, errR, errW)
		return nil, fmt.Errorf("%w: start %s: %v", osv.ErrSandbox, path, err)
	}

	// The child holds its own copies now.
	closeAll(toChildR, fromChildW, errW)

	s := &Sandbox{
		cmd:       cmd,
		stdin:     toChildW,
		stdout:    fromChildR,
		stderr:    errR,
		log:       log.With().Int("pid", cmd.Process.Pid).Logger(),
		forwarded: make(chan struct{}),
	}
	go s.forwardStderr()

	s.log.Debug().Str("path", path).Msg("child started")
	return s, nil
}

func (s *Sandbox) Pid() int { return s.cmd.Process.Pid }

func (s *Sandbox) Read(p []byte) (int, error) {
	return readNonblocking(s.stdout, p)
}

func (s *Sandbox) Write(p []byte) (int, error) {
	return s.stdin.Write(p)
}

// Terminate kills the child and releases the pipes. It is safe to call more
// than once.
func (s *Sandbox) Terminate() error {
	s.once.Do(func() {
		if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.termErr = fmt.Errorf("%w: kill %d: %v", osv.ErrSandbox, s.Pid(), err)
		}
		// A killed child always reports a non-nil wait status.
		_ = s.cmd.Wait()

		closeAll(s.stdin, s.stdout)
		// Grandchildren may keep stderr open; do not wait on them forever.
		select {
		case <-s.forwarded:
		case <-time.After(stderrDrain):
		}
		s.stderr.Close()
		s.log.Debug().Msg("child terminated")
	})
	return s.termErr
}

func (s *Sandbox) forwardStderr() {
	defer close(s.forwarded)
	sc := bufio.NewScanner(s.stderr)
	for sc.Scan() {
		s.log.Debug().Str("stream", "stderr").Msg(sc.Text())
	}
}

func closeAll(files ...io.Closer) {
	for _, f := range files {
		f.Close()
	}
}
