//go:build unix

package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/san-kum/osvsim/internal/osv"
)

const childEnv = "OSVSIM_SANDBOX_CHILD"

// TestMain lets the test binary double as the sandboxed child.
func TestMain(m *testing.M) {
	switch os.Getenv(childEnv) {
	case "":
		os.Exit(m.Run())
	case "echo":
		io.Copy(os.Stdout, os.Stdin)
		os.Exit(0)
	case "stderr":
		fmt.Fprintln(os.Stderr, "hello from child")
		time.Sleep(time.Hour)
	case "exit":
		os.Exit(0)
	default:
		time.Sleep(time.Hour)
	}
}

func spawnChild(t *testing.T, mode string, log zerolog.Logger) *Sandbox {
	t.Helper()
	t.Setenv(childEnv, mode)

	s, err := Spawn(context.Background(), os.Args[0], log)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	t.Cleanup(func() { s.Terminate() })
	return s
}

// readUntil polls s until want bytes have arrived or the deadline passes.
func readUntil(t *testing.T, s *Sandbox, want int) ([]byte, error) {
	t.Helper()
	var got []byte
	buf := make([]byte, 64)
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		n, err := s.Read(buf)
		got = append(got, buf[:n]...)
		if err != nil || len(got) >= want {
			return got, err
		}
		time.Sleep(5 * time.Millisecond)
	}
	return got, nil
}

func TestSpawnMissingBinary(t *testing.T) {
	_, err := Spawn(context.Background(), "/nonexistent/osv-program", zerolog.Nop())
	if err == nil {
		t.Fatal("expected spawn error")
	}
	if !errors.Is(err, osv.ErrSandbox) {
		t.Errorf("expected ErrSandbox, got %v", err)
	}
}

func TestReadNeverBlocks(t *testing.T) {
	s := spawnChild(t, "sleep", zerolog.Nop())

	buf := make([]byte, 16)
	start := time.Now()
	n, err := s.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no bytes, got %d", n)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("read blocked for %v", elapsed)
	}
}

func TestEchoRoundTrip(t *testing.T) {
	s := spawnChild(t, "echo", zerolog.Nop())

	if s.Pid() <= 0 {
		t.Errorf("invalid pid %d", s.Pid())
	}
	if _, err := s.Write([]byte{0x03, 0x00, 0xff}); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := readUntil(t, s, 3)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, []byte{0x03, 0x00, 0xff}) {
		t.Errorf("got %v", got)
	}
}

func TestChildExitReportsEOF(t *testing.T) {
	s := spawnChild(t, "exit", zerolog.Nop())

	_, err := readUntil(t, s, 1)
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF after child exit, got %v", err)
	}
}

func TestTerminate(t *testing.T) {
	s := spawnChild(t, "sleep", zerolog.Nop())

	if err := s.Terminate(); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := s.Terminate(); err != nil {
		t.Errorf("second terminate: %v", err)
	}
	if _, err := s.Write([]byte{0x05}); err == nil {
		t.Error("expected write to fail after terminate")
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStderrForwarded(t *testing.T) {
	var out syncBuffer
	log := zerolog.New(&out).Level(zerolog.DebugLevel)
	s := spawnChild(t, "stderr", log)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && !strings.Contains(out.String(), "hello from child") {
		time.Sleep(5 * time.Millisecond)
	}
	s.Terminate()

	if !strings.Contains(out.String(), "hello from child") {
		t.Errorf("stderr line not logged: %q", out.String())
	}
	if !strings.Contains(out.String(), `"stream":"stderr"`) {
		t.Errorf("missing stream field: %q", out.String())
	}
}
