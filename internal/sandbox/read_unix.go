//go:build unix

package sandbox

import (
	"errors"
	"io"
	"os"
	"syscall"
)

// readNonblocking issues a single read(2) on the pipe's non-blocking
// descriptor, bypassing the runtime poller so an empty pipe yields 0 bytes
// instead of parking the goroutine.
func readNonblocking(f *os.File, p []byte) (int, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}

	var n int
	var rerr error
	err = rc.Read(func(fd uintptr) bool {
		n, rerr = syscall.Read(int(fd), p)
		return true
	})
	if err != nil {
		return 0, err
	}

	switch {
	case errors.Is(rerr, syscall.EAGAIN), errors.Is(rerr, syscall.EINTR):
		return 0, nil
	case rerr != nil:
		return 0, rerr
	case n == 0 && len(p) > 0:
		return 0, io.EOF
	}
	return n, nil
}
