//go:build !unix

package sandbox

import (
	"errors"
	"os"
	"syscall"
)

var errUnsupported = errors.New("non-blocking pipe reads are not supported on this platform")

func readNonblocking(*os.File, []byte) (int, error) { return 0, errUnsupported }

func sysProcAttr() *syscall.SysProcAttr { return nil }
