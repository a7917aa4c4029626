package protocol

import (
	"errors"
	"io"
	"os"
)

// Queue accumulates bytes read from the child until a full request is
// available. It holds at most Cap bytes; older bytes are dropped first.
type Queue struct {
	buf     []byte
	cap     int
	chunks  int
	dropped int
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = MaxPending
	}
	return &Queue{
		buf: make([]byte, 0, capacity),
		cap: capacity,
	}
}

// Push appends a chunk at the tail and returns how many older bytes had to
// be discarded to stay within capacity.
func (q *Queue) Push(chunk []byte) int {
	if len(chunk) == 0 {
		return 0
	}
	q.chunks++

	lost := 0
	if len(chunk) >= q.cap {
		lost = len(q.buf) + len(chunk) - q.cap
		q.buf = append(q.buf[:0], chunk[len(chunk)-q.cap:]...)
		q.dropped += lost
		return lost
	}

	if over := len(q.buf) + len(chunk) - q.cap; over > 0 {
		n := copy(q.buf, q.buf[over:])
		q.buf = q.buf[:n]
		lost = over
		q.dropped += lost
	}
	q.buf = append(q.buf, chunk...)
	return lost
}

// Poll performs one read from r into scratch and queues whatever arrived.
// A reader with nothing to offer returns 0 and no error.
func (q *Queue) Poll(r io.Reader, scratch []byte) (int, error) {
	n, err := r.Read(scratch)
	if n > 0 {
		q.Push(scratch[:n])
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		err = nil
	}
	return n, err
}

func (q *Queue) Len() int { return len(q.buf) }

func (q *Queue) Empty() bool { return len(q.buf) == 0 }

// Chunks is the number of reads that contributed to the pending bytes.
func (q *Queue) Chunks() int { return q.chunks }

// Dropped is the total number of bytes lost to the capacity limit.
func (q *Queue) Dropped() int { return q.dropped }

// Peek returns the pending bytes without consuming them. The slice is only
// valid until the next Push or Drain.
func (q *Queue) Peek() []byte { return q.buf }

// Drain removes and returns the first n pending bytes.
func (q *Queue) Drain(n int) []byte {
	if n > len(q.buf) {
		n = len(q.buf)
	}
	out := make([]byte, n)
	copy(out, q.buf[:n])

	rest := copy(q.buf, q.buf[n:])
	q.buf = q.buf[:rest]
	if rest == 0 {
		q.chunks = 0
	}
	return out
}

// Reset discards everything pending.
func (q *Queue) Reset() {
	q.buf = q.buf[:0]
	q.chunks = 0
}
