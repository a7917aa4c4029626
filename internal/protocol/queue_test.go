package protocol

import (
	"bytes"
	"io"
	"os"
	"testing"
)

func TestQueuePushDrain(t *testing.T) {
	q := NewQueue(MaxPending)
	q.Push([]byte{1, 2})
	q.Push([]byte{3})
	q.Push(nil)

	if q.Len() != 3 {
		t.Fatalf("expected 3 pending bytes, got %d", q.Len())
	}
	if q.Chunks() != 2 {
		t.Errorf("expected 2 chunks, got %d", q.Chunks())
	}

	got := q.Drain(2)
	if !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("Drain(2) = %v", got)
	}
	if !bytes.Equal(q.Peek(), []byte{3}) {
		t.Errorf("remaining = %v, want [3]", q.Peek())
	}

	got = q.Drain(10)
	if !bytes.Equal(got, []byte{3}) {
		t.Errorf("Drain past end = %v", got)
	}
	if !q.Empty() || q.Chunks() != 0 {
		t.Error("queue should be empty after draining everything")
	}
}

func TestQueueDrainSpansChunks(t *testing.T) {
	q := NewQueue(MaxPending)
	q.Push([]byte{0x03})
	q.Push([]byte{0x00, 0xff})
	q.Push([]byte{0x05})

	got := q.Drain(3)
	if !bytes.Equal(got, []byte{0x03, 0x00, 0xff}) {
		t.Errorf("Drain(3) = %v", got)
	}
	if q.Len() != 1 {
		t.Errorf("expected 1 byte left, got %d", q.Len())
	}
}

func TestQueueDrainOwnsBytes(t *testing.T) {
	q := NewQueue(MaxPending)
	q.Push([]byte{1, 2, 3})
	got := q.Drain(1)
	q.Push([]byte{9})

	if got[0] != 1 {
		t.Errorf("drained slice was mutated: %v", got)
	}
}

func TestQueueCapacity(t *testing.T) {
	q := NewQueue(4)

	if lost := q.Push([]byte{1, 2, 3}); lost != 0 {
		t.Errorf("unexpected loss %d", lost)
	}
	if lost := q.Push([]byte{4, 5}); lost != 1 {
		t.Errorf("expected 1 byte lost, got %d", lost)
	}
	if !bytes.Equal(q.Peek(), []byte{2, 3, 4, 5}) {
		t.Errorf("pending = %v", q.Peek())
	}

	if lost := q.Push([]byte{6, 7, 8, 9, 10}); lost != 5 {
		t.Errorf("expected 5 bytes lost, got %d", lost)
	}
	if !bytes.Equal(q.Peek(), []byte{7, 8, 9, 10}) {
		t.Errorf("pending = %v", q.Peek())
	}
	if q.Dropped() != 6 {
		t.Errorf("expected 6 dropped in total, got %d", q.Dropped())
	}
}

type stubReader struct {
	data []byte
	err  error
}

func (r *stubReader) Read(p []byte) (int, error) {
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, r.err
}

func TestQueuePoll(t *testing.T) {
	q := NewQueue(MaxPending)
	scratch := make([]byte, 8)

	n, err := q.Poll(&stubReader{err: os.ErrDeadlineExceeded}, scratch)
	if n != 0 || err != nil {
		t.Errorf("empty poll = (%d, %v), want (0, nil)", n, err)
	}

	n, err = q.Poll(&stubReader{data: []byte{0x01}}, scratch)
	if n != 1 || err != nil {
		t.Errorf("poll = (%d, %v)", n, err)
	}

	_, err = q.Poll(&stubReader{err: io.EOF}, scratch)
	if err != io.EOF {
		t.Errorf("expected EOF to pass through, got %v", err)
	}

	if q.Len() != 1 {
		t.Errorf("expected 1 pending byte, got %d", q.Len())
	}
}
