package protocol

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/sensor"
)

type Status int

const (
	// StatusIdle means the queue was empty.
	StatusIdle Status = iota
	// StatusPartial means a known request is still arriving.
	StatusPartial
	// StatusHandled means a request was executed and answered.
	StatusHandled
	// StatusIgnored means the opcode was unknown; no reply was sent.
	StatusIgnored
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPartial:
		return "partial"
	case StatusHandled:
		return "handled"
	case StatusIgnored:
		return "ignored"
	}
	return "unknown"
}

// Outcome describes what one Process call did.
type Outcome struct {
	Op     Opcode
	Status Status
	Reply  []byte
	Text   string
}

// Consumed reports whether a request was fully decoded and answered.
func (o Outcome) Consumed() bool { return o.Status == StatusHandled }

// Machine decodes requests from a Queue and executes them against an arena.
type Machine struct {
	arena   *osv.Arena
	sensors *sensor.Model
	ack     byte
	log     zerolog.Logger
}

func NewMachine(arena *osv.Arena, sensors *sensor.Model, ack byte, log zerolog.Logger) *Machine {
	return &Machine{
		arena:   arena,
		sensors: sensors,
		ack:     ack,
		log:     log,
	}
}

// Ack is the byte written back for println and motor requests.
func (m *Machine) Ack() byte { return m.ack }

// Process services at most one request from q, writing its reply to w.
// Incomplete requests leave q untouched. The returned error is only set
// when the reply could not be written.
func (m *Machine) Process(q *Queue, w io.Writer) (Outcome, error) {
	if q.Empty() {
		return Outcome{Status: StatusIdle}, nil
	}

	buf := q.Peek()
	op := Opcode(buf[0])
	if !op.Valid() {
		m.log.Debug().Uint8("opcode", buf[0]).Int("pending", q.Len()).Msg("unknown opcode, dropping pending bytes")
		q.Reset()
		return Outcome{Op: op, Status: StatusIgnored}, nil
	}

	size, ok := RequestSize(buf)
	if !ok || len(buf) < size {
		return Outcome{Op: op, Status: StatusPartial}, nil
	}

	out := m.execute(op, buf[:size])
	q.Reset()

	if _, err := w.Write(out.Reply); err != nil {
		return out, fmt.Errorf("write %s reply: %w", op, err)
	}
	return out, nil
}

func (m *Machine) execute(op Opcode, req []byte) Outcome {
	out := Outcome{Op: op, Status: StatusHandled}
	v := &m.arena.Vehicle

	switch op {
	case OpBegin:
		d := m.arena.Destination
		out.Reply = EncodeFloats(d.X, d.Y, d.Theta)
	case OpUpdateLocation:
		p := v.Pose
		out.Reply = EncodeFloats(p.X, p.Y, p.Theta)
	case OpPrintln:
		out.Text = string(req[2:])
		out.Reply = []byte{m.ack}
	case OpSetLeftMotorPWM:
		v.SetLeftPWM(int(DecodePWM(req[1], req[2])))
		out.Reply = []byte{m.ack}
	case OpSetRightMotorPWM:
		v.SetRightPWM(int(DecodePWM(req[1], req[2])))
		out.Reply = []byte{m.ack}
	case OpTurnOffMotors:
		v.StopMotors()
		out.Reply = []byte{m.ack}
	case OpReadDistanceSensor:
		out.Reply = EncodeFloats(m.sensors.Read(m.arena, int(req[1])))
	}
	return out
}
