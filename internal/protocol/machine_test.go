package protocol

import (
	"bytes"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/rs/zerolog"

	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/sensor"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

var _ = Describe("Machine", func() {
	var (
		arena   *osv.Arena
		machine *Machine
		queue   *Queue
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		arena = &osv.Arena{
			Vehicle: osv.Vehicle{
				Pose:   osv.Pose{X: 0.35, Y: 0.7, Theta: -1.5},
				Width:  0.25,
				Height: 0.35,
			},
			Destination: osv.Pose{X: 3.4056, Y: 0.49},
			Width:       4,
			Height:      2,
		}
		arena.Vehicle.EnableAllSensors()
		machine = NewMachine(arena, sensor.New(sensor.DefaultRange), DefaultAck, zerolog.Nop())
		queue = NewQueue(MaxPending)
		out = &bytes.Buffer{}
	})

	process := func() Outcome {
		o, err := machine.Process(queue, out)
		Expect(err).NotTo(HaveOccurred())
		return o
	}

	It("acknowledges with the configured byte", func() {
		machine = NewMachine(arena, sensor.New(sensor.DefaultRange), 0x08, zerolog.Nop())
		Expect(machine.Ack()).To(Equal(byte(0x08)))

		queue.Push(EncodeSimple(OpTurnOffMotors))
		o := process()

		Expect(o.Consumed()).To(BeTrue())
		Expect(out.Bytes()).To(Equal([]byte{machine.Ack()}))
	})

	It("does nothing on an empty queue", func() {
		o := process()
		Expect(o.Status).To(Equal(StatusIdle))
		Expect(out.Len()).To(BeZero())
	})

	It("answers begin with the destination", func() {
		queue.Push(EncodeSimple(OpBegin))
		o := process()

		Expect(o.Consumed()).To(BeTrue())
		Expect(out.Bytes()).To(Equal(EncodeFloats(3.4056, 0.49, 0)))
		Expect(queue.Empty()).To(BeTrue())
	})

	It("answers updateLocation with the current pose", func() {
		queue.Push(EncodeSimple(OpUpdateLocation))
		process()

		vals, err := DecodeFloats(out.Bytes(), 3)
		Expect(err).NotTo(HaveOccurred())
		Expect(vals).To(Equal([]float32{0.35, 0.7, -1.5}))
	})

	Describe("motor commands", func() {
		It("sets the left PWM and acknowledges", func() {
			queue.Push(EncodeMotor(OpSetLeftMotorPWM, 120))
			o := process()

			Expect(o.Op).To(Equal(OpSetLeftMotorPWM))
			Expect(arena.Vehicle.LeftPWM).To(Equal(int16(120)))
			Expect(arena.Vehicle.RightPWM).To(BeZero())
			Expect(out.Bytes()).To(Equal([]byte{DefaultAck}))
		})

		It("sets a negative right PWM", func() {
			queue.Push(EncodeMotor(OpSetRightMotorPWM, -80))
			process()
			Expect(arena.Vehicle.RightPWM).To(Equal(int16(-80)))
		})

		DescribeTable("clamps out-of-range values idempotently",
			func(op Opcode, requested int16, want int16) {
				for i := 0; i < 2; i++ {
					queue.Push(EncodeMotor(op, requested))
					process()
				}
				got := arena.Vehicle.LeftPWM
				if op == OpSetRightMotorPWM {
					got = arena.Vehicle.RightPWM
				}
				Expect(got).To(Equal(want))
				Expect(out.Bytes()).To(Equal([]byte{DefaultAck, DefaultAck}))
			},
			Entry("left above", OpSetLeftMotorPWM, int16(1000), int16(255)),
			Entry("left below", OpSetLeftMotorPWM, int16(-1000), int16(-255)),
			Entry("right above", OpSetRightMotorPWM, int16(256), int16(255)),
			Entry("right below", OpSetRightMotorPWM, int16(-32768), int16(-255)),
		)

		It("turns both motors off from any state", func() {
			arena.Vehicle.LeftPWM, arena.Vehicle.RightPWM = 200, -13
			queue.Push(EncodeSimple(OpTurnOffMotors))
			process()

			Expect(arena.Vehicle.LeftPWM).To(BeZero())
			Expect(arena.Vehicle.RightPWM).To(BeZero())
			Expect(out.Bytes()).To(Equal([]byte{DefaultAck}))

			queue.Push(EncodeSimple(OpTurnOffMotors))
			process()
			Expect(out.Bytes()).To(Equal([]byte{DefaultAck, DefaultAck}))
		})
	})

	Describe("partial requests", func() {
		It("waits for the PWM payload before applying it", func() {
			queue.Push([]byte{byte(OpSetLeftMotorPWM)})
			o := process()
			Expect(o.Status).To(Equal(StatusPartial))
			Expect(out.Len()).To(BeZero())
			Expect(arena.Vehicle.LeftPWM).To(BeZero())
			Expect(queue.Len()).To(Equal(1))

			queue.Push([]byte{0x00, 0x64})
			o = process()
			Expect(o.Consumed()).To(BeTrue())
			Expect(arena.Vehicle.LeftPWM).To(Equal(int16(100)))
			Expect(out.Bytes()).To(Equal([]byte{DefaultAck}))

			o = process()
			Expect(o.Status).To(Equal(StatusIdle))
			Expect(out.Len()).To(Equal(1))
		})

		It("waits for the whole println text", func() {
			msg := EncodePrintln("hello")
			queue.Push(msg[:1])
			Expect(process().Status).To(Equal(StatusPartial))

			queue.Push(msg[1:4])
			Expect(process().Status).To(Equal(StatusPartial))
			Expect(out.Len()).To(BeZero())

			queue.Push(msg[4:])
			o := process()
			Expect(o.Consumed()).To(BeTrue())
			Expect(o.Text).To(Equal("hello"))
			Expect(out.Bytes()).To(Equal([]byte{DefaultAck}))
		})

		It("waits for the sensor index", func() {
			queue.Push([]byte{byte(OpReadDistanceSensor)})
			Expect(process().Status).To(Equal(StatusPartial))
			queue.Push([]byte{1})
			Expect(process().Consumed()).To(BeTrue())
			Expect(out.Len()).To(Equal(4))
		})
	})

	Describe("readDistanceSensor", func() {
		It("returns the full range with nothing in sight", func() {
			arena.Vehicle.Pose = osv.Pose{X: 2, Y: 1}
			queue.Push(EncodeSensor(1))
			process()
			Expect(Float32(out.Bytes())).To(Equal(float32(1.0)))
		})

		It("returns -1 for a disabled sensor", func() {
			arena.Vehicle.Sensors[4] = false
			queue.Push(EncodeSensor(4))
			process()
			Expect(Float32(out.Bytes())).To(Equal(float32(-1.0)))
		})

		It("rejects indices above 11 with -1 and consumes the request", func() {
			queue.Push(EncodeSensor(12))
			o := process()
			Expect(o.Consumed()).To(BeTrue())
			Expect(Float32(out.Bytes())).To(Equal(float32(-1.0)))
			Expect(queue.Empty()).To(BeTrue())
		})
	})

	It("ignores unknown opcodes without replying", func() {
		queue.Push([]byte{0x42, 0x01})
		o := process()

		Expect(o.Status).To(Equal(StatusIgnored))
		Expect(o.Consumed()).To(BeFalse())
		Expect(out.Len()).To(BeZero())
		Expect(queue.Empty()).To(BeTrue())
	})

	It("releases trailing bytes together with a decoded request", func() {
		queue.Push([]byte{byte(OpTurnOffMotors), byte(OpBegin)})
		process()

		Expect(queue.Empty()).To(BeTrue())
		Expect(out.Bytes()).To(Equal([]byte{DefaultAck}))
	})

	It("uses the configured ack byte", func() {
		machine = NewMachine(arena, sensor.New(sensor.DefaultRange), 0x08, zerolog.Nop())
		queue.Push(EncodeSimple(OpTurnOffMotors))
		process()
		Expect(out.Bytes()).To(Equal([]byte{0x08}))
	})

	It("reports write failures", func() {
		queue.Push(EncodeSimple(OpTurnOffMotors))
		_, err := machine.Process(queue, failingWriter{})
		Expect(err).To(MatchError(ContainSubstring("turnOffMotors")))
		Expect(arena.Vehicle.LeftPWM).To(BeZero())
	})
})
