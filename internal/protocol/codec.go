package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

type Opcode byte

const (
	OpBegin Opcode = iota
	OpUpdateLocation
	OpPrintln
	OpSetLeftMotorPWM
	OpSetRightMotorPWM
	OpTurnOffMotors
	OpReadDistanceSensor
)

// DefaultAck is the acknowledgement byte for println and motor commands.
const DefaultAck byte = 0x07

// MaxPending is the largest number of undecoded bytes kept between ticks.
const MaxPending = 258

var opNames = map[Opcode]string{
	OpBegin:              "begin",
	OpUpdateLocation:     "updateLocation",
	OpPrintln:            "println",
	OpSetLeftMotorPWM:    "setLeftMotorPWM",
	OpSetRightMotorPWM:   "setRightMotorPWM",
	OpTurnOffMotors:      "turnOffMotors",
	OpReadDistanceSensor: "readDistanceSensor",
}

func (o Opcode) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("opcode(0x%02x)", byte(o))
}

func (o Opcode) Valid() bool {
	_, ok := opNames[o]
	return ok
}

// RequestSize returns the full length of the request starting at buf[0], or
// false if not enough bytes are buffered to know it yet.
func RequestSize(buf []byte) (int, bool) {
	if len(buf) == 0 {
		return 0, false
	}
	switch Opcode(buf[0]) {
	case OpBegin, OpUpdateLocation, OpTurnOffMotors:
		return 1, true
	case OpReadDistanceSensor:
		return 2, true
	case OpSetLeftMotorPWM, OpSetRightMotorPWM:
		return 3, true
	case OpPrintln:
		if len(buf) < 2 {
			return 0, false
		}
		return 2 + int(buf[1]), true
	}
	return 0, false
}

func PutFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

func Float32(src []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src))
}

// EncodeFloats packs values as consecutive little-endian float32s.
func EncodeFloats(vals ...float32) []byte {
	out := make([]byte, 4*len(vals))
	for i, v := range vals {
		PutFloat32(out[4*i:], v)
	}
	return out
}

// DecodeFloats unpacks n little-endian float32s.
func DecodeFloats(src []byte, n int) ([]float32, error) {
	if len(src) < 4*n {
		return nil, fmt.Errorf("decode %d floats: need %d bytes, have %d", n, 4*n, len(src))
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = Float32(src[4*i:])
	}
	return out, nil
}

// EncodePWM returns the (hi, lo) payload of a motor command.
func EncodePWM(pwm int16) [2]byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(pwm))
	return b
}

func DecodePWM(hi, lo byte) int16 {
	return int16(binary.BigEndian.Uint16([]byte{hi, lo}))
}

// Request builders used by the client side.

func EncodeSimple(op Opcode) []byte { return []byte{byte(op)} }

func EncodeMotor(op Opcode, pwm int16) []byte {
	p := EncodePWM(pwm)
	return []byte{byte(op), p[0], p[1]}
}

func EncodeSensor(index byte) []byte {
	return []byte{byte(OpReadDistanceSensor), index}
}

// EncodePrintln truncates text to 255 bytes.
func EncodePrintln(text string) []byte {
	if len(text) > math.MaxUint8 {
		text = text[:math.MaxUint8]
	}
	out := make([]byte, 0, 2+len(text))
	out = append(out, byte(OpPrintln), byte(len(text)))
	return append(out, text...)
}
