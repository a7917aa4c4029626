// Package client is the control-program side of the engine protocol. It is
// what a sandboxed program links against to drive the simulated vehicle,
// and what the engine's own tests use as a stand-in for compiled user code.
package client

import (
	"bufio"
	"fmt"
	"io"

	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/protocol"
)

// Client issues one request at a time and blocks until its reply arrives.
// It is not safe for concurrent use.
type Client struct {
	r   *bufio.Reader
	w   io.Writer
	ack byte
}

func New(r io.Reader, w io.Writer, ack byte) *Client {
	return &Client{r: bufio.NewReader(r), w: w, ack: ack}
}

// Begin returns the destination pose.
func (c *Client) Begin() (osv.Pose, error) {
	return c.pose(protocol.OpBegin)
}

// UpdateLocation returns the vehicle's current pose.
func (c *Client) UpdateLocation() (osv.Pose, error) {
	return c.pose(protocol.OpUpdateLocation)
}

func (c *Client) Println(text string) error {
	return c.acked(protocol.OpPrintln, protocol.EncodePrintln(text))
}

func (c *Client) SetLeftMotorPWM(pwm int) error {
	return c.acked(protocol.OpSetLeftMotorPWM, protocol.EncodeMotor(protocol.OpSetLeftMotorPWM, osv.ClampPWM(pwm)))
}

func (c *Client) SetRightMotorPWM(pwm int) error {
	return c.acked(protocol.OpSetRightMotorPWM, protocol.EncodeMotor(protocol.OpSetRightMotorPWM, osv.ClampPWM(pwm)))
}

func (c *Client) TurnOffMotors() error {
	return c.acked(protocol.OpTurnOffMotors, protocol.EncodeSimple(protocol.OpTurnOffMotors))
}

// ReadDistanceSensor returns the distance seen by sensor index, or -1 for a
// disabled sensor. Indices outside [0, 11] are answered locally.
func (c *Client) ReadDistanceSensor(index int) (float32, error) {
	if index < 0 || index >= osv.SensorCount {
		return -1, nil
	}
	if err := c.send(protocol.OpReadDistanceSensor, protocol.EncodeSensor(byte(index))); err != nil {
		return 0, err
	}

	var buf [4]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		return 0, fmt.Errorf("read distance reply: %w", err)
	}
	return protocol.Float32(buf[:]), nil
}

func (c *Client) pose(op protocol.Opcode) (osv.Pose, error) {
	if err := c.send(op, protocol.EncodeSimple(op)); err != nil {
		return osv.Pose{}, err
	}

	var buf [12]byte
	if _, err := io.ReadFull(c.r, buf[:]); err != nil {
		return osv.Pose{}, fmt.Errorf("read %s reply: %w", op, err)
	}
	vals, err := protocol.DecodeFloats(buf[:], 3)
	if err != nil {
		return osv.Pose{}, err
	}
	return osv.Pose{X: vals[0], Y: vals[1], Theta: vals[2]}, nil
}

// acked sends req and skips reply bytes until the acknowledgement arrives.
func (c *Client) acked(op protocol.Opcode, req []byte) error {
	if err := c.send(op, req); err != nil {
		return err
	}
	for {
		b, err := c.r.ReadByte()
		if err != nil {
			return fmt.Errorf("wait for %s ack: %w", op, err)
		}
		if b == c.ack {
			return nil
		}
	}
}

func (c *Client) send(op protocol.Opcode, req []byte) error {
	if _, err := c.w.Write(req); err != nil {
		return fmt.Errorf("send %s: %w", op, err)
	}
	return nil
}
