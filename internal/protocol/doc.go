// Package protocol implements the byte protocol spoken between the engine
// and the sandboxed control program.
//
// Every request starts with a one-byte [Opcode]. Replies are either a single
// acknowledgement byte or little-endian IEEE-754 float32 values. Motor
// commands carry a big-endian (hi, lo) two's-complement int16.
//
//	0x00 begin              1 byte      -> dest x, y, theta (3 x float32)
//	0x01 updateLocation     1 byte      -> vehicle x, y, theta (3 x float32)
//	0x02 println            2+N bytes   -> ack
//	0x03 setLeftMotorPWM    3 bytes     -> ack
//	0x04 setRightMotorPWM   3 bytes     -> ack
//	0x05 turnOffMotors      1 byte      -> ack
//	0x06 readDistanceSensor 2 bytes     -> distance (float32)
//
// Bytes read from the child accumulate in a [Queue] until the [Machine] can
// decode one complete request. At most one request is serviced per tick.
//
// # Consumption
//
// A decoded request releases the whole queue, including any bytes that
// arrived after it. This is only safe because the client blocks on every
// reply before sending its next request, so two requests never share the
// queue. A pipelining client would lose requests.
package protocol
