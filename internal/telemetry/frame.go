// Package telemetry records what the vehicle did on every tick: the
// comma-separated JSON stream on stdout, CSV files for offline analysis,
// and tick timing.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/san-kum/osvsim/internal/osv"
)

// Pose is the JSON shape of the vehicle position.
type Pose struct {
	X     float32 `json:"x"`
	Y     float32 `json:"y"`
	Theta float32 `json:"theta"`
}

// Frame is one tick's telemetry record.
type Frame struct {
	FrameNo  int   `json:"frame_no"`
	OSV      Pose  `json:"osv"`
	LeftPWM  int16 `json:"-"`
	RightPWM int16 `json:"-"`
}

func NewFrame(n int, v osv.Vehicle) Frame {
	return Frame{
		FrameNo:  n,
		OSV:      Pose{X: v.Pose.X, Y: v.Pose.Y, Theta: v.Pose.Theta},
		LeftPWM:  v.LeftPWM,
		RightPWM: v.RightPWM,
	}
}

// Row is the flat CSV form of a Frame.
type Row struct {
	Frame    int     `csv:"frame"`
	X        float32 `csv:"x"`
	Y        float32 `csv:"y"`
	Theta    float32 `csv:"theta"`
	LeftPWM  int16   `csv:"left_pwm"`
	RightPWM int16   `csv:"right_pwm"`
}

func (f Frame) Row() Row {
	return Row{
		Frame:    f.FrameNo,
		X:        f.OSV.X,
		Y:        f.OSV.Y,
		Theta:    f.OSV.Theta,
		LeftPWM:  f.LeftPWM,
		RightPWM: f.RightPWM,
	}
}

// StreamWriter emits each frame as a JSON object followed by a comma.
type StreamWriter struct {
	w      io.Writer
	frames int
}

func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

func (s *StreamWriter) WriteFrame(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	data = append(data, ',')
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write frame %d: %w", f.FrameNo, err)
	}
	s.frames++
	return nil
}

// Frames is the number of records written so far.
func (s *StreamWriter) Frames() int { return s.frames }
