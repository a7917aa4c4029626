package viz

import (
	"math"
	"strings"

	"github.com/san-kum/osvsim/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// Braille cells hold 2x4 dots, numbered
// 1 4
// 2 5
// 3 6
// 7 8
// on top of the empty pattern at U+2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y). The canvas is Width*2 by
// Height*4 dots.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Projection maps arena meters onto canvas dots. Arena y grows upward,
// canvas rows grow downward.
type Projection struct {
	scale  float64
	height int
}

// Fit returns the largest uniform projection that shows a w by h arena on c.
func Fit(c *Canvas, w, h float64) Projection {
	dotsW := float64(c.Width*2 - 1)
	dotsH := float64(c.Height*4 - 1)
	scale := math.Min(dotsW/w, dotsH/h)
	return Projection{scale: scale, height: int(math.Round(h * scale))}
}

func (p Projection) Point(v r2.Vec) (int, int) {
	return int(math.Round(v.X * p.scale)), p.height - int(math.Round(v.Y*p.scale))
}

func (c *Canvas) DrawSegment(p Projection, s geom.Segment) {
	x0, y0 := p.Point(s.P1)
	x1, y1 := p.Point(s.P2)
	c.DrawLine(x0, y0, x1, y1)
}

func (c *Canvas) DrawSegments(p Projection, segs []geom.Segment) {
	for _, s := range segs {
		c.DrawSegment(p, s)
	}
}

// Mark draws a small cross centred on v.
func (c *Canvas) Mark(p Projection, v r2.Vec) {
	x, y := p.Point(v)
	c.DrawLine(x-2, y, x+2, y)
	c.DrawLine(x, y-2, x, y+2)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
