package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/osvsim/internal/geom"
	"github.com/san-kum/osvsim/internal/osv"
	"github.com/san-kum/osvsim/internal/telemetry"
)

const (
	canvasWidth  = 60
	canvasHeight = 20
	trailLength  = 400
	graphPoints  = 60
	consoleLines = 5
	maxSpeed     = 16
)

type TickMsg time.Time

// ConsoleLine is a println message shown once playback reaches Frame.
type ConsoleLine struct {
	Frame int
	Text  string
}

// Replay plays back a recorded run. It implements tea.Model.
type Replay struct {
	runID    string
	arena    *osv.Arena
	frames   []telemetry.Frame
	console  []ConsoleLine
	canvas   *Canvas
	proj     Projection
	static   []geom.Segment
	head     int
	paused   bool
	speed    int
	interval time.Duration
}

// NewReplay prepares playback of frames over arena's static layout at one
// frame per interval.
func NewReplay(runID string, arena *osv.Arena, frames []telemetry.Frame, console []ConsoleLine, interval time.Duration) Replay {
	canvas := NewCanvas(canvasWidth, canvasHeight)

	static := make([]geom.Segment, 0, 4+4*len(arena.Obstacles))
	walls := arena.Walls()
	static = append(static, walls[:]...)
	for _, o := range arena.Obstacles {
		edges := o.Edges()
		static = append(static, edges[:]...)
	}

	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	return Replay{
		runID:    runID,
		arena:    arena,
		frames:   frames,
		console:  console,
		canvas:   canvas,
		proj:     Fit(canvas, float64(arena.Width), float64(arena.Height)),
		static:   static,
		speed:    1,
		interval: interval,
		paused:   len(frames) == 0,
	}
}

func (m Replay) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Replay) Init() tea.Cmd {
	return m.tick()
}

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			if !m.paused && m.head >= len(m.frames)-1 {
				m.head = 0
			}
		case "[":
			m.paused = true
			m.seek(m.head - 1)
		case "]":
			m.paused = true
			m.seek(m.head + 1)
		case "+", "=":
			if m.speed < maxSpeed {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		case "r":
			m.seek(0)
		case "t":
			NextTheme()
		}
	case TickMsg:
		if !m.paused {
			m.seek(m.head + m.speed)
			if m.head >= len(m.frames)-1 {
				m.paused = true
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Replay) seek(i int) {
	if i >= len(m.frames) {
		i = len(m.frames) - 1
	}
	if i < 0 {
		i = 0
	}
	m.head = i
}

// Head is the index of the frame on screen.
func (m Replay) Head() int { return m.head }

func (m Replay) Paused() bool { return m.paused }

func (m Replay) current() (telemetry.Frame, bool) {
	if len(m.frames) == 0 {
		return telemetry.Frame{}, false
	}
	return m.frames[m.head], true
}

func (m Replay) draw() {
	c := m.canvas
	c.Clear()
	c.DrawSegments(m.proj, m.static)
	c.Mark(m.proj, m.arena.Destination.Vec())

	f, ok := m.current()
	if !ok {
		return
	}

	from := m.head - trailLength
	if from < 0 {
		from = 0
	}
	for _, tf := range m.frames[from:m.head] {
		x, y := m.proj.Point(osv.Coordinate{X: tf.OSV.X, Y: tf.OSV.Y}.Vec())
		c.Set(x, y)
	}

	v := m.arena.Vehicle
	v.Pose = osv.Pose{X: f.OSV.X, Y: f.OSV.Y, Theta: f.OSV.Theta}
	body := v.Body().Edges()
	c.DrawSegments(m.proj, body[:])
}

func (m Replay) View() string {
	m.draw()

	var b strings.Builder
	b.WriteString(titleStyle().Render("Run " + m.runID))
	b.WriteString("\n")

	f, ok := m.current()
	if !ok {
		b.WriteString(Subtle.Render("no frames recorded"))
		return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(b.String()))
	}

	state := "PLAYING"
	if m.paused {
		state = "PAUSED"
	}
	b.WriteString(stateStyle(m.paused).Render(state))
	b.WriteString(fmt.Sprintf("  x%d\n", m.speed))
	b.WriteString(ProgressBar(float64(m.head+1)/float64(len(m.frames)), 36))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("frame", fmt.Sprintf("%d / %d", f.FrameNo, m.frames[len(m.frames)-1].FrameNo))
	row("x", fmt.Sprintf("%.4f", f.OSV.X))
	row("y", fmt.Sprintf("%.4f", f.OSV.Y))
	row("theta", fmt.Sprintf("%.4f", f.OSV.Theta))
	row("pwm", fmt.Sprintf("L %4d  R %4d", f.LeftPWM, f.RightPWM))

	b.WriteString("\n" + Separator(36) + "\n")
	for _, line := range m.visibleConsole(f.FrameNo) {
		b.WriteString(Subtle.Render(fmt.Sprintf("%5d ", line.Frame)) + valueStyle.Render(line.Text) + "\n")
	}

	if graph := m.graph(); graph != "" {
		b.WriteString(graphStyle.Render(graph))
	}
	b.WriteString(helpStyle.Render("space pause · [ ] step · +/- speed · r restart · t theme · q quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(b.String()))
}

// visibleConsole returns the last few lines printed up to frame.
func (m Replay) visibleConsole(frame int) []ConsoleLine {
	end := 0
	for end < len(m.console) && m.console[end].Frame <= frame {
		end++
	}
	start := end - consoleLines
	if start < 0 {
		start = 0
	}
	return m.console[start:end]
}

func (m Replay) graph() string {
	from := m.head + 1 - graphPoints
	if from < 0 {
		from = 0
	}
	data := make([]float64, 0, graphPoints)
	for _, f := range m.frames[from : m.head+1] {
		data = append(data, float64(f.OSV.X))
	}
	if len(data) < 2 {
		return ""
	}
	return asciigraph.Plot(data,
		asciigraph.Height(6),
		asciigraph.Width(34),
		asciigraph.Caption("x"),
	)
}

// RunReplay takes over the terminal until the user quits.
func RunReplay(m Replay) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
