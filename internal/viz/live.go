package viz

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/frame"
	"github.com/san-kum/orrery/internal/loop"
	"github.com/san-kum/orrery/internal/transport"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 240
	postTimeout     = time.Second
)

// FrameMsg carries one frame from the simulation.
type FrameMsg frame.Frame

// ClosedMsg reports that the simulation closed its frame channel.
type ClosedMsg struct{}

// Live is the renderer side of a [transport.Pipe].
type Live struct {
	pipe     *transport.Pipe
	title    string
	canvas   *Canvas
	camera   *Camera
	current  frame.Frame
	frames   int
	track    int
	history  []float64
	started  time.Time
	stopping bool
}

func NewLive(pipe *transport.Pipe, title string) Live {
	return Live{
		pipe:    pipe,
		title:   title,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		camera:  NewCamera(),
		track:   1,
		history: make([]float64, 0, historyCapacity),
		started: time.Now(),
	}
}

func (m Live) Frames() int        { return m.frames }
func (m Live) Tracked() int       { return m.track }
func (m Live) Stopping() bool     { return m.stopping }
func (m Live) History() []float64 { return m.history }

func (m Live) Init() tea.Cmd {
	return waitForFrame(m.pipe)
}

func waitForFrame(p *transport.Pipe) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-p.Frames()
		if !ok {
			return ClosedMsg{}
		}
		return FrameMsg(f)
	}
}

func postEnd(p *transport.Pipe) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
		defer cancel()
		_ = p.Post(ctx, loop.EndMessage)
		return nil
	}
}

func (m Live) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.stopping {
				return m, nil
			}
			// keep draining frames until the loop closes the pipe
			m.stopping = true
			return m, postEnd(m.pipe)
		case "tab":
			if n := m.current.Len(); n > 0 {
				m.track = (m.track + 1) % n
				m.history = m.history[:0]
			}
		case "left", "h":
			m.camera.RotateY(-0.1)
		case "right", "l":
			m.camera.RotateY(0.1)
		case "up", "k":
			m.camera.RotateX(-0.1)
		case "down", "j":
			m.camera.RotateX(0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "0":
			m.camera.Reset()
		}
		return m, nil

	case FrameMsg:
		m.current = frame.Frame(msg)
		m.frames++
		if m.track >= m.current.Len() {
			m.track = 0
		}
		m.history = append(m.history, m.current.Distance(m.track))
		if len(m.history) > historyCapacity {
			m.history = m.history[len(m.history)-historyCapacity:]
		}
		return m, waitForFrame(m.pipe)

	case ClosedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Live) render() {
	m.canvas.Clear()
	sw, sh := m.canvas.PixelSize()
	for _, row := range m.current {
		x, y, scale, ok := m.camera.Project(r3.Vec{X: row[0], Y: row[1], Z: row[2]}, sw, sh)
		if !ok {
			continue
		}
		r := int(math.Min(row[3]*scale, float64(sh)/8))
		m.canvas.DrawDisc(x, y, r)
	}
}

func (m Live) View() string {
	m.render()

	var s strings.Builder
	s.WriteString(titleStyle.Render(m.title) + "\n\n")
	if m.stopping {
		s.WriteString(statusStopping.Render("STOPPING") + "\n")
	} else {
		s.WriteString(statusRunning.Render("RUNNING") + "\n")
	}
	s.WriteString(stat("Frames", fmt.Sprintf("%d", m.frames)))
	s.WriteString(stat("Bodies", fmt.Sprintf("%d", m.current.Len())))
	if elapsed := time.Since(m.started).Seconds(); elapsed > 0 {
		s.WriteString(stat("FPS", fmt.Sprintf("%.1f", float64(m.frames)/elapsed)))
	}
	s.WriteString(stat("Zoom", fmt.Sprintf("%.2fx", m.camera.Zoom)))
	s.WriteString("\n")
	if m.track < m.current.Len() {
		row := m.current[m.track]
		s.WriteString(stat("Tracking", fmt.Sprintf("body %d", m.track)))
		s.WriteString(stat("Position", fmt.Sprintf("%.3f %.3f %.3f", row[0], row[1], row[2])))
		s.WriteString(stat("Distance", fmt.Sprintf("%.4f", m.current.Distance(m.track))))
	}

	graph := ""
	if len(m.history) > 1 {
		graph = graphStyle.Render(asciigraph.Plot(m.history,
			asciigraph.Height(6),
			asciigraph.Width(canvasWidth),
			asciigraph.Caption(fmt.Sprintf("distance of body %d", m.track))))
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		canvasStyle.Render(m.canvas.String()),
		statsStyle.Render(s.String()))
	help := helpStyle.Render("q quit • tab track • arrows rotate • +/- zoom • 0 reset")
	return lipgloss.JoinVertical(lipgloss.Left, main, graph, help)
}
