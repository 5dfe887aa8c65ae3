package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/sim"
)

const (
	canvasWidth  = 80
	canvasHeight = 20
)

// sliderSteps is the raw increment of each slider per key press.
var sliderSteps = map[control.GainName]float64{
	control.GainKp:              1,
	control.GainKi:              0.1,
	control.GainKd:              0.5,
	control.GainConvergenceRate: 0.5,
}

type TickMsg time.Time

type Options struct {
	FPS     int
	History int
}

// Model is the live view. Every display tick advances the simulator by
// enough ticks to keep simulated time in step with wall time.
type Model struct {
	sim     *sim.Simulator
	history *sim.History
	scene   *Scene
	theme   Theme
	styles  styles

	fps           int
	ticksPerFrame int
	running       bool
	selected      int
	raw           map[control.GainName]float64

	gauge    harmonica.Spring
	gaugePos float64
	gaugeVel float64

	status   string
	showHelp bool
}

func NewModel(s *sim.Simulator, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.History <= 0 {
		opts.History = 240
	}

	dt := s.Constants().Dt
	ticks := int(math.Round(1 / float64(opts.FPS) / dt))
	if ticks < 1 {
		ticks = 1
	}

	history := sim.NewHistory(opts.History)
	s.AddObserver(history)
	history.Push(s.Snapshot())

	m := Model{
		sim:           s,
		history:       history,
		scene:         NewScene(s.Constants(), NewCanvas(canvasWidth, canvasHeight)),
		theme:         ThemeCyberpunk,
		styles:        newStyles(ThemeCyberpunk),
		fps:           opts.FPS,
		ticksPerFrame: ticks,
		running:       true,
		raw:           rawSliders(s.Gains(), s.Mode()),
		gauge:         harmonica.NewSpring(harmonica.FPS(opts.FPS), 6.0, 0.8),
	}
	return m
}

// rawSliders recovers slider positions from effective gains.
func rawSliders(g control.Gains, mode dynamo.Mode) map[control.GainName]float64 {
	scale := 1.0
	if mode == dynamo.ModePID && g.ConvergenceRate != 0 {
		scale = g.ConvergenceRate
	}
	return map[control.GainName]float64{
		control.GainKp:              g.Kp / scale,
		control.GainKi:              g.Ki / scale,
		control.GainKd:              g.Kd / scale,
		control.GainConvergenceRate: g.ConvergenceRate,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.apply(sim.Reset{})
			m.history.Clear()
			m.history.Push(m.sim.Snapshot())
			m.gaugePos, m.gaugeVel = 0, 0
		case "left", "h":
			m.apply(sim.ManualOverride{Delta: -control.DeviationStep})
		case "right", "l":
			m.apply(sim.ManualOverride{Delta: control.DeviationStep})
		case "tab":
			m.selected = (m.selected + 1) % len(control.GainNames)
		case "shift+tab":
			m.selected = (m.selected + len(control.GainNames) - 1) % len(control.GainNames)
		case "up", "k":
			m.adjust(control.GainNames[m.selected], 1)
		case "down", "j":
			m.adjust(control.GainNames[m.selected], -1)
		case "]":
			m.adjust(control.GainConvergenceRate, 1)
		case "[":
			m.adjust(control.GainConvergenceRate, -1)
		case "m":
			next := dynamo.ModePD
			if m.sim.Mode() == dynamo.ModePD {
				next = dynamo.ModePID
			}
			if m.apply(sim.SetMode{Mode: next}) {
				m.raw = rawSliders(m.sim.Gains(), next)
			}
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.ticksPerFrame; i++ {
				m.sim.Step(nil)
			}
		}
		m.updateGauge()
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) apply(cmd sim.Command) bool {
	if err := m.sim.Apply(cmd); err != nil {
		m.status = err.Error()
		return false
	}
	m.status = ""
	return true
}

// adjust moves one slider by a step and pushes the raw value through the
// gain law, so a gain set in PID mode picks up the current rate.
func (m *Model) adjust(name control.GainName, dir float64) {
	value := m.raw[name] + dir*sliderSteps[name]
	if value < 0 {
		value = 0
	}
	if err := m.sim.Apply(sim.SetGain{Name: name, Value: value}); err != nil {
		m.status = err.Error()
		return
	}
	m.raw[name] = value
	m.status = ""
}

func (m *Model) updateGauge() {
	snap := m.sim.Snapshot()
	maxStep := m.sim.Constants().TrackWidth / 20
	target := snap.CartVelocity / maxStep
	m.gaugePos, m.gaugeVel = m.gauge.Update(m.gaugePos, m.gaugeVel, target)
}

func (m Model) View() string {
	snap := m.sim.Snapshot()
	m.scene.Draw(snap)
	st := m.styles

	var s strings.Builder
	s.WriteString(st.header.Render("INVERTED PENDULUM · "+strings.ToUpper(m.sim.Mode().String())) + "\n")

	status := st.running.Render("RUNNING")
	if !m.running {
		status = st.paused.Render("PAUSED")
	}
	if snap.AtEdge {
		status += "  " + st.edge.Render(fmt.Sprintf("AT EDGE %.2fs", snap.EdgeTimer))
	}
	s.WriteString(status + "\n")

	errs := m.history.Series(func(x dynamo.Snapshot) float64 { return x.AngleError() })
	if len(errs) > 1 {
		chart := asciigraph.Plot(errs, asciigraph.Height(5), asciigraph.Width(34), asciigraph.Precision(3), asciigraph.Caption("angle error (rad)"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Angle", fmt.Sprintf("%+.4f rad", snap.AngleError()))
	row("Omega", fmt.Sprintf("%+.4f rad/s", snap.AngularVelocity))
	row("Cart", fmt.Sprintf("%.1f", snap.CartPosition))
	row("Drive", driveArrow(snap.DriveDirection))
	row("Integral", fmt.Sprintf("%+.4f", snap.IntegralError))
	s.WriteString(st.label.Render("Push") + st.centeredBar(m.gaugePos, 20) + "\n")

	s.WriteString("\nGAINS\n")
	g := m.sim.Gains()
	effective := map[control.GainName]float64{
		control.GainKp:              g.Kp,
		control.GainKi:              g.Ki,
		control.GainKd:              g.Kd,
		control.GainConvergenceRate: g.ConvergenceRate,
	}
	for i, name := range control.GainNames {
		line := fmt.Sprintf("%-17s %8.2f  (%.2f)", name, effective[name], m.raw[name])
		if name == control.GainKi && m.sim.Mode() == dynamo.ModePD {
			line = fmt.Sprintf("%-17s %8s", name, "off")
		}
		if i == m.selected {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.label.UnsetWidth().Render(line) + "\n")
		}
	}

	if m.status != "" {
		s.WriteString("\n" + st.errorMsg.Render(m.status) + "\n")
	}
	s.WriteString(st.help.Render("SP pause  R reset  ←→ push  M mode  ? help  Q quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.scene.String()), st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

func driveArrow(d int) string {
	if d < 0 {
		return "◀ reversed"
	}
	return "▶ forward"
}

const helpText = `
  Space     pause / resume
  R         reset to upright, centred
  ← →       nudge the cart by one step
  Tab       select gain slider
  ↑ ↓       adjust selected slider
  [ ]       adjust convergence rate
  M         toggle PID / PD
  T         cycle theme
  Q         quit
`
