package viz

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/pendsim/internal/control"
	"github.com/san-kum/pendsim/internal/dynamo"
	"github.com/san-kum/pendsim/internal/sim"
)

func TestBobPosition(t *testing.T) {
	x, y := BobPosition(400, 0, 150, math.Pi)
	assert.InDelta(t, 400, x, 1e-9)
	assert.InDelta(t, 150, y, 1e-9, "upright bob is above the pivot")

	x, y = BobPosition(400, 10, 150, math.Pi/2)
	assert.InDelta(t, 550, x, 1e-9)
	assert.InDelta(t, 10, y, 1e-9)
}

func TestCanvasSetAndLine(t *testing.T) {
	c := NewCanvas(4, 2)
	assert.Equal(t, 8, c.DotsWide())
	assert.Equal(t, 8, c.DotsHigh())

	c.Set(-1, 0)
	c.Set(100, 100)
	assert.Equal(t, strings.Repeat(string(rune(brailleBlank)), 4)+"\n", strings.SplitAfter(c.String(), "\n")[0])

	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		assert.True(t, c.IsSet(i, i), "dot %d", i)
	}
	c.Clear()
	assert.False(t, c.IsSet(3, 3))
}

func TestSceneDrawsUprightRod(t *testing.T) {
	c := dynamo.DefaultConstants()
	canvas := NewCanvas(canvasWidth, canvasHeight)
	scene := NewScene(c, canvas)
	scene.Draw(dynamo.NewState(c).Snapshot())

	cx, cy := scene.toScreen(c.TrackWidth/2, 0)
	_, topY := scene.toScreen(c.TrackWidth/2, c.RodLength)
	assert.Less(t, topY, cy)
	assert.True(t, canvas.IsSet(cx, topY))
	assert.True(t, canvas.IsSet(cx, (cy+topY)/2))
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	s, err := sim.New(dynamo.DefaultConstants(), dynamo.ModePID, control.DefaultGains())
	require.NoError(t, err)
	return NewModel(s, Options{FPS: 60, History: 50})
}

func press(m Model, msg tea.KeyMsg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestModelTickAdvancesSimulation(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, 1, m.ticksPerFrame)

	next, cmd := m.Update(TickMsg(time.Now()))
	assert.NotNil(t, cmd)
	m = next.(Model)
	assert.Equal(t, uint64(1), m.sim.State().Tick)
	assert.Equal(t, 2, m.history.Len())
}

func TestModelPauseStopsTicks(t *testing.T) {
	m := press(newTestModel(t), runes(" "))
	assert.False(t, m.running)

	next, _ := m.Update(TickMsg(time.Now()))
	assert.Zero(t, next.(Model).sim.State().Tick)
}

func TestModelNudgeAndReset(t *testing.T) {
	m := newTestModel(t)
	m = press(m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 405.0, m.sim.State().CartPosition)

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 395.0, m.sim.State().CartPosition)

	m = press(m, runes("r"))
	assert.Equal(t, dynamo.NewState(dynamo.DefaultConstants()), m.sim.State())
	assert.Equal(t, 1, m.history.Len())
}

func TestModelAdjustsGainsThroughScalingLaw(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, 10.0, m.raw[control.GainKp])

	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 11.0, m.raw[control.GainKp])
	assert.Equal(t, 55.0, m.sim.Gains().Kp)

	m = press(m, runes("]"))
	assert.Equal(t, 5.5, m.sim.Gains().ConvergenceRate)
	assert.Equal(t, 55.0, m.sim.Gains().Kp, "rate change is not retroactive")

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, control.GainKd, control.GainNames[m.selected])
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0.5, m.raw[control.GainKd])
	assert.Equal(t, 2.75, m.sim.Gains().Kd)
}

func TestModelToggleModeBlocksKi(t *testing.T) {
	m := press(newTestModel(t), runes("m"))
	assert.Equal(t, dynamo.ModePD, m.sim.Mode())

	m = press(m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.NotEmpty(t, m.status)
	assert.Equal(t, control.DefaultGains().Ki, m.sim.Gains().Ki)
	assert.Contains(t, m.View(), "off")
}

func TestModelToggleModeKeepsEffectiveGains(t *testing.T) {
	m := press(newTestModel(t), runes("m"))
	assert.Equal(t, 50.0, m.raw[control.GainKp], "PD sliders read effective gains")

	m = press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 51.0, m.sim.Gains().Kp)

	m = press(m, runes("m"))
	assert.Equal(t, dynamo.ModePID, m.sim.Mode())
	assert.InDelta(t, 10.2, m.raw[control.GainKp], 1e-12)
}

func TestModelQuit(t *testing.T) {
	_, cmd := newTestModel(t).Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < 3; i++ {
		next, _ := m.Update(TickMsg(time.Now()))
		m = next.(Model)
	}
	view := m.View()
	assert.Contains(t, view, "INVERTED PENDULUM")
	assert.Contains(t, view, "RUNNING")
	assert.Contains(t, view, "kp")
}

func TestNextThemeWraps(t *testing.T) {
	assert.Equal(t, Themes[0], NextTheme(Themes[len(Themes)-1]))
	assert.Equal(t, ThemeCyberpunk, GetTheme("missing"))
}
