package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	ambient "github.com/cbegin/ambient-go"
)

const (
	meterWidth  = 30
	eqStepDB    = 1.5
	refreshRate = 50 * time.Millisecond
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	playStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	stopStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	hotStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Engine is the part of *ambient.Engine the UI drives.
type Engine interface {
	TogglePlay() error
	UpdateParams(ambient.ParamsUpdate)
	Params() ambient.AudioParams
	State() ambient.State
	Tempo() float64
	Now() float64
	ActiveVoices() int
	Levels() (l, r float64)
	FadeLevel() float64
	GainReduction() float64
	SetEQBand(band int, db float64)
	EQBand(band int) float64
}

// slider edits one float field of AudioParams.
type slider struct {
	label    string
	unit     string
	min, max float64
	step     float64
	field    func(p *ambient.AudioParams) *float64
}

var sliders = []slider{
	{"Master", "", 0, 1, 0.05, func(p *ambient.AudioParams) *float64 { return &p.MasterVolume }},
	{"Tones", "", 0, 1, 0.05, func(p *ambient.AudioParams) *float64 { return &p.ToneVolume }},
	{"Noise", "", 0, 1, 0.05, func(p *ambient.AudioParams) *float64 { return &p.NoiseVolume }},
	{"Noise filter", "Hz", 50, 8000, 50, func(p *ambient.AudioParams) *float64 { return &p.NoiseFilterFreqHz }},
	{"Drone", "", 0, 1, 0.05, func(p *ambient.AudioParams) *float64 { return &p.DroneVolume }},
	{"Drone base", "Hz", 40, 400, 1, func(p *ambient.AudioParams) *float64 { return &p.DroneBaseFreqHz }},
	{"Entrainment", "Hz", 0, ambient.MaxEntrainmentHz, 0.5, func(p *ambient.AudioParams) *float64 { return &p.EntrainmentOffsetHz }},
	{"Delay feedback", "", 0, 0.95, 0.05, func(p *ambient.AudioParams) *float64 { return &p.DelayFeedback }},
	{"Reverb mix", "", 0, 1, 0.05, func(p *ambient.AudioParams) *float64 { return &p.ReverbMix }},
	{"Delay mix", "", 0, 1, 0.05, func(p *ambient.AudioParams) *float64 { return &p.DelayMix }},
}

// Model is the bubbletea model for the mixer screen.
type Model struct {
	Engine Engine

	Params ambient.AudioParams
	State  ambient.State
	Cursor int
	Band   int
	Scene  int // -1 until a scene is picked

	// refreshed on every tick
	Now       float64
	Voices    int
	LevelL    float64
	LevelR    float64
	Fade      float64
	Reduction float64

	ShowHelp  bool
	StatusMsg string
}

func NewModel(e Engine) Model {
	return Model{
		Engine: e,
		Params: e.Params(),
		State:  e.State(),
		Scene:  -1,
	}
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshRate, func(time.Time) tea.Msg { return tickMsg{} })
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tickCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) refresh() {
	m.State = m.Engine.State()
	m.Now = m.Engine.Now()
	m.Voices = m.Engine.ActiveVoices()
	m.LevelL, m.LevelR = m.Engine.Levels()
	m.Fade = m.Engine.FadeLevel()
	m.Reduction = m.Engine.GainReduction()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.ShowHelp = !m.ShowHelp
	case " ", "space":
		if err := m.Engine.TogglePlay(); err != nil {
			m.StatusMsg = err.Error()
		}
		m.State = m.Engine.State()
	case "up", "k":
		m.Cursor = (m.Cursor + len(sliders) - 1) % len(sliders)
	case "down", "j":
		m.Cursor = (m.Cursor + 1) % len(sliders)
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "c":
		c := (m.Params.NoiseColor + 1) % 3
		m.apply(ambient.ParamsUpdate{NoiseColor: &c})
		m.StatusMsg = "noise: " + c.String()
	case "s":
		scenes := Scenes()
		m.Scene = (m.Scene + 1) % len(scenes)
		m.apply(scenes[m.Scene].Params.Full())
		m.StatusMsg = "scene: " + scenes[m.Scene].Name
	case "1", "2", "3", "4", "5":
		m.Band = int(msg.String()[0] - '1')
	case "+", "=":
		m.Engine.SetEQBand(m.Band, m.Engine.EQBand(m.Band)+eqStepDB)
	case "-", "_":
		m.Engine.SetEQBand(m.Band, m.Engine.EQBand(m.Band)-eqStepDB)
	case "0":
		m.Engine.SetEQBand(m.Band, 0)
	}
	return m, nil
}

// nudge moves the selected slider by dir steps.
func (m *Model) nudge(dir float64) {
	s := sliders[m.Cursor]
	p := m.Params
	v := s.field(&p)
	*v = math.Max(s.min, math.Min(s.max, *v+dir*s.step))
	m.apply(p.Full())
}

func (m *Model) apply(u ambient.ParamsUpdate) {
	m.Engine.UpdateParams(u)
	m.Params = m.Engine.Params()
}

// View implements tea.Model
func (m Model) View() string {
	var b strings.Builder

	state := stopStyle.Render("■ " + m.State.String())
	if m.State == ambient.StatePlaying {
		state = playStyle.Render("▶ playing")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n", titleStyle.Render("AMBIENT"), state,
		dimStyle.Render(fmt.Sprintf("t=%6.1fs  %3.0f bpm  voices %d  fade %3.0f%%",
			m.Now, m.Engine.Tempo(), m.Voices, m.Fade*100)))
	b.WriteString("\n")

	for i, s := range sliders {
		p := m.Params
		v := *s.field(&p)
		label := fmt.Sprintf("  %-15s", s.label)
		if i == m.Cursor {
			label = cursorStyle.Render(fmt.Sprintf("> %-15s", s.label))
		}
		fmt.Fprintf(&b, "%s %s %8.2f %s\n", label, bar((v-s.min)/(s.max-s.min), meterWidth), v, s.unit)
	}
	fmt.Fprintf(&b, "  %-15s %s\n", "Noise color", m.Params.NoiseColor)
	b.WriteString("\n")

	b.WriteString("  EQ  ")
	for band := 0; band < ambient.EQBands; band++ {
		cell := fmt.Sprintf("%d:%+5.1f", band+1, m.Engine.EQBand(band))
		if band == m.Band {
			cell = cursorStyle.Render(cell)
		}
		b.WriteString(cell + "  ")
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "  L %s\n", meter(m.LevelL))
	fmt.Fprintf(&b, "  R %s\n", meter(m.LevelR))
	fmt.Fprintf(&b, "  %s\n", dimStyle.Render(fmt.Sprintf("comp %+5.1f dB", 20*math.Log10(math.Max(m.Reduction, 1e-6)))))

	if m.StatusMsg != "" {
		b.WriteString("\n" + errStyle.Render(m.StatusMsg) + "\n")
	}
	b.WriteString("\n")
	if m.ShowHelp {
		b.WriteString(dimStyle.Render(helpText))
	} else {
		b.WriteString(dimStyle.Render("space play/stop  ↑↓ select  ←→ adjust  s scene  c color  ? help  q quit"))
	}
	return b.String()
}

const helpText = `space      play / stop with fade
↑↓ / k j   select parameter
←→ / h l   adjust parameter
c          cycle noise color
s          next scene
1-5        select EQ band
+ / -      boost / cut band
0          flatten band
q          quit after fade-out`

func bar(frac float64, width int) string {
	n := int(math.Round(math.Max(0, math.Min(1, frac)) * float64(width)))
	return barStyle.Render(strings.Repeat("█", n)) + dimStyle.Render(strings.Repeat("░", width-n))
}

// meter draws a peak level on a -60..0 dBFS scale.
func meter(peak float64) string {
	db := 20 * math.Log10(math.Max(peak, 1e-6))
	frac := (db + 60) / 60
	s := bar(frac, meterWidth)
	if peak >= 0.99 {
		return s + hotStyle.Render(" CLIP")
	}
	return s + dimStyle.Render(fmt.Sprintf(" %5.1f dB", db))
}
