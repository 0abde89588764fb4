package main

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"voicerec/hotkey"
)

// TUI message types
type RecordingStartMsg struct{ Prefix string }
type RecordingStopMsg struct{}
type FileSavedMsg struct {
	Path  string
	Bytes int
}
type DeviceLineMsg struct{ Text string }
type ErrorMsg struct{ Text string }
type tickMsg time.Time

const (
	maxSavedShown = 8
	meterWidth    = 30
	leftPanelW    = 44
)

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
)

type savedFile struct {
	path  string
	bytes int
}

type tuiModel struct {
	state         tuiState
	started       time.Time
	now           time.Time
	level         *atomic.Uint64 // float64 bits written by the capture goroutine
	audioLevel    float64
	peakLevel     float64
	silent        bool
	silentFlag    *atomic.Bool // set by the capture goroutine on sustained silence
	width, height int
	modeLine      string
	deviceLine    string
	prefix        string
	lastErr       string
	saved         []savedFile
	savedTotal    int
}

var (
	recStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	modeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpBold   = helpStyle.Bold(true)
	meterOn    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	meterOff   = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	fileStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	sizeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// NewTUIProgram builds the status view and the sink that feeds it.
func NewTUIProgram(mode string) (*tea.Program, *tuiSink) {
	level := new(atomic.Uint64)
	silent := new(atomic.Bool)
	m := tuiModel{modeLine: mode, level: level, silentFlag: silent}
	p := tea.NewProgram(m, tea.WithAltScreen())
	return p, &tuiSink{p: p, level: level, silent: silent}
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		m.now = time.Time(msg)
		if m.state == tuiStateRecording && m.level != nil {
			l := math.Float64frombits(m.level.Load())
			m.audioLevel = m.audioLevel*0.6 + l*0.4
			if l > m.peakLevel {
				m.peakLevel = l
			}
		}
		if m.state == tuiStateRecording && m.silentFlag != nil {
			m.silent = m.silentFlag.Load()
		}
		return m, tuiTick()

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.started = time.Now()
		m.now = m.started
		m.prefix = msg.Prefix
		m.audioLevel = 0
		m.peakLevel = 0
		m.silent = false
		m.lastErr = ""

	case RecordingStopMsg:
		m.state = tuiStateIdle
		m.audioLevel = 0
		m.silent = false

	case FileSavedMsg:
		m.savedTotal++
		m.saved = append([]savedFile{{msg.Path, msg.Bytes}}, m.saved...)
		if len(m.saved) > maxSavedShown {
			m.saved = m.saved[:maxSavedShown]
		}

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case ErrorMsg:
		m.lastErr = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	recording := m.state == tuiStateRecording
	var left []string

	if recording {
		elapsed := m.now.Sub(m.started).Seconds()
		left = append(left, recStyle.Render(fmt.Sprintf("● REC %.1fs  %s", elapsed, m.prefix)))
		left = append(left, renderMeter(m.audioLevel, meterWidth)+idleStyle.Render(" peak "+formatDB(m.peakLevel)))
		if m.silent {
			left = append(left, warnStyle.Render("  ⚠ no input detected"))
		}
	} else {
		left = append(left, idleStyle.Render("○ STANDBY"))
		left = append(left, renderMeter(0, meterWidth))
	}

	if m.modeLine != "" {
		left = append(left, modeStyle.Render(m.modeLine))
	}
	if m.deviceLine != "" {
		left = append(left, idleStyle.Render(m.deviceLine))
	}
	if m.lastErr != "" {
		for _, line := range wrapText("error: "+m.lastErr, leftPanelW-2) {
			left = append(left, errStyle.Render(line))
		}
	}

	left = append(left, "")
	left = append(left, helpBold.Render(hotkey.Combo)+helpStyle.Render(" to record, q to quit"))
	left = append(left, helpStyle.Render("voicerec "+version))

	rightW := m.width - leftPanelW - 1
	if rightW < 20 {
		rightW = 20
	}
	var right strings.Builder
	if len(m.saved) == 0 {
		right.WriteString(idleStyle.Render("No recordings yet"))
	} else {
		right.WriteString(titleStyle.Render(fmt.Sprintf("Saved files (%d)", m.savedTotal)) + "\n\n")
		for _, f := range m.saved {
			name := filepath.Base(f.path)
			for _, line := range wrapText(name, rightW-12) {
				right.WriteString(fileStyle.Render(line) + "\n")
			}
			right.WriteString(sizeStyle.Render("  "+formatBytes(f.bytes)) + "\n")
		}
	}

	leftPanel := lipgloss.NewStyle().
		Width(leftPanelW - 1).
		Height(m.height).
		Render(strings.Join(left, "\n"))
	rightPanel := lipgloss.NewStyle().
		Width(rightW).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

// renderMeter draws level on a logarithmic scale from -60 dBFS to 0.
func renderMeter(level float64, width int) string {
	filled := 0
	if level > 0 {
		db := 20 * math.Log10(level)
		filled = int(math.Round((db + 60) / 60 * float64(width)))
		filled = max(0, min(width, filled))
	}
	return meterOn.Render(strings.Repeat("█", filled)) +
		meterOff.Render(strings.Repeat("░", width-filled))
}

func formatDB(level float64) string {
	if level <= 0 {
		return "-inf dB"
	}
	return fmt.Sprintf("%.0f dB", 20*math.Log10(level))
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

// tuiSink forwards events to the program. Levels and the silence warning are
// stored, not sent, so the capture goroutine never waits on the UI.
type tuiSink struct {
	p      *tea.Program
	level  *atomic.Uint64
	silent *atomic.Bool
}

func (s *tuiSink) RecordingStart(prefix string) {
	s.level.Store(0)
	s.silent.Store(false)
	s.p.Send(RecordingStartMsg{Prefix: prefix})
}

func (s *tuiSink) RecordingStop() { s.p.Send(RecordingStopMsg{}) }

func (s *tuiSink) AudioLevel(level float64) { s.level.Store(math.Float64bits(level)) }

func (s *tuiSink) InputWarning(silent bool) { s.silent.Store(silent) }

func (s *tuiSink) FileSaved(path string, n int) { s.p.Send(FileSavedMsg{Path: path, Bytes: n}) }

func (s *tuiSink) DeviceLine(text string) { s.p.Send(DeviceLineMsg{Text: text}) }

func (s *tuiSink) Error(text string) { s.p.Send(ErrorMsg{Text: text}) }
