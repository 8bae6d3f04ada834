package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/wfsrender/internal/telemetry"
)

// tickMsg drives the dashboard's 20Hz refresh, mirroring the teacher's
// tea.Tick self-rescheduling idiom for a live-updating view.
type tickMsg time.Time

const dashboardTickInterval = time.Second / 20

// DashboardModel is a bubbletea TUI that polls a telemetry coordinator and
// renders input/output level meters, per-thread CPU load, and the underrun
// counter. It owns no engine state directly; Engine is read only for
// Underruns() and NumInputs/NumOutputs so the meter layout tracks the
// currently bound scene.
type DashboardModel struct {
	coord   *telemetry.Coordinator
	engine  dashboardEngine
	theme   Theme
	width   int
	history [][]float64 // per-input peak-dB history for the sparkline
}

// dashboardEngine is the slice of *engine.Engine the dashboard reads;
// duck-typed the same way telemetry.Source decouples the coordinator from
// the concrete engine package.
type dashboardEngine interface {
	NumInputs() int
	NumOutputs() int
	Underruns() uint64
}

// NewDashboardModel builds a dashboard bound to an already-running
// coordinator and engine. The dashboard calls the coordinator's Poll on each
// of its own ticks and then reads the cached values through its accessors,
// so the coordinator's background loop need not be running.
func NewDashboardModel(coord *telemetry.Coordinator, eng dashboardEngine, themeName string) DashboardModel {
	return DashboardModel{
		coord:   coord,
		engine:  eng,
		theme:   GetTheme(themeName),
		width:   72,
		history: make([][]float64, eng.NumInputs()),
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Tick(dashboardTickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tickMsg:
		m.coord.Poll()
		for i := range m.history {
			peak, _ := m.coord.InputLevel(i)
			m.history[i] = appendCapped(m.history[i], peak, m.width)
		}
		return m, tea.Tick(dashboardTickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
	}
	return m, nil
}

func appendCapped(series []float64, v float64, cap int) []float64 {
	series = append(series, v)
	if len(series) > cap {
		series = series[len(series)-cap:]
	}
	return series
}

func (m DashboardModel) View() string {
	var s strings.Builder

	title := fmt.Sprintf("wfsrender meter — %s", m.theme.Name)
	s.WriteString(NeonGlow.Render(title) + "\n")
	s.WriteString(Separator(m.width) + "\n")

	s.WriteString(MetricLabel.Render("inputs") + "\n")
	for i := 0; i < m.engine.NumInputs(); i++ {
		peak, rms := m.coord.InputLevel(i)
		s.WriteString(meterLine(i, peak, rms, m.width))
		if i < len(m.history) && len(m.history[i]) > 1 {
			s.WriteString("  " + SparklineChart(m.history[i], 24) + "\n")
		} else {
			s.WriteString("\n")
		}
	}

	s.WriteString("\n" + MetricLabel.Render("outputs") + "\n")
	for j := 0; j < m.engine.NumOutputs(); j++ {
		peak, rms := m.coord.OutputLevel(j)
		s.WriteString(meterLine(j, peak, rms, m.width))
	}

	s.WriteString("\n" + MetricLabel.Render("threads") + "\n")
	for k := 0; ; k++ {
		cpu, micros := m.coord.ThreadPerformance(k)
		if cpu == 0 && micros == 0 && k > 0 {
			break
		}
		if k >= 64 {
			break
		}
		s.WriteString(fmt.Sprintf("  worker %-2d  %s  %s\n", k,
			MetricValue.Render(fmt.Sprintf("%5.1f%%", cpu)),
			MetricValue.Render(fmt.Sprintf("%6.1fus", micros))))
		if cpu == 0 && micros == 0 {
			break
		}
	}

	underruns := m.engine.Underruns()
	status := StatusRunning.Render("RUNNING")
	if underruns > 0 {
		status = StatusPaused.Render(fmt.Sprintf("UNDERRUNS %d", underruns))
	}
	s.WriteString("\n" + status + "  " + KeyHint.Render("q to quit") + "\n")

	return GlassPanel.Render(s.String())
}

func meterLine(idx int, peakDb, rmsDb float64, width int) string {
	percent := dbToPercent(peakDb)
	bar := ProgressBar(percent, width-24)
	metrics := MetricValue.Render(fmt.Sprintf("peak %6.1fdB rms %6.1fdB", peakDb, rmsDb))
	return fmt.Sprintf("  %2d  %s  %s\n", idx, bar, metrics)
}

// dbToPercent maps a dBFS peak reading onto a 0-1 bar fraction, clamping the
// usual -60dB..0dB metering window.
func dbToPercent(db float64) float64 {
	const floor = -60.0
	if db < floor {
		return 0
	}
	if db > 0 {
		return 1
	}
	return (db - floor) / -floor
}
