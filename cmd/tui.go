// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Wiren Board

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wirenboard/zke-ebc-axx/pkg/ebc"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live measurement dashboard",
	Long: `Shows a live dashboard with the latest measurement, polling statistics and a
scrolling sample log. Press 'q' to quit; the device keeps whatever operation it
is running.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Messages
type sampleMsg struct {
	measurement *ebc.Measurement
}
type monitorFailedMsg struct {
	err error
}
type tickMsg time.Time

type tuiModel struct {
	connInfo string
	stats    *ebc.Stats
	counters ebc.StatsSnapshot

	latest     *ebc.Measurement
	log        viewport.Model
	logLines   []string
	maxLines   int
	width      int
	height     int
	ready      bool
	monitorErr error
	quitting   bool
}

// Styles
var (
	tuiTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	tuiHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	tuiValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	tuiWarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	tuiErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	tuiBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func newTUIModel(connInfo string, stats *ebc.Stats) tuiModel {
	return tuiModel{
		connInfo: connInfo,
		stats:    stats,
		counters: stats.Snapshot(),
		maxLines: 500,
		width:    80,
		height:   24,
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(
		tuiTickCmd(),
		tea.EnterAltScreen,
	)
}

func tuiTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		logHeight := m.height - 14
		if logHeight < 5 {
			logHeight = 5
		}
		if !m.ready {
			m.log = viewport.New(m.width-4, logHeight)
			m.ready = true
		} else {
			m.log.Width = m.width - 4
			m.log.Height = logHeight
		}
		m.refreshLog()

	case tickMsg:
		m.counters = m.stats.Snapshot()
		return m, tuiTickCmd()

	case sampleMsg:
		m.latest = msg.measurement
		m.counters = m.stats.Snapshot()
		m.appendLogLine(msg.measurement)

	case monitorFailedMsg:
		m.monitorErr = msg.err
	}

	if m.ready {
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *tuiModel) appendLogLine(sample *ebc.Measurement) {
	line := fmt.Sprintf("%s %s",
		tuiHeaderStyle.Render(time.Now().Format("15:04:05")),
		sample)
	if !sample.ChecksumOK {
		line += tuiWarnStyle.Render(" (checksum!)")
	}
	m.logLines = append(m.logLines, line)
	if len(m.logLines) > m.maxLines {
		m.logLines = m.logLines[len(m.logLines)-m.maxLines:]
	}
	m.refreshLog()
}

func (m *tuiModel) refreshLog() {
	if !m.ready {
		return
	}
	atBottom := m.log.AtBottom()
	m.log.SetContent(strings.Join(m.logLines, "\n"))
	if atBottom {
		m.log.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(tuiTitleStyle.Render("EBC-AXX - LIVE MEASUREMENTS"))
	s.WriteString("\n")
	s.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("%s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	if m.monitorErr != nil {
		s.WriteString(tuiErrorStyle.Render(fmt.Sprintf("✗ monitor stopped: %v", m.monitorErr)))
		s.WriteString("\n\n")
	}

	// Latest sample
	sampleContent := strings.Builder{}
	if m.latest == nil {
		sampleContent.WriteString(tuiWarnStyle.Render("⏳ Waiting for first measurement..."))
	} else {
		stateStyle := tuiValueStyle
		if m.latest.State == ebc.StateWorking {
			stateStyle = tuiWarnStyle
		}
		sampleContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			tuiLabelStyle.Render("Mode:"), tuiValueStyle.Render(m.latest.Mode.String()),
			tuiLabelStyle.Render("State:"), stateStyle.Render(m.latest.State.String()),
		))
		sampleContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			tuiLabelStyle.Render("Voltage:"), tuiValueStyle.Render(fmt.Sprintf("%.3f V", m.latest.VoltageV)),
			tuiLabelStyle.Render("Current:"), tuiValueStyle.Render(fmt.Sprintf("%.3f A", m.latest.CurrentA)),
		))
		sampleContent.WriteString(fmt.Sprintf("%s %s   %s %s",
			tuiLabelStyle.Render("Charge:"), tuiValueStyle.Render(fmt.Sprintf("%d", m.latest.StoredCharge)),
			tuiLabelStyle.Render("Setting:"), tuiValueStyle.Render(fmt.Sprintf("%.3f A / %.2f V cutoff", m.latest.SettingA, m.latest.CutoffV)),
		))
	}
	s.WriteString(tuiBoxStyle.Render(sampleContent.String()))
	s.WriteString("\n\n")

	// Statistics
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		tuiLabelStyle.Render("Samples:"), tuiValueStyle.Render(fmt.Sprintf("%d (%.2f/s)", m.counters.Samples, m.counters.SampleRate())),
		tuiLabelStyle.Render("Empty Reads:"), tuiValueStyle.Render(fmt.Sprintf("%d", m.counters.NoData)),
		tuiLabelStyle.Render("Checksum:"), func() string {
			if m.counters.ChecksumWarnings > 0 {
				return tuiErrorStyle.Render(fmt.Sprintf("%d warnings", m.counters.ChecksumWarnings))
			}
			return tuiValueStyle.Render("clean")
		}(),
	))
	s.WriteString(tuiBoxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Sample log
	s.WriteString(tuiLabelStyle.Render("Samples:"))
	s.WriteString("\n")
	if m.ready {
		s.WriteString(tuiBoxStyle.Width(m.width - 4).Render(m.log.View()))
	} else {
		s.WriteString(tuiHeaderStyle.Render("  (no samples yet)"))
	}

	return s.String()
}

func runTUI(cmd *cobra.Command, args []string) error {
	transport, desc, err := openTransport()
	if err != nil {
		return err
	}
	log.Infof("connecting to %s", desc)

	// Console logging would fight the alternate screen, so the session
	// and the polling loop get a silent logger while the dashboard runs.
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	sess := ebc.NewSession(transport, quiet, cfg.SessionOptions())
	sess.Stats = ebc.NewStats()
	if err := sess.Connect(); err != nil {
		return err
	}
	defer func() {
		if err := sess.Disconnect(); err != nil {
			log.WithError(err).Warn("failed to disconnect")
		}
	}()

	p := tea.NewProgram(newTUIModel(desc, sess.Stats), tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		ctrl := ebc.NewController(sess, quiet, sess.Options())
		err := ctrl.Monitor(ctx, ebc.SinkFunc(func(sample *ebc.Measurement) error {
			p.Send(sampleMsg{measurement: sample})
			return nil
		}))
		if err != nil && !errors.Is(err, context.Canceled) {
			p.Send(monitorFailedMsg{err: err})
		}
		done <- err
	}()

	_, runErr := p.Run()
	cancel()
	<-done
	return runErr
}
