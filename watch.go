package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// sampleSnapshot is used by watch when no input file is given.
const sampleSnapshot = `{
  "model": {"id": "claude-opus-4", "display_name": "Opus"},
  "version": "dev",
  "context_window": {
    "current_usage": {"input_tokens": 42000, "cache_creation_input_tokens": 8000, "cache_read_input_tokens": 30000},
    "context_window_size": 200000
  }
}`

// messages

type renderedMsg struct {
	line   string
	quotas Quotas
	err    error
	at     time.Time
}

type tickMsg time.Time

type snapshotChangedMsg struct{}

// styles

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	labelColor = lipgloss.Color("252")

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("99")).
			Padding(0, 2)
)

// watchModel redraws the status line on a timer, on demand, and whenever
// the input snapshot changes.
type watchModel struct {
	sl       *statusline
	input    string
	interval time.Duration

	line       string
	quotas     Quotas
	err        error
	lastRender time.Time
	loading    bool

	spinner    spinner.Model
	sessionBar progress.Model
	weeklyBar  progress.Model
	width      int
}

func newWatchModel(sl *statusline, input string, interval time.Duration, display DisplayConfig) watchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))

	return watchModel{
		sl:         sl,
		input:      input,
		interval:   interval,
		loading:    true,
		spinner:    s,
		sessionBar: newBar(display.Palette, 30),
		weeklyBar:  newBar(display.Palette, 30),
	}
}

func newBar(p Palette, width int) progress.Model {
	return progress.New(
		progress.WithScaledGradient(p.Green, p.Red),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.renderCmd(), tickCmd(m.interval))
}

func (m watchModel) renderCmd() tea.Cmd {
	sl, input := m.sl, m.input
	return func() tea.Msg {
		raw, err := readSnapshot(input)
		if err != nil {
			return renderedMsg{err: err, at: time.Now()}
		}
		line, q, err := sl.renderSnapshot(context.Background(), raw)
		return renderedMsg{line: line, quotas: q, err: err, at: time.Now()}
	}
}

func readSnapshot(input string) ([]byte, error) {
	if input == "" {
		return []byte(sampleSnapshot), nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return data, nil
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.renderCmd())
		}

	case renderedMsg:
		m.loading = false
		m.line, m.quotas, m.err = msg.line, msg.quotas, msg.err
		m.lastRender = msg.at
		return m, nil

	case snapshotChangedMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, m.renderCmd())

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.interval)}
		if !m.loading {
			m.loading = true
			cmds = append(cmds, m.spinner.Tick, m.renderCmd())
		}
		return m, tea.Batch(cmds...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := max(8, min(m.width-30, 30))
		m.sessionBar.Width = barWidth
		m.weeklyBar.Width = barWidth
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	title := titleStyle.Render(appName)
	if m.loading {
		title += "  " + m.spinner.View()
	} else if !m.lastRender.IsZero() {
		title += "  " + dimStyle.Render(m.lastRender.Format("15:04:05"))
	}
	b.WriteString(title + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("  "+m.err.Error()) + "\n\n")
		b.WriteString(dimStyle.Render("  the host would show no status line") + "\n")
	} else {
		line := m.line
		if m.width > 8 {
			line = ansi.Truncate(line, m.width-8, "…")
		}
		b.WriteString(line + "\n\n")
		b.WriteString(m.renderQuota("Session (5h)", m.sessionBar, m.quotas.Session))
		b.WriteString(m.renderQuota("Weekly (7d)", m.weeklyBar, m.quotas.Weekly))
		b.WriteString(dimStyle.Render("  source: "+m.quotas.Source.String()) + "\n")
	}

	b.WriteString("\n" + dimStyle.Render("  [r] redraw  [q] quit") + "\n")
	return borderStyle.Render(b.String())
}

func (m watchModel) renderQuota(label string, bar progress.Model, r *QuotaReading) string {
	labelStr := lipgloss.NewStyle().Width(14).Foreground(labelColor).Render(label)
	if r == nil {
		return labelStr + dimStyle.Render("unavailable") + "\n"
	}
	line := labelStr + bar.ViewAs(float64(r.Percentage)/100) + fmt.Sprintf(" %3d%%", r.Percentage)
	if countdown, ok := formatCountdown(r.ResetsAt, time.Now()); ok {
		line += dimStyle.Render("  resets in " + countdown)
	}
	return line + "\n"
}

// watchSnapshot notifies p whenever the snapshot file is written or
// replaced. The parent directory is watched because editors often swap the
// file instead of writing it in place.
func watchSnapshot(path string, p *tea.Program) (stop func(), err error) {
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if snapshotEvent(event, path) {
					p.Send(snapshotChangedMsg{})
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("watch: fsnotify error")
			}
		}
	}()

	return func() {
		close(done)
		w.Close()
	}, nil
}

func snapshotEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
