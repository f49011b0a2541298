// Package watch is the live dashboard: a bubbletea program that refetches
// usage on an interval and animates per-window progress bars.
package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/codex-meter/codex-meter/internal/codexapi"
	"github.com/codex-meter/codex-meter/internal/config"
	"github.com/codex-meter/codex-meter/internal/credentials"
	"github.com/codex-meter/codex-meter/internal/domain"
)

// messages

type fetchedMsg struct {
	snapshot domain.Snapshot
	err      error
}

type tickMsg time.Time

// styles

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("6"))

	labelStyle = lipgloss.NewStyle().
			Width(16)

	percentStyle = lipgloss.NewStyle().
			Width(7).
			Align(lipgloss.Right)

	resetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			MarginLeft(16)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	staleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(1, 2)
)

const refreshDebounce = 10 * time.Second

type Model struct {
	cfg config.Runtime

	snapshot  *domain.Snapshot
	err       error
	stale     bool
	lastFetch time.Time

	primaryBar   progress.Model
	secondaryBar progress.Model
	spinner      spinner.Model

	loading     bool
	lastRefresh time.Time
}

func New(cfg config.Runtime) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	return Model{
		cfg:          cfg,
		primaryBar:   newBar(cfg.BarWidth),
		secondaryBar: newBar(cfg.BarWidth),
		spinner:      s,
		loading:      true,
	}
}

func newBar(width int) progress.Model {
	if width <= 0 {
		width = 30
	}
	return progress.New(
		progress.WithScaledGradient("#76EEC6", "#FF6347"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchCmd(m.cfg),
		tickCmd(m.cfg.WatchInterval),
	)
}

// fetchCmd resolves credentials on every fetch so an updated auth.json is
// picked up without restarting the program.
func fetchCmd(cfg config.Runtime) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout+5*time.Second)
		defer cancel()

		creds, err := credentials.NewResolver(credentials.Options{
			CodexHome:   cfg.CodexHome,
			AuthFile:    cfg.AuthFile,
			AccessToken: cfg.AccessToken,
			AccountID:   cfg.AccountID,
			APIKey:      cfg.APIKey,
		}).Resolve()
		if err != nil {
			return fetchedMsg{err: err}
		}
		snapshot, err := codexapi.NewClient(cfg.BaseURL, cfg.Timeout).FetchUsage(ctx, creds)
		return fetchedMsg{snapshot: snapshot, err: err}
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if time.Since(m.lastRefresh) < refreshDebounce {
				return m, nil
			}
			m.loading = true
			m.lastRefresh = time.Now()
			return m, tea.Batch(m.spinner.Tick, fetchCmd(m.cfg))
		}

	case fetchedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			if m.snapshot != nil {
				// keep stale data
				m.stale = true
			}
			return m, nil
		}
		snapshot := msg.snapshot
		m.snapshot = &snapshot
		m.err = nil
		m.stale = false
		m.lastFetch = time.Now()

		var cmds []tea.Cmd
		if w := snapshot.Primary; w != nil && w.UsedPercent != nil {
			cmds = append(cmds, m.primaryBar.SetPercent(domain.ClampPercent(*w.UsedPercent)/100))
		}
		if w := snapshot.Secondary; w != nil && w.UsedPercent != nil {
			cmds = append(cmds, m.secondaryBar.SetPercent(domain.ClampPercent(*w.UsedPercent)/100))
		}
		return m, tea.Batch(cmds...)

	case tickMsg:
		m.loading = true
		return m, tea.Batch(m.spinner.Tick, fetchCmd(m.cfg), tickCmd(m.cfg.WatchInterval))

	case tea.WindowSizeMsg:
		barWidth := max(20, min(msg.Width-40, 40))
		m.primaryBar.Width = barWidth
		m.secondaryBar.Width = barWidth
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		var cmds []tea.Cmd

		pm, cmd := m.primaryBar.Update(msg)
		m.primaryBar = pm.(progress.Model)
		cmds = append(cmds, cmd)

		pm, cmd = m.secondaryBar.Update(msg)
		m.secondaryBar = pm.(progress.Model)
		cmds = append(cmds, cmd)

		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	title := titleStyle.Render("codex-meter")
	if m.loading {
		title += "  " + m.spinner.View()
	} else if m.stale {
		title += "  " + staleStyle.Render("stale")
	}
	b.WriteString(title + "\n\n")

	if m.err != nil && m.snapshot == nil {
		b.WriteString(errorStyle.Render("  "+m.err.Error()) + "\n")
		return borderStyle.Render(b.String())
	}

	if m.snapshot != nil {
		b.WriteString(renderBar("Session (5h)", m.primaryBar, m.snapshot.Primary))
		b.WriteString(renderBar("Weekly (7d)", m.secondaryBar, m.snapshot.Secondary))
		if m.snapshot.LimitReached {
			b.WriteString(errorStyle.Render("  limit reached") + "\n\n")
		}
	}

	if m.stale && m.err != nil {
		b.WriteString(staleStyle.Render("  "+m.err.Error()) + "\n\n")
	}

	footer := footerLine(m.snapshot, m.lastFetch)
	if footer != "" {
		b.WriteString(footerStyle.Render(footer))
	}

	return borderStyle.Render(b.String())
}

func renderBar(label string, bar progress.Model, window *domain.Window) string {
	if window == nil {
		return labelStyle.Render(label) + resetStyle.UnsetMarginLeft().Render("not available") + "\n\n"
	}

	pct := 0.0
	if window.UsedPercent != nil {
		pct = domain.ClampPercent(*window.UsedPercent)
	}
	line := labelStyle.Render(label) + bar.View() + " " + percentStyle.Render(fmt.Sprintf("%.0f%%", pct)) + "\n"

	resetLine := resetStyle.Render(domain.ResetCountdown(time.Now(), window.ResetAt)) + "\n"
	return line + resetLine + "\n"
}

func footerLine(snapshot *domain.Snapshot, lastFetch time.Time) string {
	footer := ""
	if snapshot != nil && snapshot.Plan != "" {
		footer = strings.ToUpper(snapshot.Plan[:1]) + snapshot.Plan[1:]
	}
	if !lastFetch.IsZero() {
		if footer != "" {
			footer += "  •  "
		}
		footer += "updated " + lastFetch.Format("15:04")
	}
	return footer
}

// Run blocks until the user quits.
func Run(cfg config.Runtime) error {
	if _, err := tea.NewProgram(New(cfg)).Run(); err != nil {
		return fmt.Errorf("watch ui: %w", err)
	}
	return nil
}
