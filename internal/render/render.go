// Package render turns a usage snapshot into terminal output: a styled
// progress display, flat key/value lines for scripting, or raw JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/codex-meter/codex-meter/internal/domain"
)

const (
	primaryLabel   = "5-hour session"
	secondaryLabel = "7-day rolling"
	ruleWidth      = 56
)

type Styles struct {
	Accent lipgloss.Style
	Plan   lipgloss.Style
	Label  lipgloss.Style
	Dim    lipgloss.Style
	Good   lipgloss.Style
	Warn   lipgloss.Style
	Crit   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Accent: lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		Plan:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		Label:  lipgloss.NewStyle().Bold(true),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Good:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warn:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Crit:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
	}
}

// PlainStyles renders with no ANSI attributes at all, for --no-color.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Accent: plain, Plan: plain, Label: plain, Dim: plain,
		Good: plain, Warn: plain, Crit: plain,
	}
}

type Renderer struct {
	Styles   Styles
	BarWidth int
}

func New(styles Styles, barWidth int) Renderer {
	if barWidth <= 0 {
		barWidth = 28
	}
	return Renderer{Styles: styles, BarWidth: barWidth}
}

// Fancy writes the progress display. staleNote, when non-empty, marks the
// snapshot as cached data that could not be refreshed.
func (r Renderer) Fancy(w io.Writer, snapshot domain.Snapshot, now time.Time, fetchedAt time.Time, staleNote string) {
	plan := strings.ToUpper(planOrUnknown(snapshot.Plan))

	fmt.Fprintf(w, "  %s OpenAI %s Plan · Codex Usage Limits\n",
		r.Styles.Accent.Render("◆"), r.Styles.Plan.Render(plan))
	fmt.Fprintf(w, "  %s\n", r.Styles.Dim.Render(strings.Repeat("─", ruleWidth)))

	r.window(w, primaryLabel, snapshot.Primary, now)
	r.window(w, secondaryLabel, snapshot.Secondary, now)

	fmt.Fprintf(w, "  %s\n", r.Styles.Dim.Render(strings.Repeat("─", ruleWidth)))
	fmt.Fprintf(w, "  %s\n", r.summary(snapshot))

	if staleNote != "" {
		fmt.Fprintf(w, "  %s\n", r.Styles.Dim.Render(
			fmt.Sprintf("cached data from %s (refresh failed: %s)", domain.RelativeAge(now, fetchedAt), staleNote)))
	}
}

func (r Renderer) window(w io.Writer, label string, window *domain.Window, now time.Time) {
	if window == nil {
		fmt.Fprintf(w, "  %-16s %s\n", label, r.Styles.Dim.Render("not available"))
		return
	}

	used := 0.0
	if window.UsedPercent != nil {
		used = domain.ClampPercent(*window.UsedPercent)
	}

	fmt.Fprintf(w, "  %s %s %s resets %s\n",
		r.Styles.Label.Render(fmt.Sprintf("%-16s", label)),
		r.bar(used),
		r.severityStyle(used).Render(domain.FormatPercent(&used)),
		r.reset(now, window.ResetAt))
}

func (r Renderer) bar(usedPercent float64) string {
	filled := int(math.Round(usedPercent / 100 * float64(r.BarWidth)))
	if filled > r.BarWidth {
		filled = r.BarWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", r.BarWidth-filled)
	return r.severityStyle(usedPercent).Render(bar)
}

func (r Renderer) severityStyle(usedPercent float64) lipgloss.Style {
	switch domain.SeverityFor(usedPercent) {
	case domain.SeverityCritical, domain.SeverityLimit:
		return r.Styles.Crit
	case domain.SeverityElevated:
		return r.Styles.Warn
	default:
		return r.Styles.Good
	}
}

// reset pairs the countdown with the wall-clock reset time, e.g.
// "in 1h 30m (Aug 30, 1:30 PM)". Imminent and unknown resets carry no
// wall-clock part.
func (r Renderer) reset(now time.Time, resetAt *time.Time) string {
	text := domain.ResetCountdown(now, resetAt)
	switch text {
	case "now":
		return r.Styles.Good.Render(text)
	case "—":
		return r.Styles.Dim.Render(text)
	}
	return text + " " + r.Styles.Dim.Render("("+domain.ResetAbsolute(resetAt)+")")
}

func (r Renderer) summary(snapshot domain.Snapshot) string {
	switch snapshot.Severity() {
	case domain.SeverityLimit:
		return r.Styles.Crit.Render("✗") + " Limit reached. Check your reset time above."
	case domain.SeverityCritical:
		return r.Styles.Crit.Render("⚠") + " Nearly at your limit. Check reset time above."
	case domain.SeverityElevated:
		return r.Styles.Warn.Render("△") + " Usage is elevated. Consider pacing your session."
	default:
		return r.Styles.Good.Render("✓") + " Looking good. Plenty of capacity remaining."
	}
}

// Plain writes flat key/value lines with no ANSI, for scripting.
func Plain(w io.Writer, snapshot domain.Snapshot, now time.Time, fetchedAt time.Time, staleNote string) {
	fmt.Fprintf(w, "Plan: %s\n", strings.ToUpper(planOrUnknown(snapshot.Plan)))
	plainWindow(w, "5hr window", snapshot.Primary, now)
	plainWindow(w, "7day window", snapshot.Secondary, now)
	if snapshot.LimitReached {
		fmt.Fprintln(w, "Status: LIMIT REACHED")
	}
	if staleNote != "" {
		fmt.Fprintf(w, "Cached: %s (refresh failed: %s)\n", domain.RelativeAge(now, fetchedAt), staleNote)
	}
}

func plainWindow(w io.Writer, label string, window *domain.Window, now time.Time) {
	if window == nil {
		fmt.Fprintf(w, "%s: N/A\n", label)
		return
	}
	used := 0.0
	if window.UsedPercent != nil {
		used = domain.ClampPercent(*window.UsedPercent)
	}
	fmt.Fprintf(w, "%s: %.1f%% used  Resets in: %s\n", label, used, domain.ResetSeconds(now, window.ResetAt))
}

// JSON writes the normalized snapshot for machine consumption.
func JSON(w io.Writer, snapshot domain.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snapshot); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func planOrUnknown(plan string) string {
	if strings.TrimSpace(plan) == "" {
		return "unknown"
	}
	return plan
}
