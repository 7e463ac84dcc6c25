package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kilianp07/fieldroute/core/model"
	"github.com/kilianp07/fieldroute/core/project"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

func stateStyle(s project.State) lipgloss.Style {
	switch s {
	case project.Complete:
		return completeStyle
	case project.InProgress:
		return progressStyle
	default:
		return pendingStyle
	}
}

// swatch renders a label in a palette colour.
func swatch(code int, text string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(model.ColorHex(code))).Bold(true).Render(text)
}

func heading(w io.Writer, text string) {
	fmt.Fprintln(w, headingStyle.Render(text))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("warning: "+fmt.Sprintf(format, args...)))
}

// parseDate accepts 2006-01-02 and 02-Jan-06.
func parseDate(s string) (time.Time, error) {
	t, err := model.ParseAppointmentDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or DD-Mon-YY", s)
	}
	return t, nil
}
