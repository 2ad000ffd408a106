// Package report renders a compile summary box for the CLI: the source
// file, resolution, declared instruments, and any warnings collected
// during compilation. It is the styled replacement for the teacher's
// hand-drawn terminal box (display.ShowTrack), using lipgloss borders
// instead of manual strings.Repeat("─", ...) box art.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"mplc/compiler"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00FFFF"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// Summary is everything a compile-summary box needs, gathered by the CLI
// from a successful compiler.Result.
type Summary struct {
	SourceFile  string
	Resolution  int
	Instruments []InstrumentLine
	Warnings    []compiler.Warning
}

// InstrumentLine is one declared channel, as shown in the box.
type InstrumentLine struct {
	Channel int
	Program uint8
	Name    string
}

// Box renders s as a bordered, styled summary suitable for printing to a
// terminal.
func Box(s Summary) string {
	var body strings.Builder

	body.WriteString(titleStyle.Render(s.SourceFile))
	body.WriteByte('\n')
	body.WriteString(dimStyle.Render(fmt.Sprintf("resolution: %d ticks/quarter", s.Resolution)))
	body.WriteByte('\n')

	if len(s.Instruments) > 0 {
		body.WriteByte('\n')
		body.WriteString(dimStyle.Render("instruments:"))
		body.WriteByte('\n')
		for _, inst := range s.Instruments {
			name := inst.Name
			if name == "" {
				name = "(unnamed)"
			}
			body.WriteString(fmt.Sprintf("  ch %2d  program %3d  %s\n", inst.Channel, inst.Program, name))
		}
	}

	if len(s.Warnings) > 0 {
		body.WriteByte('\n')
		body.WriteString(warnStyle.Render(fmt.Sprintf("%d warning(s):", len(s.Warnings))))
		body.WriteByte('\n')
		for _, w := range s.Warnings {
			body.WriteString(fmt.Sprintf("  %s\n", w.String()))
		}
	}

	return boxStyle.Render(strings.TrimRight(body.String(), "\n"))
}

// Plain renders the same content without ANSI styling or box-drawing, for
// non-TTY output (cmd/mplc decides which to call based on
// golang.org/x/term.IsTerminal, the same TTY-detection point the teacher
// uses before choosing between its TUI and legacy terminal output).
func Plain(s Summary) string {
	var out strings.Builder
	fmt.Fprintf(&out, "%s\n", s.SourceFile)
	fmt.Fprintf(&out, "resolution: %d ticks/quarter\n", s.Resolution)
	for _, inst := range s.Instruments {
		name := inst.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(&out, "  ch %2d  program %3d  %s\n", inst.Channel, inst.Program, name)
	}
	for _, w := range s.Warnings {
		fmt.Fprintf(&out, "warning: %s\n", w.String())
	}
	return out.String()
}
