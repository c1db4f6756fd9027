package handlers

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue)

	okStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	warnStyle = lipgloss.NewStyle().Foreground(colorYellow)
	errStyle  = lipgloss.NewStyle().Foreground(colorRed)
	dimStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// isInteractiveTTY is a variable so tests get plain output.
var isInteractiveTTY = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func styled(style lipgloss.Style, s string) string {
	if !isInteractiveTTY() {
		return s
	}
	return style.Render(s)
}

func printf(format string, args ...any) {
	fmt.Fprintf(stdout, format, args...)
}

func printTitle(s string) {
	printf("%s\n", styled(titleStyle, s))
}

// printRow prints one aligned "name  value" line.
func printRow(name string, value string, style lipgloss.Style) {
	printf("  %-38s %s\n", name, styled(style, value))
}
