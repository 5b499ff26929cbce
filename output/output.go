package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	primaryStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	unreadStyle  = lipgloss.NewStyle().Foreground(colorWarning)
)

// Out is where every printer writes. Commands point it at their own
// output stream.
var Out io.Writer = os.Stdout

func Success(format string, args ...any) {
	fmt.Fprint(Out, successStyle.Render("✓ "))
	fmt.Fprintf(Out, format+"\n", args...)
}

func Warning(format string, args ...any) {
	fmt.Fprint(Out, warningStyle.Render("⚠ "))
	fmt.Fprintf(Out, format+"\n", args...)
}

func Error(format string, args ...any) {
	fmt.Fprint(Out, errorStyle.Render("✗ "))
	fmt.Fprintf(Out, format+"\n", args...)
}

func Info(format string, args ...any) {
	fmt.Fprint(Out, infoStyle.Render("ℹ "))
	fmt.Fprintf(Out, format+"\n", args...)
}

func Muted(format string, args ...any) {
	fmt.Fprintln(Out, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

func Primary(format string, args ...any) {
	fmt.Fprintln(Out, primaryStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a header underlined to its own width.
func Section(title string) {
	fmt.Fprintln(Out)
	fmt.Fprintln(Out, primaryStyle.Render(title))
	fmt.Fprintln(Out, mutedStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// Line prints text as is.
func Line(format string, args ...any) {
	fmt.Fprintf(Out, format+"\n", args...)
}

// UnreadMark returns a marker for unread notifications, blank otherwise.
func UnreadMark(read bool) string {
	if read {
		return " "
	}
	return unreadStyle.Render("●")
}

// Progress renders current/target as a bar of width cells.
func Progress(current, target, width int) string {
	if target <= 0 || width <= 0 {
		return mutedStyle.Render(fmt.Sprintf("%d", current))
	}
	filled := min(max(current*width/target, 0), width)
	return successStyle.Render(strings.Repeat("━", filled)) +
		mutedStyle.Render(strings.Repeat("━", width-filled)) +
		" " + infoStyle.Render(fmt.Sprintf("%d/%d", current, target))
}
