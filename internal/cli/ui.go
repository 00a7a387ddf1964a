package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/hovercard/pkg/ref"
)

// Palette. Reference kinds get the colors the cards use for their accents.
var (
	colorAccent = lipgloss.Color("36")  // teal
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorFail   = lipgloss.Color("167") // soft red
	colorLink   = lipgloss.Color("75")  // light blue
	colorText   = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var kindColors = map[ref.Kind]lipgloss.Color{
	ref.KindUser:    colorLink,
	ref.KindRepo:    colorAccent,
	ref.KindIssue:   colorOK,
	ref.KindComment: colorLabel,
	ref.KindCommit:  colorWarn,
}

// Styles shared by commands and the token prompt.
var (
	StyleTitle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	StyleLink   = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	StyleDim    = lipgloss.NewStyle().Foreground(colorMuted)
	StyleValue  = lipgloss.NewStyle().Foreground(colorText)
	StyleNumber = lipgloss.NewStyle().Foreground(colorAccent)

	styleLabel   = lipgloss.NewStyle().Foreground(colorLabel).Width(10)
	styleCommand = lipgloss.NewStyle().Foreground(colorLink)
	styleSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

// styleKind colors a reference kind the way its card is accented.
func styleKind(k ref.Kind) lipgloss.Style {
	c, ok := kindColors[k]
	if !ok {
		c = colorText
	}
	return lipgloss.NewStyle().Foreground(c)
}

// printer writes status lines for a command. Commands print to
// cmd.OutOrStdout() so output can be captured.
type printer struct{ w io.Writer }

func newPrinter(w io.Writer) printer { return printer{w: w} }

func (p printer) status(icon lipgloss.Style, mark, msg string) {
	fmt.Fprintln(p.w, icon.Render(mark)+" "+msg)
}

func (p printer) success(format string, args ...any) {
	p.status(lipgloss.NewStyle().Foreground(colorOK), "✓", fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	p.status(lipgloss.NewStyle().Foreground(colorFail), "✗", fmt.Sprintf(format, args...))
}

func (p printer) warn(format string, args ...any) {
	warn := lipgloss.NewStyle().Foreground(colorWarn)
	p.status(warn, "!", warn.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.status(lipgloss.NewStyle().Foreground(colorLabel), "›", fmt.Sprintf(format, args...))
}

// detail prints an indented, muted line under a status line.
func (p printer) detail(format string, args ...any) {
	fmt.Fprintln(p.w, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// field prints one labeled value of a record such as the stored token.
func (p printer) field(label, value string) {
	fmt.Fprintln(p.w, styleLabel.Render(label)+" "+StyleValue.Render(value))
}

// hint suggests the command that resolves the situation just reported.
func (p printer) hint(description, command string) {
	fmt.Fprintln(p.w, StyleDim.Render(description+":")+" "+styleCommand.Render(command))
}

func (p printer) title(s string) {
	fmt.Fprintln(p.w, StyleTitle.Render(s))
}

// pending prints a muted message and leaves the cursor on the line.
func (p printer) pending(format string, args ...any) {
	fmt.Fprint(p.w, StyleDim.Render(fmt.Sprintf(format, args...)))
}

func (p printer) blank() {
	fmt.Fprintln(p.w)
}
