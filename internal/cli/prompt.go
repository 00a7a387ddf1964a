package cli

import (
	"context"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	promptInputStyle = lipgloss.NewStyle().Foreground(colorText)
	promptHelpStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

// =============================================================================
// TokenModel - masked token entry
// =============================================================================

// TokenModel is the bubbletea model for entering an access token.
type TokenModel struct {
	Reason    string
	Value     []rune
	Submitted bool
}

// NewTokenModel creates a token prompt explaining why a token is needed.
func NewTokenModel(reason string) TokenModel {
	return TokenModel{Reason: reason}
}

func (m TokenModel) Init() tea.Cmd {
	return nil
}

func (m TokenModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Value = nil
		return m, tea.Quit
	case tea.KeyEnter:
		m.Submitted = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if len(m.Value) > 0 {
			m.Value = m.Value[:len(m.Value)-1]
		}
	case tea.KeyCtrlU:
		m.Value = nil
	case tea.KeyRunes:
		m.Value = append(m.Value, key.Runes...)
	}
	return m, nil
}

func (m TokenModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("GitHub Access Token"))
	b.WriteString("\n")
	if m.Reason != "" {
		b.WriteString(StyleDim.Render(m.Reason))
		b.WriteString("\n")
	}
	b.WriteString("\n> ")
	b.WriteString(promptInputStyle.Render(strings.Repeat("•", len(m.Value))))
	b.WriteString("\n\n")
	b.WriteString(promptHelpStyle.Render("enter: save  ctrl+u: clear  esc: cancel"))
	b.WriteString("\n")
	return b.String()
}

// Token returns the entered token, or "" when the prompt was cancelled.
func (m TokenModel) Token() string {
	if !m.Submitted {
		return ""
	}
	return strings.TrimSpace(string(m.Value))
}

// =============================================================================
// Prompter
// =============================================================================

// teaPrompter asks for a token in the terminal.
type teaPrompter struct {
	in  io.Reader
	out io.Writer
}

func newTeaPrompter() teaPrompter {
	return teaPrompter{in: os.Stdin, out: os.Stderr}
}

// PromptToken runs the token prompt and returns the entered value.
func (p teaPrompter) PromptToken(ctx context.Context, reason string) (string, error) {
	prog := tea.NewProgram(NewTokenModel(reason),
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)
	final, err := prog.Run()
	if err != nil {
		return "", err
	}
	return final.(TokenModel).Token(), nil
}
