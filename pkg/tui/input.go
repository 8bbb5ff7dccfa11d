package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TokenInputModel handles token entry in the settings overlay.
type TokenInputModel struct {
	textInput textinput.Model
	styles    Styles
}

// NewTokenInput creates a new token input model.
func NewTokenInput(styles Styles) TokenInputModel {
	ti := textinput.New()
	ti.Placeholder = "APIトークン"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 512
	ti.Width = 54 // Fit within the input box

	return TokenInputModel{
		textInput: ti,
		styles:    styles,
	}
}

// Update handles messages for the token input.
func (m TokenInputModel) Update(msg tea.Msg) (TokenInputModel, tea.Cmd) {
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the token input. status is shown under the field.
func (m TokenInputModel) View(status string) string {
	return m.styles.InputBox.Render(
		m.styles.InputLabel.Render("設定") + "\n\n" +
			m.textInput.View() + "\n\n" +
			status,
	)
}

// Value returns the current input value.
func (m TokenInputModel) Value() string {
	return m.textInput.Value()
}

// Reset clears the input.
func (m TokenInputModel) Reset() TokenInputModel {
	m.textInput.Reset()
	return m
}

// Focus focuses the input.
func (m TokenInputModel) Focus() (TokenInputModel, tea.Cmd) {
	cmd := m.textInput.Focus()
	return m, cmd
}

// Blur unfocuses the input.
func (m TokenInputModel) Blur() TokenInputModel {
	m.textInput.Blur()
	return m
}
