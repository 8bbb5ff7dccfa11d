package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/channel"
)

// ConfirmModel is the confirmation page for one pending article. It sends
// the article by URL once the user agrees.
type ConfirmModel struct {
	surface
}

// NewConfirmModel creates a confirmation page for p.
func NewConfirmModel(p article.Pending, opts Options) ConfirmModel {
	return ConfirmModel{surface: newSurface(ConfirmationMachine(p), opts)}
}

func (m ConfirmModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the confirmation page.
func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.surface.update(msg); ok {
		return m, cmd
	}

	switch msg := msg.(type) {
	case responseMsg:
		if msg.action == channel.ActionSendArticleURL {
			title := ""
			if m.machine.Pending != nil {
				title = m.machine.Pending.DisplayTitle()
			}
			m.machine = finish(m.machine, msg, title)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m ConfirmModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.machine.State

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if m.machine.Busy {
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case state == StateConfirming && key.Matches(msg, m.keys.Send):
		next, ok := m.machine.Begin()
		if !ok {
			return m, nil
		}
		m.machine = next
		p := *m.machine.Pending
		return m, tea.Batch(m.spinner.Tick, m.request(channel.SendArticleURL{URL: p.URL, Title: p.Title}))

	case state == StateError && key.Matches(msg, m.keys.Retry):
		m.machine = m.machine.Retry()
		return m, nil

	case state == StateSuccess && key.Matches(msg, m.keys.Dashboard):
		return m, m.open("", true)
	}

	return m, nil
}

// View renders the confirmation page.
func (m ConfirmModel) View() string {
	var body string
	switch m.machine.State {
	case StateConfirming:
		p := m.machine.Pending
		body = m.styles.Muted.Render("この記事をCuraQに送信しますか？") + "\n\n" +
			m.renderArticle(p.DisplayTitle(), p.URL)
		if status := m.renderStatus("送信中..."); status != "" {
			body += "\n\n" + status
		}
	default:
		body = m.renderStatus("")
	}
	return m.layout(body)
}
