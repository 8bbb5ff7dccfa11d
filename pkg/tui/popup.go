package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/irfansharif/curaq/pkg/browser"
	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/result"
)

type activeTabMsg struct {
	tab browser.Tab
	err error
}

// PopupModel is the popup: it probes the credential, shows the active tab
// and saves it on request.
type PopupModel struct {
	surface

	tab      *browser.Tab
	tabErr   error
	input    TokenInputModel
	settings string // status line inside the settings overlay
}

// NewPopupModel creates a popup wired to opts.
func NewPopupModel(opts Options) PopupModel {
	s := newSurface(PopupMachine(), opts)
	return PopupModel{
		surface: s,
		input:   NewTokenInput(s.styles),
	}
}

// Init probes the credential and looks up the active tab.
func (m PopupModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.request(channel.CheckCredential{}),
		m.activeTab(),
	)
}

func (m PopupModel) activeTab() tea.Cmd {
	return func() tea.Msg {
		tab, err := m.opts.Host.Active(m.opts.Context)
		return activeTabMsg{tab: tab, err: err}
	}
}

// Update handles messages for the popup.
func (m PopupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.surface.update(msg); ok {
		return m, cmd
	}

	switch msg := msg.(type) {
	case activeTabMsg:
		if msg.err != nil {
			m.tab, m.tabErr = nil, msg.err
			return m, nil
		}
		m.tab, m.tabErr = &msg.tab, nil
		return m, nil

	case responseMsg:
		return m.handleResponse(msg)

	case tea.KeyMsg:
		if m.machine.State == StateSettings {
			return m.handleSettingsKeys(msg)
		}
		return m.handleKeys(msg)
	}

	return m, nil
}

func (m PopupModel) handleResponse(msg responseMsg) (tea.Model, tea.Cmd) {
	switch msg.action {
	case channel.ActionCheckCredential:
		if msg.err != nil {
			m.machine = m.machine.Probed(channel.ProbeUnreachable)
			return m, nil
		}
		m.machine = m.machine.Probed(msg.resp.Probe)
		return m, nil

	case channel.ActionSaveArticle, channel.ActionSendArticleURL:
		m.machine = finish(m.machine, msg, m.title())
		return m, nil

	case channel.ActionSetCredential, channel.ActionClearCredential:
		if msg.err != nil {
			m.settings = m.styles.Error.Render(msg.err.Error())
			return m, nil
		}
		if !msg.resp.Success {
			m.settings = m.styles.Error.Render(msg.resp.Error)
			return m, nil
		}
		m.settings = ""
		m.input = m.input.Reset().Blur()
		m.machine = m.machine.CloseSettings().Reprobe()
		return m, m.request(channel.CheckCredential{})
	}
	return m, nil
}

// finish applies the answer to a save or send request to machine.
func finish(machine Machine, msg responseMsg, title string) Machine {
	if msg.err != nil {
		return machine.Failed(msg.err.Error())
	}
	if msg.resp.Result == nil {
		text := msg.resp.Error
		if text == "" {
			text = result.Message(result.KindUnknown, "")
		}
		return machine.Failed(text)
	}
	r := *msg.resp.Result
	if r.Pending != nil && title == "" {
		title = r.Pending.DisplayTitle()
	}
	_, text := result.Text(r, title)
	if r.Status == result.StatusFailed && msg.resp.Error != "" {
		text = msg.resp.Error
	}
	return machine.Finished(r, text)
}

func (m PopupModel) title() string {
	if m.machine.Pending != nil {
		return m.machine.Pending.DisplayTitle()
	}
	if m.tab == nil {
		return ""
	}
	if m.tab.Title != "" {
		return m.tab.Title
	}
	return m.tab.URL
}

func (m PopupModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	state := m.machine.State

	switch {
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

	case state == StateConfirming && key.Matches(msg, m.keys.Cancel):
		return m, tea.Quit

	case state == StateReady && key.Matches(msg, m.keys.Save):
		next, ok := m.machine.Begin()
		if !ok {
			return m, nil
		}
		if m.tab == nil {
			m.machine = next.Finished(result.Failed(result.KindPageNotCapturable, ""),
				result.Message(result.KindPageNotCapturable, ""))
			return m, nil
		}
		m.machine = next
		return m, tea.Batch(m.spinner.Tick, m.request(channel.SaveArticle{TabID: m.tab.ID}))

	case state == StateError && key.Matches(msg, m.keys.Retry):
		m.machine = m.machine.Retry()
		if m.machine.State == StateReady && m.machine.Result == nil {
			// No result means the probe or the channel failed.
			m.machine = m.machine.Reprobe()
			return m, m.request(channel.CheckCredential{})
		}
		return m, nil

	case (state == StateNoCredential || state == StateInvalidCredential) && key.Matches(msg, m.keys.Login):
		return m, m.open("/login", true)

	case (state == StatePlanRequired || state == StateSuccess) && key.Matches(msg, m.keys.Dashboard):
		return m, m.open("", true)

	case state != StateLoading && state != StateConfirming && key.Matches(msg, m.keys.Settings):
		m.machine = m.machine.OpenSettings()
		m.settings = ""
		var cmd tea.Cmd
		m.input, cmd = m.input.Focus()
		return m, cmd
	}

	return m, nil
}

func (m PopupModel) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.input = m.input.Reset().Blur()
		m.settings = ""
		m.machine = m.machine.CloseSettings()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		token := m.input.Value()
		if strings.TrimSpace(token) == "" {
			m.settings = m.styles.Error.Render("トークンを入力してください")
			return m, nil
		}
		m.settings = m.styles.Muted.Render("保存中...")
		return m, m.request(channel.SetCredential{Token: token})

	case key.Matches(msg, m.keys.ClearToken):
		m.settings = m.styles.Muted.Render("削除中...")
		return m, m.request(channel.ClearCredential{})

	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the popup.
func (m PopupModel) View() string {
	var body string
	switch m.machine.State {
	case StateLoading:
		body = m.spinner.View() + " 確認中..."
	case StateNoCredential:
		body = m.styles.Warning.Render("CuraQにログインしていません") + "\n" +
			m.styles.Muted.Render("ログインするか、設定からAPIトークンを登録してください")
	case StateInvalidCredential:
		body = m.styles.Warning.Render("トークンが無効です") + "\n" +
			m.styles.Muted.Render("再度ログインするか、新しいトークンを登録してください")
	case StatePlanRequired:
		body = m.styles.Warning.Render(result.Message(result.KindPlanRequired, ""))
	case StateReady:
		body = m.renderTab()
		if m.machine.Busy {
			body += "\n\n" + m.renderStatus("保存中...")
		}
	case StateConfirming:
		p := m.machine.Pending
		body = m.renderArticle(p.Title, p.URL)
		if status := m.renderStatus("送信中..."); status != "" {
			body += "\n\n" + status
		}
	case StateSuccess, StateError:
		body = m.renderTab() + "\n\n" + m.renderStatus("")
	case StateSettings:
		body = m.input.View(m.settings)
	}
	return m.layout(body)
}

func (m PopupModel) renderTab() string {
	if m.tab == nil {
		if m.tabErr != nil {
			return m.styles.Muted.Render(m.tabErr.Error())
		}
		return m.styles.Muted.Render("タブを取得しています...")
	}
	return m.renderArticle(m.tab.Title, m.tab.URL)
}
