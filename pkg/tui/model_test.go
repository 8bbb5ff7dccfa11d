package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/browser/fetch"
	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/logging"
	"github.com/irfansharif/curaq/pkg/result"
)

// background answers surface requests with canned responses and records
// what it was asked.
type background struct {
	mu       sync.Mutex
	probe    channel.Probe
	save     channel.Response
	requests []channel.Request
}

func (b *background) serve(ctx context.Context, req channel.Request) channel.Response {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, req)
	switch r := req.(type) {
	case channel.CheckCredential:
		return channel.Response{Success: b.probe == channel.ProbeOK, Probe: b.probe}
	case channel.SaveArticle, channel.SendArticleURL:
		return b.save
	case channel.SetCredential:
		if strings.TrimSpace(r.Token) == "" {
			return channel.Failure("トークンを入力してください")
		}
		b.probe = channel.ProbeOK
		return channel.Response{Success: true}
	case channel.ClearCredential:
		b.probe = channel.ProbeNoCredential
		return channel.Response{Success: true}
	}
	return channel.Failure("unexpected %s", req.Action())
}

func (b *background) actions() []channel.Action {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []channel.Action
	for _, r := range b.requests {
		out = append(out, r.Action())
	}
	return out
}

type harness struct {
	bg   *background
	host *fetch.Host
	opts Options
}

func newHarness(t *testing.T, probe channel.Probe) *harness {
	t.Helper()
	bus := channel.NewBus(logging.NewNop())
	bg := &background{probe: probe}
	t.Cleanup(bus.Listen(channel.Background, bg.serve))
	host := fetch.NewWithOpener(nil)
	return &harness{
		bg:   bg,
		host: host,
		opts: Options{Bus: bus, Host: host, Base: "https://curaq.app/"},
	}
}

// drain runs cmd to completion, feeding what it produces back into model.
// Spinner ticks are dropped. It reports whether the program asked to quit.
func drain(t *testing.T, model tea.Model, cmd tea.Cmd) (tea.Model, bool) {
	t.Helper()
	if cmd == nil {
		return model, false
	}
	quit := false
	switch msg := cmd().(type) {
	case nil, spinner.TickMsg:
	case tea.QuitMsg:
		quit = true
	case tea.BatchMsg:
		for _, c := range msg {
			var q bool
			model, q = drain(t, model, c)
			quit = quit || q
		}
	default:
		var next tea.Cmd
		model, next = model.Update(msg)
		var q bool
		model, q = drain(t, model, next)
		quit = quit || q
	}
	return model, quit
}

func press(t *testing.T, model tea.Model, k tea.KeyMsg) (tea.Model, bool) {
	t.Helper()
	model, cmd := model.Update(k)
	return drain(t, model, cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func machineOf(model tea.Model) Machine {
	switch m := model.(type) {
	case PopupModel:
		return m.Machine()
	case ConfirmModel:
		return m.Machine()
	}
	panic("unexpected model")
}

func TestPopupSavesActiveTab(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)
	tab := h.host.Put("https://example.com/a", "A", "<html></html>")
	restored := result.Succeeded(true)
	h.bg.save = channel.Response{Success: true, Result: &restored}

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	require.Equal(t, StateReady, machineOf(model).State)
	require.Contains(t, model.View(), "example.com/a")

	model, quit := press(t, model, enter)
	require.False(t, quit)
	m := machineOf(model)
	require.Equal(t, StateSuccess, m.State)
	require.Equal(t, "「A」を再登録しました", m.Message)
	require.Contains(t, model.View(), "再登録しました")

	h.bg.mu.Lock()
	require.Equal(t, channel.SaveArticle{TabID: tab.ID}, h.bg.requests[len(h.bg.requests)-1])
	h.bg.mu.Unlock()

	_, quit = press(t, model, runes("d"))
	require.True(t, quit)
	require.Equal(t, []string{"https://curaq.app"}, h.host.Opened())
}

func TestPopupShowsSaveFailure(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)
	h.host.Put("https://example.com/a", "A", "<html></html>")
	failed := result.Failed(result.KindUnreadLimit, "")
	h.bg.save = channel.Response{
		Result: &failed,
		Error:  result.Message(result.KindUnreadLimit, ""),
	}

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	model, _ = press(t, model, enter)
	m := machineOf(model)
	require.Equal(t, StateError, m.State)
	require.Contains(t, m.Message, "30件")

	model, _ = press(t, model, runes("r"))
	require.Equal(t, StateReady, machineOf(model).State)
	require.Equal(t,
		[]channel.Action{channel.ActionCheckCredential, channel.ActionSaveArticle},
		h.bg.actions())
}

func TestPopupWithoutTab(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	model, _ = press(t, model, enter)
	m := machineOf(model)
	require.Equal(t, StateError, m.State)
	require.Equal(t, result.KindPageNotCapturable, m.Result.Kind)
	require.Equal(t, []channel.Action{channel.ActionCheckCredential}, h.bg.actions())
}

func TestPopupLogin(t *testing.T) {
	h := newHarness(t, channel.ProbeNoCredential)

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	require.Equal(t, StateNoCredential, machineOf(model).State)

	// Saving is not offered without a credential.
	model, _ = press(t, model, enter)
	require.Equal(t, StateNoCredential, machineOf(model).State)

	_, quit := press(t, model, runes("l"))
	require.True(t, quit)
	require.Equal(t, []string{"https://curaq.app/login"}, h.host.Opened())
}

func TestPopupSettingsSetsToken(t *testing.T) {
	h := newHarness(t, channel.ProbeInvalidCredential)
	h.host.Put("https://example.com/a", "A", "<html></html>")

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	require.Equal(t, StateInvalidCredential, machineOf(model).State)

	// The focus command starts the cursor blinking; leave it unrun.
	model, _ = model.Update(runes(","))
	m := machineOf(model)
	require.Equal(t, StateSettings, m.State)
	require.Equal(t, StateInvalidCredential, m.Previous)

	// A blank token is refused before reaching the background.
	model, _ = press(t, model, enter)
	require.Equal(t, StateSettings, machineOf(model).State)
	require.Contains(t, model.View(), "トークンを入力してください")

	for _, r := range "tok-q" {
		model, _ = model.Update(runes(string(r)))
	}
	require.Equal(t, StateSettings, machineOf(model).State, "typing q must not quit")

	model, _ = press(t, model, enter)
	require.Equal(t, StateReady, machineOf(model).State)
	require.Equal(t,
		[]channel.Action{
			channel.ActionCheckCredential,
			channel.ActionSetCredential,
			channel.ActionCheckCredential,
		},
		h.bg.actions())

	h.bg.mu.Lock()
	require.Equal(t, channel.SetCredential{Token: "tok-q"}, h.bg.requests[1])
	h.bg.mu.Unlock()
}

func TestPopupSettingsClearsToken(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	model, _ = model.Update(runes(","))
	model, _ = press(t, model, tea.KeyMsg{Type: tea.KeyCtrlX})
	require.Equal(t, StateNoCredential, machineOf(model).State)
}

func TestPopupSettingsCancel(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	model, _ = model.Update(runes(","))
	model, _ = press(t, model, esc)
	require.Equal(t, StateReady, machineOf(model).State)
	require.Equal(t, []channel.Action{channel.ActionCheckCredential}, h.bg.actions())
}

func TestPopupUnreachable(t *testing.T) {
	h := newHarness(t, channel.ProbeUnreachable)

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	m := machineOf(model)
	require.Equal(t, StateError, m.State)
	require.Equal(t, Unreachable, m.Message)

	h.bg.mu.Lock()
	h.bg.probe = channel.ProbeOK
	h.bg.mu.Unlock()
	model, _ = press(t, model, runes("r"))
	require.Equal(t, StateReady, machineOf(model).State)
}

func TestConfirmSends(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)
	saved := result.Succeeded(false)
	h.bg.save = channel.Response{Success: true, Result: &saved}

	c := NewConfirmModel(article.Pending{URL: "https://example.com/a", Title: "A"}, h.opts)
	model, _ := drain(t, c, c.Init())
	require.Equal(t, StateConfirming, machineOf(model).State)
	require.Contains(t, model.View(), "送信しますか")

	model, _ = press(t, model, enter)
	m := machineOf(model)
	require.Equal(t, StateSuccess, m.State)
	require.Nil(t, m.Pending)
	require.Equal(t, "「A」をCuraQに保存しました", m.Message)

	h.bg.mu.Lock()
	require.Equal(t,
		[]channel.Request{channel.SendArticleURL{URL: "https://example.com/a", Title: "A"}},
		h.bg.requests)
	h.bg.mu.Unlock()
}

func TestConfirmRetry(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)
	h.bg.save = channel.Response{Error: "ネットワークエラーが発生しました"}

	c := NewConfirmModel(article.Pending{URL: "https://example.com/a"}, h.opts)
	model, _ := press(t, c, enter)
	m := machineOf(model)
	require.Equal(t, StateError, m.State)
	require.Equal(t, "ネットワークエラーが発生しました", m.Message)

	model, _ = press(t, model, runes("r"))
	m = machineOf(model)
	require.Equal(t, StateConfirming, m.State)
	require.Equal(t, "https://example.com/a", m.Pending.URL)
}

func TestConfirmMissingURL(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)

	c := NewConfirmModel(article.Pending{}, h.opts)
	m := c.Machine()
	require.Equal(t, StateError, m.State)
	require.Equal(t, MissingURL, m.Message)
	require.Contains(t, c.View(), MissingURL)

	// Nothing to send, so retry stays put.
	model, _ := press(t, c, runes("r"))
	require.Equal(t, StateError, machineOf(model).State)
	require.Empty(t, h.bg.actions())
}

func TestConfirmCancel(t *testing.T) {
	h := newHarness(t, channel.ProbeOK)

	c := NewConfirmModel(article.Pending{URL: "https://example.com/a"}, h.opts)
	_, quit := press(t, c, esc)
	require.True(t, quit)
	require.Empty(t, h.bg.actions())
}

func TestOpenFailureShowsError(t *testing.T) {
	h := newHarness(t, channel.ProbeNoCredential)
	h.opts.Host = fetch.NewWithOpener(func(context.Context, string) error {
		return errors.New("no browser")
	})

	p := NewPopupModel(h.opts)
	model, _ := drain(t, p, p.Init())
	model, quit := press(t, model, runes("l"))
	require.False(t, quit)
	m := machineOf(model)
	require.Equal(t, StateError, m.State)
	require.Equal(t, "no browser", m.Message)
}

func TestTruncateString(t *testing.T) {
	require.Equal(t, "short", truncateString("short", 10))
	require.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
	// Wide runes count twice.
	require.Equal(t, "記事...", truncateString("記事のタイトル", 8))
}
