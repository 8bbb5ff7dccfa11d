package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keybindings for the surfaces.
type KeyMap struct {
	// Actions
	Save      key.Binding
	Send      key.Binding
	Retry     key.Binding
	Login     key.Binding
	Dashboard key.Binding
	Settings  key.Binding

	// Settings
	ClearToken key.Binding

	// General
	Quit   key.Binding
	Cancel key.Binding
	Submit key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Save: key.NewBinding(
			key.WithKeys("enter", "s"),
			key.WithHelp("enter", "この記事を保存"),
		),
		Send: key.NewBinding(
			key.WithKeys("enter", "y"),
			key.WithHelp("enter", "送信"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "再試行"),
		),
		Login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "ログイン"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "CuraQを開く"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "設定"),
		),
		ClearToken: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "トークンを削除"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "閉じる"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "キャンセル"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "保存"),
		),
	}
}

// helpFor returns the bindings that apply in state s.
func (k KeyMap) helpFor(s State, confirmation bool) []key.Binding {
	switch s {
	case StateLoading:
		return []key.Binding{k.Quit}
	case StateNoCredential, StateInvalidCredential:
		return []key.Binding{k.Login, k.Settings, k.Quit}
	case StatePlanRequired:
		return []key.Binding{k.Dashboard, k.Settings, k.Quit}
	case StateReady:
		return []key.Binding{k.Save, k.Settings, k.Quit}
	case StateConfirming:
		return []key.Binding{k.Send, k.Cancel}
	case StateSuccess:
		return []key.Binding{k.Dashboard, k.Quit}
	case StateError:
		if confirmation {
			return []key.Binding{k.Retry, k.Quit}
		}
		return []key.Binding{k.Retry, k.Settings, k.Quit}
	case StateSettings:
		return []key.Binding{k.Submit, k.ClearToken, k.Cancel}
	}
	return nil
}
