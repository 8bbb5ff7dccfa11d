package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/irfansharif/curaq/pkg/browser"
	"github.com/irfansharif/curaq/pkg/channel"
)

// Options wires a surface to the rest of curaq.
type Options struct {
	// Bus carries requests to the background coordinator.
	Bus *channel.Bus
	// Host opens the service's pages.
	Host browser.Host
	// Base is the service root, e.g. https://curaq.app.
	Base    string
	Context context.Context
}

// Messages shared by the surfaces.
type (
	responseMsg struct {
		action channel.Action
		resp   channel.Response
		err    error
	}
	openedMsg struct {
		err  error
		quit bool
	}
)

// surface holds what the popup and the confirmation page have in common.
type surface struct {
	machine Machine
	opts    Options
	keys    KeyMap
	styles  Styles
	spinner spinner.Model
	width   int
	height  int
}

func newSurface(m Machine, opts Options) surface {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	opts.Base = strings.TrimRight(opts.Base, "/")
	styles := DefaultStyles()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return surface{
		machine: m,
		opts:    opts,
		keys:    DefaultKeyMap(),
		styles:  styles,
		spinner: s,
	}
}

// Machine returns the surface's current state.
func (s surface) Machine() Machine { return s.machine }

// request sends req to the background.
func (s surface) request(req channel.Request) tea.Cmd {
	return func() tea.Msg {
		resp, err := s.opts.Bus.Send(s.opts.Context, channel.Background, req)
		return responseMsg{action: req.Action(), resp: resp, err: err}
	}
}

// open opens one of the service's pages, optionally quitting afterwards.
func (s surface) open(path string, quit bool) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: s.opts.Host.Open(s.opts.Context, s.opts.Base+path), quit: quit}
	}
}

// update handles the messages both surfaces treat alike. handled is false
// for everything else.
func (s *surface) update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		return nil, true
	case spinner.TickMsg:
		s.spinner, cmd = s.spinner.Update(msg)
		return cmd, true
	case openedMsg:
		if msg.err != nil {
			s.machine = s.machine.Failed(msg.err.Error())
			return nil, true
		}
		if msg.quit {
			return tea.Quit, true
		}
		return nil, true
	}
	return nil, false
}

// layout renders body with the header and, pushed to the bottom, the help
// for the current state.
func (s surface) layout(body string) string {
	var sb strings.Builder
	sb.WriteString(s.styles.Header.Render("CuraQ"))
	sb.WriteString("\n")
	sb.WriteString(body)

	help := renderHelp(s.keys.helpFor(s.machine.State, s.machine.confirmation), s.styles)

	// Push the footer to the bottom by filling the remaining space.
	content := sb.String()
	contentHeight := strings.Count(content, "\n") + 1
	appPaddingV := 2 // Top + bottom padding from App style
	footerLines := 2 // Help text and its margin
	remaining := s.height - contentHeight - appPaddingV - footerLines
	if remaining > 0 {
		sb.WriteString(strings.Repeat("\n", remaining))
	}
	sb.WriteString("\n")
	sb.WriteString(s.styles.Footer.Render(help))

	return s.styles.App.Render(sb.String())
}

// renderStatus renders the success and error states and the in-flight
// spinner; it returns "" for any other state.
func (s surface) renderStatus(busyLabel string) string {
	switch {
	case s.machine.Busy:
		return s.spinner.View() + " " + busyLabel
	case s.machine.State == StateSuccess:
		return s.styles.Success.Render("✓ " + s.machine.Message)
	case s.machine.State == StateError:
		return s.styles.Error.Render(s.machine.Message)
	}
	return ""
}

func (s surface) renderArticle(title, url string) string {
	width := s.width - 4
	if width <= 0 {
		width = 60
	}
	if title == "" {
		title = "(タイトルなし)"
	}
	return s.styles.ArticleTitle.Render(truncateString(title, width)) + "\n" +
		s.styles.ArticleURL.Render(truncateString(url, width))
}

func renderHelp(bindings []key.Binding, styles Styles) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s %s", styles.Key.Render("["+h.Key+"]"), h.Desc))
	}
	return strings.Join(parts, "  ")
}

// truncateString truncates a string to the given display width, adding
// ellipsis if needed.
func truncateString(s string, width int) string {
	if width <= 3 || lipgloss.Width(s) <= width {
		return s
	}
	var sb strings.Builder
	used := 0
	for _, r := range s {
		w := lipgloss.Width(string(r))
		if used+w > width-3 {
			break
		}
		sb.WriteRune(r)
		used += w
	}
	return sb.String() + "..."
}
