// Package safari drives Safari through JXA (JavaScript for Automation).
package safari

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/irfansharif/curaq/pkg/browser"
)

// Safari tabs carry no stable identifier, so ids are derived from position:
// (window index + 1) * tabsPerWindow + tab index. An id stays valid for as
// long as windows and tabs are not reordered.
const tabsPerWindow = 1000

const listScript = `
function run(argv) {
    var safari = Application("Safari");
    var tabs = [];
    for (var w = 0; w < safari.windows.length; w++) {
        var win = safari.windows[w];
        var current = -1;
        try { current = win.currentTab.index() - 1; } catch (e) {}
        for (var t = 0; t < win.tabs.length; t++) {
            var tab = win.tabs[t];
            tabs.push({
                id: (w + 1) * 1000 + t,
                url: tab.url() || "",
                title: tab.name() || "",
                active: w === 0 && t === current
            });
        }
    }
    return JSON.stringify(tabs);
}
`

const sourceScript = `
function run(argv) {
    var id = parseInt(argv[0], 10);
    var safari = Application("Safari");
    var tab = safari.windows[Math.floor(id / 1000) - 1].tabs[id % 1000];
    return safari.doJavaScript("document.documentElement.outerHTML", {in: tab});
}
`

// Runner executes a command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Host is a browser.Host for the local Safari.
type Host struct {
	run Runner
}

var _ browser.Host = (*Host)(nil)

func New() *Host {
	return &Host{run: execRunner}
}

// NewWithRunner returns a Host that runs commands through run.
func NewWithRunner(run Runner) *Host {
	return &Host{run: run}
}

type rawTab struct {
	ID     int    `json:"id"`
	URL    string `json:"url"`
	Title  string `json:"title"`
	Active bool   `json:"active"`
}

// tabs uses osascript to list open Safari tabs. This works without any
// special permissions beyond Automation.
func (h *Host) tabs(ctx context.Context) ([]rawTab, error) {
	out, err := h.osascript(ctx, listScript)
	if err != nil {
		return nil, err
	}
	var raw []rawTab
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parsing JXA output: %w", err)
	}
	return raw, nil
}

func (h *Host) Tab(ctx context.Context, id int) (browser.Tab, error) {
	raw, err := h.tabs(ctx)
	if err != nil {
		return browser.Tab{}, err
	}
	for _, r := range raw {
		if r.ID == id {
			return browser.Tab{ID: r.ID, URL: r.URL, Title: r.Title}, nil
		}
	}
	return browser.Tab{}, browser.NoTabError(id)
}

func (h *Host) Active(ctx context.Context) (browser.Tab, error) {
	raw, err := h.tabs(ctx)
	if err != nil {
		return browser.Tab{}, err
	}
	for _, r := range raw {
		if r.Active {
			return browser.Tab{ID: r.ID, URL: r.URL, Title: r.Title}, nil
		}
	}
	return browser.Tab{}, errors.New("safari: no active tab")
}

// Source asks the page for its markup. Safari must have "Allow JavaScript
// from Apple Events" enabled in the Develop menu.
func (h *Host) Source(ctx context.Context, id int) (string, error) {
	if id < tabsPerWindow {
		return "", browser.NoTabError(id)
	}
	out, err := h.osascript(ctx, sourceScript, strconv.Itoa(id))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (h *Host) Open(ctx context.Context, url string) error {
	if _, err := h.run(ctx, "open", "-a", "Safari", url); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	return nil
}

func (h *Host) osascript(ctx context.Context, script string, args ...string) ([]byte, error) {
	out, err := h.run(ctx, "osascript", append([]string{"-l", "JavaScript", "-e", script}, args...)...)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, stderrError(string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("osascript: %w", err)
	}
	return out, nil
}

func stderrError(stderr string) error {
	stderr = strings.TrimSpace(stderr)
	switch {
	case strings.Contains(stderr, "-1743"):
		return errors.New("automation permission required: allow your terminal to control Safari in System Settings > Privacy & Security > Automation")
	case strings.Contains(stderr, "JavaScript from Apple Events"):
		return errors.New("enable Develop > Allow JavaScript from Apple Events in Safari")
	default:
		return fmt.Errorf("osascript: %s", stderr)
	}
}
