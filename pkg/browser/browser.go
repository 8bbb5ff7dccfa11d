// Package browser describes the tabs curaq captures articles from.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Tab is a single browser tab.
type Tab struct {
	ID    int
	URL   string
	Title string
}

// ErrNoTab is returned for a tab id the host does not know about.
var ErrNoTab = errors.New("browser: no such tab")

// Host is the browser curaq drives.
type Host interface {
	// Tab returns the tab with the given id.
	Tab(ctx context.Context, id int) (Tab, error)
	// Active returns the tab the user is looking at.
	Active(ctx context.Context) (Tab, error)
	// Source returns the current HTML of a tab's page.
	Source(ctx context.Context, id int) (string, error)
	// Open opens url in a new tab.
	Open(ctx context.Context, url string) error
}

// Capturable reports whether a content script can run on a page. Browser
// internal pages, local files and data URLs are off limits.
func Capturable(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	default:
		return false
	}
}

// NoTabError wraps ErrNoTab with the id that was asked for.
func NoTabError(id int) error {
	return fmt.Errorf("%w: %d", ErrNoTab, id)
}
