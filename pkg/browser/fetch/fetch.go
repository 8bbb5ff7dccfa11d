// Package fetch is a browser host without a browser: pages are fetched with
// colly and held as tabs in memory.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly"

	"github.com/irfansharif/curaq/pkg/browser"
)

const (
	userAgent      = "Mozilla/5.0 (compatible; curaq/1.0; +https://curaq.app)"
	maxBodySize    = 5 * 1024 * 1024
	requestTimeout = 30 * time.Second
)

type page struct {
	tab  browser.Tab
	html string
}

// Host is an in-memory browser.Host. Load adds fetched pages as tabs, the
// most recently added one being active.
type Host struct {
	opener func(ctx context.Context, url string) error

	mu     sync.Mutex
	nextID int
	active int
	pages  map[int]*page
	opened []string
}

var _ browser.Host = (*Host)(nil)

// New returns a Host that hands opened URLs to the system browser.
func New() *Host {
	return NewWithOpener(systemOpen)
}

// NewWithOpener returns a Host that calls open for every Open; open may be
// nil, in which case URLs are only recorded.
func NewWithOpener(open func(ctx context.Context, url string) error) *Host {
	return &Host{opener: open, nextID: 1, pages: make(map[int]*page)}
}

// Load fetches url and registers the page as the active tab.
func (h *Host) Load(ctx context.Context, url string) (browser.Tab, error) {
	if err := ctx.Err(); err != nil {
		return browser.Tab{}, err
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxBodySize(maxBodySize),
		colly.Async(false),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(requestTimeout)
	c.WithTransport(ctxTransport{ctx: ctx, next: http.DefaultTransport})

	var finalURL, title, body string
	c.OnResponse(func(r *colly.Response) {
		finalURL = r.Request.URL.String()
		body = string(r.Body)
	})
	c.OnHTML("head title", func(e *colly.HTMLElement) {
		if title == "" {
			title = strings.TrimSpace(e.Text)
		}
	})

	if err := c.Visit(url); err != nil {
		return browser.Tab{}, fmt.Errorf("fetching %s: %w", url, err)
	}
	if finalURL == "" {
		finalURL = url
	}
	return h.Put(finalURL, title, body), nil
}

// Put registers a page as the active tab without fetching it.
func (h *Host) Put(url, title, html string) browser.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()
	tab := browser.Tab{ID: h.nextID, URL: url, Title: title}
	h.pages[tab.ID] = &page{tab: tab, html: html}
	h.active = tab.ID
	h.nextID++
	return tab
}

func (h *Host) Tab(_ context.Context, id int) (browser.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pages[id]
	if !ok {
		return browser.Tab{}, browser.NoTabError(id)
	}
	return p.tab, nil
}

func (h *Host) Active(_ context.Context) (browser.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pages[h.active]
	if !ok {
		return browser.Tab{}, errors.New("fetch: no page loaded")
	}
	return p.tab, nil
}

func (h *Host) Source(_ context.Context, id int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.pages[id]
	if !ok {
		return "", browser.NoTabError(id)
	}
	return p.html, nil
}

func (h *Host) Open(ctx context.Context, url string) error {
	h.mu.Lock()
	h.opened = append(h.opened, url)
	h.mu.Unlock()
	if h.opener == nil {
		return nil
	}
	return h.opener(ctx, url)
}

// Opened returns every URL passed to Open, oldest first.
func (h *Host) Opened() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.opened...)
}

func systemOpen(ctx context.Context, url string) error {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	if err := exec.CommandContext(ctx, name, url).Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, url, err)
	}
	return nil
}

// ctxTransport ties colly's requests to the caller's context.
type ctxTransport struct {
	ctx  context.Context
	next http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.next.RoundTrip(req.WithContext(t.ctx))
}
