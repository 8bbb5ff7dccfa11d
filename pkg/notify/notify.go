// Package notify tells the user how a save went.
package notify

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfansharif/curaq/pkg/logging"
)

const userAgent = "curaq/1.0"

// Notification is a one-off message to the user.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (n Notification) String() string {
	return fmt.Sprintf("%s: %s", n.Title, n.Message)
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

const desktopScript = `
function run(argv) {
    var app = Application.currentApplication();
    app.includeStandardAdditions = true;
    app.displayNotification(argv[1], {withTitle: argv[0]});
}
`

// Desktop shows macOS notification banners.
type Desktop struct {
	run func(ctx context.Context, name string, args ...string) error
}

func NewDesktop() *Desktop {
	return &Desktop{run: func(ctx context.Context, name string, args ...string) error {
		return exec.CommandContext(ctx, name, args...).Run()
	}}
}

func (d *Desktop) Notify(ctx context.Context, n Notification) error {
	if err := d.run(ctx, "osascript", "-l", "JavaScript", "-e", desktopScript, n.Title, n.Message); err != nil {
		return fmt.Errorf("display notification: %w", err)
	}
	return nil
}

// Ntfy publishes notifications to an ntfy topic URL.
type Ntfy struct {
	endpoint string
	client   *http.Client
}

func NewNtfy(topic string) *Ntfy {
	return &Ntfy{
		endpoint: strings.TrimSpace(topic),
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *Ntfy) Notify(ctx context.Context, note Notification) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(note.Message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Tags", "curaq")
	if note.Title != "" {
		// Header values are ASCII; ntfy decodes RFC 2047 words.
		req.Header.Set("Title", mime.BEncoding.Encode("UTF-8", note.Title))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Log writes notifications to a logger.
type Log struct {
	logger logrus.FieldLogger
}

func NewLog(logger logrus.FieldLogger) *Log {
	return &Log{logger: logging.Component(logger, "notify")}
}

func (l *Log) Notify(_ context.Context, n Notification) error {
	l.logger.WithField("title", n.Title).Info(n.Message)
	return nil
}

// Recorder keeps every notification it is given.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *Recorder) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

// Sent returns the recorded notifications, oldest first.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}
