// Package client talks to the CuraQ articles API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/logging"
	"github.com/irfansharif/curaq/pkg/result"
)

const (
	articlesPath = "/api/v1/articles"
	userAgent    = "curaq/1.0"
	// maxBodySize bounds how much of a response is read for classification.
	maxBodySize = 1 << 20
)

// Doer issues HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client submits articles on behalf of the stored credential.
type Client struct {
	base   string
	http   Doer
	logger logrus.FieldLogger
}

// New returns a Client for the service at base (e.g. https://curaq.app).
// A nil doer gets an *http.Client that does not follow redirects and
// applies no timeout; the service reports its own fetch timeouts.
func New(base string, doer Doer, logger logrus.FieldLogger) *Client {
	if doer == nil {
		doer = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		http:   doer,
		logger: logging.Component(logger, "client"),
	}
}

// Base returns the service root.
func (c *Client) Base() string { return c.base }

// ShareURL is the page that takes over a save when there is no credential.
func (c *Client) ShareURL(pageURL, title string) string {
	return c.base + "/share?url=" + url.QueryEscape(pageURL) + "&title=" + url.QueryEscape(title)
}

// LoginURL is the service's sign-in page.
func (c *Client) LoginURL() string { return c.base + "/login" }

type saveBody struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Markdown string `json:"markdown,omitempty"`
}

// SaveFull submits a captured article with its content.
func (c *Client) SaveFull(ctx context.Context, token string, a *article.Captured) result.Result {
	return c.save(ctx, token, saveBody{URL: a.URL, Title: a.Title, Markdown: a.Markup})
}

// SaveURL submits a page by address only; the service fetches it itself.
func (c *Client) SaveURL(ctx context.Context, token string, p article.Pending) result.Result {
	return c.save(ctx, token, saveBody{URL: p.URL, Title: p.Title})
}

func (c *Client) save(ctx context.Context, token string, body saveBody) result.Result {
	payload, err := json.Marshal(body)
	if err != nil {
		return result.Unknown(err.Error())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+articlesPath, bytes.NewReader(payload))
	if err != nil {
		return result.Unknown(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log := c.logger.WithFields(logrus.Fields{"url": body.URL, "full": body.Markdown != ""})
	status, location, respBody, err := c.do(req, token)
	if err != nil {
		log.WithError(err).Warn("save request failed")
		return result.Failed(result.KindNetworkError, err.Error())
	}
	res := Classify(status, location, respBody)
	log.WithFields(logrus.Fields{"status": status, "result": res.String()}).Info("saved")
	return res
}

// Probe checks whether token is accepted. The outcome is Succeeded unless
// the service answers 401 or 403, or cannot be reached.
func (c *Client) Probe(ctx context.Context, token string) result.Result {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+articlesPath+"?limit=1", nil)
	if err != nil {
		return result.Unknown(err.Error())
	}
	req.Header.Set("Accept", "application/json")

	status, _, _, err := c.do(req, token)
	if err != nil {
		c.logger.WithError(err).Debug("probe failed")
		return result.Failed(result.KindNetworkError, err.Error())
	}
	switch status {
	case http.StatusUnauthorized:
		return result.Failed(result.KindInvalidCredential, "")
	case http.StatusForbidden:
		return result.Failed(result.KindPlanRequired, "")
	}
	return result.Succeeded(false)
}

func (c *Client) do(req *http.Request, token string) (status int, location string, body []byte, _ error) {
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", nil, err
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, "", nil, fmt.Errorf("reading response: %w", err)
	}
	return resp.StatusCode, resp.Header.Get("Location"), body, nil
}

type responseBody struct {
	Success  bool   `json:"success"`
	Restored bool   `json:"restored"`
	Error    string `json:"error"`
	Message  string `json:"message"`
}

var errorKinds = map[string]result.Kind{
	"unread-limit":    result.KindUnreadLimit,
	"limit-reached":   result.KindMonthlyLimit,
	"already-read":    result.KindAlreadyRead,
	"invalid-content": result.KindInvalidContent,
	"fetch-timeout":   result.KindRemoteFetchTimeout,
}

// Classify maps a response from the articles endpoint to a Result.
func Classify(status int, location string, body []byte) result.Result {
	switch {
	case status == http.StatusUnauthorized:
		return result.Failed(result.KindInvalidCredential, "")
	case status == http.StatusForbidden:
		return result.Failed(result.KindPlanRequired, "")
	case status >= 300 && status < 400:
		return classifyRedirect(location)
	}

	var parsed responseBody
	ok := json.Unmarshal(body, &parsed) == nil
	if ok && parsed.Error != "" {
		if kind, known := errorKinds[parsed.Error]; known {
			return result.Failed(kind, "")
		}
	}
	if ok && parsed.Success && status >= 200 && status < 300 {
		return result.Succeeded(parsed.Restored)
	}

	switch {
	case ok && parsed.Message != "":
		return result.Unknown(parsed.Message)
	case ok && parsed.Error != "":
		return result.Unknown(parsed.Error)
	}
	return result.Unknown(fmt.Sprintf("HTTP %d", status))
}

var errorParamRe = regexp.MustCompile(`error=([^&]+)`)

// classifyRedirect handles the redirect answers of the cookie-based share
// endpoint, which encodes the outcome in the Location query.
func classifyRedirect(location string) result.Result {
	switch {
	case strings.Contains(location, "saved=1"):
		return result.Succeeded(false)
	case strings.Contains(location, "restored=1"):
		return result.Succeeded(true)
	case strings.Contains(location, "already-read=1"):
		return result.Failed(result.KindAlreadyRead, "")
	}
	if m := errorParamRe.FindStringSubmatch(location); m != nil {
		code, err := url.QueryUnescape(m[1])
		if err != nil {
			code = m[1]
		}
		if kind, known := errorKinds[code]; known {
			return result.Failed(kind, "")
		}
		return result.Unknown(code)
	}
	return result.Succeeded(false)
}
