// Package saver is the background coordinator. It decides how a save runs
// given the credential state, drives extraction over the channel, submits
// the article and turns every attempt into exactly one result.
package saver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/browser"
	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/client"
	"github.com/irfansharif/curaq/pkg/credential"
	"github.com/irfansharif/curaq/pkg/logging"
	"github.com/irfansharif/curaq/pkg/notify"
	"github.com/irfansharif/curaq/pkg/result"
)

// DefaultSettle is how long to wait after injecting a content script
// before asking it for the page again.
const DefaultSettle = 300 * time.Millisecond

// ErrInFlight is returned by Save while another save for the same tab is
// running. No result is produced and nothing is notified.
var ErrInFlight = errors.New("saver: a save is already in progress for this tab")

// Request asks for the article in a tab to be saved. Confirm stops short of
// capturing and asks the user to confirm first.
type Request struct {
	TabID   int
	Confirm bool
}

// Outcome is the result of one request together with the notification it
// produced, if any.
type Outcome struct {
	Result       result.Result
	Notification *notify.Notification
}

// Injector makes a content script resident in a tab.
type Injector interface {
	Inject(ctx context.Context, tabID int) error
}

// Options configures a Saver.
type Options struct {
	Credentials *credential.Store
	Bus         *channel.Bus
	Host        browser.Host
	Injector    Injector
	Client      *client.Client
	Notifier    notify.Notifier
	// Settle defaults to DefaultSettle.
	Settle time.Duration
	Logger logrus.FieldLogger
}

type Saver struct {
	creds    *credential.Store
	bus      *channel.Bus
	host     browser.Host
	injector Injector
	client   *client.Client
	notifier notify.Notifier
	settle   time.Duration
	logger   logrus.FieldLogger

	// sleep waits out the settle delay; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	inflight map[int]struct{}
}

func New(opts Options) *Saver {
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Saver{
		creds:    opts.Credentials,
		bus:      opts.Bus,
		host:     opts.Host,
		injector: opts.Injector,
		client:   opts.Client,
		notifier: opts.Notifier,
		settle:   settle,
		logger:   logging.Component(opts.Logger, "saver"),
		sleep:    sleepCtx,
		inflight: make(map[int]struct{}),
	}
}

// Save runs one save attempt for a tab.
func (s *Saver) Save(ctx context.Context, req Request) (Outcome, error) {
	if !s.acquire(req.TabID) {
		return Outcome{}, ErrInFlight
	}
	defer s.release(req.TabID)

	log := s.logger.WithFields(logrus.Fields{"tab": req.TabID, "confirm": req.Confirm})

	token, ok, err := s.creds.Get(ctx)
	if err != nil {
		log.WithError(err).Error("reading credential")
		return s.finish(ctx, result.Unknown(err.Error()), ""), nil
	}

	tab, err := s.host.Tab(ctx, req.TabID)
	if err != nil {
		log.WithError(err).Info("tab not accessible")
		return s.finish(ctx, result.Failed(result.KindPageNotCapturable, err.Error()), ""), nil
	}

	if !ok {
		return s.handOff(ctx, tab.URL, tab.Title), nil
	}

	if req.Confirm {
		pending := article.Pending{URL: tab.URL, Title: tab.Title}
		log.WithField("url", tab.URL).Info("awaiting confirmation")
		return Outcome{Result: result.AwaitingConfirmation(pending)}, nil
	}

	captured, failure := s.capture(ctx, req.TabID)
	if failure != nil {
		log.WithField("result", failure.String()).Info("capture failed")
		return s.finish(ctx, *failure, tab.Title), nil
	}

	// A 401 here leaves the credential in place; only CheckCredential
	// clears it.
	res := s.client.SaveFull(ctx, token, captured)
	log.WithFields(logrus.Fields{"url": captured.URL, "result": res.String()}).Info("save finished")
	return s.finish(ctx, res, captured.Title), nil
}

// capture asks the tab's content script for the article, injecting it and
// retrying exactly once if none is resident.
func (s *Saver) capture(ctx context.Context, tabID int) (*article.Captured, *result.Result) {
	to := channel.Tab(tabID)
	resp, err := s.bus.Send(ctx, to, channel.ExtractContent{})
	if errors.Is(err, channel.ErrNoReceiver) {
		s.logger.WithField("tab", tabID).Debug("no content script, injecting")
		if err := s.injector.Inject(ctx, tabID); err != nil {
			return nil, failed(result.KindPageNotCapturable, err.Error())
		}
		if err := s.sleep(ctx, s.settle); err != nil {
			return nil, failed(result.KindPageNotCapturable, err.Error())
		}
		resp, err = s.bus.Send(ctx, to, channel.ExtractContent{})
	}
	if err != nil {
		return nil, failed(result.KindPageNotCapturable, err.Error())
	}
	if !resp.Success || resp.Data == nil {
		return nil, failed(result.KindExtractionFailed, resp.Error)
	}
	return resp.Data, nil
}

func failed(kind result.Kind, detail string) *result.Result {
	r := result.Failed(kind, detail)
	return &r
}

// SendURL transmits a confirmed article by address only.
func (s *Saver) SendURL(ctx context.Context, p article.Pending) (Outcome, error) {
	p.URL = strings.TrimSpace(p.URL)
	if p.URL == "" {
		return Outcome{}, errors.New("saver: pending article has no URL")
	}

	token, ok, err := s.creds.Get(ctx)
	if err != nil {
		return s.finish(ctx, result.Unknown(err.Error()), p.Title), nil
	}
	if !ok {
		return s.handOff(ctx, p.URL, p.Title), nil
	}

	res := s.client.SaveURL(ctx, token, p)
	s.logger.WithFields(logrus.Fields{"url": p.URL, "result": res.String()}).Info("confirmed send finished")
	return s.finish(ctx, res, p.DisplayTitle()), nil
}

func (s *Saver) handOff(ctx context.Context, pageURL, title string) Outcome {
	share := s.client.ShareURL(pageURL, title)
	if err := s.host.Open(ctx, share); err != nil {
		s.logger.WithError(err).Warn("opening share page")
		return s.finish(ctx, result.Unknown(err.Error()), title)
	}
	s.logger.WithField("url", share).Info("handed off")
	return s.finish(ctx, result.HandedOff(share), title)
}

// finish emits the notification for a terminal result.
func (s *Saver) finish(ctx context.Context, res result.Result, title string) Outcome {
	heading, message := result.Text(res, title)
	n := notify.Notification{Title: heading, Message: message}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.WithError(err).Warn("notification failed")
	}
	return Outcome{Result: res, Notification: &n}
}

// CheckCredential asks the service whether the stored credential is still
// accepted, forgetting it if the service says it is not.
func (s *Saver) CheckCredential(ctx context.Context) (channel.Probe, error) {
	token, ok, err := s.creds.Get(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return channel.ProbeNoCredential, nil
	}

	res := s.client.Probe(ctx, token)
	switch res.Kind {
	case result.KindInvalidCredential:
		if err := s.creds.Clear(ctx); err != nil {
			return "", err
		}
		s.logger.Info("credential rejected, cleared")
		return channel.ProbeInvalidCredential, nil
	case result.KindPlanRequired:
		return channel.ProbePlanRequired, nil
	case result.KindNetworkError:
		return channel.ProbeUnreachable, nil
	}
	return channel.ProbeOK, nil
}

func (s *Saver) SetCredential(ctx context.Context, token string) error {
	return s.creds.Set(ctx, token)
}

func (s *Saver) ClearCredential(ctx context.Context) error {
	return s.creds.Clear(ctx)
}

// Serve installs the saver as the background receiver on bus.
func (s *Saver) Serve(bus *channel.Bus) (stop func()) {
	mux := channel.NewMux(channel.Background).
		Handle(channel.ActionSaveArticle, func(ctx context.Context, req channel.Request) channel.Response {
			r := req.(channel.SaveArticle)
			out, err := s.Save(ctx, Request{TabID: r.TabID, Confirm: r.Confirm})
			if err != nil {
				return channel.Failure("%v", err)
			}
			return respond(out)
		}).
		Handle(channel.ActionSendArticleURL, func(ctx context.Context, req channel.Request) channel.Response {
			r := req.(channel.SendArticleURL)
			out, err := s.SendURL(ctx, article.Pending{URL: r.URL, Title: r.Title})
			if err != nil {
				return channel.Failure("%v", err)
			}
			return respond(out)
		}).
		Handle(channel.ActionCheckCredential, func(ctx context.Context, _ channel.Request) channel.Response {
			probe, err := s.CheckCredential(ctx)
			if err != nil {
				return channel.Failure("%v", err)
			}
			return channel.Response{Success: probe == channel.ProbeOK, Probe: probe}
		}).
		Handle(channel.ActionSetCredential, func(ctx context.Context, req channel.Request) channel.Response {
			if err := s.SetCredential(ctx, req.(channel.SetCredential).Token); err != nil {
				if errors.Is(err, credential.ErrEmpty) {
					return channel.Failure("トークンを入力してください")
				}
				return channel.Failure("%v", err)
			}
			return channel.Response{Success: true}
		}).
		Handle(channel.ActionClearCredential, func(ctx context.Context, _ channel.Request) channel.Response {
			if err := s.ClearCredential(ctx); err != nil {
				return channel.Failure("%v", err)
			}
			return channel.Response{Success: true}
		})
	return bus.Listen(channel.Background, mux.Serve)
}

// respond is the channel form of an Outcome: any result other than a
// failure counts as success.
func respond(out Outcome) channel.Response {
	res := out.Result
	resp := channel.Response{Success: res.Status != result.StatusFailed, Result: &res}
	if !resp.Success && out.Notification != nil {
		resp.Error = out.Notification.Message
	}
	return resp
}

func (s *Saver) acquire(tabID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[tabID]; busy {
		return false
	}
	s.inflight[tabID] = struct{}{}
	return true
}

func (s *Saver) release(tabID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, tabID)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for content script: %w", ctx.Err())
	}
}
