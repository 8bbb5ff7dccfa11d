// Package contentscript is the page-resident half of article capture. A
// script is installed per tab and answers ExtractContent requests for that
// tab's page.
package contentscript

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/irfansharif/curaq/pkg/browser"
	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/extractor"
	"github.com/irfansharif/curaq/pkg/logging"
)

// ErrNotCapturable is returned by Inject for tabs a script cannot run in.
var ErrNotCapturable = errors.New("contentscript: page cannot be scripted")

// Injector installs content scripts into tabs.
type Injector struct {
	bus       *channel.Bus
	host      browser.Host
	extractor *extractor.Extractor
	logger    logrus.FieldLogger
}

func NewInjector(bus *channel.Bus, host browser.Host, ex *extractor.Extractor, logger logrus.FieldLogger) *Injector {
	return &Injector{
		bus:       bus,
		host:      host,
		extractor: ex,
		logger:    logging.Component(logger, "contentscript"),
	}
}

// Inject makes a script resident in tab id, replacing any earlier one.
func (i *Injector) Inject(ctx context.Context, id int) error {
	tab, err := i.host.Tab(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotCapturable, err)
	}
	if !browser.Capturable(tab.URL) {
		return fmt.Errorf("%w: %s", ErrNotCapturable, tab.URL)
	}

	s := &script{tabID: id, host: i.host, extractor: i.extractor, logger: i.logger.WithField("tab", id)}
	mux := channel.NewMux(channel.Tab(id)).Handle(channel.ActionExtractContent, s.extract)
	i.bus.Listen(channel.Tab(id), mux.Serve)
	i.logger.WithFields(logrus.Fields{"tab": id, "url": tab.URL}).Debug("injected")
	return nil
}

type script struct {
	tabID     int
	host      browser.Host
	extractor *extractor.Extractor
	logger    logrus.FieldLogger
}

// extract reads the page as it is now, so a tab that navigated since
// injection is captured at its current location.
func (s *script) extract(ctx context.Context, _ channel.Request) channel.Response {
	tab, err := s.host.Tab(ctx, s.tabID)
	if err != nil {
		return channel.Failure("%v", err)
	}
	src, err := s.host.Source(ctx, s.tabID)
	if err != nil {
		return channel.Failure("reading page: %v", err)
	}

	captured, err := s.extractor.Extract(extractor.Document{URL: tab.URL, Title: tab.Title, HTML: src})
	if err != nil {
		var extractErr *extractor.Error
		if errors.As(err, &extractErr) {
			s.logger.WithField("reason", extractErr.Reason).Info("extraction failed")
			return channel.Response{Error: extractErr.Reason}
		}
		return channel.Failure("%v", err)
	}
	s.logger.WithFields(logrus.Fields{"title": captured.Title, "bytes": len(captured.Markup)}).Debug("extracted")
	return channel.Response{Success: true, Data: captured}
}
