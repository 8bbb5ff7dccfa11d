package contentscript

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/irfansharif/curaq/pkg/browser/fetch"
	"github.com/irfansharif/curaq/pkg/channel"
	"github.com/irfansharif/curaq/pkg/extractor"
	"github.com/irfansharif/curaq/pkg/logging"
	"github.com/irfansharif/curaq/pkg/result"
)

const prose = `<p>Long form writing has paragraphs of prose, with commas, periods and plenty of words,
so that the content heuristic recognises it as the main body of the page rather than chrome.</p>`

var articlePage = `<html><head><title>Field Notes</title></head><body><article><h1>Field Notes</h1>` +
	strings.Repeat(prose, 5) + `</article></body></html>`

func setup() (*channel.Bus, *fetch.Host, *Injector) {
	logger := logging.NewNop()
	bus := channel.NewBus(logger)
	host := fetch.NewWithOpener(nil)
	return bus, host, NewInjector(bus, host, extractor.New(), logger)
}

func TestInjectAnswersExtractContent(t *testing.T) {
	bus, host, injector := setup()
	ctx := context.Background()
	tab := host.Put("https://example.com/notes", "Field Notes", articlePage)

	if _, err := bus.Send(ctx, channel.Tab(tab.ID), channel.ExtractContent{}); !errors.Is(err, channel.ErrNoReceiver) {
		t.Fatalf("before injection: err = %v", err)
	}
	if err := injector.Inject(ctx, tab.ID); err != nil {
		t.Fatalf("Inject: %v", err)
	}

	resp, err := bus.Send(ctx, channel.Tab(tab.ID), channel.ExtractContent{})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Data.URL != "https://example.com/notes" || resp.Data.Title == "" {
		t.Errorf("captured = %+v", resp.Data)
	}
	if !strings.Contains(resp.Data.Markup, "Long form writing") {
		t.Errorf("markup = %q", resp.Data.Markup)
	}
}

func TestInjectRefusesInternalPages(t *testing.T) {
	bus, host, injector := setup()
	ctx := context.Background()
	tab := host.Put("about:blank", "", "")

	if err := injector.Inject(ctx, tab.ID); !errors.Is(err, ErrNotCapturable) {
		t.Fatalf("err = %v, want ErrNotCapturable", err)
	}
	if bus.Resident(channel.Tab(tab.ID)) {
		t.Fatal("script resident in internal page")
	}
	if err := injector.Inject(ctx, 404); !errors.Is(err, ErrNotCapturable) {
		t.Fatalf("unknown tab: err = %v", err)
	}
}

func TestExtractReportsFailure(t *testing.T) {
	bus, host, injector := setup()
	ctx := context.Background()
	tab := host.Put("https://example.com/empty", "Empty", "<html><body></body></html>")
	if err := injector.Inject(ctx, tab.ID); err != nil {
		t.Fatal(err)
	}

	resp, err := bus.Send(ctx, channel.Tab(tab.ID), channel.ExtractContent{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error == "" {
		t.Fatalf("resp = %+v", resp)
	}
	if msg := result.Message(result.KindExtractionFailed, resp.Error); !strings.Contains(msg, "抽出") {
		t.Errorf("message = %q", msg)
	}
}

func TestScriptOnlyHandlesExtraction(t *testing.T) {
	bus, host, injector := setup()
	ctx := context.Background()
	tab := host.Put("https://example.com/notes", "Field Notes", articlePage)
	if err := injector.Inject(ctx, tab.ID); err != nil {
		t.Fatal(err)
	}
	resp, err := bus.Send(ctx, channel.Tab(tab.ID), channel.CheckCredential{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success || !strings.Contains(resp.Error, "does not handle") {
		t.Fatalf("resp = %+v", resp)
	}
}
