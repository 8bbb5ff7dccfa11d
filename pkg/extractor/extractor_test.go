package extractor

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/irfansharif/curaq/pkg/result"
)

const paragraph = `Readable articles have long paragraphs of prose, with commas, periods and enough words
that a content heuristic can tell them apart from navigation, footers and advertising blocks.`

var articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Page Title</title>
  <meta name="author" content="Jane Writer">
  <style>body { color: red; }</style>
  <script>alert("tracking");</script>
</head>
<body>
  <nav><a href="/">Home</a> <a href="/about">About</a></nav>
  <article>
    <h1>Test Article</h1>
    <p>` + paragraph + ` <em>Emphasis matters</em> and so does <del>removed text</del>.</p>
    <h2>Section Heading</h2>
    <p>` + paragraph + ` <s>struck</s> and <strike>older struck</strike>.</p>
    <pre><code>fmt.Println("hello")</code></pre>
    <p>` + paragraph + `</p>
    <p>` + paragraph + `</p>
    <iframe src="https://ads.example.com/frame"></iframe>
    <script>document.write("injected");</script>
  </article>
  <footer>Copyright</footer>
</body>
</html>`

func TestExtractArticle(t *testing.T) {
	doc := Document{URL: "https://example.com/posts/test-article", Title: "Tab Title", HTML: articleHTML}

	got, err := New().Extract(doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got.URL != doc.URL {
		t.Errorf("URL = %q, want %q", got.URL, doc.URL)
	}
	if got.Title == "" {
		t.Error("expected non-empty title")
	}
	if got.PlainText == "" {
		t.Error("expected plain text")
	}

	for _, want := range []string{
		"## Section Heading",
		"```",
		`fmt.Println("hello")`,
		"*Emphasis matters*",
		"~~removed text~~",
		"~~struck~~",
		"~~older struck~~",
	} {
		if !strings.Contains(got.Markup, want) {
			t.Errorf("markup missing %q:\n%s", want, got.Markup)
		}
	}
	for _, unwanted := range []string{"alert(", "document.write", "color: red", "ads.example.com"} {
		if strings.Contains(got.Markup, unwanted) {
			t.Errorf("markup contains %q:\n%s", unwanted, got.Markup)
		}
	}
}

func TestExtractDoesNotModifyInput(t *testing.T) {
	doc := Document{URL: "https://example.com/a", HTML: articleHTML}
	before := doc.HTML
	if _, err := New().Extract(doc); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.HTML != before {
		t.Fatal("Extract modified the document")
	}
}

func TestExtractNoContent(t *testing.T) {
	e := &Extractor{parse: func(*html.Node, *url.URL) (readability.Article, error) {
		return readability.Article{}, nil
	}}
	_, err := e.Extract(Document{URL: "https://example.com/", HTML: "<html><body></body></html>"})

	var extractErr *Error
	if !errors.As(err, &extractErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if extractErr.Reason != result.NoContent {
		t.Errorf("reason = %q, want %q", extractErr.Reason, result.NoContent)
	}
}

func TestExtractEmptyPageFails(t *testing.T) {
	_, err := New().Extract(Document{URL: "https://example.com/", HTML: "<html><head><title>x</title></head><body></body></html>"})
	var extractErr *Error
	if !errors.As(err, &extractErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
}

func TestExtractRecoversFromPanics(t *testing.T) {
	e := &Extractor{parse: func(*html.Node, *url.URL) (readability.Article, error) {
		panic("heuristic exploded")
	}}
	got, err := e.Extract(Document{URL: "https://example.com/", HTML: articleHTML})
	if got != nil {
		t.Errorf("expected no article, got %+v", got)
	}
	var extractErr *Error
	if !errors.As(err, &extractErr) || extractErr.Reason != "heuristic exploded" {
		t.Fatalf("err = %v, want heuristic message", err)
	}
}

func TestExtractParseError(t *testing.T) {
	e := &Extractor{parse: func(*html.Node, *url.URL) (readability.Article, error) {
		return readability.Article{}, errors.New("failed to parse document")
	}}
	_, err := e.Extract(Document{URL: "https://example.com/", HTML: articleHTML})
	var extractErr *Error
	if !errors.As(err, &extractErr) || extractErr.Reason != "failed to parse document" {
		t.Fatalf("err = %v", err)
	}
}

func TestTitleFallbacks(t *testing.T) {
	stub := func(title string) *Extractor {
		return &Extractor{parse: func(*html.Node, *url.URL) (readability.Article, error) {
			return readability.Article{Title: title, Content: "<p>body</p>", TextContent: "body"}, nil
		}}
	}
	page := "<html><head><title>Head Title</title></head><body><p>body</p></body></html>"

	for _, tc := range []struct {
		name, parsedTitle, tabTitle, html, url, want string
	}{
		{"heuristic", "Heuristic", "Tab", page, "https://example.com/a", "Heuristic"},
		{"tab", "", "Tab", page, "https://example.com/a", "Tab"},
		{"head", "", "", page, "https://example.com/a", "Head Title"},
		{"url", "", "", "<p>body</p>", "https://example.com/posts/my-first_post.html", "My First Post"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := stub(tc.parsedTitle).Extract(Document{URL: tc.url, Title: tc.tabTitle, HTML: tc.html})
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got.Title != tc.want {
				t.Errorf("title = %q, want %q", got.Title, tc.want)
			}
		})
	}
}
