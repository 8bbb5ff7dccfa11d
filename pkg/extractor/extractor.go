package extractor

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/irfansharif/curaq/pkg/article"
	"github.com/irfansharif/curaq/pkg/result"
)

// Document is a snapshot of the page a tab is showing.
type Document struct {
	URL   string
	Title string
	HTML  string
}

// Error is returned when no article could be captured. Reason is
// result.NoContent when the page has no readable content, otherwise the
// message of whatever went wrong.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction failed: %s", e.Reason)
}

// removedTags never make it into the markup.
var removedTags = []string{"script", "style", "noscript", "iframe", "frame", "frameset", "object", "embed"}

// Extractor turns page HTML into a Captured article.
type Extractor struct {
	// parse finds the main content; readability.FromDocument unless
	// overridden in tests.
	parse func(*html.Node, *url.URL) (readability.Article, error)
}

func New() *Extractor {
	return &Extractor{parse: readability.FromDocument}
}

// Extract captures the article in doc. The HTML is parsed into a fresh
// tree, so the caller's copy of the page is never touched.
func (e *Extractor) Extract(doc Document) (captured *article.Captured, err error) {
	defer func() {
		if r := recover(); r != nil {
			captured = nil
			err = &Error{Reason: fmt.Sprint(r)}
		}
	}()

	pageURL, err := url.Parse(doc.URL)
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("invalid URL: %v", err)}
	}
	root, err := html.Parse(strings.NewReader(doc.HTML))
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("parsing HTML: %v", err)}
	}

	// Read <title> before readability rewrites the tree.
	pageTitle := htmlTitle(root)

	parsed, err := e.parse(root, pageURL)
	if err != nil {
		return nil, &Error{Reason: err.Error()}
	}
	if strings.TrimSpace(parsed.Content) == "" || strings.TrimSpace(parsed.TextContent) == "" {
		return nil, &Error{Reason: result.NoContent}
	}

	markup, err := newConverter().ConvertString(parsed.Content)
	if err != nil {
		return nil, &Error{Reason: fmt.Sprintf("converting to markdown: %v", err)}
	}

	return &article.Captured{
		Title:     firstNonEmpty(parsed.Title, doc.Title, pageTitle, extractTitleFromURL(doc.URL)),
		URL:       doc.URL,
		Markup:    strings.TrimSpace(markup),
		PlainText: strings.TrimSpace(parsed.TextContent),
		Excerpt:   strings.TrimSpace(parsed.Excerpt),
		Byline:    strings.TrimSpace(parsed.Byline),
		SiteName:  strings.TrimSpace(parsed.SiteName),
	}, nil
}

func newConverter() *md.Converter {
	conv := md.NewConverter("", true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
		EmDelimiter:    "*",
	})
	conv.AddRules(md.Rule{
		Filter: []string{"del", "s", "strike"},
		Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String("~~" + content + "~~")
		},
	})
	conv.Remove(removedTags...)
	return conv
}

// htmlTitle returns the document's <title> text.
func htmlTitle(root *html.Node) string {
	doc := goquery.NewDocumentFromNode(root)
	return strings.TrimSpace(doc.Find("head title").First().Text())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// extractTitleFromURL generates a title from the URL path.
func extractTitleFromURL(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return "Untitled"
	}

	path := strings.Trim(parsed.Path, "/")
	segments := strings.Split(path, "/")
	if len(segments) > 0 {
		last := segments[len(segments)-1]
		last = strings.ReplaceAll(last, "-", " ")
		last = strings.ReplaceAll(last, "_", " ")
		if idx := strings.LastIndex(last, "."); idx > 0 {
			last = last[:idx]
		}
		if last != "" {
			return titleCase(last)
		}
	}

	if parsed.Host != "" {
		return parsed.Host
	}
	return "Untitled"
}

var wordStartRe = regexp.MustCompile(`\b\w`)

// titleCase capitalizes the first letter of each word.
func titleCase(s string) string {
	return wordStartRe.ReplaceAllStringFunc(s, func(match string) string {
		runes := []rune(match)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	})
}
