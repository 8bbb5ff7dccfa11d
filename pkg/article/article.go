package article

// Captured is the readable content of one page, produced once per save
// attempt and never modified afterwards.
type Captured struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Markup    string `json:"markdown"`
	PlainText string `json:"textContent"`
	Excerpt   string `json:"excerpt"`
	Byline    string `json:"byline"`
	SiteName  string `json:"siteName"`
}

// Pending is an article waiting for the user to confirm transmission.
type Pending struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// DisplayTitle returns the title, or the URL when the page has none.
func (p Pending) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.URL
}
