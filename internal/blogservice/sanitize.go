package blogservice

import "github.com/microcosm-cc/bluemonday"

// newContentPolicy builds the sanitization policy applied to blog content before
// it is stored. The editor emits HTML, so executable content has to be stripped
// server-side; the UGC policy keeps formatting, links and images.
func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("p", "span", "blockquote", "pre")
	return p
}

func sanitizeContent(p *bluemonday.Policy, html string) string {
	return p.Sanitize(html)
}
