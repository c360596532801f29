// Package render turns raw email bodies into safe output: sanitized HTML
// for browser previews, plain text for the terminal.
package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the allow-list applied to HTML bodies. Structural and text
// formatting elements, tables, anchors, and images survive; scripts,
// event handlers, and style injection never do.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"a", "b", "blockquote", "br", "caption", "center", "code", "div",
		"em", "font", "h1", "h2", "h3", "h4", "h5", "h6", "hr", "i", "img",
		"li", "ol", "p", "pre", "small", "span", "strike", "strong", "sub",
		"sup", "table", "tbody", "td", "tfoot", "th", "thead", "tr", "u",
		"ul",
	)

	// Layout and styling attributes only. Inline style survives the
	// allow-list but bluemonday still rejects style values that carry
	// injection vectors.
	p.AllowAttrs("align", "valign", "width", "height", "border",
		"cellpadding", "cellspacing", "bgcolor", "color", "class", "style").
		Globally()
	p.AllowAttrs("href", "title", "target").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowStyles("color", "background-color", "font-size", "font-family",
		"font-weight", "text-align", "text-decoration", "padding", "margin",
		"width", "height", "border", "line-height", "white-space").Globally()

	// Script-bearing schemes (javascript:, data:, vbscript:) are excluded
	// by construction.
	p.AllowURLSchemes("http", "https", "mailto", "tel", "cid")
	p.RequireParseableURLs(true)

	return p
}

// Render produces safe markup from a raw email body. Bodies containing
// both '<' and '>' are treated as HTML and sanitized against the
// allow-list; anything else is escaped and wrapped in a
// whitespace-preserving container. Empty input yields empty output.
// Render is deterministic and never panics; malformed markup degrades to
// its safely escaped text content.
func Render(body string) string {
	if body == "" {
		return ""
	}
	if strings.Contains(body, "<") && strings.Contains(body, ">") {
		return policy.Sanitize(body)
	}
	return `<pre style="white-space:pre-wrap">` +
		html.EscapeString(body) + `</pre>`
}

var blockBreaks = regexp.MustCompile(
	`(?i)<br\s*/?>|</(p|div|tr|li|h[1-6]|blockquote)>`,
)

// RenderText produces a terminal-displayable form of a raw body: tags are
// dropped (block-level closers become newlines), entities decoded, and
// runs of blank lines collapsed. Plain-text bodies pass through untouched.
func RenderText(body string) string {
	if !strings.Contains(body, "<") || !strings.Contains(body, ">") {
		return strings.TrimSpace(body)
	}

	text := blockBreaks.ReplaceAllString(body, "\n")

	var b strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	out := html.UnescapeString(b.String())

	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(out)
}
