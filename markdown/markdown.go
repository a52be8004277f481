// Package markdown renders entry bodies to HTML and vets URLs taken from
// entry data.
package markdown

import (
	"bytes"
	"html"
	"io"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// engine is safe for concurrent use. Raw HTML in the source is dropped.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.TaskList),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// Render writes the HTML representation of md to w.
func Render(w io.Writer, md string) error {
	return engine.Convert([]byte(md), w)
}

// String renders md and returns the HTML, or the escaped source if
// conversion fails.
func String(md string) string {
	var buf bytes.Buffer
	if err := Render(&buf, md); err != nil {
		return "<p>" + html.EscapeString(md) + "</p>"
	}
	return buf.String()
}

// SafeURL returns raw trimmed if it is a relative path or an http, https,
// mailto or tel URL, and "" otherwise. The result is not escaped.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "//") {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return val
	default:
		return ""
	}
}
