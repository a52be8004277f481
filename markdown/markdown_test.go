package markdown

import (
	"strings"
	"testing"
)

func TestRenderBasics(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"# Title", `<h1 id="title">Title</h1>`},
		{"- one\n- two", "<li>one</li>"},
		{"`code`", "<code>code</code>"},
		{"~~gone~~", "<del>gone</del>"},
		{"| a | b |\n|---|---|\n| 1 | 2 |", "<table>"},
	}
	for _, tt := range tests {
		got := String(tt.input)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("String(%q) = %q, want it to contain %q", tt.input, got, tt.contains)
		}
	}
}

func TestRenderDropsRawHTML(t *testing.T) {
	got := String("hello <script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw html leaked: %q", got)
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"/uploads/a.jpg", "/uploads/a.jpg"},
		{"https://example.com/?a=1&b=2", "https://example.com/?a=1&b=2"},
		{"  https://example.com/x  ", "https://example.com/x"},
		{"//evil.example/x.js", ""},
		{"JavaScript:alert(1)", ""},
		{"data:text/html;base64,xyz", ""},
		{"javascript:alert(1)", ""},
		{"mailto:me@example.com", "mailto:me@example.com"},
		{"no-scheme", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.want {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
