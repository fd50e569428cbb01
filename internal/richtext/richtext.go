// internal/richtext/richtext.go
//
// Rich-text sanitising and rendering.
//
// Context
// -------
// Rich fields (ingredients, method, notes) arrive from a WYSIWYG editor as
// HTML fragments or plain Markdown.  Sanitize runs on the write path so the
// store only ever holds cleaned markup.  It filters tags and attributes
// only: text between tags is kept byte for byte, so Markdown such as
// "> quote" or "Fish & chips" is stored as typed.  Render runs on the
// display path: Markdown → HTML through goldmark, with raw HTML passed
// through and then re-sanitized, so the stored form and the displayed form
// never mix.
//
// Notes
// -----
// • Both policies are bluemonday UGC policies; they are safe for concurrent
//   use once built.
// • Oxford commas, two spaces after periods.
package richtext

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
)

var (
	policy = bluemonday.UGCPolicy()

	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(), // editor HTML passes through; sanitized below
		),
	)
)

// dropContent lists elements removed together with everything inside them.
var dropContent = map[string]bool{
	"script":    true,
	"style":     true,
	"iframe":    true,
	"noscript":  true,
	"noembed":   true,
	"noframes":  true,
	"xmp":       true,
	"plaintext": true,
	"textarea":  true,
	"title":     true,
}

// Sanitize strips disallowed markup (scripts, event handlers, style
// attributes) and returns the cleaned source for storage.  Each tag is
// passed through the policy on its own; text tokens are copied raw.
// Comments and doctypes are dropped.
func Sanitize(raw string) string {
	z := xhtml.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	skip := "" // open dropContent element, if any

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			// "x<y" at the very end reads as an unterminated tag.
			if tail := z.Raw(); skip == "" && bareTag(tail) {
				b.Write(tail)
			}
			return strings.TrimSpace(b.String())
		}
		tok := string(z.Raw())

		switch tt {
		case xhtml.TextToken:
			if skip == "" {
				b.WriteString(tok)
			}
		case xhtml.StartTagToken:
			name, _ := z.TagName()
			switch {
			case skip != "":
			case dropContent[string(name)]:
				skip = string(name)
			default:
				b.WriteString(policy.Sanitize(tok))
			}
		case xhtml.EndTagToken:
			name, _ := z.TagName()
			if skip != "" {
				if string(name) == skip {
					skip = ""
				}
				continue
			}
			b.WriteString(policy.Sanitize(tok))
		case xhtml.SelfClosingTagToken:
			if skip == "" {
				b.WriteString(policy.Sanitize(tok))
			}
		}
	}
}

// Render converts stored markup to display HTML.  Empty input renders as
// an empty string.
func Render(stored string) template.HTML {
	if strings.TrimSpace(stored) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(stored), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(stored))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes()))
}

// bareTag reports whether b is "<" or "</" followed only by letters and
// digits, the leftover of an unterminated tag with no attributes.
func bareTag(b []byte) bool {
	if len(b) == 0 || b[0] != '<' {
		return false
	}
	b = bytes.TrimPrefix(b, []byte("</"))
	b = bytes.TrimPrefix(b, []byte("<"))
	if len(b) == 0 {
		return false
	}
	for _, c := range b {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
