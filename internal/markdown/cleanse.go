// Package markdown turns README markdown into plain text.
package markdown

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var renderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	// READMEs routinely embed raw HTML; keep it so its text survives.
	goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
)

var (
	nestedImageLink = regexp.MustCompile(`\[!\[.*?\]\(.*?\)\]\(.*?\)`)
	bareImageLink   = regexp.MustCompile(`\[!\[.*?\]\(.*?\)\]`)
)

// Cleanse renders markdown to HTML, keeps only the text content, and strips
// image-link syntax that the renderer left untouched (for example inside raw
// HTML blocks). Whitespace is not normalized.
func Cleanse(src string) string {
	var buf bytes.Buffer
	text := src
	if err := renderer.Convert([]byte(src), &buf); err == nil {
		text = ExtractText(buf.String())
	}
	text = nestedImageLink.ReplaceAllString(text, "")
	text = bareImageLink.ReplaceAllString(text, "")
	return text
}

// ExtractText returns the concatenated text nodes of an HTML fragment,
// skipping script and style bodies. Unparseable input is returned as is.
func ExtractText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}
