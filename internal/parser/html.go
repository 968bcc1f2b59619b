package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/recipegest/internal/page"
	"golang.org/x/net/html"
)

// HTMLParser handles saved recipe web pages. The body is rendered into the
// same markdown-like text the OCR transcripts use: headings become "#" lines,
// list items become "- " lines and table rows become "| a | b |".
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]page.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var lines []string
	emit := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, s)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				emit(strings.Repeat("#", level) + " " + textContent(n))
				return
			}

			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "noscript":
				return
			case "li":
				if t := textContent(n); t != "" {
					emit("- " + t)
				}
				return
			case "tr":
				var cells []string
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
						cells = append(cells, textContent(c))
					}
				}
				if len(cells) > 0 {
					emit("| " + strings.Join(cells, " | ") + " |")
				}
				return
			case "p", "blockquote", "figcaption":
				emit(textContent(n))
				return
			case "img":
				if alt := attr(n, "alt"); alt != "" {
					emit("![" + alt + "](" + attr(n, "src") + ")")
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	body := findBody(doc)
	if body != nil {
		walk(body)
	} else {
		walk(doc)
	}

	text := strings.Join(lines, "\n")
	if !strings.Contains(text, "# ") {
		if title := findTitle(doc); title != "" {
			text = "# " + title + "\n" + text
		}
	}
	return single(filename, text), nil
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
