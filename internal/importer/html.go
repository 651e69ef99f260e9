package importer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// HTMLImporter handles arbitrary HTML pages. Headings become paragraph
// levels, text containers become paragraphs and pre elements become code
// blocks. Inline formatting is kept as marks.
type HTMLImporter struct{}

func (p *HTMLImporter) Import(r io.Reader, filename string) (*Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	out := &Document{Title: title(filename)}
	if t := findTitle(doc); t != "" {
		out.Title = t
	}

	var b builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				b.paragraph(level, htmlInline(n)...)
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "p", "li", "td", "th", "blockquote", "dt", "dd", "figcaption":
				b.paragraph(0, htmlInline(n)...)
				return
			case "pre":
				b.code(codeLanguage(n), textContent(n))
				return
			case "hr":
				b.flush()
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	out.Blocks = b.finish()
	return out, nil
}

var inlineMarks = map[string]schema.MarkTag{
	"strong": schema.Bold,
	"b":      schema.Bold,
	"em":     schema.Italic,
	"i":      schema.Italic,
	"u":      schema.Underline,
	"s":      schema.Strike,
	"del":    schema.Strike,
	"strike": schema.Strike,
	"code":   schema.Code,
	"mark":   schema.Highlight,
}

func htmlInline(n *html.Node) []*doctree.Node {
	var in inline
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch c.Type {
			case html.TextNode:
				in.write(collapseSpace(c.Data))
			case html.ElementNode:
				if c.Data == "br" {
					in.write("\n")
					continue
				}
				if c.Data == "script" || c.Data == "style" {
					continue
				}
				m, ok := markFor(c)
				if ok {
					in.push(m)
				}
				walk(c)
				if ok {
					in.pop()
				}
			}
		}
	}
	walk(n)
	return in.trimmed()
}

func markFor(n *html.Node) (schema.Mark, bool) {
	if n.Data == "a" {
		href := attr(n, "href")
		return schema.Mark{Tag: schema.Link, Payload: href}, href != ""
	}
	tag, ok := inlineMarks[n.Data]
	return schema.Mark{Tag: tag}, ok
}

func codeLanguage(pre *html.Node) string {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "code" {
			continue
		}
		for _, class := range strings.Fields(attr(c, "class")) {
			if lang, ok := strings.CutPrefix(class, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}

func collapseSpace(s string) string {
	if s == "" {
		return s
	}
	out := strings.Join(strings.Fields(s), " ")
	if isSpace(s[0]) {
		out = " " + out
	}
	if isSpace(s[len(s)-1]) && out != " " {
		out += " "
	}
	return out
}

func isSpace(c byte) bool { return c == ' ' || c == '\n' || c == '\t' || c == '\r' }

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
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
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(textContent(n))
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
