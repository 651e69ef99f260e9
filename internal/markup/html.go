package markup

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTML element and data-type names of the wire form.
const (
	typeTextBlock = "text-block"
	typeCodeBlock = "code-block-custom"
	typeAIBlock   = "ai-block"
)

var divTypes = map[string]string{
	"textBlock":       typeTextBlock,
	"codeBlockCustom": typeCodeBlock,
	"aiBlockReact":    typeAIBlock,
	typeTextBlock:     "textBlock",
	typeCodeBlock:     "codeBlockCustom",
	typeAIBlock:       "aiBlockReact",
}

var markElements = map[string]string{
	"bold":      "strong",
	"italic":    "em",
	"underline": "u",
	"strike":    "s",
	"highlight": "mark",
	"link":      "a",
	"code":      "code",
}

var elementMarks = map[string]string{
	"strong": "bold",
	"b":      "bold",
	"em":     "italic",
	"i":      "italic",
	"u":      "underline",
	"s":      "strike",
	"del":    "strike",
	"strike": "strike",
	"mark":   "highlight",
	"a":      "link",
	"code":   "code",
}

var textAlignStyle = regexp.MustCompile(`text-align:\s*(left|center|right|justify)`)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("div", "mark", "a", "p", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "code",
		"strong", "b", "em", "i", "u", "s", "del", "strike")
	p.AllowAttrs("data-type").Matching(regexp.MustCompile(`^(text-block|code-block-custom|ai-block)$`)).OnElements("div")
	p.AllowAttrs("data-id", "data-ai-generated", "data-language", "data-prompt").OnElements("div")
	p.AllowAttrs("data-color").OnElements("mark")
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.AllowStyles("text-align").Matching(bluemonday.CellAlign).OnElements("p", "h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// Sanitize strips everything from untrusted HTML that the wire form does not
// use. Decode the result with DecodeHTML.
func Sanitize(src string) string {
	return policy.Sanitize(src)
}

// EncodeHTML writes fragments in the HTML wire form. A doc fragment renders
// as its children.
func EncodeHTML(fs ...Fragment) (string, error) {
	var sb strings.Builder
	for _, f := range fs {
		nodes, err := toHTML(f)
		if err != nil {
			return "", err
		}
		for _, n := range nodes {
			if err := html.Render(&sb, n); err != nil {
				return "", fmt.Errorf("render html: %w", err)
			}
		}
	}
	return sb.String(), nil
}

func element(tag string, attrs map[string]string, keys ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for _, k := range keys {
		if v, ok := attrs[k]; ok {
			n.Attr = append(n.Attr, html.Attribute{Key: k, Val: v})
		}
	}
	return n
}

func appendAll(parent *html.Node, children []Fragment) error {
	for _, ch := range children {
		nodes, err := toHTML(ch)
		if err != nil {
			return err
		}
		for _, n := range nodes {
			parent.AppendChild(n)
		}
	}
	return nil
}

func toHTML(f Fragment) ([]*html.Node, error) {
	switch f.Tag {
	case TagText:
		return []*html.Node{{Type: html.TextNode, Data: f.Text}}, nil
	case "doc":
		var out []*html.Node
		for _, ch := range f.Children {
			nodes, err := toHTML(ch)
			if err != nil {
				return nil, err
			}
			out = append(out, nodes...)
		}
		return out, nil
	case "textBlock", "aiBlockReact":
		n := element("div", f.Attributes, "data-id", "data-ai-generated", "data-prompt")
		n.Attr = append([]html.Attribute{{Key: "data-type", Val: divTypes[f.Tag]}}, n.Attr...)
		return []*html.Node{n}, appendAll(n, f.Children)
	case "codeBlockCustom":
		n := element("div", f.Attributes, "data-language", "data-id", "data-ai-generated")
		n.Attr = append([]html.Attribute{{Key: "data-type", Val: typeCodeBlock}}, n.Attr...)
		pre, code := element("pre", nil), element("code", nil)
		n.AppendChild(pre)
		pre.AppendChild(code)
		return []*html.Node{n}, appendAll(code, f.Children)
	case "paragraph":
		tag := "p"
		if lvl := f.Attributes["data-level"]; lvl != "" && lvl != "0" {
			tag = "h" + lvl
		}
		n := element(tag, nil)
		if align := f.Attributes["data-text-align"]; align != "" {
			n.Attr = append(n.Attr, html.Attribute{Key: "style", Val: "text-align: " + align})
		}
		return []*html.Node{n}, appendAll(n, f.Children)
	}
	if el, ok := markElements[f.Tag]; ok {
		n := element(el, f.Attributes, "data-color", "href")
		return []*html.Node{n}, appendAll(n, f.Children)
	}
	return nil, &ParseError{Kind: UnknownTag, Tag: f.Tag}
}

// DecodeHTML reads the HTML wire form into block fragments. Whitespace-only
// text between blocks is ignored; any element outside the wire form is an
// UnknownTag error.
func DecodeHTML(src string) ([]Fragment, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return nil, &ParseError{Kind: Malformed, Err: err}
	}
	var out []Fragment
	for _, n := range nodes {
		if isBlank(n) {
			continue
		}
		f, err := fromHTML(n, false)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func isBlank(n *html.Node) bool {
	return n.Type == html.CommentNode || (n.Type == html.TextNode && strings.TrimSpace(n.Data) == "")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func copyAttrs(n *html.Node, keys ...string) map[string]string {
	var out map[string]string
	for _, k := range keys {
		if v, ok := attr(n, k); ok {
			if out == nil {
				out = map[string]string{}
			}
			out[k] = v
		}
	}
	return out
}

func children(n *html.Node, inline bool) ([]Fragment, error) {
	var out []Fragment
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode || (!inline && isBlank(c)) {
			continue
		}
		f, err := fromHTML(c, inline)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func fromHTML(n *html.Node, inline bool) (Fragment, error) {
	switch n.Type {
	case html.TextNode:
		return Fragment{Tag: TagText, Text: n.Data}, nil
	case html.ElementNode:
	default:
		return Fragment{}, &ParseError{Kind: Malformed, Err: fmt.Errorf("unexpected html node type %d", n.Type)}
	}

	if !inline {
		switch n.Data {
		case "div":
			dt, _ := attr(n, "data-type")
			tag, ok := divTypes[dt]
			if !ok || dt == tag {
				return Fragment{}, &ParseError{Kind: UnknownTag, Tag: "div", Err: fmt.Errorf("data-type %q", dt)}
			}
			f := Fragment{Tag: tag, Attributes: copyAttrs(n, "data-id", "data-ai-generated", "data-language", "data-prompt")}
			if tag == "codeBlockCustom" {
				text, err := codeText(n)
				if err != nil {
					return Fragment{}, err
				}
				if text != "" {
					f.Children = []Fragment{{Tag: TagText, Text: text}}
				}
				return f, nil
			}
			var err error
			f.Children, err = children(n, false)
			return f, err
		case "p", "h1", "h2", "h3", "h4", "h5", "h6":
			f := Fragment{Tag: "paragraph"}
			if n.Data != "p" {
				f.Attributes = map[string]string{"data-level": n.Data[1:]}
			}
			if style, ok := attr(n, "style"); ok {
				if m := textAlignStyle.FindStringSubmatch(style); m != nil {
					if f.Attributes == nil {
						f.Attributes = map[string]string{}
					}
					f.Attributes["data-text-align"] = m[1]
				}
			}
			var err error
			f.Children, err = children(n, true)
			return f, err
		}
	}

	if tag, ok := elementMarks[n.Data]; ok {
		f := Fragment{Tag: tag, Attributes: copyAttrs(n, "data-color", "href")}
		var err error
		f.Children, err = children(n, true)
		return f, err
	}
	return Fragment{}, &ParseError{Kind: UnknownTag, Tag: n.Data}
}

// codeText returns the text of <pre><code> inside a code block div.
func codeText(div *html.Node) (string, error) {
	var pre *html.Node
	for c := div.FirstChild; c != nil; c = c.NextSibling {
		if isBlank(c) {
			continue
		}
		if c.Type != html.ElementNode || c.Data != "pre" || pre != nil {
			return "", &ParseError{Kind: Malformed, Tag: "div", Err: errors.New("code block must hold one <pre>")}
		}
		pre = c
	}
	if pre == nil {
		return "", nil
	}
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(pre)
	return sb.String(), nil
}
