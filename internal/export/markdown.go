// Package export writes documents in external formats.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// Markdown writes t as markdown. Paragraph levels become headings, code
// blocks become fenced blocks and AI blocks are left out. Underline and
// highlight have no markdown form and are written as plain text.
func Markdown(w io.Writer, t *doctree.Tree) error {
	m := md.NewMarkdown(w)
	first := true
	sep := func() {
		if !first {
			m.LF()
		}
		first = false
	}
	for _, b := range t.Blocks() {
		switch b.Node.Kind {
		case schema.TextBlock:
			for _, p := range b.Node.Children {
				sep()
				paragraph(m, p)
			}
		case schema.CodeBlock:
			sep()
			m.CodeBlocks(md.SyntaxHighlight(codeLanguage(b.Node)), b.Node.TextContent())
		}
	}
	if err := m.Build(); err != nil {
		return fmt.Errorf("build markdown: %w", err)
	}
	return nil
}

func codeLanguage(n *doctree.Node) string {
	if lang := n.Attr("language"); lang != "plaintext" {
		return lang
	}
	return ""
}

func paragraph(m *md.Markdown, p *doctree.Node) {
	text := inline(p)
	level, _ := strconv.Atoi(p.Attr("level"))
	switch level {
	case 1:
		m.H1(text)
	case 2:
		m.H2(text)
	case 3:
		m.H3(text)
	case 4:
		m.H4(text)
	case 5:
		m.H5(text)
	case 6:
		m.H6(text)
	default:
		m.PlainText(text)
	}
}

func inline(p *doctree.Node) string {
	var sb strings.Builder
	for _, run := range p.Children {
		sb.WriteString(styled(run))
	}
	return sb.String()
}

// styled wraps one run, code innermost and link outermost.
func styled(run *doctree.Node) string {
	s := run.Text
	if s == "" {
		return s
	}
	if run.Marks.HasTag(schema.Code) {
		s = md.Code(s)
	}
	if run.Marks.HasTag(schema.Bold) {
		s = md.Bold(s)
	}
	if run.Marks.HasTag(schema.Italic) {
		s = md.Italic(s)
	}
	if run.Marks.HasTag(schema.Strike) {
		s = md.Strikethrough(s)
	}
	if l, ok := run.Marks.Get(schema.Link); ok {
		s = md.Link(s, l.Payload)
	}
	return s
}
