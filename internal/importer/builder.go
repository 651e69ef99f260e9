package importer

import (
	"slices"
	"strconv"
	"strings"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// builder accumulates paragraphs into an open text block and closes it when
// a code block or a section break arrives.
type builder struct {
	blocks []*doctree.Node
	paras  []*doctree.Node
}

func (b *builder) paragraph(level int, runs ...*doctree.Node) {
	runs = slices.DeleteFunc(runs, func(n *doctree.Node) bool { return n.Text == "" })
	if len(runs) == 0 {
		return
	}
	var attrs schema.Attrs
	if level > 0 {
		attrs = schema.Attrs{"level": strconv.Itoa(min(level, 6))}
	}
	b.paras = append(b.paras, doctree.NewNode(schema.Paragraph, attrs, runs...))
}

func (b *builder) text(level int, s string) {
	b.paragraph(level, doctree.NewText(strings.TrimSpace(s)))
}

func (b *builder) code(language, src string) {
	b.flush()
	if language == "" {
		language = "plaintext"
	}
	b.blocks = append(b.blocks, doctree.NewCodeBlock(language, strings.TrimSuffix(src, "\n")))
}

// flush closes the open text block.
func (b *builder) flush() {
	if len(b.paras) == 0 {
		return
	}
	b.blocks = append(b.blocks, doctree.NewTextBlock(b.paras...))
	b.paras = nil
}

func (b *builder) finish() []*doctree.Node {
	b.flush()
	return b.blocks
}

// inline collects text runs under a stack of active marks.
type inline struct {
	marks []schema.Mark
	runs  []*doctree.Node
}

func (in *inline) write(s string) {
	if s == "" {
		return
	}
	in.runs = append(in.runs, doctree.NewText(s, in.marks...))
}

func (in *inline) push(m schema.Mark) { in.marks = append(in.marks, m) }

func (in *inline) pop() { in.marks = in.marks[:len(in.marks)-1] }

// trimmed drops leading and trailing whitespace of the whole run sequence.
func (in *inline) trimmed() []*doctree.Node {
	runs := in.runs
	for len(runs) > 0 {
		runs[0].Text = strings.TrimLeft(runs[0].Text, " \t\r\n")
		if runs[0].Text != "" {
			break
		}
		runs = runs[1:]
	}
	for len(runs) > 0 {
		last := runs[len(runs)-1]
		last.Text = strings.TrimRight(last.Text, " \t\r\n")
		if last.Text != "" {
			break
		}
		runs = runs[:len(runs)-1]
	}
	return runs
}
