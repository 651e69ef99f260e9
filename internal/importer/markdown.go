package importer

import (
	"bytes"
	"io"
	"strconv"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// MarkdownImporter handles Markdown files using goldmark.
type MarkdownImporter struct{}

func (p *MarkdownImporter) Import(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Document{Title: title(filename), Blocks: MarkdownBlocks(src)}, nil
}

var md = goldmark.New(goldmark.WithExtensions(extension.Strikethrough))

// MarkdownBlocks converts markdown source into top-level blocks. Headings
// become paragraph levels, fenced code becomes a code block and thematic
// breaks start a new text block.
func MarkdownBlocks(src []byte) []*doctree.Node {
	doc := md.Parser().Parse(text.NewReader(src))
	var b builder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		mdBlock(&b, n, src, "")
	}
	return b.finish()
}

func mdBlock(b *builder, n ast.Node, src []byte, prefix string) {
	switch node := n.(type) {
	case *ast.Heading:
		b.paragraph(node.Level, mdInline(node, src, prefix)...)
	case *ast.Paragraph, *ast.TextBlock:
		b.paragraph(0, mdInline(node, src, prefix)...)
	case *ast.FencedCodeBlock:
		b.code(string(node.Language(src)), string(mdLines(node, src)))
	case *ast.CodeBlock:
		b.code("", string(mdLines(node, src)))
	case *ast.ThematicBreak:
		b.flush()
	case *ast.List:
		i := node.Start
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			marker := "- "
			if node.IsOrdered() {
				marker = strconv.Itoa(i) + ". "
				i++
			}
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				mdBlock(b, c, src, marker)
				marker = ""
			}
		}
	case *ast.Blockquote:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			mdBlock(b, c, src, prefix)
		}
	case *ast.HTMLBlock:
		// raw html is not imported
	default:
		if t := bytes.TrimSpace(mdLines(n, src)); len(t) > 0 {
			b.text(0, string(t))
		}
	}
}

func mdLines(n ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return buf.Bytes()
}

func mdInline(n ast.Node, src []byte, prefix string) []*doctree.Node {
	var in inline
	in.write(prefix)
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch node := c.(type) {
			case *ast.Text:
				in.write(string(node.Segment.Value(src)))
				switch {
				case node.HardLineBreak():
					in.write("\n")
				case node.SoftLineBreak():
					in.write(" ")
				}
			case *ast.String:
				in.write(string(node.Value))
			case *ast.CodeSpan:
				in.push(schema.Mark{Tag: schema.Code})
				walk(node)
				in.pop()
			case *ast.Emphasis:
				tag := schema.Italic
				if node.Level >= 2 {
					tag = schema.Bold
				}
				in.push(schema.Mark{Tag: tag})
				walk(node)
				in.pop()
			case *east.Strikethrough:
				in.push(schema.Mark{Tag: schema.Strike})
				walk(node)
				in.pop()
			case *ast.Link:
				in.push(schema.Mark{Tag: schema.Link, Payload: string(node.Destination)})
				walk(node)
				in.pop()
			case *ast.AutoLink:
				in.push(schema.Mark{Tag: schema.Link, Payload: string(node.URL(src))})
				in.write(string(node.Label(src)))
				in.pop()
			case *ast.Image:
				walk(node)
			case *ast.RawHTML:
			default:
				walk(node)
			}
		}
	}
	walk(n)
	return in.trimmed()
}

