package importer

import (
	"strings"
	"testing"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/schema"
)

var reg = schema.Default()

func heading(level string, content ...any) *doctree.Node {
	p := doctree.NewParagraph(content...)
	p.Attrs = schema.Attrs{"level": level}
	return p
}

func assertBlocks(t *testing.T, doc *Document, want ...*doctree.Node) {
	t.Helper()
	got, err := doctree.New(reg, doctree.NewDoc(doc.Blocks...))
	if err != nil {
		t.Fatalf("imported blocks are not a valid document: %v", err)
	}
	exp, err := doctree.New(reg, doctree.NewDoc(want...))
	if err != nil {
		t.Fatalf("expected document invalid: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("expected %s, got %s", exp, got)
	}
}

func TestTextImporter_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	doc, err := (&TextImporter{}).Import(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	assertBlocks(t, doc, doctree.NewTextBlock(
		doctree.NewParagraph("First paragraph line one.\nFirst paragraph line two."),
		doctree.NewParagraph("Second paragraph."),
		doctree.NewParagraph("Third paragraph."),
	))
}

func TestTextImporter_EmptyInput(t *testing.T) {
	doc, err := (&TextImporter{}).Import(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Blocks) != 0 {
		t.Errorf("expected 0 blocks for empty input, got %d", len(doc.Blocks))
	}
	root := doc.Root(markup.NewCodec(reg))
	if len(root.Children) != 1 || root.Children[0].Tag != "textBlock" {
		t.Errorf("expected one empty text block, got %+v", root)
	}
}

func TestMarkdownImporter_Blocks(t *testing.T) {
	input := "# Title\n\nIntro *with* **bold** and `code`.\n\n```go\nfmt.Println(1)\n```\n\n## Section\n\n- one\n- [two](https://example.com)\n\n---\n\nAfter ~~old~~ break.\n"
	doc, err := (&MarkdownImporter{}).Import(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", doc.Title)
	}
	assertBlocks(t, doc,
		doctree.NewTextBlock(
			heading("1", "Title"),
			doctree.NewParagraph("Intro ",
				doctree.NewText("with", schema.Mark{Tag: schema.Italic}), " ",
				doctree.NewText("bold", schema.Mark{Tag: schema.Bold}), " and ",
				doctree.NewText("code", schema.Mark{Tag: schema.Code}), "."),
		),
		doctree.NewCodeBlock("go", "fmt.Println(1)"),
		doctree.NewTextBlock(
			heading("2", "Section"),
			doctree.NewParagraph("- one"),
			doctree.NewParagraph("- ", doctree.NewText("two", schema.Mark{Tag: schema.Link, Payload: "https://example.com"})),
		),
		doctree.NewTextBlock(
			doctree.NewParagraph("After ", doctree.NewText("old", schema.Mark{Tag: schema.Strike}), " break."),
		),
	)
}

func TestMarkdownBlocks_OrderedList(t *testing.T) {
	blocks := MarkdownBlocks([]byte("3. c\n4. d\n"))
	assertBlocks(t, &Document{Blocks: blocks}, doctree.NewTextBlock(
		doctree.NewParagraph("3. c"),
		doctree.NewParagraph("4. d"),
	))
}

func TestHTMLImporter(t *testing.T) {
	input := `<html><head><title>Page</title><style>p{}</style></head><body>
<nav>skip me</nav>
<h2>Heading</h2>
<p>Some <b>bold</b>
   and <a href="/x">link</a></p>
<pre><code class="language-python">print(1)
</code></pre>
<ul><li>item</li></ul>
</body></html>`
	doc, err := (&HTMLImporter{}).Import(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Page" {
		t.Errorf("expected title %q, got %q", "Page", doc.Title)
	}
	assertBlocks(t, doc,
		doctree.NewTextBlock(
			heading("2", "Heading"),
			doctree.NewParagraph("Some ", doctree.NewText("bold", schema.Mark{Tag: schema.Bold}), " and ",
				doctree.NewText("link", schema.Mark{Tag: schema.Link, Payload: "/x"})),
		),
		doctree.NewCodeBlock("python", "print(1)"),
		doctree.NewTextBlock(doctree.NewParagraph("item")),
	)
}

func TestCSVImporter(t *testing.T) {
	input := "name,age\nann,30\nbob,41\n"
	doc, err := (&CSVImporter{}).Import(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertBlocks(t, doc, doctree.NewTextBlock(
		heading("3", "Rows 2-3"),
		doctree.NewParagraph(doctree.NewText("name, age", schema.Mark{Tag: schema.Bold})),
		doctree.NewParagraph("name: ann, age: 30"),
		doctree.NewParagraph("name: bob, age: 41"),
	))
}

func TestForFile(t *testing.T) {
	tests := []struct {
		name string
		ok   bool
	}{
		{"a.txt", true},
		{"a.MD", true},
		{"a.docx", true},
		{"a.pdf", true},
		{"a.exe", false},
	}
	for _, tt := range tests {
		_, err := ForFile(tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("%s: expected ok=%v, got %v", tt.name, tt.ok, err)
		}
		if IsSupportedExtension(tt.name) != tt.ok {
			t.Errorf("%s: IsSupportedExtension mismatch", tt.name)
		}
	}
}
