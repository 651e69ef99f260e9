package export

import (
	"strings"
	"testing"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/importer"
	"github.com/dgallion1/blockdoc/internal/schema"
)

func TestMarkdown(t *testing.T) {
	heading := doctree.NewParagraph("Title")
	heading.Attrs = schema.Attrs{"level": "2"}
	tr, err := doctree.New(schema.Default(), doctree.NewDoc(
		doctree.NewTextBlock(
			heading,
			doctree.NewParagraph("plain ",
				doctree.NewText("bold", schema.Mark{Tag: schema.Bold}), " ",
				doctree.NewText("site", schema.Mark{Tag: schema.Link, Payload: "https://example.com"}), " ",
				doctree.NewText("x", schema.Mark{Tag: schema.Code})),
		),
		doctree.NewCodeBlock("go", "fmt.Println(1)"),
		doctree.NewAIBlock("hidden prompt"),
	))
	if err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	if err := Markdown(&sb, tr); err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"## Title", "**bold**", "[site](https://example.com)", "`x`", "```go", "fmt.Println(1)"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden prompt") {
		t.Errorf("expected AI block left out, got:\n%s", out)
	}

	back, err := doctree.New(schema.Default(), doctree.NewDoc(importer.MarkdownBlocks([]byte(out))...))
	if err != nil {
		t.Fatalf("reimport: %v", err)
	}
	if len(back.Root().Children) != 2 {
		t.Errorf("expected text and code block after reimport, got %s", back)
	}
}
