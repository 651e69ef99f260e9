package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

var codec = NewCodec(schema.Default())

func richTree(t *testing.T) *doctree.Tree {
	t.Helper()
	link := schema.Mark{Tag: schema.Link, Payload: "https://example.com"}
	heading := doctree.NewNode(schema.Paragraph, schema.Attrs{"level": "2", "textAlign": "center"}, doctree.NewText("Title"))
	tr, err := doctree.New(schema.Default(), doctree.NewDoc(
		doctree.NewNode(schema.TextBlock, schema.Attrs{"id": "tb-1", "aiGenerated": "true"},
			heading,
			doctree.NewParagraph("plain ", doctree.NewText("bold link", schema.Mark{Tag: schema.Bold}, link), " & <tail>"),
		),
		doctree.NewNode(schema.CodeBlock, schema.Attrs{"language": "python", "id": "cb-1"}, doctree.NewText("\nif x:\n    pass\n")),
		doctree.NewNode(schema.AIBlock, schema.Attrs{"id": "ai-1", "prompt": "summarize"}),
	))
	if err != nil {
		t.Fatalf("build tree: %v", err)
	}
	return tr
}

func TestRender_OmitsDefaults(t *testing.T) {
	tr := doctree.Empty(schema.Default())
	if err := tr.InsertAt(2, doctree.NewText("Welcome")); err != nil {
		t.Fatal(err)
	}
	got := codec.RenderDocument(tr)
	want := Fragment{Tag: "doc", Children: []Fragment{
		{Tag: "textBlock", Children: []Fragment{
			{Tag: "paragraph", Children: []Fragment{{Tag: "text", Text: "Welcome"}}},
		}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_MarkNesting(t *testing.T) {
	n := doctree.NewText("x", schema.Mark{Tag: schema.Italic}, schema.Mark{Tag: schema.Link, Payload: "/a"}, schema.Mark{Tag: schema.Bold})
	got := codec.Render(n)
	want := Fragment{Tag: "link", Attributes: map[string]string{"href": "/a"}, Children: []Fragment{
		{Tag: "bold", Children: []Fragment{
			{Tag: "italic", Children: []Fragment{{Tag: "text", Text: "x"}}},
		}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	tr := richTree(t)
	rendered := codec.RenderDocument(tr)
	parsed, err := codec.ParseDocument(rendered)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if !parsed.Equal(tr) {
		t.Errorf("round trip changed the tree:\n%s\n%s", tr, parsed)
	}
	if diff := cmp.Diff(rendered, codec.RenderDocument(parsed)); diff != "" {
		t.Errorf("re-render mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FillsDefaults(t *testing.T) {
	n, err := codec.Parse(Fragment{Tag: "codeBlockCustom"})
	if err != nil {
		t.Fatal(err)
	}
	if n.Attr("language") != "plaintext" {
		t.Errorf("expected default language plaintext, got %q", n.Attr("language"))
	}
	if _, ok := n.Attrs.Get("id"); ok {
		t.Error("expected null id")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   Fragment
		kind ErrorKind
	}{
		{"unknown tag", Fragment{Tag: "doc", Children: []Fragment{{Tag: "table"}}}, UnknownTag},
		{"bad level", Fragment{Tag: "paragraph", Attributes: map[string]string{"data-level": "x"}}, AttributeParseFailure},
		{"bad bool", Fragment{Tag: "textBlock", Attributes: map[string]string{"data-ai-generated": "maybe"}}, AttributeParseFailure},
		{"link without href", Fragment{Tag: "paragraph", Children: []Fragment{{Tag: "link", Children: []Fragment{{Tag: "text", Text: "a"}}}}}, AttributeParseFailure},
		{"paragraph under doc", Fragment{Tag: "doc", Children: []Fragment{{Tag: "paragraph"}}}, SchemaViolation},
		{"empty text block", Fragment{Tag: "textBlock"}, SchemaViolation},
		{"marks in code", Fragment{Tag: "codeBlockCustom", Children: []Fragment{{Tag: "bold", Children: []Fragment{{Tag: "text", Text: "a"}}}}}, SchemaViolation},
		{"mark around block", Fragment{Tag: "bold", Children: []Fragment{{Tag: "paragraph"}}}, SchemaViolation},
		{"text with children", Fragment{Tag: "text", Children: []Fragment{{Tag: "text"}}}, Malformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Parse(tt.in)
			if !IsKind(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}
		})
	}
}

func TestParseFragment_MarkWrapperYieldsRuns(t *testing.T) {
	nodes, err := codec.ParseFragment(Fragment{Tag: "bold", Children: []Fragment{
		{Tag: "text", Text: "a"},
		{Tag: "italic", Children: []Fragment{{Tag: "text", Text: "b"}}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(nodes))
	}
	if !nodes[1].Marks.HasTag(schema.Bold) || !nodes[1].Marks.HasTag(schema.Italic) {
		t.Errorf("expected bold italic run, got %s", nodes[1])
	}
}

func TestUnmarshalDocument(t *testing.T) {
	tr := richTree(t)
	data, err := codec.MarshalDocument(tr)
	if err != nil {
		t.Fatal(err)
	}
	back, err := codec.UnmarshalDocument(data)
	if err != nil {
		t.Fatalf("UnmarshalDocument: %v", err)
	}
	if !back.Equal(tr) {
		t.Errorf("expected equal trees, got %s", back)
	}
	if _, err := codec.UnmarshalDocument([]byte("{")); !IsKind(err, Malformed) {
		t.Errorf("expected Malformed, got %v", err)
	}
	if !strings.Contains(string(data), `"data-language":"python"`) {
		t.Errorf("expected language attribute in %s", data)
	}
}
