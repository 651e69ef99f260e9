package markup

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

func TestEncodeHTML(t *testing.T) {
	tr, err := doctree.New(schema.Default(), doctree.NewDoc(
		doctree.NewTextBlock(doctree.NewParagraph("Welcome")),
		doctree.NewCodeBlock("python", "x = 1"),
		doctree.NewAIBlock("write"),
	))
	if err != nil {
		t.Fatal(err)
	}
	got, err := EncodeHTML(codec.RenderDocument(tr))
	if err != nil {
		t.Fatal(err)
	}
	want := `<div data-type="text-block"><p>Welcome</p></div>` +
		`<div data-type="code-block-custom" data-language="python"><pre><code>x = 1</code></pre></div>` +
		`<div data-type="ai-block" data-prompt="write"></div>`
	if got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestHTML_RoundTrip(t *testing.T) {
	tr := richTree(t)
	src, err := EncodeHTML(codec.RenderDocument(tr))
	if err != nil {
		t.Fatal(err)
	}
	frags, err := DecodeHTML(src)
	if err != nil {
		t.Fatalf("DecodeHTML: %v", err)
	}
	back, err := codec.ParseDocument(Fragment{Tag: "doc", Children: frags})
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if diff := cmp.Diff(codec.RenderDocument(tr), codec.RenderDocument(back)); diff != "" {
		t.Errorf("html round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHTML_Headings(t *testing.T) {
	frags, err := DecodeHTML(`<div data-type="text-block">
  <h3 style="text-align: right">Hi <b>there</b></h3>
</div>`)
	if err != nil {
		t.Fatal(err)
	}
	want := []Fragment{{Tag: "textBlock", Children: []Fragment{
		{Tag: "paragraph", Attributes: map[string]string{"data-level": "3", "data-text-align": "right"}, Children: []Fragment{
			{Tag: "text", Text: "Hi "},
			{Tag: "bold", Children: []Fragment{{Tag: "text", Text: "there"}}},
		}},
	}}}
	if diff := cmp.Diff(want, frags); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeHTML_UnknownElement(t *testing.T) {
	for _, src := range []string{
		`<table></table>`,
		`<div data-type="spoiler"></div>`,
		`<div data-type="text-block"><p><blink>x</blink></p></div>`,
	} {
		if _, err := DecodeHTML(src); !IsKind(err, UnknownTag) {
			t.Errorf("%s: expected UnknownTag, got %v", src, err)
		}
	}
}

func TestSanitize(t *testing.T) {
	got := Sanitize(`<div data-type="text-block" onclick="x()"><p>a<script>alert(1)</script></p></div>`)
	if strings.Contains(got, "onclick") || strings.Contains(got, "script") {
		t.Errorf("expected unsafe content removed, got %s", got)
	}
	if !strings.Contains(got, `data-type="text-block"`) {
		t.Errorf("expected wire attributes kept, got %s", got)
	}
}
