package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/schema"
)

var reg = schema.Default()

func intp(i int) *int { return &i }

func welcome(t *testing.T) *doctree.Tree {
	t.Helper()
	tr, err := doctree.New(reg, doctree.NewDoc(doctree.NewTextBlock(doctree.NewParagraph("Welcome"))))
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func exec(t *testing.T, p *Pipeline, tr *doctree.Tree, name, params string) error {
	t.Helper()
	_, err := p.Execute(tr, Range{}, name, json.RawMessage(params))
	return err
}

func TestInsertCodeBlock_AtEnd(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	before := tr.Size()
	if _, err := p.Run(tr, Range{}, &InsertCodeBlock{Position: intp(tr.Size()), Language: "python"}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want, err := doctree.New(reg, doctree.NewDoc(
		doctree.NewTextBlock(doctree.NewParagraph("Welcome")),
		doctree.NewCodeBlock("python", ""),
	))
	if err != nil {
		t.Fatal(err)
	}
	if !tr.Equal(want) {
		t.Errorf("expected %s, got %s", want, tr)
	}
	if tr.Size() <= before {
		t.Errorf("expected size to grow from %d, got %d", before, tr.Size())
	}
}

func TestInsertCodeBlock_DefaultLanguage(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	if err := exec(t, p, tr, "insertCodeBlock", `{"position": 11}`); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[1].Attr("language"); got != "plaintext" {
		t.Errorf("expected plaintext, got %q", got)
	}
}

func TestInsertCodeBlock_InsideTextBlock(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	orig := tr.Clone()
	err := exec(t, p, tr, "insertCodeBlock", `{"position": 1, "language": "go"}`)
	if CodeOf(err) != CodeSchemaViolation {
		t.Fatalf("expected schema_violation, got %v", err)
	}
	var sv *doctree.SchemaViolation
	if !errors.As(err, &sv) || sv.Kind != schema.TextBlock {
		t.Errorf("expected SchemaViolation in textBlock, got %v", err)
	}
	if !tr.Equal(orig) {
		t.Errorf("tree changed: %s", tr)
	}
}

func TestInsertBlocks_AssignIDs(t *testing.T) {
	p := NewPipeline(reg, WithIDFunc(sequentialIDs()))
	tr := welcome(t)
	_, err := p.Run(tr, Range{},
		&InsertTextBlock{Position: intp(11)},
		&InsertAIBlock{Position: intp(15), Prompt: "outline"},
	)
	if err != nil {
		t.Fatal(err)
	}
	blocks := tr.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %s", tr)
	}
	if blocks[1].Node.ID() != "id-1" || blocks[2].Node.ID() != "id-2" {
		t.Errorf("expected sequential ids, got %q %q", blocks[1].Node.ID(), blocks[2].Node.ID())
	}
	if blocks[2].Node.Kind != schema.AIBlock || blocks[2].Node.Attr("prompt") != "outline" {
		t.Errorf("expected AI block with prompt, got %s %v", blocks[2].Node.Kind, blocks[2].Node.Attrs)
	}
	if len(blocks[2].Node.Children) != 0 {
		t.Error("expected AI block without children")
	}
}

func TestDeleteRange_SoleParagraph(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	err := exec(t, p, tr, "deleteRange", `{"range": [1, 10]}`)
	if CodeOf(err) != CodeSchemaViolation {
		t.Errorf("expected schema_violation, got %v", err)
	}
	if tr.Size() != 11 {
		t.Errorf("expected size 11, got %d", tr.Size())
	}
}

func TestToggleInlineMark_Twice(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	orig := tr.Clone()
	if err := exec(t, p, tr, "toggleInlineMark", `{"range": [2, 9], "markTag": "Bold"}`); err != nil {
		t.Fatal(err)
	}
	if run := tr.Root().Children[0].Children[0].Children[0]; !run.Marks.HasTag(schema.Bold) {
		t.Errorf("expected bold, got %s", tr)
	}
	if err := exec(t, p, tr, "toggleInlineMark", `{"range": {"from": 2, "to": 9}, "markTag": "bold"}`); err != nil {
		t.Fatal(err)
	}
	if !tr.Equal(orig) {
		t.Errorf("expected original, got %s", tr)
	}
}

func TestToggleInlineMark_RoundTripsThroughCodec(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	if err := exec(t, p, tr, "toggleInlineMark", `{"range": [2, 9], "markTag": "highlight", "payload": "yellow"}`); err != nil {
		t.Fatal(err)
	}
	if err := exec(t, p, tr, "toggleInlineMark", `{"range": [2, 9], "markTag": "bold"}`); err != nil {
		t.Fatal(err)
	}
	c := p.Codec()
	back, err := c.ParseDocument(c.RenderDocument(tr))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if !back.Equal(tr) {
		t.Errorf("expected %s after round trip, got %s", tr, back)
	}
}

func TestToggleInlineMark_InCode(t *testing.T) {
	p := NewPipeline(reg)
	tr, err := doctree.New(reg, doctree.NewDoc(doctree.NewCodeBlock("go", "fmt.Println()")))
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range []string{"[1, 5]", "[0, 15]"} {
		err := exec(t, p, tr, "toggleInlineMark", `{"range": `+r+`, "markTag": "italic"}`)
		if CodeOf(err) != CodeMarkNotAllowed {
			t.Errorf("range %s: expected mark_not_allowed, got %v", r, err)
		}
	}
	if err := exec(t, p, tr, "setLink", `{"range": [1, 5], "href": "/x"}`); CodeOf(err) != CodeMarkNotAllowed {
		t.Errorf("expected mark_not_allowed for link, got %v", err)
	}
}

func TestToggleInlineMark_Params(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	tests := map[string]string{
		"missing tag":       `{"range": [2, 9]}`,
		"link without href": `{"range": [2, 9], "markTag": "link"}`,
		"unknown tag":       `{"range": [2, 9], "markTag": "blink"}`,
		"unknown field":     `{"range": [2, 9], "markTag": "bold", "colour": "red"}`,
		"payload on bold":   `{"range": [2, 9], "markTag": "Bold", "payload": "x"}`,
	}
	for name, params := range tests {
		if err := exec(t, p, tr, "toggleInlineMark", params); CodeOf(err) != CodeInvalidParams {
			t.Errorf("%s: expected invalid_params, got %v", name, err)
		}
	}
}

func TestToggleInlineMark_UsesSelection(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	if _, err := p.Execute(tr, Range{From: 9, To: 2}, "toggleInlineMark", json.RawMessage(`{"markTag": "underline"}`)); err != nil {
		t.Fatal(err)
	}
	if run := tr.Root().Children[0].Children[0].Children[0]; !run.Marks.HasTag(schema.Underline) {
		t.Errorf("expected underline from selection, got %s", tr)
	}
}

func TestUnknownCommand(t *testing.T) {
	p := NewPipeline(reg)
	if err := exec(t, p, welcome(t), "explode", `{}`); CodeOf(err) != CodeUnknownCommand {
		t.Errorf("expected unknown_command, got %v", err)
	}
}

func TestChain_AbortsWholeChain(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	orig := tr.Clone()
	_, err := p.ExecuteChain(tr, Range{}, []Invocation{
		{Name: "insertTextBlock", Params: json.RawMessage(`{"position": 11}`)},
		{Name: "toggleInlineMark", Params: json.RawMessage(`{"range": [2, 100], "markTag": "bold"}`)},
	})
	var ce *CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if ce.Step != 1 || ce.Code != CodeOutOfRange || ce.Command != "toggleInlineMark" {
		t.Errorf("unexpected error %+v", ce)
	}
	if !tr.Equal(orig) {
		t.Errorf("expected untouched tree, got %s", tr)
	}
}

func TestChain_AppliesAll(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	sel, err := p.Run(tr, Range{},
		&InsertTextBlock{Position: intp(11)},
		&InsertText{Position: intp(13), Text: "Second"},
		&ToggleInlineMark{Range: &Range{From: 13, To: 19}, MarkTag: schema.Italic},
	)
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[1].TextContent(); got != "Second" {
		t.Errorf("expected Second, got %q", got)
	}
	if sel != Cursor(19) {
		t.Errorf("expected caret at 19, got %+v", sel)
	}
}

func TestToggleHeadingLevel(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	para := func() *doctree.Node { return tr.Root().Children[0].Children[0] }
	if err := exec(t, p, tr, "toggleHeadingLevel", `{"range": [3, 3], "level": 2}`); err != nil {
		t.Fatal(err)
	}
	if para().Attr("level") != "2" {
		t.Errorf("expected level 2, got %q", para().Attr("level"))
	}
	if err := exec(t, p, tr, "toggleHeadingLevel", `{"range": [3, 3], "level": 2}`); err != nil {
		t.Fatal(err)
	}
	if para().Attr("level") != "0" {
		t.Errorf("expected level 0, got %q", para().Attr("level"))
	}
	if err := exec(t, p, tr, "toggleHeadingLevel", `{"range": [3, 3], "level": 7}`); CodeOf(err) != CodeInvalidParams {
		t.Errorf("expected invalid_params, got %v", err)
	}
}

func TestToggleHeadingLevel_NoParagraph(t *testing.T) {
	p := NewPipeline(reg)
	tr, err := doctree.New(reg, doctree.NewDoc(doctree.NewCodeBlock("", "x")))
	if err != nil {
		t.Fatal(err)
	}
	if err := exec(t, p, tr, "toggleHeadingLevel", `{"range": [1, 2], "level": 1}`); CodeOf(err) != CodeNoTarget {
		t.Errorf("expected no_target, got %v", err)
	}
}

func TestSetTextAlign(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	if err := exec(t, p, tr, "setTextAlign", `{"range": [2, 9], "align": "center"}`); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[0].Children[0].Attr("textAlign"); got != "center" {
		t.Errorf("expected center, got %q", got)
	}
	if err := exec(t, p, tr, "setTextAlign", `{"range": [2, 9], "align": "middle"}`); CodeOf(err) != CodeInvalidParams {
		t.Errorf("expected invalid_params, got %v", err)
	}
}

func TestSetAndUnsetLink(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	if err := exec(t, p, tr, "setLink", `{"range": [2, 5], "href": "https://example.com"}`); err != nil {
		t.Fatal(err)
	}
	para := tr.Root().Children[0].Children[0]
	if len(para.Children) != 2 || !para.Children[0].Marks.Has(schema.Mark{Tag: schema.Link, Payload: "https://example.com"}) {
		t.Fatalf("expected linked prefix, got %s", para)
	}
	if _, err := p.Execute(tr, Cursor(3), "unsetLink", nil); err != nil {
		t.Fatal(err)
	}
	para = tr.Root().Children[0].Children[0]
	if len(para.Children) != 1 || len(para.Children[0].Marks) != 0 {
		t.Errorf("expected link removed, got %s", para)
	}
	if err := exec(t, p, tr, "setLink", `{"range": [2, 5]}`); CodeOf(err) != CodeInvalidParams {
		t.Errorf("expected invalid_params, got %v", err)
	}
}

func TestInsertText_InheritsMarks(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	if _, err := p.Run(tr, Range{},
		&ToggleInlineMark{Range: &Range{From: 2, To: 9}, MarkTag: schema.Bold},
		&SetLink{Range: &Range{From: 2, To: 9}, Href: "/w"},
		&InsertText{Position: intp(9), Text: "!"},
	); err != nil {
		t.Fatal(err)
	}
	para := tr.Root().Children[0].Children[0]
	last := para.Children[len(para.Children)-1]
	if last.Text != "!" || !last.Marks.HasTag(schema.Bold) || last.Marks.HasTag(schema.Link) {
		t.Errorf("expected bold unlinked '!', got %s", para)
	}
}

func TestInsertText_Errors(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	if err := exec(t, p, tr, "insertText", `{"position": 1, "text": "x"}`); CodeOf(err) != CodeSchemaViolation {
		t.Errorf("expected schema_violation between paragraphs, got %v", err)
	}
	if err := exec(t, p, tr, "insertText", `{"position": 2}`); CodeOf(err) != CodeInvalidParams {
		t.Errorf("expected invalid_params, got %v", err)
	}
	if err := exec(t, p, tr, "insertText", `{"position": 99, "text": "x"}`); CodeOf(err) != CodeOutOfRange {
		t.Errorf("expected out_of_range, got %v", err)
	}
}

func TestSplitParagraph(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	sel, err := p.Execute(tr, Range{}, "splitParagraph", json.RawMessage(`{"position": 5}`))
	if err != nil {
		t.Fatal(err)
	}
	tb := tr.Root().Children[0]
	if len(tb.Children) != 2 || tb.Children[0].TextContent() != "Wel" || tb.Children[1].TextContent() != "come" {
		t.Errorf("expected Wel | come, got %s", tb)
	}
	if tr.Size() != 13 || sel != Cursor(7) {
		t.Errorf("expected size 13 and caret 7, got %d %+v", tr.Size(), sel)
	}
	if err := exec(t, p, tr, "splitParagraph", `{"position": 0}`); CodeOf(err) != CodeNoTarget {
		t.Errorf("expected no_target, got %v", err)
	}
}

func TestSplitParagraph_HeadingAtEnd(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	if _, err := p.Run(tr, Range{}, &ToggleHeadingLevel{Range: &Range{From: 2, To: 2}, Level: 1}, &SplitParagraph{Position: intp(9)}); err != nil {
		t.Fatal(err)
	}
	tb := tr.Root().Children[0]
	if tb.Children[0].Attr("level") != "1" || tb.Children[1].Attr("level") != "0" {
		t.Errorf("expected heading then paragraph, got %v %v", tb.Children[0].Attrs, tb.Children[1].Attrs)
	}
}

func threeBlocks(t *testing.T) *doctree.Tree {
	t.Helper()
	tr, err := doctree.New(reg, doctree.NewDoc(
		doctree.NewTextBlock(doctree.NewParagraph("ab")),
		doctree.NewCodeBlock("go", "x"),
		doctree.NewAIBlock("p"),
	))
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestMoveBlock(t *testing.T) {
	p := NewPipeline(reg)
	tr := threeBlocks(t)
	if err := exec(t, p, tr, "moveBlock", `{"position": 9, "target": 0}`); err != nil {
		t.Fatal(err)
	}
	kinds := tr.Root().ChildKinds()
	if kinds[0] != schema.AIBlock || kinds[1] != schema.TextBlock || kinds[2] != schema.CodeBlock {
		t.Errorf("expected AI first, got %v", kinds)
	}
	if err := exec(t, p, tr, "moveBlock", `{"position": 2, "target": 11}`); err != nil {
		t.Fatal(err)
	}
	kinds = tr.Root().ChildKinds()
	if kinds[2] != schema.TextBlock {
		t.Errorf("expected text block last, got %v", kinds)
	}
}

func TestMoveBlock_Errors(t *testing.T) {
	p := NewPipeline(reg)
	tr := threeBlocks(t)
	if err := exec(t, p, tr, "moveBlock", `{"position": 1, "target": 0}`); CodeOf(err) != CodeNotReorderable {
		t.Errorf("expected not_reorderable, got %v", err)
	}
	if err := exec(t, p, tr, "moveBlock", `{"position": 0, "target": 3}`); CodeOf(err) != CodeInvalidRange {
		t.Errorf("expected invalid_range, got %v", err)
	}
	if err := exec(t, p, tr, "moveBlock", `{"position": 2, "target": 0}`); CodeOf(err) != CodeNoTarget {
		t.Errorf("expected no_target for text, got %v", err)
	}
}

func TestMoveBlock_OntoItself(t *testing.T) {
	p := NewPipeline(reg)
	tr := welcome(t)
	orig := tr.Clone()
	for _, target := range []int{0, tr.Size()} {
		params := fmt.Sprintf(`{"position": 0, "target": %d}`, target)
		if err := exec(t, p, tr, "moveBlock", params); err != nil {
			t.Errorf("target %d: expected no-op, got %v", target, err)
		}
		if !tr.Equal(orig) {
			t.Errorf("target %d: expected original, got %s", target, tr)
		}
	}
}

func TestSetCodeLanguageAndPrompt(t *testing.T) {
	p := NewPipeline(reg)
	tr := threeBlocks(t)
	if err := exec(t, p, tr, "setCodeLanguage", `{"position": 7, "language": "rust"}`); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[1].Attr("language"); got != "rust" {
		t.Errorf("expected rust, got %q", got)
	}
	if err := exec(t, p, tr, "setCodeLanguage", `{"position": 6, "language": ""}`); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[1].Attr("language"); got != "plaintext" {
		t.Errorf("expected plaintext, got %q", got)
	}
	if err := exec(t, p, tr, "setPrompt", `{"position": 9, "prompt": "summarize"}`); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[2].Attr("prompt"); got != "summarize" {
		t.Errorf("expected summarize, got %q", got)
	}
	if err := exec(t, p, tr, "setCodeLanguage", `{"position": 2, "language": "go"}`); CodeOf(err) != CodeNoTarget {
		t.Errorf("expected no_target, got %v", err)
	}
}

func TestInsertFragment(t *testing.T) {
	p := NewPipeline(reg, WithIDFunc(sequentialIDs()))
	tr := welcome(t)
	frags := []markup.Fragment{
		{Tag: "textBlock", Attributes: map[string]string{"data-ai-generated": "true"}, Children: []markup.Fragment{
			{Tag: "paragraph", Children: []markup.Fragment{{Tag: "bold", Children: []markup.Fragment{{Tag: "text", Text: "hi"}}}}},
		}},
		{Tag: "codeBlockCustom", Attributes: map[string]string{"data-language": "go", "data-id": "keep"}},
	}
	if _, err := p.Run(tr, Range{}, &InsertFragment{Position: intp(11), Fragments: frags}); err != nil {
		t.Fatal(err)
	}
	blocks := tr.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %s", tr)
	}
	if blocks[1].Node.ID() != "id-1" || blocks[1].Node.Attr("aiGenerated") != "true" {
		t.Errorf("expected generated text block with id, got %v", blocks[1].Node.Attrs)
	}
	if blocks[2].Node.ID() != "keep" {
		t.Errorf("expected existing id kept, got %q", blocks[2].Node.ID())
	}

	bad := []markup.Fragment{{Tag: "marquee"}}
	if _, err := p.Run(tr, Range{}, &InsertFragment{Position: intp(0), Fragments: bad}); CodeOf(err) != CodeParse {
		t.Errorf("expected parse_error, got %v", err)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) != len(factories) {
		t.Fatalf("expected %d names, got %d", len(factories), len(names))
	}
	for _, n := range names {
		c, err := Decode(n, nil)
		if err != nil {
			t.Fatalf("Decode(%s): %v", n, err)
		}
		if c.Name() != n {
			t.Errorf("expected name %s, got %s", n, c.Name())
		}
	}
}

func TestCharacterLimit(t *testing.T) {
	p := NewPipeline(reg, WithCharacterLimit(10))
	tr := welcome(t)
	if err := exec(t, p, tr, "insertText", `{"position": 9, "text": "!!!"}`); CodeOf(err) != CodeCharacterLimit {
		t.Fatalf("expected character_limit, got %v", err)
	}
	if tr.CharacterCount() != 7 {
		t.Errorf("expected untouched tree, got %s", tr)
	}
	if err := exec(t, p, tr, "insertText", `{"position": 9, "text": "!"}`); err != nil {
		t.Errorf("expected insert under the limit, got %v", err)
	}
}
