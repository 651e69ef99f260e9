package doctree

import (
	"errors"
	"testing"

	"github.com/dgallion1/blockdoc/internal/schema"
)

var (
	reg  = schema.Default()
	bold = schema.Mark{Tag: schema.Bold}
)

func welcome(t *testing.T) *Tree {
	t.Helper()
	tr, err := New(reg, NewDoc(NewTextBlock(NewParagraph("Welcome"))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

// checkSizes compares every cached size with a fresh count.
func checkSizes(t *testing.T, tr *Tree) {
	t.Helper()
	var walk func(n *Node) int
	walk = func(n *Node) int {
		if n.IsText() {
			return n.Size()
		}
		total := 2
		for _, c := range n.Children {
			total += walk(c)
		}
		if n.size != total {
			t.Errorf("cached size of %s is %d, expected %d", n.Kind, n.size, total)
		}
		return total
	}
	walk(tr.Root())
}

func TestTree_Size(t *testing.T) {
	tr := welcome(t)
	if tr.Size() != 11 {
		t.Errorf("expected size 11, got %d", tr.Size())
	}
	if got := Empty(reg).Size(); got != 4 {
		t.Errorf("expected empty document size 4, got %d", got)
	}
}

func TestTree_New_FillsDefaults(t *testing.T) {
	tr := welcome(t)
	p := tr.Root().Children[0].Children[0]
	if p.Attr("level") != "0" || p.Attr("textAlign") != "left" {
		t.Errorf("expected paragraph defaults, got %v", p.Attrs)
	}
}

func TestTree_New_Rejects(t *testing.T) {
	cases := map[string]*Node{
		"empty doc":       NewDoc(),
		"bare paragraph":  NewDoc(NewParagraph("x")),
		"nested code":     NewDoc(NewTextBlock(NewCodeBlock("", "x"))),
		"marked code":     NewDoc(NewNode(schema.CodeBlock, nil, NewText("x", bold))),
		"bad level":       NewDoc(NewTextBlock(NewNode(schema.Paragraph, schema.Attrs{"level": "9"}))),
		"undeclared attr": NewDoc(NewTextBlock(NewNode(schema.Paragraph, schema.Attrs{"color": "red"}))),
	}
	for name, root := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(reg, root)
			var sv *SchemaViolation
			if !errors.As(err, &sv) {
				t.Errorf("expected SchemaViolation, got %v", err)
			}
		})
	}
	if _, err := New(reg, NewTextBlock(NewParagraph())); err == nil {
		t.Error("expected error for non-doc root")
	}
}

func TestTree_Resolve(t *testing.T) {
	tr := welcome(t)
	tests := []struct {
		pos       int
		container schema.NodeKind
		index     int
		offset    int
	}{
		{0, schema.RootDocument, 0, 0},
		{1, schema.TextBlock, 0, 0},
		{2, schema.Paragraph, 0, 0},
		{5, schema.Paragraph, 0, 3},
		{9, schema.Paragraph, 1, 0},
		{10, schema.TextBlock, 1, 0},
		{11, schema.RootDocument, 1, 0},
	}
	for _, tt := range tests {
		r, err := tr.Resolve(tt.pos)
		if err != nil {
			t.Fatalf("Resolve(%d): %v", tt.pos, err)
		}
		if r.Container().Kind != tt.container || r.Index() != tt.index || r.Offset != tt.offset {
			t.Errorf("Resolve(%d): expected %s/%d/%d, got %s/%d/%d", tt.pos,
				tt.container, tt.index, tt.offset, r.Container().Kind, r.Index(), r.Offset)
		}
	}
	r, _ := tr.Resolve(5)
	if r.Depth() != 2 || r.Start() != 2 || r.End() != 9 || r.Before(1) != 0 {
		t.Errorf("unexpected resolved geometry: depth %d start %d end %d", r.Depth(), r.Start(), r.End())
	}
	for _, p := range []int{-1, 12} {
		if _, err := tr.Resolve(p); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Resolve(%d): expected ErrOutOfRange, got %v", p, err)
		}
	}
}

func TestTree_InsertCodeBlockAtEnd(t *testing.T) {
	tr := welcome(t)
	if err := tr.InsertAt(tr.Size(), NewCodeBlock("python", "")); err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	if tr.Size() != 13 {
		t.Errorf("expected size 13, got %d", tr.Size())
	}
	cb := tr.Root().Children[1]
	if cb.Kind != schema.CodeBlock || cb.Attr("language") != "python" {
		t.Errorf("expected python code block, got %s %v", cb.Kind, cb.Attrs)
	}
	checkSizes(t, tr)
}

func TestTree_InsertViolationLeavesTree(t *testing.T) {
	tr := welcome(t)
	before := tr.Clone()
	err := tr.InsertAt(1, NewCodeBlock("", ""))
	var sv *SchemaViolation
	if !errors.As(err, &sv) {
		t.Fatalf("expected SchemaViolation, got %v", err)
	}
	if sv.Kind != schema.TextBlock {
		t.Errorf("expected violation in textBlock, got %s", sv.Kind)
	}
	if !tr.Equal(before) || tr.Size() != 11 {
		t.Errorf("tree changed after rejected insert: %s", tr)
	}
}

func TestTree_InsertTextSplitsAndMerges(t *testing.T) {
	tr := welcome(t)
	if err := tr.InsertAt(5, NewText("XY")); err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	p := tr.Root().Children[0].Children[0]
	if len(p.Children) != 1 || p.Children[0].Text != "WelXYcome" {
		t.Errorf("expected single merged run, got %s", p)
	}
	if err := tr.InsertAt(4, NewText("!", bold)); err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	if len(p.Children) != 3 || !p.Children[1].Marks.Has(bold) {
		t.Errorf("expected bold run in the middle, got %s", p)
	}
	checkSizes(t, tr)
}

func TestTree_InsertMarkedTextIntoCode(t *testing.T) {
	tr, err := New(reg, NewDoc(NewCodeBlock("go", "x")))
	if err != nil {
		t.Fatal(err)
	}
	err = tr.InsertAt(1, NewText("y", bold))
	var sv *SchemaViolation
	if !errors.As(err, &sv) {
		t.Errorf("expected SchemaViolation, got %v", err)
	}
}

func TestTree_InsertCopiesFragment(t *testing.T) {
	tr := welcome(t)
	frag := NewParagraph("hi")
	if err := tr.InsertAt(10, frag); err != nil {
		t.Fatalf("InsertAt: %v", err)
	}
	frag.Children[0].Text = "zz"
	if got := tr.Root().Children[0].Children[1].TextContent(); got != "hi" {
		t.Errorf("expected tree to keep %q, got %q", "hi", got)
	}
}

func TestTree_InsertRootFragment(t *testing.T) {
	tr := welcome(t)
	if err := tr.InsertAt(0, NewDoc(NewTextBlock(NewParagraph()))); err == nil {
		t.Error("expected error inserting a doc node")
	}
}

func TestTree_RemoveRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		size     int
		wantErr  bool
	}{
		{"text", 2, 9, 4, false},
		{"partial text", 3, 5, 9, false},
		{"empty", 4, 4, 11, false},
		{"sole paragraph", 1, 10, 11, true},
		{"sole block", 0, 11, 11, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := welcome(t)
			err := tr.RemoveRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if tr.Size() != tt.size {
				t.Errorf("expected size %d, got %d", tt.size, tr.Size())
			}
			checkSizes(t, tr)
		})
	}
}

func TestTree_RemoveRangeKeepsPartialText(t *testing.T) {
	tr := welcome(t)
	if err := tr.RemoveRange(3, 5); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().TextContent(); got != "Wcome" {
		t.Errorf("expected %q, got %q", "Wcome", got)
	}
}

func TestTree_RemoveRangeErrors(t *testing.T) {
	tr := welcome(t)
	if err := tr.RemoveRange(5, 3); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for reversed range, got %v", err)
	}
	if err := tr.RemoveRange(2, 11); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange across containers, got %v", err)
	}
	if err := tr.RemoveRange(0, 12); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestTree_ToggleMarkTwice(t *testing.T) {
	tr := welcome(t)
	orig := tr.Clone()
	if err := tr.ToggleMark(2, 9, bold); err != nil {
		t.Fatal(err)
	}
	run := tr.Root().Children[0].Children[0].Children[0]
	if !run.Marks.Has(bold) || run.Text != "Welcome" {
		t.Errorf("expected bold Welcome, got %s", tr)
	}
	if err := tr.ToggleMark(2, 9, bold); err != nil {
		t.Fatal(err)
	}
	if !tr.Equal(orig) {
		t.Errorf("expected original tree, got %s", tr)
	}
}

func TestTree_ToggleMarkPartialThenWhole(t *testing.T) {
	tr := welcome(t)
	if err := tr.ToggleMark(2, 5, bold); err != nil {
		t.Fatal(err)
	}
	p := tr.Root().Children[0].Children[0]
	if len(p.Children) != 2 || p.Children[0].Text != "Wel" {
		t.Fatalf("expected split runs, got %s", p)
	}
	if err := tr.ToggleMark(2, 9, bold); err != nil {
		t.Fatal(err)
	}
	if len(p.Children) != 1 || !p.Children[0].Marks.Has(bold) {
		t.Errorf("expected one bold run, got %s", p)
	}
	checkSizes(t, tr)
}

func TestTree_ToggleMarkSkipsCode(t *testing.T) {
	tr, err := New(reg, NewDoc(NewTextBlock(NewParagraph("ab")), NewCodeBlock("go", "x")))
	if err != nil {
		t.Fatal(err)
	}
	if tr.Size() != 9 {
		t.Fatalf("expected size 9, got %d", tr.Size())
	}
	if err := tr.ToggleMark(0, 9, bold); err != nil {
		t.Fatal(err)
	}
	if code := tr.Root().Children[1].Children[0]; len(code.Marks) != 0 {
		t.Errorf("expected unmarked code, got %s", code)
	}
	if p := tr.Root().Children[0].Children[0].Children[0]; !p.Marks.Has(bold) {
		t.Errorf("expected bold paragraph text, got %s", p)
	}
	before := tr.Clone()
	if err := tr.ToggleMark(7, 8, bold); err != nil {
		t.Errorf("expected no-op on code, got %v", err)
	}
	if !tr.Equal(before) {
		t.Errorf("expected unchanged tree, got %s", tr)
	}
}

func TestTree_AddMarkReplacesPayload(t *testing.T) {
	tr := welcome(t)
	red := schema.Mark{Tag: schema.Highlight, Payload: "red"}
	blue := schema.Mark{Tag: schema.Highlight, Payload: "blue"}
	if err := tr.AddMark(2, 9, red); err != nil {
		t.Fatal(err)
	}
	if err := tr.ToggleMark(2, 9, blue); err != nil {
		t.Fatal(err)
	}
	run := tr.Root().Children[0].Children[0].Children[0]
	if !run.Marks.Has(blue) || run.Marks.Has(red) {
		t.Errorf("expected blue highlight only, got %s", run.Marks)
	}
	if err := tr.RemoveMark(2, 9, schema.Highlight); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[0].Children[0].Children[0].Marks; len(got) != 0 {
		t.Error("expected highlight removed")
	}
}

func TestTree_SetNodeAttr(t *testing.T) {
	tr := welcome(t)
	if err := tr.SetNodeAttr(1, "level", "3"); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[0].Children[0].Attr("level"); got != "3" {
		t.Errorf("expected level 3, got %q", got)
	}
	var sv *SchemaViolation
	if err := tr.SetNodeAttr(1, "level", "9"); !errors.As(err, &sv) {
		t.Errorf("expected SchemaViolation, got %v", err)
	}
	if err := tr.SetNodeAttr(0, "language", "go"); !errors.As(err, &sv) {
		t.Errorf("expected SchemaViolation, got %v", err)
	}
	if err := tr.SetNodeAttr(2, "level", "1"); !errors.Is(err, ErrNoNode) {
		t.Errorf("expected ErrNoNode, got %v", err)
	}
	if err := tr.SetNodeAttr(1, "level", ""); err != nil {
		t.Fatal(err)
	}
	if got := tr.Root().Children[0].Children[0].Attr("level"); got != "0" {
		t.Errorf("expected level reset to 0, got %q", got)
	}
}

func TestTree_FindByID(t *testing.T) {
	tr, err := New(reg, NewDoc(
		NewTextBlock(NewParagraph("a")),
		NewNode(schema.AIBlock, schema.Attrs{"id": "ai-1"}),
	))
	if err != nil {
		t.Fatal(err)
	}
	n, pos, ok := tr.FindByID("ai-1")
	if !ok || n.Kind != schema.AIBlock || pos != 5 {
		t.Errorf("expected aiBlockReact at 5, got %v %d %v", n, pos, ok)
	}
	if _, _, ok := tr.FindByID("missing"); ok {
		t.Error("expected no match")
	}
}

func TestTree_TextBetween(t *testing.T) {
	tr, err := New(reg, NewDoc(NewTextBlock(NewParagraph("ab"), NewParagraph("cd"))))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		from, to int
		want     string
	}{
		{0, 10, "ab\ncd"},
		{3, 7, "b\nc"},
		{2, 4, "ab"},
	}
	for _, tt := range tests {
		got, err := tr.TextBetween(tt.from, tt.to, "\n")
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("TextBetween(%d, %d): expected %q, got %q", tt.from, tt.to, tt.want, got)
		}
	}
	if tr.CharacterCount() != 4 {
		t.Errorf("expected 4 characters, got %d", tr.CharacterCount())
	}
}

func TestTree_Blocks(t *testing.T) {
	tr, err := New(reg, NewDoc(NewTextBlock(NewParagraph("ab")), NewCodeBlock("", "x"), NewAIBlock("")))
	if err != nil {
		t.Fatal(err)
	}
	blocks := tr.Blocks()
	want := []int{0, 6, 9}
	if len(blocks) != len(want) {
		t.Fatalf("expected %d blocks, got %d", len(want), len(blocks))
	}
	for i, b := range blocks {
		if b.Pos != want[i] {
			t.Errorf("block %d: expected pos %d, got %d", i, want[i], b.Pos)
		}
	}
}

func TestTree_CloneIsIndependent(t *testing.T) {
	tr := welcome(t)
	c := tr.Clone()
	if err := c.InsertAt(2, NewText("Hi ")); err != nil {
		t.Fatal(err)
	}
	if tr.Size() != 11 || tr.Root().TextContent() != "Welcome" {
		t.Errorf("original changed: %s", tr)
	}
	tr.Replace(c)
	if tr.Root().TextContent() != "Hi Welcome" {
		t.Errorf("expected replaced content, got %s", tr)
	}
}

func TestTree_Slice(t *testing.T) {
	tr := welcome(t)
	if err := tr.ToggleMark(5, 9, bold); err != nil {
		t.Fatal(err)
	}
	got, err := tr.Slice(3, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Text != "el" || got[1].Text != "co" || !got[1].Marks.Has(bold) {
		t.Errorf("unexpected slice %v", got)
	}
	blocks, err := tr.Slice(0, 11)
	if err != nil || len(blocks) != 1 || blocks[0].Kind != schema.TextBlock {
		t.Errorf("expected the text block, got %v %v", blocks, err)
	}
	if _, err := tr.Slice(2, 10); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestTree_PrimitivesRejectOutOfRange(t *testing.T) {
	tests := map[string]func(tr *Tree, p int) error{
		"InsertAt":    func(tr *Tree, p int) error { return tr.InsertAt(p, NewText("x")) },
		"RemoveRange": func(tr *Tree, p int) error { return tr.RemoveRange(min(p, 0), max(p, 0)) },
		"ToggleMark":  func(tr *Tree, p int) error { return tr.ToggleMark(min(p, 2), max(p, 2), bold) },
		"AddMark":     func(tr *Tree, p int) error { return tr.AddMark(min(p, 2), max(p, 2), bold) },
		"RemoveMark":  func(tr *Tree, p int) error { return tr.RemoveMark(min(p, 2), max(p, 2), schema.Bold) },
		"SetNodeAttr": func(tr *Tree, p int) error { return tr.SetNodeAttr(p, "level", "1") },
		"Resolve":     func(tr *Tree, p int) error { _, err := tr.Resolve(p); return err },
	}
	for name, op := range tests {
		tr := welcome(t)
		orig := tr.Clone()
		for _, p := range []int{-1, tr.Size() + 1} {
			if err := op(tr, p); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("%s(%d): expected ErrOutOfRange, got %v", name, p, err)
			}
			if !tr.Equal(orig) {
				t.Errorf("%s(%d): tree changed to %s", name, p, tr)
			}
		}
	}
}
