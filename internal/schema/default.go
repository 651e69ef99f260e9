package schema

import "fmt"

// Content pattern sources accepted for TextBlock.
const (
	TextBlockParagraphs = "paragraph+"
	TextBlockBlocks     = "(paragraph | textBlock | codeBlockCustom | aiBlockReact)+"
)

// Options selects between alternative configurations of the block schema.
type Options struct {
	// TextBlockContent is TextBlockParagraphs (default) or TextBlockBlocks.
	TextBlockContent string
}

var defaultRegistry = MustNew(Options{})

// Default returns the process-wide registry with the canonical configuration.
func Default() *Registry { return defaultRegistry }

// MustNew is New for package initialization; a schema conflict aborts startup.
func MustNew(opts Options) *Registry {
	r, err := New(opts)
	if err != nil {
		panic(err)
	}
	return r
}

// New builds and freezes the block editor schema.
func New(opts Options) (*Registry, error) {
	r := NewRegistry()

	idAttr := StringAttr("id", "data-id", "")
	aiAttr := BoolAttr("aiGenerated", "data-ai-generated")

	specs := []KindSpec{
		{
			Kind:    RootDocument,
			Content: Seq(OneOrMore(TextBlock, CodeBlock, AIBlock)),
			Block:   true,
		},
		{
			Kind:    CodeBlock,
			Content: Seq(ZeroOrMore(Text)),
			Attrs: AttrSchema{
				StringAttr("language", "data-language", "plaintext"),
				idAttr,
				aiAttr,
			},
			Block:       true,
			RootChild:   true,
			Reorderable: true,
			Code:        true,
			Groups:      []string{"block"},
		},
		{
			Kind:    AIBlock,
			Content: Leaf(),
			Attrs: AttrSchema{
				idAttr,
				StringAttr("prompt", "data-prompt", ""),
			},
			Block:       true,
			RootChild:   true,
			Reorderable: true,
			Groups:      []string{"block"},
		},
		{
			Kind:    Paragraph,
			Content: Seq(ZeroOrMore(Text)),
			Attrs: AttrSchema{
				IntRangeAttr("level", "data-level", 0, 0, 6),
				EnumAttr("textAlign", "data-text-align", "left", "left", "center", "right", "justify"),
			},
			Markable: true,
			Block:    true,
			Groups:   []string{"block"},
		},
		{
			Kind:     Text,
			Content:  Leaf(),
			LeafText: true,
			Groups:   []string{"inline"},
		},
	}
	for _, s := range specs {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}

	src := opts.TextBlockContent
	if src == "" {
		src = TextBlockParagraphs
	}
	if src != TextBlockParagraphs && src != TextBlockBlocks {
		return nil, fmt.Errorf("unsupported text block content %q", src)
	}
	content, err := CompilePattern(src, r.Resolve)
	if err != nil {
		return nil, err
	}
	err = r.Register(KindSpec{
		Kind:        TextBlock,
		Content:     content,
		Attrs:       AttrSchema{idAttr, aiAttr},
		Block:       true,
		RootChild:   true,
		Reorderable: true,
		Groups:      []string{"block"},
	})
	if err != nil {
		return nil, err
	}
	if err := r.Freeze(); err != nil {
		return nil, err
	}
	return r, nil
}
