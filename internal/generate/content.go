package generate

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dgallion1/blockdoc/internal/importer"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// ErrEmptyContent is returned when an answer holds no usable blocks.
var ErrEmptyContent = errors.New("generated content is empty")

var markdownFenceRe = regexp.MustCompile("(?s)^```(?:markdown|md)\\s*\n(.*?)\\s*```$")

// stripMarkdownFence unwraps an answer that was wrapped whole in a markdown
// fence.
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if m := markdownFenceRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// Blocks converts a markdown answer into top-level fragments flagged as AI
// generated.
func Blocks(c *markup.Codec, answer string) ([]markup.Fragment, error) {
	blocks := importer.MarkdownBlocks([]byte(stripMarkdownFence(answer)))
	if len(blocks) == 0 {
		return nil, ErrEmptyContent
	}
	out := make([]markup.Fragment, 0, len(blocks))
	for _, b := range blocks {
		if b.Kind == schema.TextBlock || b.Kind == schema.CodeBlock {
			if b.Attrs == nil {
				b.Attrs = schema.Attrs{}
			}
			b.Attrs["aiGenerated"] = "true"
		}
		out = append(out, c.Render(b))
	}
	return out, nil
}
