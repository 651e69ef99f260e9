package generate

import (
	"slices"
	"strings"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	// Roughly 0.75 tokens per word for English text.
	tokens := int(float64(len(strings.Fields(text))) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// Context collects the text of the top-level blocks that end at or before
// pos, nearest first, until budget tokens are used, and returns it in
// document order. AI blocks are skipped.
func Context(t *doctree.Tree, pos, budget int) string {
	if budget <= 0 {
		return ""
	}
	var parts []string
	used := 0
	blocks := t.Blocks()
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if b.Pos+b.Node.Size() > pos || b.Node.Kind == schema.AIBlock {
			continue
		}
		text := blockText(t, b)
		if text == "" {
			continue
		}
		n := EstimateTokens(text)
		if used+n > budget {
			break
		}
		used += n
		parts = append(parts, text)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "\n\n")
}

func blockText(t *doctree.Tree, b doctree.Block) string {
	text, err := t.TextBetween(b.Pos, b.Pos+b.Node.Size(), "\n\n")
	if err != nil {
		return ""
	}
	text = strings.TrimSpace(text)
	if b.Node.Kind == schema.CodeBlock && text != "" {
		return "```" + b.Node.Attr("language") + "\n" + text + "\n```"
	}
	return text
}
