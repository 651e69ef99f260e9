package generate

import (
	"strings"
)

// SystemPrompt frames every generation request.
const SystemPrompt = `You write content for a block document editor. Answer with Markdown only.

Rules:
- Use headings (#, ##, ...) paragraphs, emphasis, inline code, links and fenced code blocks with a language tag
- Do not use tables, images or raw HTML
- Do not repeat the surrounding document back
- Do not add a preamble or closing remarks; the answer is inserted into the document as is`

// BuildPrompt combines the user's block prompt with the document text that
// precedes the AI block.
func BuildPrompt(blockPrompt, context string) string {
	var sb strings.Builder
	if context = strings.TrimSpace(context); context != "" {
		sb.WriteString("The document so far:\n---\n")
		sb.WriteString(context)
		sb.WriteString("\n---\n\n")
	}
	sb.WriteString("Request: ")
	sb.WriteString(strings.TrimSpace(blockPrompt))
	return sb.String()
}
