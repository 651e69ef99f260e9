package importer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// DOCXImporter handles .docx files. Heading styles become paragraph levels
// and bold, italic and underline runs become marks.
type DOCXImporter struct{}

func (p *DOCXImporter) Import(r io.Reader, filename string) (*Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "blockdoc-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var b builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		b.paragraph(docxHeadingLevel(para), docxRuns(para)...)
	}
	return &Document{Title: title(filename), Blocks: b.finish()}, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if rest, ok := strings.CutPrefix(style, "heading"); ok && len(rest) == 1 && rest[0] >= '1' && rest[0] <= '6' {
		return int(rest[0] - '0')
	}
	if style == "title" {
		return 1
	}
	return 0
}

func docxRuns(para *docx.Paragraph) []*doctree.Node {
	var in inline
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		n := 0
		if props := run.RunProperties; props != nil {
			if props.Bold != nil {
				in.push(schema.Mark{Tag: schema.Bold})
				n++
			}
			if props.Italic != nil {
				in.push(schema.Mark{Tag: schema.Italic})
				n++
			}
			if props.Underline != nil {
				in.push(schema.Mark{Tag: schema.Underline})
				n++
			}
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				in.write(t.Text)
			}
		}
		for range n {
			in.pop()
		}
	}
	return in.trimmed()
}
