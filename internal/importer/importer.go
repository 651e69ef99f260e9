// Package importer converts external files into editor blocks.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// Importer converts raw file bytes into a Document.
type Importer interface {
	Import(r io.Reader, filename string) (*Document, error)
}

// Document is the result of an import: top-level blocks ready to load or
// insert.
type Document struct {
	Title  string
	Blocks []*doctree.Node
}

// Fragments renders the blocks in markup form.
func (d *Document) Fragments(c *markup.Codec) []markup.Fragment {
	out := make([]markup.Fragment, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		out = append(out, c.Render(b))
	}
	return out
}

// Root renders the whole document as a doc fragment. An import with no
// content yields the empty document.
func (d *Document) Root(c *markup.Codec) markup.Fragment {
	blocks := d.Fragments(c)
	if len(blocks) == 0 {
		blocks = []markup.Fragment{{Tag: schema.TextBlock.Name(), Children: []markup.Fragment{{Tag: schema.Paragraph.Name()}}}}
	}
	return markup.Fragment{Tag: schema.RootDocument.Name(), Children: blocks}
}

// SupportedExtensions lists file extensions this service can import.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate importer for a filename.
func ForFile(filename string) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextImporter{}, nil
	case ".md", ".markdown":
		return &MarkdownImporter{}, nil
	case ".csv":
		return &CSVImporter{}, nil
	case ".html", ".htm":
		return &HTMLImporter{}, nil
	case ".pdf":
		return &PDFImporter{}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func title(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}
