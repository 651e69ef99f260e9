package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// CSVImporter handles CSV files: a bold header paragraph followed by one
// paragraph per row, in text blocks of batchSize rows.
type CSVImporter struct{}

const batchSize = 20

func (p *CSVImporter) Import(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	doc := &Document{Title: title(filename)}
	if len(records) == 0 {
		return doc, nil
	}

	headers := records[0]
	rows := records[1:]
	var b builder
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		b.paragraph(3, doctree.NewText(fmt.Sprintf("Rows %d-%d", i+2, end+1)))
		b.paragraph(0, doctree.NewText(strings.Join(headers, ", "), schema.Mark{Tag: schema.Bold}))
		for _, row := range rows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				if j < len(headers) {
					cells = append(cells, headers[j]+": "+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			b.text(0, strings.Join(cells, ", "))
		}
		b.flush()
	}
	if len(rows) == 0 {
		b.paragraph(0, doctree.NewText(strings.Join(headers, ", "), schema.Mark{Tag: schema.Bold}))
	}
	doc.Blocks = b.finish()
	return doc, nil
}
