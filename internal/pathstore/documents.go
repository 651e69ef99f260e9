package pathstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/blockdoc/internal/markup"
)

// Meta describes a stored document.
type Meta struct {
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	Blocks     int       `json:"blocks"`
	Characters int       `json:"characters"`
	SavedAt    time.Time `json:"saved_at"`
}

// Documents stores documents per user under
// blockdoc/users/{user}/documents/{doc}/{content,meta}.
type Documents struct {
	c *Client
}

func NewDocuments(c *Client) *Documents { return &Documents{c: c} }

func docPrefix(userID, docID string) string {
	return fmt.Sprintf("blockdoc/users/%s/documents/%s", userID, docID)
}

// Save writes the document content, then its metadata.
func (d *Documents) Save(ctx context.Context, userID string, meta Meta, doc markup.Fragment) error {
	prefix := docPrefix(userID, meta.DocID)
	if err := d.c.PutNode(ctx, prefix+"/content", NodeRequest{Value: doc, Source: "blockdoc:" + meta.DocID}); err != nil {
		return fmt.Errorf("save content: %w", err)
	}
	if meta.SavedAt.IsZero() {
		meta.SavedAt = time.Now().UTC()
	}
	if err := d.c.PutNode(ctx, prefix+"/meta", NodeRequest{Value: meta, Source: "blockdoc:" + meta.DocID}); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// Open reads a document's content. A missing document is ErrNotFound.
func (d *Documents) Open(ctx context.Context, userID, docID string) (markup.Fragment, error) {
	var doc markup.Fragment
	node, err := d.c.GetNode(ctx, docPrefix(userID, docID)+"/content")
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(node.Value, &doc); err != nil {
		return doc, fmt.Errorf("decode document %s: %w", docID, err)
	}
	return doc, nil
}

// List returns the metadata of a user's documents, most recently saved
// first.
func (d *Documents) List(ctx context.Context, userID string) ([]Meta, error) {
	children, err := d.c.ListChildren(ctx, fmt.Sprintf("blockdoc/users/%s/documents", userID), 500)
	if err != nil {
		return nil, err
	}
	var out []Meta
	for _, child := range children {
		if !strings.HasSuffix(child.Key, "meta") {
			continue
		}
		var m Meta
		if err := json.Unmarshal(child.Value, &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

// Delete removes a document and its metadata.
func (d *Documents) Delete(ctx context.Context, userID, docID string) error {
	return d.c.DeleteNode(ctx, docPrefix(userID, docID), true)
}
