package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/blockdoc/internal/command"
	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/export"
	"github.com/dgallion1/blockdoc/internal/importer"
	"github.com/dgallion1/blockdoc/internal/pathstore"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// handleSerialize writes the document as a markup fragment (default), HTML
// or markdown.
func (s *Server) handleSerialize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		writeJSON(w, http.StatusOK, map[string]any{
			"session_id": sess.ID(),
			"revision":   sess.Revision(),
			"document":   sess.Serialize(),
		})
	case "html":
		out, err := sess.SerializeHTML()
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, out)
	case "markdown", "md":
		var buf bytes.Buffer
		if err := sess.Read(func(t *doctree.Tree) error { return export.Markdown(&buf, t) }); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write(buf.Bytes())
	default:
		jsonError(w, fmt.Sprintf("unsupported format: %s", format), http.StatusBadRequest)
	}
}

// handleLoad replaces the document from JSON ({"document"} or {"html"}) or a
// raw text/html body.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/html") {
		data, rerr := io.ReadAll(r.Body)
		if rerr != nil {
			jsonError(w, "failed to read body", http.StatusBadRequest)
			return
		}
		err = sess.LoadHTML(string(data))
	} else {
		var req loadRequest
		if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
			jsonError(w, "invalid JSON: "+derr.Error(), http.StatusBadRequest)
			return
		}
		if req.Document == nil && req.HTML == "" {
			jsonError(w, "document or html is required", http.StatusBadRequest)
			return
		}
		err = req.apply(sess)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, sess)
}

// outlineEntry describes one top-level block for insert menus and drag
// handles.
type outlineEntry struct {
	Pos     int    `json:"pos"`
	End     int    `json:"end"`
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Level   int    `json:"level,omitempty"`
	Preview string `json:"preview"`
}

const previewLen = 80

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var out []outlineEntry
	sess.Read(func(t *doctree.Tree) error {
		for _, b := range t.Blocks() {
			e := outlineEntry{
				Pos:  b.Pos,
				End:  b.Pos + b.Node.Size(),
				Kind: b.Node.Kind.Name(),
				ID:   b.Node.ID(),
			}
			switch b.Node.Kind {
			case schema.AIBlock:
				e.Preview = b.Node.Attr("prompt")
			default:
				e.Preview = b.Node.TextContent()
			}
			if b.Node.Kind == schema.TextBlock && len(b.Node.Children) > 0 {
				e.Level, _ = strconv.Atoi(b.Node.Children[0].Attr("level"))
			}
			if r := []rune(e.Preview); len(r) > previewLen {
				e.Preview = string(r[:previewLen])
			}
			out = append(out, e)
		}
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sess.ID(), "blocks": out})
}

// readUpload parses a multipart upload and imports its "file" part.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*importer.Document, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	imp, err := importer.ForFile(filename)
	if err != nil {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return nil, false
	}
	if p, ok := imp.(*importer.PDFImporter); ok {
		p.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, false
	}

	doc, err := imp.Import(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Warn("import failed", "filename", filename, "error", err)
		jsonError(w, "import failed: "+err.Error(), http.StatusUnprocessableEntity)
		return nil, false
	}
	s.log.Info("file imported", "filename", filename, "blocks", len(doc.Blocks))
	return doc, true
}

// handleImport inserts the blocks of an uploaded file at the "position" form
// field, or at the end of the document.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	doc, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if len(doc.Blocks) == 0 {
		s.writeState(w, http.StatusOK, sess)
		return
	}

	pos := sess.DocumentSize()
	if v := r.FormValue("position"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			jsonError(w, "position must be an integer", http.StatusBadRequest)
			return
		}
		pos = n
	}

	err := sess.Run(&command.InsertFragment{Position: &pos, Fragments: doc.Fragments(sess.Codec())})
	outcome := "ok"
	if err != nil {
		outcome = string(command.CodeOf(err))
	}
	s.metrics.observeCommand("insertFragment", outcome)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, sess)
}

type saveRequest struct {
	UserID string `json:"user_id"`
	DocID  string `json:"doc_id"`
	Title  string `json:"title"`
}

func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if req.DocID == "" {
		req.DocID = sess.ID()
	}

	var blocks int
	sess.Read(func(t *doctree.Tree) error {
		blocks = len(t.Blocks())
		return nil
	})
	meta := pathstore.Meta{
		DocID:      req.DocID,
		Title:      req.Title,
		Blocks:     blocks,
		Characters: sess.CharacterCount(),
		SavedAt:    time.Now().UTC(),
	}
	if err := s.docs.Save(r.Context(), req.UserID, meta, sess.Serialize()); err != nil {
		s.log.Error("save document", "doc_id", req.DocID, "error", err)
		writeError(w, err)
		return
	}
	s.log.Info("document saved", "session_id", sess.ID(), "doc_id", req.DocID, "user_id", req.UserID)
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}
	docs, err := s.docs.List(r.Context(), userID)
	if err != nil {
		s.log.Error("list documents", "user_id", userID, "error", err)
		jsonError(w, "failed to list documents", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

// handleOpenDocument starts a new session on a stored document.
func (s *Server) handleOpenDocument(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}
	docID := chi.URLParam(r, "docID")
	doc, err := s.docs.Open(r.Context(), userID, docID)
	if err != nil {
		writeError(w, err)
		return
	}
	sess := s.newSession()
	if err := sess.Load(doc); err != nil {
		writeError(w, err)
		return
	}
	s.sessions.Put(sess)
	s.log.Info("document opened", "session_id", sess.ID(), "doc_id", docID, "user_id", userID)
	s.writeState(w, http.StatusCreated, sess)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return
	}
	docID := chi.URLParam(r, "docID")
	if err := s.docs.Delete(r.Context(), userID, docID); err != nil {
		s.log.Error("delete document", "doc_id", docID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": docID})
}
