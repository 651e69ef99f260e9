package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/blockdoc/internal/command"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/selection"
	"github.com/dgallion1/blockdoc/internal/session"
)

// sessionState is the response body of every session mutation.
type sessionState struct {
	SessionID  string          `json:"session_id"`
	Revision   uint64          `json:"revision"`
	Size       int             `json:"size"`
	Characters int             `json:"characters"`
	CanUndo    bool            `json:"can_undo"`
	CanRedo    bool            `json:"can_redo"`
	State      selection.State `json:"state"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (s *Server) newSession() *session.Session {
	return session.New(command.NewUUID(), s.reg, session.Options{
		HistoryDepth:   s.cfg.HistoryDepth,
		CharacterLimit: s.cfg.CharacterLimit,
		IDFunc:         command.NewUUID,
		Logger:         s.log,
	})
}

// session resolves the {sessionID} URL parameter, writing a 404 if absent.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess := s.sessions.Get(id)
	if sess == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "session not found", "code": "session_not_found"})
		return nil, false
	}
	return sess, true
}

func (s *Server) writeState(w http.ResponseWriter, code int, sess *session.Session) {
	st, err := sess.CurrentSelectionState()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, code, sessionState{
		SessionID:  sess.ID(),
		Revision:   sess.Revision(),
		Size:       sess.DocumentSize(),
		Characters: sess.CharacterCount(),
		CanUndo:    sess.CanUndo(),
		CanRedo:    sess.CanRedo(),
		State:      st,
		UpdatedAt:  sess.UpdatedAt(),
	})
}

// loadRequest carries an initial or replacement document: either the markup
// fragment form or HTML.
type loadRequest struct {
	Document *markup.Fragment `json:"document,omitempty"`
	HTML     string           `json:"html,omitempty"`
}

func (req loadRequest) apply(sess *session.Session) error {
	switch {
	case req.Document != nil:
		return sess.Load(*req.Document)
	case req.HTML != "":
		return sess.LoadHTML(req.HTML)
	}
	return nil
}

// handleCreateSession starts a session on the empty document, a JSON
// document, or an uploaded file.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.newSession()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		doc, ok := s.readUpload(w, r)
		if !ok {
			return
		}
		if err := sess.Load(doc.Root(sess.Codec())); err != nil {
			writeError(w, err)
			return
		}
	} else {
		var req loadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := req.apply(sess); err != nil {
			writeError(w, err)
			return
		}
	}

	s.sessions.Put(sess)
	s.log.Info("session created", "session_id", sess.ID())
	s.writeState(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := s.sessions.List()
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids, "count": len(ids)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeState(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.Delete(id) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "session not found", "code": "session_not_found"})
		return
	}
	s.log.Info("session deleted", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// executeRequest is either a single command or an atomic chain.
type executeRequest struct {
	Name   string               `json:"name,omitempty"`
	Params json.RawMessage      `json:"params,omitempty"`
	Chain  []command.Invocation `json:"chain,omitempty"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	label := req.Name
	switch {
	case len(req.Chain) > 0:
		label = "chain"
		err = sess.ExecuteChain(req.Chain)
	case req.Name != "":
		err = sess.Execute(req.Name, req.Params)
	default:
		jsonError(w, "name or chain is required", http.StatusBadRequest)
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = string(command.CodeOf(err))
	}
	if command.CodeOf(err) == command.CodeUnknownCommand {
		label = "unknown"
	}
	s.metrics.observeCommand(label, outcome)

	if err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, sess)
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var sel selection.Selection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.SetSelection(sel); err != nil {
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, sess)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, (*session.Session).Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, (*session.Session).Redo)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request, step func(*session.Session) error) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := step(sess); err != nil {
		if !errors.Is(err, session.ErrNothingToUndo) && !errors.Is(err, session.ErrNothingToRedo) {
			s.log.Error("history step failed", "session_id", sess.ID(), "error", err)
		}
		writeError(w, err)
		return
	}
	s.writeState(w, http.StatusOK, sess)
}
