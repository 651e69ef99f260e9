package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/blockdoc/internal/command"
	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/pathstore"
	"github.com/dgallion1/blockdoc/internal/pipeline"
	"github.com/dgallion1/blockdoc/internal/session"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

var commandStatus = map[command.Code]int{
	command.CodeSchemaViolation: http.StatusUnprocessableEntity,
	command.CodeMarkNotAllowed:  http.StatusUnprocessableEntity,
	command.CodeNotReorderable:  http.StatusUnprocessableEntity,
	command.CodeCharacterLimit:  http.StatusUnprocessableEntity,
	command.CodeNoTarget:        http.StatusUnprocessableEntity,
	command.CodeOutOfRange:      http.StatusBadRequest,
	command.CodeInvalidRange:    http.StatusBadRequest,
	command.CodeInvalidParams:   http.StatusBadRequest,
	command.CodeParse:           http.StatusBadRequest,
	command.CodeUnknownCommand:  http.StatusBadRequest,
	command.CodeInternal:        http.StatusInternalServerError,
}

// writeError maps a domain error to a status code and writes
// {"error": ..., "code": ...}.
func writeError(w http.ResponseWriter, err error) {
	var (
		ce *command.CommandError
		pe *markup.ParseError
	)
	switch {
	case errors.As(err, &ce):
		code, ok := commandStatus[ce.Code]
		if !ok {
			code = http.StatusInternalServerError
		}
		body := map[string]any{"error": ce.Error(), "code": ce.Code, "command": ce.Command}
		if ce.Step > 0 {
			body["step"] = ce.Step
		}
		writeJSON(w, code, body)
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "code": command.CodeParse})
	case errors.Is(err, session.ErrNothingToUndo), errors.Is(err, session.ErrNothingToRedo):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "code": "history_empty"})
	case errors.Is(err, doctree.ErrOutOfRange):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "code": command.CodeOutOfRange})
	case errors.Is(err, session.ErrBlockNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error(), "code": "block_not_found"})
	case errors.Is(err, pipeline.ErrEmptyPrompt):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error(), "code": "empty_prompt"})
	case errors.Is(err, pipeline.ErrQueueFull):
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": err.Error(), "code": "queue_full"})
	case errors.Is(err, pipeline.ErrJobFinished):
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "code": "job_finished"})
	case errors.Is(err, pipeline.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error(), "code": "session_not_found"})
	case errors.Is(err, pathstore.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error(), "code": "document_not_found"})
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
