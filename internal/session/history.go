package session

import (
	"errors"
	"time"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/selection"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// snapshot is a document state the session can return to.
type snapshot struct {
	tree      *doctree.Tree
	selection selection.Selection
	at        time.Time
}

// History keeps bounded undo and redo stacks of whole-document snapshots.
// It is guarded by the owning session's lock.
type History struct {
	undo []snapshot
	redo []snapshot
	max  int
}

// NewHistory creates a history holding at most maxEntries undo steps.
func NewHistory(maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &History{max: maxEntries}
}

// Push records the state before a change and clears the redo stack.
func (h *History) Push(before *doctree.Tree, sel selection.Selection) {
	h.undo = append(h.undo, snapshot{tree: before, selection: sel, at: time.Now()})
	h.redo = nil
	if len(h.undo) > h.max {
		excess := len(h.undo) - h.max
		h.undo = h.undo[excess:]
	}
}

// Undo pops the last snapshot and stores current for Redo.
func (h *History) Undo(current *doctree.Tree, sel selection.Selection) (snapshot, error) {
	if len(h.undo) == 0 {
		return snapshot{}, ErrNothingToUndo
	}
	s := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, snapshot{tree: current, selection: sel, at: time.Now()})
	return s, nil
}

// Redo pops the last undone snapshot and stores current for Undo.
func (h *History) Redo(current *doctree.Tree, sel selection.Selection) (snapshot, error) {
	if len(h.redo) == 0 {
		return snapshot{}, ErrNothingToRedo
	}
	s := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, snapshot{tree: current, selection: sel, at: time.Now()})
	return s, nil
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo, h.redo = nil, nil
}
