// Package session owns one document per editing session and exposes the
// command-issuing interface a shell drives: execute, selection state,
// serialize and load. A session serializes its callers; the tree inside has
// no locks of its own.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/blockdoc/internal/command"
	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/schema"
	"github.com/dgallion1/blockdoc/internal/selection"
)

// ErrBlockNotFound is returned when generated content targets an AI block
// that no longer exists.
var ErrBlockNotFound = errors.New("ai block not found")

// Options configures a Session.
type Options struct {
	HistoryDepth   int
	CharacterLimit int
	// IDFunc assigns ids to inserted top-level blocks; nil leaves them null.
	IDFunc func() string
	Logger *slog.Logger
}

// Session is one editor instance.
type Session struct {
	mu sync.Mutex

	id       string
	tree     *doctree.Tree
	pipeline *command.Pipeline
	codec    *markup.Codec
	history  *History
	sel      selection.Selection
	revision uint64
	log      *slog.Logger

	createdAt time.Time
	updatedAt time.Time
}

// New starts a session on the empty document.
func New(id string, reg *schema.Registry, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	popts := []command.Option{command.WithCharacterLimit(opts.CharacterLimit)}
	if opts.IDFunc != nil {
		popts = append(popts, command.WithIDFunc(opts.IDFunc))
	}
	p := command.NewPipeline(reg, popts...)
	now := time.Now()
	return &Session{
		id:        id,
		tree:      doctree.Empty(reg),
		pipeline:  p,
		codec:     p.Codec(),
		history:   NewHistory(opts.HistoryDepth),
		sel:       selection.Caret(2),
		log:       log.With("session_id", id),
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Codec returns the codec bound to the session's registry.
func (s *Session) Codec() *markup.Codec { return s.codec }

// Execute runs one named command on the current selection.
func (s *Session) Execute(name string, params json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(name, func(t *doctree.Tree, sel command.Range) (command.Range, error) {
		return s.pipeline.Execute(t, sel, name, params)
	})
}

// ExecuteChain runs the invocations as one atomic user action.
func (s *Session) ExecuteChain(chain []command.Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply("chain", func(t *doctree.Tree, sel command.Range) (command.Range, error) {
		return s.pipeline.ExecuteChain(t, sel, chain)
	})
}

// Run applies typed commands as one atomic user action.
func (s *Session) Run(cmds ...command.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply("run", func(t *doctree.Tree, sel command.Range) (command.Range, error) {
		return s.pipeline.Run(t, sel, cmds...)
	})
}

// apply runs fn and, on success, records history, moves the selection and
// bumps the revision.
func (s *Session) apply(label string, fn func(*doctree.Tree, command.Range) (command.Range, error)) error {
	before := s.tree.Clone()
	from, to := s.sel.Bounds()
	after, err := fn(s.tree, command.Range{From: from, To: to})
	if err != nil {
		s.log.Debug("command rejected", "command", label, "code", command.CodeOf(err), "error", err)
		return err
	}
	s.history.Push(before, s.sel)
	if after.From == from && after.To == to {
		s.sel = s.sel.Clamp(s.tree.Size())
	} else {
		s.sel = selection.Span(after.From, after.To).Clamp(s.tree.Size())
	}
	s.changed()
	return nil
}

func (s *Session) changed() {
	s.revision++
	s.updatedAt = time.Now()
}

// CurrentSelectionState projects the toolbar state of the selection.
func (s *Session) CurrentSelectionState() (selection.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selection.Project(s.tree, s.sel)
}

// Selection returns the current selection.
func (s *Session) Selection() selection.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// SetSelection moves the selection; both ends must be in range.
func (s *Session) SetSelection(sel selection.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	size := s.tree.Size()
	for _, p := range []int{sel.Anchor, sel.Head} {
		if p < 0 || p > size {
			return fmt.Errorf("set selection: %w: %d not in [0, %d]", doctree.ErrOutOfRange, p, size)
		}
	}
	s.sel = sel
	s.updatedAt = time.Now()
	return nil
}

// DocumentSize returns the position size of the document.
func (s *Session) DocumentSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Size()
}

// CharacterCount returns the number of text characters.
func (s *Session) CharacterCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.CharacterCount()
}

// Revision increases on every successful change.
func (s *Session) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// UpdatedAt is the time of the last change or selection move.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Serialize renders the document in markup form.
func (s *Session) Serialize() markup.Fragment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec.RenderDocument(s.tree)
}

// SerializeHTML renders the document in the HTML wire form.
func (s *Session) SerializeHTML() (string, error) {
	return markup.EncodeHTML(s.Serialize())
}

// Load replaces the document. On any parse error the current document is
// kept as it was.
func (s *Session) Load(f markup.Fragment) error {
	t, err := s.codec.ParseDocument(f)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replace(t)
	return nil
}

// LoadHTML sanitizes and decodes HTML, then loads it.
func (s *Session) LoadHTML(src string) error {
	frags, err := markup.DecodeHTML(markup.Sanitize(src))
	if err != nil {
		return fmt.Errorf("load html: %w", err)
	}
	return s.Load(markup.Fragment{Tag: schema.RootDocument.Name(), Children: frags})
}

func (s *Session) replace(t *doctree.Tree) {
	s.tree.Replace(t)
	s.history.Clear()
	s.sel = selection.Caret(2).Clamp(s.tree.Size())
	s.changed()
	s.log.Info("document loaded", "size", s.tree.Size(), "blocks", len(s.tree.Root().Children))
}

// Undo restores the state before the last change.
func (s *Session) Undo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.history.Undo(s.tree.Clone(), s.sel)
	if err != nil {
		return err
	}
	s.restore(snap)
	return nil
}

// Redo reapplies the last undone change.
func (s *Session) Redo() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, err := s.history.Redo(s.tree.Clone(), s.sel)
	if err != nil {
		return err
	}
	s.restore(snap)
	return nil
}

func (s *Session) restore(snap snapshot) {
	s.tree.Replace(snap.tree)
	s.sel = snap.selection.Clamp(s.tree.Size())
	s.changed()
}

// CanUndo and CanRedo report history availability for toolbar buttons.
func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// Read calls fn with the tree under the session lock. fn must not keep the
// tree or its nodes after it returns.
func (s *Session) Read(fn func(t *doctree.Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.tree)
}

// ApplyGeneration inserts generated fragments right after the AI block with
// blockID in a single insertion. The caret keeps its place relative to the
// text around it.
func (s *Session) ApplyGeneration(blockID string, frags []markup.Fragment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, pos, ok := s.tree.FindByID(blockID)
	if !ok || n.Kind != schema.AIBlock {
		return fmt.Errorf("%w: %q", ErrBlockNotFound, blockID)
	}
	at := pos + n.Size()
	sizeBefore := s.tree.Size()
	sel := s.sel
	err := s.apply("generation", func(t *doctree.Tree, r command.Range) (command.Range, error) {
		_, err := s.pipeline.Run(t, r, &command.InsertFragment{Position: &at, Fragments: frags})
		return r, err
	})
	if err != nil {
		return err
	}
	shift := func(p int) int {
		if p >= at {
			return p + s.tree.Size() - sizeBefore
		}
		return p
	}
	s.sel = selection.Span(shift(sel.Anchor), shift(sel.Head)).Clamp(s.tree.Size())
	return nil
}
