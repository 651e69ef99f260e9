// Package command implements named, parameterized document edits built from
// the doctree primitives, and the pipeline that applies them as atomic
// chains.
package command

import (
	"encoding/json"
	"fmt"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/markup"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// Command is one edit. Apply may leave env.Tree half changed on error; the
// pipeline discards that copy.
type Command interface {
	Name() string
	Apply(env *Env) error
}

// Env is what a command sees while it runs.
type Env struct {
	Tree *doctree.Tree
	// Selection supplies the range or position of commands that omit one.
	// Commands that move the caret update it.
	Selection Range
	Codec     *markup.Codec
	// NewID, when set, assigns ids to inserted top-level blocks.
	NewID func() string
}

// Range is a [From, To] pair of positions. In JSON it is either
// {"from": 2, "to": 9} or [2, 9].
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Cursor is an empty range at p.
func Cursor(p int) Range { return Range{From: p, To: p} }

// Empty reports whether the range selects nothing.
func (r Range) Empty() bool { return r.From == r.To }

// Normalized orders the ends.
func (r Range) Normalized() Range {
	if r.From > r.To {
		return Range{From: r.To, To: r.From}
	}
	return r
}

func (r *Range) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("range needs two positions, got %d", len(pair))
		}
		r.From, r.To = pair[0], pair[1]
		return nil
	}
	type plain Range
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Range(p)
	return nil
}

func (e *Env) rangeOr(r *Range) Range {
	if r == nil {
		return e.Selection.Normalized()
	}
	return r.Normalized()
}

func (e *Env) posOr(p *int) int {
	if p == nil {
		return e.Selection.Normalized().To
	}
	return *p
}

func (e *Env) newID() string {
	if e.NewID == nil {
		return ""
	}
	return e.NewID()
}

func (e *Env) reg() *schema.Registry { return e.Tree.Registry() }

// Pipeline applies commands transactionally.
type Pipeline struct {
	reg   *schema.Registry
	codec *markup.Codec
	newID func() string
	limit int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithIDFunc makes inserted top-level blocks carry an id from fn.
func WithIDFunc(fn func() string) Option {
	return func(p *Pipeline) { p.newID = fn }
}

// WithCharacterLimit rejects runs that leave more than n text characters
// and grow the document. Zero disables the limit.
func WithCharacterLimit(n int) Option {
	return func(p *Pipeline) { p.limit = n }
}

// NewPipeline returns a pipeline for trees built on reg.
func NewPipeline(reg *schema.Registry, opts ...Option) *Pipeline {
	p := &Pipeline{reg: reg, codec: markup.NewCodec(reg)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Codec returns the markup codec the pipeline parses fragments with.
func (p *Pipeline) Codec() *markup.Codec { return p.codec }

// Run applies cmds in order to a copy of t and, only if every one succeeds,
// replaces t's content with the result. It returns the selection the
// commands left behind. On failure t is untouched and the error is a
// *CommandError naming the failing step.
func (p *Pipeline) Run(t *doctree.Tree, sel Range, cmds ...Command) (Range, error) {
	work := t.Clone()
	env := &Env{Tree: work, Selection: sel, Codec: p.codec, NewID: p.newID}
	for i, c := range cmds {
		if err := c.Apply(env); err != nil {
			return sel, Wrap(c.Name(), i, err)
		}
	}
	if p.limit > 0 && len(cmds) > 0 {
		if n := work.CharacterCount(); n > p.limit && n > t.CharacterCount() {
			last := len(cmds) - 1
			return sel, &CommandError{Command: cmds[last].Name(), Step: last, Code: CodeCharacterLimit,
				Err: fmt.Errorf("%w: %d characters, limit %d", ErrCharacterLimit, n, p.limit)}
		}
	}
	t.Replace(work)
	return env.Selection, nil
}

// Execute decodes one named command and runs it.
func (p *Pipeline) Execute(t *doctree.Tree, sel Range, name string, params json.RawMessage) (Range, error) {
	c, err := Decode(name, params)
	if err != nil {
		return sel, Wrap(name, 0, err)
	}
	return p.Run(t, sel, c)
}

// Invocation is one named command with raw parameters, as sent by a shell.
type Invocation struct {
	Name   string          `json:"name"`
	Params json.RawMessage `json:"params,omitempty"`
}

// ExecuteChain decodes every invocation before running any of them.
func (p *Pipeline) ExecuteChain(t *doctree.Tree, sel Range, chain []Invocation) (Range, error) {
	cmds := make([]Command, len(chain))
	for i, inv := range chain {
		c, err := Decode(inv.Name, inv.Params)
		if err != nil {
			return sel, Wrap(inv.Name, i, err)
		}
		cmds[i] = c
	}
	return p.Run(t, sel, cmds...)
}
