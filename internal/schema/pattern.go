package schema

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Unbounded is the max count of a term with no upper limit.
const Unbounded = -1

// Term is one quantified position in a content pattern: between Min and Max
// children, each of one of Kinds.
type Term struct {
	Kinds []NodeKind
	Min   int
	Max   int
}

// ExactlyOne matches a single child of one of kinds.
func ExactlyOne(kinds ...NodeKind) Term { return Term{Kinds: kinds, Min: 1, Max: 1} }

// OneOrMore matches a non-empty run of children drawn from kinds.
func OneOrMore(kinds ...NodeKind) Term { return Term{Kinds: kinds, Min: 1, Max: Unbounded} }

// ZeroOrMore matches a possibly empty run of children drawn from kinds.
func ZeroOrMore(kinds ...NodeKind) Term { return Term{Kinds: kinds, Min: 0, Max: Unbounded} }

// Optional matches zero or one child of one of kinds.
func Optional(kinds ...NodeKind) Term { return Term{Kinds: kinds, Min: 0, Max: 1} }

func (t Term) accepts(k NodeKind) bool { return slices.Contains(t.Kinds, k) }

func (t Term) String() string {
	names := make([]string, len(t.Kinds))
	for i, k := range t.Kinds {
		names[i] = k.Name()
	}
	s := strings.Join(names, " | ")
	if len(names) > 1 {
		s = "(" + s + ")"
	}
	switch {
	case t.Min == 1 && t.Max == 1:
		return s
	case t.Min == 1 && t.Max == Unbounded:
		return s + "+"
	case t.Min == 0 && t.Max == Unbounded:
		return s + "*"
	case t.Min == 0 && t.Max == 1:
		return s + "?"
	}
	return fmt.Sprintf("%s{%d,%d}", s, t.Min, t.Max)
}

// Pattern is an ordered sequence of terms. The zero Pattern accepts only the
// empty child sequence.
type Pattern struct {
	terms []Term
}

// Seq builds a pattern from terms matched in order.
func Seq(terms ...Term) Pattern {
	out := make([]Term, len(terms))
	for i, t := range terms {
		out[i] = Term{Kinds: slices.Clone(t.Kinds), Min: t.Min, Max: t.Max}
	}
	return Pattern{terms: out}
}

// Leaf is the pattern of a node that holds no children.
func Leaf() Pattern { return Pattern{} }

// IsLeaf reports whether the pattern admits no children at all.
func (p Pattern) IsLeaf() bool { return len(p.terms) == 0 }

// Terms returns a copy of the pattern's terms.
func (p Pattern) Terms() []Term { return slices.Clone(p.terms) }

// Allows reports whether kind may appear somewhere in a matching sequence.
func (p Pattern) Allows(kind NodeKind) bool {
	for _, t := range p.terms {
		if t.Max != 0 && t.accepts(kind) {
			return true
		}
	}
	return false
}

// Equal reports whether two patterns declare the same terms.
func (p Pattern) Equal(o Pattern) bool {
	return slices.EqualFunc(p.terms, o.terms, func(a, b Term) bool {
		return a.Min == b.Min && a.Max == b.Max && slices.Equal(a.Kinds, b.Kinds)
	})
}

func (p Pattern) String() string {
	parts := make([]string, len(p.terms))
	for i, t := range p.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

// Match tests a candidate child sequence against the pattern.
func (p Pattern) Match(kinds []NodeKind) bool {
	// memo[ti][ci]: 0 unknown, 1 match, 2 no match
	memo := make([][]uint8, len(p.terms)+1)
	for i := range memo {
		memo[i] = make([]uint8, len(kinds)+1)
	}
	var match func(ti, ci int) bool
	match = func(ti, ci int) bool {
		if ti == len(p.terms) {
			return ci == len(kinds)
		}
		if v := memo[ti][ci]; v != 0 {
			return v == 1
		}
		t := p.terms[ti]
		ok := false
		for n := 0; ; n++ {
			if n >= t.Min && match(ti+1, ci+n) {
				ok = true
				break
			}
			if t.Max != Unbounded && n >= t.Max {
				break
			}
			if ci+n >= len(kinds) || !t.accepts(kinds[ci+n]) {
				break
			}
		}
		if ok {
			memo[ti][ci] = 1
		} else {
			memo[ti][ci] = 2
		}
		return ok
	}
	return match(0, 0)
}

// CompilePattern parses the textual pattern form, e.g.
// "(textBlock | codeBlockCustom)+ paragraph*". Names are resolved through
// resolve, which may map a group name to several kinds.
func CompilePattern(src string, resolve func(name string) ([]NodeKind, bool)) (Pattern, error) {
	p := &patternParser{src: src, resolve: resolve}
	var terms []Term
	for {
		p.skipSpace()
		if p.done() {
			break
		}
		t, err := p.term()
		if err != nil {
			return Pattern{}, fmt.Errorf("compile pattern %q: %w", src, err)
		}
		terms = append(terms, t)
	}
	return Pattern{terms: terms}, nil
}

type patternParser struct {
	src     string
	pos     int
	resolve func(string) ([]NodeKind, bool)
}

func (p *patternParser) done() bool { return p.pos >= len(p.src) }

func (p *patternParser) skipSpace() {
	for !p.done() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *patternParser) term() (Term, error) {
	var kinds []NodeKind
	if p.src[p.pos] == '(' {
		p.pos++
		for {
			p.skipSpace()
			ks, err := p.name()
			if err != nil {
				return Term{}, err
			}
			kinds = appendUnique(kinds, ks...)
			p.skipSpace()
			if p.done() {
				return Term{}, fmt.Errorf("unclosed group")
			}
			c := p.src[p.pos]
			p.pos++
			if c == ')' {
				break
			}
			if c != '|' {
				return Term{}, fmt.Errorf("unexpected %q at %d", c, p.pos-1)
			}
		}
	} else {
		ks, err := p.name()
		if err != nil {
			return Term{}, err
		}
		kinds = appendUnique(kinds, ks...)
	}
	t := Term{Kinds: kinds, Min: 1, Max: 1}
	if !p.done() {
		switch p.src[p.pos] {
		case '+':
			t.Max = Unbounded
			p.pos++
		case '*':
			t.Min, t.Max = 0, Unbounded
			p.pos++
		case '?':
			t.Min = 0
			p.pos++
		}
	}
	return t, nil
}

func (p *patternParser) name() ([]NodeKind, error) {
	start := p.pos
	for !p.done() {
		c := rune(p.src[p.pos])
		if !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '-' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return nil, fmt.Errorf("expected name at %d", start)
	}
	name := p.src[start:p.pos]
	kinds, ok := p.resolve(name)
	if !ok || len(kinds) == 0 {
		return nil, fmt.Errorf("unknown kind or group %q", name)
	}
	return kinds, nil
}

func appendUnique(dst []NodeKind, ks ...NodeKind) []NodeKind {
	for _, k := range ks {
		if !slices.Contains(dst, k) {
			dst = append(dst, k)
		}
	}
	return dst
}
