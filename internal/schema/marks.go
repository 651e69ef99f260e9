package schema

import (
	"fmt"
	"slices"
	"strings"
)

// MarkTag identifies an inline formatting annotation.
type MarkTag int

const (
	MarkInvalid MarkTag = iota
	Bold
	Italic
	Underline
	Strike
	Highlight
	Link
	Code
)

// MarkTags lists every valid mark tag in canonical nesting order: when a run
// carries several marks, they render outermost first in this order.
var MarkTags = []MarkTag{Link, Bold, Italic, Underline, Strike, Highlight, Code}

// Name is the markup tag of the mark.
func (m MarkTag) Name() string {
	switch m {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Underline:
		return "underline"
	case Strike:
		return "strike"
	case Highlight:
		return "highlight"
	case Link:
		return "link"
	case Code:
		return "code"
	case MarkInvalid:
		return "invalid"
	}
	return fmt.Sprintf("MarkTag(%d)", int(m))
}

func (m MarkTag) String() string { return m.Name() }

// PayloadAttr is the markup attribute holding the mark's payload, or "" for
// marks without one.
func (m MarkTag) PayloadAttr() string {
	switch m {
	case Highlight:
		return "data-color"
	case Link:
		return "href"
	}
	return ""
}

func (m MarkTag) rank() int { return slices.Index(MarkTags, m) }

// MarshalText encodes the tag as its markup name.
func (m MarkTag) MarshalText() ([]byte, error) {
	if m == MarkInvalid {
		return nil, fmt.Errorf("marshal invalid mark tag")
	}
	return []byte(m.Name()), nil
}

// UnmarshalText decodes a mark name, ignoring case.
func (m *MarkTag) UnmarshalText(b []byte) error {
	tag, ok := MarkTagByName(strings.ToLower(string(b)))
	if !ok {
		return fmt.Errorf("unknown mark %q", string(b))
	}
	*m = tag
	return nil
}

// MarkTagByName resolves a markup mark name.
func MarkTagByName(name string) (MarkTag, bool) {
	for _, m := range MarkTags {
		if m.Name() == name {
			return m, true
		}
	}
	return MarkInvalid, false
}

// Mark is a tag plus its payload (highlight color, link href).
type Mark struct {
	Tag     MarkTag `json:"tag"`
	Payload string  `json:"payload,omitempty"`
}

func (m Mark) String() string {
	if m.Payload == "" {
		return m.Tag.Name()
	}
	return m.Tag.Name() + "{" + m.Payload + "}"
}

// Normalized drops the payload of a tag that has no payload attribute.
func (m Mark) Normalized() Mark {
	if m.Tag.PayloadAttr() == "" {
		m.Payload = ""
	}
	return m
}

// MarkSet holds at most one mark per tag, kept sorted in canonical order.
type MarkSet []Mark

// Has reports whether the set holds exactly m, payload included.
func (s MarkSet) Has(m Mark) bool { return slices.Contains(s, m) }

// HasTag reports whether the set holds any mark with tag.
func (s MarkSet) HasTag(tag MarkTag) bool {
	_, ok := s.Get(tag)
	return ok
}

// Get returns the mark with tag.
func (s MarkSet) Get(tag MarkTag) (Mark, bool) {
	for _, m := range s {
		if m.Tag == tag {
			return m, true
		}
	}
	return Mark{}, false
}

// With returns a copy with m added, replacing any mark of the same tag. Tags
// without a payload attribute never keep a payload.
func (s MarkSet) With(m Mark) MarkSet {
	m = m.Normalized()
	out := make(MarkSet, 0, len(s)+1)
	for _, x := range s {
		if x.Tag != m.Tag {
			out = append(out, x)
		}
	}
	out = append(out, m)
	out.sort()
	return out
}

// Without returns a copy with every mark of tag removed.
func (s MarkSet) Without(tag MarkTag) MarkSet {
	out := make(MarkSet, 0, len(s))
	for _, x := range s {
		if x.Tag != tag {
			out = append(out, x)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Tags returns the tags in canonical order, nil for an empty set.
func (s MarkSet) Tags() []MarkTag {
	if len(s) == 0 {
		return nil
	}
	out := make([]MarkTag, len(s))
	for i, m := range s {
		out[i] = m.Tag
	}
	return out
}

// Equal compares two sets irrespective of order.
func (s MarkSet) Equal(o MarkSet) bool {
	if len(s) != len(o) {
		return false
	}
	for _, m := range s {
		if !o.Has(m) {
			return false
		}
	}
	return true
}

// Clone copies the set; nil stays nil.
func (s MarkSet) Clone() MarkSet {
	if len(s) == 0 {
		return nil
	}
	return slices.Clone(s)
}

func (s MarkSet) String() string {
	parts := make([]string, len(s))
	for i, m := range s {
		parts[i] = m.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func (s MarkSet) sort() {
	slices.SortFunc(s, func(a, b Mark) int { return a.Tag.rank() - b.Tag.rank() })
}

// NewMarkSet builds a canonical set; later marks replace earlier ones of the
// same tag.
func NewMarkSet(marks ...Mark) MarkSet {
	var s MarkSet
	for _, m := range marks {
		s = s.With(m)
	}
	if len(s) == 0 {
		return nil
	}
	return s
}
