// Package schema declares the node kinds of a block document, the content
// pattern each kind accepts, and the attribute and mark rules that go with
// them. A Registry is built once at startup and only read afterwards.
package schema

import "fmt"

// NodeKind identifies what a tree node represents.
type NodeKind int

const (
	KindInvalid NodeKind = iota
	RootDocument
	TextBlock
	CodeBlock
	AIBlock
	Paragraph
	Text
)

// Kinds lists every valid kind in declaration order.
var Kinds = []NodeKind{RootDocument, TextBlock, CodeBlock, AIBlock, Paragraph, Text}

// Name is the markup tag of the kind.
func (k NodeKind) Name() string {
	switch k {
	case RootDocument:
		return "doc"
	case TextBlock:
		return "textBlock"
	case CodeBlock:
		return "codeBlockCustom"
	case AIBlock:
		return "aiBlockReact"
	case Paragraph:
		return "paragraph"
	case Text:
		return "text"
	case KindInvalid:
		return "invalid"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

func (k NodeKind) String() string { return k.Name() }

// MarshalText encodes the kind as its markup tag.
func (k NodeKind) MarshalText() ([]byte, error) {
	if k == KindInvalid {
		return nil, fmt.Errorf("marshal invalid node kind")
	}
	return []byte(k.Name()), nil
}

// UnmarshalText decodes a markup tag.
func (k *NodeKind) UnmarshalText(b []byte) error {
	kind, ok := KindByName(string(b))
	if !ok {
		return fmt.Errorf("unknown node kind %q", string(b))
	}
	*k = kind
	return nil
}

// KindByName resolves a markup tag to its kind.
func KindByName(name string) (NodeKind, bool) {
	for _, k := range Kinds {
		if k.Name() == name {
			return k, true
		}
	}
	return KindInvalid, false
}
