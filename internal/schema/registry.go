package schema

import (
	"fmt"
	"slices"
)

// KindSpec is the static declaration of a node kind.
type KindSpec struct {
	Kind    NodeKind
	Content Pattern
	Attrs   AttrSchema

	// Markable allows inline marks on text directly under this kind.
	Markable bool
	// LeafText marks the text leaf kind.
	LeafText bool
	// Block marks block-level kinds.
	Block bool
	// RootChild marks kinds allowed directly under RootDocument.
	RootChild bool
	// Reorderable marks blocks the shell may drag.
	Reorderable bool
	// Code marks kinds whose text is preserved verbatim and never marked.
	Code bool

	Groups []string
}

// Registry holds every declared kind. It is mutable only until Freeze.
type Registry struct {
	specs  map[NodeKind]KindSpec
	order  []NodeKind
	frozen bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[NodeKind]KindSpec)}
}

// Register declares a kind. Registering the same kind again with an equal
// pattern is a no-op; a different pattern is a ConflictError.
func (r *Registry) Register(spec KindSpec) error {
	if r.frozen {
		return ErrFrozen
	}
	if spec.Kind <= KindInvalid || int(spec.Kind) > len(Kinds) {
		return fmt.Errorf("register %v: %w", spec.Kind, ErrUnknownKind)
	}
	if existing, ok := r.specs[spec.Kind]; ok {
		if existing.Content.Equal(spec.Content) {
			return nil
		}
		return &ConflictError{Kind: spec.Kind, Existing: existing.Content, Attempted: spec.Content}
	}
	spec.Content = Seq(spec.Content.terms...)
	spec.Attrs = slices.Clone(spec.Attrs)
	spec.Groups = slices.Clone(spec.Groups)
	r.specs[spec.Kind] = spec
	r.order = append(r.order, spec.Kind)
	return nil
}

// Freeze checks cross-kind invariants and makes the registry read-only.
func (r *Registry) Freeze() error {
	if r.frozen {
		return nil
	}
	root, ok := r.specs[RootDocument]
	if !ok {
		return fmt.Errorf("freeze: %s not registered: %w", RootDocument, ErrUnknownKind)
	}
	for _, k := range r.order {
		spec := r.specs[k]
		for _, t := range spec.Content.terms {
			for _, child := range t.Kinds {
				if _, ok := r.specs[child]; !ok {
					return fmt.Errorf("freeze: %s content names %s: %w", k, child, ErrUnknownKind)
				}
			}
		}
		if k == RootDocument {
			continue
		}
		if spec.RootChild != root.Content.Allows(k) {
			return fmt.Errorf("freeze: %s root-child flag %v disagrees with %s content %q", k, spec.RootChild, RootDocument, root.Content)
		}
	}
	r.frozen = true
	return nil
}

// Frozen reports whether Freeze succeeded.
func (r *Registry) Frozen() bool { return r.frozen }

// Spec returns the declaration of kind.
func (r *Registry) Spec(kind NodeKind) (KindSpec, bool) {
	s, ok := r.specs[kind]
	return s, ok
}

// Kinds returns registered kinds in registration order.
func (r *Registry) Kinds() []NodeKind { return slices.Clone(r.order) }

// ValidateChildren tests a candidate child sequence for a container of kind.
func (r *Registry) ValidateChildren(kind NodeKind, children []NodeKind) bool {
	s, ok := r.specs[kind]
	if !ok {
		return false
	}
	return s.Content.Match(children)
}

// DefaultAttrs returns the attribute defaults for a fresh node of kind.
func (r *Registry) DefaultAttrs(kind NodeKind) Attrs {
	return r.specs[kind].Attrs.Defaults()
}

// ParseAttr applies the parse rule of attribute name on kind.
func (r *Registry) ParseAttr(kind NodeKind, name, raw string) (string, error) {
	s, ok := r.specs[kind]
	if !ok {
		return "", fmt.Errorf("parse attr %s: %w", name, ErrUnknownKind)
	}
	a, ok := s.Attrs.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%s has no attribute %q", kind, name)
	}
	v, err := a.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%s.%s: %w", kind, name, err)
	}
	return v, nil
}

// Markable reports whether text directly under kind may carry marks.
func (r *Registry) Markable(kind NodeKind) bool {
	s := r.specs[kind]
	return s.Markable && !s.Code
}

// IsBlock reports whether kind is block-level.
func (r *Registry) IsBlock(kind NodeKind) bool { return r.specs[kind].Block }

// Group returns the kinds declaring membership of group.
func (r *Registry) Group(name string) []NodeKind {
	var out []NodeKind
	for _, k := range r.order {
		if slices.Contains(r.specs[k].Groups, name) {
			out = append(out, k)
		}
	}
	return out
}

// Resolve maps a kind name or group name to kinds, for CompilePattern.
func (r *Registry) Resolve(name string) ([]NodeKind, bool) {
	if k, ok := KindByName(name); ok {
		return []NodeKind{k}, true
	}
	g := r.Group(name)
	return g, len(g) > 0
}
