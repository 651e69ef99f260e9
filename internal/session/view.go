package session

import (
	"errors"
	"fmt"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/schema"
)

// ErrNoRenderer is returned when a View has no renderer for a node kind.
var ErrNoRenderer = errors.New("no renderer for node kind")

// Rendered is what a renderer receives for one node: the node, its
// position (the position before it) and the already rendered children.
type Rendered[T any] struct {
	Node     *doctree.Node
	Pos      int
	Children []T
}

// Renderer turns one node into a host value.
type Renderer[T any] func(r Rendered[T]) (T, error)

// View maps node kinds to renderers. Kinds without an entry fail to render,
// so a shell notices a schema it does not know.
type View[T any] map[schema.NodeKind]Renderer[T]

// Render walks the whole document bottom-up and returns the root's value.
func Render[T any](t *doctree.Tree, v View[T]) (T, error) {
	return render(t.Root(), -1, v)
}

func render[T any](n *doctree.Node, pos int, v View[T]) (T, error) {
	var zero T
	fn, ok := v[n.Kind]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNoRenderer, n.Kind)
	}
	out := make([]T, 0, len(n.Children))
	child := pos + 1
	for _, c := range n.Children {
		r, err := render(c, child, v)
		if err != nil {
			return zero, err
		}
		out = append(out, r)
		child += c.Size()
	}
	return fn(Rendered[T]{Node: n, Pos: pos, Children: out})
}

// RenderWith renders the session's document with v under the session lock.
func RenderWith[T any](s *Session, v View[T]) (T, error) {
	var out T
	err := s.Read(func(t *doctree.Tree) error {
		var err error
		out, err = Render(t, v)
		return err
	})
	return out, err
}
