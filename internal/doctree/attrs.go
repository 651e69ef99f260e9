package doctree

import "github.com/dgallion1/blockdoc/internal/schema"

// SetNodeAttr sets attribute name on the node starting at pos. An empty
// value resets the attribute to its default.
func (t *Tree) SetNodeAttr(pos int, name, value string) error {
	n, err := t.NodeAt(pos)
	if err != nil {
		return err
	}
	spec, _ := t.reg.Spec(n.Kind)
	a, ok := spec.Attrs.Lookup(name)
	if !ok {
		return &SchemaViolation{Kind: n.Kind, Reason: "no attribute " + name}
	}
	v := a.Default
	if value != "" {
		if v, err = t.reg.ParseAttr(n.Kind, name, value); err != nil {
			return &SchemaViolation{Kind: n.Kind, Reason: err.Error()}
		}
	}
	attrs := n.Attrs.Clone()
	if attrs == nil {
		attrs = schema.Attrs{}
	}
	if v == "" {
		delete(attrs, name)
	} else {
		attrs[name] = v
	}
	n.Attrs = attrs.Clone()
	return nil
}
