package schema

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Attrs maps attribute names to canonical string values. An absent key is a
// null value.
type Attrs map[string]string

// Clone copies the map; an empty map becomes nil.
func (a Attrs) Clone() Attrs {
	if len(a) == 0 {
		return nil
	}
	return maps.Clone(a)
}

// Get returns the value and whether it is non-null.
func (a Attrs) Get(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

// AttrSpec declares one attribute of a node kind. Default "" means the
// attribute is null unless set. Parse turns a markup string into the canonical
// value; Render turns the canonical value back into markup.
type AttrSpec struct {
	Name    string
	Markup  string
	Default string
	Parse   func(raw string) (string, error)
	Render  func(value string) string
}

// IsDefault reports whether value equals the declared default.
func (s AttrSpec) IsDefault(value string) bool { return value == s.Default }

// StringAttr accepts any string.
func StringAttr(name, markup, def string) AttrSpec {
	return AttrSpec{
		Name:    name,
		Markup:  markup,
		Default: def,
		Parse:   func(raw string) (string, error) { return raw, nil },
		Render:  func(v string) string { return v },
	}
}

// BoolAttr accepts strconv.ParseBool input and stores "true" or "false".
func BoolAttr(name, markup string) AttrSpec {
	return AttrSpec{
		Name:   name,
		Markup: markup,
		Parse: func(raw string) (string, error) {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return "", err
			}
			return strconv.FormatBool(b), nil
		},
		Render: func(v string) string { return v },
	}
}

// IntRangeAttr accepts decimal integers within [lo, hi].
func IntRangeAttr(name, markup string, def, lo, hi int) AttrSpec {
	return AttrSpec{
		Name:    name,
		Markup:  markup,
		Default: strconv.Itoa(def),
		Parse: func(raw string) (string, error) {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return "", err
			}
			if n < lo || n > hi {
				return "", fmt.Errorf("%d outside [%d, %d]", n, lo, hi)
			}
			return strconv.Itoa(n), nil
		},
		Render: func(v string) string { return v },
	}
}

// EnumAttr accepts one of values.
func EnumAttr(name, markup, def string, values ...string) AttrSpec {
	return AttrSpec{
		Name:    name,
		Markup:  markup,
		Default: def,
		Parse: func(raw string) (string, error) {
			if !slices.Contains(values, raw) {
				return "", fmt.Errorf("%q not one of %v", raw, values)
			}
			return raw, nil
		},
		Render: func(v string) string { return v },
	}
}

// AttrSchema is the ordered attribute set of a kind.
type AttrSchema []AttrSpec

// Lookup finds an attribute by name.
func (s AttrSchema) Lookup(name string) (AttrSpec, bool) {
	for _, a := range s {
		if a.Name == name {
			return a, true
		}
	}
	return AttrSpec{}, false
}

// ByMarkup finds an attribute by its markup name.
func (s AttrSchema) ByMarkup(markup string) (AttrSpec, bool) {
	for _, a := range s {
		if a.Markup == markup {
			return a, true
		}
	}
	return AttrSpec{}, false
}

// Defaults returns the non-null defaults.
func (s AttrSchema) Defaults() Attrs {
	out := Attrs{}
	for _, a := range s {
		if a.Default != "" {
			out[a.Name] = a.Default
		}
	}
	return out.Clone()
}
