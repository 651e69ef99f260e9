package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

var factories = map[string]func() Command{
	"insertTextBlock":    func() Command { return &InsertTextBlock{} },
	"insertCodeBlock":    func() Command { return &InsertCodeBlock{} },
	"insertAIBlock":      func() Command { return &InsertAIBlock{} },
	"toggleInlineMark":   func() Command { return &ToggleInlineMark{} },
	"toggleHeadingLevel": func() Command { return &ToggleHeadingLevel{} },
	"setLink":            func() Command { return &SetLink{} },
	"unsetLink":          func() Command { return &UnsetLink{} },
	"setTextAlign":       func() Command { return &SetTextAlign{} },
	"insertText":         func() Command { return &InsertText{} },
	"deleteRange":        func() Command { return &DeleteRange{} },
	"splitParagraph":     func() Command { return &SplitParagraph{} },
	"moveBlock":          func() Command { return &MoveBlock{} },
	"setCodeLanguage":    func() Command { return &SetCodeLanguage{} },
	"insertFragment":     func() Command { return &InsertFragment{} },
	"setPrompt":          func() Command { return &SetPrompt{} },
}

// Names lists the commands Decode accepts.
func Names() []string {
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Decode builds the command called name from JSON params. Unknown fields are
// rejected.
func Decode(name string, params json.RawMessage) (Command, error) {
	f, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	c := f()
	if len(bytes.TrimSpace(params)) == 0 {
		return c, nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidParams, name, err)
	}
	return c, nil
}
