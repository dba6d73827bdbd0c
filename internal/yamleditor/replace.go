package yamleditor

import (
	"errors"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ErrCannotLocate is returned when the document's editable keys cannot be
// located precisely enough to edit — e.g. the document is malformed, or is
// missing a required key (name/description/value/categories/visible).
// Editing such a document risks corrupting bytes the request never asked
// to touch, so Apply refuses outright rather than guessing.
var ErrCannotLocate = errors.New("yamleditor: cannot locate editable keys in document")

type edit struct {
	span        Span
	replacement string
	remove      bool
	appendAtEOF bool
}

// Apply renders mods against original and returns the new document text.
// Every byte outside the spans of the touched keys is preserved verbatim;
// untouched keys (including ones Apply doesn't know about, like `authors`
// or `deploy`) are never re-serialized, so formatting quirks elsewhere in
// the file survive the edit.
func Apply(original string, mods Modifications) (string, error) {
	if !mods.touchesAnything() {
		return original, nil
	}

	loc, ok := FindLocations(original)
	if !ok {
		return "", ErrCannotLocate
	}

	var edits []edit

	if mods.Name != nil {
		block, err := formatKeyValue("name", *mods.Name)
		if err != nil {
			return "", err
		}
		edits = append(edits, edit{span: loc.Name, replacement: block})
	}
	if mods.Description != nil {
		block, err := formatKeyValue("description", *mods.Description)
		if err != nil {
			return "", err
		}
		edits = append(edits, edit{span: loc.Description, replacement: block})
	}
	if mods.Points != nil {
		block, err := formatKeyValue("value", *mods.Points)
		if err != nil {
			return "", err
		}
		edits = append(edits, edit{span: loc.Points, replacement: block})
	}
	if mods.Categories != nil {
		block, err := formatKeyValue("categories", *mods.Categories)
		if err != nil {
			return "", err
		}
		edits = append(edits, edit{span: loc.Categories, replacement: block})
	}
	if mods.Tags != nil {
		e, err := tagsEdit(loc, *mods.Tags)
		if err != nil {
			return "", err
		}
		if e != nil {
			edits = append(edits, *e)
		}
	}

	var appends []edit
	rest := edits[:0]
	for _, e := range edits {
		if e.appendAtEOF {
			appends = append(appends, e)
			continue
		}
		rest = append(rest, e)
	}
	edits = rest

	// Apply in-place edits from the rightmost span to the leftmost so
	// earlier offsets stay valid as the string is spliced.
	sort.Slice(edits, func(i, j int) bool { return edits[i].span.Start > edits[j].span.Start })

	out := original
	for _, e := range edits {
		if e.remove {
			out = out[:e.span.Start] + out[e.span.End:]
			continue
		}
		out = out[:e.span.Start] + e.replacement + out[e.span.End:]
	}

	for _, a := range appends {
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += a.replacement
	}

	return out, nil
}

// tagsEdit resolves a TagsModification into a concrete splice: a rewrite
// when `tags` already exists, a deletion when asked to remove an existing
// key, or an append at end-of-document when asked to set a value on a
// document that has no `tags` key at all. A nil return means no edit is
// needed (deleting a key that was never present).
func tagsEdit(loc *Locations, mod TagsModification) (*edit, error) {
	switch {
	case mod.Value == nil && loc.Tags != nil:
		return &edit{span: *loc.Tags, remove: true}, nil
	case mod.Value == nil:
		return nil, nil
	case loc.Tags != nil:
		block, err := formatKeyValue("tags", *mod.Value)
		if err != nil {
			return nil, err
		}
		return &edit{span: *loc.Tags, replacement: block}, nil
	default:
		block, err := formatKeyValue("tags", *mod.Value)
		if err != nil {
			return nil, err
		}
		return &edit{appendAtEOF: true, replacement: block}, nil
	}
}

// formatKeyValue renders a single mapping entry in block style, e.g.
// "value: 50\n" or "tags:\n    - a\n    - b\n", using the same emitter
// the verifier parses with so round-tripped scalars quote themselves
// consistently (strings needing escaping get quoted, plain ones don't).
func formatKeyValue(key string, value any) (string, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	keyNode := &yaml.Node{}
	if err := keyNode.Encode(key); err != nil {
		return "", err
	}
	valNode := &yaml.Node{}
	if err := valNode.Encode(value); err != nil {
		return "", err
	}
	node.Content = []*yaml.Node{keyNode, valNode}

	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(out), "\n") + "\n", nil
}
