// Package yamleditor applies targeted, byte-level edits to a chall.yaml
// document's top-level keys while leaving every other byte of the source
// untouched. It locates each key's "key: value" span with a structured
// parser that retains source positions (go.yaml.in/yaml/v3's Node.Line/
// Node.Column), the same approach the original editor took with a
// source-position-preserving YAML parser, then splices in a freshly
// rendered replacement for just that span.
package yamleditor

import (
	"go.yaml.in/yaml/v3"
)

// Span is a half-open byte range [Start, End) into the original source.
type Span struct {
	Start, End int
}

// Locations is the byte span of each editable top-level key's entire
// "key: value" block within one chall.yaml document.
type Locations struct {
	Name        Span
	Description Span
	Points      Span
	Categories  Span
	Visible     Span
	Tags        *Span // nil when the document has no top-level `tags` key
}

// FindLocations parses yamlText and locates every editable key's span. It
// returns ok=false if the document does not parse, the root is not a
// mapping, or any required key (name/description/value/categories/
// visible) is absent — editor operations on such a document must fail
// rather than silently work on a partial location set. `tags` is optional:
// its Span field is left nil when absent.
func FindLocations(yamlText string) (*Locations, bool) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(yamlText), &doc); err != nil || len(doc.Content) == 0 {
		return nil, false
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, false
	}

	lineOffsets := computeLineOffsets(yamlText)
	byteOffset := func(line, col int) int {
		return lineOffsets[line-1] + (col - 1)
	}

	type entry struct {
		keyNode *yaml.Node
		idx     int
	}
	keys := make(map[string]entry, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keys[root.Content[i].Value] = entry{keyNode: root.Content[i], idx: i}
	}

	spanFor := func(name string) (Span, bool) {
		e, ok := keys[name]
		if !ok {
			return Span{}, false
		}
		start := byteOffset(e.keyNode.Line, e.keyNode.Column)

		// End = start of the next top-level key, or end-of-document.
		end := len(yamlText)
		var nextLine, nextCol int
		found := false
		for _, other := range keys {
			if other.idx <= e.idx {
				continue
			}
			if !found || other.keyNode.Line < nextLine || (other.keyNode.Line == nextLine && other.keyNode.Column < nextCol) {
				nextLine, nextCol = other.keyNode.Line, other.keyNode.Column
				found = true
			}
		}
		if found {
			end = byteOffset(nextLine, nextCol)
		}

		end = start + len(rtrim(yamlText[start:end]))
		return Span{Start: start, End: end}, true
	}

	loc := &Locations{}
	var ok bool
	if loc.Name, ok = spanFor("name"); !ok {
		return nil, false
	}
	if loc.Description, ok = spanFor("description"); !ok {
		return nil, false
	}
	if loc.Points, ok = spanFor("value"); !ok {
		return nil, false
	}
	if loc.Categories, ok = spanFor("categories"); !ok {
		return nil, false
	}
	if loc.Visible, ok = spanFor("visible"); !ok {
		return nil, false
	}
	if tagsSpan, ok := spanFor("tags"); ok {
		loc.Tags = &tagsSpan
	}

	return loc, true
}

// computeLineOffsets returns, for each line index i (0-based), the byte
// offset of that line's first character within text.
func computeLineOffsets(text string) []int {
	offsets := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func rtrim(s string) string {
	end := len(s)
	for end > 0 {
		c := s[end-1]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			end--
			continue
		}
		break
	}
	return s[:end]
}
