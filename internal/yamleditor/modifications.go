package yamleditor

// Modifications describes a partial update to a chall.yaml document. Every
// field is optional: a nil pointer means "leave this key untouched."
//
// Tags is doubly optional, mirroring the wire shape's `tags` semantics:
// the outer pointer answers "should this field be touched at all", and
// TagsModification.Value answers "what should it become" — nil meaning
// "delete the key", a non-nil (possibly empty) slice meaning "set it to
// this list".
type Modifications struct {
	Name        *string
	Description *string
	Points      *uint64
	Categories  *[]string
	Tags        *TagsModification
}

// TagsModification is the inner half of the tags double-optional: Value
// nil means delete the `tags` key, Value non-nil sets it to *Value.
type TagsModification struct {
	Value *[]string
}

func (m Modifications) touchesAnything() bool {
	return m.Name != nil || m.Description != nil || m.Points != nil || m.Categories != nil || m.Tags != nil
}
