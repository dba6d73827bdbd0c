package yamlshape

import "go.yaml.in/yaml/v3"

// ValueType is the closed enum of YAML scalar/collection kinds used in
// verifier error messages. It mirrors the node kinds a YAML parser actually
// distinguishes, rather than Go's own type system, so "wrong type for
// field" errors can name what was actually found in the document.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeBool
	TypeNumber
	TypeString
	TypeSequence
	TypeMapping
	TypeTagged
)

func (t ValueType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeSequence:
		return "sequence"
	case TypeMapping:
		return "mapping"
	case TypeTagged:
		return "tagged"
	default:
		return "unknown"
	}
}

// valueTypeOf classifies a yaml.Node into the closed ValueType enum.
func valueTypeOf(n *yaml.Node) ValueType {
	if n == nil {
		return TypeNull
	}
	switch n.Kind {
	case yaml.SequenceNode:
		return TypeSequence
	case yaml.MappingNode:
		return TypeMapping
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return TypeNull
		case "!!bool":
			return TypeBool
		case "!!int", "!!float":
			return TypeNumber
		case "!!str":
			return TypeString
		default:
			return TypeTagged
		}
	default:
		return TypeTagged
	}
}
