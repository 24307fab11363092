// Package schema implements a schema-to-validator compiler: it translates
// a subset of JSON Schema into a runtime Validator and a
// static type-text fragment, without $ref resolution, regex formats, or
// numeric bounds — upstream schemas are assumed self-contained at the
// resolution structural validation needs.
package schema

import (
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// Kind is the compiler's closed set of structural shapes.
type Kind int

const (
	KindUnknown Kind = iota
	KindObject
	KindArray
	KindString
	KindNumber
	KindInteger
	KindBoolean
	KindNull
)

// Node is the compiled, structural representation of one schema fragment.
// It is what both the Validator and the type-text renderer walk.
type Node struct {
	Kind        Kind
	Properties  map[string]*Node
	Required    map[string]bool
	PropOrder   []string
	Items       *Node
	Description string
}

// Compile translates a *jsonschema.Schema into a Node. Unknown or absent
// `type` collapses to KindUnknown; object fields not listed in `required`
// are optional in the resulting Validator/type text.
func Compile(s *jsonschema.Schema) *Node {
	if s == nil {
		return &Node{Kind: KindUnknown}
	}
	n := &Node{Description: s.Description}

	switch s.Type {
	case "object":
		n.Kind = KindObject
		n.Required = make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			n.Required[r] = true
		}
		if len(s.Properties) > 0 {
			n.Properties = make(map[string]*Node, len(s.Properties))
			keys := make([]string, 0, len(s.Properties))
			for k := range s.Properties {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			n.PropOrder = keys
			for _, k := range keys {
				n.Properties[k] = Compile(s.Properties[k])
			}
		}
	case "array":
		n.Kind = KindArray
		if s.Items != nil {
			n.Items = Compile(s.Items)
		} else {
			n.Items = &Node{Kind: KindUnknown}
		}
	case "string":
		n.Kind = KindString
	case "number":
		n.Kind = KindNumber
	case "integer":
		n.Kind = KindInteger
	case "boolean":
		n.Kind = KindBoolean
	case "null":
		n.Kind = KindNull
	default:
		n.Kind = KindUnknown
	}
	return n
}

// ValidationError is the structured error a Validator returns on mismatch;
// Path is dotted, e.g. "items[2].name".
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// TypeName renders the TypeScript-flavored type text for one Node, used by
// both the standalone type-surface generator and error messages.
func (n *Node) TypeName() string {
	if n == nil {
		return "unknown"
	}
	switch n.Kind {
	case KindObject:
		if len(n.PropOrder) == 0 {
			return "Record<string, unknown>"
		}
		s := "{ "
		for i, k := range n.PropOrder {
			if i > 0 {
				s += "; "
			}
			opt := ""
			if !n.Required[k] {
				opt = "?"
			}
			s += fmt.Sprintf("%s%s: %s", k, opt, n.Properties[k].TypeName())
		}
		s += " }"
		return s
	case KindArray:
		return n.Items.TypeName() + "[]"
	case KindString:
		return "string"
	case KindNumber, KindInteger:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}
