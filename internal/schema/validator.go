package schema

import "fmt"

// Validator parses an arbitrary input value against a compiled Node.
type Validator struct {
	root *Node
}

// NewValidator wraps a compiled Node as a Validator.
func NewValidator(n *Node) *Validator {
	return &Validator{root: n}
}

// Validate checks value against the validator's schema, returning the
// (possibly re-typed) value on success or a structured ValidationError.
func (v *Validator) Validate(value any) (any, *ValidationError) {
	return validateNode(v.root, value, "")
}

func validateNode(n *Node, value any, path string) (any, *ValidationError) {
	if n == nil || n.Kind == KindUnknown {
		return value, nil
	}

	switch n.Kind {
	case KindObject:
		m, ok := value.(map[string]any)
		if !ok {
			return nil, &ValidationError{Path: path, Message: fmt.Sprintf("expected object, got %T", value)}
		}
		out := make(map[string]any, len(m))
		for _, k := range n.PropOrder {
			child := n.Properties[k]
			raw, present := m[k]
			if !present {
				if n.Required[k] {
					return nil, &ValidationError{Path: joinPath(path, k), Message: "required property missing"}
				}
				continue
			}
			validated, verr := validateNode(child, raw, joinPath(path, k))
			if verr != nil {
				return nil, verr
			}
			out[k] = validated
		}
		// Pass through any fields not declared by the schema (struct
		// validation here is additive, not closed-world).
		for k, raw := range m {
			if _, declared := n.Properties[k]; !declared {
				out[k] = raw
			}
		}
		return out, nil

	case KindArray:
		arr, ok := value.([]any)
		if !ok {
			return nil, &ValidationError{Path: path, Message: fmt.Sprintf("expected array, got %T", value)}
		}
		out := make([]any, len(arr))
		for i, elem := range arr {
			validated, verr := validateNode(n.Items, elem, fmt.Sprintf("%s[%d]", path, i))
			if verr != nil {
				return nil, verr
			}
			out[i] = validated
		}
		return out, nil

	case KindString:
		s, ok := value.(string)
		if !ok {
			return nil, &ValidationError{Path: path, Message: fmt.Sprintf("expected string, got %T", value)}
		}
		return s, nil

	case KindNumber, KindInteger:
		f, ok := asFloat(value)
		if !ok {
			return nil, &ValidationError{Path: path, Message: fmt.Sprintf("expected number, got %T", value)}
		}
		if n.Kind == KindInteger && f != float64(int64(f)) {
			return nil, &ValidationError{Path: path, Message: "expected integer"}
		}
		return f, nil

	case KindBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, &ValidationError{Path: path, Message: fmt.Sprintf("expected boolean, got %T", value)}
		}
		return b, nil

	case KindNull:
		if value != nil {
			return nil, &ValidationError{Path: path, Message: "expected null"}
		}
		return nil, nil

	default:
		return value, nil
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
