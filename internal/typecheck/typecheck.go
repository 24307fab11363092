// Package typecheck implements the pre-compile check the eval/code
// meta-tool handlers run before handing a script to the sandbox: it
// rejects text that isn't a bare function expression and flags
// typed local declarations whose literal initializer disagrees with its
// annotation. There is no third-party TypeScript-aware parser in the
// ecosystem this project draws on, so this stays a deliberately narrow,
// line-oriented scanner rather than a full type checker — see DESIGN.md.
package typecheck

import (
	"fmt"
	"regexp"
	"strings"
)

// Error is one diagnostic, formatted by String as the `Line L, Column C:
// message` text the eval/code handlers surface verbatim.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) String() string {
	return fmt.Sprintf("Line %d, Column %d: %s", e.Line, e.Column, e.Message)
}

var functionExpressionShape = regexp.MustCompile(
	`^(async\s+)?(function\b|\([^)]*\)\s*=>|[A-Za-z_$][\w$]*\s*=>)`,
)

var typedDecl = regexp.MustCompile(
	`(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*:\s*([A-Za-z_$][\w$<>\[\]\. ]*?)\s*=\s*([^;]+);`,
)

// Check validates code against typeText (the current type-surface text,
// consulted for ambient declarations future checks may want; today it is
// accepted but not required to reject anything on its own) and returns
// every diagnostic found. An empty slice means code passed.
func Check(typeText, code string) []Error {
	var errs []Error

	trimmed := strings.TrimSpace(code)
	if !functionExpressionShape.MatchString(trimmed) {
		errs = append(errs, Error{
			Line:    1,
			Column:  1,
			Message: "expected a function expression (arrow or classic) accepting zero or one argument",
		})
	}

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		for _, m := range typedDecl.FindAllStringSubmatchIndex(line, -1) {
			name := line[m[2]:m[3]]
			declaredType := strings.TrimSpace(line[m[4]:m[5]])
			literal := strings.TrimSpace(line[m[6]:m[7]])
			actualType := inferLiteralType(literal)
			if actualType == "" || typesCompatible(declaredType, actualType) {
				continue
			}
			errs = append(errs, Error{
				Line:   i + 1,
				Column: m[0] + 1,
				Message: fmt.Sprintf(
					"Type '%s' is not assignable to type '%s' (declaring %s).",
					actualType, declaredType, name,
				),
			})
		}
	}

	return errs
}

// FormatErrors renders diagnostics one per line, the shape the eval
// handler writes into its isError:true text.
func FormatErrors(errs []Error) string {
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n")
}

func inferLiteralType(literal string) string {
	switch {
	case strings.HasPrefix(literal, "'") || strings.HasPrefix(literal, `"`) || strings.HasPrefix(literal, "`"):
		return "string"
	case literal == "true" || literal == "false":
		return "boolean"
	case strings.HasPrefix(literal, "["):
		return "array"
	case strings.HasPrefix(literal, "{"):
		return "object"
	case numericLiteral.MatchString(literal):
		return "number"
	default:
		return ""
	}
}

var numericLiteral = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

func typesCompatible(declared, actual string) bool {
	declared = strings.TrimSpace(declared)
	switch declared {
	case "any", "unknown":
		return true
	case "number", "string", "boolean":
		return declared == actual
	case "object", "Record<string, unknown>":
		return actual == "object"
	default:
		if strings.HasSuffix(declared, "[]") {
			return actual == "array"
		}
		return true
	}
}
