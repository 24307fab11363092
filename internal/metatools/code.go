package metatools

import (
	"context"
	"crypto/sha1"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpman/mcpman/internal/typecheck"
)

const maxCodeGenAttempts = 3

// CodeInput is the code meta-tool's input: a natural-language description
// of the function to generate, optionally scoped to a subset of servers.
type CodeInput struct {
	FunctionDescription string   `json:"functionDescription"`
	Servers             []string `json:"servers,omitempty"`
}

// CodeGenerator produces one candidate function-expression body from a
// description and the type text it may call into. attempt is 1-based;
// lastErrors carries the previous attempt's typecheck diagnostics so a
// retrying generator can correct course.
type CodeGenerator interface {
	Generate(ctx context.Context, description, typeText string, attempt int, lastErrors string) (string, error)
}

// Code implements the code meta-tool: generate a function expression
// against the current type surface, retrying on typecheck failure, then
// execute the first candidate that passes.
func (h *Handlers) Code(ctx context.Context, req *mcp.CallToolRequest, in CodeInput) (*mcp.CallToolResult, any, error) {
	toolsByServer, err := h.Fleet.GetAllTools(ctx)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var servers []string
	if len(in.Servers) > 0 {
		servers = in.Servers
	}
	typeText := h.Cache.GetTypeDefinitions(toolsByServer, servers)

	if errs := checkGeneratedTypeTextCompiles(typeText); len(errs) > 0 {
		return errorResult("InternalTypeSurfaceBug: " + typecheck.FormatErrors(errs)), nil, nil
	}

	gen := h.CodeGen
	if gen == nil {
		gen = EnvStubGenerator{Dir: os.Getenv("MCPMAN_TEST_LLM_RESPONSE_DIR")}
	}

	var code string
	var lastErrors string
	for attempt := 1; attempt <= maxCodeGenAttempts; attempt++ {
		code, err = gen.Generate(ctx, in.FunctionDescription, typeText, attempt, lastErrors)
		if err != nil {
			return errorResult(err.Error()), nil, nil
		}
		errs := typecheck.Check(typeText, code)
		if len(errs) == 0 {
			lastErrors = ""
			break
		}
		lastErrors = typecheck.FormatErrors(errs)
		if attempt == maxCodeGenAttempts {
			return errorResult(fmt.Sprintf("CodeGenExhausted: %d attempts failed typecheck; last errors:\n%s", maxCodeGenAttempts, lastErrors)), nil, nil
		}
	}

	evalRes, err := h.Runtime.Eval(ctx, code, nil)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	combined := combineResultAndOutput(evalRes.Result, evalRes.Output)
	idx, err := h.Runtime.AppendResult(combined)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	text := fmt.Sprintf("// Generated code:\n%s\n// Execution result:\n%s", code, formatResultLine(idx, "code", combined))
	return textResult(text), combined, nil
}

// checkGeneratedTypeTextCompiles is a brace-balance sanity check that the
// type text handed to the generator is itself well-formed; a failure here
// means the cache rendered something broken, not that the generated code
// is wrong.
func checkGeneratedTypeTextCompiles(typeText string) []typecheck.Error {
	depth := 0
	for i, r := range typeText {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return []typecheck.Error{{Line: 1, Column: i + 1, Message: "unbalanced '}' in type surface"}}
			}
		}
	}
	if depth != 0 {
		return []typecheck.Error{{Line: 1, Column: len(typeText), Message: "unbalanced '{' in type surface"}}
	}
	return nil
}

// EnvStubGenerator is the deterministic generator used under test: it
// reads a pre-recorded response from a file named after the sha1 of the
// function description, so a test fixture can pin exactly what "the
// model" returns without talking to one.
type EnvStubGenerator struct {
	Dir string
}

func (g EnvStubGenerator) Generate(ctx context.Context, description, typeText string, attempt int, lastErrors string) (string, error) {
	if g.Dir == "" {
		return "", fmt.Errorf("MCPMAN_TEST_LLM_RESPONSE_DIR is not set")
	}
	sum := sha1.Sum([]byte(description))
	name := fmt.Sprintf("response-%x.txt", sum)
	path := filepath.Join(g.Dir, name)
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no stubbed response for description %q: expected file %s", description, path)
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// SamplingSession is the subset of *mcp.ServerSession the sampling
// generator needs; satisfied by req.Session in production handlers.
type SamplingSession interface {
	CreateMessage(ctx context.Context, params *mcp.CreateMessageParams) (*mcp.CreateMessageResult, error)
}

// SamplingGenerator asks the downstream client's model to generate the
// function body via MCP sampling.
type SamplingGenerator struct {
	Session SamplingSession
}

func (g SamplingGenerator) Generate(ctx context.Context, description, typeText string, attempt int, lastErrors string) (string, error) {
	prompt := buildGenerationPrompt(description, typeText, attempt, lastErrors)

	res, err := g.Session.CreateMessage(ctx, &mcp.CreateMessageParams{
		Messages: []*mcp.SamplingMessage{
			{Role: "user", Content: &mcp.TextContent{Text: prompt}},
		},
		MaxTokens: 2048,
	})
	if err != nil {
		return "", fmt.Errorf("sampling request failed: %w", err)
	}

	text, ok := res.Content.(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("sampling response was not text content")
	}
	return strings.TrimSpace(text.Text), nil
}

func buildGenerationPrompt(description, typeText string, attempt int, lastErrors string) string {
	var b strings.Builder
	b.WriteString("Write a single JavaScript function expression (arrow or classic, zero or one argument) that does the following:\n")
	b.WriteString(description)
	b.WriteString("\n\nIt may call any of the following declared servers and tools:\n")
	b.WriteString(typeText)
	if attempt > 1 && lastErrors != "" {
		b.WriteString("\n\nThe previous attempt failed to typecheck with these errors, fix them:\n")
		b.WriteString(lastErrors)
	}
	b.WriteString("\n\nRespond with only the function expression, no surrounding prose.")
	return b.String()
}
