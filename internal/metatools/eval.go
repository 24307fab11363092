package metatools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mcpman/mcpman/internal/typecheck"
)

// EvalInput is the eval meta-tool's input: a zero-or-one-argument function
// expression and the single value passed as its argument.
type EvalInput struct {
	Code string         `json:"code"`
	Arg  map[string]any `json:"arg,omitempty"`
}

// Eval implements the eval meta-tool: typecheck against the current type
// surface, then execute in the persistent sandbox and append to $results.
func (h *Handlers) Eval(ctx context.Context, req *mcp.CallToolRequest, in EvalInput) (*mcp.CallToolResult, any, error) {
	toolsByServer, err := h.Fleet.GetAllTools(ctx)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	typeText := h.Cache.GetTypeDefinitions(toolsByServer, nil)
	if errs := typecheck.Check(typeText, in.Code); len(errs) > 0 {
		return errorResult("TypeCheckFailed: " + typecheck.FormatErrors(errs)), nil, nil
	}

	evalRes, err := h.Runtime.Eval(ctx, in.Code, in.Arg)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	combined := combineResultAndOutput(evalRes.Result, evalRes.Output)
	idx, err := h.Runtime.AppendResult(combined)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	return textResult(formatResultLine(idx, "eval", combined)), combined, nil
}

// combineResultAndOutput folds any console output the script produced
// alongside its return value into the single object stored in $results.
func combineResultAndOutput(result any, output string) any {
	if output == "" {
		return result
	}
	return map[string]any{"result": result, "console": output}
}
