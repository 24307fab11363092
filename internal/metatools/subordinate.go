package metatools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultSubordinateMaxIterations = 5

// setCodeCall is the single structured message the subordinate agent is
// allowed to send back: a call to its one tool, set_code(code).
type setCodeCall struct {
	Tool string `json:"tool"`
	Code string `json:"code"`
}

// SubordinateAgentGenerator drives an iteration-bounded tool-calling loop
// over MCP sampling, the way an LLM-backed agent loop drives a chat model
// over a fixed tool set, except this agent's tool set has exactly one
// entry: set_code(code). Each round either yields a call to it or a
// malformed reply that earns one corrective follow-up before the budget
// runs out.
type SubordinateAgentGenerator struct {
	Session       SamplingSession
	MaxIterations int
}

func (g SubordinateAgentGenerator) Generate(ctx context.Context, description, typeText string, attempt int, lastErrors string) (string, error) {
	maxIter := g.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultSubordinateMaxIterations
	}

	runID := uuid.NewString()
	messages := []*mcp.SamplingMessage{
		{Role: "user", Content: &mcp.TextContent{Text: buildSubordinatePrompt(description, typeText, attempt, lastErrors)}},
	}

	for iteration := 0; iteration < maxIter; iteration++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		res, err := g.Session.CreateMessage(ctx, &mcp.CreateMessageParams{
			Messages:  messages,
			MaxTokens: 2048,
		})
		if err != nil {
			return "", fmt.Errorf("subordinate agent %s sampling failed on iteration %d: %w", runID, iteration, err)
		}

		text, ok := res.Content.(*mcp.TextContent)
		if !ok {
			return "", fmt.Errorf("subordinate agent %s: sampling response was not text content", runID)
		}

		call, err := parseSetCodeCall(text.Text)
		if err != nil {
			messages = append(messages,
				&mcp.SamplingMessage{Role: "assistant", Content: text},
				&mcp.SamplingMessage{Role: "user", Content: &mcp.TextContent{
					Text: fmt.Sprintf("That was not a valid set_code call (%v). Respond with only the JSON object {\"tool\":\"set_code\",\"code\":\"...\"}.", err),
				}},
			)
			continue
		}
		return call.Code, nil
	}

	return "", fmt.Errorf("subordinate agent %s exhausted %d iterations without a valid set_code call", runID, maxIter)
}

func buildSubordinatePrompt(description, typeText string, attempt int, lastErrors string) string {
	var b strings.Builder
	b.WriteString("You are a subordinate code-generation agent. Your only tool is set_code(code), ")
	b.WriteString("which accepts a single JavaScript function expression. Respond with only this JSON object:\n")
	b.WriteString(`{"tool":"set_code","code":"<the function expression, JSON-escaped>"}`)
	b.WriteString("\n\nWrite a function that does the following:\n")
	b.WriteString(description)
	b.WriteString("\n\nIt may call any of the following declared servers and tools:\n")
	b.WriteString(typeText)
	if attempt > 1 && lastErrors != "" {
		b.WriteString("\n\nThe previous attempt failed to typecheck with these errors, fix them:\n")
		b.WriteString(lastErrors)
	}
	return b.String()
}

func parseSetCodeCall(text string) (setCodeCall, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return setCodeCall{}, fmt.Errorf("no JSON object found in reply")
	}

	var call setCodeCall
	if err := json.Unmarshal([]byte(text[start:end+1]), &call); err != nil {
		return setCodeCall{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if call.Tool != "set_code" {
		return setCodeCall{}, fmt.Errorf("expected tool \"set_code\", got %q", call.Tool)
	}
	if call.Code == "" {
		return setCodeCall{}, fmt.Errorf("set_code call had empty code")
	}
	return call, nil
}
