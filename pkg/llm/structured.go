package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/odoo-odev/odev-ai/pkg/prompt"
)

// CompleteJSON submits a task and returns the provider's output as JSON
// validated against the given JSON Schema document. Almost-JSON output gets
// one repair pass (single quotes, trailing commas, markdown fences); beyond
// that the output is never edited. The schema is compiled before any network
// activity, so an invalid schema fails without a provider call.
func (c *Client) CompleteJSON(ctx context.Context, task Task, schema string) (json.RawMessage, error) {
	sch, err := compileSchema(schema)
	if err != nil {
		return nil, err
	}

	res, err := c.Complete(ctx, task)
	if err != nil {
		return nil, err
	}
	return validateOutput(sch, res.Text)
}

// CompletePromptJSON is CompleteJSON for a pre-assembled prompt, so presets
// and file attachments can be combined with schema validation.
func (c *Client) CompletePromptJSON(ctx context.Context, p *prompt.Prompt, schema string) (json.RawMessage, error) {
	sch, err := compileSchema(schema)
	if err != nil {
		return nil, err
	}

	res, err := c.CompletePrompt(ctx, p)
	if err != nil {
		return nil, err
	}
	return validateOutput(sch, res.Text)
}

func validateOutput(sch *jsonschema.Schema, text string) (json.RawMessage, error) {
	value, raw, err := parseJSONOutput(text)
	if err != nil {
		return nil, fmt.Errorf("provider output is not valid JSON: %w", err)
	}
	if err := sch.Validate(value); err != nil {
		return nil, fmt.Errorf("provider output does not match schema: %w", err)
	}
	return raw, nil
}

func compileSchema(schema string) (*jsonschema.Schema, error) {
	var schemaDoc interface{}
	if err := json.Unmarshal([]byte(schema), &schemaDoc); err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", schemaDoc); err != nil {
		return nil, fmt.Errorf("invalid JSON schema: %w", err)
	}
	sch, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling JSON schema: %w", err)
	}
	return sch, nil
}

// parseJSONOutput parses model text as JSON, tolerating a surrounding
// markdown code fence and running one repair pass on failure. It returns
// the decoded value plus the byte form that decoded successfully.
func parseJSONOutput(text string) (interface{}, []byte, error) {
	cleaned := stripCodeFence(strings.TrimSpace(text))

	var v interface{}
	if err := json.Unmarshal([]byte(cleaned), &v); err == nil {
		return v, []byte(cleaned), nil
	}

	repaired, err := jsonrepair.JSONRepair(cleaned)
	if err != nil {
		return nil, nil, fmt.Errorf("repairing JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, nil, err
	}
	return v, []byte(repaired), nil
}

// stripCodeFence removes a surrounding ```lang fence if present. Fences the
// model embeds inside the JSON itself are left alone.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s[3:]
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return s
	}
	body = body[nl+1:]
	end := strings.LastIndex(body, "```")
	if end < 0 {
		return s
	}
	return strings.TrimSpace(body[:end])
}
