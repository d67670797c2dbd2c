package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/odoo-odev/odev-ai/llmtest"
	"github.com/odoo-odev/odev-ai/pkg/prompt"
)

const reviewSchema = `{
	"type": "object",
	"properties": {
		"verdict": {"type": "string", "enum": ["approve", "reject"]},
		"comments": {"type": "array", "items": {"type": "string"}}
	},
	"required": ["verdict"]
}`

func TestCompleteJSON_ValidOutput(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Respond(`{"verdict": "approve", "comments": ["looks good"]}`))
	client := New(claudeSettings(), WithProvider(scripted))

	raw, err := client.CompleteJSON(context.Background(), Task{Instruction: "review"}, reviewSchema)
	if err != nil {
		t.Fatalf("CompleteJSON() error = %v", err)
	}

	var out struct {
		Verdict  string   `json:"verdict"`
		Comments []string `json:"comments"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshaling result: %v", err)
	}
	if out.Verdict != "approve" {
		t.Errorf("verdict = %q, want %q", out.Verdict, "approve")
	}
	if len(out.Comments) != 1 || out.Comments[0] != "looks good" {
		t.Errorf("comments = %v, want [looks good]", out.Comments)
	}
}

func TestCompleteJSON_StripsCodeFence(t *testing.T) {
	fenced := "```json\n{\"verdict\": \"reject\"}\n```"
	scripted := llmtest.NewScripted(llmtest.Respond(fenced))
	client := New(claudeSettings(), WithProvider(scripted))

	raw, err := client.CompleteJSON(context.Background(), Task{Instruction: "review"}, reviewSchema)
	if err != nil {
		t.Fatalf("CompleteJSON() error = %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshaling result: %v", err)
	}
	if out["verdict"] != "reject" {
		t.Errorf("verdict = %v, want reject", out["verdict"])
	}
}

func TestCompleteJSON_RepairsMalformedOutput(t *testing.T) {
	// Single quotes and a trailing comma, as sloppy model output tends to be.
	scripted := llmtest.NewScripted(llmtest.Respond(`{'verdict': 'approve', 'comments': ['ok'],}`))
	client := New(claudeSettings(), WithProvider(scripted))

	raw, err := client.CompleteJSON(context.Background(), Task{Instruction: "review"}, reviewSchema)
	if err != nil {
		t.Fatalf("CompleteJSON() error = %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("repaired output is not valid JSON: %v", err)
	}
	if out["verdict"] != "approve" {
		t.Errorf("verdict = %v, want approve", out["verdict"])
	}
}

func TestCompleteJSON_SchemaViolation(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Respond(`{"comments": ["missing the required verdict"]}`))
	client := New(claudeSettings(), WithProvider(scripted))

	_, err := client.CompleteJSON(context.Background(), Task{Instruction: "review"}, reviewSchema)
	if err == nil {
		t.Fatal("CompleteJSON() succeeded, want schema violation error")
	}
	if !strings.Contains(err.Error(), "schema") {
		t.Errorf("error = %q, want mention of schema", err)
	}
}

func TestCompleteJSON_UnparseableOutput(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Respond("I cannot answer in JSON, sorry."))
	client := New(claudeSettings(), WithProvider(scripted))

	if _, err := client.CompleteJSON(context.Background(), Task{Instruction: "review"}, reviewSchema); err == nil {
		t.Fatal("CompleteJSON() succeeded, want parse error")
	}
}

func TestCompleteJSON_InvalidSchema(t *testing.T) {
	scripted := llmtest.Always(llmtest.Respond(`{"verdict": "approve"}`))
	client := New(claudeSettings(), WithProvider(scripted))

	_, err := client.CompleteJSON(context.Background(), Task{Instruction: "review"}, `{"type": 42}`)
	if err == nil {
		t.Fatal("CompleteJSON() succeeded, want schema compile error")
	}

	// A bad schema must be rejected before any provider traffic.
	if got := scripted.CallCount(); got != 0 {
		t.Errorf("CallCount() = %d, want 0", got)
	}
}

func TestCompletePromptJSON(t *testing.T) {
	scripted := llmtest.NewScripted(llmtest.Respond(`{"verdict": "approve"}`))
	client := New(claudeSettings(), WithProvider(scripted))

	p := prompt.New()
	p.AddText("review the attachment")
	p.AddFileData("models.py", []byte("class Partner: pass"))

	raw, err := client.CompletePromptJSON(context.Background(), p, reviewSchema)
	if err != nil {
		t.Fatalf("CompletePromptJSON() error: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshaling result: %v", err)
	}
	if out["verdict"] != "approve" {
		t.Errorf("verdict = %v, want approve", out["verdict"])
	}

	req := scripted.LastRequest()
	if len(req.Messages) != 1 || len(req.Messages[0].Files) != 1 {
		t.Fatalf("request = %+v, want one message with the attachment", req)
	}
}

func TestCompleteJSON_NotConfigured(t *testing.T) {
	scripted := llmtest.Always(llmtest.Respond(`{"verdict": "approve"}`))
	client := New(Settings{}, WithProvider(scripted))

	_, err := client.CompleteJSON(context.Background(), Task{Instruction: "review"}, reviewSchema)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("CompleteJSON() error = %v, want ErrNotConfigured", err)
	}
	if got := scripted.CallCount(); got != 0 {
		t.Errorf("CallCount() = %d, want 0", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "json fence",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "bare fence",
			input: "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "no fence",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "unclosed fence",
			input: "```json\n{\"a\": 1}",
			want:  "```json\n{\"a\": 1}",
		},
		{
			name:  "multiline body",
			input: "```json\n{\n  \"a\": 1\n}\n```",
			want:  "{\n  \"a\": 1\n}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.input); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
