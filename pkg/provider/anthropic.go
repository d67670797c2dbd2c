package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeOption configures a ClaudeProvider.
type ClaudeOption func(*ClaudeProvider)

// WithClaudeHTTPClient sets a custom HTTP client (useful for testing).
func WithClaudeHTTPClient(c *http.Client) ClaudeOption {
	return func(p *ClaudeProvider) { p.httpClient = c }
}

// WithClaudeBaseURL overrides the Anthropic API base URL.
func WithClaudeBaseURL(url string) ClaudeOption {
	return func(p *ClaudeProvider) { p.baseURL = url }
}

// ClaudeProvider implements Provider for the Anthropic Messages API.
type ClaudeProvider struct {
	baseURL    string
	httpClient *http.Client
	client     anthropic.Client
}

// NewClaudeProvider creates a Claude client with the given API key.
func NewClaudeProvider(apiKey string, opts ...ClaudeOption) *ClaudeProvider {
	p := &ClaudeProvider{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}

	// Failing models are routed to the next candidate by the caller, so the
	// SDK's own retry loop stays off.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(p.httpClient),
		option.WithMaxRetries(0),
	}
	if p.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(p.baseURL))
	}
	p.client = anthropic.NewClient(reqOpts...)
	return p
}

// Name returns "claude".
func (p *ClaudeProvider) Name() string { return string(Claude) }

// Complete sends a request to the Anthropic Messages API.
func (p *ClaudeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  buildClaudeMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyClaudeError(req.Model, err)
	}

	return parseClaudeResponse(resp), nil
}

func buildClaudeMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		if m.Content != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Content))
		}
		for _, f := range m.Files {
			blocks = append(blocks,
				anthropic.NewTextBlock("File: "+f.Path),
				anthropic.NewTextBlock(string(f.Data)),
			)
		}
		if len(blocks) == 0 {
			continue
		}

		if m.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

func parseClaudeResponse(msg *anthropic.Message) *Response {
	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	stopReason := "stop"
	if msg.StopReason == anthropic.StopReasonMaxTokens {
		stopReason = "length"
	}

	return &Response{
		Content:    text.String(),
		StopReason: stopReason,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
}

func classifyClaudeError(model string, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return newAPIError(Claude, model, apiErr.StatusCode, strings.TrimSpace(apiErr.Error()), err)
	}
	return newAPIError(Claude, model, 0, "", err)
}
