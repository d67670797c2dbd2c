package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ChatGPTOption configures a ChatGPTProvider.
type ChatGPTOption func(*ChatGPTProvider)

// WithChatGPTHTTPClient sets a custom HTTP client (useful for testing).
func WithChatGPTHTTPClient(c *http.Client) ChatGPTOption {
	return func(p *ChatGPTProvider) { p.chat.httpClient = c }
}

// WithChatGPTBaseURL overrides the OpenAI API base URL.
func WithChatGPTBaseURL(url string) ChatGPTOption {
	return func(p *ChatGPTProvider) { p.chat.baseURL = url }
}

// ChatGPTProvider implements Provider for the OpenAI Chat Completions API.
type ChatGPTProvider struct {
	chat openAIChat
}

// NewChatGPTProvider creates a ChatGPT client with the given API key.
func NewChatGPTProvider(apiKey string, opts ...ChatGPTOption) *ChatGPTProvider {
	p := &ChatGPTProvider{chat: openAIChat{
		vendor:     ChatGPT,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}}
	for _, opt := range opts {
		opt(p)
	}
	p.chat.init(apiKey)
	return p
}

// Name returns "chatgpt".
func (p *ChatGPTProvider) Name() string { return string(ChatGPT) }

// Complete sends a request to the OpenAI Chat Completions API.
func (p *ChatGPTProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	return p.chat.complete(ctx, req)
}

// openAIChat is the chat-completion core shared by the ChatGPT and Grok
// clients; xAI exposes the same protocol under its own base URL.
type openAIChat struct {
	vendor     Vendor
	baseURL    string
	httpClient *http.Client
	client     openai.Client
}

func (c *openAIChat) init(apiKey string) {
	// Failing models are routed to the next candidate by the caller, so the
	// SDK's own retry loop stays off.
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = openai.NewClient(reqOpts...)
}

func (c *openAIChat) complete(ctx context.Context, req *Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    req.Model,
		Messages: buildOpenAIMessages(req),
	}
	if req.Temperature != 0 {
		params.Temperature = openai.Opt(req.Temperature)
	}
	if req.MaxTokens != 0 {
		params.MaxCompletionTokens = openai.Opt(int64(req.MaxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classifyOpenAIError(c.vendor, req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, newAPIError(c.vendor, req.Model, 0, "response contained no choices", nil)
	}

	choice := resp.Choices[0]
	stopReason := "stop"
	if choice.FinishReason == "length" {
		stopReason = "length"
	}

	return &Response{
		Content:    choice.Message.Content,
		StopReason: stopReason,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}

func buildOpenAIMessages(req *Request) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		content := renderFilesText(m.Content, m.Files)
		if content == "" {
			continue
		}
		if m.Role == "assistant" {
			out = append(out, openai.AssistantMessage(content))
		} else {
			out = append(out, openai.UserMessage(content))
		}
	}
	return out
}

// renderFilesText appends file attachments to the message text as paired
// "File: <path>" header and content sections.
func renderFilesText(content string, files []FilePart) string {
	if len(files) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	for _, f := range files {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("File: ")
		b.WriteString(f.Path)
		b.WriteString("\n\n")
		b.Write(f.Data)
	}
	return b.String()
}

func classifyOpenAIError(v Vendor, model string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return newAPIError(v, model, apiErr.StatusCode, strings.TrimSpace(apiErr.Message), err)
	}
	return newAPIError(v, model, 0, "", err)
}
