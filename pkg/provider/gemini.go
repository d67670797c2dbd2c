package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// GeminiOption configures a GeminiProvider.
type GeminiOption func(*GeminiProvider)

// WithGeminiHTTPClient sets a custom HTTP client (useful for testing).
func WithGeminiHTTPClient(c *http.Client) GeminiOption {
	return func(p *GeminiProvider) { p.httpClient = c }
}

// WithGeminiBaseURL overrides the Gemini API base URL.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(p *GeminiProvider) { p.baseURL = url }
}

// GeminiProvider implements Provider for the Gemini API.
type GeminiProvider struct {
	baseURL    string
	httpClient *http.Client
	client     *genai.Client
	initErr    error
}

// NewGeminiProvider creates a Gemini client with the given API key.
func NewGeminiProvider(apiKey string, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		p.initErr = err
		return p
	}
	p.client = client
	return p
}

// Name returns "gemini".
func (p *GeminiProvider) Name() string { return string(Gemini) }

// Complete sends a request to the Gemini GenerateContent API.
func (p *GeminiProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p.initErr != nil {
		return nil, newAPIError(Gemini, req.Model, 0, "client initialization failed", p.initErr)
	}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}
	if req.Temperature != 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.MaxTokens != 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, req.Model, buildGeminiContents(req.Messages), config)
	if err != nil {
		return nil, classifyGeminiError(req.Model, err)
	}
	if len(resp.Candidates) == 0 {
		return nil, newAPIError(Gemini, req.Model, 0, "response contained no candidates", nil)
	}

	candidate := resp.Candidates[0]
	return &Response{
		Content:    flattenGeminiText(candidate),
		StopReason: mapGeminiStopReason(candidate.FinishReason),
		Usage:      geminiUsage(resp),
	}, nil
}

func buildGeminiContents(msgs []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}

		var parts []*genai.Part
		if m.Content != "" {
			parts = append(parts, genai.NewPartFromText(m.Content))
		}
		// Attachments travel as inline data, which the API transports base64
		// encoded with the file's MIME type.
		for _, f := range m.Files {
			parts = append(parts,
				genai.NewPartFromText("File: "+f.Path),
				genai.NewPartFromBytes(f.Data, f.ContentType()),
			)
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: string(role), Parts: parts})
	}
	return out
}

func flattenGeminiText(candidate *genai.Candidate) string {
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	return text.String()
}

func mapGeminiStopReason(reason genai.FinishReason) string {
	if reason == genai.FinishReasonMaxTokens {
		return "length"
	}
	return "stop"
}

func geminiUsage(resp *genai.GenerateContentResponse) Usage {
	if resp.UsageMetadata == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
	}
}

func classifyGeminiError(model string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return newAPIError(Gemini, model, apiErr.Code, strings.TrimSpace(apiErr.Message), err)
	}
	return newAPIError(Gemini, model, 0, "", err)
}
