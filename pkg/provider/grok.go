package provider

import (
	"context"
	"net/http"
)

// Trailing slash keeps the SDK's relative path resolution from dropping
// the /v1 segment.
const defaultGrokBaseURL = "https://api.x.ai/v1/"

// GrokOption configures a GrokProvider.
type GrokOption func(*GrokProvider)

// WithGrokHTTPClient sets a custom HTTP client (useful for testing).
func WithGrokHTTPClient(c *http.Client) GrokOption {
	return func(p *GrokProvider) { p.chat.httpClient = c }
}

// WithGrokBaseURL overrides the xAI API base URL.
func WithGrokBaseURL(url string) GrokOption {
	return func(p *GrokProvider) { p.chat.baseURL = url }
}

// GrokProvider implements Provider for the xAI API, an OpenAI-compatible
// chat-completion endpoint.
type GrokProvider struct {
	chat openAIChat
}

// NewGrokProvider creates a Grok client with the given API key.
func NewGrokProvider(apiKey string, opts ...GrokOption) *GrokProvider {
	p := &GrokProvider{chat: openAIChat{
		vendor:     Grok,
		baseURL:    defaultGrokBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}}
	for _, opt := range opts {
		opt(p)
	}
	p.chat.init(apiKey)
	return p
}

// Name returns "grok".
func (p *GrokProvider) Name() string { return string(Grok) }

// Complete sends a request to the xAI chat-completion endpoint.
func (p *GrokProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	return p.chat.complete(ctx, req)
}
