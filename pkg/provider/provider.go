package provider

import (
	"context"
	"time"
)

const (
	defaultHTTPTimeout = 120 * time.Second
	defaultMaxTokens   = 4096
)

// Provider defines the interface for LLM vendor backends.
type Provider interface {
	// Complete sends a completion request and returns the model response.
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Name returns the vendor identifier (e.g. "claude").
	Name() string
}

// Request represents a completion request to an LLM vendor.
type Request struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a single message in a conversation. File attachments
// are rendered vendor-specifically by each client: Gemini receives them as
// inline base64 parts, all other vendors as paired text blocks.
type Message struct {
	Role    string     `json:"role"`
	Content string     `json:"content,omitempty"`
	Files   []FilePart `json:"files,omitempty"`
}

// FilePart is a file attached to a message.
type FilePart struct {
	Path string `json:"path"`
	Data []byte `json:"data"`
	MIME string `json:"mime,omitempty"`
}

// ContentType returns the attachment's MIME type, defaulting to text/plain.
func (f FilePart) ContentType() string {
	if f.MIME == "" {
		return "text/plain"
	}
	return f.MIME
}

// Response represents a completion response from an LLM vendor.
type Response struct {
	Content    string `json:"content"`
	Usage      Usage  `json:"usage"`
	StopReason string `json:"stop_reason"`
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}
