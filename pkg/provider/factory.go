package provider

import (
	"fmt"
	"net/http"
)

// Config carries the construction parameters shared by all vendor clients.
type Config struct {
	APIKey     string
	BaseURL    string       // optional endpoint override, e.g. a proxy
	HTTPClient *http.Client // optional, mainly for tests
}

// New constructs the client for the given vendor.
func New(v Vendor, cfg Config) (Provider, error) {
	switch v {
	case Gemini:
		var opts []GeminiOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithGeminiBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, WithGeminiHTTPClient(cfg.HTTPClient))
		}
		return NewGeminiProvider(cfg.APIKey, opts...), nil

	case ChatGPT:
		var opts []ChatGPTOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithChatGPTBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, WithChatGPTHTTPClient(cfg.HTTPClient))
		}
		return NewChatGPTProvider(cfg.APIKey, opts...), nil

	case Claude:
		var opts []ClaudeOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithClaudeBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, WithClaudeHTTPClient(cfg.HTTPClient))
		}
		return NewClaudeProvider(cfg.APIKey, opts...), nil

	case Grok:
		var opts []GrokOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithGrokBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPClient != nil {
			opts = append(opts, WithGrokHTTPClient(cfg.HTTPClient))
		}
		return NewGrokProvider(cfg.APIKey, opts...), nil
	}

	return nil, fmt.Errorf("unknown provider %q", v)
}
