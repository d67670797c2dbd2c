package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/odoo-odev/odev-ai/pkg/prompt"
	"github.com/odoo-odev/odev-ai/pkg/provider"
	"github.com/odoo-odev/odev-ai/pkg/usage"
)

// Settings is the immutable configuration snapshot a Client is built from.
// The host resolves it once at startup (config file + secret store) and
// hands it over; the facade never reads configuration on its own.
type Settings struct {
	// Vendor is the selected backend.
	Vendor provider.Vendor

	// APIKey is the credential for the selected vendor.
	APIKey string

	// Order optionally overrides the catalog's candidate model order.
	// Entries for other vendors are ignored; the walk stays on Vendor.
	Order []provider.ModelRef

	// BaseURLs optionally overrides vendor endpoints, e.g. for proxies.
	BaseURLs map[provider.Vendor]string
}

// Configured reports whether the settings name a known vendor and a key.
func (s Settings) Configured() bool {
	return s.Vendor.Known() && s.APIKey != ""
}

// Task is one unit of work submitted to the facade: what to do, plus
// optional free-form context the instruction operates in.
type Task struct {
	Instruction string
	Context     string
}

// Result carries the provider's textual output, returned unmodified, along
// with which model answered and what it consumed.
type Result struct {
	Text  string
	Model provider.ModelRef
	Usage provider.Usage
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRecorder attaches a usage recorder that receives one record per
// successful completion.
func WithRecorder(r *usage.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithHTTPClient sets the HTTP client handed to vendor SDKs.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxTokens caps the completion length for every request.
func WithMaxTokens(n int) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithTemperature sets the sampling temperature for every request.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// WithProvider injects a ready-made backend instead of constructing a vendor
// client from the settings. Intended for tests.
func WithProvider(p provider.Provider) Option {
	return func(c *Client) { c.backend = p }
}

// Client is the provider facade consumer plugins call. It dispatches tasks
// to the configured vendor, walks the candidate model order on retriable
// failures, and maps every failure into the package's error taxonomy.
// A Client is safe for concurrent use.
type Client struct {
	settings    Settings
	order       []provider.ModelRef
	logger      *logrus.Logger
	recorder    *usage.Recorder
	httpClient  *http.Client
	maxTokens   int
	temperature float64

	mu      sync.Mutex
	backend provider.Provider
}

// New creates a facade from a settings snapshot. Construction is cheap and
// never touches the network; the vendor client is built on first use.
func New(settings Settings, opts ...Option) *Client {
	c := &Client{
		settings: settings,
		order:    resolveOrder(settings),
		logger:   discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// resolveOrder picks the candidate model list: the explicit configured order
// restricted to the selected vendor, or the catalog default.
func resolveOrder(s Settings) []provider.ModelRef {
	if !s.Vendor.Known() {
		return nil
	}
	out := make([]provider.ModelRef, 0, len(s.Order))
	for _, ref := range s.Order {
		if ref.Vendor == s.Vendor {
			out = append(out, ref)
		}
	}
	if len(out) == 0 {
		return provider.DefaultOrder(s.Vendor)
	}
	return out
}

// Models returns the candidate model order the facade will walk.
func (c *Client) Models() []provider.ModelRef {
	out := make([]provider.ModelRef, len(c.order))
	copy(out, c.order)
	return out
}

// Complete submits a task and returns the provider's textual output
// unmodified. The context string, when present, becomes the system
// instruction.
func (c *Client) Complete(ctx context.Context, task Task) (*Result, error) {
	if !c.settings.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(task.Instruction) == "" {
		return nil, ErrEmptyTask
	}

	p := prompt.New()
	p.SetSystem(task.Context)
	p.AddText(task.Instruction)
	return c.CompletePrompt(ctx, p)
}

// CompletePrompt submits an assembled prompt, for callers that need file
// attachments or multi-part text.
func (c *Client) CompletePrompt(ctx context.Context, p *prompt.Prompt) (*Result, error) {
	if !c.settings.Configured() {
		return nil, ErrNotConfigured
	}
	if p == nil || p.Empty() {
		return nil, ErrEmptyTask
	}

	req := &provider.Request{
		System:      p.System(),
		Messages:    p.Messages(),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	return c.complete(ctx, req)
}

// complete walks the candidate model order until one answers.
func (c *Client) complete(ctx context.Context, req *provider.Request) (*Result, error) {
	backend, err := c.provider()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	var attempts []error
	for _, ref := range c.order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req.Model = ref.Model
		start := time.Now()
		resp, err := backend.Complete(ctx, req)
		if err == nil {
			c.record(ref, resp, time.Since(start))
			return &Result{Text: resp.Content, Model: ref, Usage: resp.Usage}, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if provider.IsAuth(err) {
			return nil, fmt.Errorf("%s: %w: %w", ref, ErrInvalidCredential, err)
		}
		if provider.IsTransient(err) || provider.IsContextTooLarge(err) {
			c.logger.WithFields(logrus.Fields{
				"model": ref.String(),
				"error": err.Error(),
			}).Warn("model failed, trying next candidate")
			attempts = append(attempts, fmt.Errorf("%s: %w", ref, err))
			continue
		}
		return nil, fmt.Errorf("%s: %w: %w", ref, ErrProviderUnavailable, err)
	}

	if len(attempts) == 0 {
		return nil, fmt.Errorf("%w: no candidate models for %s", ErrProviderUnavailable, c.settings.Vendor)
	}
	return nil, fmt.Errorf("%w: all models failed: %w", ErrProviderUnavailable, errors.Join(attempts...))
}

// provider returns the vendor backend, constructing it on first use.
func (c *Client) provider() (provider.Provider, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backend != nil {
		return c.backend, nil
	}

	p, err := provider.New(c.settings.Vendor, provider.Config{
		APIKey:     c.settings.APIKey,
		BaseURL:    c.settings.BaseURLs[c.settings.Vendor],
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return nil, err
	}
	c.backend = p
	return p, nil
}

// record logs one finished completion and feeds the recorder if attached.
func (c *Client) record(ref provider.ModelRef, resp *provider.Response, elapsed time.Duration) {
	cost := provider.EstimateCost(ref.Model, resp.Usage)
	c.logger.WithFields(logrus.Fields{
		"vendor":        string(ref.Vendor),
		"model":         ref.Model,
		"input_tokens":  resp.Usage.InputTokens,
		"output_tokens": resp.Usage.OutputTokens,
		"cost":          cost,
		"duration":      elapsed.String(),
	}).Debug("completion finished")

	if c.recorder != nil {
		c.recorder.Add(usage.Record{
			Vendor:       string(ref.Vendor),
			Model:        ref.Model,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			Cost:         cost,
			Duration:     elapsed,
		})
	}
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
