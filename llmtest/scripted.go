package llmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/odoo-odev/odev-ai/pkg/provider"
)

// Step is one scripted outcome: a response or an error, never both.
type Step struct {
	Response *provider.Response
	Err      error
}

// Respond creates a success step returning the given text.
func Respond(text string) Step {
	return Step{Response: &provider.Response{
		Content:    text,
		StopReason: "stop",
		Usage:      provider.Usage{InputTokens: 10, OutputTokens: 5},
	}}
}

// RespondUsage creates a success step with explicit token usage.
func RespondUsage(text string, input, output int) Step {
	return Step{Response: &provider.Response{
		Content:    text,
		StopReason: "stop",
		Usage:      provider.Usage{InputTokens: input, OutputTokens: output},
	}}
}

// Fail creates a failure step.
func Fail(err error) Step {
	return Step{Err: err}
}

// FailStatus creates a failure step carrying an API error with the given
// status code, as a vendor client would produce it.
func FailStatus(vendor provider.Vendor, model string, status int, message string) Step {
	return Step{Err: &provider.APIError{
		Vendor:     vendor,
		Model:      model,
		StatusCode: status,
		Message:    message,
	}}
}

// ScriptedProvider implements provider.Provider with a fixed sequence of
// outcomes and records every request it receives. Once the sequence is
// consumed, further calls return an error unless a default step is set.
// Safe for concurrent use.
type ScriptedProvider struct {
	mu       sync.Mutex
	steps    []Step
	idx      int
	def      *Step
	requests []*provider.Request
}

// NewScripted creates a provider that plays back the given steps in order.
func NewScripted(steps ...Step) *ScriptedProvider {
	return &ScriptedProvider{steps: steps}
}

// Always creates a provider that answers every call with the same step.
func Always(step Step) *ScriptedProvider {
	return &ScriptedProvider{def: &step}
}

// Complete records the request and plays the next scripted step.
func (s *ScriptedProvider) Complete(_ context.Context, req *provider.Request) (*provider.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, cloneRequest(req))

	var step Step
	switch {
	case s.idx < len(s.steps):
		step = s.steps[s.idx]
		s.idx++
	case s.def != nil:
		step = *s.def
	default:
		return nil, fmt.Errorf("scripted provider: no more steps (consumed %d/%d)", s.idx, len(s.steps))
	}

	if step.Err != nil {
		return nil, step.Err
	}
	resp := *step.Response
	return &resp, nil
}

// Name returns "scripted".
func (s *ScriptedProvider) Name() string { return "scripted" }

// CallCount returns how many times Complete has been called.
func (s *ScriptedProvider) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every recorded request in call order.
func (s *ScriptedProvider) Requests() []*provider.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*provider.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent recorded request, or nil if Complete
// has not been called.
func (s *ScriptedProvider) LastRequest() *provider.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// cloneRequest snapshots a request so later caller mutation (the facade
// reuses one request across fallback attempts) cannot corrupt the record.
func cloneRequest(req *provider.Request) *provider.Request {
	out := *req
	out.Messages = make([]provider.Message, len(req.Messages))
	for i, m := range req.Messages {
		out.Messages[i] = m
		if len(m.Files) > 0 {
			files := make([]provider.FilePart, len(m.Files))
			copy(files, m.Files)
			out.Messages[i].Files = files
		}
	}
	return &out
}
