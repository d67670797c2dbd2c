// Package llm is the provider facade: the single entry point consumer
// plugins use to obtain LLM output without knowing which vendor is active.
//
// A Client is constructed once from an immutable Settings snapshot the host
// resolved at startup. Complete submits a task and returns the provider's
// text unmodified; on retriable vendor failures the client walks the
// configured candidate model order before giving up. Failures map onto a
// small sentinel taxonomy (ErrNotConfigured, ErrInvalidCredential,
// ErrProviderUnavailable, ErrEmptyTask) while the underlying vendor error
// stays inspectable via errors.As.
//
// Without configuration the facade performs no network activity at all: no
// vendor client is ever constructed.
package llm
