package llm

import "errors"

var (
	// ErrNotConfigured is returned when no provider has been configured.
	// Running setup creates the configuration.
	ErrNotConfigured = errors.New("no AI provider configured")

	// ErrInvalidCredential is returned when the vendor rejects the API key.
	// The model order is not walked further after an auth rejection.
	ErrInvalidCredential = errors.New("AI provider rejected the API key")

	// ErrProviderUnavailable is returned when the backend cannot be reached
	// or every candidate model failed.
	ErrProviderUnavailable = errors.New("AI provider unavailable")

	// ErrEmptyTask is returned when a task carries no instruction.
	ErrEmptyTask = errors.New("task instruction is empty")
)
