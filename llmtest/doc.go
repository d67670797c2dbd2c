// Package llmtest provides test support for code built on the provider
// facade: a scriptable in-memory provider.Provider that plays back a fixed
// sequence of responses and errors while recording every request it
// receives, so tests can exercise completion flows with zero network.
//
// Example usage:
//
//	p := llmtest.NewScripted(
//	    llmtest.FailStatus(provider.Claude, "claude-sonnet-4-5", 429, "rate limited"),
//	    llmtest.Respond("fallback answer"),
//	)
//	client := llm.New(settings, llm.WithProvider(p))
//	res, err := client.Complete(ctx, llm.Task{Instruction: "say hi"})
//	// p.CallCount() == 2, p.Requests()[1].Model == second candidate
package llmtest
