// Package provider defines the LLM vendor interface, the model catalog, and
// one client per supported backend (Gemini, ChatGPT, Claude, Grok), each
// built on the vendor's official SDK.
package provider
