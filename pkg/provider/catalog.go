package provider

import (
	"fmt"
	"strings"
)

// Vendor identifies a supported LLM backend.
type Vendor string

const (
	Gemini  Vendor = "gemini"
	ChatGPT Vendor = "chatgpt"
	Claude  Vendor = "claude"
	Grok    Vendor = "grok"
)

// vendorInfo holds the static metadata for one vendor.
type vendorInfo struct {
	Display   string
	KeyURL    string   // console page where an API key is created
	KeyEnvVar string   // environment variable checked before the secret store
	Models    []string // candidate models, preferred first
}

// catalog maps each vendor to its metadata and ordered model candidates.
// Earlier models are preferred; later entries are fallbacks tried only after
// a retriable failure.
var catalog = map[Vendor]vendorInfo{
	Gemini: {
		Display:   "Gemini",
		KeyURL:    "https://aistudio.google.com/app/apikey",
		KeyEnvVar: "GEMINI_API_KEY",
		Models:    []string{"gemini-2.5-pro", "gemini-2.5-flash"},
	},
	ChatGPT: {
		Display:   "ChatGPT",
		KeyURL:    "https://platform.openai.com/account/api-keys",
		KeyEnvVar: "OPENAI_API_KEY",
		Models:    []string{"gpt-5", "gpt-4.1"},
	},
	Claude: {
		Display:   "Claude",
		KeyURL:    "https://console.anthropic.com/",
		KeyEnvVar: "ANTHROPIC_API_KEY",
		Models:    []string{"claude-sonnet-4-5", "claude-3-7-sonnet-latest"},
	},
	Grok: {
		Display:   "Grok",
		KeyURL:    "https://x.ai/",
		KeyEnvVar: "XAI_API_KEY",
		Models:    []string{"grok-4", "grok-3"},
	},
}

// vendorOrder is the stable presentation order for the supported vendors.
var vendorOrder = []Vendor{Gemini, ChatGPT, Claude, Grok}

// aliases maps alternative vendor spellings to canonical identifiers.
var aliases = map[string]Vendor{
	"google":    Gemini,
	"openai":    ChatGPT,
	"gpt":       ChatGPT,
	"anthropic": Claude,
	"xai":       Grok,
	"x.ai":      Grok,
}

// Vendors returns the supported vendor identifiers in stable order.
func Vendors() []Vendor {
	out := make([]Vendor, len(vendorOrder))
	copy(out, vendorOrder)
	return out
}

// ParseVendor normalizes a vendor name or alias to its canonical identifier.
func ParseVendor(name string) (Vendor, error) {
	v := Vendor(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := catalog[v]; ok {
		return v, nil
	}
	if canonical, ok := aliases[string(v)]; ok {
		return canonical, nil
	}
	return "", fmt.Errorf("unknown provider %q (supported: %s)", name, joinVendors())
}

func joinVendors() string {
	names := make([]string, len(vendorOrder))
	for i, v := range vendorOrder {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// Display returns the human-readable vendor name.
func (v Vendor) Display() string { return catalog[v].Display }

// KeyURL returns the console URL where an API key for the vendor is created.
func (v Vendor) KeyURL() string { return catalog[v].KeyURL }

// KeyEnvVar returns the environment variable holding the vendor's API key.
func (v Vendor) KeyEnvVar() string { return catalog[v].KeyEnvVar }

// Models returns a copy of the vendor's candidate models, preferred first.
func (v Vendor) Models() []string {
	src := catalog[v].Models
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Known reports whether v is a supported vendor.
func (v Vendor) Known() bool {
	_, ok := catalog[v]
	return ok
}

// ModelRef identifies one candidate model at one vendor.
type ModelRef struct {
	Vendor Vendor
	Model  string
}

// String renders the reference in "vendor/model" form.
func (r ModelRef) String() string { return string(r.Vendor) + "/" + r.Model }

// ParseModelRef parses a "vendor/model" reference. A bare model name is
// resolved against fallback; an empty fallback makes bare names an error.
func ParseModelRef(s string, fallback Vendor) (ModelRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModelRef{}, fmt.Errorf("empty model reference")
	}

	if vendorPart, modelPart, ok := strings.Cut(s, "/"); ok {
		v, err := ParseVendor(vendorPart)
		if err != nil {
			return ModelRef{}, fmt.Errorf("model reference %q: %w", s, err)
		}
		modelPart = strings.TrimSpace(modelPart)
		if modelPart == "" {
			return ModelRef{}, fmt.Errorf("model reference %q has no model name", s)
		}
		return ModelRef{Vendor: v, Model: modelPart}, nil
	}

	if !fallback.Known() {
		return ModelRef{}, fmt.Errorf("model reference %q has no vendor and no default provider is configured", s)
	}
	return ModelRef{Vendor: fallback, Model: s}, nil
}

// DefaultOrder returns the catalog's candidate models for the vendor as
// fully-qualified references.
func DefaultOrder(v Vendor) []ModelRef {
	models := catalog[v].Models
	out := make([]ModelRef, len(models))
	for i, m := range models {
		out[i] = ModelRef{Vendor: v, Model: m}
	}
	return out
}
