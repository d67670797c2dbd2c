package setup

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odoo-odev/odev-ai/pkg/config"
)

type fakeStore struct {
	values map[string]string
}

func (f *fakeStore) Set(name, scope, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[scope+"/"+name] = value
	return nil
}

func (f *fakeStore) Get(name, scope string) (string, error) {
	return f.values[scope+"/"+name], nil
}

func tempConfigPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "odev", "ai.yaml")
}

func storedKey(f *fakeStore) string {
	return f.values[config.KeySecretScope+"/"+config.KeySecretName]
}

func TestRun_ConfiguresVendorAndKey(t *testing.T) {
	path := tempConfigPath(t)
	store := &fakeStore{}
	var out bytes.Buffer

	// 3 selects Claude in the numbered list.
	w := New(strings.NewReader("3\nsk-ant-123\n"), &out, store, path)
	if err := w.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if cfg.AI.DefaultLLM != "claude" {
		t.Errorf("default_llm = %q, want %q", cfg.AI.DefaultLLM, "claude")
	}
	if got := storedKey(store); got != "sk-ant-123" {
		t.Errorf("stored key = %q, want %q", got, "sk-ant-123")
	}

	output := out.String()
	if !strings.Contains(output, "console.anthropic.com") {
		t.Errorf("output does not show the Claude key URL:\n%s", output)
	}
	if !strings.Contains(output, "Claude") {
		t.Errorf("output does not name the selected vendor:\n%s", output)
	}
}

func TestRun_EmptyKeyKeepsExisting(t *testing.T) {
	path := tempConfigPath(t)
	store := &fakeStore{}
	store.Set(config.KeySecretName, config.KeySecretScope, "old-key")
	var out bytes.Buffer

	// Switch vendor, keep the key by entering nothing.
	w := New(strings.NewReader("1\n\n"), &out, store, path)
	if err := w.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if cfg.AI.DefaultLLM != "gemini" {
		t.Errorf("default_llm = %q, want %q", cfg.AI.DefaultLLM, "gemini")
	}
	if got := storedKey(store); got != "old-key" {
		t.Errorf("stored key = %q, want the existing key untouched", got)
	}
	if !strings.Contains(out.String(), "Keeping the stored API key") {
		t.Errorf("output does not confirm the kept key:\n%s", out.String())
	}
}

func TestRun_EmptyKeyNothingStored(t *testing.T) {
	path := tempConfigPath(t)
	store := &fakeStore{}
	var out bytes.Buffer

	w := New(strings.NewReader("2\n\n"), &out, store, path)
	if err := w.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if got := storedKey(store); got != "" {
		t.Errorf("stored key = %q, want nothing stored", got)
	}
	if !strings.Contains(out.String(), "OPENAI_API_KEY") {
		t.Errorf("output does not point at the vendor env var:\n%s", out.String())
	}
}

func TestRun_DefaultKeepsCurrentVendor(t *testing.T) {
	path := tempConfigPath(t)
	cfg := config.Default()
	cfg.AI.DefaultLLM = "chatgpt"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("seeding config: %v", err)
	}

	store := &fakeStore{}
	var out bytes.Buffer

	// Empty choice accepts the current vendor.
	w := New(strings.NewReader("\nnew-key\n"), &out, store, path)
	if err := w.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	saved, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if saved.AI.DefaultLLM != "chatgpt" {
		t.Errorf("default_llm = %q, want the current vendor kept", saved.AI.DefaultLLM)
	}
	if got := storedKey(store); got != "new-key" {
		t.Errorf("stored key = %q, want %q", got, "new-key")
	}
	if !strings.Contains(out.String(), "(current)") {
		t.Errorf("output does not mark the current vendor:\n%s", out.String())
	}
}

func TestRun_RepromptsOnInvalidChoice(t *testing.T) {
	path := tempConfigPath(t)
	store := &fakeStore{}
	var out bytes.Buffer

	w := New(strings.NewReader("9\nabc\n4\nxai-1\n"), &out, store, path)
	if err := w.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if cfg.AI.DefaultLLM != "grok" {
		t.Errorf("default_llm = %q, want %q", cfg.AI.DefaultLLM, "grok")
	}
	if !strings.Contains(out.String(), "between 1 and 4") {
		t.Errorf("output does not re-prompt on invalid input:\n%s", out.String())
	}
}

func TestRun_EOF(t *testing.T) {
	w := New(strings.NewReader(""), &bytes.Buffer{}, &fakeStore{}, tempConfigPath(t))
	if err := w.Run(); err == nil {
		t.Fatal("Run() expected error on exhausted input")
	}
}

func TestApply(t *testing.T) {
	path := tempConfigPath(t)
	store := &fakeStore{}

	// "openai" is an alias; the canonical vendor id must be persisted.
	if err := Apply(path, store, "openai", "sk-x"); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if cfg.AI.DefaultLLM != "chatgpt" {
		t.Errorf("default_llm = %q, want %q", cfg.AI.DefaultLLM, "chatgpt")
	}
	if got := storedKey(store); got != "sk-x" {
		t.Errorf("stored key = %q, want %q", got, "sk-x")
	}
}

func TestApply_UnknownVendor(t *testing.T) {
	err := Apply(tempConfigPath(t), &fakeStore{}, "mistral", "sk-x")
	if err == nil {
		t.Fatal("Apply() expected error for unknown vendor")
	}
	if !strings.Contains(err.Error(), "mistral") {
		t.Errorf("error = %q, want it to name the vendor", err)
	}
}

func TestApply_EmptyKeyKeepsStore(t *testing.T) {
	path := tempConfigPath(t)
	store := &fakeStore{}
	store.Set(config.KeySecretName, config.KeySecretScope, "keep-me")

	if err := Apply(path, store, "grok", ""); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if got := storedKey(store); got != "keep-me" {
		t.Errorf("stored key = %q, want the existing key untouched", got)
	}
}
