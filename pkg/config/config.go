package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/odoo-odev/odev-ai/pkg/llm"
	"github.com/odoo-odev/odev-ai/pkg/provider"
)

// EnvConfigPath overrides the default config file location when set.
const EnvConfigPath = "ODEV_AI_CONFIG"

// Secret store coordinates for the AI credential saved by the setup wizard.
const (
	KeySecretName  = "llm_api_key"
	KeySecretScope = "api"
)

// Config holds the odev AI plugin configuration file.
type Config struct {
	AI AIConfig `yaml:"ai"`
}

// AIConfig is the `ai` section of the config file.
type AIConfig struct {
	// DefaultLLM names the selected vendor. Empty means the plugin is not
	// configured and the facade refuses to run.
	DefaultLLM string `yaml:"default_llm"`
	// LLMOrder optionally overrides the catalog's model candidate order.
	// Entries are "vendor/model" references or bare model names resolved
	// against DefaultLLM.
	LLMOrder []string `yaml:"llm_order,omitempty"`
	// BaseURLs optionally redirects a vendor's API endpoint, for proxies
	// and self-hosted gateways.
	BaseURLs map[string]string `yaml:"base_urls,omitempty"`
}

// Default returns an unconfigured Config.
func Default() *Config {
	return &Config{}
}

// Path returns the config file location: ODEV_AI_CONFIG when set, otherwise
// odev/ai.yaml under the user config directory.
func Path() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, "odev", "ai.yaml"), nil
}

// Load reads and parses a YAML config file at the given path.
// It returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from the given path. If the file does not exist,
// it returns the default configuration. Other errors (e.g. parse failures)
// are still returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Save writes the config as YAML at the given path, creating parent
// directories as needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// Vendor returns the configured vendor, or the zero Vendor when default_llm
// is empty or unknown.
func (c *Config) Vendor() provider.Vendor {
	if c.AI.DefaultLLM == "" {
		return ""
	}
	v, err := provider.ParseVendor(c.AI.DefaultLLM)
	if err != nil {
		return ""
	}
	return v
}

// ModelOrder parses llm_order into model references, resolving bare model
// names against the configured vendor. Entries that do not parse are
// skipped; Validate reports them.
func (c *Config) ModelOrder() []provider.ModelRef {
	if len(c.AI.LLMOrder) == 0 {
		return nil
	}
	vendor := c.Vendor()
	refs := make([]provider.ModelRef, 0, len(c.AI.LLMOrder))
	for _, entry := range c.AI.LLMOrder {
		ref, err := provider.ParseModelRef(entry, vendor)
		if err != nil {
			continue
		}
		refs = append(refs, ref)
	}
	if len(refs) == 0 {
		return nil
	}
	return refs
}

// VendorBaseURLs returns base_urls keyed by canonical vendor. Unknown vendor
// names are skipped; Validate reports them.
func (c *Config) VendorBaseURLs() map[provider.Vendor]string {
	if len(c.AI.BaseURLs) == 0 {
		return nil
	}
	urls := make(map[provider.Vendor]string, len(c.AI.BaseURLs))
	for name, raw := range c.AI.BaseURLs {
		v, err := provider.ParseVendor(name)
		if err != nil {
			continue
		}
		urls[v] = raw
	}
	return urls
}

// Settings assembles the immutable facade settings from this config and a
// resolved API key. The host calls this once at init; the facade never
// re-reads configuration afterwards.
func (c *Config) Settings(apiKey string) llm.Settings {
	return llm.Settings{
		Vendor:   c.Vendor(),
		APIKey:   apiKey,
		Order:    c.ModelOrder(),
		BaseURLs: c.VendorBaseURLs(),
	}
}

// Validate checks the config for consistency and returns a descriptive
// error listing every problem found.
func (c *Config) Validate() error {
	var errs []error

	vendor := provider.Vendor("")
	if c.AI.DefaultLLM != "" {
		v, err := provider.ParseVendor(c.AI.DefaultLLM)
		if err != nil {
			errs = append(errs, fmt.Errorf("ai.default_llm: %w", err))
		} else {
			vendor = v
		}
	}

	for _, entry := range c.AI.LLMOrder {
		if _, err := provider.ParseModelRef(entry, vendor); err != nil {
			errs = append(errs, fmt.Errorf("ai.llm_order: %w", err))
		}
	}

	for name, raw := range c.AI.BaseURLs {
		if _, err := provider.ParseVendor(name); err != nil {
			errs = append(errs, fmt.Errorf("ai.base_urls: %w", err))
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, fmt.Errorf("ai.base_urls.%s: %q is not an http(s) URL", name, raw))
		}
	}

	return errors.Join(errs...)
}

// SecretSource supplies stored credentials when the environment does not.
// *secrets.Store satisfies it.
type SecretSource interface {
	Get(name, scope string) (string, error)
}

// ResolveAPIKey returns the credential for the vendor. The vendor's
// environment variable wins; the secret store is consulted only when the
// environment is empty. A nil store limits resolution to the environment.
// An empty result without an error means no credential is configured.
func ResolveAPIKey(v provider.Vendor, store SecretSource) (string, error) {
	if name := v.KeyEnvVar(); name != "" {
		if key := os.Getenv(name); key != "" {
			return key, nil
		}
	}
	if store == nil {
		return "", nil
	}
	key, err := store.Get(KeySecretName, KeySecretScope)
	if err != nil {
		return "", fmt.Errorf("reading stored API key: %w", err)
	}
	return key, nil
}
