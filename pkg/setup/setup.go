// Package setup implements the wizard that configures the AI plugin:
// vendor selection persisted to the config file and API key capture into
// the secret store.
package setup

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/odoo-odev/odev-ai/pkg/config"
	"github.com/odoo-odev/odev-ai/pkg/provider"
)

// SecretStore persists the captured API key. *secrets.Store satisfies it.
type SecretStore interface {
	Set(name, scope, value string) error
	Get(name, scope string) (string, error)
}

// Wizard walks the user through vendor selection and credential capture.
type Wizard struct {
	in         io.Reader
	reader     *bufio.Reader
	writer     io.Writer
	store      SecretStore
	configPath string
}

// New returns a wizard reading prompts from in and writing to out.
// Production passes os.Stdin so the API key is read without echo; tests
// drive the wizard through any reader.
func New(in io.Reader, out io.Writer, store SecretStore, configPath string) *Wizard {
	return &Wizard{
		in:         in,
		reader:     bufio.NewReader(in),
		writer:     out,
		store:      store,
		configPath: configPath,
	}
}

// Run executes the wizard: select a vendor, save it as ai.default_llm,
// then capture the API key. Entering an empty key keeps an already stored
// one, so re-running setup to switch vendors does not wipe the credential.
func (w *Wizard) Run() error {
	cfg, err := config.LoadOrDefault(w.configPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(w.writer, "odev AI setup\n\n")

	vendor, err := w.selectVendor(cfg.Vendor())
	if err != nil {
		return err
	}

	cfg.AI.DefaultLLM = string(vendor)
	if err := cfg.Save(w.configPath); err != nil {
		return err
	}

	fmt.Fprintf(w.writer, "\nYou can create an API key at: %s\n", vendor.KeyURL())

	key, err := w.readKey("Enter your LLM API key: ")
	if err != nil {
		return err
	}

	if key == "" {
		existing, err := w.store.Get(config.KeySecretName, config.KeySecretScope)
		if err != nil {
			return err
		}
		if existing != "" {
			fmt.Fprintf(w.writer, "Keeping the stored API key.\n")
		} else {
			fmt.Fprintf(w.writer, "No API key stored. Set %s or re-run setup to provide one.\n", vendor.KeyEnvVar())
		}
	} else {
		if err := w.store.Set(config.KeySecretName, config.KeySecretScope, key); err != nil {
			return err
		}
	}

	fmt.Fprintf(w.writer, "AI plugin configured: %s\n", vendor.Display())
	return nil
}

// Apply configures the plugin without prompting. An empty key keeps
// whatever the store already holds.
func Apply(configPath string, store SecretStore, vendorName, apiKey string) error {
	vendor, err := provider.ParseVendor(vendorName)
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	cfg.AI.DefaultLLM = string(vendor)
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	if apiKey != "" {
		if err := store.Set(config.KeySecretName, config.KeySecretScope, apiKey); err != nil {
			return err
		}
	}
	return nil
}

func (w *Wizard) selectVendor(current provider.Vendor) (provider.Vendor, error) {
	vendors := provider.Vendors()

	fmt.Fprintf(w.writer, "Which LLM do you want to use?\n")
	def := 1
	for i, v := range vendors {
		marker := ""
		if v == current {
			def = i + 1
			marker = " (current)"
		}
		fmt.Fprintf(w.writer, "%d. %s%s\n", i+1, v.Display(), marker)
	}

	choice, err := w.readChoice("Enter choice", 1, len(vendors), def)
	if err != nil {
		return "", err
	}
	return vendors[choice-1], nil
}

func (w *Wizard) readChoice(prompt string, min, max, def int) (int, error) {
	for {
		fmt.Fprintf(w.writer, "%s [%d-%d]: ", prompt, min, max)
		line, err := w.reader.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return 0, fmt.Errorf("reading choice: %w", err)
		}
		line = strings.TrimSpace(line)

		if line == "" {
			return def, nil
		}

		choice, convErr := strconv.Atoi(line)
		if convErr != nil || choice < min || choice > max {
			fmt.Fprintf(w.writer, "Please enter a number between %d and %d\n", min, max)
			if err != nil {
				return 0, fmt.Errorf("reading choice: %w", err)
			}
			continue
		}
		return choice, nil
	}
}

// readKey reads the API key without echo when the input is a terminal.
// Piped and injected input is read as a plain line so tests can drive it.
func (w *Wizard) readKey(prompt string) (string, error) {
	fmt.Fprint(w.writer, prompt)

	if f, ok := w.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(w.writer)
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	line, err := w.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	return strings.TrimSpace(line), nil
}
