package prompt

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Preset represents a reusable prompt template that can be loaded from YAML
// and rendered with variable interpolation.
type Preset struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	System      string            `yaml:"system"`
	User        string            `yaml:"user"`
	Metadata    map[string]string `yaml:"metadata"`
}

// LoadPreset reads a single Preset from a YAML file at path.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset file %s: %w", path, err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing preset file %s: %w", path, err)
	}

	return &p, nil
}

// LoadPresetDir loads all .yaml and .yml files from dir as Presets.
func LoadPresetDir(dir string) ([]*Preset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading preset directory %s: %w", dir, err)
	}

	var presets []*Preset
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		p, err := LoadPreset(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}

	return presets, nil
}

// Validate checks that the Preset has the minimum required fields.
func (p *Preset) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	if p.System == "" && p.User == "" {
		return fmt.Errorf("preset %q must have at least a system or user prompt", p.Name)
	}
	return nil
}

// Interpolate applies Go text/template rendering to the System and User fields
// using the provided variables. It returns a new Preset with the rendered
// strings; the original is not modified.
//
// Template variables use {{.VarName}} syntax. An error is returned if a
// template references a variable not present in vars.
func (p *Preset) Interpolate(vars map[string]interface{}) (*Preset, error) {
	rendered := &Preset{
		Name:        p.Name,
		Description: p.Description,
		Metadata:    p.Metadata,
	}

	var err error
	rendered.System, err = renderTemplate(p.Name+".system", p.System, vars)
	if err != nil {
		return nil, fmt.Errorf("interpolating system prompt for %q: %w", p.Name, err)
	}

	rendered.User, err = renderTemplate(p.Name+".user", p.User, vars)
	if err != nil {
		return nil, fmt.Errorf("interpolating user prompt for %q: %w", p.Name, err)
	}

	return rendered, nil
}

// Build interpolates the preset and assembles the result into a Prompt ready
// for completion.
func (p *Preset) Build(vars map[string]interface{}) (*Prompt, error) {
	rendered, err := p.Interpolate(vars)
	if err != nil {
		return nil, err
	}

	out := New()
	out.SetSystem(rendered.System)
	out.AddText(rendered.User)
	return out, nil
}

// renderTemplate parses and executes a Go text/template with "missingkey=error"
// so that undefined variables produce an error instead of empty strings.
func renderTemplate(name, text string, vars map[string]interface{}) (string, error) {
	if text == "" {
		return "", nil
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
