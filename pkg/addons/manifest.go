package addons

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ManifestFile is the manifest filename marking a directory as an addon.
const ManifestFile = "__manifest__.py"

// Manifest holds the addon manifest fields that matter for dependency
// resolution.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Depends     []string `json:"depends"`
	Installable bool     `json:"installable"`
	AutoInstall bool     `json:"auto_install"`
}

// IsAddon reports whether dir contains an addon manifest.
func IsAddon(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ManifestFile))
	return err == nil && info.Mode().IsRegular()
}

// ReadManifest parses addonDir/__manifest__.py. The manifest is a Python
// dict literal; it is normalized and repaired into JSON before decoding,
// so single quotes, trailing commas, and comments are all tolerated.
func ReadManifest(addonDir string) (*Manifest, error) {
	path := filepath.Join(addonDir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	m, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = filepath.Base(addonDir)
	}
	return m, nil
}

func parseManifest(data []byte) (*Manifest, error) {
	normalized := normalizePython(string(data))

	var raw map[string]any
	if err := json.Unmarshal([]byte(normalized), &raw); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(normalized)
		if repairErr != nil {
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, fmt.Errorf("parsing manifest: %w", err)
		}
	}

	// installable defaults to true when the manifest omits it.
	m := &Manifest{Installable: true}
	if v, ok := raw["name"].(string); ok {
		m.Name = v
	}
	if v, ok := raw["version"].(string); ok {
		m.Version = v
	}
	if v, ok := raw["installable"].(bool); ok {
		m.Installable = v
	}
	switch v := raw["auto_install"].(type) {
	case bool:
		m.AutoInstall = v
	case []any:
		// The list form means auto-install once those addons are present.
		m.AutoInstall = true
	}
	if deps, ok := raw["depends"].([]any); ok {
		for _, d := range deps {
			if s, ok := d.(string); ok && s != "" {
				m.Depends = append(m.Depends, s)
			}
		}
	}
	return m, nil
}

// normalizePython rewrites a Python dict literal toward JSON: comments are
// stripped and True/False/None replaced, both only outside string literals.
// jsonrepair downstream handles single quotes and trailing commas.
func normalizePython(src string) string {
	var out strings.Builder
	out.Grow(len(src))

	inString := byte(0) // the active quote, 0 when outside a string
	for i := 0; i < len(src); i++ {
		c := src[i]

		if inString != 0 {
			out.WriteByte(c)
			if c == '\\' && i+1 < len(src) {
				i++
				out.WriteByte(src[i])
				continue
			}
			if c == inString {
				inString = 0
			}
			continue
		}

		switch {
		case c == '\'' || c == '"':
			inString = c
			out.WriteByte(c)
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if i < len(src) {
				out.WriteByte('\n')
			}
		case isIdentByte(c):
			start := i
			for i < len(src) && isIdentByte(src[i]) {
				i++
			}
			word := src[start:i]
			i--
			switch word {
			case "True":
				out.WriteString("true")
			case "False":
				out.WriteString("false")
			case "None":
				out.WriteString("null")
			default:
				out.WriteString(word)
			}
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
