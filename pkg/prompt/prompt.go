package prompt

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/odoo-odev/odev-ai/pkg/provider"
)

// Prompt accumulates the system instruction, user text, and file attachments
// for a single completion request. The zero value is usable; the builder is
// not safe for concurrent use.
type Prompt struct {
	system string
	texts  []string
	files  []provider.FilePart
}

// New returns an empty Prompt.
func New() *Prompt {
	return &Prompt{}
}

// SetSystem sets the system instruction.
func (p *Prompt) SetSystem(system string) {
	p.system = system
}

// System returns the system instruction.
func (p *Prompt) System() string {
	return p.system
}

// AddText appends a block of user text. Empty blocks are ignored.
func (p *Prompt) AddText(text string) {
	if text == "" {
		return
	}
	p.texts = append(p.texts, text)
}

// AddFile attaches the file at path, reading its content from disk. The MIME
// type is derived from the file extension.
func (p *Prompt) AddFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading attachment %s: %w", path, err)
	}
	p.AddFileData(path, data)
	return nil
}

// AddFileData attaches in-memory file content under the given path.
func (p *Prompt) AddFileData(path string, data []byte) {
	p.files = append(p.files, provider.FilePart{
		Path: path,
		Data: data,
		MIME: mimeForPath(path),
	})
}

// Empty reports whether the prompt has neither text nor attachments.
func (p *Prompt) Empty() bool {
	return len(p.texts) == 0 && len(p.files) == 0
}

// Messages renders the prompt as a single user message with the attachments
// in the order they were added. An empty prompt renders to nil.
func (p *Prompt) Messages() []provider.Message {
	if p.Empty() {
		return nil
	}

	var files []provider.FilePart
	if len(p.files) > 0 {
		files = make([]provider.FilePart, len(p.files))
		copy(files, p.files)
	}

	return []provider.Message{{
		Role:    "user",
		Content: strings.Join(p.texts, "\n\n"),
		Files:   files,
	}}
}

// mimeForPath guesses a MIME type from the file extension. The charset
// parameter stdlib mime appends is stripped; vendors expect the bare type.
func mimeForPath(path string) string {
	t := mime.TypeByExtension(filepath.Ext(path))
	if t == "" {
		return ""
	}
	if i := strings.Index(t, ";"); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}
