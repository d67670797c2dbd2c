package addons

import (
	"os"
	"path/filepath"
	"testing"
)

// writeAddon creates an addon directory with the given manifest content and
// returns its path.
func writeAddon(t *testing.T, root, name, manifest string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("creating addon dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}
	return dir
}

func TestReadManifest(t *testing.T) {
	manifest := `# Part of Odoo.
{
    'name': 'Sale Extended',  # display name
    'version': '1.2.0',
    'depends': ['sale', 'stock'],
    'installable': True,
    'auto_install': False,
}
`
	dir := writeAddon(t, t.TempDir(), "sale_extended", manifest)

	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}

	if m.Name != "Sale Extended" {
		t.Errorf("Name = %q, want %q", m.Name, "Sale Extended")
	}
	if m.Version != "1.2.0" {
		t.Errorf("Version = %q, want %q", m.Version, "1.2.0")
	}
	if len(m.Depends) != 2 || m.Depends[0] != "sale" || m.Depends[1] != "stock" {
		t.Errorf("Depends = %v, want [sale stock]", m.Depends)
	}
	if !m.Installable {
		t.Error("Installable = false, want true")
	}
	if m.AutoInstall {
		t.Error("AutoInstall = true, want false")
	}
}

func TestReadManifest_Defaults(t *testing.T) {
	// No name, no installable: the directory name fills in and
	// installable defaults to true.
	dir := writeAddon(t, t.TempDir(), "crm_helper", `{'depends': ['crm']}`)

	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if m.Name != "crm_helper" {
		t.Errorf("Name = %q, want the directory name", m.Name)
	}
	if !m.Installable {
		t.Error("Installable = false, want the default true")
	}
}

func TestReadManifest_AutoInstallList(t *testing.T) {
	dir := writeAddon(t, t.TempDir(), "sale_stock", `{
    'name': 'Sale Stock',
    'depends': ['sale', 'stock'],
    'auto_install': ['sale', 'stock'],
}`)

	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if !m.AutoInstall {
		t.Error("AutoInstall = false, want true for the list form")
	}
}

func TestReadManifest_NoneValue(t *testing.T) {
	dir := writeAddon(t, t.TempDir(), "web_theme", `{
    'name': 'Web Theme',
    'depends': ['web'],
    'website': None,
}`)

	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if len(m.Depends) != 1 || m.Depends[0] != "web" {
		t.Errorf("Depends = %v, want [web]", m.Depends)
	}
}

func TestReadManifest_HashInsideString(t *testing.T) {
	dir := writeAddon(t, t.TempDir(), "portal_docs", `{
    'name': 'Portal Docs',
    'website': 'https://example.com/#docs',
    'depends': ['portal'],
}`)

	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() error: %v", err)
	}
	if len(m.Depends) != 1 || m.Depends[0] != "portal" {
		t.Errorf("Depends = %v, want [portal] (the # in the URL must not start a comment)", m.Depends)
	}
}

func TestReadManifest_Missing(t *testing.T) {
	if _, err := ReadManifest(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("ReadManifest() expected error for missing manifest")
	}
}

func TestReadManifest_Empty(t *testing.T) {
	dir := writeAddon(t, t.TempDir(), "broken", "")
	if _, err := ReadManifest(dir); err == nil {
		t.Fatal("ReadManifest() expected error for empty manifest")
	}
}

func TestIsAddon(t *testing.T) {
	root := t.TempDir()
	writeAddon(t, root, "real", `{'name': 'Real'}`)
	if err := os.MkdirAll(filepath.Join(root, "bare"), 0o755); err != nil {
		t.Fatalf("creating dir: %v", err)
	}

	if !IsAddon(filepath.Join(root, "real")) {
		t.Error("IsAddon(real) = false, want true")
	}
	if IsAddon(filepath.Join(root, "bare")) {
		t.Error("IsAddon(bare) = true, want false")
	}
	if IsAddon(filepath.Join(root, "absent")) {
		t.Error("IsAddon(absent) = true, want false")
	}
}

func TestNormalizePython(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "literals replaced",
			input: `{'a': True, 'b': False, 'c': None}`,
			want:  `{'a': true, 'b': false, 'c': null}`,
		},
		{
			name:  "literals inside strings preserved",
			input: `{'desc': 'True story about None'}`,
			want:  `{'desc': 'True story about None'}`,
		},
		{
			name:  "comment stripped",
			input: "{'a': 1}  # trailing\n",
			want:  "{'a': 1}  \n",
		},
		{
			name:  "hash inside string preserved",
			input: `{'url': 'https://x.test/#a'}`,
			want:  `{'url': 'https://x.test/#a'}`,
		},
		{
			name:  "identifier containing True untouched",
			input: `{'Truetype': 1}`,
			want:  `{'Truetype': 1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePython(tt.input); got != tt.want {
				t.Errorf("normalizePython(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
