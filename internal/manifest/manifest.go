// Package manifest reads the extension manifest (package.json) of the
// project being packaged.
//
// Manifests in editor-extension projects frequently carry comments and
// trailing commas, so this package uses github.com/tidwall/jsonc to strip
// them before parsing with the standard encoding/json library.
//
// The manifest is informational: it lets the reporter show the extension
// identifier and check the chosen archive's name against the version being
// built. Archive selection never depends on it.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// FileName is the manifest's file name inside the project directory.
const FileName = "package.json"

// ErrNotFound is returned when the project has no manifest.
var ErrNotFound = errors.New("package.json not found")

// Manifest holds the fields of package.json relevant to packaging.
// Other fields are silently ignored during parsing.
type Manifest struct {
	// Name is the extension's package name (e.g., "my-extension").
	Name string `json:"name"`

	// DisplayName is the human-readable name shown in the editor.
	DisplayName string `json:"displayName,omitempty"`

	// Version is the semantic version being packaged.
	Version string `json:"version"`

	// Publisher is the marketplace publisher identifier.
	Publisher string `json:"publisher,omitempty"`
}

// Load reads dir/package.json, strips JSONC comments, and parses it.
//
// Returns an error wrapping ErrNotFound if the file does not exist.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes manifest bytes, accepting JSONC.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &m, nil
}

// ID returns the extension identifier "publisher.name", or just the name
// when no publisher is declared.
func (m *Manifest) ID() string {
	if m.Publisher == "" {
		return m.Name
	}
	return m.Publisher + "." + m.Name
}

// Title returns the display name, falling back to the package name.
func (m *Manifest) Title() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// ExpectedArchiveName returns the file name the packager conventionally
// gives the archive: "<name>-<version><suffix>". Scoped package names
// ("@scope/name") lose their scope. It returns "" when name or version is
// missing.
func (m *Manifest) ExpectedArchiveName(suffix string) string {
	name := m.Name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || m.Version == "" {
		return ""
	}
	return name + "-" + m.Version + suffix
}
