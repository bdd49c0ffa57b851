// Package config resolves the commands and names the pipeline uses.
//
// Values come from three layers, lowest precedence first:
//  1. Built-in defaults for a VS Code extension (npm, vsce, code).
//  2. An optional project file, .extpack.yaml or .extpack.yml in the working
//     directory, or the file named by EXTPACK_CONFIG.
//  3. Environment variables EXTPACK_<KEY>, with "." in nested keys written
//     as "_" (EXTPACK_PACKAGER_BINARY, EXTPACK_EDITOR_NAME, ...).
//
// The project file is decoded with gopkg.in/yaml.v3 and merged into a viper
// instance that already holds the defaults, which gives env overrides on top
// of both without extra plumbing.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/extpack/internal/runner"
)

const (
	// EnvPrefix is the prefix of every environment override.
	EnvPrefix = "EXTPACK"

	// EnvConfigFile names an explicit project file, bypassing discovery.
	EnvConfigFile = EnvPrefix + "_CONFIG"
)

// FileNames are the project files searched for in the working directory,
// in order.
var FileNames = []string{".extpack.yaml", ".extpack.yml"}

// Config is the resolved pipeline configuration.
type Config struct {
	// Compile is the project's compile command line.
	Compile string `mapstructure:"compile"`

	// Lint is the project's lint command line. Empty skips the lint step.
	Lint string `mapstructure:"lint"`

	// ArtifactSuffix is the file-name suffix of the packager's output.
	ArtifactSuffix string `mapstructure:"artifact_suffix"`

	// Packager describes the packaging tool and how to provision it.
	Packager PackagerConfig `mapstructure:"packager"`

	// Editor describes the editor CLI used for --install.
	Editor EditorConfig `mapstructure:"editor"`

	// Verbose enables debug logging on stderr.
	Verbose bool `mapstructure:"verbose"`
}

// PackagerConfig describes the packaging tool.
type PackagerConfig struct {
	// Binary is probed on PATH to decide whether provisioning is needed.
	Binary string `mapstructure:"binary"`

	// Install is the package-manager command that provisions Binary.
	Install string `mapstructure:"install"`

	// Command produces the archive in the working directory.
	Command string `mapstructure:"command"`
}

// EditorConfig describes the editor CLI.
type EditorConfig struct {
	// Name is the editor's display name used in messages.
	Name string `mapstructure:"name"`

	// Binary is the CLI probed on PATH.
	Binary string `mapstructure:"binary"`

	// InstallFlag is the subcommand or flag that installs an archive; the
	// archive path is appended after it.
	InstallFlag string `mapstructure:"install_flag"`
}

// DefaultConfig returns the configuration for a VS Code extension built
// with npm scripts and packaged with vsce.
func DefaultConfig() *Config {
	return &Config{
		Compile:        "npm run compile",
		Lint:           "npm run lint",
		ArtifactSuffix: ".vsix",
		Packager: PackagerConfig{
			Binary:  "vsce",
			Install: "npm install -g @vscode/vsce",
			Command: "vsce package",
		},
		Editor: EditorConfig{
			Name:        "VS Code",
			Binary:      "code",
			InstallFlag: "--install-extension",
		},
	}
}

// LoadOptions controls where Load looks for the project file.
type LoadOptions struct {
	// Dir is searched for FileNames. Empty means the current directory.
	// A file named by EnvConfigFile is used instead of searching Dir.
	Dir string
}

// Load resolves the configuration. It returns the path of the project file
// that was applied, or "" when only defaults and environment were used.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("compile", defaults.Compile)
	v.SetDefault("lint", defaults.Lint)
	v.SetDefault("artifact_suffix", defaults.ArtifactSuffix)
	v.SetDefault("packager.binary", defaults.Packager.Binary)
	v.SetDefault("packager.install", defaults.Packager.Install)
	v.SetDefault("packager.command", defaults.Packager.Command)
	v.SetDefault("editor.name", defaults.Editor.Name)
	v.SetDefault("editor.binary", defaults.Editor.Binary)
	v.SetDefault("editor.install_flag", defaults.Editor.InstallFlag)
	v.SetDefault("verbose", defaults.Verbose)

	// AllowEmptyEnv lets EXTPACK_LINT="" disable linting the same way an
	// empty lint key in the project file does.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	path, err := resolveConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadYAMLIntoViper(v, path); err != nil {
			return nil, "", err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		if path != "" {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
		return nil, "", err
	}

	return &cfg, path, nil
}

// resolveConfigFile picks the project file to apply, if any.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if explicit := os.Getenv(EnvConfigFile); explicit != "" {
		if !fileExists(explicit) {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, name := range FileNames {
		candidate := filepath.Join(opts.Dir, name)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

// loadYAMLIntoViper decodes a YAML project file and merges it over the
// defaults already registered in v.
func loadYAMLIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var configMap map[string]any
	if err := yaml.Unmarshal(data, &configMap); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	// An empty file decodes to a nil map; nothing to merge.
	if configMap == nil {
		return nil
	}

	if err := checkKeys(configMap); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// knownKeys lists every key a project file may set, nested keys dotted.
var knownKeys = map[string]bool{
	"compile":             true,
	"lint":                true,
	"artifact_suffix":     true,
	"packager":            true,
	"packager.binary":     true,
	"packager.install":    true,
	"packager.command":    true,
	"editor":              true,
	"editor.name":         true,
	"editor.binary":       true,
	"editor.install_flag": true,
	"verbose":             true,
}

// checkKeys rejects unknown keys so a typo does not silently fall back to
// a default command.
func checkKeys(m map[string]any) error {
	var unknown []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, val := range m {
			key := strings.ToLower(prefix + k)
			if !knownKeys[key] {
				unknown = append(unknown, key)
				continue
			}
			if nested, ok := val.(map[string]any); ok {
				walk(key+".", nested)
			}
		}
	}
	walk("", m)

	if len(unknown) > 0 {
		return fmt.Errorf("unknown config keys: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// Validate checks that every required command is present and parseable.
func (c *Config) Validate() error {
	var errs []error

	required := []struct {
		key, value string
	}{
		{"compile", c.Compile},
		{"packager.command", c.Packager.Command},
		{"packager.install", c.Packager.Install},
		{"editor.install_flag", c.Editor.InstallFlag},
	}
	for _, r := range required {
		if _, err := runner.ParseCommandLine(r.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.key, err))
		}
	}

	if strings.TrimSpace(c.Lint) != "" {
		if _, err := runner.ParseCommandLine(c.Lint); err != nil {
			errs = append(errs, fmt.Errorf("lint: %w", err))
		}
	}

	if c.Packager.Binary == "" {
		errs = append(errs, errors.New("packager.binary must not be empty"))
	}
	if c.Editor.Binary == "" {
		errs = append(errs, errors.New("editor.binary must not be empty"))
	}
	if !strings.HasPrefix(c.ArtifactSuffix, ".") || len(c.ArtifactSuffix) < 2 {
		errs = append(errs, fmt.Errorf("artifact_suffix must start with '.', got %q", c.ArtifactSuffix))
	}
	if strings.ContainsAny(c.ArtifactSuffix, `/\`) {
		errs = append(errs, fmt.Errorf("artifact_suffix must not contain path separators, got %q", c.ArtifactSuffix))
	}

	return errors.Join(errs...)
}

// fileExists returns true if path names an existing regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
