// Package system provides infrastructure for system-level configuration.
// This covers loading the system config file (~/.addin-compat/config.yaml)
// that describes the scanning engine and the host app bundles.
package system

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/reglet-dev/addin-compat/internal/domain/values"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed config.schema.json
var configSchema []byte

// Config represents the global configuration file (~/.addin-compat/config.yaml).
// This is infrastructure-level configuration separate from per-run flags.
type Config struct {
	Engine            EngineConfig  `yaml:"engine"`
	Scan              ScanConfig    `yaml:"scan"`
	Bundles           BundlesConfig `yaml:"bundles"`
	CacheDir          string        `yaml:"cache_dir"`
	ArchiveExtensions []string      `yaml:"archive_extensions"`
}

// EngineConfig describes how to invoke the binary compatibility scanning engine.
type EngineConfig struct {
	// Command is the engine argv prefix, e.g. ["binary-compat-checker"] or ["dotnet", "checker.dll"].
	Command []string `yaml:"command"`

	// FilePatterns selects the assembly files handed to the engine.
	FilePatterns []string `yaml:"file_patterns"`
}

// ScanConfig holds the scanner flags applied to every scan.
type ScanConfig struct {
	ReportIntPtrConstructors   bool `yaml:"report_intptr_constructors"`
	ReportVersionMismatch      bool `yaml:"report_version_mismatch"`
	ReportEmbeddedInteropTypes bool `yaml:"report_embedded_interop_types"`
}

// BundlesConfig lists candidate host application bundle locations.
type BundlesConfig struct {
	Stable  []string `yaml:"stable"`
	Preview []string `yaml:"preview"`
}

// ConfigLoader loads system configuration from disk.
type ConfigLoader struct{}

// NewConfigLoader creates a new system config loader.
func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

// DefaultConfig returns a Config with safe defaults for all fields.
// This is used when no system config file exists.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Command:      []string{"binary-compat-checker"},
			FilePatterns: []string{"*.dll", "*.exe"},
		},
		Scan: ScanConfig{
			ReportIntPtrConstructors:   true,
			ReportVersionMismatch:      false,
			ReportEmbeddedInteropTypes: false,
		},
		Bundles: BundlesConfig{
			Stable: []string{
				"/Applications/Visual Studio.app",
			},
			Preview: []string{
				"/Applications/Visual Studio (Preview).app",
			},
		},
		CacheDir:          DefaultCacheDir(),
		ArchiveExtensions: []string{".mpack", ".zip"},
	}
}

// DefaultCacheDir returns the per-user cache directory for persisted ignore lists.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "addin-compat")
	}
	return filepath.Join(dir, "addin-compat")
}

// DefaultConfigPath returns ~/.addin-compat/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".addin-compat", "config.yaml")
}

// Load loads the system configuration from the specified path.
// If the file does not exist, returns DefaultConfig().
// Fields the file leaves empty keep their defaults.
func (l *ConfigLoader) Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	//nolint:gosec // G304: path is user-provided config file, validated to exist above
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config: %w", err)
	}

	if err := validateConfigDocument(data); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}
	config.normalize()

	return config, nil
}

// normalize restores defaults for list fields an explicit empty value cleared.
func (c *Config) normalize() {
	defaults := DefaultConfig()
	if len(c.Engine.Command) == 0 {
		c.Engine.Command = defaults.Engine.Command
	}
	if len(c.Engine.FilePatterns) == 0 {
		c.Engine.FilePatterns = defaults.Engine.FilePatterns
	}
	if c.CacheDir == "" {
		c.CacheDir = defaults.CacheDir
	}
	if len(c.ArchiveExtensions) == 0 {
		c.ArchiveExtensions = defaults.ArchiveExtensions
	}
	for i, ext := range c.ArchiveExtensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.ArchiveExtensions[i] = ext
	}
}

// validateConfigDocument checks the raw YAML document against the embedded JSON schema.
func validateConfigDocument(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("failed to parse system config: %w", err)
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("failed to parse system config: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(configSchema)); err != nil {
		return fmt.Errorf("failed to add config schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("failed to compile config schema: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			return formatSchemaValidationError(validationErr)
		}
		return fmt.Errorf("system config validation failed: %w", err)
	}
	return nil
}

// formatSchemaValidationError formats a JSON Schema validation error into a readable message.
func formatSchemaValidationError(err *jsonschema.ValidationError) error {
	var messages []string

	var collectErrors func(*jsonschema.ValidationError)
	collectErrors = func(e *jsonschema.ValidationError) {
		if e.Message != "" && len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "(root)"
			}
			messages = append(messages, fmt.Sprintf("%s: %s", location, e.Message))
		}
		for _, cause := range e.Causes {
			collectErrors(cause)
		}
	}

	collectErrors(err)

	if len(messages) == 0 {
		return fmt.Errorf("system config validation failed")
	}

	return fmt.Errorf("system config validation failed:\n    - %s", strings.Join(messages, "\n    - "))
}

// ScanOptions returns the configured scanner flags.
func (c *Config) ScanOptions() values.ScanOptions {
	return values.ScanOptions{
		ReportIntPtrConstructors:   c.Scan.ReportIntPtrConstructors,
		ReportVersionMismatch:      c.Scan.ReportVersionMismatch,
		ReportEmbeddedInteropTypes: c.Scan.ReportEmbeddedInteropTypes,
	}
}
