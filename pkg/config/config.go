package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/ctrlmetrics/pkg/ast"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "ctrlmetrics.schema.json"

// EnvConfigPath names an environment variable holding a config file path.
const EnvConfigPath = "CTRLMETRICS_CONFIG"

// Config holds all configuration options for ctrlmetrics.
type Config struct {
	// File selection
	Scan ScanConfig `koanf:"scan" json:"scan" toml:"scan"`

	// What counts as a controller and as a stream
	Controller ControllerConfig `koanf:"controller" json:"controller" toml:"controller"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" json:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" json:"output" toml:"output"`
}

// ScanConfig controls which files are considered.
type ScanConfig struct {
	// SourceDir is joined to the root argument before scanning.
	SourceDir string   `koanf:"source_dir" json:"source_dir" toml:"source_dir"`
	Suffix    string   `koanf:"suffix" json:"suffix" toml:"suffix"`
	Exclude   []string `koanf:"exclude" json:"exclude" toml:"exclude"`
	Gitignore bool     `koanf:"gitignore" json:"gitignore" toml:"gitignore"`
}

// ControllerConfig holds the type spellings matched against the syntax tree.
type ControllerConfig struct {
	Interface       string   `koanf:"interface" json:"interface" toml:"interface"`
	StreamTypes     []string `koanf:"stream_types" json:"stream_types" toml:"stream_types"`
	ExcludedMembers []string `koanf:"excluded_members" json:"excluded_members" toml:"excluded_members"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" json:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" json:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" json:"ttl" toml:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" json:"format" toml:"format"` // csv, text, markdown, json, yaml, toon
	File    string `koanf:"file" json:"file" toml:"file"`
	Color   bool   `koanf:"color" json:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" json:"verbose" toml:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			SourceDir: filepath.Join("app", "src", "main"),
			Suffix:    "Controller.kt",
			Exclude:   []string{},
			Gitignore: false,
		},
		Controller: ControllerConfig{
			Interface: "ObservableTransformer<UiEvent, UiChange>",
			StreamTypes: []string{
				"Observable<UiChange>",
				"ObservableSource<UiChange>",
			},
			ExcludedMembers: []string{"apply"},
		},
		Cache: CacheConfig{
			Enabled: false,
			Dir:     ".ctrlmetrics/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format:  "csv",
			File:    "results.csv",
			Color:   true,
			Verbose: false,
		},
	}
}

// LoadResult is a loaded configuration and the file it came from.
// Source is empty when defaults were used.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads a specific file instead of searching standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// LoadConfig loads and validates configuration. With no explicit path it
// honors CTRLMETRICS_CONFIG, then searches standard locations, then falls
// back to defaults.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.path == "" {
		o.path = os.Getenv(EnvConfigPath)
	}
	if o.path == "" {
		o.path = findConfigFile()
	}
	if o.path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(o.path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Source: o.path}, nil
}

// Load loads configuration from a file on top of the defaults and validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = kjson.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// findConfigFile returns the first config file in the standard locations.
func findConfigFile() string {
	configNames := []string{
		"ctrlmetrics.toml",
		"ctrlmetrics.yaml",
		"ctrlmetrics.yml",
		"ctrlmetrics.json",
		".ctrlmetrics.toml",
		".ctrlmetrics.yaml",
		".ctrlmetrics.yml",
		".ctrlmetrics.json",
	}

	// Search in current directory and .ctrlmetrics directory
	searchDirs := []string{".", ".ctrlmetrics"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// ErrInvalidConfig wraps schema validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration against the embedded JSON schema.
func (c *Config) Validate() error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}

	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	types := append([]string{c.Controller.Interface}, c.Controller.StreamTypes...)
	for _, t := range types {
		if _, err := ast.ParseTypeRef(t); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	return c.Compile(schemaURL)
}
