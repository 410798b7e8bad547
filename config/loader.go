package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// Load reads and validates a configuration file. The format is determined by
// extension: .json is parsed as JSON, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses and validates configuration data. The path is only used to
// pick the format from its extension; an empty path defaults to YAML.
func Parse(data []byte, path string) (*Config, error) {
	// Decode generically first so the document can be schema-checked
	// regardless of source format.
	var doc interface{}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var cfg Config
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	// Resolve once so semantic errors (bad durations, inverted ranges,
	// malformed interests) surface at load time rather than at engine
	// construction.
	if _, err := cfg.EngineConfig(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	for label, ch := range cfg.Channels {
		for _, ic := range ch.Interests {
			if _, err := ic.Interest(); err != nil {
				return nil, fmt.Errorf("channel %q: %w", label, err)
			}
		}
	}

	return &cfg, nil
}

// validateSchema checks the decoded document against the embedded schema.
func validateSchema(doc interface{}) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.json", strings.NewReader(configSchema)); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile("config.json")
	if err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}

	// YAML decodes into types the validator does not accept (e.g.
	// map[string]interface{} with int values is fine, but integers decode
	// as int not float64), so round-trip through JSON.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	var normalized interface{}
	if err := json.Unmarshal(raw, &normalized); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := schema.Validate(normalized); err != nil {
		return fmt.Errorf("configuration failed schema validation: %w", err)
	}
	return nil
}
