// Package config loads the converter configuration file. The file is YAML,
// which also accepts the JSON configs used by existing schema pipelines.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for the optional configuration values.
const (
	DefaultOutputFile  = "openapi.yaml"
	DefaultODataSchema = "http://redfish.dmtf.org/schemas/v1/odata-v4.yaml"
	DefaultMessageRef  = "http://redfish.dmtf.org/schemas/v1/Message.v1_0_8.yaml#/components/schemas/Message"
	DefaultTaskRef     = "http://redfish.dmtf.org/schemas/v1/Task.v1_4_2.yaml#/components/schemas/Task"
)

// Config describes one conversion run.
type Config struct {
	// OutputFile is the path of the generated service document, taken as
	// given rather than resolved against the output directory.
	OutputFile string `yaml:"OutputFile"`

	// ODataSchema is the location of the OData schema that resource links
	// point into.
	ODataSchema string `yaml:"ODataSchema"`

	// MessageRef is the schema reference for extended error messages.
	MessageRef string `yaml:"MessageRef"`

	// TaskRef is the schema reference returned by asynchronous operations.
	TaskRef string `yaml:"TaskRef"`

	// Extensions maps a resource type name to additional URIs serving it,
	// applied when seeding the caches from a base service document.
	Extensions map[string][]string `yaml:"Extensions"`

	// Info is the info block of the generated service document. Required.
	Info map[string]any `yaml:"info"`
}

// Load reads and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: could not open %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s contains a malformed document: %w", path, err)
	}
	cfg.applyDefaults()
	if len(cfg.Info) == 0 {
		return nil, fmt.Errorf("config: %s does not contain 'info' data", path)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile
	}
	if c.ODataSchema == "" {
		c.ODataSchema = DefaultODataSchema
	}
	if c.MessageRef == "" {
		c.MessageRef = DefaultMessageRef
	}
	if c.TaskRef == "" {
		c.TaskRef = DefaultTaskRef
	}
	if c.Extensions == nil {
		c.Extensions = map[string][]string{}
	}
}
