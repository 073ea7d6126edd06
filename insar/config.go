package insar

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MQTTConfig holds broker connection settings for the optional conversion
// event stream. An empty broker disables publishing entirely.
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config is the full configuration file. CLI flags may override individual
// fields after loading.
type Config struct {
	InputDir  string `yaml:"inputDir" json:"inputDir"`
	OutputDir string `yaml:"outputDir" json:"outputDir"`

	// Stride is the decimation interval; 0 means DefaultStride.
	Stride int `yaml:"stride,omitempty" json:"stride,omitempty"`

	// CoherenceThreshold is the acceptance threshold in [0,1]. A pointer so
	// an explicit 0 is distinguishable from unset (DefaultCoherenceThreshold).
	CoherenceThreshold *float64 `yaml:"coherenceThreshold,omitempty" json:"coherenceThreshold,omitempty"`

	// Workers bounds concurrent pair conversions; 0 or 1 keeps the
	// pipeline sequential.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// Footprint enables the per-pair GeoJSON footprint file.
	Footprint bool `yaml:"footprint,omitempty" json:"footprint,omitempty"`

	MQTT MQTTConfig `yaml:"mqtt,omitempty" json:"mqtt,omitempty"`
}

// Threshold returns the configured coherence threshold or the default.
func (c *Config) Threshold() float64 {
	if c.CoherenceThreshold != nil {
		return *c.CoherenceThreshold
	}
	return DefaultCoherenceThreshold
}

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if config.Stride == 0 {
		config.Stride = DefaultStride
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks field ranges. InputDir/OutputDir are validated at use, not
// here, so a config can be loaded and overridden by flags first.
func (c *Config) Validate() error {
	if c.Stride < 1 {
		return fmt.Errorf("stride must be positive, got %d", c.Stride)
	}
	if c.CoherenceThreshold != nil {
		t := *c.CoherenceThreshold
		if t < 0 || t > 1 {
			return fmt.Errorf("coherenceThreshold must be in [0,1], got %g", t)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}
