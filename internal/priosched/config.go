// Configuration, adapted from the teacher's vmi_internal/config.go: the
// config is loaded from a YAML file with a single named top-level section
// (this module has no secondary "generators" section, unlike the teacher).

package priosched

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	configSectionName = "priosched_config"

	configFrameRateFPSDefault = 0 // 0 => default 5ms frame interval
)

// Config is the top-level, YAML-loadable scheduler configuration.
type Config struct {
	// ForceFrameRateFPS, if non-zero, is applied via (*Scheduler).ForceFrameRate
	// at startup. Must be in [1, 125]; 0 means "leave the 5ms default".
	ForceFrameRateFPS int `yaml:"force_frame_rate_fps"`

	// EnableProfiling starts the scheduler with a BufferProfilingSink
	// attached and logging started.
	EnableProfiling bool `yaml:"enable_profiling"`

	LoggerConfig *LoggerConfig `yaml:"log_config"`
}

func DefaultConfig() *Config {
	return &Config{
		ForceFrameRateFPS: configFrameRateFPSDefault,
		LoggerConfig:      DefaultLoggerConfig(),
	}
}

// LoadConfig loads the priosched_config section of a YAML document, either
// from cfgFile or, if buf is non-nil, directly from buf (the latter is used
// by tests).
func LoadConfig(cfgFile string, buf []byte) (*Config, error) {
	if buf == nil {
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %w", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	if err := yaml.Unmarshal(buf, &docNode); err != nil {
		return nil, fmt.Errorf("file: %q: %w", cfgFile, err)
	}

	cfg := DefaultConfig()
	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		for i := 0; i+1 < len(rootNode.Content); i += 2 {
			keyNode, valNode := rootNode.Content[i], rootNode.Content[i+1]
			if keyNode.Value != configSectionName {
				continue
			}
			if err := valNode.Decode(cfg); err != nil {
				return nil, fmt.Errorf("file: %q: %w", cfgFile, err)
			}
		}
	}

	return cfg, nil
}
