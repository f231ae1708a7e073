package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds sink-agnostic configuration.
// Sink plugins extract the fields they need.
type Config struct {
	// Sink is the registered factory name (e.g., "default", "nats", "kafka").
	Sink string `yaml:"sink"`

	// Addrs is a list of addresses of the system a sink forwards to.
	Addrs []string `yaml:"addrs"`

	// Topic is the subject or topic prefix forwarded messages are written to.
	Topic string `yaml:"topic"`

	// Filter is a routing-key pattern ("orders.*", "audit.#"). Empty forwards everything.
	Filter string `yaml:"filter"`

	// Extra holds plugin-specific configuration.
	Extra map[string]any `yaml:"extra"`
}

// ParseConfig decodes a YAML document into a Config.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("amqpnotify: parse sink config: %w", err)
	}
	if cfg.Sink == "" {
		cfg.Sink = DefaultSink
	}
	return cfg, nil
}

// LoadConfig reads and decodes the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("amqpnotify: read sink config %q: %w", path, err)
	}
	return ParseConfig(data)
}
