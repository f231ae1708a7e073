package registry

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/miladsoleymani/amqpnotify/core"
)

// DefaultSink is the name the logging-only channel sink is registered under.
const DefaultSink = "default"

// Factory creates a ChannelSink from the given Config. Sinks that hold
// resources also implement io.Closer.
type Factory func(cfg Config, l *zap.Logger) (core.ChannelSink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{
		DefaultSink: func(_ Config, l *zap.Logger) (core.ChannelSink, error) {
			return core.NewDefaultChannelSink(l), nil
		},
	}
)

// Register adds a named sink factory. Plugins call this from init().
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// Create instantiates a sink by name using the registered factory.
func Create(name string, cfg Config, l *zap.Logger) (core.ChannelSink, error) {
	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("amqpnotify: unknown sink %q", name)
	}
	return f(cfg, l)
}

// FromConfig instantiates the sink named by cfg.Sink.
func FromConfig(cfg Config, l *zap.Logger) (core.ChannelSink, error) {
	name := cfg.Sink
	if name == "" {
		name = DefaultSink
	}
	return Create(name, cfg, l)
}
