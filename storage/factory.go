package storage

import (
	"fmt"

	"github.com/kbukum/flowkit/logger"
)

// Provider names for the built-in backends.
const (
	ProviderLocal = "local"
	ProviderMinio = "minio"
)

// Config selects and configures a storage backend.
type Config struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderLocal
	}
}

// Factory creates a Storage implementation from core config and
// provider-specific configuration. Each provider type-asserts
// providerCfg to its own config type.
type Factory func(cfg Config, providerCfg any, log *logger.Logger) (Storage, error)

var factories = make(map[string]Factory)

// RegisterFactory registers a storage backend factory for the given
// provider name. Implementation packages call this in an init function
// to make themselves available to New.
func RegisterFactory(name string, f Factory) {
	factories[name] = f
}

// New creates a Storage implementation based on the given Config. The
// provider field determines which backend is used; providerCfg carries
// provider-specific settings (e.g. *local.Config, *minio.Config).
// Ensure the desired provider package has been imported (e.g.
// _ "github.com/kbukum/flowkit/storage/local") so its factory is
// registered.
func New(cfg Config, providerCfg any, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()

	l := log.WithComponent("storage")

	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("storage: unsupported provider %q (not registered)", cfg.Provider)
	}

	l.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider})
	return f(cfg, providerCfg, l)
}
