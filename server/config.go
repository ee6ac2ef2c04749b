package server

import (
	"fmt"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/validation"
)

// Config holds scoring server configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`    // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`  // seconds
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`    // seconds
	ArtifactPath string `yaml:"artifact_path" mapstructure:"artifact_path" validate:"required"`
	// AuthSecret enables bearer-token auth on /v1 when non-empty.
	AuthSecret string `yaml:"auth_secret" mapstructure:"auth_secret"`
	// WatchArtifact enables hot reload of the artifact file.
	WatchArtifact bool `yaml:"watch_artifact" mapstructure:"watch_artifact"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Name == "" {
		c.Name = "scoring"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
}

// Validate checks the base service fields and the struct tags.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig loads and validates the scoring server configuration from
// config files and environment.
func LoadConfig(serviceName string) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
