package config

import (
	"fmt"

	"github.com/skillsenselab/housekeeper/internal/auth/password"
	"github.com/skillsenselab/housekeeper/internal/auth/token"
	"github.com/skillsenselab/housekeeper/internal/database"
	"github.com/skillsenselab/housekeeper/internal/logger"
	"github.com/skillsenselab/housekeeper/internal/server"
	"github.com/skillsenselab/housekeeper/internal/telemetry"
)

// AuthConfig groups token and password hashing settings.
type AuthConfig struct {
	JWT      token.Config    `yaml:"jwt" mapstructure:"jwt"`
	Password password.Config `yaml:"password" mapstructure:"password"`
}

// Config is the full configuration of the identity service.
type Config struct {
	Name        string `yaml:"name" mapstructure:"name"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Version     string `yaml:"version" mapstructure:"version"`

	Server    server.Config    `yaml:"server" mapstructure:"server"`
	Database  database.Config  `yaml:"database" mapstructure:"database"`
	Auth      AuthConfig       `yaml:"auth" mapstructure:"auth"`
	Logging   logger.Config    `yaml:"logging" mapstructure:"logging"`
	Telemetry telemetry.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults fills in defaults for all sections.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "housekeeper-auth"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	c.Server.ApplyDefaults()
	c.Database.ApplyDefaults()
	c.Auth.JWT.ApplyDefaults()
	c.Auth.Password.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
}

// Validate checks every section. The JWT secret is required; a service
// without one must refuse to start rather than sign tokens with an empty
// key.
func (c *Config) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Auth.JWT.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Password.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return nil
}
