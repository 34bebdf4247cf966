// Package config loads the security policy file: which auth provider
// the token endpoint uses, the password rules it enforces, which path
// prefixes bypass authentication, and how tokens are signed. The file
// is optional; without one the API falls back to compiled-in defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SecurityConfig mirrors the security policy YAML.
type SecurityConfig struct {
	Security securitySection `yaml:"security"`
}

type securitySection struct {
	Auth            authSection `yaml:"auth"`
	PublicEndpoints []string    `yaml:"public_endpoints"`
	JWT             jwtSection  `yaml:"jwt"`
}

type authSection struct {
	Provider string       `yaml:"provider"`
	Basic    basicSection `yaml:"basic"`
}

type basicSection struct {
	MinPasswordLength int      `yaml:"min_password_length"`
	WeakPasswords     []string `yaml:"weak_passwords"`
}

type jwtSection struct {
	SecretEnv   string `yaml:"secret_env"`
	ExpiryHours int    `yaml:"expiry_hours"`
}

// LoadSecurityConfig reads and validates the policy file. The path
// comes from SECURITY_CONFIG_PATH or a CLI argument, never from
// request input.
func LoadSecurityConfig(path string) (*SecurityConfig, error) {
	// #nosec G304 -- path is provided by trusted source (CLI arg or config), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config SecurityConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// validate rejects policies that would weaken the guard: a missing
// provider, a password floor below 8, or unsigned/short-circuit JWT
// settings.
func (c *SecurityConfig) validate() error {
	if c.Security.Auth.Provider == "" {
		return fmt.Errorf("auth provider is required")
	}
	if c.Security.Auth.Provider == "basic" {
		minLen := c.Security.Auth.Basic.MinPasswordLength
		if minLen <= 0 {
			return fmt.Errorf("min_password_length must be positive")
		}
		if minLen < 8 {
			return fmt.Errorf("min_password_length must be at least 8")
		}
	}
	if c.Security.JWT.SecretEnv == "" {
		return fmt.Errorf("jwt secret_env is required")
	}
	if c.Security.JWT.ExpiryHours <= 0 {
		return fmt.Errorf("jwt expiry_hours must be positive")
	}
	return nil
}

// GetAuthProvider returns the configured provider name.
func (c *SecurityConfig) GetAuthProvider() string { return c.Security.Auth.Provider }

// GetMinPasswordLength returns the password length floor.
func (c *SecurityConfig) GetMinPasswordLength() int { return c.Security.Auth.Basic.MinPasswordLength }

// GetWeakPasswords returns the deny-list of known weak passwords.
func (c *SecurityConfig) GetWeakPasswords() []string { return c.Security.Auth.Basic.WeakPasswords }

// GetPublicEndpoints returns the path prefixes that bypass auth.
func (c *SecurityConfig) GetPublicEndpoints() []string { return c.Security.PublicEndpoints }

// GetJWTSecretEnv names the environment variable holding the signing
// secret.
func (c *SecurityConfig) GetJWTSecretEnv() string { return c.Security.JWT.SecretEnv }

// GetJWTExpiryHours returns the token lifetime in hours.
func (c *SecurityConfig) GetJWTExpiryHours() int { return c.Security.JWT.ExpiryHours }
