package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadServerFile reads and validates a server config YAML file.
func LoadServerFile(path string) (ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, err
	}
	return LoadServerBytes(data)
}

// LoadServerBytes parses and validates a server config YAML payload.
func LoadServerBytes(data []byte) (ServerConfig, error) {
	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("config: invalid yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// LoadClientFile reads and validates a client config YAML file.
func LoadClientFile(path string) (ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, err
	}
	return LoadClientBytes(data)
}

// LoadClientBytes parses and validates a client config YAML payload.
func LoadClientBytes(data []byte) (ClientConfig, error) {
	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ClientConfig{}, fmt.Errorf("config: invalid yaml: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}
