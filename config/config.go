package config

import (
	"fmt"
	"strings"
)

// ServerConfig represents the Mini-PGW server configuration loaded from YAML.
type ServerConfig struct {
	UDPIP                string   `yaml:"udp_ip"`
	UDPPort              int      `yaml:"udp_port"`
	SessionTimeoutSec    int      `yaml:"session_timeout_sec"`
	CDRFile              string   `yaml:"cdr_file"`
	HTTPPort             int      `yaml:"http_port"`
	GracefulShutdownRate int      `yaml:"graceful_shutdown_rate"`
	LogFile              string   `yaml:"log_file"`
	LogLevel             string   `yaml:"log_level"`
	Blacklist            []string `yaml:"blacklist"`
}

// ClientConfig represents the Mini-PGW client configuration loaded from YAML.
type ClientConfig struct {
	ServerIP   string `yaml:"server_ip"`
	ServerPort int    `yaml:"server_port"`
	LogFile    string `yaml:"log_file"`
	LogLevel   string `yaml:"log_level"`
}

const (
	DefaultGracefulShutdownRate = 5
	DefaultLogLevel             = "INFO"
)

// ApplyDefaults sets defaults for optional server config fields.
func (c *ServerConfig) ApplyDefaults() {
	if c.GracefulShutdownRate == 0 {
		c.GracefulShutdownRate = DefaultGracefulShutdownRate
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks required fields and basic format constraints.
func (c ServerConfig) Validate() error {
	if strings.TrimSpace(c.UDPIP) == "" {
		return fmt.Errorf("config: udp_ip is required")
	}
	if err := validatePort("udp_port", c.UDPPort); err != nil {
		return err
	}
	if c.SessionTimeoutSec <= 0 {
		return fmt.Errorf("config: session_timeout_sec must be positive")
	}
	if strings.TrimSpace(c.CDRFile) == "" {
		return fmt.Errorf("config: cdr_file is required")
	}
	if err := validatePort("http_port", c.HTTPPort); err != nil {
		return err
	}
	if c.GracefulShutdownRate < 0 {
		return fmt.Errorf("config: graceful_shutdown_rate must not be negative")
	}
	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("config: log_file is required")
	}
	if !isOneOf(c.LogLevel, "INFO", "DEBUG") {
		return fmt.Errorf("config: log_level must be INFO or DEBUG")
	}
	for _, imsi := range c.Blacklist {
		if !isDigits15(imsi) {
			return fmt.Errorf("config: blacklist entry %q must be 15 decimal digits", imsi)
		}
	}
	return nil
}

// ApplyDefaults sets defaults for optional client config fields.
func (c *ClientConfig) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks required fields and basic format constraints.
func (c ClientConfig) Validate() error {
	if strings.TrimSpace(c.ServerIP) == "" {
		return fmt.Errorf("config: server_ip is required")
	}
	if err := validatePort("server_port", c.ServerPort); err != nil {
		return err
	}
	if strings.TrimSpace(c.LogFile) == "" {
		return fmt.Errorf("config: log_file is required")
	}
	if !isOneOf(c.LogLevel, "INFO", "DEBUG") {
		return fmt.Errorf("config: log_level must be INFO or DEBUG")
	}
	return nil
}

func validatePort(label string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("config: %s must be between 1 and 65535", label)
	}
	return nil
}

func isDigits15(s string) bool {
	if len(s) != 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isOneOf(value string, allowed ...string) bool {
	for _, v := range allowed {
		if value == v {
			return true
		}
	}
	return false
}
