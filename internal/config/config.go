package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"greetd/internal/logging"
)

// DefaultPort is the port the responder binds when nothing overrides it.
const DefaultPort = 3000

// DefaultGreeting is the body served for GET / when no greeting is configured.
const DefaultGreeting = "Hello World!"

// Config represents the complete greetd configuration
type Config struct {
	Server   ServerConfig  `json:"server" mapstructure:"server"`
	Greeting string        `json:"greeting" mapstructure:"greeting"`
	Logging  LoggingConfig `json:"logging" mapstructure:"logging"`

	// Routes are inline route declarations; entries loaded from a
	// ROUTES.toml file are appended after these.
	Routes []RouteDecl `json:"routes" mapstructure:"routes"`
}

// ServerConfig contains listener configuration
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: DefaultPort,
		},
		Greeting: DefaultGreeting,
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from a greetd.json file. An empty path
// looks for greetd.json in the working directory; a missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("greeting", DefaultGreeting)
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.level", "info")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("greetd")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && path == "" {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration.
// Precedence for each knob is CLI flag > env > config file > default;
// flags are applied by the caller after this.
func (c *Config) ApplyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		n, err := strconv.Atoi(port)
		if err != nil {
			return &ConfigError{Field: "server.port", Message: fmt.Sprintf("PORT=%q is not a number", port)}
		}
		c.Server.Port = n
	}
	if host := os.Getenv("GREETD_HOST"); host != "" {
		c.Server.Host = host
	}
	if greeting := os.Getenv("GREETD_GREETING"); greeting != "" {
		c.Greeting = greeting
	}
	if format := os.Getenv("GREETD_LOG_FORMAT"); format != "" {
		c.Logging.Format = format
	}
	if level := os.Getenv("GREETD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: fmt.Sprintf("port %d out of range [1, 65535]", c.Server.Port)}
	}
	if c.Server.Host == "" {
		return &ConfigError{Field: "server.host", Message: "host must not be empty"}
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return &ConfigError{Field: "logging.format", Message: err.Error()}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ConfigError{Field: "logging.level", Message: err.Error()}
	}
	if err := ValidateRoutes(c.Routes); err != nil {
		return err
	}
	return nil
}

// Addr returns the host:port pair the listener binds.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
