package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Hub             HubConfig      `yaml:"hub"`
	Database        DatabaseConfig `yaml:"database"`
	Log             LogConfig      `yaml:"log"`
	Server          ServerConfig   `yaml:"server"`
	Fade            FadeConfig     `yaml:"fade"`
	Notify          NotifyConfig   `yaml:"notify"`
	Insights        InsightsConfig `yaml:"insights"`
	ShutdownTimeout Duration       `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// HubConfig contains home-automation hub connection settings
type HubConfig struct {
	Address string   `yaml:"address"`
	Token   string   `yaml:"token"`
	Timeout Duration `yaml:"timeout"` // HTTP timeout for hub API requests
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	JSON   bool   `yaml:"json"`
	Colors bool   `yaml:"colors"`
}

// ServerConfig contains HTTP API server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// FadeConfig contains fade coordinator settings
type FadeConfig struct {
	DefaultDuration Duration `yaml:"default_duration"` // Fade duration when the request omits one
	WindowBuffer    Duration `yaml:"window_buffer"`    // Grace period added to every fade window
	RateLimitRPS    float64  `yaml:"rate_limit_rps"`   // Hub request rate limit during fan-out
}

// NotifyConfig contains MQTT notification sink settings
type NotifyConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         int    `yaml:"qos"`
}

// InsightsConfig contains InfluxDB event history settings
type InsightsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
	Org     string `yaml:"org"`
	Bucket  string `yaml:"bucket"`
}

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./duskd.sqlite"
	}

	// Hub defaults
	if cfg.Hub.Timeout == 0 {
		cfg.Hub.Timeout = Duration(15 * time.Second)
	}

	// Server defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8321
	}

	// Fade defaults
	if cfg.Fade.DefaultDuration == 0 {
		cfg.Fade.DefaultDuration = Duration(60 * time.Second)
	}
	if cfg.Fade.WindowBuffer == 0 {
		cfg.Fade.WindowBuffer = Duration(5 * time.Second)
	}
	if cfg.Fade.RateLimitRPS == 0 {
		cfg.Fade.RateLimitRPS = 10.0 // 10 requests per second
	}

	// Notify defaults
	if cfg.Notify.Broker == "" {
		cfg.Notify.Broker = "tcp://127.0.0.1:1883"
	}
	if cfg.Notify.ClientID == "" {
		cfg.Notify.ClientID = "duskd"
	}
	if cfg.Notify.TopicPrefix == "" {
		cfg.Notify.TopicPrefix = "duskd"
	}

	// Insights defaults
	if cfg.Insights.URL == "" {
		cfg.Insights.URL = "http://127.0.0.1:8086"
	}
	if cfg.Insights.Org == "" {
		cfg.Insights.Org = "home"
	}
	if cfg.Insights.Bucket == "" {
		cfg.Insights.Bucket = "duskd"
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	if cfg.Hub.Address == "" {
		return nil, fmt.Errorf("hub.address is required")
	}

	return &cfg, nil
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
