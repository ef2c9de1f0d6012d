// Package config loads the bot configuration from config.json or a YAML
// file, with environment overrides.
package config

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	ranger "github.com/riovv/TalkerTexasRanger"
	"github.com/riovv/TalkerTexasRanger/room"
	"github.com/riovv/TalkerTexasRanger/transport"
)

// The error returned by Validate for a config without rooms.
var ErrNoRooms = errors.New("no rooms configured")

// Duration is a time.Duration written as a string such as "14s".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config is the file format.
type Config struct {
	Host    string      `json:"host" yaml:"host"`
	Port    int         `json:"port" yaml:"port"`
	Token   string      `json:"token" yaml:"token"`
	Rooms   []room.Room `json:"rooms" yaml:"rooms"`
	Command string      `json:"command" yaml:"command"`
	Plugins []string    `json:"plugins" yaml:"plugins"`

	PingInterval       Duration `json:"ping_interval,omitempty" yaml:"ping_interval,omitempty"`
	HandshakeTimeout   Duration `json:"handshake_timeout,omitempty" yaml:"handshake_timeout,omitempty"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify,omitempty"`
	RateLimit          bool     `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// Env holds the settings that can be overridden from the environment.
type Env struct {
	Host    string   `env:"RANGER_HOST"`
	Port    int      `env:"RANGER_PORT"`
	Token   string   `env:"RANGER_TOKEN"`
	Command string   `env:"RANGER_COMMAND"`
	Plugins []string `env:"RANGER_PLUGINS" envSeparator:","`
}

// Default returns a config with defaults and no rooms.
func Default() Config {
	return Config{
		Host:    ranger.DefaultHost,
		Port:    ranger.DefaultPort,
		Command: "!",
	}
}

// Load reads path, applies the environment and validates the result. Files
// ending in .yaml or .yml are YAML, anything else is JSON where comments and
// trailing commas are allowed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// Parse decodes data on top of the defaults. ext selects the format.
func Parse(data []byte, ext string) (*Config, error) {
	config := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	}
	return &config, nil
}

// ApplyEnv overrides settings from RANGER_* environment variables.
func (c *Config) ApplyEnv() error {
	var e Env
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if e.Host != "" {
		c.Host = e.Host
	}
	if e.Port != 0 {
		c.Port = e.Port
	}
	if e.Token != "" {
		c.Token = e.Token
	}
	if e.Command != "" {
		c.Command = e.Command
	}
	if len(e.Plugins) > 0 {
		c.Plugins = e.Plugins
	}
	return nil
}

// Validate checks the config is usable. A missing token is allowed, it may
// be asked for.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.Command == "" {
		return errors.New("command prefix is required")
	}
	if d := time.Duration(c.PingInterval); d < 0 || d >= room.MaxPingInterval {
		return room.ErrPingInterval
	}
	if c.HandshakeTimeout < 0 {
		return errors.New("handshake timeout must not be negative")
	}
	if len(c.Rooms) == 0 {
		return ErrNoRooms
	}

	seen := map[string]struct{}{}
	for i, r := range c.Rooms {
		if r.Name == "" {
			return fmt.Errorf("room %d: %w", i, room.ErrInvalidName)
		}
		if r.ID == "" {
			return fmt.Errorf("room %s: missing id", r.Name)
		}
		if _, ok := seen[r.Name]; ok {
			return fmt.Errorf("room %s: duplicate name", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// Client returns the client settings.
func (c *Config) Client() ranger.Config {
	config := ranger.Config{
		Host:             c.Host,
		Port:             c.Port,
		Token:            c.Token,
		Command:          c.Command,
		PingInterval:     time.Duration(c.PingInterval),
		HandshakeTimeout: time.Duration(c.HandshakeTimeout),
		TLS: &tls.Config{
			ServerName:         c.Host,
			InsecureSkipVerify: c.InsecureSkipVerify,
		},
	}
	if c.RateLimit {
		config.RateLimit = transport.NewInputLimiter
	}
	return config
}
