// Package config loads and saves the s330ctl configuration file.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Driver selects the MIDI backend.
type Driver string

const (
	DriverPortMidi Driver = "portmidi"
	DriverRTMidi   Driver = "rtmidi"
)

// Config is the persisted tool configuration. The protocol core keeps
// no state of its own; this is operator preference only.
type Config struct {
	InPort           string `json:"inPort,omitempty"`
	OutPort          string `json:"outPort,omitempty"`
	Driver           Driver `json:"driver,omitempty"`
	DeviceID         int    `json:"deviceId"`
	RequestTimeoutMS int    `json:"requestTimeoutMs,omitempty"`
	Debug            bool   `json:"debug,omitempty"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	return &Config{
		Driver:           DriverPortMidi,
		DeviceID:         0,
		RequestTimeoutMS: 2000,
	}
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "s330ctl"), nil
}

// Path returns the full path to config.json.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to disk.
func (c *Config) Save() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
