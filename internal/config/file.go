package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the optional on-disk configuration
// (~/.config/netlens/config.yaml). Zero values leave defaults untouched.
type ConfigFile struct {
	TestDuration   string     `yaml:"test_duration,omitempty"`
	UpdateInterval string     `yaml:"update_interval,omitempty"`
	MaxDataPoints  int        `yaml:"max_data_points,omitempty"`
	MaxSaneMbps    float64    `yaml:"max_sane_mbps,omitempty"`
	ProbeBaseURL   string     `yaml:"probe_base_url,omitempty"`
	IPLookupURL    string     `yaml:"ip_lookup_url,omitempty"`
	GeoLookupURL   string     `yaml:"geo_lookup_url,omitempty"`
	Resolvers      []Resolver `yaml:"resolvers,omitempty"`
	STUNServers    []string   `yaml:"stun_servers,omitempty"`
	Port           string     `yaml:"port,omitempty"`
	BindAddress    string     `yaml:"bind_address,omitempty"`
}

func getConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "netlens", "config.yaml")
}

// LoadFile reads the config file if present; a missing file is not an error.
func LoadFile() (*ConfigFile, error) {
	configPath := getConfigPath()
	if configPath == "" {
		return nil, nil
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &file, nil
}

// Merge applies file values over cfg. File durations are strings so a bad
// value can be reported with its source.
func (f *ConfigFile) Merge(cfg *Config) error {
	if f == nil {
		return nil
	}
	if f.TestDuration != "" {
		d, err := time.ParseDuration(f.TestDuration)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid test_duration %q in config file", f.TestDuration)
		}
		cfg.TestDuration = d
	}
	if f.UpdateInterval != "" {
		d, err := time.ParseDuration(f.UpdateInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid update_interval %q in config file", f.UpdateInterval)
		}
		cfg.UpdateInterval = d
	}
	if f.MaxDataPoints > 0 {
		cfg.MaxDataPoints = f.MaxDataPoints
	}
	if f.MaxSaneMbps > 0 {
		cfg.MaxSaneMbps = f.MaxSaneMbps
	}
	if f.ProbeBaseURL != "" {
		cfg.ProbeBaseURL = f.ProbeBaseURL
	}
	if f.IPLookupURL != "" {
		cfg.IPLookupURL = f.IPLookupURL
	}
	if f.GeoLookupURL != "" {
		cfg.GeoLookupURL = f.GeoLookupURL
	}
	if len(f.Resolvers) > 0 {
		cfg.Resolvers = f.Resolvers
	}
	if len(f.STUNServers) > 0 {
		cfg.STUNServers = f.STUNServers
	}
	if f.Port != "" {
		cfg.Port = f.Port
	}
	if f.BindAddress != "" {
		cfg.BindAddress = f.BindAddress
	}
	return nil
}
