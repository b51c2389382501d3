package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"sigs.k8s.io/yaml"
)

const DefaultPath = "config.yml"

var (
	ErrMissingConsoleURL = errors.New("missing zadara CLOUD CONSOLE URL config")
	ErrMissingExportPath = errors.New("missing zadara volume EXPORT PATH config")
)

type Config struct {
	ZadaraCloudConsole ConsoleConfig  `json:"zadara_cloud_console"`
	ZadaraVPSA         VPSAConfig     `json:"zadara_vpsa"`
	Logging            *LoggingConfig `json:"logging,omitempty"`
}

type ConsoleConfig struct {
	URL string `json:"url"`
}

type VPSAConfig struct {
	VolumeExportPath string `json:"volume_export_path"`
}

// Load reads and validates the YAML config at path. A nil Logging section
// means the caller should fall back to basic logging defaults.
func Load(path string) (*Config, error) {
	// .env is optional, tokens usually live there next to config.yml
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.ZadaraCloudConsole.URL = strings.TrimRight(strings.TrimSpace(c.ZadaraCloudConsole.URL), "/")
	c.ZadaraVPSA.VolumeExportPath = strings.TrimSpace(c.ZadaraVPSA.VolumeExportPath)

	if c.ZadaraCloudConsole.URL == "" {
		return ErrMissingConsoleURL
	}
	if c.ZadaraVPSA.VolumeExportPath == "" {
		return ErrMissingExportPath
	}
	if c.Logging != nil {
		if err := c.Logging.validate(); err != nil {
			return fmt.Errorf("logging config: %w", err)
		}
	}
	return nil
}
