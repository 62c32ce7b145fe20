package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	DataDir           string       `toml:"data_dir"`
	Languages         []string     `toml:"languages"`
	MinSectionLength  int          `toml:"min_section_length"`
	ComparisonSection string       `toml:"comparison_section"`
	RatioBand         RatioBand    `toml:"ratio_band"`
	Parity            ParityConfig `toml:"parity"`
	Oracle            OracleConfig `toml:"oracle"`
}

// RatioBand bounds the accepted translated/source length ratio
type RatioBand struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// ParityConfig controls the key-parity check
type ParityConfig struct {
	// ByID pairs items by their id field instead of by list position
	ByID bool `toml:"by_id"`
}

// OracleConfig configures the text-generation service
type OracleConfig struct {
	Model           string  `toml:"model"`
	MaxOutputTokens int32   `toml:"max_output_tokens"`
	Temperature     float32 `toml:"temperature"`
	TopP            float32 `toml:"top_p"`
}

// Default returns the configuration written on first use
func Default() *Config {
	return &Config{
		DataDir:           filepath.Join("public", "data"),
		Languages:         []string{"en", "pt", "fr", "de", "ja", "ko", "zh"},
		MinSectionLength:  100,
		ComparisonSection: "daily",
		RatioBand:         RatioBand{Min: 0.7, Max: 1.3},
		Oracle: OracleConfig{
			Model:           "gemini-2.0-flash",
			MaxOutputTokens: 1024,
			Temperature:     0.9,
			TopP:            0.95,
		},
	}
}

// GetXDGConfigHome returns XDG_CONFIG_HOME or default path
func GetXDGConfigHome() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return xdgConfig
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config")
}

// GetConfigFilePath returns the path to the config file
func GetConfigFilePath() string {
	return filepath.Join(GetXDGConfigHome(), "cartomancer", "config.toml")
}

// LoadConfig loads the config file, creating it with defaults if needed
func LoadConfig() (*Config, error) {
	return LoadFile(GetConfigFilePath())
}

// LoadFile loads the config at path. Keys missing from the file keep their
// default values.
func LoadFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	config := Default()
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %v", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %v", configPath, err)
	}
	return config, nil
}

// Validate checks values the pipeline cannot work with
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.MinSectionLength < 0 {
		return fmt.Errorf("min_section_length must not be negative")
	}
	if c.RatioBand.Min < 0 || c.RatioBand.Max < c.RatioBand.Min {
		return fmt.Errorf("ratio_band must satisfy 0 <= min <= max (got %v..%v)", c.RatioBand.Min, c.RatioBand.Max)
	}
	for _, lang := range c.Languages {
		if len(lang) != 2 {
			return fmt.Errorf("language codes are two letters, got %q", lang)
		}
	}
	return nil
}

// createDefaultConfig creates a default config file
func createDefaultConfig(configPath string) (*Config, error) {
	config := Default()
	if err := save(configPath, config); err != nil {
		return nil, err
	}
	return config, nil
}

func save(configPath string, config *Config) error {
	configDir := filepath.Dir(configPath)

	// Ensure the config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %v", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("error creating config file: %v", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("error encoding config: %v", err)
	}

	return nil
}

// SetDataDir stores the data directory in the config file at configPath,
// or in the default config file when configPath is empty
func SetDataDir(configPath, dataDir string) error {
	if configPath == "" {
		configPath = GetConfigFilePath()
	}
	config, err := LoadFile(configPath)
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("error resolving %s: %v", dataDir, err)
	}
	config.DataDir = abs

	return save(configPath, config)
}
