package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

// EnvPrefix is the prefix of environment overrides, e.g.
// STEMGRAPH_CONVERT_GROUP_LABEL.
const EnvPrefix = "STEMGRAPH"

// DefaultDestination is the output directory name used when none is given.
const DefaultDestination = "stemic_csv_files"

// Config holds all application configuration.
type Config struct {
	Convert ConvertConfig `mapstructure:"convert"`
	Graph   GraphConfig   `mapstructure:"graph"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Log     LogConfig     `mapstructure:"log"`
}

type ConvertConfig struct {
	// Destination is the output directory. Empty means DefaultDestination
	// under the working directory.
	Destination string   `mapstructure:"destination"`
	GroupLabel  string   `mapstructure:"group_label"`
	IDScheme    string   `mapstructure:"id_scheme"`
	Formats     []string `mapstructure:"formats"`

	// ColorThemes maps a highlight color to the theme name written instead.
	// Keys keep the case they are written with in the file.
	ColorThemes map[string]string `mapstructure:"color_themes"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var (
	knownFormats   = map[string]bool{"csv": true, "xlsx": true, "dot": true, "json": true}
	knownSchemes   = map[string]bool{"": true, "tagged": true, "banded": true}
	knownLogFormat = map[string]bool{"": true, "text": true, "json": true}
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			GroupLabel: "included_in",
			IDScheme:   "tagged",
			Formats:    []string{"csv"},
		},
		Graph: GraphConfig{
			Username: "neo4j",
		},
		Tracing: TracingConfig{
			SampleRate:  1.0,
			ServiceName: "stemgraph",
			Environment: "development",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if !knownSchemes[strings.ToLower(c.Convert.IDScheme)] {
		warnings = append(warnings, fmt.Sprintf("convert id_scheme '%s' is unknown; use tagged or banded", c.Convert.IDScheme))
	}

	for _, f := range c.Convert.Formats {
		if !knownFormats[strings.ToLower(f)] {
			warnings = append(warnings, fmt.Sprintf("convert format '%s' is unknown", f))
		}
	}

	if c.Convert.GroupLabel == "" {
		warnings = append(warnings, "convert group_label is empty; containment edges will have a blank label")
	}

	// Check sample rate range [0, 1]
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside range [0.0, 1.0]", c.Tracing.SampleRate))
	}

	if c.Graph.URI != "" && c.Graph.Password == "" {
		warnings = append(warnings, fmt.Sprintf("graph uri '%s' is configured but password is empty", c.Graph.URI))
	}

	if !knownLogFormat[strings.ToLower(c.Log.Format)] {
		warnings = append(warnings, fmt.Sprintf("log format '%s' is unknown; use text or json", c.Log.Format))
	}

	return warnings
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("convert.destination", d.Convert.Destination)
	v.SetDefault("convert.group_label", d.Convert.GroupLabel)
	v.SetDefault("convert.id_scheme", d.Convert.IDScheme)
	v.SetDefault("convert.formats", d.Convert.Formats)
	v.SetDefault("graph.uri", d.Graph.URI)
	v.SetDefault("graph.username", d.Graph.Username)
	v.SetDefault("graph.password", d.Graph.Password)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.environment", d.Tracing.Environment)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration from file and environment. An empty path or a
// missing file yields the defaults plus any environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fileRead := false
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config: %w", err)
			}
			fileRead = true
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if fileRead && isYAML(path) {
		themes, err := yamlColorThemes(path)
		if err != nil {
			return nil, fmt.Errorf("reading color_themes: %w", err)
		}
		if themes != nil {
			cfg.Convert.ColorThemes = themes
		}
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlColorThemes decodes convert.color_themes straight from the file.
// Viper lowercases map keys, and theme keys match highlight colors exactly.
func yamlColorThemes(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Convert struct {
			ColorThemes map[string]string `yaml:"color_themes"`
		} `yaml:"convert"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw.Convert.ColorThemes, nil
}
