// Package appconfig loads the hierarchical YAML configuration every
// front-end in this module starts from. It is the Go port of
// br_sdk.config.AppConfig: a base.yaml merged with a profile-specific
// override file, deep-merged key by key rather than overwritten wholesale.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoggingConfig controls pkg/logging's Setup.
type LoggingConfig struct {
	LogToConsole    bool   `yaml:"log_to_console"`
	LogLevelConsole string `yaml:"log_level_console"`
	LogToFile       bool   `yaml:"log_to_file"`
}

// EventBusConfig overrides the bus transport address.
type EventBusConfig struct {
	SocketPath string `yaml:"socket_path"`
}

// DemoConfig holds motor connection settings (port, baud rate) under the
// "demo" key. The bundled demo sequence does not read them; it always
// drives devicehw's MockTransport.
type DemoConfig struct {
	MotorPort     string `yaml:"motor_port"`
	MotorBaudRate int    `yaml:"motor_baud_rate"`
}

// AppConfig is the full merged configuration tree.
type AppConfig struct {
	OutputDir     string         `yaml:"output_dir"`
	ReportEnabled bool           `yaml:"report_enabled"`
	Logging       LoggingConfig  `yaml:"logging"`
	EventBus      EventBusConfig `yaml:"event_bus"`
	Demo          DemoConfig     `yaml:"demo"`
}

// Defaults returns the configuration used when no config file overrides
// a given key (mirroring AppConfig.get's default-value arguments in the
// original). log_to_file and report_enabled default to false, matching
// the original's defaults; a run must opt in to either.
func Defaults() AppConfig {
	return AppConfig{
		ReportEnabled: false,
		Logging: LoggingConfig{
			LogToConsole:    true,
			LogLevelConsole: "info",
			LogToFile:       false,
		},
	}
}

// Load reads base.yaml and <profile>.yaml from each directory in dirs, in
// order, deep-merging each file found on top of Defaults(). Later
// directories and the profile file within each directory take precedence
// over earlier ones, matching the original's load-order semantics.
// Missing files are not an error; a directory with neither file
// contributes nothing.
func Load(profile string, dirs []string) (AppConfig, error) {
	merged := map[string]any{}
	filenames := []string{"base.yaml", profile + ".yaml"}

	for _, dir := range dirs {
		for _, name := range filenames {
			path := filepath.Join(dir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					continue
				}
				return AppConfig{}, fmt.Errorf("reading %s: %w", path, err)
			}
			var layer map[string]any
			if err := yaml.Unmarshal(data, &layer); err != nil {
				return AppConfig{}, fmt.Errorf("parsing %s: %w", path, err)
			}
			deepMerge(merged, layer)
		}
	}

	out, err := yaml.Marshal(merged)
	if err != nil {
		return AppConfig{}, fmt.Errorf("re-marshalling merged config: %w", err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(out, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decoding merged config: %w", err)
	}
	return cfg, nil
}

// deepMerge writes src's keys into dest, recursing into nested maps
// present on both sides and overwriting everything else, exactly as
// AppConfig._merge does.
func deepMerge(dest, src map[string]any) {
	for key, value := range src {
		if srcMap, ok := value.(map[string]any); ok {
			if destMap, ok := dest[key].(map[string]any); ok {
				deepMerge(destMap, srcMap)
				continue
			}
		}
		dest[key] = value
	}
}
